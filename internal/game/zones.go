// internal/game/zones.go
package game

import (
	"slices"

	"github.com/google/uuid"
	"github.com/jason-s-yu/inkwell/internal/models"
)

// MoveCard moves a card to toZone of its owner. The card is removed from its
// current zone before it is inserted, so a failed lookup leaves state untouched.
// position inserts at that index when in range, otherwise the card is appended.
// faceUp, when non-nil, sets the card's orientation.
//
// No legality check is performed here; callers validate first.
func (g *InkwellGame) MoveCard(cardID uuid.UUID, toZone models.Zone, position *int, faceUp *bool) error {
	if !toZone.Valid() {
		return rejectf("Unknown zone %q", toZone)
	}
	card, owner, err := g.getCard(cardID)
	if err != nil {
		return err
	}

	from := owner.Zones[card.Zone]
	idx := slices.Index(from, cardID)
	if idx < 0 {
		return invariantf("card %s records zone %s but is not listed there", cardID, card.Zone)
	}
	owner.Zones[card.Zone] = slices.Delete(from, idx, idx+1)

	dest := owner.Zones[toZone]
	if position != nil && *position >= 0 && *position <= len(dest) {
		dest = slices.Insert(dest, *position, cardID)
	} else {
		dest = append(dest, cardID)
	}
	owner.Zones[toZone] = dest

	card.Zone = toZone
	if faceUp != nil {
		card.FaceUp = *faceUp
	}
	if toZone.ClearsExert() {
		card.Exerted = false
	}
	return nil
}

// moveTop moves up to n cards from the front of a player's zone to another zone.
// It returns how many cards were moved.
func (g *InkwellGame) moveTop(player *models.Player, from, to models.Zone, n int, faceUp bool) (int, error) {
	moved := 0
	for moved < n && len(player.Zones[from]) > 0 {
		if err := g.MoveCard(player.Zones[from][0], to, nil, &faceUp); err != nil {
			return moved, err
		}
		moved++
	}
	return moved, nil
}

// shuffleZone performs a uniform in-place shuffle of one zone.
func (g *InkwellGame) shuffleZone(player *models.Player, zone models.Zone) {
	ids := player.Zones[zone]
	g.rng.Shuffle(len(ids), func(i, j int) {
		ids[i], ids[j] = ids[j], ids[i]
	})
}

func boolPtr(b bool) *bool {
	return &b
}
