// internal/game/ink.go
package game

import (
	"github.com/google/uuid"
	"github.com/jason-s-yu/inkwell/internal/models"
)

// AvailableInk counts the unspent (face-down) cards in a player's ink zone.
func (g *InkwellGame) AvailableInk(playerID uuid.UUID) (int, error) {
	player, err := g.getPlayer(playerID)
	if err != nil {
		return 0, err
	}
	available := 0
	for _, id := range player.Zones[models.ZoneInk] {
		card, ok := g.Cards[id]
		if !ok {
			return 0, invariantf("ink zone of %s lists unknown card %s", playerID, id)
		}
		if !card.FaceUp {
			available++
		}
	}
	return available, nil
}

// CanInkCard reports whether the card may be put into its owner's inkwell now.
// A nil error means the move is legal.
func (g *InkwellGame) CanInkCard(cardID uuid.UUID) error {
	card, owner, err := g.getCard(cardID)
	if err != nil {
		return err
	}
	if owner.HasInkedThisTurn {
		return rejectf("Already inked a card this turn")
	}
	if card.Zone != models.ZoneHand {
		return rejectf("Card must be in hand to ink")
	}
	if !card.Descriptor.Inkwell {
		return rejectf("This card cannot be inked (no inkwell)")
	}
	return nil
}

// InkCard moves an eligible hand card into the inkwell face-down and uses up
// the owner's ink for the turn. State is unchanged on failure.
func (g *InkwellGame) InkCard(cardID uuid.UUID) error {
	if err := g.CanInkCard(cardID); err != nil {
		return err
	}
	card := g.Cards[cardID]
	if err := g.MoveCard(cardID, models.ZoneInk, nil, boolPtr(false)); err != nil {
		return err
	}
	g.Players[card.Owner].HasInkedThisTurn = true
	return nil
}

// CanPlayCard reports whether the card is in hand and its owner has enough unspent ink.
func (g *InkwellGame) CanPlayCard(cardID uuid.UUID) error {
	card, _, err := g.getCard(cardID)
	if err != nil {
		return err
	}
	if card.Zone != models.ZoneHand {
		return rejectf("Card must be in hand to play")
	}
	available, err := g.AvailableInk(card.Owner)
	if err != nil {
		return err
	}
	if cost := card.Descriptor.Cost; cost > available {
		return rejectf("Not enough ink. Need %d, have %d", cost, available)
	}
	return nil
}

// PlayCard pays the card's cost and moves it to the zone its type plays into.
// It does not validate; call CanPlayCard first.
func (g *InkwellGame) PlayCard(cardID uuid.UUID) error {
	card, owner, err := g.getCard(cardID)
	if err != nil {
		return err
	}
	if err := g.spendInk(owner, card.Descriptor.Cost); err != nil {
		return err
	}
	dest := playDestination(card.Descriptor.Type)
	if err := g.MoveCard(cardID, dest, nil, boolPtr(true)); err != nil {
		return err
	}
	card.Exerted = false
	return nil
}

// spendInk flips up to cost unspent ink cards face-up, in zone order.
func (g *InkwellGame) spendInk(player *models.Player, cost int) error {
	for _, id := range player.Zones[models.ZoneInk] {
		if cost <= 0 {
			break
		}
		card, ok := g.Cards[id]
		if !ok {
			return invariantf("ink zone of %s lists unknown card %s", player.ID, id)
		}
		if !card.FaceUp {
			card.FaceUp = true
			cost--
		}
	}
	return nil
}

// playDestination routes by card type; unknown types play like characters.
func playDestination(cardType string) models.Zone {
	switch normalizeType(cardType) {
	case models.CardTypeAction:
		return models.ZoneDiscard
	case models.CardTypeItem, models.CardTypeLocation:
		return models.ZoneReady
	default:
		return models.ZoneSummoning
	}
}
