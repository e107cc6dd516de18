// internal/game/sync_state.go
package game

import (
	"github.com/google/uuid"
	"github.com/jason-s-yu/inkwell/internal/models"
)

// ObfCard is a card record as shown to one viewer. Descriptor is nil when the
// viewer may not see the card's face.
type ObfCard struct {
	ID         uuid.UUID          `json:"id"`
	Owner      uuid.UUID          `json:"owner"`
	Zone       models.Zone        `json:"zone"`
	FaceUp     bool               `json:"face_up"`
	Exerted    bool               `json:"exerted"`
	Damage     int                `json:"damage"`
	Known      bool               `json:"known"`
	Descriptor *models.Descriptor `json:"card_data,omitempty"`
}

// ObfPlayerState is one player's public summary. Zones is filled only for the viewer themself.
type ObfPlayerState struct {
	PlayerID         uuid.UUID                   `json:"player_id"`
	Username         string                      `json:"username"`
	Lore             int                         `json:"lore"`
	HasInkedThisTurn bool                        `json:"has_inked_this_turn"`
	Connected        bool                        `json:"connected"`
	IsCurrentTurn    bool                        `json:"isCurrentTurn"`
	ZoneCounts       map[models.Zone]int         `json:"zone_counts"`
	Zones            map[models.Zone][]uuid.UUID `json:"zones,omitempty"`
}

// ObfGameState is the snapshot sent to a single viewer.
type ObfGameState struct {
	GameID               uuid.UUID        `json:"game_id"`
	Started              bool             `json:"started"`
	CurrentTurnPlayerID  uuid.UUID        `json:"current_turn_player_id"`
	TurnNumber           int              `json:"turn_number"`
	PlayerOrder          []uuid.UUID      `json:"player_order"`
	Players              []ObfPlayerState `json:"players"`
	OwnCards             []ObfCard        `json:"own_cards"`
	OpponentVisibleCards []ObfCard        `json:"opponent_visible_cards"`
}

// canSee reports whether viewer may see the face of card. Hand cards are
// private to their owner even when face-up.
func canSee(card *models.Card, viewer uuid.UUID) bool {
	if card.Zone == models.ZoneHand {
		return card.Owner == viewer
	}
	return card.FaceUp
}

func obfuscate(card *models.Card, viewer uuid.UUID) ObfCard {
	oc := ObfCard{
		ID:      card.ID,
		Owner:   card.Owner,
		Zone:    card.Zone,
		FaceUp:  card.FaceUp,
		Exerted: card.Exerted,
		Damage:  card.Damage,
	}
	if canSee(card, viewer) {
		d := card.Descriptor
		oc.Known = true
		oc.Descriptor = &d
	}
	return oc
}

// GetStateForPlayer builds the snapshot that viewer is allowed to see. Other
// players' zones are reduced to counts and their cards appear only when visible.
//
// Assumes lock is HELD by the caller.
func (g *InkwellGame) GetStateForPlayer(viewer uuid.UUID) ObfGameState {
	obf := ObfGameState{
		GameID:               g.ID,
		Started:              g.Started,
		CurrentTurnPlayerID:  g.CurrentTurnPlayerID,
		TurnNumber:           g.TurnNumber,
		PlayerOrder:          append([]uuid.UUID(nil), g.PlayerOrder...),
		Players:              make([]ObfPlayerState, 0, len(g.PlayerOrder)),
		OwnCards:             []ObfCard{},
		OpponentVisibleCards: []ObfCard{},
	}

	for _, pid := range g.PlayerOrder {
		pl := g.Players[pid]
		ps := ObfPlayerState{
			PlayerID:         pl.ID,
			Username:         pl.Username,
			Lore:             pl.Lore,
			HasInkedThisTurn: pl.HasInkedThisTurn,
			Connected:        pl.Connected,
			IsCurrentTurn:    g.Started && pl.ID == g.CurrentTurnPlayerID,
			ZoneCounts:       pl.ZoneCounts(),
		}
		if pl.ID == viewer {
			ps.Zones = make(map[models.Zone][]uuid.UUID, len(pl.Zones))
			for z, ids := range pl.Zones {
				ps.Zones[z] = append([]uuid.UUID{}, ids...)
			}
		}
		obf.Players = append(obf.Players, ps)

		// Walk zones in a fixed order so snapshots are stable between pushes.
		for _, z := range models.AllZones {
			for _, id := range pl.Zones[z] {
				card, ok := g.Cards[id]
				if !ok {
					continue
				}
				if pl.ID == viewer {
					obf.OwnCards = append(obf.OwnCards, obfuscate(card, viewer))
				} else if canSee(card, viewer) {
					obf.OpponentVisibleCards = append(obf.OpponentVisibleCards, obfuscate(card, viewer))
				}
			}
		}
	}
	return obf
}
