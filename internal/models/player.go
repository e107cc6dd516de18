package models

import (
	"github.com/google/uuid"
)

// Player holds one participant's zones and per-turn state.
type Player struct {
	ID               uuid.UUID            `json:"id"`
	Username         string               `json:"username"`
	Lore             int                  `json:"lore"`
	HasInkedThisTurn bool                 `json:"has_inked_this_turn"`
	Zones            map[Zone][]uuid.UUID `json:"zones"`
	Connected        bool                 `json:"connected"`

	User *User `json:"-"`
}

// NewPlayer builds a player with every zone initialized and empty.
func NewPlayer(id uuid.UUID, username string) *Player {
	zones := make(map[Zone][]uuid.UUID, len(AllZones))
	for _, z := range AllZones {
		zones[z] = []uuid.UUID{}
	}
	return &Player{
		ID:       id,
		Username: username,
		Zones:    zones,
	}
}

// ZoneCounts returns the number of cards in each zone.
func (p *Player) ZoneCounts() map[Zone]int {
	counts := make(map[Zone]int, len(p.Zones))
	for z, ids := range p.Zones {
		counts[z] = len(ids)
	}
	return counts
}
