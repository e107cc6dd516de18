// internal/game/turn.go
package game

import (
	"github.com/google/uuid"
	"github.com/jason-s-yu/inkwell/internal/models"
	log "github.com/sirupsen/logrus"
)

// EndTurn dries the player's ink, clears their ink flag and passes the turn
// to the next seat. TurnNumber counts full rounds, so it only advances when
// play wraps back to the first seat.
func (g *InkwellGame) EndTurn(playerID uuid.UUID) error {
	player, err := g.getPlayer(playerID)
	if err != nil {
		return err
	}
	if !g.Started {
		return ErrGameNotStarted
	}
	if g.CurrentTurnPlayerID != playerID {
		return rejectf("It is not your turn")
	}

	idx := g.seatIndex(playerID)
	if idx < 0 {
		return invariantf("turn holder %s is not seated", playerID)
	}
	ink := make([]*models.Card, 0, len(player.Zones[models.ZoneInk]))
	for _, id := range player.Zones[models.ZoneInk] {
		card, ok := g.Cards[id]
		if !ok {
			return invariantf("ink zone of %s lists unknown card %s", playerID, id)
		}
		ink = append(ink, card)
	}

	for _, card := range ink {
		card.FaceUp = false
	}
	player.HasInkedThisTurn = false
	next := (idx + 1) % len(g.PlayerOrder)
	g.CurrentTurnPlayerID = g.PlayerOrder[next]
	if next == 0 {
		g.TurnNumber++
	}

	log.Debugf("Game %s: turn passed from %s to %s (round %d).", g.ID, playerID, g.CurrentTurnPlayerID, g.TurnNumber)
	return nil
}

// FlipMysteryCard reveals the player's mystery card into the ready zone.
// It is available from round MysteryFlipTurn onward and only once per player.
func (g *InkwellGame) FlipMysteryCard(playerID uuid.UUID) error {
	player, err := g.getPlayer(playerID)
	if err != nil {
		return err
	}
	if g.TurnNumber < g.HouseRules.MysteryFlipTurn {
		return rejectf("Mystery card can be flipped from turn %d", g.HouseRules.MysteryFlipTurn)
	}
	mystery := player.Zones[models.ZoneMystery]
	if len(mystery) == 0 {
		return rejectf("No mystery card to flip")
	}
	cardID := mystery[0]
	if err := g.MoveCard(cardID, models.ZoneReady, nil, boolPtr(true)); err != nil {
		return err
	}
	g.Cards[cardID].Exerted = false
	return nil
}

// IsPlayersTurn reports whether playerID currently holds the turn.
func (g *InkwellGame) IsPlayersTurn(playerID uuid.UUID) bool {
	return g.Started && g.CurrentTurnPlayerID == playerID
}

func (g *InkwellGame) seatIndex(playerID uuid.UUID) int {
	for i, pid := range g.PlayerOrder {
		if pid == playerID {
			return i
		}
	}
	return -1
}
