// internal/game/setup.go
package game

import (
	"slices"

	"github.com/google/uuid"
	"github.com/jason-s-yu/inkwell/internal/models"
	log "github.com/sirupsen/logrus"
)

// StartGame randomizes the seat order, then shuffles and deals every player:
// the top card becomes the face-down mystery card and the next
// OpeningHandSize cards are drawn face-up. Short decks deal what they can.
func (g *InkwellGame) StartGame() error {
	if g.Started {
		return ErrGameStarted
	}
	if len(g.PlayerOrder) == 0 {
		return rejectf("Cannot start a game with no players")
	}

	g.rng.Shuffle(len(g.PlayerOrder), func(i, j int) {
		g.PlayerOrder[i], g.PlayerOrder[j] = g.PlayerOrder[j], g.PlayerOrder[i]
	})
	g.CurrentTurnPlayerID = g.PlayerOrder[0]
	g.TurnNumber = 1

	for _, pid := range g.PlayerOrder {
		player := g.Players[pid]
		g.shuffleZone(player, models.ZoneDeck)
		if _, err := g.moveTop(player, models.ZoneDeck, models.ZoneMystery, 1, false); err != nil {
			return err
		}
		dealt, err := g.moveTop(player, models.ZoneDeck, models.ZoneHand, g.HouseRules.OpeningHandSize, true)
		if err != nil {
			return err
		}
		if dealt < g.HouseRules.OpeningHandSize {
			log.Warnf("Game %s: player %s deck too small, dealt %d of %d cards.", g.ID, pid, dealt, g.HouseRules.OpeningHandSize)
		}
	}

	g.Started = true
	g.touch()
	g.logAction(uuid.Nil, "game_start", map[string]interface{}{
		"playerOrder": g.PlayerOrder,
		"firstPlayer": g.CurrentTurnPlayerID,
	})
	log.Infof("Game %s: started with %d players, %s goes first.", g.ID, len(g.PlayerOrder), g.CurrentTurnPlayerID)
	return nil
}

// Mulligan returns the named hand cards to the bottom of the deck face-down,
// reshuffles the deck and draws one replacement per returned card.
// Ids that are not in the player's hand are ignored. It returns the number of cards replaced.
func (g *InkwellGame) Mulligan(playerID uuid.UUID, cardIDs []uuid.UUID) (int, error) {
	player, err := g.getPlayer(playerID)
	if err != nil {
		return 0, err
	}

	returned := 0
	for _, id := range cardIDs {
		if !slices.Contains(player.Zones[models.ZoneHand], id) {
			continue
		}
		if err := g.MoveCard(id, models.ZoneDeck, nil, boolPtr(false)); err != nil {
			return returned, err
		}
		returned++
	}
	if returned == 0 {
		return 0, nil
	}

	g.shuffleZone(player, models.ZoneDeck)
	return g.moveTop(player, models.ZoneDeck, models.ZoneHand, returned, true)
}
