// internal/game/game.go
package game

import (
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/inkwell/internal/cache"
	"github.com/jason-s-yu/inkwell/internal/models"
	log "github.com/sirupsen/logrus"
)

// GameEventType is an enum-like type for events pushed to clients.
type GameEventType string

const (
	EventGameUpdate GameEventType = "game_update" // full per-viewer snapshot
	EventGameJoined GameEventType = "game_joined" // private ack of a join
	EventError      GameEventType = "error"       // private rejection of an action
)

// EventUser identifies a player inside a GameEvent.
type EventUser struct {
	ID uuid.UUID `json:"id"`
}

// GameEvent is the envelope for everything the engine sends to a client.
type GameEvent struct {
	Type    GameEventType          `json:"type"`
	User    *EventUser             `json:"user,omitempty"`
	Message string                 `json:"message,omitempty"`
	Payload map[string]interface{} `json:"payload,omitempty"`
	State   *ObfGameState          `json:"state,omitempty"`
}

// InkwellGame holds the entire state for a single game instance in memory.
//
// Mu serializes every action against one game. All methods assume the caller
// holds Mu once the game is reachable from a GameStore; games under
// construction may be used without locking.
type InkwellGame struct {
	ID         uuid.UUID
	HouseRules HouseRules

	Players     map[uuid.UUID]*models.Player
	Cards       map[uuid.UUID]*models.Card
	PlayerOrder []uuid.UUID

	CurrentTurnPlayerID uuid.UUID
	TurnNumber          int
	Started             bool
	CreatedAt           time.Time

	Mu sync.Mutex

	// BroadcastToPlayerFn delivers an event to a single player. If nil, events are dropped.
	BroadcastToPlayerFn func(playerID uuid.UUID, ev GameEvent)

	rng          *rand.Rand
	actionIndex  int
	lastActivity atomic.Int64 // unix nanos, read by the store without taking Mu
}

// NewInkwellGame builds an empty game with the given house rules.
func NewInkwellGame(rules HouseRules) *InkwellGame {
	now := time.Now()
	g := &InkwellGame{
		ID:         uuid.New(),
		HouseRules: rules,
		Players:    make(map[uuid.UUID]*models.Player),
		Cards:      make(map[uuid.UUID]*models.Card),
		TurnNumber: 1,
		CreatedAt:  now,
		rng:        rand.New(rand.NewSource(now.UnixNano())),
	}
	g.touch()
	return g
}

// SetRand replaces the shuffle source, used for reproducible games.
func (g *InkwellGame) SetRand(r *rand.Rand) {
	g.rng = r
}

// AddPlayer seats a player and creates one face-down deck card per descriptor.
func (g *InkwellGame) AddPlayer(playerID uuid.UUID, username string, deck []models.Descriptor) (*models.Player, error) {
	if g.Started {
		return nil, ErrGameStarted
	}
	if _, exists := g.Players[playerID]; exists {
		return nil, rejectf("Player %s is already seated", playerID)
	}

	player := models.NewPlayer(playerID, username)
	g.Players[playerID] = player
	g.PlayerOrder = append(g.PlayerOrder, playerID)

	for _, d := range deck {
		card := models.NewCard(playerID, d)
		g.Cards[card.ID] = card
		player.Zones[models.ZoneDeck] = append(player.Zones[models.ZoneDeck], card.ID)
	}

	log.Debugf("Game %s: seated player %s (%s) with %d cards.", g.ID, playerID, username, len(deck))
	g.logAction(playerID, "player_add", map[string]interface{}{"deckSize": len(deck)})
	return player, nil
}

// LastActivity returns the time of the last applied action.
func (g *InkwellGame) LastActivity() time.Time {
	return time.Unix(0, g.lastActivity.Load())
}

func (g *InkwellGame) touch() {
	g.lastActivity.Store(time.Now().UnixNano())
}

// HandleJoin marks a player connected and sends them the join ack and a snapshot.
func (g *InkwellGame) HandleJoin(playerID uuid.UUID) error {
	player, err := g.getPlayer(playerID)
	if err != nil {
		return err
	}
	player.Connected = true
	g.touch()
	g.logAction(playerID, "player_join", nil)

	g.fireEventToPlayer(playerID, GameEvent{
		Type:    EventGameJoined,
		User:    &EventUser{ID: playerID},
		Payload: map[string]interface{}{"game_id": g.ID.String()},
	})
	g.broadcastSyncStateToAll()
	return nil
}

// HandleDisconnect marks a player as no longer receiving updates.
func (g *InkwellGame) HandleDisconnect(playerID uuid.UUID) {
	player, ok := g.Players[playerID]
	if !ok || !player.Connected {
		return
	}
	player.Connected = false
	g.logAction(playerID, "player_disconnect", nil)
	log.Infof("Game %s: player %s disconnected.", g.ID, playerID)
	g.broadcastSyncStateToAll()
}

// getPlayer is a helper to find a seated player.
func (g *InkwellGame) getPlayer(playerID uuid.UUID) (*models.Player, error) {
	player, ok := g.Players[playerID]
	if !ok {
		return nil, ErrPlayerNotFound
	}
	return player, nil
}

// getCard returns the card and its owner. A card whose owner is not seated is corruption.
func (g *InkwellGame) getCard(cardID uuid.UUID) (*models.Card, *models.Player, error) {
	card, ok := g.Cards[cardID]
	if !ok {
		return nil, nil, ErrCardNotFound
	}
	owner, ok := g.Players[card.Owner]
	if !ok {
		return nil, nil, invariantf("card %s owned by unknown player %s", cardID, card.Owner)
	}
	return card, owner, nil
}

// CheckInvariants verifies that every card sits in exactly one zone of its owner
// and that the zone recorded on the card matches. It is cheap enough to run after every action.
func (g *InkwellGame) CheckInvariants() error {
	seen := make(map[uuid.UUID]bool, len(g.Cards))
	for pid, player := range g.Players {
		for zone, ids := range player.Zones {
			for _, id := range ids {
				card, ok := g.Cards[id]
				if !ok {
					return invariantf("zone %s of %s lists unknown card %s", zone, pid, id)
				}
				if seen[id] {
					return invariantf("card %s appears in more than one zone", id)
				}
				seen[id] = true
				if card.Owner != pid {
					return invariantf("card %s owned by %s found in zones of %s", id, card.Owner, pid)
				}
				if card.Zone != zone {
					return invariantf("card %s records zone %s but sits in %s", id, card.Zone, zone)
				}
			}
		}
	}
	if len(seen) != len(g.Cards) {
		return invariantf("%d cards indexed but %d placed in zones", len(g.Cards), len(seen))
	}
	if g.Started {
		found := false
		for _, pid := range g.PlayerOrder {
			if pid == g.CurrentTurnPlayerID {
				found = true
				break
			}
		}
		if !found {
			return invariantf("current turn holder %s is not in the player order", g.CurrentTurnPlayerID)
		}
	}
	return nil
}

// fireEventToPlayer sends an event only to a specific connected player.
func (g *InkwellGame) fireEventToPlayer(playerID uuid.UUID, ev GameEvent) {
	if g.BroadcastToPlayerFn == nil {
		log.Debugf("Game %s: BroadcastToPlayerFn is nil, dropping %s for %s.", g.ID, ev.Type, playerID)
		return
	}
	if player, ok := g.Players[playerID]; ok && player.Connected {
		g.BroadcastToPlayerFn(playerID, ev)
	}
}

// rejectToPlayer sends an error event addressed only to the acting player.
func (g *InkwellGame) rejectToPlayer(playerID uuid.UUID, err error) {
	g.fireEventToPlayer(playerID, GameEvent{
		Type:    EventError,
		Message: RejectionReason(err),
	})
}

// sendSyncState sends the projected game state to one player.
func (g *InkwellGame) sendSyncState(playerID uuid.UUID) {
	state := g.GetStateForPlayer(playerID)
	g.fireEventToPlayer(playerID, GameEvent{
		Type:  EventGameUpdate,
		State: &state,
	})
}

// broadcastSyncStateToAll pushes a fresh snapshot to every connected player, in seat order.
func (g *InkwellGame) broadcastSyncStateToAll() {
	sent := 0
	for _, pid := range g.PlayerOrder {
		if p := g.Players[pid]; p != nil && p.Connected {
			g.sendSyncState(pid)
			sent++
		}
	}
	log.Debugf("Game %s: broadcasted state to %d connected players.", g.ID, sent)
}

// logAction hands the action to the ordered historian publisher without blocking the game.
func (g *InkwellGame) logAction(actorID uuid.UUID, actionType string, payload map[string]interface{}) {
	g.actionIndex++
	if payload == nil {
		payload = make(map[string]interface{})
	}
	record := cache.GameActionRecord{
		GameID:        g.ID,
		ActionIndex:   g.actionIndex,
		ActorUserID:   actorID,
		ActionType:    actionType,
		ActionPayload: payload,
		Timestamp:     time.Now().UnixMilli(),
	}
	cache.EnqueueGameAction(record)
}
