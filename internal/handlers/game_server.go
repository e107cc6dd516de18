// internal/handlers/game_server.go
package handlers

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/inkwell/internal/auth"
	"github.com/jason-s-yu/inkwell/internal/database"
	"github.com/jason-s-yu/inkwell/internal/game"
	"github.com/jason-s-yu/inkwell/internal/models"
	"github.com/sirupsen/logrus"
)

// maxPlayers caps the table size accepted by CreateGame.
const maxPlayers = 8

// DeckResolver turns deck list text into one descriptor per card.
type DeckResolver interface {
	ResolveDeck(ctx context.Context, text string) ([]models.Descriptor, error)
}

// GameServer ties the game registry to the transport: it creates games,
// owns each game's connection room and disposes of idle games.
type GameServer struct {
	GameStore  *game.GameStore
	Resolver   DeckResolver
	Signer     *auth.Signer
	Logger     *logrus.Logger
	HouseRules game.HouseRules

	mu    sync.Mutex
	rooms map[uuid.UUID]*room
}

func NewGameServer(resolver DeckResolver, signer *auth.Signer, logger *logrus.Logger) *GameServer {
	return &GameServer{
		GameStore:  game.NewGameStore(),
		Resolver:   resolver,
		Signer:     signer,
		Logger:     logger,
		HouseRules: game.DefaultHouseRules(),
		rooms:      make(map[uuid.UUID]*room),
	}
}

// SeatRequest names a player and their deck list.
type SeatRequest struct {
	Name string `json:"name"`
	Deck string `json:"deck"`
}

// SeatTicket is returned to the creator for each seat.
type SeatTicket struct {
	PlayerID uuid.UUID `json:"player_id"`
	Name     string    `json:"name"`
	Token    string    `json:"token"`
}

// CreateGame resolves every deck, seats the players, starts the game and
// registers it. overrides are applied on top of the server's house rules.
func (gs *GameServer) CreateGame(ctx context.Context, seats []SeatRequest, overrides map[string]interface{}) (*game.InkwellGame, []SeatTicket, error) {
	if len(seats) == 0 || len(seats) > maxPlayers {
		return nil, nil, fmt.Errorf("a game needs between 1 and %d players", maxPlayers)
	}
	rules, err := game.ParseRules(overrides, gs.HouseRules)
	if err != nil {
		return nil, nil, err
	}

	g := game.NewInkwellGame(rules)
	tickets := make([]SeatTicket, 0, len(seats))
	for i, seat := range seats {
		deck, err := gs.Resolver.ResolveDeck(ctx, seat.Deck)
		if err != nil {
			return nil, nil, fmt.Errorf("seat %d: %w", i+1, err)
		}
		name := seat.Name
		if name == "" {
			name = fmt.Sprintf("Player %d", i+1)
		}
		pid := uuid.New()
		if _, err := g.AddPlayer(pid, name, deck); err != nil {
			return nil, nil, err
		}
		token, err := gs.Signer.Issue(pid, g.ID)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to issue session: %w", err)
		}
		tickets = append(tickets, SeatTicket{PlayerID: pid, Name: name, Token: token})
	}
	if err := g.StartGame(); err != nil {
		return nil, nil, err
	}

	g.BroadcastToPlayerFn = gs.broadcastToPlayerFunc(g.ID)
	gs.GameStore.AddGame(g)
	gs.Logger.Infof("Game %s created with %d players.", g.ID, len(seats))

	if database.DB != nil {
		if err := database.InsertGame(ctx, g.ID, len(seats), rules); err != nil {
			gs.Logger.Warnf("Failed to record game %s: %v", g.ID, err)
		}
	}
	return g, tickets, nil
}

// RemoveGame drops a game from the registry and closes its connections.
func (gs *GameServer) RemoveGame(ctx context.Context, gameID uuid.UUID, status string) bool {
	if !gs.GameStore.DeleteGame(gameID) {
		return false
	}
	gs.closeRoom(gameID)
	gs.Logger.Infof("Game %s removed (%s).", gameID, status)
	if database.DB != nil {
		if _, err := database.MarkGameStatus(ctx, gameID, status); err != nil {
			gs.Logger.Warnf("Failed to mark game %s %s: %v", gameID, status, err)
		}
	}
	return true
}

// RunIdleSweeper removes games without activity for ttl, checking every interval, until ctx ends.
func (gs *GameServer) RunIdleSweeper(ctx context.Context, ttl, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-ticker.C:
			gs.sweepIdle(ctx, ttl, now)
		}
	}
}

func (gs *GameServer) sweepIdle(ctx context.Context, ttl time.Duration, now time.Time) []uuid.UUID {
	removed := gs.GameStore.RemoveIdle(ttl, now)
	for _, id := range removed {
		gs.closeRoom(id)
		gs.Logger.Infof("Game %s removed after %s of inactivity.", id, ttl)
		if database.DB != nil {
			if _, err := database.MarkGameStatus(ctx, id, database.GameStatusAbandoned); err != nil {
				gs.Logger.Warnf("Failed to mark game %s abandoned: %v", id, err)
			}
		}
	}
	return removed
}

// authorize verifies token and checks it grants a seat in gameID.
func (gs *GameServer) authorize(token string, gameID uuid.UUID) (uuid.UUID, error) {
	if token == "" {
		return uuid.Nil, auth.ErrInvalidSession
	}
	sess, err := gs.Signer.Verify(token)
	if err != nil {
		return uuid.Nil, err
	}
	if sess.GameID != gameID {
		return uuid.Nil, game.ErrPlayerNotFound
	}
	return sess.PlayerID, nil
}

func (gs *GameServer) room(gameID uuid.UUID) *room {
	gs.mu.Lock()
	defer gs.mu.Unlock()
	r, ok := gs.rooms[gameID]
	if !ok {
		r = newRoom()
		gs.rooms[gameID] = r
	}
	return r
}

// existingRoom looks a room up without creating it; nil once the game is closed.
func (gs *GameServer) existingRoom(gameID uuid.UUID) *room {
	gs.mu.Lock()
	defer gs.mu.Unlock()
	return gs.rooms[gameID]
}

func (gs *GameServer) closeRoom(gameID uuid.UUID) {
	gs.mu.Lock()
	r, ok := gs.rooms[gameID]
	delete(gs.rooms, gameID)
	gs.mu.Unlock()
	if !ok {
		return
	}
	for _, pc := range r.closeAll() {
		go pc.ws.Close(GameClosedError, "Game was closed.")
	}
}

// broadcastToPlayerFunc returns the delivery hook for a game. It runs while the
// game lock is held, so it only queues frames.
func (gs *GameServer) broadcastToPlayerFunc(gameID uuid.UUID) func(uuid.UUID, game.GameEvent) {
	return func(playerID uuid.UUID, ev game.GameEvent) {
		if r := gs.existingRoom(gameID); r != nil {
			r.send(playerID, game.EventBytes(ev))
		}
	}
}

// isNotSeated reports errors that mean the caller has no seat in the game.
func isNotSeated(err error) bool {
	return errors.Is(err, game.ErrPlayerNotFound)
}
