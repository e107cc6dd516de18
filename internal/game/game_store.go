package game

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// GameStore is the registry of live games. Each id maps to exactly one game.
type GameStore struct {
	mu    sync.Mutex
	games map[uuid.UUID]*InkwellGame
}

func NewGameStore() *GameStore {
	return &GameStore{
		games: make(map[uuid.UUID]*InkwellGame),
	}
}

// CreateGame builds a new game with the given rules and registers it.
func (s *GameStore) CreateGame(rules HouseRules) *InkwellGame {
	g := NewInkwellGame(rules)
	s.AddGame(g)
	return g
}

func (s *GameStore) AddGame(game *InkwellGame) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.games[game.ID] = game
}

func (s *GameStore) GetGame(id uuid.UUID) (*InkwellGame, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, exists := s.games[id]
	return g, exists
}

// DeleteGame removes the game and reports whether it was present.
func (s *GameStore) DeleteGame(id uuid.UUID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, exists := s.games[id]
	delete(s.games, id)
	return exists
}

func (s *GameStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.games)
}

// RemoveIdle drops every game whose last activity is older than ttl and
// returns the removed ids. Game locks are not taken.
func (s *GameStore) RemoveIdle(ttl time.Duration, now time.Time) []uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	var removed []uuid.UUID
	for id, g := range s.games {
		if now.Sub(g.LastActivity()) > ttl {
			delete(s.games, id)
			removed = append(removed, id)
		}
	}
	return removed
}
