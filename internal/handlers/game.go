// internal/handlers/game.go
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/jason-s-yu/inkwell/internal/cards"
	"github.com/jason-s-yu/inkwell/internal/database"
	"github.com/jason-s-yu/inkwell/internal/game"
)

type createGameRequest struct {
	Players    []SeatRequest          `json:"players"`
	HouseRules map[string]interface{} `json:"house_rules,omitempty"`
}

type createGameResponse struct {
	GameID  uuid.UUID    `json:"game_id"`
	Players []SeatTicket `json:"players"`
}

// CreateGameHandler handles POST /game/create.
//
// Request payload:
//
//	{
//	  "players": [{"name": "Ana", "deck": "4 Lantern\n..."}],
//	  "house_rules": {"openingHandSize": 7}
//	}
//
// The response carries the game id and one session token per seat.
func CreateGameHandler(gs *GameServer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createGameRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid payload")
			return
		}
		g, tickets, err := gs.CreateGame(r.Context(), req.Players, req.HouseRules)
		if err != nil {
			gs.Logger.Warnf("Failed to create game: %v", err)
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeJSON(w, http.StatusCreated, createGameResponse{GameID: g.ID, Players: tickets})
	}
}

// TestGameHandler handles GET /game/test: a three seat table with the sample
// deck. The caller takes the first seat and receives its token as a cookie.
func TestGameHandler(gs *GameServer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		seats := []SeatRequest{
			{Name: "You", Deck: cards.SampleDeck},
			{Name: "Player 2", Deck: cards.SampleDeck},
			{Name: "Player 3", Deck: cards.SampleDeck},
		}
		g, tickets, err := gs.CreateGame(r.Context(), seats, nil)
		if err != nil {
			gs.Logger.Errorf("Failed to create test game: %v", err)
			writeError(w, http.StatusInternalServerError, "failed to create test game")
			return
		}
		me := tickets[0]
		http.SetCookie(w, &http.Cookie{
			Name:     authCookieName,
			Value:    me.Token,
			HttpOnly: true,
			Path:     "/",
		})

		g.Mu.Lock()
		state := g.GetStateForPlayer(me.PlayerID)
		g.Mu.Unlock()
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"game_id":   g.ID,
			"player_id": me.PlayerID,
			"token":     me.Token,
			"players":   tickets,
			"state":     state,
		})
	}
}

// GameStateHandler handles GET /game/state/{id} for the authenticated seat.
func GameStateHandler(gs *GameServer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		g, playerID, ok := gs.seatedGame(w, r)
		if !ok {
			return
		}
		g.Mu.Lock()
		state := g.GetStateForPlayer(playerID)
		g.Mu.Unlock()
		writeJSON(w, http.StatusOK, state)
	}
}

// DeleteGameHandler handles DELETE /game/{id}. Any seated player may close the table.
func DeleteGameHandler(gs *GameServer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		g, playerID, ok := gs.seatedGame(w, r)
		if !ok {
			return
		}
		if !gs.RemoveGame(r.Context(), g.ID, database.GameStatusCompleted) {
			writeError(w, http.StatusNotFound, "game not found")
			return
		}
		gs.Logger.Infof("Game %s closed by player %s.", g.ID, playerID)
		w.WriteHeader(http.StatusNoContent)
	}
}

// GameActionHandler handles POST /game/action/{id}: the same actions as the
// socket, for clients that do not hold a connection open. The response is the
// caller's fresh snapshot; connected players are updated over their sockets.
func GameActionHandler(gs *GameServer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		g, playerID, ok := gs.seatedGame(w, r)
		if !ok {
			return
		}
		var msg GameMessage
		if err := json.NewDecoder(r.Body).Decode(&msg); err != nil {
			writeError(w, http.StatusBadRequest, "invalid payload")
			return
		}

		g.Mu.Lock()
		err := g.HandlePlayerAction(playerID, msg.toAction())
		state := g.GetStateForPlayer(playerID)
		g.Mu.Unlock()
		if err != nil {
			writeError(w, errorStatus(err), game.RejectionReason(err))
			return
		}
		writeJSON(w, http.StatusOK, state)
	}
}

// seatedGame resolves the {id} path value and the caller's seat, writing the
// error response itself when either is missing.
func (gs *GameServer) seatedGame(w http.ResponseWriter, r *http.Request) (*game.InkwellGame, uuid.UUID, bool) {
	gameID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid game id")
		return nil, uuid.Nil, false
	}
	g, ok := gs.GameStore.GetGame(gameID)
	if !ok {
		writeError(w, http.StatusNotFound, game.ErrGameNotFound.Error())
		return nil, uuid.Nil, false
	}
	playerID, err := gs.authorize(requestToken(r), gameID)
	if err != nil {
		if isNotSeated(err) {
			writeError(w, http.StatusForbidden, "not a player in this game")
		} else {
			writeError(w, http.StatusUnauthorized, "invalid session")
		}
		return nil, uuid.Nil, false
	}

	g.Mu.Lock()
	_, seated := g.Players[playerID]
	g.Mu.Unlock()
	if !seated {
		writeError(w, http.StatusForbidden, "not a player in this game")
		return nil, uuid.Nil, false
	}
	return g, playerID, true
}

// errorStatus maps engine errors onto HTTP status codes.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, game.ErrGameNotFound), errors.Is(err, game.ErrCardNotFound):
		return http.StatusNotFound
	case errors.Is(err, game.ErrNotCardOwner), errors.Is(err, game.ErrPlayerNotFound):
		return http.StatusForbidden
	case game.IsRejection(err):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
