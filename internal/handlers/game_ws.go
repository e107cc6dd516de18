// internal/handlers/game_ws.go
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/jason-s-yu/inkwell/internal/game"
	"github.com/jason-s-yu/inkwell/internal/middleware"
	"github.com/jason-s-yu/inkwell/internal/models"
	"github.com/sirupsen/logrus"
)

// GameMessage is an inbound frame on the game socket. Field names match the
// payload keys the engine reads.
type GameMessage struct {
	Type     string   `json:"type"`
	CardID   string   `json:"card_id,omitempty"`
	ToZone   string   `json:"to_zone,omitempty"`
	FaceUp   *bool    `json:"face_up,omitempty"`
	Position *int     `json:"position,omitempty"`
	Amount   *int     `json:"amount,omitempty"`
	CardIDs  []string `json:"card_ids,omitempty"`
}

// toAction flattens the message into the engine's action shape.
func (m GameMessage) toAction() models.GameAction {
	payload := make(map[string]interface{})
	if m.CardID != "" {
		payload["card_id"] = m.CardID
	}
	if m.ToZone != "" {
		payload["to_zone"] = m.ToZone
	}
	if m.FaceUp != nil {
		payload["face_up"] = *m.FaceUp
	}
	if m.Position != nil {
		payload["position"] = *m.Position
	}
	if m.Amount != nil {
		payload["amount"] = *m.Amount
	}
	if m.CardIDs != nil {
		ids := make([]interface{}, len(m.CardIDs))
		for i, id := range m.CardIDs {
			ids[i] = id
		}
		payload["card_ids"] = ids
	}
	return models.GameAction{ActionType: m.Type, Payload: payload}
}

// GameWSHandler upgrades GET /game/ws/{id} for a seated player. The client
// must offer the "game" subprotocol and present its session token; it then
// sends {"type":"join"} to start receiving snapshots.
func GameWSHandler(logger *logrus.Logger, gs *GameServer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		gameID, err := uuid.Parse(r.PathValue("id"))
		if err != nil {
			http.Error(w, "Invalid game_id format", http.StatusBadRequest)
			return
		}
		g, ok := gs.GameStore.GetGame(gameID)
		if !ok {
			http.Error(w, "Game not found", http.StatusNotFound)
			return
		}
		token := requestToken(r)

		c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			Subprotocols:   []string{"game"},
			OriginPatterns: []string{"*"},
		})
		if err != nil {
			logger.Warnf("WebSocket accept error for game %s: %v", gameID, err)
			return
		}
		defer c.Close(websocket.StatusInternalError, "Internal server error during handler exit.")

		if c.Subprotocol() != "game" {
			logger.Warnf("Client for game %s connected with invalid subprotocol: %s", gameID, c.Subprotocol())
			c.Close(BadSubprotocolError, "Client must use the 'game' subprotocol.")
			return
		}

		playerID, err := gs.authorize(token, gameID)
		if err != nil {
			logger.Warnf("Rejected socket for game %s: %v", gameID, err)
			if isNotSeated(err) {
				c.Close(NotSeatedError, "You are not a player in this game.")
			} else {
				c.Close(InvalidAuthTokenError, "Authentication failed.")
			}
			return
		}
		g.Mu.Lock()
		_, seated := g.Players[playerID]
		g.Mu.Unlock()
		if !seated {
			c.Close(NotSeatedError, "You are not a player in this game.")
			return
		}
		middleware.LogWebSocketConnect(logger, r.RemoteAddr, r.URL.Path)

		pc := newPlayerConn(r.Context(), playerID, c)
		defer pc.cancel()
		go pc.writeLoop(logger)

		if old := gs.room(gameID).attach(pc); old != nil {
			logger.Infof("Player %s opened a new socket for game %s, closing the old one.", playerID, gameID)
			go old.ws.Close(ReplacedError, "Replaced by a newer connection.")
			old.cancel()
		}
		if _, ok := gs.GameStore.GetGame(gameID); !ok {
			// removed while this socket was being set up
			gs.closeRoom(gameID)
			return
		}

		readErr := readGameMessages(pc, g, logger)

		if r := gs.existingRoom(gameID); r != nil && r.detach(pc) {
			g.Mu.Lock()
			g.HandleDisconnect(playerID)
			g.Mu.Unlock()
		}
		middleware.LogWebSocketDisconnect(logger, r.RemoteAddr, r.URL.Path, readErr)
	}
}

// readGameMessages reads frames until the connection ends. Each action is
// applied under the game lock; results reach the client through the room queue.
func readGameMessages(pc *playerConn, g *game.InkwellGame, logger *logrus.Logger) error {
	joined := false
	for {
		msgType, data, err := pc.ws.Read(pc.ctx)
		if err != nil {
			status := websocket.CloseStatus(err)
			if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway || errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}
		if msgType != websocket.MessageText {
			logger.Warnf("Received non-text message type %d from player %s in game %s. Ignoring.", msgType, pc.playerID, g.ID)
			continue
		}

		var msg GameMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			logger.Warnf("Invalid JSON received from player %s in game %s: %v", pc.playerID, g.ID, err)
			sendWsError(pc, "Invalid JSON format.")
			continue
		}
		logger.Debugf("Received '%s' from player %s in game %s.", msg.Type, pc.playerID, g.ID)

		switch msg.Type {
		case "ping":
			sendWsMessage(pc, map[string]string{"type": "pong"})

		case "join":
			g.Mu.Lock()
			err := g.HandleJoin(pc.playerID)
			g.Mu.Unlock()
			if err != nil {
				sendWsError(pc, game.RejectionReason(err))
				continue
			}
			joined = true

		default:
			if !joined {
				sendWsError(pc, "Send a join message first.")
				continue
			}
			g.Mu.Lock()
			// rejections are delivered to this player by the engine itself
			_ = g.HandlePlayerAction(pc.playerID, msg.toAction())
			g.Mu.Unlock()
		}
	}
}

// sendWsMessage marshals a message and queues it for the client.
func sendWsMessage(pc *playerConn, message interface{}) {
	data, err := json.Marshal(message)
	if err != nil {
		logrus.Errorf("Error marshaling WebSocket message: %v", err)
		return
	}
	pc.enqueue(data)
}

// sendWsError sends a structured error message to the client.
func sendWsError(pc *playerConn, errorMsg string) {
	sendWsMessage(pc, map[string]interface{}{
		"type":    "error",
		"message": errorMsg,
	})
}
