// internal/handlers/routes.go
package handlers

import (
	"net/http"

	"github.com/jason-s-yu/inkwell/internal/middleware"
	"github.com/sirupsen/logrus"
)

// Routes builds the HTTP surface of the game server.
func Routes(logger *logrus.Logger, gs *GameServer) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /user/create", CreateUserHandler(logger))
	mux.HandleFunc("POST /user/login", LoginHandler(logger, gs.Signer))

	mux.HandleFunc("POST /game/create", CreateGameHandler(gs))
	mux.HandleFunc("GET /game/test", TestGameHandler(gs))
	mux.HandleFunc("GET /game/state/{id}", GameStateHandler(gs))
	mux.HandleFunc("POST /game/action/{id}", GameActionHandler(gs))
	mux.HandleFunc("DELETE /game/{id}", DeleteGameHandler(gs))
	mux.HandleFunc("GET /game/ws/{id}", GameWSHandler(logger, gs))

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{"status": "ok", "games": gs.GameStore.Len()})
	})

	return middleware.LogMiddleware(logger)(mux)
}
