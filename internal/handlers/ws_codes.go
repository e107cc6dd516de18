// internal/handlers/ws_codes.go
package handlers

import "github.com/coder/websocket"

// Custom WebSocket close codes used by the game socket.
const (
	BadSubprotocolError   websocket.StatusCode = 3000 // client did not negotiate the "game" subprotocol
	InvalidAuthTokenError websocket.StatusCode = 3001 // session token missing, invalid or expired
	NotSeatedError        websocket.StatusCode = 3002 // token is valid but not for a seat in this game
	GameClosedError       websocket.StatusCode = 3003 // the game was removed while connected
	ReplacedError         websocket.StatusCode = 3004 // the same player opened a newer connection
)
