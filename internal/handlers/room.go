// internal/handlers/room.go
package handlers

import (
	"context"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// outboundQueueSize bounds how far a slow client may fall behind before it is dropped.
const outboundQueueSize = 64

// playerConn owns one WebSocket and the ordered queue of frames written to it.
// All writes go through out so frames reach the client in the order they were queued.
type playerConn struct {
	playerID uuid.UUID
	ws       *websocket.Conn
	out      chan []byte
	ctx      context.Context
	cancel   context.CancelFunc
}

func newPlayerConn(parent context.Context, playerID uuid.UUID, ws *websocket.Conn) *playerConn {
	ctx, cancel := context.WithCancel(parent)
	return &playerConn{
		playerID: playerID,
		ws:       ws,
		out:      make(chan []byte, outboundQueueSize),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// enqueue never blocks. A full queue means the client cannot keep up; the
// connection is closed instead of silently skipping a frame.
func (pc *playerConn) enqueue(data []byte) bool {
	select {
	case <-pc.ctx.Done():
		return false
	default:
	}
	select {
	case pc.out <- data:
		return true
	default:
		pc.cancel()
		return false
	}
}

// writeLoop drains the queue until the connection context ends.
func (pc *playerConn) writeLoop(logger *logrus.Logger) {
	for {
		select {
		case <-pc.ctx.Done():
			return
		case data := <-pc.out:
			ctx, cancel := context.WithTimeout(pc.ctx, 5*time.Second)
			err := pc.ws.Write(ctx, websocket.MessageText, data)
			cancel()
			if err != nil {
				logger.Warnf("Failed to write to player %s: %v", pc.playerID, err)
				pc.cancel()
				return
			}
		}
	}
}

// room maps the seated players of one game to their live connection.
type room struct {
	mu    sync.Mutex
	conns map[uuid.UUID]*playerConn
}

func newRoom() *room {
	return &room{conns: make(map[uuid.UUID]*playerConn)}
}

// attach binds pc to its player and returns the connection it replaced, if any.
func (r *room) attach(pc *playerConn) *playerConn {
	r.mu.Lock()
	defer r.mu.Unlock()
	old := r.conns[pc.playerID]
	r.conns[pc.playerID] = pc
	return old
}

// detach removes pc if it is still the player's current connection.
func (r *room) detach(pc *playerConn) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.conns[pc.playerID] != pc {
		return false
	}
	delete(r.conns, pc.playerID)
	return true
}

func (r *room) send(playerID uuid.UUID, data []byte) {
	r.mu.Lock()
	pc := r.conns[playerID]
	r.mu.Unlock()
	if pc != nil {
		pc.enqueue(data)
	}
}

// closeAll empties the room and returns the connections it held.
func (r *room) closeAll() []*playerConn {
	r.mu.Lock()
	defer r.mu.Unlock()
	closed := make([]*playerConn, 0, len(r.conns))
	for id, pc := range r.conns {
		closed = append(closed, pc)
		delete(r.conns, id)
	}
	return closed
}
