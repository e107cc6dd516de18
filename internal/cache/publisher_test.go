package cache

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPush struct {
	mu    sync.Mutex
	seen  []int
	gate  chan struct{}
	begun chan struct{}
	once  sync.Once
}

func (r *recordingPush) push(ctx context.Context, rec GameActionRecord) error {
	if r.begun != nil {
		r.once.Do(func() { close(r.begun) })
	}
	if r.gate != nil {
		<-r.gate
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seen = append(r.seen, rec.ActionIndex)
	return nil
}

func TestPublisherPreservesOrderAndDrainsOnClose(t *testing.T) {
	rp := &recordingPush{}
	p := newPublisher(rp.push, 256)
	gameID := uuid.New()
	for i := 1; i <= 200; i++ {
		require.True(t, p.Enqueue(GameActionRecord{GameID: gameID, ActionIndex: i}))
	}
	p.Close()

	require.Len(t, rp.seen, 200)
	for i, idx := range rp.seen {
		assert.Equal(t, i+1, idx)
	}
	assert.False(t, p.Enqueue(GameActionRecord{GameID: gameID, ActionIndex: 201}), "closed publisher refuses records")
	p.Close()
}

func TestPublisherDropsWhenFull(t *testing.T) {
	rp := &recordingPush{gate: make(chan struct{}), begun: make(chan struct{})}
	p := newPublisher(rp.push, 2)
	gameID := uuid.New()

	require.True(t, p.Enqueue(GameActionRecord{GameID: gameID, ActionIndex: 1}))
	select {
	case <-rp.begun:
	case <-time.After(2 * time.Second):
		t.Fatal("publisher did not start pushing")
	}
	assert.True(t, p.Enqueue(GameActionRecord{GameID: gameID, ActionIndex: 2}))
	assert.True(t, p.Enqueue(GameActionRecord{GameID: gameID, ActionIndex: 3}))
	assert.False(t, p.Enqueue(GameActionRecord{GameID: gameID, ActionIndex: 4}))

	close(rp.gate)
	p.Close()
	assert.Equal(t, []int{1, 2, 3}, rp.seen)
}

func TestEnqueueWithoutPublisher(t *testing.T) {
	StopPublisher()
	assert.False(t, EnqueueGameAction(GameActionRecord{GameID: uuid.New(), ActionIndex: 1}))
	assert.Error(t, StartPublisher(8), "no client connected")
}
