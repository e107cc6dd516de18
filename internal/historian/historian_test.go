package historian

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/inkwell/internal/cache"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedSource hands out one scripted batch per Pop, then blocks until ctx ends.
type scriptedSource struct {
	mu      sync.Mutex
	batches [][]cache.GameActionRecord
}

func (s *scriptedSource) Pop(ctx context.Context, timeout time.Duration, max int) ([]cache.GameActionRecord, error) {
	s.mu.Lock()
	if len(s.batches) > 0 {
		next := s.batches[0]
		s.batches = s.batches[1:]
		s.mu.Unlock()
		return next, nil
	}
	s.mu.Unlock()
	<-ctx.Done()
	return nil, ctx.Err()
}

type recordingSink struct {
	mu        sync.Mutex
	fail      bool
	inserted  [][]cache.GameActionRecord
	abandoned []uuid.UUID
}

func (s *recordingSink) InsertGameActions(ctx context.Context, records []cache.GameActionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return errors.New("database unavailable")
	}
	s.inserted = append(s.inserted, append([]cache.GameActionRecord(nil), records...))
	return nil
}

func (s *recordingSink) MarkAbandoned(ctx context.Context, gameID uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.abandoned = append(s.abandoned, gameID)
	return true, nil
}

func (s *recordingSink) total() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, b := range s.inserted {
		n += len(b)
	}
	return n
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func records(gameID uuid.UUID, n int) []cache.GameActionRecord {
	out := make([]cache.GameActionRecord, n)
	for i := range out {
		out[i] = cache.GameActionRecord{GameID: gameID, ActionIndex: i + 1, ActionType: "draw_card"}
	}
	return out
}

func TestIngestFlushesFullBatch(t *testing.T) {
	sink := &recordingSink{}
	s := New(&scriptedSource{}, sink, quietLogger(), Options{BatchSize: 3, FlushDelay: time.Hour})
	gameID := uuid.New()

	s.ingest(context.Background(), records(gameID, 2))
	assert.Zero(t, sink.total(), "batch below threshold stays buffered")

	s.ingest(context.Background(), records(gameID, 1))
	require.Len(t, sink.inserted, 1)
	assert.Len(t, sink.inserted[0], 3)
}

func TestFailedFlushIsRetained(t *testing.T) {
	sink := &recordingSink{fail: true}
	s := New(&scriptedSource{}, sink, quietLogger(), Options{BatchSize: 10})
	gameID := uuid.New()
	ctx := context.Background()

	s.ingest(ctx, records(gameID, 2))
	assert.Error(t, s.flush(ctx))

	s.ingest(ctx, []cache.GameActionRecord{{GameID: gameID, ActionIndex: 3}})
	sink.fail = false
	require.NoError(t, s.flush(ctx))
	require.Len(t, sink.inserted, 1)
	got := sink.inserted[0]
	require.Len(t, got, 3)
	for i, rec := range got {
		assert.Equal(t, i+1, rec.ActionIndex, "original order is preserved")
	}
}

func TestSweepInactiveMarksOnlyStaleGames(t *testing.T) {
	sink := &recordingSink{}
	s := New(&scriptedSource{}, sink, quietLogger(), Options{BatchSize: 100, Inactivity: 10 * time.Minute})
	start := time.Now()
	quiet, busy := uuid.New(), uuid.New()

	s.now = func() time.Time { return start }
	s.ingest(context.Background(), records(quiet, 1))
	s.now = func() time.Time { return start.Add(8 * time.Minute) }
	s.ingest(context.Background(), records(busy, 1))

	stale := s.sweepInactive(context.Background(), start.Add(12*time.Minute))
	assert.Equal(t, []uuid.UUID{quiet}, stale)
	assert.Equal(t, []uuid.UUID{quiet}, sink.abandoned)

	assert.Empty(t, s.sweepInactive(context.Background(), start.Add(13*time.Minute)), "abandoned games are forgotten")
}

func TestRunPersistsQueuedActionsOnShutdown(t *testing.T) {
	gameID := uuid.New()
	src := &scriptedSource{batches: [][]cache.GameActionRecord{records(gameID, 2), records(gameID, 1)}}
	sink := &recordingSink{}
	s := New(src, sink, quietLogger(), Options{BatchSize: 50, FlushDelay: time.Hour})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	require.Eventually(t, func() bool {
		s.mu.Lock()
		defer s.mu.Unlock()
		return len(s.batch) == 3
	}, 2*time.Second, 10*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("historian did not stop")
	}
	assert.Equal(t, 3, sink.total())
}

// cancelingSource simulates shutdown arriving right after a successful pop.
type cancelingSource struct {
	cancel context.CancelFunc
	popped []cache.GameActionRecord
	once   sync.Once
}

func (s *cancelingSource) Pop(ctx context.Context, timeout time.Duration, max int) ([]cache.GameActionRecord, error) {
	var out []cache.GameActionRecord
	s.once.Do(func() {
		s.cancel()
		out = s.popped
	})
	if out != nil {
		return out, nil
	}
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestRunKeepsRecordsPoppedDuringShutdown(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	src := &cancelingSource{cancel: cancel, popped: records(uuid.New(), 1)}
	sink := &recordingSink{}
	s := New(src, sink, quietLogger(), Options{BatchSize: 50, FlushDelay: time.Hour})

	require.NoError(t, s.Run(ctx))
	assert.Equal(t, 1, sink.total())
}
