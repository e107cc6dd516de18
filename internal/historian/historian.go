// internal/historian/historian.go is the asynchronous historian: it drains the
// action queue, persists actions in batches and marks quiet games abandoned.
package historian

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/inkwell/internal/cache"
	"github.com/jason-s-yu/inkwell/internal/database"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// popTimeout bounds each blocking read so cancellation is noticed.
const popTimeout = 3 * time.Second

// Source yields queued action records.
type Source interface {
	Pop(ctx context.Context, timeout time.Duration, max int) ([]cache.GameActionRecord, error)
}

// Sink persists action records and game status changes.
type Sink interface {
	InsertGameActions(ctx context.Context, records []cache.GameActionRecord) error
	MarkAbandoned(ctx context.Context, gameID uuid.UUID) (bool, error)
}

// RedisSource reads the shared Redis action queue.
type RedisSource struct{}

func (RedisSource) Pop(ctx context.Context, timeout time.Duration, max int) ([]cache.GameActionRecord, error) {
	return cache.PopGameActions(ctx, timeout, max)
}

// PostgresSink writes to the shared pgx pool.
type PostgresSink struct{}

func (PostgresSink) InsertGameActions(ctx context.Context, records []cache.GameActionRecord) error {
	return database.InsertGameActions(ctx, records)
}

func (PostgresSink) MarkAbandoned(ctx context.Context, gameID uuid.UUID) (bool, error) {
	return database.MarkGameStatus(ctx, gameID, database.GameStatusAbandoned)
}

// Options tunes batching and the inactivity check.
type Options struct {
	BatchSize     int
	FlushDelay    time.Duration
	Inactivity    time.Duration // a game with no actions for this long is abandoned
	CheckInterval time.Duration
}

// Service encapsulates the queue and database logic for capturing game actions
// and marking games abandoned once the inactivity threshold is reached.
type Service struct {
	source Source
	sink   Sink
	logger *logrus.Logger
	opts   Options

	mu           sync.Mutex
	batch        []cache.GameActionRecord
	lastActivity map[uuid.UUID]time.Time
	now          func() time.Time
}

func New(source Source, sink Sink, logger *logrus.Logger, opts Options) *Service {
	if opts.BatchSize < 1 {
		opts.BatchSize = 1
	}
	if opts.FlushDelay <= 0 {
		opts.FlushDelay = 500 * time.Millisecond
	}
	if opts.CheckInterval <= 0 {
		opts.CheckInterval = time.Minute
	}
	return &Service{
		source:       source,
		sink:         sink,
		logger:       logger,
		opts:         opts,
		batch:        make([]cache.GameActionRecord, 0, opts.BatchSize),
		lastActivity: make(map[uuid.UUID]time.Time),
		now:          time.Now,
	}
}

// Run starts the read, flush and inactivity loops and blocks until ctx ends.
// Whatever is still batched is flushed before it returns.
func (s *Service) Run(ctx context.Context) error {
	s.logger.Info("historian started")
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return s.readLoop(gctx) })
	g.Go(func() error { return s.flushLoop(gctx) })
	g.Go(func() error { return s.inactivityLoop(gctx) })
	err := g.Wait()

	flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if ferr := s.flush(flushCtx); ferr != nil {
		s.logger.Errorf("final flush failed: %v", ferr)
	}
	s.logger.Info("historian stopped")
	return err
}

func (s *Service) readLoop(ctx context.Context) error {
	for {
		records, err := s.source.Pop(ctx, popTimeout, s.opts.BatchSize)
		// popped records are gone from the queue; keep them even when shutting down
		s.ingest(ctx, records)
		if ctx.Err() != nil {
			return nil
		}
		if err != nil {
			s.logger.Errorf("pop actions: %v", err)
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(time.Second):
			}
		}
	}
}

func (s *Service) flushLoop(ctx context.Context) error {
	ticker := time.NewTicker(s.opts.FlushDelay)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := s.flush(ctx); err != nil {
				s.logger.Errorf("flush actions: %v", err)
			}
		}
	}
}

func (s *Service) inactivityLoop(ctx context.Context) error {
	if s.opts.Inactivity <= 0 {
		return nil
	}
	ticker := time.NewTicker(s.opts.CheckInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.sweepInactive(ctx, s.now())
		}
	}
}

// ingest batches records and flushes once the batch is full.
func (s *Service) ingest(ctx context.Context, records []cache.GameActionRecord) {
	if len(records) == 0 {
		return
	}
	now := s.now()
	s.mu.Lock()
	for _, rec := range records {
		s.lastActivity[rec.GameID] = now
	}
	s.batch = append(s.batch, records...)
	full := len(s.batch) >= s.opts.BatchSize
	s.mu.Unlock()

	if full {
		if err := s.flush(ctx); err != nil {
			s.logger.Errorf("flush actions: %v", err)
		}
	}
}

// flush writes the current batch in one transaction. A failed batch is put
// back in front of anything queued meanwhile and retried on the next flush.
func (s *Service) flush(ctx context.Context) error {
	s.mu.Lock()
	if len(s.batch) == 0 {
		s.mu.Unlock()
		return nil
	}
	pending := s.batch
	s.batch = make([]cache.GameActionRecord, 0, s.opts.BatchSize)
	s.mu.Unlock()

	if err := s.sink.InsertGameActions(ctx, pending); err != nil {
		s.mu.Lock()
		s.batch = append(pending, s.batch...)
		s.mu.Unlock()
		return err
	}
	s.logger.Debugf("flushed %d actions", len(pending))
	return nil
}

// sweepInactive marks games abandoned when their last action is older than
// the inactivity threshold, and forgets them.
func (s *Service) sweepInactive(ctx context.Context, now time.Time) []uuid.UUID {
	s.mu.Lock()
	var stale []uuid.UUID
	for id, last := range s.lastActivity {
		if now.Sub(last) > s.opts.Inactivity {
			stale = append(stale, id)
			delete(s.lastActivity, id)
		}
	}
	s.mu.Unlock()

	for _, id := range stale {
		changed, err := s.sink.MarkAbandoned(ctx, id)
		if err != nil {
			s.logger.Errorf("failed to mark game %s abandoned: %v", id, err)
			continue
		}
		if changed {
			s.logger.Infof("marked game %s abandoned after %s without actions", id, s.opts.Inactivity)
		}
	}
	return stale
}
