// internal/cache/publisher.go
package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

const publishTimeout = 2 * time.Second

// actions is the process-wide publisher used by EnqueueGameAction.
var actions atomic.Pointer[Publisher]

// Publisher pushes action records to the queue from a single goroutine, so
// they land in the order they were enqueued.
type Publisher struct {
	push    func(ctx context.Context, rec GameActionRecord) error
	records chan GameActionRecord
	done    chan struct{}

	mu     sync.RWMutex
	closed bool
}

// NewPublisher starts a publisher writing to queue on client.
func NewPublisher(client *redis.Client, queue string, buffer int) *Publisher {
	return newPublisher(func(ctx context.Context, rec GameActionRecord) error {
		return pushRecord(ctx, client, queue, rec)
	}, buffer)
}

func newPublisher(push func(ctx context.Context, rec GameActionRecord) error, buffer int) *Publisher {
	p := &Publisher{
		push:    push,
		records: make(chan GameActionRecord, buffer),
		done:    make(chan struct{}),
	}
	go p.run()
	return p
}

func (p *Publisher) run() {
	defer close(p.done)
	for rec := range p.records {
		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		if err := p.push(ctx, rec); err != nil {
			log.Warnf("Game %s: failed to publish action %d: %v", rec.GameID, rec.ActionIndex, err)
		}
		cancel()
	}
}

// Enqueue never blocks. It reports false when the publisher is closed or its
// buffer is full; the record is dropped in both cases.
func (p *Publisher) Enqueue(rec GameActionRecord) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return false
	}
	select {
	case p.records <- rec:
		return true
	default:
		log.Warnf("Game %s: action queue full, dropping action %d", rec.GameID, rec.ActionIndex)
		return false
	}
}

// Close stops accepting records and waits until the buffered ones are pushed.
func (p *Publisher) Close() {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
		close(p.records)
	}
	p.mu.Unlock()
	<-p.done
}

// StartPublisher installs the process-wide publisher on the connected client.
func StartPublisher(buffer int) error {
	if Rdb == nil {
		return errors.New("redis client is not connected")
	}
	if old := actions.Swap(NewPublisher(Rdb, QueueName, buffer)); old != nil {
		old.Close()
	}
	return nil
}

// StopPublisher flushes and removes the process-wide publisher, if any.
func StopPublisher() {
	if p := actions.Swap(nil); p != nil {
		p.Close()
	}
}

// EnqueueGameAction hands a record to the process-wide publisher. It is a
// no-op returning false when no publisher is running.
func EnqueueGameAction(rec GameActionRecord) bool {
	p := actions.Load()
	if p == nil {
		return false
	}
	return p.Enqueue(rec)
}
