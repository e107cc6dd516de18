// internal/cards/resolver.go
package cards

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jason-s-yu/inkwell/internal/cache"
	"github.com/jason-s-yu/inkwell/internal/models"
	"github.com/sirupsen/logrus"
)

// ErrEmptyDeck is returned when a deck list has no parsable lines.
var ErrEmptyDeck = errors.New("deck list contains no cards")

// Resolver turns deck entries into descriptors. Lookups go through an
// in-process memo, then Redis, then the card API. Once the API fails the
// resolver stops calling it and hands out placeholders.
type Resolver struct {
	fetcher Fetcher
	ttl     time.Duration
	logger  *logrus.Logger

	mu   sync.Mutex
	memo map[string]models.Descriptor

	mock atomic.Bool
}

// NewResolver builds a resolver. A nil fetcher starts it in placeholder mode.
func NewResolver(fetcher Fetcher, cacheTTL time.Duration, logger *logrus.Logger) *Resolver {
	r := &Resolver{
		fetcher: fetcher,
		ttl:     cacheTTL,
		logger:  logger,
		memo:    make(map[string]models.Descriptor),
	}
	if fetcher == nil {
		r.mock.Store(true)
	}
	return r
}

// Mock reports whether the resolver has fallen back to placeholders.
func (r *Resolver) Mock() bool {
	return r.mock.Load()
}

// Resolve returns the descriptor for one entry. It never fails; unknown cards
// come back as placeholders.
func (r *Resolver) Resolve(ctx context.Context, entry DeckEntry) models.Descriptor {
	key := entry.cacheKey()

	r.mu.Lock()
	d, ok := r.memo[key]
	r.mu.Unlock()
	if ok {
		return d
	}

	if d, ok, err := cache.GetDescriptor(ctx, key); err != nil {
		r.logger.Warnf("card cache read for %q failed: %v", entry.FullName(), err)
	} else if ok {
		r.remember(key, d)
		return d
	}

	d, cacheable := r.fetch(ctx, entry)
	r.remember(key, d)
	if cacheable {
		if err := cache.SetDescriptor(ctx, key, d, r.ttl); err != nil {
			r.logger.Warnf("card cache write for %q failed: %v", entry.FullName(), err)
		}
	}
	return d
}

// fetch asks the API. The bool is true when the result is real data worth sharing across processes.
func (r *Resolver) fetch(ctx context.Context, entry DeckEntry) (models.Descriptor, bool) {
	if r.mock.Load() {
		return Placeholder(entry), false
	}
	raw, found, err := r.fetcher.FetchCard(ctx, entry.FullName())
	if err != nil {
		r.logger.Warnf("card api error for %q, switching to placeholders: %v", entry.FullName(), err)
		r.mock.Store(true)
		return Placeholder(entry), false
	}
	if !found {
		r.logger.Infof("card %q not found, using placeholder", entry.FullName())
		return Placeholder(entry), false
	}
	return NormalizeDescriptor(raw, entry), true
}

func (r *Resolver) remember(key string, d models.Descriptor) {
	r.mu.Lock()
	r.memo[key] = d
	r.mu.Unlock()
}

// ResolveDeck parses a deck list and returns one descriptor per physical card.
func (r *Resolver) ResolveDeck(ctx context.Context, text string) ([]models.Descriptor, error) {
	entries := ParseDeckList(text)
	if len(entries) == 0 {
		return nil, ErrEmptyDeck
	}
	size, err := DeckSize(entries)
	if err != nil {
		return nil, err
	}
	deck := make([]models.Descriptor, 0, size)
	for _, e := range entries {
		d := r.Resolve(ctx, e)
		for i := 0; i < e.Count; i++ {
			deck = append(deck, d)
		}
	}
	r.logger.Debugf("resolved deck of %d cards (%d distinct)", len(deck), len(entries))
	return deck, nil
}
