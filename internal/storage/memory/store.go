// Package memory provides in-memory reference storage for refstate.
package memory

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/yndnr/refstate-go/internal/core/domain"
	"github.com/yndnr/refstate-go/internal/storage"
	"github.com/yndnr/refstate-go/pkg/cmap"
)

// entry is a stored record and the timer that evicts it.
type entry struct {
	rec   *domain.ReferenceRecord
	gen   uint64
	timer *time.Timer
}

// Store provides in-memory reference storage with per-key expiry.
type Store struct {
	items  *cmap.Map[*entry]
	gen    atomic.Uint64
	closed atomic.Bool

	shardCount int
	onEvict    func(id string)
	logger     *slog.Logger
}

// Option configures the Store.
type Option func(*Store)

// WithShards sets the number of map shards (power of two).
func WithShards(n int) Option {
	return func(s *Store) {
		s.shardCount = n
	}
}

// WithEvictHook registers fn to run after a timer evicts an entry.
func WithEvictHook(fn func(id string)) Option {
	return func(s *Store) {
		s.onEvict = fn
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// New creates a new in-memory store.
func New(opts ...Option) *Store {
	s := &Store{
		shardCount: cmap.DefaultShardCount,
		logger:     slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	s.items = cmap.NewWithShards[*entry](s.shardCount)
	return s
}

// Set stores rec under id for ttl, replacing any existing record.
func (s *Store) Set(_ context.Context, id string, rec *domain.ReferenceRecord, ttl time.Duration) error {
	if s.closed.Load() {
		return storage.ErrClosed
	}
	if rec == nil {
		return storage.ErrNilRecord
	}
	if ttl <= 0 {
		return storage.ErrInvalidTTL
	}

	clone := rec.Clone()
	clone.ExpiresAt = storage.ExpiresAt(time.Now(), ttl)

	gen := s.gen.Add(1)
	e := &entry{rec: clone, gen: gen}
	e.timer = time.AfterFunc(ttl, func() { s.evict(id, gen) })

	s.items.Upsert(id, func(old *entry, exists bool) *entry {
		if exists {
			old.timer.Stop()
		}
		return e
	})

	rec.ExpiresAt = clone.ExpiresAt
	return nil
}

// Get retrieves the record stored under id.
func (s *Store) Get(_ context.Context, id string) (*domain.ReferenceRecord, error) {
	if s.closed.Load() {
		return nil, storage.ErrClosed
	}

	e, ok := s.items.Get(id)
	if !ok {
		return nil, storage.ErrNotFound
	}

	if e.rec.IsExpired() {
		s.remove(id, e.gen)
		return nil, storage.ErrNotFound
	}

	// Return a clone to prevent external modification
	return e.rec.Clone(), nil
}

// Has reports whether a live record is stored under id.
func (s *Store) Has(ctx context.Context, id string) (bool, error) {
	_, err := s.Get(ctx, id)
	switch err {
	case nil:
		return true, nil
	case storage.ErrNotFound:
		return false, nil
	default:
		return false, err
	}
}

// Delete removes the record stored under id. Deleting a missing id is a no-op.
func (s *Store) Delete(_ context.Context, id string) error {
	if s.closed.Load() {
		return storage.ErrClosed
	}

	if e, ok := s.items.Pop(id); ok {
		e.timer.Stop()
	}
	return nil
}

// Len returns the number of stored entries, including expired entries not
// yet evicted.
func (s *Store) Len() int {
	return s.items.Count()
}

// Close stops all eviction timers and drops every entry.
func (s *Store) Close() error {
	if s.closed.Swap(true) {
		return nil
	}

	for _, e := range s.items.Clear() {
		e.timer.Stop()
	}
	return nil
}

// evict is the timer callback for the entry with generation gen.
func (s *Store) evict(id string, gen uint64) {
	if !s.remove(id, gen) {
		return
	}

	s.logger.Debug("reference evicted", "reference_id", id)
	if s.onEvict != nil {
		s.onEvict(id)
	}
}

// remove deletes id only if it still holds generation gen.
func (s *Store) remove(id string, gen uint64) bool {
	e, ok := s.items.DeleteIf(id, func(cur *entry) bool {
		return cur.gen == gen
	})
	if ok {
		e.timer.Stop()
	}
	return ok
}

var _ storage.Engine = (*Store)(nil)
