// Package storage provides the expiring reference store for refstate.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/yndnr/refstate-go/internal/core/domain"
)

// Common errors
var (
	ErrNotFound   = errors.New("reference not found")
	ErrClosed     = errors.New("store closed")
	ErrInvalidTTL = errors.New("ttl must be positive")
	ErrNilRecord  = errors.New("record is nil")
)

// Store is an expiring key-value store of reference records.
//
// Implementation requirements:
//   - Set replaces any existing record and resets its expiry
//   - Get and Has never report an expired record and lazily remove it
//   - Delete is idempotent
//   - Records are copied in and out; callers never share internal state
type Store interface {
	// Set stores a copy of rec under id, stamping ExpiresAt = now + ttl.
	// On success the stamped deadline is also written to rec.ExpiresAt.
	// Returns ErrNilRecord if rec is nil.
	Set(ctx context.Context, id string, rec *domain.ReferenceRecord, ttl time.Duration) error

	// Get returns the record stored under id.
	// Returns ErrNotFound if it is absent or expired.
	Get(ctx context.Context, id string) (*domain.ReferenceRecord, error)

	// Has reports whether a live record is stored under id.
	Has(ctx context.Context, id string) (bool, error)

	// Delete removes the record stored under id.
	Delete(ctx context.Context, id string) error
}

// Engine is a Store that owns resources and can report its size.
type Engine interface {
	Store

	// Len returns the number of stored records (approximate for durable engines).
	Len() int

	// Close releases the engine. Subsequent calls return ErrClosed.
	Close() error
}

// Engine names accepted by configuration.
const (
	EngineMemory = "memory"
	EngineBadger = "badger"
)

// ExpiresAt returns the absolute deadline in Unix milliseconds for ttl from now.
func ExpiresAt(now time.Time, ttl time.Duration) int64 {
	return now.Add(ttl).UnixMilli()
}
