// Package service provides domain services for refstate.
package service

import (
	"context"
	"log/slog"
	"sync"

	"github.com/yndnr/refstate-go/internal/core/domain"
)

// Observer receives every condition raised by a Manager, before the
// condition is returned or swallowed.
type Observer func(ctx context.Context, err *domain.DomainError)

// observers is a copy-on-write list of Observer.
type observers struct {
	mu   sync.RWMutex
	list []Observer
}

func (o *observers) add(fn Observer) {
	if fn == nil {
		return
	}
	o.mu.Lock()
	defer o.mu.Unlock()

	next := make([]Observer, len(o.list), len(o.list)+1)
	copy(next, o.list)
	o.list = append(next, fn)
}

// notify calls every observer in registration order. A panicking observer
// is logged and does not stop the others.
func (o *observers) notify(ctx context.Context, logger *slog.Logger, err *domain.DomainError) {
	o.mu.RLock()
	list := o.list
	o.mu.RUnlock()

	for _, fn := range list {
		func() {
			defer func() {
				if r := recover(); r != nil {
					logger.Error("error observer panicked", "panic", r, "code", err.Code)
				}
			}()
			fn(ctx, err)
		}()
	}
}
