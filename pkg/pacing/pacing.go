// Package pacing provides context-aware waits for courtesy delays and retry
// backoff. Every sleep in the module runs through a Waiter, so tests can swap
// in a recording fake and run without wall-clock delay.
package pacing

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Waiter suspends the caller for a duration, honoring context cancellation.
type Waiter interface {
	Wait(ctx context.Context, d time.Duration) error
}

// Sleeper is the real Waiter, backed by the runtime timer.
type Sleeper struct{}

// Wait blocks for d or until the context is done, whichever comes first.
func (Sleeper) Wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Limiter enforces a minimum interval between consecutive requests. It is the
// cooperative request spacing layer: not adaptive to server load, just a fixed
// floor between calls.
type Limiter struct {
	l *rate.Limiter
}

// NewLimiter creates a limiter allowing one event per interval. A zero or
// negative interval disables spacing entirely.
func NewLimiter(interval time.Duration) *Limiter {
	if interval <= 0 {
		return &Limiter{l: rate.NewLimiter(rate.Inf, 1)}
	}
	return &Limiter{l: rate.NewLimiter(rate.Every(interval), 1)}
}

// Wait blocks until the next request slot opens or the context is done.
func (l *Limiter) Wait(ctx context.Context) error {
	return l.l.Wait(ctx)
}
