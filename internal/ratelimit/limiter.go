package ratelimit

import (
	"context"
	"fmt"
	"time"
)

// CounterStore counts requests per key within a fixed window. The store
// buckets by the truncated window start, so a fresh window resets every
// key's count. Implementations must make the increment atomic per key.
type CounterStore interface {
	// Incr increments the counter for key in the current window and
	// returns the new count.
	Incr(ctx context.Context, key string, window time.Duration) (int64, error)
}

// Limiter enforces a request quota per key per window.
type Limiter struct {
	store  CounterStore
	limit  int
	window time.Duration
	now    func() time.Time
}

// New creates a new limiter
func New(store CounterStore, limit int, window time.Duration) *Limiter {
	return &Limiter{store: store, limit: limit, window: window, now: time.Now}
}

// WithClock overrides the time source. Used by tests; the store's clock
// should be overridden with the same source so reset times line up with
// the counter's windows.
func (l *Limiter) WithClock(now func() time.Time) *Limiter {
	l.now = now
	return l
}

// Description returns a human-readable form of the configured quota,
// carried in rejection responses.
func (l *Limiter) Description() string {
	return fmt.Sprintf("%d requests per %s", l.limit, l.window)
}

// Allow increments the counter for key and checks it against the quota.
// Returns (allowed, remaining, resetTime, error).
func (l *Limiter) Allow(ctx context.Context, key string) (bool, int, time.Time, error) {
	count, err := l.store.Incr(ctx, key, l.window)
	if err != nil {
		return false, 0, time.Time{}, fmt.Errorf("failed to increment rate limit counter: %w", err)
	}

	reset := l.now().Truncate(l.window).Add(l.window)
	remaining := l.limit - int(count)
	if remaining < 0 {
		remaining = 0
	}
	return count <= int64(l.limit), remaining, reset, nil
}
