package ratelimit

import (
	"context"
	"sync"
	"time"
)

// pruneThreshold bounds the bucket map; stale buckets are swept lazily
// once the map grows past it.
const pruneThreshold = 10000

// MemoryStore is the process-local CounterStore. State is purely in
// memory; multi-instance deployments should use the Redis store instead.
type MemoryStore struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	now     func() time.Time
}

type bucket struct {
	windowStart time.Time
	count       int64
}

// NewMemoryStore creates a new in-memory counter store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		buckets: make(map[string]*bucket),
		now:     time.Now,
	}
}

// WithClock overrides the time source. Used by tests.
func (s *MemoryStore) WithClock(now func() time.Time) *MemoryStore {
	s.now = now
	return s
}

// Incr implements CounterStore.
func (s *MemoryStore) Incr(_ context.Context, key string, window time.Duration) (int64, error) {
	start := s.now().Truncate(window)

	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.buckets[key]
	if !ok || b.windowStart.Before(start) {
		b = &bucket{windowStart: start}
		s.buckets[key] = b
	}
	b.count++

	if len(s.buckets) > pruneThreshold {
		for k, v := range s.buckets {
			if v.windowStart.Before(start) {
				delete(s.buckets, k)
			}
		}
	}
	return b.count, nil
}
