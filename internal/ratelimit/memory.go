package ratelimit

import (
	"context"
	"sync"
	"time"

	cmap "github.com/orcaman/concurrent-map/v2"
)

type bucket struct {
	mu   sync.Mutex
	hits []time.Time
}

// MemoryLimiter is a per-process sliding window, used when redis is not configured.
type MemoryLimiter struct {
	buckets cmap.ConcurrentMap[string, *bucket]
	limit   int
	window  time.Duration
	now     func() time.Time
}

// NewMemoryLimiter creates an in-memory limiter.
func NewMemoryLimiter(limit int, window time.Duration, now func() time.Time) *MemoryLimiter {
	return &MemoryLimiter{
		buckets: cmap.New[*bucket](),
		limit:   limit,
		window:  window,
		now:     now,
	}
}

// Allow spends one point for key.
func (l *MemoryLimiter) Allow(_ context.Context, key string) (bool, error) {
	b := l.buckets.Upsert(key, nil, func(exist bool, current *bucket, _ *bucket) *bucket {
		if exist {
			return current
		}
		return &bucket{}
	})

	b.mu.Lock()
	defer b.mu.Unlock()

	now := l.now()
	cutoff := now.Add(-l.window)
	kept := b.hits[:0]
	for _, hit := range b.hits {
		if hit.After(cutoff) {
			kept = append(kept, hit)
		}
	}
	b.hits = kept

	if len(b.hits) >= l.limit {
		return false, nil
	}
	b.hits = append(b.hits, now)
	return true, nil
}
