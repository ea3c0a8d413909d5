package ratelimit

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"cardshop/internal/cache"
)

func TestMemoryLimiter_Window(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	l := NewMemoryLimiter(2, time.Minute, func() time.Time { return now })
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		ok, err := l.Allow(ctx, "order:1.2.3.4")
		assert.NoError(t, err)
		assert.True(t, ok)
	}

	ok, _ := l.Allow(ctx, "order:1.2.3.4")
	assert.False(t, ok, "third hit inside the window")

	ok, _ = l.Allow(ctx, "order:5.6.7.8")
	assert.True(t, ok, "other keys have their own bucket")

	now = now.Add(61 * time.Second)
	ok, _ = l.Allow(ctx, "order:1.2.3.4")
	assert.True(t, ok, "window slid past old hits")
}

func TestMemoryLimiter_Concurrent(t *testing.T) {
	l := NewMemoryLimiter(10, time.Minute, time.Now)
	ctx := context.Background()

	var mu sync.Mutex
	allowed := 0
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if ok, _ := l.Allow(ctx, "k"); ok {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 10, allowed)
}

func TestRedisLimiter_FailsOpen(t *testing.T) {
	client := cache.New("127.0.0.1:1", "", 0)
	defer client.Close()

	l := NewRedisLimiter(client, 1, time.Minute, zap.NewNop())
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	for i := 0; i < 3; i++ {
		ok, err := l.Allow(ctx, "k")
		assert.NoError(t, err)
		assert.True(t, ok)
	}
}
