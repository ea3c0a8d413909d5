// Package ratelimit implements points-per-window limiters for public endpoints.
package ratelimit

import (
	"context"
	"time"

	"go.uber.org/zap"

	"cardshop/internal/cache"
	"cardshop/internal/config"
)

// Limiter decides whether a key may spend one more point in the current window.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// New picks the configured backend.
func New(cfg *config.Config, client *cache.Client, logger *zap.Logger) Limiter {
	points, window := cfg.RateLimit.Points, cfg.RateLimit.Window()
	if cfg.RateLimit.Backend == "memory" || client == nil {
		return NewMemoryLimiter(points, window, time.Now)
	}
	return NewRedisLimiter(client, points, window, logger)
}
