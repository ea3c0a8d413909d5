package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"cardshop/internal/cache"
)

// KEYS[1] bucket key; ARGV: now ms, window start ms, window seconds, member, limit.
// Returns the count after adding the request, or -1 when the window is full.
const luaSlidingWindow = `
local key = KEYS[1]
local now = tonumber(ARGV[1])
local windowStart = tonumber(ARGV[2])
local windowSec = tonumber(ARGV[3])
local member = ARGV[4]

redis.call('ZREMRANGEBYSCORE', key, '0', windowStart)

local count = redis.call('ZCARD', key)
if count < tonumber(ARGV[5]) then
  redis.call('ZADD', key, now, member)
  redis.call('EXPIRE', key, windowSec)
  return count + 1
else
  return -1
end
`

// RedisLimiter is a sliding window shared by every instance. It fails open when redis errors.
type RedisLimiter struct {
	client *cache.Client
	limit  int
	window time.Duration
	logger *zap.Logger
}

// NewRedisLimiter creates a redis backed limiter.
func NewRedisLimiter(client *cache.Client, limit int, window time.Duration, logger *zap.Logger) *RedisLimiter {
	return &RedisLimiter{client: client, limit: limit, window: window, logger: logger}
}

// Allow spends one point for key.
func (l *RedisLimiter) Allow(ctx context.Context, key string) (bool, error) {
	now := time.Now()
	windowSec := int64(l.window.Seconds())
	if windowSec < 1 {
		windowSec = 1
	}
	nowMs := now.UnixMilli()
	windowStart := nowMs - l.window.Milliseconds()
	member := fmt.Sprintf("%d-%s", nowMs, uuid.NewString())

	res, err := l.client.Eval(ctx, luaSlidingWindow, []string{"rate_limit:" + key},
		nowMs, windowStart, windowSec, member, l.limit)
	if err != nil {
		l.logger.Warn("rate limiter unavailable, allowing request", zap.String("key", key), zap.Error(err))
		return true, nil
	}

	n, ok := res.(int64)
	if !ok {
		return true, nil
	}
	return n >= 0, nil
}
