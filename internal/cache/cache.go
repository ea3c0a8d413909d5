package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"cardshop/internal/config"
)

// ErrUnavailable is returned by calls that cannot fail safe when no redis is configured.
var ErrUnavailable = errors.New("redis unavailable")

// Client wraps redis.Client but fails safe by swallowing connectivity errors.
type Client struct {
	client *redis.Client
}

// New creates a new Redis client.
func New(addr, password string, db int) *Client {
	opts := &redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	}
	return &Client{client: redis.NewClient(opts)}
}

// NewFromConfig creates a client from application config. An empty address yields a nil client.
func NewFromConfig(cfg *config.Config) *Client {
	if cfg.RedisAddr == "" {
		return nil
	}
	return New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
}

// Get returns value or nil if missing or redis unavailable.
func (c *Client) Get(ctx context.Context, key string) ([]byte, error) {
	if c == nil || c.client == nil {
		return nil, nil
	}
	res, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		// redis.Nil and connectivity errors both read as a miss
		return nil, nil
	}
	return res, nil
}

// Set stores value with TTL, ignoring redis errors.
func (c *Client) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if c == nil || c.client == nil {
		return nil
	}
	_ = c.client.Set(ctx, key, value, ttl).Err()
	return nil
}

// Delete removes a key, ignoring redis errors.
func (c *Client) Delete(ctx context.Context, key string) error {
	if c == nil || c.client == nil {
		return nil
	}
	_ = c.client.Del(ctx, key).Err()
	return nil
}

// Eval runs a Lua script. Unlike the other calls it reports errors so callers can pick their own fallback.
func (c *Client) Eval(ctx context.Context, script string, keys []string, args ...interface{}) (interface{}, error) {
	if c == nil || c.client == nil {
		return nil, ErrUnavailable
	}
	return c.client.Eval(ctx, script, keys, args...).Result()
}

// Close releases the connection pool.
func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}
