package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// NewClient parses a redis:// URL and pings the server.
func NewClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return client, nil
}

// Cache stores JSON-encoded values with a fixed TTL. Backend failures are
// logged and reported as misses so callers fall through to the source.
type Cache[V any] struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	logger *slog.Logger
}

func New[V any](client *redis.Client, prefix string, ttl time.Duration, logger *slog.Logger) *Cache[V] {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cache[V]{client: client, prefix: prefix, ttl: ttl, logger: logger}
}

func (c *Cache[V]) Get(ctx context.Context, key string) (V, bool) {
	var value V
	raw, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("cache_get_failed", "key", key, "error", err)
		}
		return value, false
	}
	if err := json.Unmarshal(raw, &value); err != nil {
		c.logger.Warn("cache_decode_failed", "key", key, "error", err)
		return value, false
	}
	return value, true
}

func (c *Cache[V]) Set(ctx context.Context, key string, value V) {
	raw, err := json.Marshal(value)
	if err != nil {
		c.logger.Warn("cache_encode_failed", "key", key, "error", err)
		return
	}
	if err := c.client.Set(ctx, c.prefix+key, raw, c.ttl).Err(); err != nil {
		c.logger.Warn("cache_set_failed", "key", key, "error", err)
	}
}

func (c *Cache[V]) Delete(ctx context.Context, key string) {
	if err := c.client.Del(ctx, c.prefix+key).Err(); err != nil {
		c.logger.Warn("cache_delete_failed", "key", key, "error", err)
	}
}
