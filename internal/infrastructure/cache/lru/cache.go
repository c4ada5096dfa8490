package lru

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

const (
	DefaultSize = 1024
	DefaultTTL  = 10 * time.Minute
)

// Cache is an in-process, size-bounded cache whose entries also expire.
type Cache[V any] struct {
	entries *expirable.LRU[string, V]
}

func New[V any](size int, ttl time.Duration) *Cache[V] {
	if size <= 0 {
		size = DefaultSize
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache[V]{entries: expirable.NewLRU[string, V](size, nil, ttl)}
}

func (c *Cache[V]) Get(_ context.Context, key string) (V, bool) {
	return c.entries.Get(key)
}

func (c *Cache[V]) Set(_ context.Context, key string, value V) {
	c.entries.Add(key, value)
}

func (c *Cache[V]) Delete(_ context.Context, key string) {
	c.entries.Remove(key)
}

func (c *Cache[V]) Len() int {
	return c.entries.Len()
}
