package store

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/serroba/shortlink/internal/shortener"
)

// DefaultLRUSize bounds the in-process cache.
const DefaultLRUSize = 10_000

// LRUCache is an in-process shortener.Cache for single-instance deployments.
type LRUCache struct {
	entries *expirable.LRU[shortener.Alias, string]
}

// NewLRUCache creates a cache holding at most size entries, each for at most ttl.
func NewLRUCache(size int, ttl time.Duration) *LRUCache {
	if size <= 0 {
		size = DefaultLRUSize
	}

	return &LRUCache{entries: expirable.NewLRU[shortener.Alias, string](size, nil, ttl)}
}

func (c *LRUCache) Get(_ context.Context, alias shortener.Alias) (string, error) {
	target, ok := c.entries.Get(alias)
	if !ok {
		return "", shortener.ErrCacheMiss
	}

	return target, nil
}

func (c *LRUCache) Set(_ context.Context, alias shortener.Alias, targetURL string) error {
	c.entries.Add(alias, targetURL)

	return nil
}

func (c *LRUCache) Ping(context.Context) error {
	return nil
}

var _ shortener.Cache = (*LRUCache)(nil)
