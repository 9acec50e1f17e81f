package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/serroba/shortlink/internal/shortener"
)

// RedisCache is a shortener.Cache shared by every instance pointing at the same Redis.
type RedisCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisCache creates a cache whose entries expire after ttl.
func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{
		client: client,
		prefix: "alias:",
		ttl:    ttl,
	}
}

func (r *RedisCache) Get(ctx context.Context, alias shortener.Alias) (string, error) {
	target, err := r.client.Get(ctx, r.prefix+string(alias)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", shortener.ErrCacheMiss
		}

		return "", fmt.Errorf("%w: %w", shortener.ErrCacheUnavailable, err)
	}

	return target, nil
}

func (r *RedisCache) Set(ctx context.Context, alias shortener.Alias, targetURL string) error {
	if err := r.client.Set(ctx, r.prefix+string(alias), targetURL, r.ttl).Err(); err != nil {
		return fmt.Errorf("%w: %w", shortener.ErrCacheUnavailable, err)
	}

	return nil
}

// Ping reports whether Redis is reachable.
func (r *RedisCache) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

var _ shortener.Cache = (*RedisCache)(nil)
