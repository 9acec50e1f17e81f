//go:build integration

package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/serroba/shortlink/internal/shortener"
	"github.com/serroba/shortlink/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisCacheIntegration(t *testing.T) {
	ctx := context.Background()
	client := startRedis(t)
	cache := store.NewRedisCache(client, time.Minute)

	t.Run("set and get", func(t *testing.T) {
		require.NoError(t, cache.Set(ctx, "it-abc", "https://example.com"))

		got, err := cache.Get(ctx, "it-abc")
		require.NoError(t, err)
		assert.Equal(t, "https://example.com", got)

		ttl, err := client.TTL(ctx, "alias:it-abc").Result()
		require.NoError(t, err)
		assert.Greater(t, ttl, 50*time.Second)
	})

	t.Run("miss", func(t *testing.T) {
		_, err := cache.Get(ctx, "it-missing")

		assert.ErrorIs(t, err, shortener.ErrCacheMiss)
	})

	t.Run("ping", func(t *testing.T) {
		assert.NoError(t, cache.Ping(ctx))
	})
}
