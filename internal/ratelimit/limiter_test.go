package ratelimit_test

import (
	"context"
	"testing"
	"time"

	"github.com/serroba/shortlink/internal/ratelimit"
	"github.com/serroba/shortlink/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func TestTokenBucketLimiter(t *testing.T) {
	t.Run("allows requests up to the burst", func(t *testing.T) {
		limiter := ratelimit.NewTokenBucketLimiter(store.NewRateLimitMemoryStore(ratelimit.PerMinute(60), 5, time.Minute))

		for range 5 {
			allowed, err := limiter.Allow(context.Background(), "client1")

			require.NoError(t, err)
			assert.True(t, allowed)
		}
	})

	t.Run("denies requests over the burst", func(t *testing.T) {
		limiter := ratelimit.NewTokenBucketLimiter(store.NewRateLimitMemoryStore(ratelimit.PerMinute(1), 3, time.Minute))

		for range 3 {
			allowed, _ := limiter.Allow(context.Background(), "client1")
			assert.True(t, allowed)
		}

		allowed, err := limiter.Allow(context.Background(), "client1")

		require.NoError(t, err)
		assert.False(t, allowed)
	})

	t.Run("tracks clients independently", func(t *testing.T) {
		limiter := ratelimit.NewTokenBucketLimiter(store.NewRateLimitMemoryStore(ratelimit.PerMinute(1), 1, time.Minute))

		allowed, _ := limiter.Allow(context.Background(), "client1")
		assert.True(t, allowed)

		allowed, _ = limiter.Allow(context.Background(), "client1")
		assert.False(t, allowed, "client1 should be rate limited")

		allowed, err := limiter.Allow(context.Background(), "client2")
		require.NoError(t, err)
		assert.True(t, allowed, "client2 should be allowed")
	})

	t.Run("refills over time", func(t *testing.T) {
		limiter := ratelimit.NewTokenBucketLimiter(store.NewRateLimitMemoryStore(rate.Every(10*time.Millisecond), 1, time.Minute))

		allowed, _ := limiter.Allow(context.Background(), "client1")
		require.True(t, allowed)

		assert.Eventually(t, func() bool {
			allowed, _ := limiter.Allow(context.Background(), "client1")

			return allowed
		}, time.Second, 5*time.Millisecond)
	})
}

func TestPerMinute(t *testing.T) {
	assert.Equal(t, rate.Limit(1), ratelimit.PerMinute(60))
	assert.InDelta(t, 0.5, float64(ratelimit.PerMinute(30)), 1e-9)
	assert.Equal(t, rate.Limit(0), ratelimit.PerMinute(0))
}
