package ratelimit

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Limiter defines the interface for rate limiting.
type Limiter interface {
	// Allow checks if a request from the given key should be allowed.
	Allow(ctx context.Context, key string) (allowed bool, err error)
}

// TokenBucketLimiter allows bursts up to the bucket size and refills at a steady rate.
type TokenBucketLimiter struct {
	store Store
}

// NewTokenBucketLimiter creates a limiter over the buckets in store.
func NewTokenBucketLimiter(store Store) *TokenBucketLimiter {
	return &TokenBucketLimiter{store: store}
}

func (l *TokenBucketLimiter) Allow(_ context.Context, key string) (bool, error) {
	return l.store.Bucket(key).Allow(), nil
}

// PerMinute converts a requests-per-minute budget to a refill rate. Non-positive values
// disable refilling.
func PerMinute(n int) rate.Limit {
	if n <= 0 {
		return 0
	}

	return rate.Every(time.Minute / time.Duration(n))
}
