package ratelimit

import "golang.org/x/time/rate"

// Store hands out one token bucket per client key.
type Store interface {
	// Bucket returns the bucket for key, creating it on first use.
	Bucket(key string) *rate.Limiter
}
