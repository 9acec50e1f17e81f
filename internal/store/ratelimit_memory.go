package store

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimitMemoryStore keeps token buckets in process and evicts idle ones.
type RateLimitMemoryStore struct {
	mu      sync.Mutex
	buckets map[string]*bucketEntry
	limit   rate.Limit
	burst   int
	idleTTL time.Duration
	cancel  context.CancelFunc
	done    chan struct{}
}

type bucketEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRateLimitMemoryStore creates buckets refilling at limit with capacity burst. Buckets
// unused for idleTTL are dropped by Cleanup.
func NewRateLimitMemoryStore(limit rate.Limit, burst int, idleTTL time.Duration) *RateLimitMemoryStore {
	return &RateLimitMemoryStore{
		buckets: make(map[string]*bucketEntry),
		limit:   limit,
		burst:   burst,
		idleTTL: idleTTL,
	}
}

func (s *RateLimitMemoryStore) Bucket(key string) *rate.Limiter {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	if entry, ok := s.buckets[key]; ok {
		entry.lastSeen = now

		return entry.limiter
	}

	limiter := rate.NewLimiter(s.limit, s.burst)
	s.buckets[key] = &bucketEntry{limiter: limiter, lastSeen: now}

	return limiter
}

// Cleanup drops buckets idle for longer than the idle TTL and returns how many it removed.
func (s *RateLimitMemoryStore) Cleanup() int {
	cutoff := time.Now().Add(-s.idleTTL)

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0

	for key, entry := range s.buckets {
		if entry.lastSeen.Before(cutoff) {
			delete(s.buckets, key)
			removed++
		}
	}

	return removed
}

// Len returns the number of live buckets.
func (s *RateLimitMemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.buckets)
}

// Start runs Cleanup every interval until Shutdown or ctx is done.
func (s *RateLimitMemoryStore) Start(ctx context.Context, interval time.Duration) {
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})

	go func() {
		defer close(s.done)

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.Cleanup()
			}
		}
	}()
}

// Shutdown stops the janitor.
func (s *RateLimitMemoryStore) Shutdown() error {
	if s.cancel == nil {
		return nil
	}

	s.cancel()
	<-s.done

	return nil
}
