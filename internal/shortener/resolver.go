package shortener

import (
	"context"
	"errors"

	"github.com/serroba/shortlink/internal/metrics"
	"go.uber.org/zap"
)

// Resolver looks up aliases cache-aside: cache first, store on miss, cache refilled on read.
type Resolver struct {
	store   Repository
	cache   Cache
	metrics *metrics.Metrics
	logger  *zap.Logger
}

// NewResolver creates a cache-aside resolver.
func NewResolver(store Repository, cache Cache, m *metrics.Metrics, logger *zap.Logger) *Resolver {
	return &Resolver{
		store:   store,
		cache:   cache,
		metrics: m,
		logger:  logger,
	}
}

// Resolve returns the target URL for alias. Cache failures degrade to a miss and are never
// returned; misses are not cached.
func (r *Resolver) Resolve(ctx context.Context, alias Alias) (string, error) {
	target, err := r.cache.Get(ctx, alias)
	if err == nil {
		r.metrics.CacheLookup(metrics.CacheHit)

		return target, nil
	}

	if errors.Is(err, ErrCacheMiss) {
		r.metrics.CacheLookup(metrics.CacheMiss)
	} else {
		r.metrics.CacheLookup(metrics.CacheError)
		r.logger.Warn("resolution cache read failed",
			zap.String("alias", string(alias)),
			zap.Error(err),
		)
	}

	link, err := r.store.GetByAlias(ctx, alias)
	if err != nil {
		return "", err
	}

	if err = r.cache.Set(ctx, alias, link.TargetURL); err != nil {
		r.logger.Warn("resolution cache write failed",
			zap.String("alias", string(alias)),
			zap.Error(err),
		)
	}

	return link.TargetURL, nil
}
