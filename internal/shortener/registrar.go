package shortener

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/serroba/shortlink/internal/metrics"
	"go.uber.org/zap"
)

// DefaultMaxAttempts bounds insert attempts for generated aliases.
const DefaultMaxAttempts = 3

// Registrar allocates aliases and registers links first-writer-wins.
type Registrar struct {
	store         Repository
	cache         Cache
	generateAlias AliasGenerator
	baseURL       string
	maxAttempts   int
	metrics       *metrics.Metrics
	logger        *zap.Logger
}

// NewRegistrar creates a registrar publishing short links under baseURL.
func NewRegistrar(
	store Repository,
	cache Cache,
	generator AliasGenerator,
	baseURL string,
	m *metrics.Metrics,
	logger *zap.Logger,
) *Registrar {
	return &Registrar{
		store:         store,
		cache:         cache,
		generateAlias: generator,
		baseURL:       strings.TrimRight(baseURL, "/"),
		maxAttempts:   DefaultMaxAttempts,
		metrics:       m,
		logger:        logger,
	}
}

// Register stores targetURL under requested, or under a generated alias when requested is empty.
//
// A requested alias that is already taken is not an error: the stored link is returned
// unchanged, even if it points somewhere else. Generated aliases that collide are retried
// with a fresh candidate.
func (r *Registrar) Register(ctx context.Context, targetURL string, requested Alias) (*Registration, error) {
	target, err := ParseTargetURL(targetURL)
	if err != nil {
		return nil, err
	}

	var link *Link

	if requested != "" {
		if err = ValidateAlias(requested); err != nil {
			return nil, err
		}

		link, err = r.claim(ctx, requested, target)
	} else {
		link, err = r.claimGenerated(ctx, target)
	}

	if err != nil {
		return nil, err
	}

	if err = r.cache.Set(ctx, link.Alias, link.TargetURL); err != nil {
		r.logger.Warn("failed to prime resolution cache",
			zap.String("alias", string(link.Alias)),
			zap.Error(err),
		)
	}

	r.metrics.Registration()

	return &Registration{
		Link:     link,
		ShortURL: r.ShortURL(link.Alias),
	}, nil
}

// ShortURL returns the externally visible short link for alias.
func (r *Registrar) ShortURL(alias Alias) string {
	return fmt.Sprintf("%s/%s", r.baseURL, alias)
}

// claim inserts alias -> target, falling back to the existing row when the alias is taken.
func (r *Registrar) claim(ctx context.Context, alias Alias, target string) (*Link, error) {
	inserted, ok, err := r.store.InsertIfAbsent(ctx, &Link{
		Alias:     alias,
		TargetURL: target,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		return nil, err
	}

	if ok {
		return inserted, nil
	}

	existing, err := r.store.GetByAlias(ctx, alias)
	if errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrConflict, alias)
	}

	if err != nil {
		return nil, err
	}

	return existing, nil
}

func (r *Registrar) claimGenerated(ctx context.Context, target string) (*Link, error) {
	for attempt := 1; attempt <= r.maxAttempts; attempt++ {
		alias := Alias(r.generateAlias())

		inserted, ok, err := r.store.InsertIfAbsent(ctx, &Link{
			Alias:     alias,
			TargetURL: target,
			CreatedAt: time.Now().UTC(),
		})
		if err != nil {
			return nil, err
		}

		if ok {
			return inserted, nil
		}

		r.logger.Info("generated alias already taken",
			zap.String("alias", string(alias)),
			zap.Int("attempt", attempt),
		)
	}

	return nil, fmt.Errorf("%w: no free alias after %d attempts", ErrConflict, r.maxAttempts)
}
