package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/serroba/shortlink/internal/metrics"
	"github.com/serroba/shortlink/internal/shortener"
	"go.uber.org/zap"
)

// Registrar registers links.
type Registrar interface {
	Register(ctx context.Context, targetURL string, requested shortener.Alias) (*shortener.Registration, error)
}

// Resolver resolves aliases to target URLs.
type Resolver interface {
	Resolve(ctx context.Context, alias shortener.Alias) (string, error)
}

// StatsReader reads link statistics.
type StatsReader interface {
	Stats(ctx context.Context, alias shortener.Alias) (*shortener.LinkStats, error)
}

// VisitRecorder counts a visit without blocking the redirect.
type VisitRecorder interface {
	Record(ctx context.Context, alias shortener.Alias)
}

// LinkHandler serves link registration, redirects and statistics.
type LinkHandler struct {
	registrar Registrar
	resolver  Resolver
	stats     StatsReader
	visits    VisitRecorder
	metrics   *metrics.Metrics
	logger    *zap.Logger
}

// NewLinkHandler creates a link handler.
func NewLinkHandler(
	registrar Registrar,
	resolver Resolver,
	stats StatsReader,
	visits VisitRecorder,
	m *metrics.Metrics,
	logger *zap.Logger,
) *LinkHandler {
	return &LinkHandler{
		registrar: registrar,
		resolver:  resolver,
		stats:     stats,
		visits:    visits,
		metrics:   m,
		logger:    logger,
	}
}

func (h *LinkHandler) Shorten(ctx context.Context, req *ShortenRequest) (*ShortenResponse, error) {
	reg, err := h.registrar.Register(ctx, req.Body.URL, shortener.Alias(req.Body.Alias))
	if err != nil {
		return nil, h.toHTTPError(err, "failed to register link")
	}

	resp := &ShortenResponse{}
	resp.Headers.Location = reg.ShortURL
	resp.Body = LinkBody{
		Alias:     string(reg.Link.Alias),
		ShortURL:  reg.ShortURL,
		TargetURL: reg.Link.TargetURL,
	}

	return resp, nil
}

func (h *LinkHandler) Redirect(ctx context.Context, req *AliasRequest) (*RedirectResponse, error) {
	alias := shortener.Alias(req.Alias)

	target, err := h.resolver.Resolve(ctx, alias)
	if err != nil {
		return nil, h.toHTTPError(err, "failed to resolve alias")
	}

	h.visits.Record(ctx, alias)
	h.metrics.Redirect()

	// 307 keeps browsers from caching the hop, so every visit reaches the counter.
	resp := &RedirectResponse{Status: http.StatusTemporaryRedirect}
	resp.Headers.Location = target
	resp.Headers.CacheControl = "no-store"

	return resp, nil
}

func (h *LinkHandler) Stats(ctx context.Context, req *AliasRequest) (*StatsResponse, error) {
	stats, err := h.stats.Stats(ctx, shortener.Alias(req.Alias))
	if err != nil {
		return nil, h.toHTTPError(err, "failed to read link stats")
	}

	resp := &StatsResponse{}
	resp.Body.Alias = string(stats.Alias)
	resp.Body.TargetURL = stats.TargetURL
	resp.Body.TotalClicks = stats.TotalClicks

	return resp, nil
}

// toHTTPError maps domain errors to API errors. Unexpected causes are logged and hidden from
// the client.
func (h *LinkHandler) toHTTPError(err error, msg string) error {
	switch {
	case shortener.IsBadRequest(err):
		return huma.Error400BadRequest(err.Error())
	case errors.Is(err, shortener.ErrNotFound):
		return huma.Error404NotFound("link not found")
	case errors.Is(err, shortener.ErrConflict):
		return huma.Error409Conflict("alias conflict, retry the request")
	default:
		h.logger.Error(msg, zap.Error(err))

		return huma.Error500InternalServerError("internal server error")
	}
}
