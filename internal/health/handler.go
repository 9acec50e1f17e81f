package health

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/serroba/shortlink/internal/ratelimit"
	"go.uber.org/zap"
)

const checkTimeout = 2 * time.Second

// Checker defines the interface for checking service health.
type Checker interface {
	Ping(ctx context.Context) error
}

// Handler handles health check operations.
type Handler struct {
	checks map[string]Checker
	logger *zap.Logger
}

// NewHandler creates a health handler reporting on each named dependency.
func NewHandler(checks map[string]Checker, logger *zap.Logger) *Handler {
	return &Handler{checks: checks, logger: logger}
}

// Response is the response for health check endpoint.
type Response struct {
	Body struct {
		Status string            `json:"status" enum:"ok,degraded"`
		Checks map[string]string `json:"checks"`
	}
}

// Check pings every dependency. The service stays up when one is down, so the status is
// "degraded" rather than an error.
func (h *Handler) Check(ctx context.Context, _ *struct{}) (*Response, error) {
	resp := &Response{}
	resp.Body.Status = "ok"
	resp.Body.Checks = make(map[string]string, len(h.checks))

	for name, checker := range h.checks {
		pingCtx, cancel := context.WithTimeout(ctx, checkTimeout)
		err := checker.Ping(pingCtx)

		cancel()

		if err != nil {
			h.logger.Warn("health check failed", zap.String("check", name), zap.Error(err))
			resp.Body.Checks[name] = "unhealthy"
			resp.Body.Status = "degraded"

			continue
		}

		resp.Body.Checks[name] = "healthy"
	}

	return resp, nil
}

// RegisterRoutes registers health check routes. Health probes are not rate limited.
func RegisterRoutes(api huma.API, h *Handler) {
	huma.Register(api, huma.Operation{
		OperationID: "health",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Service health",
		Tags:        []string{"ops"},
		Metadata: map[string]any{
			ratelimit.MetadataKey: ratelimit.EndpointConfig{Disabled: true},
		},
	}, h.Check)
}
