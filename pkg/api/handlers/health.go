// Package handlers provides HTTP handlers for the API server.
package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/marmos91/dittoapi/internal/logger"
	"github.com/marmos91/dittoapi/pkg/api/response"
)

// TimestampFormat is RFC 3339 with millisecond precision.
const TimestampFormat = "2006-01-02T15:04:05.000Z07:00"

// readinessTimeout bounds the store healthcheck of GET /health/ready.
const readinessTimeout = 5 * time.Second

// Healthchecker is implemented by the persistent store.
type Healthchecker interface {
	Healthcheck(ctx context.Context) error
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Success   bool    `json:"success"`
	Message   string  `json:"message"`
	Timestamp string  `json:"timestamp"`
	Uptime    float64 `json:"uptime"`
}

// HealthHandler handles health check endpoints.
//
// Health endpoints are unauthenticated and provide:
//   - Liveness probe: is the process serving HTTP?
//   - Readiness probe: can the store be reached?
type HealthHandler struct {
	store   Healthchecker
	started time.Time
	now     func() time.Time
}

// NewHealthHandler creates a new health handler. Uptime is measured from
// started. The store may be nil, in which case readiness always fails.
func NewHealthHandler(store Healthchecker, started time.Time) *HealthHandler {
	return &HealthHandler{store: store, started: started, now: time.Now}
}

// Liveness handles GET /health. It always returns 200 while the server is
// responsive.
func (h *HealthHandler) Liveness(w http.ResponseWriter, r *http.Request) {
	now := h.now()
	response.JSON(w, http.StatusOK, HealthResponse{
		Success:   true,
		Message:   "Server is running",
		Timestamp: now.UTC().Format(TimestampFormat),
		Uptime:    now.Sub(h.started).Seconds(),
	})
}

// Readiness handles GET /health/ready. It returns 503 when the store does
// not answer its healthcheck.
func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		response.Error(w, http.StatusServiceUnavailable, "Store not initialized")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
	defer cancel()

	if err := h.store.Healthcheck(ctx); err != nil {
		logger.WarnCtx(ctx, "Readiness check failed", logger.KeyError, err)
		response.Error(w, http.StatusServiceUnavailable, "Database unavailable")
		return
	}

	now := h.now()
	response.JSON(w, http.StatusOK, HealthResponse{
		Success:   true,
		Message:   "Server is ready",
		Timestamp: now.UTC().Format(TimestampFormat),
		Uptime:    now.Sub(h.started).Seconds(),
	})
}
