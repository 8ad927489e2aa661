package api

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/marmos91/dittoapi/internal/telemetry"
	"github.com/marmos91/dittoapi/pkg/api/auth"
	"github.com/marmos91/dittoapi/pkg/api/handlers"
	"github.com/marmos91/dittoapi/pkg/api/middleware"
	"github.com/marmos91/dittoapi/pkg/api/response"
	"github.com/marmos91/dittoapi/pkg/metrics"
	"github.com/marmos91/dittoapi/pkg/models"
)

// ServiceName identifies the service in responses and spans.
const ServiceName = "dittoapi"

// Store is the persistent store as seen by the HTTP routes.
type Store interface {
	Healthcheck(ctx context.Context) error
	ListSettings(ctx context.Context) ([]*models.Setting, error)
	GetSetting(ctx context.Context, key string) (*models.Setting, error)
	SetSetting(ctx context.Context, key, value string) (*models.Setting, error)
	DeleteSetting(ctx context.Context, key string) error
}

// Deps are the collaborators of the router. Every field is optional: a nil
// Store disables readiness and the settings routes.
type Deps struct {
	Store   Store
	State   func() string
	Metrics metrics.HTTPMetrics
	Started time.Time
}

// NewRouter creates and configures the chi router with all middleware and
// routes.
//
// Middleware, outermost first: request ID, real IP, panic recovery,
// tracing, metrics, security headers, CORS, compression, request logging,
// body limit, rate limiting.
//
// Routes:
//   - GET /health - Liveness probe
//   - GET /health/ready - Readiness probe
//   - GET {prefix}/ - Service info
//   - GET {prefix}/status - Lifecycle state
//   - GET|PUT|DELETE {prefix}/settings[/{key}] - Settings
//
// Every other path or method yields 404 with response.RouteNotFoundBody.
func NewRouter(cfg Config, deps Deps) (http.Handler, error) {
	cfg.applyDefaults()
	if deps.Started.IsZero() {
		deps.Started = time.Now()
	}

	compress, err := middleware.Compress()
	if err != nil {
		return nil, err
	}

	var jwtService *auth.JWTService
	if cfg.JWTSecret != "" {
		jwtService, err = auth.NewJWTService(auth.JWTConfig{Secret: cfg.JWTSecret, Issuer: ServiceName})
		if err != nil {
			return nil, fmt.Errorf("configure JWT: %w", err)
		}
	}

	r := chi.NewRouter()

	// Middleware stack - order matters
	r.Use(middleware.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(telemetry.HTTPMiddleware(ServiceName))
	r.Use(middleware.Metrics(deps.Metrics))
	r.Use(middleware.SecurityHeaders(cfg.IsDevelopment()))
	r.Use(middleware.CORS(middleware.CORSOptions{
		Origins:     cfg.CORSOrigins,
		Credentials: cfg.CORSCredentials,
	}))
	r.Use(compress)
	r.Use(middleware.RequestLogger)
	r.Use(middleware.BodyLimit(cfg.BodyLimit))
	if cfg.RateLimitEnabled && cfg.RequestsPerSecond > 0 {
		limiter := middleware.NewRateLimiter(middleware.RateLimitConfig{
			RequestsPerSecond: cfg.RequestsPerSecond,
			Burst:             cfg.Burst,
		})
		r.Use(limiter.Handler)
	}
	r.Use(chimw.GetHead)

	r.NotFound(response.RouteNotFound)
	r.MethodNotAllowed(response.RouteNotFound)

	health := handlers.NewHealthHandler(deps.Store, deps.Started)
	r.Get("/health", health.Liveness)
	r.Get("/health/ready", health.Readiness)

	base := strings.TrimRight(cfg.APIPrefix, "/")
	info := handlers.NewInfoHandler(handlers.ServiceInfo{
		Name:        ServiceName,
		Version:     cfg.Version,
		Environment: cfg.Environment,
		APIPrefix:   cfg.APIPrefix,
	}, deps.State, deps.Started)

	if base != "" {
		r.Get(base, info.Index)
	}
	r.Get(base+"/", info.Index)
	r.Get(base+"/status", info.Status)

	if deps.Store != nil {
		settings := handlers.NewSettingsHandler(deps.Store)
		r.Get(base+"/settings", settings.List)
		r.Get(base+"/settings/{key}", settings.Get)
		r.Group(func(r chi.Router) {
			r.Use(middleware.JWTAuth(jwtService))
			r.Put(base+"/settings/{key}", settings.Set)
			r.Delete(base+"/settings/{key}", settings.Delete)
		})
	}

	return r, nil
}
