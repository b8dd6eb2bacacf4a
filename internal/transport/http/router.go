// Package httptransport wires the feature handlers into one router with the
// shared middleware chain. Handlers delegate to domain services; no business
// logic lives here.
package httptransport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"blkout/internal/platform/metrics"
	"blkout/internal/platform/middleware"
	"blkout/pkg/platform/httputil"
)

// Registrar is a feature handler that mounts its routes on a chi router.
type Registrar interface {
	Register(r chi.Router)
}

// HealthChecker reports whether a backing dependency is reachable.
type HealthChecker func() error

// Deps collects everything the router needs.
type Deps struct {
	Logger    *slog.Logger
	Metrics   *metrics.Metrics
	Registry  *prometheus.Registry
	Validator middleware.TokenValidator

	Auth       Registrar
	Content    Registrar
	Moderation Registrar

	HealthChecks map[string]HealthChecker
}

// NewRouter builds the HTTP surface: public content routes with optional
// moderator resolution, moderation routes behind RequireModerator, plus
// health and metrics.
func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.RequestTime)
	r.Use(middleware.ClientMetadata)
	r.Use(middleware.Logger(deps.Logger))
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(middleware.CORS)
	r.Use(middleware.Latency(deps.Metrics))

	r.Get("/health", healthHandler(deps.HealthChecks))
	if deps.Registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))
	}

	deps.Auth.Register(r)

	r.Group(func(r chi.Router) {
		r.Use(middleware.OptionalModerator(deps.Validator))
		deps.Content.Register(r)
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireModerator(deps.Validator, deps.Logger))
		deps.Moderation.Register(r)
	})

	return r
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

func healthHandler(checks map[string]HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := healthResponse{Status: "ok"}
		status := http.StatusOK

		if len(checks) > 0 {
			resp.Checks = make(map[string]string, len(checks))
			for name, check := range checks {
				if err := check(); err != nil {
					resp.Checks[name] = err.Error()
					resp.Status = "degraded"
					status = http.StatusServiceUnavailable
				} else {
					resp.Checks[name] = "ok"
				}
			}
		}
		httputil.WriteJSON(w, status, resp)
	}
}
