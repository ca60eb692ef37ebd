// Package httptransport assembles the public HTTP surface: the report
// gateway, the sign-in endpoints and the operational routes.
package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"cleanghana/internal/platform/metrics"
	"cleanghana/internal/platform/middleware"
	"cleanghana/internal/transport/http/shared"
)

// HealthCheck probes one dependency. A nil error means healthy.
type HealthCheck func(ctx context.Context) error

// RouterConfig collects everything the top-level router mounts.
type RouterConfig struct {
	Logger   *slog.Logger
	Metrics  *metrics.Metrics
	Registry *prometheus.Registry

	// Handlers register their own routes under the shared middleware
	// chain.
	Handlers []interface{ Register(chi.Router) }

	// Checks run on /healthz, keyed by dependency name.
	Checks map[string]HealthCheck
}

// NewRouter builds the chi router with the standard middleware chain and
// mounts all handlers plus /healthz and /metrics.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(cfg.Logger))
	if cfg.Metrics != nil {
		r.Use(middleware.Latency(cfg.Metrics))
	}

	for _, h := range cfg.Handlers {
		h.Register(r)
	}

	r.Get("/healthz", handleHealth(cfg.Checks))
	if cfg.Registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(cfg.Registry, promhttp.HandlerOpts{}))
	}
	return r
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

func handleHealth(checks map[string]HealthCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		resp := healthResponse{Status: "ok", Checks: map[string]string{}}
		status := http.StatusOK
		for name, check := range checks {
			if err := check(ctx); err != nil {
				resp.Status = "degraded"
				resp.Checks[name] = err.Error()
				status = http.StatusServiceUnavailable
				continue
			}
			resp.Checks[name] = "ok"
		}
		shared.WriteJSON(w, status, resp)
	}
}
