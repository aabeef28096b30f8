package kit

import (
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// RouterDeps configures the middleware chain shared by every service.
type RouterDeps struct {
	Log     *zap.Logger
	Service string

	// Registry enables request metrics. /metrics is only exposed when
	// MetricsEnabled is also set.
	Registry       *prometheus.Registry
	MetricsEnabled bool
	MetricsToken   string

	HSTS bool
}

// NewRouter returns a chi router with request ids, panic recovery, access
// logging, CORS and optional HSTS and metrics already installed.
func NewRouter(deps RouterDeps) *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(Recoverer)
	r.Use(Logging(deps.Log))
	r.Use(CORS)
	if deps.HSTS {
		r.Use(HSTS)
	}

	if deps.Registry == nil {
		return r
	}

	metrics := NewMetrics(deps.Registry)
	r.Use(metrics.Middleware(deps.Service, ChiRoutePattern))

	if deps.MetricsEnabled {
		r.With(MetricsAuth(deps.MetricsToken)).
			Handle("/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))
	}
	return r
}
