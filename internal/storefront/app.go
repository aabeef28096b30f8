// Package storefront is the browser-facing host: it serves the SPA bundle,
// the demo endpoints and proxies the catalog API.
package storefront

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"Transflower/internal/catalog"
	"Transflower/internal/showcase"
	"Transflower/pkg/kit"
)

type HTTPDeps struct {
	Log      *zap.Logger
	Service  string
	Registry *prometheus.Registry

	MetricsEnabled bool
	MetricsToken   string
	HSTS           bool
}

type Deps struct {
	CatalogURL string
	// WebRoot holds the built SPA; empty disables static hosting.
	WebRoot string
}

const readyTimeout = 700 * time.Millisecond

func NewHandler(deps Deps, httpDeps HTTPDeps) (http.Handler, error) {
	catalogProxy, err := NewReverseProxy(deps.CatalogURL, httpDeps.Log)
	if err != nil {
		return nil, err
	}

	r := kit.NewRouter(kit.RouterDeps{
		Log:            httpDeps.Log,
		Service:        httpDeps.Service,
		Registry:       httpDeps.Registry,
		MetricsEnabled: httpDeps.MetricsEnabled,
		MetricsToken:   httpDeps.MetricsToken,
		HSTS:           httpDeps.HSTS,
	})

	if deps.WebRoot != "" {
		r.NotFound(kit.SPA(deps.WebRoot).ServeHTTP)
	}

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
	r.Get("/readyz", readyz(catalog.NewClient(deps.CatalogURL, ""), httpDeps.Log))

	showcase.Register(r)

	r.Handle("/products", catalogProxy)
	r.Handle("/products/*", catalogProxy)
	r.Handle("/auth/*", catalogProxy)

	return r, nil
}

// readyz reports ready only while the catalog behind the proxy is.
func readyz(upstream *catalog.Client, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
		defer cancel()

		if err := upstream.Ping(ctx); err != nil {
			if log != nil {
				log.Warn("readyz failed: catalog", zap.Error(err))
			}
			kit.WriteError(w, r, http.StatusServiceUnavailable, "catalog not ready", nil)
			return
		}
		w.WriteHeader(http.StatusOK)
	}
}
