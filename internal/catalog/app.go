package catalog

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"Transflower/pkg/kit"
)

type HTTPDeps struct {
	Log      *zap.Logger
	Service  string
	Registry *prometheus.Registry

	MetricsEnabled bool
	MetricsToken   string
	HSTS           bool

	// Extra registers routes served next to the catalog API, such as the
	// token endpoint.
	Extra []func(chi.Router)
}

func NewHandler(s *Server, deps HTTPDeps) http.Handler {
	r := kit.NewRouter(kit.RouterDeps{
		Log:            deps.Log,
		Service:        deps.Service,
		Registry:       deps.Registry,
		MetricsEnabled: deps.MetricsEnabled,
		MetricsToken:   deps.MetricsToken,
		HSTS:           deps.HSTS,
	})

	for _, register := range deps.Extra {
		register(r)
	}
	r.Mount("/", s.Routes())

	return r
}
