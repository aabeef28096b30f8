package storefront

import (
	"errors"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strings"

	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"Transflower/pkg/kit"
)

// NewReverseProxy forwards requests to target unchanged, keeping the
// Authorization header so the catalog enforces write scopes itself.
func NewReverseProxy(target string, log *zap.Logger) (*httputil.ReverseProxy, error) {
	u, err := url.Parse(target)
	if err != nil {
		return nil, err
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, errors.New("proxy target must be an absolute URL: " + target)
	}

	p := httputil.NewSingleHostReverseProxy(u)

	director := p.Director
	p.Director = func(r *http.Request) {
		director(r)
		if id := chimw.GetReqID(r.Context()); id != "" {
			r.Header.Set("X-Request-Id", id)
		}
	}

	// The storefront answers CORS itself; a second Access-Control-Allow-Origin
	// from the catalog makes browsers reject the response.
	p.ModifyResponse = func(resp *http.Response) error {
		for k := range resp.Header {
			if strings.HasPrefix(k, "Access-Control-") {
				resp.Header.Del(k)
			}
		}
		return nil
	}

	p.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
		if log != nil {
			log.Warn("upstream request failed", zap.Error(err), zap.String("target", target), zap.String("path", r.URL.Path))
		}
		kit.WriteError(w, r, http.StatusBadGateway, "catalog unavailable", nil)
	}

	return p, nil
}
