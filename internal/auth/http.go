package auth

import (
	"encoding/json"
	"net/http"
	"net/netip"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"Transflower/pkg/kit"
)

const (
	maxBodyBytes = 1 << 20
	tokenTTL     = 15 * time.Minute

	tokenLimitPerMin = 5
	limitWindow      = 60 * time.Second
)

type Server struct {
	Log   *zap.Logger
	Creds Credentials
	JWT   *TokenMaker

	// TrustedProxies may set X-Forwarded-For, e.g. the storefront.
	TrustedProxies []netip.Prefix
}

// Register mounts POST /auth/token, rate limited per client IP.
func (s *Server) Register(r chi.Router) {
	limiter := kit.NewIPRateLimiter(tokenLimitPerMin, limitWindow, s.TrustedProxies...)
	r.With(limiter.Middleware).Post("/auth/token", s.handleToken)
}

type tokenReq struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type tokenResp struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

func (s *Server) handleToken(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	var req tokenReq
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad json", map[string]any{"cause": err.Error()})
		return
	}

	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" {
		kit.WriteError(w, r, http.StatusBadRequest, "username/password required", nil)
		return
	}

	if err := s.Creds.Verify(req.Username, req.Password); err != nil {
		kit.WriteError(w, r, http.StatusUnauthorized, "invalid credentials", nil)
		return
	}

	tok, err := s.JWT.New(req.Username, []string{ScopeCatalogWrite}, tokenTTL)
	if err != nil {
		if s.Log != nil {
			s.Log.Error("token issue", zap.Error(err))
		}
		kit.WriteError(w, r, http.StatusInternalServerError, "server error", nil)
		return
	}

	kit.WriteJSON(w, http.StatusOK, tokenResp{
		AccessToken: tok,
		TokenType:   "Bearer",
		ExpiresIn:   int(tokenTTL.Seconds()),
	})
}
