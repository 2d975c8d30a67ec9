package auth

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"BuildStore/pkg/kit"
)

const (
	maxBodyBytes     = 1 << 20
	loginLimitPerMin = 5
	limitWindow      = time.Minute
	defaultTokenTTL  = 12 * time.Hour
)

type Server struct {
	Log      *zap.Logger
	Creds    *Credentials
	JWT      *TokenMaker
	TokenTTL time.Duration

	// LoginLimiter defaults to 5 attempts per minute per client IP.
	LoginLimiter *kit.IPRateLimiter
}

// Routes is meant to be mounted at /admin. Further admin surfaces can be
// attached to the returned router behind RequireAdmin.
func (s *Server) Routes() chi.Router {
	limiter := s.LoginLimiter
	if limiter == nil {
		limiter = kit.NewIPRateLimiter(loginLimitPerMin, limitWindow)
	}

	r := chi.NewRouter()
	r.MethodNotAllowed(kit.MethodNotAllowed)

	r.With(limiter.Middleware).Post("/login", s.handleLogin)
	r.With(RequireAdmin(s.JWT)).Get("/whoami", s.handleWhoAmI)

	return r
}

type loginReq struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResp struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	var req loginReq
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
		if s.Log != nil {
			s.Log.Info("admin login rejected", zap.String("username", req.Username))
		}
		kit.WriteError(w, r, http.StatusUnauthorized, "invalid credentials", nil)
		return
	}

	ttl := s.TokenTTL
	if ttl <= 0 {
		ttl = defaultTokenTTL
	}

	tok, err := s.JWT.New(s.Creds.Username(), RoleAdmin, ttl)
	if err != nil {
		if s.Log != nil {
			s.Log.Error("token issue", zap.Error(err))
		}
		kit.WriteError(w, r, http.StatusInternalServerError, "server error", nil)
		return
	}

	kit.WriteJSON(w, http.StatusOK, loginResp{AccessToken: tok, ExpiresIn: int64(ttl.Seconds())})
}

func (s *Server) handleWhoAmI(w http.ResponseWriter, r *http.Request) {
	a, ok := AdminFromContext(r.Context())
	if !ok {
		kit.WriteError(w, r, http.StatusUnauthorized, "missing token", nil)
		return
	}

	kit.WriteJSON(w, http.StatusOK, map[string]any{
		"username": a.Username,
		"role":     a.Role,
	})
}
