package authproxy

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/redis/go-redis/v9"

	"github.com/stayonbrand/gatekeeper/internal/logging"
	"github.com/stayonbrand/gatekeeper/internal/server/csrf"
	"github.com/stayonbrand/gatekeeper/internal/server/identity"
)

const csrfHeader = "X-CSRF-Token"

// Server fronts an identity provider with CSRF-protected JSON endpoints.
type Server struct {
	config   *Config
	provider identity.Provider
	csrf     *csrf.Store
	waitlist *WaitlistClient
	logger   logging.Logger
	http     *http.Server
}

func NewServer(config *Config, provider identity.Provider, rdb redis.UniversalClient, logger logging.Logger) *Server {
	s := &Server{
		config:   config,
		provider: provider,
		csrf:     csrf.NewStore(rdb, config.CSRFTokenTTL),
		waitlist: NewWaitlistClient(config, logger),
		logger:   logger,
	}
	s.http = &http.Server{Addr: config.Addr, Handler: s.routes()}
	return s
}

func (s *Server) routes() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/csrf-token", s.handleCSRFToken).Methods(http.MethodGet)
	r.HandleFunc("/auth/login", s.handleLogin).Methods(http.MethodPost)
	r.HandleFunc("/auth/signup-username", s.handleSignup).Methods(http.MethodPost)
	r.HandleFunc("/auth/forgot-password", s.handleForgotPassword).Methods(http.MethodPost)
	r.HandleFunc("/auth/reset-password", s.handleResetPassword).Methods(http.MethodPost)
	r.HandleFunc("/waitlist/subscribe", s.handleWaitlistSubscribe).Methods(http.MethodPost)
	r.Use(s.csrfMiddleware)
	// CORS wraps the router itself so preflight requests are answered even
	// when no route registers the OPTIONS method.
	return s.corsMiddleware(r)
}

func (s *Server) ListenAndServe() error {
	s.logger.Info(context.Background(), "auth proxy listening", "addr", s.config.Addr)
	return s.http.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

// csrfMiddleware rejects mutating requests that do not carry a token
// previously issued by /csrf-token. Safe methods pass through.
func (s *Server) csrfMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			next.ServeHTTP(w, r)
			return
		}
		ok, err := s.csrf.Verify(r.Context(), r.Header.Get(csrfHeader))
		if err != nil {
			s.logger.Error(r.Context(), "csrf verification error", "error", err)
			s.writeError(w, http.StatusInternalServerError, "Internal server error")
			return
		}
		if !ok {
			s.writeError(w, http.StatusForbidden, "Invalid CSRF token")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Access-Control-Allow-Origin", s.config.FrontendOrigin)
		h.Set("Access-Control-Allow-Credentials", "true")
		h.Set("Access-Control-Allow-Headers", "Content-Type, "+csrfHeader)
		h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error(context.Background(), "response encoding error", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}
