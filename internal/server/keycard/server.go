package keycard

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/stayonbrand/gatekeeper/internal/logging"
)

// Server exposes the user profile API behind a static bearer token.
type Server struct {
	addr     string
	apiToken string
	repo     Repository
	logger   logging.Logger
	http     *http.Server
}

func NewServer(addr, apiToken string, repo Repository, logger logging.Logger) *Server {
	s := &Server{
		addr:     addr,
		apiToken: apiToken,
		repo:     repo,
		logger:   logger,
	}
	s.http = &http.Server{Addr: addr, Handler: s.routes()}
	return s
}

func (s *Server) routes() http.Handler {
	r := mux.NewRouter()
	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(s.authMiddleware)
	api.HandleFunc("/user/{email}", s.handleGetUser).Methods(http.MethodGet)
	api.HandleFunc("/user", s.handleCreateUser).Methods(http.MethodPost)
	return r
}

func (s *Server) ListenAndServe() error {
	s.logger.Info(context.Background(), "keycard listening", "addr", s.addr)
	return s.http.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || subtle.ConstantTimeCompare([]byte(token), []byte(s.apiToken)) != 1 {
			s.writeError(w, http.StatusUnauthorized, "Unauthorized")
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
