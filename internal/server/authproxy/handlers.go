package authproxy

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/stayonbrand/gatekeeper/internal/common"
)

type credentialsRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

type forgotPasswordRequest struct {
	Email string `json:"email"`
}

type resetPasswordRequest struct {
	Email       string `json:"email"`
	Code        string `json:"code"`
	NewPassword string `json:"newPassword"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	_, _ = w.Write([]byte("Auth proxy is running"))
}

func (s *Server) handleCSRFToken(w http.ResponseWriter, r *http.Request) {
	token, err := s.csrf.Create(r.Context())
	if err != nil {
		s.logger.Error(r.Context(), "csrf token creation error", "error", err)
		s.writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"csrfToken": token})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if !s.decode(w, r, &req) {
		return
	}
	email, ok := s.cleanEmail(w, req.Email)
	if !ok {
		return
	}
	result, err := s.provider.Login(r.Context(), email, req.Password)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if !s.decode(w, r, &req) {
		return
	}
	email, ok := s.cleanEmail(w, req.Email)
	if !ok {
		return
	}
	result, err := s.provider.Signup(r.Context(), req.Username, email, req.Password)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req forgotPasswordRequest
	if !s.decode(w, r, &req) {
		return
	}
	email, ok := s.cleanEmail(w, req.Email)
	if !ok {
		return
	}
	if err := s.provider.ForgotPassword(r.Context(), email); err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"message": "Password reset email sent"})
}

func (s *Server) handleResetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetPasswordRequest
	if !s.decode(w, r, &req) {
		return
	}
	email, ok := s.cleanEmail(w, req.Email)
	if !ok {
		return
	}
	code := strings.TrimSpace(req.Code)
	if err := s.provider.ConfirmForgotPassword(r.Context(), email, code, req.NewPassword); err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"message": "Password reset successful"})
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		s.writeError(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

// cleanEmail normalizes the address and writes a 400 when it is not a
// plausible email. Returns the cleaned value and whether to proceed.
func (s *Server) cleanEmail(w http.ResponseWriter, raw string) (string, bool) {
	email := common.CleanEmail(raw)
	if !common.ValidEmail(email) {
		s.writeError(w, http.StatusBadRequest, "Invalid email format")
		return "", false
	}
	return email, true
}
