package keycard

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/stayonbrand/gatekeeper/internal/common"
)

type createUserRequest struct {
	Email string `json:"email"`
}

func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	email := common.CleanEmail(mux.Vars(r)["email"])
	if !common.ValidEmail(email) {
		s.writeError(w, http.StatusBadRequest, "Invalid email format")
		return
	}

	p, err := s.repo.GetByEmail(r.Context(), email)
	if errors.Is(err, common.ErrorNotFound) {
		s.writeError(w, http.StatusNotFound, "User not found")
		return
	}
	if err != nil {
		s.logger.Error(r.Context(), "profile lookup error", "email", email, "error", err)
		s.writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	s.writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	email := common.CleanEmail(req.Email)
	if !common.ValidEmail(email) {
		s.writeError(w, http.StatusBadRequest, "Invalid email format")
		return
	}

	p, err := s.repo.Create(r.Context(), email)
	if err != nil {
		s.logger.Error(r.Context(), "profile creation error", "email", email, "error", err)
		s.writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	s.writeJSON(w, http.StatusCreated, p)
}
