package handler

import (
	"fmt"
	"net/http"

	"github.com/pkordes/tripsync/internal/domain"
	"github.com/pkordes/tripsync/internal/middleware"
)

// SessionRequest is the optional body of POST /session. It is only read when
// authentication is disabled; otherwise the token's user_id claim wins.
type SessionRequest struct {
	UserID string `json:"userId"`
}

// SessionResponse is the body of GET /session.
type SessionResponse struct {
	UserID string `json:"userId"`
}

// SignIn handles POST /session.
func (s *Server) SignIn(w http.ResponseWriter, r *http.Request) {
	id, ok := middleware.UserID(r.Context())
	if !ok {
		var body SessionRequest
		if err := decodeJSON(r, &body); err != nil {
			s.writeError(w, r, err)
			return
		}
		id = body.UserID
	}
	if id == "" {
		s.writeError(w, r, fmt.Errorf("%w: user id is required", domain.ErrValidation))
		return
	}
	if err := s.deps.Session.SignIn(r.Context(), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, SessionResponse{UserID: id})
}

// SignOut handles DELETE /session.
func (s *Server) SignOut(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Session.SignOut(r.Context()); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetSession handles GET /session.
func (s *Server) GetSession(w http.ResponseWriter, r *http.Request) {
	id, err := s.deps.Session.CurrentUser(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, SessionResponse{UserID: id})
}
