package handler

import (
	"fmt"
	"io"
	"net/http"

	"github.com/pkordes/tripsync/internal/domain"
)

// PushTokenRequest is the body of POST /push/token.
type PushTokenRequest struct {
	Token string `json:"token"`
}

// PushMessageResponse reports how many notifications a message produced.
type PushMessageResponse struct {
	Dispatched int `json:"dispatched"`
}

// PostPushMessage handles POST /push/messages from the push relay.
func (s *Server) PostPushMessage(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(r.Body)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	n, err := s.deps.Push.HandleMessage(r.Context(), raw)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, PushMessageResponse{Dispatched: n})
}

// PostPushToken handles POST /push/token.
func (s *Server) PostPushToken(w http.ResponseWriter, r *http.Request) {
	var body PushTokenRequest
	if err := decodeJSON(r, &body); err != nil {
		s.writeError(w, r, err)
		return
	}
	if body.Token == "" {
		s.writeError(w, r, fmt.Errorf("%w: token is required", domain.ErrValidation))
		return
	}
	if err := s.deps.Push.RefreshToken(r.Context(), body.Token); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
