package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/pkordes/tripsync/internal/domain"
)

// FriendRequestBody is the body of POST /friend-requests.
type FriendRequestBody struct {
	ReceiverID string `json:"receiverId"`
}

// TripInviteBody is the body of POST /trips/{id}/invites.
type TripInviteBody struct {
	InviteeID string `json:"inviteeId"`
}

// Pagination describes the window returned by a paged listing.
type Pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
}

// UserList is the body of GET /users.
type UserList struct {
	Data       []domain.User `json:"data"`
	Pagination Pagination    `json:"pagination"`
}

// ListUsers handles GET /users.
// Supports ?page= and ?limit= query parameters (defaults: page=1, limit=20, max=100).
func (s *Server) ListUsers(w http.ResponseWriter, r *http.Request) {
	page, err := pageParams(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	users := s.deps.Social.Users().Items().Get()
	writeJSON(w, http.StatusOK, UserList{
		Data:       nonNil(domain.Paginate(users, page)),
		Pagination: Pagination{Page: page.Page, Limit: page.Limit, Total: len(users)},
	})
}

// ListFriendRequests handles GET /friend-requests: the signed-in user's inbox.
func (s *Server) ListFriendRequests(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, nonNil(s.deps.Social.FriendRequests().Items().Get()))
}

// SendFriendRequest handles POST /friend-requests.
func (s *Server) SendFriendRequest(w http.ResponseWriter, r *http.Request) {
	var body FriendRequestBody
	if err := decodeJSON(r, &body); err != nil {
		s.writeError(w, r, err)
		return
	}
	sender, err := s.signedInUser(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	req, err := s.deps.Social.SendFriendRequest(r.Context(), sender, body.ReceiverID).Await(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, req)
}

// AcceptFriendRequest handles POST /friend-requests/{id}/accept.
func (s *Server) AcceptFriendRequest(w http.ResponseWriter, r *http.Request) {
	userID, err := s.actingUser(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	req, err := s.deps.Social.AcceptFriendRequest(r.Context(), userID, chi.URLParam(r, "id")).Await(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, req)
}

// DeclineFriendRequest handles POST /friend-requests/{id}/decline.
func (s *Server) DeclineFriendRequest(w http.ResponseWriter, r *http.Request) {
	userID, err := s.actingUser(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if _, err := s.deps.Social.DeclineFriendRequest(r.Context(), userID, chi.URLParam(r, "id")).Await(r.Context()); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListTripInvites handles GET /invites: the signed-in user's pending invites.
func (s *Server) ListTripInvites(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, nonNil(s.deps.Social.TripInvites().Items().Get()))
}

// SendTripInvite handles POST /trips/{id}/invites.
func (s *Server) SendTripInvite(w http.ResponseWriter, r *http.Request) {
	var body TripInviteBody
	if err := decodeJSON(r, &body); err != nil {
		s.writeError(w, r, err)
		return
	}
	inviter, err := s.currentUser(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	id := chi.URLParam(r, "id")
	trip, ok := s.deps.Trips.Find(id)
	if !ok {
		s.writeError(w, r, fmt.Errorf("%w: trip %q", domain.ErrNotFound, id))
		return
	}
	inv, err := s.deps.Social.SendTripInvite(r.Context(), inviter, trip, body.InviteeID).Await(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, inv)
}

// AcceptTripInvite handles POST /invites/{id}/accept.
func (s *Server) AcceptTripInvite(w http.ResponseWriter, r *http.Request) {
	userID, err := s.actingUser(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	inv, err := s.deps.Social.AcceptTripInvite(r.Context(), userID, chi.URLParam(r, "id")).Await(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, inv)
}

// DeclineTripInvite handles POST /invites/{id}/decline.
func (s *Server) DeclineTripInvite(w http.ResponseWriter, r *http.Request) {
	userID, err := s.actingUser(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if _, err := s.deps.Social.DeclineTripInvite(r.Context(), userID, chi.URLParam(r, "id")).Await(r.Context()); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// actingUser is the id of the caller answering a request or invite.
func (s *Server) actingUser(r *http.Request) (string, error) {
	id, err := s.currentUser(r.Context())
	if err != nil {
		return "", err
	}
	if id == "" {
		return "", fmt.Errorf("%w: nobody is signed in", domain.ErrValidation)
	}
	return id, nil
}

// signedInUser finds the caller's user document in the directory snapshot.
func (s *Server) signedInUser(r *http.Request) (domain.User, error) {
	id, err := s.actingUser(r)
	if err != nil {
		return domain.User{}, err
	}
	for _, u := range s.deps.Social.Users().Items().Get() {
		if u.ID == id {
			return u, nil
		}
	}
	return domain.User{}, fmt.Errorf("%w: user %q", domain.ErrNotFound, id)
}

// pageParams reads the optional ?page= and ?limit= integers.
func pageParams(r *http.Request) (domain.Page, error) {
	q := r.URL.Query()
	var vals [2]*int
	for i, name := range []string{"page", "limit"} {
		raw := q.Get(name)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			return domain.Page{}, fmt.Errorf("%w: %s must be an integer", domain.ErrParse, name)
		}
		vals[i] = &n
	}
	return domain.NewPage(vals[0], vals[1]), nil
}
