package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	openapi_types "github.com/oapi-codegen/runtime/types"

	"github.com/pkordes/tripsync/internal/domain"
)

// CreateTripRequest is the body of POST /trips. Dates are calendar dates
// ("2006-01-02").
type CreateTripRequest struct {
	Name         string              `json:"name"`
	StartDate    *openapi_types.Date `json:"startDate,omitempty"`
	EndDate      *openapi_types.Date `json:"endDate,omitempty"`
	Participants []string            `json:"participants,omitempty"`
	Locations    []domain.Place      `json:"locations,omitempty"`
	Activities   []domain.Activity   `json:"activities,omitempty"`
	Type         domain.TripType     `json:"type,omitempty"`
}

// Trip is the response shape of a trip.
type Trip struct {
	ID           string              `json:"id"`
	Name         string              `json:"name"`
	Creator      string              `json:"creator"`
	Participants []string            `json:"participants"`
	StartDate    *openapi_types.Date `json:"startDate,omitempty"`
	EndDate      *openapi_types.Date `json:"endDate,omitempty"`
	Locations    []domain.Place      `json:"locations"`
	Activities   []domain.Activity   `json:"activities"`
	Type         domain.TripType     `json:"type,omitempty"`
}

// SelectTripRequest is the body of PUT /trips/selected.
type SelectTripRequest struct {
	ID string `json:"id"`
}

// ListTrips handles GET /trips. It serves the container's current snapshot.
func (s *Server) ListTrips(w http.ResponseWriter, _ *http.Request) {
	trips := s.deps.Trips.Items().Get()
	out := make([]Trip, len(trips))
	for i, t := range trips {
		out[i] = tripToResponse(t)
	}
	writeJSON(w, http.StatusOK, out)
}

// CreateTrip handles POST /trips. The caller becomes the creator.
func (s *Server) CreateTrip(w http.ResponseWriter, r *http.Request) {
	var body CreateTripRequest
	if err := decodeJSON(r, &body); err != nil {
		s.writeError(w, r, err)
		return
	}
	creator, err := s.currentUser(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	created, err := s.deps.Trips.Create(r.Context(), requestToTrip(body, creator)).Await(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, tripToResponse(created))
}

// UpdateTrip handles PATCH /trips/{id}. The body is a partial document;
// startDate and endDate take calendar dates.
func (s *Server) UpdateTrip(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var raw map[string]json.RawMessage
	if err := decodeJSON(r, &raw); err != nil {
		s.writeError(w, r, err)
		return
	}
	patch, err := tripPatch(raw)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	if _, err := s.deps.Trips.Update(r.Context(), id, patch).Await(r.Context()); err != nil {
		s.writeError(w, r, err)
		return
	}
	if t, ok := s.deps.Trips.Find(id); ok {
		writeJSON(w, http.StatusOK, tripToResponse(t))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeleteTrip handles DELETE /trips/{id}.
func (s *Server) DeleteTrip(w http.ResponseWriter, r *http.Request) {
	if _, err := s.deps.Trips.Delete(r.Context(), chi.URLParam(r, "id")).Await(r.Context()); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SelectTrip handles PUT /trips/selected. Only trips in the current snapshot
// can be selected.
func (s *Server) SelectTrip(w http.ResponseWriter, r *http.Request) {
	var body SelectTripRequest
	if err := decodeJSON(r, &body); err != nil {
		s.writeError(w, r, err)
		return
	}
	t, ok := s.deps.Trips.Find(body.ID)
	if !ok {
		s.writeError(w, r, fmt.Errorf("%w: trip %q", domain.ErrNotFound, body.ID))
		return
	}
	selected, err := s.deps.Trips.Select(t).Await(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tripToResponse(selected))
}

// GetSelectedTrip handles GET /trips/selected.
func (s *Server) GetSelectedTrip(w http.ResponseWriter, r *http.Request) {
	t := s.deps.Trips.Focused().Get()
	if t.ID == "" {
		s.writeError(w, r, fmt.Errorf("%w: no trip selected", domain.ErrNotFound))
		return
	}
	writeJSON(w, http.StatusOK, tripToResponse(t))
}

// --- mapping helpers --------------------------------------------------------

func requestToTrip(body CreateTripRequest, creator string) domain.Trip {
	t := domain.Trip{
		Name:         body.Name,
		Creator:      creator,
		Participants: body.Participants,
		Locations:    body.Locations,
		Activities:   body.Activities,
		Type:         body.Type,
	}
	if body.StartDate != nil {
		t.StartDate = body.StartDate.Time
	}
	if body.EndDate != nil {
		t.EndDate = body.EndDate.Time
	}
	return t
}

func tripToResponse(t domain.Trip) Trip {
	resp := Trip{
		ID:           t.ID,
		Name:         t.Name,
		Creator:      t.Creator,
		Participants: nonNil(t.Participants),
		Locations:    nonNil(t.Locations),
		Activities:   nonNil(t.Activities),
		Type:         t.Type,
	}
	if !t.StartDate.IsZero() {
		resp.StartDate = &openapi_types.Date{Time: t.StartDate}
	}
	if !t.EndDate.IsZero() {
		resp.EndDate = &openapi_types.Date{Time: t.EndDate}
	}
	return resp
}

// tripPatch decodes a raw PATCH body into a gateway patch. Date fields are
// converted to timestamps so they merge into the stored document.
func tripPatch(raw map[string]json.RawMessage) (map[string]any, error) {
	patch := make(map[string]any, len(raw))
	for k, v := range raw {
		switch k {
		case "startDate", "endDate":
			var d openapi_types.Date
			if err := json.Unmarshal(v, &d); err != nil {
				return nil, fmt.Errorf("%w: %s must be a date (YYYY-MM-DD)", domain.ErrValidation, k)
			}
			patch[k] = d.Time.UTC().Format(time.RFC3339)
		default:
			var val any
			if err := json.Unmarshal(v, &val); err != nil {
				return nil, fmt.Errorf("%w: %s: %v", domain.ErrParse, k, err)
			}
			patch[k] = val
		}
	}
	return patch, nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
