package handler

import (
	"net/http"

	"github.com/pkordes/tripsync/internal/domain"
)

// PlaceQueryRequest is the body of POST /places/query.
type PlaceQueryRequest struct {
	Query string `json:"query"`
}

// PlaceSearch reports the search as it stands: the echoed query, whether a
// debounced search is waiting, and the latest results.
type PlaceSearch struct {
	Query   string         `json:"query"`
	State   string         `json:"state"`
	Results []domain.Place `json:"results"`
}

// SetPlaceQuery handles POST /places/query. It returns 202 right away; the
// search runs once the query has been stable for the quiet period.
func (s *Server) SetPlaceQuery(w http.ResponseWriter, r *http.Request) {
	var body PlaceQueryRequest
	if err := decodeJSON(r, &body); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.deps.Places.SetQuery(body.Query)
	writeJSON(w, http.StatusAccepted, s.placeSearch())
}

// GetPlaces handles GET /places.
func (s *Server) GetPlaces(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.placeSearch())
}

func (s *Server) placeSearch() PlaceSearch {
	p := s.deps.Places
	return PlaceSearch{
		Query:   p.Query().Get(),
		State:   p.SearchState().String(),
		Results: nonNil(p.Results().Get()),
	}
}
