package service

import (
	"log/slog"
	"time"

	"github.com/pkordes/tripsync/internal/debounce"
	"github.com/pkordes/tripsync/internal/domain"
	"github.com/pkordes/tripsync/internal/observable"
	"github.com/pkordes/tripsync/internal/repo"
)

// PlaceState holds place search results. Places are read-only; the container
// publishes whatever the latest completed search returned.
type PlaceState struct {
	*Container[domain.Place]
	search *debounce.Coordinator[[]domain.Place]
}

// NewPlaceState returns a PlaceState searching gw after quiet of stable input.
// The place collection is not listed on construction, only warmed up.
func NewPlaceState(gw repo.PlaceGateway, quiet time.Duration, log *slog.Logger) *PlaceState {
	c := newContainer[domain.Place]("places", gw, log, containerOptions{initOnly: true})
	s := &PlaceState{Container: c}
	s.search = debounce.New(quiet, gw.Search, s.publish, c.log)
	return s
}

// SetQuery echoes q on Query and schedules a debounced search.
func (s *PlaceState) SetQuery(q string) { s.search.SetQuery(q) }

// Query is the latest value passed to SetQuery.
func (s *PlaceState) Query() *observable.Value[string] { return s.search.Query() }

// Results is the latest successful search result.
func (s *PlaceState) Results() *observable.Value[[]domain.Place] { return s.items }

// SearchState reports whether a debounced search is waiting to fire.
func (s *PlaceState) SearchState() debounce.State { return s.search.State() }

// Close cancels a waiting search and stops publishing.
func (s *PlaceState) Close() {
	s.search.Close()
	s.Container.Close()
}

func (s *PlaceState) publish(places []domain.Place) {
	if err := s.apply(func() { s.items.Set(places) }); err != nil {
		s.log.Debug("search result dropped", "error", err)
	}
}
