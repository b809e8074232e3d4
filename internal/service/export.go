package service

import (
	"cmp"
	"fmt"
	"slices"
	"time"

	"github.com/pkordes/tripsync/internal/domain"
	"github.com/pkordes/tripsync/internal/observable"
)

// TripSnapshot is anything publishing a list of trips.
type TripSnapshot interface {
	Items() *observable.Value[[]domain.Trip]
}

// ExportService flattens trips into itinerary rows. It reads the published
// snapshot and never touches the backend.
type ExportService struct {
	trips TripSnapshot
}

// NewExportService returns an ExportService over trips.
func NewExportService(trips TripSnapshot) *ExportService {
	return &ExportService{trips: trips}
}

// Itinerary returns the rows of the trip with tripID, or of every listed trip
// when tripID is empty. Trips are ordered by start date then name, activities
// by start time. An id that is not in the snapshot is domain.ErrNotFound.
func (s *ExportService) Itinerary(tripID string) ([]domain.ItineraryRow, error) {
	trips := s.trips.Items().Get()
	if tripID != "" {
		i := slices.IndexFunc(trips, func(t domain.Trip) bool { return t.ID == tripID })
		if i < 0 {
			return nil, fmt.Errorf("service.ExportService.Itinerary: trip %q: %w", tripID, domain.ErrNotFound)
		}
		trips = trips[i : i+1]
	} else {
		trips = slices.Clone(trips)
		slices.SortStableFunc(trips, func(a, b domain.Trip) int {
			if c := a.StartDate.Compare(b.StartDate); c != 0 {
				return c
			}
			return cmp.Compare(a.Name, b.Name)
		})
	}

	rows := make([]domain.ItineraryRow, 0, len(trips))
	for _, t := range trips {
		rows = append(rows, tripRows(t)...)
	}
	return rows, nil
}

func tripRows(t domain.Trip) []domain.ItineraryRow {
	base := domain.ItineraryRow{
		TripID:        t.ID,
		TripName:      t.Name,
		TripType:      t.Type,
		TripStartDate: formatDate(t.StartDate),
		TripEndDate:   formatDate(t.EndDate),
		Participants:  t.Participants,
	}
	if len(t.Activities) == 0 {
		return []domain.ItineraryRow{base}
	}

	places := make(map[string]string, len(t.Locations))
	for _, p := range t.Locations {
		places[p.ID] = p.Name
	}

	acts := slices.Clone(t.Activities)
	slices.SortStableFunc(acts, func(a, b domain.Activity) int { return a.StartsAt.Compare(b.StartsAt) })

	rows := make([]domain.ItineraryRow, 0, len(acts))
	for _, a := range acts {
		row := base
		row.ActivityName = a.Name
		row.ActivityPlace = a.PlaceID
		if name, ok := places[a.PlaceID]; ok && name != "" {
			row.ActivityPlace = name
		}
		if !a.StartsAt.IsZero() {
			at := a.StartsAt
			row.StartsAt = &at
		}
		row.Notes = a.Notes
		rows = append(rows, row)
	}
	return rows
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.DateOnly)
}
