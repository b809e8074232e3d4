package domain

import "time"

// ItineraryRow is one line of a flattened itinerary: one row per activity,
// with the trip fields repeated on every row. A trip without activities
// yields a single row whose activity fields are zero.
type ItineraryRow struct {
	TripID        string
	TripName      string
	TripType      TripType
	TripStartDate string // "2006-01-02", empty when unset
	TripEndDate   string

	ActivityName  string
	ActivityPlace string // place name when the place is one of the trip's locations, else the raw id
	StartsAt      *time.Time
	Notes         string

	Participants []string
}
