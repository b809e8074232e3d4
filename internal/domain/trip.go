// Package domain contains the core data types for TripSync.
// Every other internal package (repo, service, notify, handler) imports it;
// it depends on nothing but the standard library.
package domain

import "time"

// TripType classifies a trip. Unknown values are kept verbatim.
type TripType string

const (
	TripTypeLeisure  TripType = "leisure"
	TripTypeBusiness TripType = "business"
	TripTypeRoadTrip TripType = "road_trip"
)

// Trip is the top-level aggregate of the planner.
// ID is assigned once by the gateway id generator and never changes afterwards.
// Two trips are the same trip when their IDs match, whatever their other fields say.
type Trip struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	Creator      string     `json:"creator"`
	Participants []string   `json:"participants"`
	StartDate    time.Time  `json:"startDate"`
	EndDate      time.Time  `json:"endDate"`
	Locations    []Place    `json:"locations"`
	Activities   []Activity `json:"activities"`
	Type         TripType   `json:"type"`
}

// Activity is a planned item on a trip's itinerary.
type Activity struct {
	Name     string    `json:"name"`
	PlaceID  string    `json:"placeId,omitempty"`
	StartsAt time.Time `json:"startsAt"`
	Notes    string    `json:"notes,omitempty"`
}

// Key returns the identity used for hashing trips in maps and sets.
func (t Trip) Key() string { return t.ID }

// Equal reports whether t and o denote the same trip.
func (t Trip) Equal(o Trip) bool { return t.ID == o.ID }

// HasParticipant reports whether userID is listed among the participants.
func (t Trip) HasParticipant(userID string) bool {
	for _, p := range t.Participants {
		if p == userID {
			return true
		}
	}
	return false
}
