package domain

// Place is a point of interest fetched from the places collection.
// Places are read-only: nothing in TripSync mutates them.
type Place struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Address   string   `json:"address,omitempty"`
	Latitude  float64  `json:"lat"`
	Longitude float64  `json:"lng"`
	Rating    float64  `json:"rating,omitempty"`
	Types     []string `json:"types,omitempty"`
}
