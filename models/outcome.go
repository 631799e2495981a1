package models

// TripInfo is trip metadata recovered from the search URL text alone.
// An empty string means the corresponding value could not be found.
type TripInfo struct {
	Origin      string `json:"origin,omitempty"`
	Destination string `json:"destination,omitempty"`
	Date        string `json:"date,omitempty"`
}

// IsEmpty reports whether no trip metadata was recovered at all.
func (t TripInfo) IsEmpty() bool {
	return t.Origin == "" && t.Destination == "" && t.Date == ""
}

// ScrapeOutcome is the exact payload written by the JSON sink.
type ScrapeOutcome struct {
	SearchURL string         `json:"search_url"`
	Flights   []FlightRecord `json:"flights"`
}

// NewScrapeOutcome pairs a search URL with its records. A nil slice is
// replaced by an empty one so that "flights" always serializes as an array.
func NewScrapeOutcome(searchURL string, flights []FlightRecord) ScrapeOutcome {
	if flights == nil {
		flights = []FlightRecord{}
	}
	return ScrapeOutcome{SearchURL: searchURL, Flights: flights}
}
