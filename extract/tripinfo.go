package extract

import (
	"regexp"

	"github.com/use-agent/flightscrape/models"
)

var (
	// airportPairRe takes the first two uppercase triples after tfs=.
	airportPairRe = regexp.MustCompile(`[?&]tfs=.*?([A-Z]{3}).*?([A-Z]{3})`)

	// isoDateRe takes the first YYYY-MM-DD shaped substring.
	isoDateRe = regexp.MustCompile(`(\d{4}-\d{2}-\d{2})`)
)

// ParseTripInfo recovers origin, destination and travel date from the
// search URL text. The two lookups are independent and purely textual: an
// encoded tfs payload may yield codes that are not real airports, and no
// check ties the date to the trip.
func ParseTripInfo(rawURL string) models.TripInfo {
	var info models.TripInfo
	if m := airportPairRe.FindStringSubmatch(rawURL); m != nil {
		info.Origin = m[1]
		info.Destination = m[2]
	}
	if m := isoDateRe.FindStringSubmatch(rawURL); m != nil {
		info.Date = m[1]
	}
	return info
}
