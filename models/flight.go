package models

import (
	"fmt"
	"sort"
	"strings"
)

// Missing is the placeholder stored in a FlightRecord field whose selector
// matched nothing in the row.
const Missing = "N/A"

// Field names of a FlightRecord, in the order they are serialized.
const (
	FieldAirline            = "airline"
	FieldDepartureTime      = "departure_time"
	FieldArrivalTime        = "arrival_time"
	FieldDuration           = "duration"
	FieldStops              = "stops"
	FieldPrice              = "price"
	FieldCO2Emissions       = "co2_emissions"
	FieldEmissionsVariation = "emissions_variation"
)

// FlightFields lists every FlightRecord field name in serialization order.
var FlightFields = []string{
	FieldAirline,
	FieldDepartureTime,
	FieldArrivalTime,
	FieldDuration,
	FieldStops,
	FieldPrice,
	FieldCO2Emissions,
	FieldEmissionsVariation,
}

// FlightRecord is one scraped result row. Values are display strings as
// rendered by the results page; they are never parsed into numbers or
// durations because the formatting depends on locale and layout.
type FlightRecord struct {
	Airline            string `json:"airline"`
	DepartureTime      string `json:"departure_time"`
	ArrivalTime        string `json:"arrival_time"`
	Duration           string `json:"duration"`
	Stops              string `json:"stops"`
	Price              string `json:"price"`
	CO2Emissions       string `json:"co2_emissions"`
	EmissionsVariation string `json:"emissions_variation"`
}

// NewFlightRecord builds a record from a field-name → value mapping.
// The mapping must contain exactly the FlightFields keys.
func NewFlightRecord(fields map[string]string) (FlightRecord, error) {
	if err := checkFieldSet(fields); err != nil {
		return FlightRecord{}, err
	}

	return FlightRecord{
		Airline:            fields[FieldAirline],
		DepartureTime:      fields[FieldDepartureTime],
		ArrivalTime:        fields[FieldArrivalTime],
		Duration:           fields[FieldDuration],
		Stops:              fields[FieldStops],
		Price:              fields[FieldPrice],
		CO2Emissions:       fields[FieldCO2Emissions],
		EmissionsVariation: fields[FieldEmissionsVariation],
	}, nil
}

// Get returns the value of the named field.
func (r FlightRecord) Get(name string) (string, bool) {
	switch name {
	case FieldAirline:
		return r.Airline, true
	case FieldDepartureTime:
		return r.DepartureTime, true
	case FieldArrivalTime:
		return r.ArrivalTime, true
	case FieldDuration:
		return r.Duration, true
	case FieldStops:
		return r.Stops, true
	case FieldPrice:
		return r.Price, true
	case FieldCO2Emissions:
		return r.CO2Emissions, true
	case FieldEmissionsVariation:
		return r.EmissionsVariation, true
	}
	return "", false
}

// MissingFields returns the names of fields holding the Missing placeholder.
func (r FlightRecord) MissingFields() []string {
	var out []string
	for _, name := range FlightFields {
		if v, _ := r.Get(name); v == Missing {
			out = append(out, name)
		}
	}
	return out
}

// IsFlightField reports whether name is one of the FlightRecord fields.
func IsFlightField(name string) bool {
	for _, f := range FlightFields {
		if f == name {
			return true
		}
	}
	return false
}

func checkFieldSet(fields map[string]string) error {
	var unknown, absent []string
	for name := range fields {
		if !IsFlightField(name) {
			unknown = append(unknown, name)
		}
	}
	for _, name := range FlightFields {
		if _, ok := fields[name]; !ok {
			absent = append(absent, name)
		}
	}
	if len(unknown) == 0 && len(absent) == 0 {
		return nil
	}
	sort.Strings(unknown)
	return fmt.Errorf("flight field mismatch: unknown [%s], missing [%s]",
		strings.Join(unknown, ", "), strings.Join(absent, ", "))
}
