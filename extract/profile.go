package extract

import (
	"fmt"
	"os"
	"strings"

	"github.com/use-agent/flightscrape/models"
	"gopkg.in/yaml.v3"
)

// SiteProfile bundles every locator that couples the extractor to the
// target site's markup. When the site changes, this is what gets updated.
type SiteProfile struct {
	Name string

	// RowSelector matches one result row.
	RowSelector string

	// RevealSelector matches the "show more" control.
	RevealSelector string

	// Fields locates each record field inside a row.
	Fields SelectorTable
}

// GoogleFlights is the built-in profile for the Google Flights results list.
var GoogleFlights = SiteProfile{
	Name:           "google-flights",
	RowSelector:    "li.pIav2d",
	RevealSelector: `button[aria-label*="more flights"]`,
	Fields: MustSelectorTable(map[string]string{
		models.FieldAirline:            "div.sSHqwe.tPgKwe.ogfYpf",
		models.FieldDepartureTime:      `span[aria-label^="Departure time"]`,
		models.FieldArrivalTime:        `span[aria-label^="Arrival time"]`,
		models.FieldDuration:           `div[aria-label^="Total duration"]`,
		models.FieldStops:              "div.hF6lYb span.rGRiKd",
		models.FieldPrice:              "div.FpEdX span",
		models.FieldCO2Emissions:       "div.O7CXue",
		models.FieldEmissionsVariation: "div.N6PNV",
	}),
}

// profileFile is the on-disk YAML shape of a SiteProfile.
type profileFile struct {
	Name       string            `yaml:"name"`
	Rows       string            `yaml:"rows"`
	RevealMore string            `yaml:"reveal_more"`
	Fields     map[string]string `yaml:"fields"`
}

// Validate checks that the profile can drive an extraction.
func (p SiteProfile) Validate() error {
	if strings.TrimSpace(p.RowSelector) == "" {
		return fmt.Errorf("profile %q: row selector is empty", p.Name)
	}
	if err := checkCSS(p.RowSelector); err != nil {
		return fmt.Errorf("profile %q: rows: %w", p.Name, err)
	}
	if strings.TrimSpace(p.RevealSelector) != "" {
		if err := checkCSS(p.RevealSelector); err != nil {
			return fmt.Errorf("profile %q: reveal_more: %w", p.Name, err)
		}
	}
	if p.Fields.Len() != len(models.FlightFields) {
		return fmt.Errorf("profile %q: selector table has %d of %d fields",
			p.Name, p.Fields.Len(), len(models.FlightFields))
	}
	return nil
}

// ParseProfile decodes a YAML site profile:
//
//	name: google-flights
//	rows: li.pIav2d
//	reveal_more: button[aria-label*="more flights"]
//	fields:
//	  airline: div.sSHqwe.tPgKwe.ogfYpf
//	  ...
func ParseProfile(data []byte) (SiteProfile, error) {
	var f profileFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return SiteProfile{}, fmt.Errorf("decode profile: %w", err)
	}

	table, err := NewSelectorTable(f.Fields)
	if err != nil {
		return SiteProfile{}, err
	}

	name := f.Name
	if name == "" {
		name = "custom"
	}
	p := SiteProfile{
		Name:           name,
		RowSelector:    strings.TrimSpace(f.Rows),
		RevealSelector: strings.TrimSpace(f.RevealMore),
		Fields:         table,
	}
	if err := p.Validate(); err != nil {
		return SiteProfile{}, err
	}
	return p, nil
}

// LoadProfile reads a YAML site profile from path.
func LoadProfile(path string) (SiteProfile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return SiteProfile{}, fmt.Errorf("read profile: %w", err)
	}
	return ParseProfile(data)
}
