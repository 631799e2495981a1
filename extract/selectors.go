package extract

import (
	"fmt"
	"strings"

	"github.com/andybalholm/cascadia"
	"github.com/use-agent/flightscrape/models"
)

// Selector binds one FlightRecord field to a CSS locator evaluated inside a
// result row.
type Selector struct {
	Field   string
	Locator string
}

// SelectorTable maps each FlightRecord field to its locator. It is immutable
// once built; entries are kept in models.FlightFields order.
type SelectorTable struct {
	entries []Selector
}

// NewSelectorTable validates locators and builds a table. The keys must be
// exactly the FlightRecord field names and every locator must parse as CSS.
func NewSelectorTable(locators map[string]string) (SelectorTable, error) {
	var problems []string
	for field := range locators {
		if !models.IsFlightField(field) {
			problems = append(problems, fmt.Sprintf("unknown field %q", field))
		}
	}

	entries := make([]Selector, 0, len(models.FlightFields))
	for _, field := range models.FlightFields {
		loc, ok := locators[field]
		loc = strings.TrimSpace(loc)
		switch {
		case !ok:
			problems = append(problems, fmt.Sprintf("field %q has no selector", field))
			continue
		case loc == "":
			problems = append(problems, fmt.Sprintf("field %q has an empty selector", field))
			continue
		}
		if err := checkCSS(loc); err != nil {
			problems = append(problems, fmt.Sprintf("field %q: %v", field, err))
			continue
		}
		entries = append(entries, Selector{Field: field, Locator: loc})
	}

	if len(problems) > 0 {
		return SelectorTable{}, fmt.Errorf("invalid selector table: %s", strings.Join(problems, "; "))
	}
	return SelectorTable{entries: entries}, nil
}

// MustSelectorTable is like NewSelectorTable but panics on error. Intended
// for package-level tables.
func MustSelectorTable(locators map[string]string) SelectorTable {
	t, err := NewSelectorTable(locators)
	if err != nil {
		panic(err)
	}
	return t
}

// Entries returns a copy of the table's selectors in field order.
func (t SelectorTable) Entries() []Selector {
	out := make([]Selector, len(t.entries))
	copy(out, t.entries)
	return out
}

// Locator returns the selector bound to field.
func (t SelectorTable) Locator(field string) (string, bool) {
	for _, e := range t.entries {
		if e.Field == field {
			return e.Locator, true
		}
	}
	return "", false
}

// Len returns the number of entries.
func (t SelectorTable) Len() int { return len(t.entries) }

// Map returns the table as a plain field → locator map.
func (t SelectorTable) Map() map[string]string {
	m := make(map[string]string, len(t.entries))
	for _, e := range t.entries {
		m[e.Field] = e.Locator
	}
	return m
}

func checkCSS(selector string) error {
	if _, err := cascadia.ParseGroup(selector); err != nil {
		return fmt.Errorf("bad CSS selector %q: %w", selector, err)
	}
	return nil
}
