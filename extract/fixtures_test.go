package extract_test

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/use-agent/flightscrape/htmlpage"
)

// rowHTML renders one result row in the Google Flights markup. Fields named
// in omit are left out of the row.
func rowHTML(n int, omit ...string) string {
	skip := make(map[string]bool, len(omit))
	for _, f := range omit {
		skip[f] = true
	}

	var b strings.Builder
	b.WriteString(`<li class="pIav2d">`)
	if !skip["airline"] {
		fmt.Fprintf(&b, `<div class="sSHqwe tPgKwe ogfYpf"><span>Airline %d</span></div>`, n)
	}
	if !skip["departure_time"] {
		fmt.Fprintf(&b, `<span aria-label="Departure time: %d:00 AM."> %d:00 AM </span>`, n, n)
	}
	if !skip["arrival_time"] {
		fmt.Fprintf(&b, `<span aria-label="Arrival time: %d:30 PM.">%d:30 PM</span>`, n, n)
	}
	if !skip["duration"] {
		fmt.Fprintf(&b, `<div aria-label="Total duration %d hr.">%d hr</div>`, n, n)
	}
	if !skip["stops"] {
		b.WriteString(`<div class="hF6lYb"><span class="rGRiKd">Nonstop</span></div>`)
	}
	if !skip["price"] {
		fmt.Fprintf(&b, `<div class="FpEdX"><span>$%d00</span></div>`, n)
	}
	if !skip["co2_emissions"] {
		fmt.Fprintf(&b, `<div class="O7CXue">%d0 kg CO2e</div>`, n)
	}
	if !skip["emissions_variation"] {
		b.WriteString(`<div class="N6PNV">-5% emissions</div>`)
	}
	b.WriteString(`</li>`)
	return b.String()
}

const revealButton = `<button aria-label="Show more flights">More</button>`

// resultsPage renders rows 1..n inside the results list.
func resultsPage(n int, withReveal bool) string {
	var b strings.Builder
	b.WriteString(`<html><body><ul class="results">`)
	for i := 1; i <= n; i++ {
		b.WriteString(rowHTML(i))
	}
	b.WriteString(`</ul>`)
	if withReveal {
		b.WriteString(revealButton)
	}
	b.WriteString(`</body></html>`)
	return b.String()
}

// appendRows returns a click handler that adds count rows per click. When
// keep is false the clicked control is removed.
func appendRows(count int, keep bool) htmlpage.ClickHandler {
	return func(doc *goquery.Document, target *goquery.Selection) error {
		list := doc.Find("ul.results")
		next := doc.Find("li.pIav2d").Length() + 1
		for i := 0; i < count; i++ {
			list.AppendHtml(rowHTML(next + i))
		}
		if !keep {
			target.Remove()
		}
		return nil
	}
}
