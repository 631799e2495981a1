package scraper

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/use-agent/flightscrape/htmlpage"
	"github.com/use-agent/flightscrape/models"
)

// fakeLauncher hands out browsers whose pages are static HTML documents.
// Errors in launchErr and gotoErr are consumed one per attempt.
type fakeLauncher struct {
	mu        sync.Mutex
	html      string
	onClick   htmlpage.ClickHandler
	launchErr []error
	gotoErr   []error
	launches  int
	opened    int
	closed    int
	gotoURLs  []string
}

func (l *fakeLauncher) Launch(ctx context.Context) (Browser, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.launches++
	if err := pop(&l.launchErr); err != nil {
		return nil, err
	}
	l.opened++
	return &fakeBrowser{launcher: l}, nil
}

// openBrowsers is the number of launched browsers not yet closed.
func (l *fakeLauncher) openBrowsers() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.opened - l.closed
}

type fakeBrowser struct {
	launcher *fakeLauncher
}

func (b *fakeBrowser) NewPage(context.Context) (Page, error) {
	var opts []htmlpage.Option
	if b.launcher.onClick != nil {
		opts = append(opts, htmlpage.WithClickHandler(b.launcher.onClick))
	}
	doc, err := htmlpage.FromString(b.launcher.html, opts...)
	if err != nil {
		return nil, err
	}
	return &fakePage{Document: doc, launcher: b.launcher}, nil
}

func (b *fakeBrowser) Close() error {
	b.launcher.mu.Lock()
	defer b.launcher.mu.Unlock()
	b.launcher.closed++
	return nil
}

type fakePage struct {
	*htmlpage.Document
	launcher *fakeLauncher
}

func (p *fakePage) Goto(ctx context.Context, url string, _ time.Duration) error {
	p.launcher.mu.Lock()
	defer p.launcher.mu.Unlock()
	p.launcher.gotoURLs = append(p.launcher.gotoURLs, url)
	if err := pop(&p.launcher.gotoErr); err != nil {
		return err
	}
	return ctx.Err()
}

func (p *fakePage) Close() error { return nil }

func pop(errs *[]error) error {
	if len(*errs) == 0 {
		return nil
	}
	err := (*errs)[0]
	*errs = (*errs)[1:]
	return err
}

type memorySink struct {
	saved []string
	err   error
}

func (s *memorySink) Save(outcome models.ScrapeOutcome) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	s.saved = append(s.saved, outcome.SearchURL)
	return "memory://" + outcome.SearchURL, nil
}

func flightRow(n int) string {
	return fmt.Sprintf(`<li class="pIav2d">`+
		`<div class="sSHqwe tPgKwe ogfYpf">Airline %[1]d</div>`+
		`<span aria-label="Departure time: %[1]d:00 AM.">%[1]d:00 AM</span>`+
		`<span aria-label="Arrival time: %[1]d:45 PM.">%[1]d:45 PM</span>`+
		`<div aria-label="Total duration %[1]d hr.">%[1]d hr</div>`+
		`<div class="hF6lYb"><span class="rGRiKd">1 stop</span></div>`+
		`<div class="FpEdX"><span>$%[1]d99</span></div>`+
		`<div class="O7CXue">%[1]d00 kg CO2e</div>`+
		`<div class="N6PNV">+%[1]d%% emissions</div>`+
		`</li>`, n)
}

func resultsHTML(rows int, reveal bool) string {
	var b strings.Builder
	b.WriteString(`<html><body><ul class="results">`)
	for i := 1; i <= rows; i++ {
		b.WriteString(flightRow(i))
	}
	b.WriteString(`</ul>`)
	if reveal {
		b.WriteString(`<button aria-label="Show more flights">More flights</button>`)
	}
	b.WriteString(`</body></html>`)
	return b.String()
}

// revealTwoMore adds two rows and removes the control on first click.
func revealTwoMore(doc *goquery.Document, target *goquery.Selection) error {
	next := doc.Find("li.pIav2d").Length() + 1
	doc.Find("ul.results").AppendHtml(flightRow(next) + flightRow(next+1))
	target.Remove()
	return nil
}
