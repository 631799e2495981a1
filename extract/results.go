package extract

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/use-agent/flightscrape/models"
)

// DefaultFirstRowTimeout bounds the wait for the first result row.
const DefaultFirstRowTimeout = 30 * time.Second

// Options tunes a ResultSetExtractor. Zero values fall back to defaults.
type Options struct {
	FirstRowTimeout time.Duration
	RevealTimeout   time.Duration
	RevealSettle    time.Duration
	ClickTimeout    time.Duration
	MaxReveals      int
	ClickRetries    int
}

// Result is the output of one extraction run.
type Result struct {
	Flights    []models.FlightRecord
	Pagination PaginationReport
}

// ResultSetExtractor waits for the results list, reveals every row and
// converts each row into a FlightRecord, preserving document order.
type ResultSetExtractor struct {
	profile         SiteProfile
	firstRowTimeout time.Duration
	paginator       *PaginationDriver
}

// NewResultSetExtractor validates profile and builds an extractor.
func NewResultSetExtractor(profile SiteProfile, opts Options) (*ResultSetExtractor, error) {
	if err := profile.Validate(); err != nil {
		return nil, err
	}

	p := NewPaginationDriver(profile.RevealSelector)
	if opts.RevealTimeout > 0 {
		p.Wait = opts.RevealTimeout
	}
	if opts.RevealSettle > 0 {
		p.Settle = opts.RevealSettle
	}
	if opts.ClickTimeout > 0 {
		p.ClickTimeout = opts.ClickTimeout
	}
	p.MaxReveals = opts.MaxReveals
	p.ClickRetries = opts.ClickRetries

	firstRow := opts.FirstRowTimeout
	if firstRow <= 0 {
		firstRow = DefaultFirstRowTimeout
	}

	return &ResultSetExtractor{
		profile:         profile,
		firstRowTimeout: firstRow,
		paginator:       p,
	}, nil
}

// Profile returns the site profile the extractor was built with.
func (x *ResultSetExtractor) Profile() SiteProfile { return x.profile }

// Paginator exposes the pagination driver for tuning.
func (x *ResultSetExtractor) Paginator() *PaginationDriver { return x.paginator }

// Extract returns the page's flights in document order.
func (x *ResultSetExtractor) Extract(ctx context.Context, page Page) ([]models.FlightRecord, error) {
	res, err := x.Run(ctx, page)
	if err != nil {
		return nil, err
	}
	return res.Flights, nil
}

// Run performs the extraction and also reports how pagination ended.
//
// Errors are always *models.ScrapeError: ErrCodeNoResults when no row
// became visible in time, ErrCodeTimeout when ctx ended during that wait,
// ErrCodeExtraction for any fault afterwards.
func (x *ResultSetExtractor) Run(ctx context.Context, page Page) (res *Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			res = nil
			err = models.NewScrapeError(models.ErrCodeExtraction,
				"failed to extract flight data", fmt.Errorf("panic: %v", r))
		}
	}()

	if _, err := page.WaitVisible(ctx, x.profile.RowSelector, x.firstRowTimeout); err != nil {
		if ctx.Err() != nil {
			return nil, models.NewScrapeError(models.ErrCodeTimeout,
				"search ended while waiting for result rows", err)
		}
		return nil, models.NewScrapeError(models.ErrCodeNoResults,
			fmt.Sprintf("no result rows matching %q", x.profile.RowSelector), err)
	}

	report := x.paginator.Run(ctx, page)

	rows, err := page.FindAll(ctx, x.profile.RowSelector)
	if err != nil {
		return nil, extractionError("failed to enumerate result rows", err)
	}

	flights := make([]models.FlightRecord, 0, len(rows))
	for i, row := range rows {
		fields, err := ExtractFields(ctx, row, x.profile.Fields)
		if err != nil {
			return nil, extractionError(fmt.Sprintf("row %d", i), err)
		}
		rec, err := models.NewFlightRecord(fields)
		if err != nil {
			return nil, extractionError(fmt.Sprintf("row %d", i), err)
		}
		flights = append(flights, rec)
	}

	slog.Info("flight rows extracted",
		"profile", x.profile.Name,
		"rows", len(flights),
		"reveals", report.Reveals,
		"pagination_stop", string(report.Reason),
	)
	return &Result{Flights: flights, Pagination: report}, nil
}

func extractionError(msg string, err error) *models.ScrapeError {
	if errors.Is(err, context.DeadlineExceeded) {
		msg += " (deadline exceeded)"
	}
	return models.NewScrapeError(models.ErrCodeExtraction, msg, err)
}
