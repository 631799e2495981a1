package scraper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/use-agent/flightscrape/config"
	"github.com/use-agent/flightscrape/extract"
	"github.com/use-agent/flightscrape/models"
)

// Sink persists a successful outcome and returns where it was written.
type Sink interface {
	Save(outcome models.ScrapeOutcome) (string, error)
}

// SearchResult is everything a successful search produced.
type SearchResult struct {
	Outcome models.ScrapeOutcome
	Trip    models.TripInfo

	// Path is where the sink wrote the outcome; empty without a sink.
	Path string

	// Attempts is how many browser sessions were needed.
	Attempts int

	Pagination extract.PaginationReport
	Duration   time.Duration
}

// SessionConfig tunes a Session.
type SessionConfig struct {
	// PageLoadTimeout bounds navigation plus the network-idle wait.
	PageLoadTimeout time.Duration

	Retry RetryPolicy

	// Sink is optional. When set it runs once, after a successful attempt.
	Sink Sink
}

// Session runs flight searches. Every attempt gets its own browser, which
// is closed before the attempt returns, whatever the outcome. A Session is
// safe for concurrent use.
type Session struct {
	launcher  Launcher
	extractor *extract.ResultSetExtractor
	cfg       SessionConfig
}

// NewSession wires a launcher to an extractor.
func NewSession(l Launcher, x *extract.ResultSetExtractor, cfg SessionConfig) *Session {
	if cfg.PageLoadTimeout <= 0 {
		cfg.PageLoadTimeout = 60 * time.Second
	}
	if cfg.Retry.Attempts <= 0 {
		cfg.Retry = DefaultRetryPolicy
	}
	return &Session{launcher: l, extractor: x, cfg: cfg}
}

// NewFromConfig builds a Session backed by a local Chromium, using the
// site profile file when one is configured.
func NewFromConfig(cfg *config.Config, sink Sink) (*Session, error) {
	profile := extract.GoogleFlights
	if cfg.Scraper.ProfileFile != "" {
		p, err := extract.LoadProfile(cfg.Scraper.ProfileFile)
		if err != nil {
			return nil, err
		}
		profile = p
		slog.Info("site profile loaded", "name", p.Name, "path", cfg.Scraper.ProfileFile)
	}

	x, err := extract.NewResultSetExtractor(profile, extract.Options{
		FirstRowTimeout: cfg.Scraper.FirstRowTimeout,
		RevealTimeout:   cfg.Scraper.RevealTimeout,
		RevealSettle:    cfg.Scraper.RevealSettle,
		ClickTimeout:    cfg.Scraper.RevealClickTimeout,
		MaxReveals:      cfg.Scraper.MaxReveals,
		ClickRetries:    cfg.Scraper.RevealClickRetries,
	})
	if err != nil {
		return nil, err
	}

	return NewSession(NewRodLauncher(cfg.Browser), x, SessionConfig{
		PageLoadTimeout: cfg.Scraper.PageLoadTimeout,
		Retry:           RetryPolicy{Attempts: cfg.Retry.Attempts, Delay: cfg.Retry.Delay},
		Sink:            sink,
	}), nil
}

// Profile returns the site profile searches are extracted with.
func (s *Session) Profile() extract.SiteProfile { return s.extractor.Profile() }

// SearchFlights returns the flights listed at searchURL in page order.
func (s *Session) SearchFlights(ctx context.Context, searchURL string) ([]models.FlightRecord, error) {
	res, err := s.Search(ctx, searchURL)
	if err != nil {
		return nil, err
	}
	return res.Outcome.Flights, nil
}

// Search loads searchURL, extracts every flight row and persists the
// outcome. The whole browser session is retried per the retry policy; the
// sink is not part of the retried work.
func (s *Session) Search(ctx context.Context, searchURL string) (*SearchResult, error) {
	start := time.Now()
	if err := validateSearchURL(searchURL); err != nil {
		return nil, err
	}

	var extracted *extract.Result
	attempts, err := s.cfg.Retry.Do(ctx, func(ctx context.Context, attempt int) error {
		slog.Debug("search attempt", "url", searchURL, "attempt", attempt)
		res, err := s.attempt(ctx, searchURL)
		if err != nil {
			return err
		}
		extracted = res
		return nil
	})
	if err != nil {
		slog.Error("search failed", "url", searchURL, "attempts", attempts, "error", err)
		return nil, categorizeError(err, models.ErrCodeInternal, "search failed")
	}

	result := &SearchResult{
		Outcome:    models.NewScrapeOutcome(searchURL, extracted.Flights),
		Trip:       extract.ParseTripInfo(searchURL),
		Attempts:   attempts,
		Pagination: extracted.Pagination,
	}

	if s.cfg.Sink != nil {
		path, err := s.cfg.Sink.Save(result.Outcome)
		if err != nil {
			return nil, models.NewScrapeError(models.ErrCodePersistence, "failed to save results", err)
		}
		result.Path = path
	}
	result.Duration = time.Since(start)

	slog.Info("search completed",
		"url", searchURL,
		"flights", len(result.Outcome.Flights),
		"attempts", attempts,
		"reveals", result.Pagination.Reveals,
		"origin", result.Trip.Origin,
		"destination", result.Trip.Destination,
		"date", result.Trip.Date,
		"path", result.Path,
		"duration", result.Duration,
	)
	return result, nil
}

// attempt is one full browser session: launch, open, navigate, extract,
// close. The browser is released on every return path.
func (s *Session) attempt(ctx context.Context, searchURL string) (*extract.Result, error) {
	browser, err := s.launcher.Launch(ctx)
	if err != nil {
		return nil, categorizeError(err, models.ErrCodeBrowserCrash, "failed to launch browser")
	}
	defer func() {
		if err := browser.Close(); err != nil {
			slog.Warn("browser close failed", "error", err)
		}
	}()

	page, err := browser.NewPage(ctx)
	if err != nil {
		return nil, categorizeError(err, models.ErrCodeBrowserCrash, "failed to open page")
	}
	defer func() {
		if err := page.Close(); err != nil {
			slog.Debug("page close failed", "error", err)
		}
	}()

	if err := page.Goto(ctx, searchURL, s.cfg.PageLoadTimeout); err != nil {
		return nil, navigationError(ctx, err)
	}

	return s.extractor.Run(ctx, page)
}

// navigationError reports a failed page load as NAVIGATION_FAILED, including
// when the page-load bound expired. Only the end of the caller's own context
// is a timeout of the search itself.
func navigationError(ctx context.Context, err error) *models.ScrapeError {
	if ctx.Err() != nil {
		return categorizeError(err, models.ErrCodeNavigation, "navigation to search URL failed")
	}
	msg := "navigation to search URL failed"
	if errors.Is(err, context.DeadlineExceeded) {
		msg += " (page load timed out)"
	}
	return models.NewScrapeError(models.ErrCodeNavigation, msg, err)
}

func validateSearchURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return models.NewScrapeError(models.ErrCodeInvalidInput, "search URL does not parse", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return models.NewScrapeError(models.ErrCodeInvalidInput,
			fmt.Sprintf("search URL must be absolute http(s), got %q", raw), nil)
	}
	return nil
}
