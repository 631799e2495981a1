// Package extract turns a rendered flight results page into FlightRecords.
//
// It only talks to the page through the Page and Element interfaces, so the
// same extraction runs against a live browser tab (scraper package) or a
// static HTML document (htmlpage package).
package extract

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound reports that no element matched within the allowed wait.
	ErrNotFound = errors.New("element not found")

	// ErrNotInteractive reports that an element cannot be activated, e.g.
	// a control inside a static HTML snapshot.
	ErrNotInteractive = errors.New("element is not interactive")
)

// Element is one node of the rendered page, scoped for descendant queries.
type Element interface {
	// Find returns the first descendant matching selector. ok is false
	// when nothing matches; err is reserved for query faults.
	Find(ctx context.Context, selector string) (el Element, ok bool, err error)

	// Text returns the element's text content, untrimmed.
	Text(ctx context.Context) (string, error)

	// Click triggers the element's primary interaction.
	Click(ctx context.Context) error
}

// Page is the DOM query capability of a loaded results page.
type Page interface {
	// WaitVisible blocks until an element matching selector is visible or
	// timeout elapses. A timeout yields an error wrapping ErrNotFound.
	WaitVisible(ctx context.Context, selector string, timeout time.Duration) (Element, error)

	// FindAll returns every element matching selector in document order.
	FindAll(ctx context.Context, selector string) ([]Element, error)
}

// sleepCtx waits for d or until ctx is done.
func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
