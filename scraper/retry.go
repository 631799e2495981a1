package scraper

import (
	"context"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/use-agent/flightscrape/models"
)

// RetryPolicy re-runs a whole search a fixed number of times with a fixed
// pause in between. There is no exponential growth and no jitter.
type RetryPolicy struct {
	Attempts int
	Delay    time.Duration
}

// DefaultRetryPolicy is three attempts five seconds apart.
var DefaultRetryPolicy = RetryPolicy{Attempts: 3, Delay: 5 * time.Second}

// Do calls op until it succeeds, returns a non-retryable error, or the
// attempts are used up. It returns the number of attempts made and the last
// error.
func (p RetryPolicy) Do(ctx context.Context, op func(ctx context.Context, attempt int) error) (int, error) {
	attempts := p.Attempts
	if attempts < 1 {
		attempts = 1
	}

	var b backoff.BackOff = backoff.NewConstantBackOff(p.Delay)
	b = backoff.WithMaxRetries(b, uint64(attempts-1))
	b = backoff.WithContext(b, ctx)

	n := 0
	err := backoff.RetryNotify(func() error {
		n++
		err := op(ctx, n)
		if err != nil && !retryable(ctx, err) {
			return backoff.Permanent(err)
		}
		return err
	}, b, func(err error, wait time.Duration) {
		slog.Warn("search attempt failed, retrying",
			"attempt", n,
			"attempts", attempts,
			"wait", wait,
			"error", err,
		)
	})
	return n, err
}

// retryable reports whether another browser session could change the
// outcome. Bad input and a finished context cannot.
func retryable(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	return !models.IsCode(err, models.ErrCodeInvalidInput)
}
