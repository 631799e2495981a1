package extract

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// Default pagination timings.
const (
	DefaultRevealTimeout = 5 * time.Second
	DefaultRevealSettle  = 2 * time.Second
)

// StopReason records why a PaginationDriver finished.
type StopReason string

const (
	// StopControlAbsent: no visible reveal control within the wait.
	StopControlAbsent StopReason = "control_absent"
	// StopRevealFault: the control was found but could not be activated.
	StopRevealFault StopReason = "reveal_fault"
	// StopCapReached: MaxReveals activations were performed.
	StopCapReached StopReason = "cap_reached"
	// StopCanceled: the context ended mid-pagination.
	StopCanceled StopReason = "canceled"
	// StopDisabled: the profile has no reveal selector.
	StopDisabled StopReason = "disabled"
)

// PaginationReport describes a finished pagination run.
type PaginationReport struct {
	Reveals int
	Reason  StopReason
	Err     error
}

type paginationState int

const (
	stateSearching paginationState = iota
	stateRevealed
	stateDone
)

// errNoMoreContent is the "nothing left to reveal" signal.
var errNoMoreContent = errors.New("no more content to reveal")

// revealFault is the "reveal attempt broke" signal.
type revealFault struct {
	op  string
	err error
}

func (f *revealFault) Error() string { return fmt.Sprintf("reveal %s: %v", f.op, f.err) }
func (f *revealFault) Unwrap() error { return f.err }

// PaginationDriver repeatedly activates the "show more" control until it
// stops appearing. Faults never escape Run: they end pagination and are
// reported in the PaginationReport.
type PaginationDriver struct {
	// Selector matches the reveal control. Empty disables pagination.
	Selector string

	// Wait bounds each attempt to locate a visible control.
	Wait time.Duration

	// Settle is the pause after a successful activation.
	Settle time.Duration

	// MaxReveals caps activations; 0 means no cap. Without a cap a control
	// that keeps reappearing keeps the loop running.
	MaxReveals int

	// ClickTimeout bounds each click on a located control. A browser click
	// waits for the control to become interactable, so a covered control
	// would otherwise block until the caller's context ends. 0 disables
	// the bound.
	ClickTimeout time.Duration

	// ClickRetries is how many extra clicks are tried on a located control
	// before the attempt counts as a fault.
	ClickRetries int

	// Sleep overrides the settle wait (tests).
	Sleep func(ctx context.Context, d time.Duration) error
}

// NewPaginationDriver returns a driver with the default timings.
func NewPaginationDriver(selector string) *PaginationDriver {
	return &PaginationDriver{
		Selector: selector,
		Wait:         DefaultRevealTimeout,
		Settle:       DefaultRevealSettle,
		ClickTimeout: DefaultRevealTimeout,
	}
}

// Run drives the SEARCHING → REVEALED → SEARCHING loop until DONE.
func (d *PaginationDriver) Run(ctx context.Context, page Page) PaginationReport {
	var report PaginationReport
	if d.Selector == "" {
		report.Reason = StopDisabled
		return report
	}

	state := stateSearching
	for state != stateDone {
		switch state {
		case stateSearching:
			if d.MaxReveals > 0 && report.Reveals >= d.MaxReveals {
				report.Reason = StopCapReached
				state = stateDone
				continue
			}

			err := d.reveal(ctx, page)
			var fault *revealFault
			switch {
			case err == nil:
				report.Reveals++
				state = stateRevealed
			case ctx.Err() != nil:
				report.Reason, report.Err = StopCanceled, ctx.Err()
				state = stateDone
			case errors.As(err, &fault):
				report.Reason, report.Err = StopRevealFault, err
				state = stateDone
			default:
				report.Reason = StopControlAbsent
				state = stateDone
			}

		case stateRevealed:
			if err := d.sleep(ctx, d.Settle); err != nil {
				report.Reason, report.Err = StopCanceled, err
				state = stateDone
				continue
			}
			state = stateSearching
		}
	}

	slog.Debug("pagination finished",
		"reveals", report.Reveals,
		"reason", string(report.Reason),
		"error", report.Err,
	)
	return report
}

// reveal locates the control and activates it once. It returns nil on
// success, errNoMoreContent when no control is visible, or a *revealFault.
func (d *PaginationDriver) reveal(ctx context.Context, page Page) error {
	control, err := page.WaitVisible(ctx, d.Selector, d.Wait)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return errNoMoreContent
		}
		return &revealFault{op: "locate", err: err}
	}

	var clickErr error
	for attempt := 0; attempt <= d.ClickRetries; attempt++ {
		if clickErr = d.click(ctx, control); clickErr == nil {
			return nil
		}
		if errors.Is(clickErr, ErrNotInteractive) || ctx.Err() != nil {
			break
		}
		slog.Debug("reveal click failed", "attempt", attempt+1, "error", clickErr)
	}
	return &revealFault{op: "click", err: clickErr}
}

func (d *PaginationDriver) click(ctx context.Context, control Element) error {
	if d.ClickTimeout <= 0 {
		return control.Click(ctx)
	}
	clickCtx, cancel := context.WithTimeout(ctx, d.ClickTimeout)
	defer cancel()
	return control.Click(clickCtx)
}

func (d *PaginationDriver) sleep(ctx context.Context, dur time.Duration) error {
	if d.Sleep != nil {
		return d.Sleep(ctx, dur)
	}
	return sleepCtx(ctx, dur)
}
