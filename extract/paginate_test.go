package extract

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

const moreSel = "button.more"

func testDriver() *PaginationDriver {
	d := NewPaginationDriver(moreSel)
	d.Sleep = noSleep
	return d
}

func TestPagination_Disabled(t *testing.T) {
	d := testDriver()
	d.Selector = ""

	report := d.Run(context.Background(), newFakePage())
	assert.Equal(t, StopDisabled, report.Reason)
	assert.Zero(t, report.Reveals)
}

func TestPagination_ControlAbsent(t *testing.T) {
	page := newFakePage()

	report := testDriver().Run(context.Background(), page)
	assert.Equal(t, StopControlAbsent, report.Reason)
	assert.Zero(t, report.Reveals)
	assert.NoError(t, report.Err)
	assert.Equal(t, 1, page.waits[moreSel])
}

func TestPagination_RevealsUntilAbsent(t *testing.T) {
	page := newFakePage()
	controls := []*fakeElement{{}, {}, {}}
	for _, c := range controls {
		page.script(moreSel, visibleResult{el: c})
	}

	var settles []time.Duration
	d := testDriver()
	d.Settle = 3 * time.Second
	d.Sleep = func(_ context.Context, dur time.Duration) error {
		settles = append(settles, dur)
		return nil
	}

	report := d.Run(context.Background(), page)
	assert.Equal(t, 3, report.Reveals)
	assert.Equal(t, StopControlAbsent, report.Reason)
	assert.Equal(t, []time.Duration{3 * time.Second, 3 * time.Second, 3 * time.Second}, settles)
	for _, c := range controls {
		assert.Equal(t, 1, c.clicks)
	}
}

func TestPagination_LocateFault(t *testing.T) {
	page := newFakePage()
	page.script(moreSel, visibleResult{err: errBoom})

	report := testDriver().Run(context.Background(), page)
	assert.Equal(t, StopRevealFault, report.Reason)
	assert.ErrorIs(t, report.Err, errBoom)
}

func TestPagination_ClickFault(t *testing.T) {
	page := newFakePage()
	control := &fakeElement{clickErrs: []error{errBoom}}
	page.script(moreSel, visibleResult{el: control})

	report := testDriver().Run(context.Background(), page)
	assert.Equal(t, StopRevealFault, report.Reason)
	assert.ErrorIs(t, report.Err, errBoom)
	assert.Equal(t, 1, control.clicks)
}

func TestPagination_ClickRetries(t *testing.T) {
	page := newFakePage()
	control := &fakeElement{clickErrs: []error{errBoom, errBoom}}
	page.script(moreSel, visibleResult{el: control})

	d := testDriver()
	d.ClickRetries = 2

	report := d.Run(context.Background(), page)
	assert.Equal(t, 1, report.Reveals)
	assert.Equal(t, StopControlAbsent, report.Reason)
	assert.Equal(t, 3, control.clicks)
}

func TestPagination_NotInteractiveSkipsRetries(t *testing.T) {
	page := newFakePage()
	control := &fakeElement{clickErrs: []error{ErrNotInteractive}}
	page.script(moreSel, visibleResult{el: control})

	d := testDriver()
	d.ClickRetries = 5

	report := d.Run(context.Background(), page)
	assert.Equal(t, StopRevealFault, report.Reason)
	assert.Equal(t, 1, control.clicks)
}

func TestPagination_StuckClickIsBounded(t *testing.T) {
	page := newFakePage()
	control := &fakeElement{blockClick: true}
	page.script(moreSel, visibleResult{el: control}, visibleResult{el: &fakeElement{}})

	d := testDriver()
	d.ClickTimeout = 20 * time.Millisecond
	d.ClickRetries = 1

	done := make(chan PaginationReport, 1)
	go func() { done <- d.Run(context.Background(), page) }()

	select {
	case report := <-done:
		assert.Equal(t, StopRevealFault, report.Reason)
		assert.ErrorIs(t, report.Err, context.DeadlineExceeded)
		assert.Zero(t, report.Reveals)
		assert.Equal(t, 2, control.clicks)
		assert.Equal(t, 1, page.waits[moreSel])
	case <-time.After(5 * time.Second):
		t.Fatal("pagination did not finish with a stuck click")
	}
}

func TestNewPaginationDriver_BoundsClicks(t *testing.T) {
	assert.Equal(t, DefaultRevealTimeout, NewPaginationDriver(moreSel).ClickTimeout)
}

func TestPagination_Cap(t *testing.T) {
	page := newFakePage()
	for i := 0; i < 10; i++ {
		page.script(moreSel, visibleResult{el: &fakeElement{}})
	}

	d := testDriver()
	d.MaxReveals = 4

	report := d.Run(context.Background(), page)
	assert.Equal(t, 4, report.Reveals)
	assert.Equal(t, StopCapReached, report.Reason)
	assert.Equal(t, 4, page.waits[moreSel])
}

func TestPagination_CanceledDuringSettle(t *testing.T) {
	page := newFakePage()
	page.script(moreSel, visibleResult{el: &fakeElement{}}, visibleResult{el: &fakeElement{}})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	d := testDriver()
	d.Sleep = func(ctx context.Context, _ time.Duration) error {
		cancel()
		return ctx.Err()
	}

	report := d.Run(ctx, page)
	assert.Equal(t, 1, report.Reveals)
	assert.Equal(t, StopCanceled, report.Reason)
	assert.ErrorIs(t, report.Err, context.Canceled)
}

func TestPagination_CanceledBeforeLocate(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report := testDriver().Run(ctx, newFakePage())
	assert.Equal(t, StopCanceled, report.Reason)
	assert.Zero(t, report.Reveals)
}

func TestSleepCtx(t *testing.T) {
	assert.NoError(t, sleepCtx(context.Background(), 0))
	assert.NoError(t, sleepCtx(context.Background(), time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, sleepCtx(ctx, time.Hour), context.Canceled)
}
