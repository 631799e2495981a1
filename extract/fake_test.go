package extract

import (
	"context"
	"errors"
	"time"
)

// fakeElement is a scripted Element. clickErrs are returned by successive
// clicks; once exhausted clicks succeed.
type fakeElement struct {
	text      string
	textErr   error
	children  map[string]*fakeElement
	findErr   error
	clickErrs []error
	clicks    int
	onClick   func()
	panicMsg  string

	// blockClick makes Click wait until its context ends.
	blockClick bool
}

func (e *fakeElement) Find(_ context.Context, selector string) (Element, bool, error) {
	if e.panicMsg != "" {
		panic(e.panicMsg)
	}
	if e.findErr != nil {
		return nil, false, e.findErr
	}
	child, ok := e.children[selector]
	if !ok {
		return nil, false, nil
	}
	return child, true, nil
}

func (e *fakeElement) Text(context.Context) (string, error) { return e.text, e.textErr }

func (e *fakeElement) Click(ctx context.Context) error {
	e.clicks++
	if e.blockClick {
		<-ctx.Done()
		return ctx.Err()
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(e.clickErrs) > 0 {
		err := e.clickErrs[0]
		e.clickErrs = e.clickErrs[1:]
		return err
	}
	if e.onClick != nil {
		e.onClick()
	}
	return nil
}

// fakePage answers WaitVisible from a per-selector script. When the script
// for a selector is exhausted the selector reports ErrNotFound.
type fakePage struct {
	visible map[string][]visibleResult
	waits   map[string]int
	rows    []Element
	findErr error
}

type visibleResult struct {
	el  Element
	err error
}

func newFakePage() *fakePage {
	return &fakePage{visible: map[string][]visibleResult{}, waits: map[string]int{}}
}

func (p *fakePage) script(selector string, results ...visibleResult) {
	p.visible[selector] = append(p.visible[selector], results...)
}

func (p *fakePage) WaitVisible(ctx context.Context, selector string, _ time.Duration) (Element, error) {
	p.waits[selector]++
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	queue := p.visible[selector]
	if len(queue) == 0 {
		return nil, ErrNotFound
	}
	next := queue[0]
	if len(queue) > 1 {
		p.visible[selector] = queue[1:]
	} else {
		p.visible[selector] = nil
	}
	return next.el, next.err
}

func (p *fakePage) FindAll(ctx context.Context, _ string) ([]Element, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return p.rows, p.findErr
}

var errBoom = errors.New("boom")

func noSleep(ctx context.Context, _ time.Duration) error { return ctx.Err() }
