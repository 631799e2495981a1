package scraper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"github.com/use-agent/flightscrape/config"
	"github.com/use-agent/flightscrape/extract"
	"github.com/use-agent/flightscrape/models"
	"github.com/ysmood/gson"
)

// idleWindow is how long the network must stay quiet to count as idle.
const idleWindow = 500 * time.Millisecond

type rodBrowser struct {
	browser  *rod.Browser
	launcher *launcher.Launcher
	cfg      config.BrowserConfig
}

// NewPage opens a tab in a fresh incognito context carrying the configured
// user agent, stealth script and request blocking. All of it is installed
// before the first navigation so it applies to the search page itself.
func (b *rodBrowser) NewPage(ctx context.Context) (Page, error) {
	incognito, err := b.browser.Context(ctx).Incognito()
	if err != nil {
		return nil, fmt.Errorf("create incognito context: %w", err)
	}

	page, err := incognito.Page(proto.TargetCreateTarget{})
	if err != nil {
		_ = incognito.Close()
		return nil, fmt.Errorf("create page: %w", err)
	}

	if b.cfg.UserAgent != "" {
		if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{
			UserAgent:      b.cfg.UserAgent,
			AcceptLanguage: b.cfg.AcceptLanguage,
		}); err != nil {
			slog.Warn("user agent override failed", "error", err)
		}
	}

	if b.cfg.Stealth {
		if _, err := page.EvalOnNewDocument(stealth.JS); err != nil {
			slog.Warn("stealth injection failed, proceeding without stealth", "error", err)
		}
	}

	if b.cfg.AcceptLanguage != "" {
		_ = proto.NetworkSetExtraHTTPHeaders{
			Headers: toHeadersMap(map[string]string{"Accept-Language": b.cfg.AcceptLanguage}),
		}.Call(page)
	}

	router := setupHijack(page, b.cfg.BlockedResourceTypes, b.cfg.BlockAds)

	return &rodPage{page: page, context: incognito, router: router}, nil
}

// Close kills the browser process and removes its profile directory.
func (b *rodBrowser) Close() error {
	err := b.browser.Close()
	b.launcher.Cleanup()
	return err
}

type rodPage struct {
	page    *rod.Page
	context *rod.Browser
	router  *rod.HijackRouter
}

// Goto navigates and then waits for the page to settle.
//
// WaitRequestIdle must be registered before Navigate or it misses the
// requests already in flight. It uses the Fetch domain, which conflicts with
// HijackRequests, so when a hijack router is mounted we fall back to
// WaitDOMStable.
func (p *rodPage) Goto(ctx context.Context, url string, timeout time.Duration) error {
	gotoCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	pg := p.page.Context(gotoCtx)

	var waitIdle func()
	if p.router == nil {
		waitIdle = pg.WaitRequestIdle(idleWindow, nil, nil, nil)
	}

	if err := pg.Navigate(url); err != nil {
		return err
	}
	if err := pg.WaitLoad(); err != nil {
		return err
	}

	if waitIdle != nil {
		waitIdle()
	} else if err := pg.WaitDOMStable(idleWindow, 0.1); err != nil {
		slog.Debug("WaitDOMStable did not converge, proceeding with current DOM", "error", err)
	}

	return gotoCtx.Err()
}

// WaitVisible maps rod's timeout onto extract.ErrNotFound. Cancellation of
// the caller's context is returned as is.
func (p *rodPage) WaitVisible(ctx context.Context, selector string, timeout time.Duration) (extract.Element, error) {
	pg := p.page.Context(ctx).Timeout(timeout)
	defer pg.CancelTimeout()

	el, err := pg.Element(selector)
	if err == nil {
		err = el.WaitVisible()
	}
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			return nil, fmt.Errorf("%w: %q within %s: %w", extract.ErrNotFound, selector, timeout, err)
		}
		return nil, err
	}
	return &rodElement{el: el}, nil
}

func (p *rodPage) FindAll(ctx context.Context, selector string) ([]extract.Element, error) {
	els, err := p.page.Context(ctx).Elements(selector)
	if err != nil {
		return nil, err
	}
	out := make([]extract.Element, len(els))
	for i, el := range els {
		out[i] = &rodElement{el: el}
	}
	return out, nil
}

func (p *rodPage) Close() error {
	if p.router != nil {
		_ = p.router.Stop()
	}
	err := p.page.Close()
	if cerr := p.context.Close(); err == nil {
		err = cerr
	}
	return err
}

type rodElement struct {
	el *rod.Element
}

// Find does not wait: an absent descendant is reported immediately.
func (e *rodElement) Find(ctx context.Context, selector string) (extract.Element, bool, error) {
	has, el, err := e.el.Context(ctx).Has(selector)
	if err != nil || !has {
		return nil, false, err
	}
	return &rodElement{el: el}, true, nil
}

// Text returns textContent, which unlike innerText includes hidden text.
func (e *rodElement) Text(ctx context.Context) (string, error) {
	res, err := e.el.Context(ctx).Eval(`() => this.textContent`)
	if err != nil {
		return "", err
	}
	return res.Value.Str(), nil
}

func (e *rodElement) Click(ctx context.Context) error {
	return e.el.Context(ctx).Click(proto.InputMouseButtonLeft, 1)
}

// toHeadersMap converts a plain string map to the proto.NetworkHeaders type
// (map[string]gson.JSON) required by NetworkSetExtraHTTPHeaders.
func toHeadersMap(headers map[string]string) proto.NetworkHeaders {
	m := make(proto.NetworkHeaders, len(headers))
	for k, v := range headers {
		m[k] = gson.New(v)
	}
	return m
}

// categorizeError wraps raw errors into typed ScrapeErrors so the API layer
// can map them to appropriate HTTP status codes.
func categorizeError(err error, code, msg string) *models.ScrapeError {
	var se *models.ScrapeError
	switch {
	case errors.As(err, &se):
		return se
	case errors.Is(err, context.DeadlineExceeded):
		return models.NewScrapeError(models.ErrCodeTimeout, msg+" (timed out)", err)
	case errors.Is(err, context.Canceled):
		return models.NewScrapeError(models.ErrCodeTimeout, "search canceled", err)
	default:
		return models.NewScrapeError(code, msg, err)
	}
}
