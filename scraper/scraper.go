package scraper

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/use-agent/flightscrape/config"
	"github.com/use-agent/flightscrape/extract"
)

// Launcher starts a fresh browser for one search attempt.
type Launcher interface {
	Launch(ctx context.Context) (Browser, error)
}

// Browser is a running browser process. Close must release everything the
// browser owns, including its pages.
type Browser interface {
	NewPage(ctx context.Context) (Page, error)
	Close() error
}

// Page is a browser tab that can load a URL and be queried by the extractor.
type Page interface {
	extract.Page

	// Goto navigates to url and waits for the network to go idle, all
	// within timeout.
	Goto(ctx context.Context, url string, timeout time.Duration) error

	Close() error
}

// RodLauncher launches a local Chromium through go-rod.
type RodLauncher struct {
	cfg config.BrowserConfig
}

// NewRodLauncher returns a launcher for the given browser settings.
func NewRodLauncher(cfg config.BrowserConfig) *RodLauncher {
	return &RodLauncher{cfg: cfg}
}

// Launch starts Chromium and connects to it over CDP.
func (r *RodLauncher) Launch(ctx context.Context) (Browser, error) {
	l := launcher.New().
		Context(ctx).
		Headless(r.cfg.Headless).
		NoSandbox(r.cfg.NoSandbox)

	if r.cfg.BrowserBin != "" {
		l = l.Bin(r.cfg.BrowserBin)
	}
	if r.cfg.Proxy != "" {
		l = l.Proxy(r.cfg.Proxy)
	}

	// ── Stealth flags ────────────────────────────────────────────────
	l.Set(flags.Flag("disable-blink-features"), "AutomationControlled")
	l.Delete(flags.Flag("enable-automation"))
	l.Set(flags.Flag("disable-features"), "TranslateUI")
	l.Set(flags.Flag("disable-popup-blocking"))
	l.Set(flags.Flag("disable-renderer-backgrounding"))
	l.Set(flags.Flag("disable-background-timer-throttling"))
	l.Set(flags.Flag("disable-backgrounding-occluded-windows"))
	l.Set(flags.Flag("disable-component-update"))
	l.Set(flags.Flag("disable-default-apps"))
	l.Set(flags.Flag("disable-dev-shm-usage"))
	l.Set(flags.Flag("disable-extensions"))
	l.Set(flags.Flag("no-first-run"))

	controlURL, err := l.Launch()
	if err != nil {
		return nil, err
	}
	slog.Debug("browser launched", "controlURL", controlURL, "headless", r.cfg.Headless)

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		l.Kill()
		return nil, err
	}

	return &rodBrowser{browser: browser, launcher: l, cfg: r.cfg}, nil
}
