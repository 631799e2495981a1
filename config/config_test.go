package config

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()

	assert.False(t, cfg.Browser.Headless)
	assert.True(t, cfg.Browser.Stealth)
	assert.Equal(t, DefaultUserAgent, cfg.Browser.UserAgent)
	assert.Equal(t, []string{"Image", "Font", "Media"}, cfg.Browser.BlockedResourceTypes)

	assert.Equal(t, 60*time.Second, cfg.Scraper.PageLoadTimeout)
	assert.Equal(t, 30*time.Second, cfg.Scraper.FirstRowTimeout)
	assert.Equal(t, 5*time.Second, cfg.Scraper.RevealTimeout)
	assert.Equal(t, 2*time.Second, cfg.Scraper.RevealSettle)
	assert.Equal(t, 5*time.Second, cfg.Scraper.RevealClickTimeout)
	assert.Zero(t, cfg.Scraper.MaxReveals)

	assert.Equal(t, 3, cfg.Retry.Attempts)
	assert.Equal(t, 5*time.Second, cfg.Retry.Delay)
	assert.Equal(t, "flight_results.json", cfg.Output.File)
	assert.Empty(t, cfg.Output.HistoryDB)
	assert.Equal(t, 2, cfg.Server.MaxConcurrent)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("FLIGHTS_HEADLESS", "true")
	t.Setenv("FLIGHTS_MAX_REVEALS", "12")
	t.Setenv("FLIGHTS_RETRY_DELAY", "250ms")
	t.Setenv("FLIGHTS_BLOCKED_RESOURCES", " Image , ,Stylesheet")
	t.Setenv("FLIGHTS_RATE_RPS", "2.5")
	t.Setenv("FLIGHTS_API_KEYS", "a,b")

	cfg := Load()

	assert.True(t, cfg.Browser.Headless)
	assert.Equal(t, 12, cfg.Scraper.MaxReveals)
	assert.Equal(t, 250*time.Millisecond, cfg.Retry.Delay)
	assert.Equal(t, []string{"Image", "Stylesheet"}, cfg.Browser.BlockedResourceTypes)
	assert.Equal(t, 2.5, cfg.RateLimit.RequestsPerSecond)
	assert.Equal(t, []string{"a", "b"}, cfg.Auth.APIKeys)
}

func TestLoad_InvalidValuesFallBack(t *testing.T) {
	t.Setenv("FLIGHTS_RETRY_ATTEMPTS", "many")
	t.Setenv("FLIGHTS_STEALTH", "maybe")
	t.Setenv("FLIGHTS_PAGE_LOAD_TIMEOUT", "soon")

	cfg := Load()

	assert.Equal(t, 3, cfg.Retry.Attempts)
	assert.True(t, cfg.Browser.Stealth)
	assert.Equal(t, 60*time.Second, cfg.Scraper.PageLoadTimeout)
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	log := NewLogger(LogConfig{Level: "warn", Format: "json"}, &buf)

	log.Info("dropped")
	log.Warn("kept", "rows", 5)

	out := buf.String()
	assert.NotContains(t, out, "dropped")
	assert.Contains(t, out, `"msg":"kept"`)
	assert.Contains(t, out, `"rows":5`)
}

func TestNewLogger_Text(t *testing.T) {
	var buf bytes.Buffer
	NewLogger(LogConfig{Level: "DEBUG", Format: "text"}, &buf).Debug("hello", "url", "x")
	assert.Contains(t, buf.String(), "level=DEBUG msg=hello url=x")
}
