package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// DefaultUserAgent is the desktop Chrome identity presented to the site.
const DefaultUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/134.0.0.0 Safari/537.36"

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Browser   BrowserConfig
	Scraper   ScraperConfig
	Retry     RetryConfig
	Output    OutputConfig
	Auth      AuthConfig
	RateLimit RateLimitConfig
	Cache     CacheConfig
	Log       LogConfig
}

// ServerConfig controls the HTTP server.
type ServerConfig struct {
	Host string // default: "0.0.0.0"
	Port int    // default: 8080
	Mode string // "debug", "release", "test"; default: "release"

	// MaxConcurrent caps simultaneous browser searches.
	MaxConcurrent int // default: 2

	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout time.Duration // default: 30s
}

// BrowserConfig controls the Rod browser launched for each search attempt.
type BrowserConfig struct {
	// Headless controls whether the browser runs headless.
	Headless bool // default: false

	// NoSandbox disables Chrome's sandbox (needed in Docker).
	NoSandbox bool // default: false

	// BrowserBin overrides the Chromium binary path.
	BrowserBin string

	// Proxy is passed to the browser as --proxy-server.
	Proxy string

	// UserAgent is set on the incognito context.
	UserAgent string

	// AcceptLanguage is sent with every request.
	AcceptLanguage string // default: "en-US,en;q=0.9"

	// Stealth injects the go-rod/stealth script before navigation.
	Stealth bool // default: true

	// BlockedResourceTypes lists resource types to block.
	// default: ["Image", "Font", "Media"]
	BlockedResourceTypes []string

	// BlockAds drops requests to known ad and tracking hosts.
	BlockAds bool // default: true
}

// ScraperConfig controls page loading and extraction.
type ScraperConfig struct {
	// PageLoadTimeout bounds navigation plus the network-idle wait.
	PageLoadTimeout time.Duration // default: 60s

	// FirstRowTimeout bounds the wait for the first result row.
	FirstRowTimeout time.Duration // default: 30s

	// RevealTimeout bounds each attempt to locate the "more flights" control.
	RevealTimeout time.Duration // default: 5s

	// RevealSettle is the pause after each reveal.
	RevealSettle time.Duration // default: 2s

	// MaxReveals caps reveals per search; 0 means unbounded.
	MaxReveals int

	// RevealClickTimeout bounds each click on the "more flights" control.
	RevealClickTimeout time.Duration // default: 5s

	// RevealClickRetries is the number of extra clicks tried on a control.
	RevealClickRetries int

	// ProfileFile is an optional YAML site profile.
	ProfileFile string
}

// RetryConfig controls the whole-search retry policy.
type RetryConfig struct {
	Attempts int           // default: 3
	Delay    time.Duration // default: 5s
}

// OutputConfig controls where results are persisted.
type OutputConfig struct {
	// File is the JSON results file.
	File string // default: "flight_results.json"

	// HistoryDB is the SQLite search history path; empty disables history.
	HistoryDB string
}

// AuthConfig controls API key authentication.
type AuthConfig struct {
	// Enabled toggles API key authentication.
	Enabled bool // default: true

	// APIKeys is the list of valid API keys.
	APIKeys []string
}

// RateLimitConfig controls per-key rate limiting.
type RateLimitConfig struct {
	// RequestsPerSecond is the sustained rate per API key.
	RequestsPerSecond float64 // default: 1

	// Burst is the maximum burst size per API key.
	Burst int // default: 3
}

// CacheConfig controls the search outcome cache.
type CacheConfig struct {
	// MaxEntries is the maximum number of cached outcomes.
	MaxEntries int // default: 200
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string // default: "info"
	Format string // "json" or "text"; default: "json"
}

// Load reads configuration from environment variables with sane defaults.
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            envOr("FLIGHTS_HOST", "0.0.0.0"),
			Port:            envIntOr("FLIGHTS_PORT", 8080),
			Mode:            envOr("FLIGHTS_MODE", "release"),
			MaxConcurrent:   envIntOr("FLIGHTS_MAX_CONCURRENT", 2),
			ShutdownTimeout: envDurationOr("FLIGHTS_SHUTDOWN_TIMEOUT", 30*time.Second),
		},
		Browser: BrowserConfig{
			Headless:       envBoolOr("FLIGHTS_HEADLESS", false),
			NoSandbox:      envBoolOr("FLIGHTS_NO_SANDBOX", false),
			BrowserBin:     os.Getenv("FLIGHTS_BROWSER_BIN"),
			Proxy:          os.Getenv("FLIGHTS_PROXY"),
			UserAgent:      envOr("FLIGHTS_USER_AGENT", DefaultUserAgent),
			AcceptLanguage: envOr("FLIGHTS_ACCEPT_LANGUAGE", "en-US,en;q=0.9"),
			Stealth:        envBoolOr("FLIGHTS_STEALTH", true),
			BlockedResourceTypes: envSliceOr("FLIGHTS_BLOCKED_RESOURCES", []string{
				"Image", "Font", "Media",
			}),
			BlockAds: envBoolOr("FLIGHTS_BLOCK_ADS", true),
		},
		Scraper: ScraperConfig{
			PageLoadTimeout:    envDurationOr("FLIGHTS_PAGE_LOAD_TIMEOUT", 60*time.Second),
			FirstRowTimeout:    envDurationOr("FLIGHTS_FIRST_ROW_TIMEOUT", 30*time.Second),
			RevealTimeout:      envDurationOr("FLIGHTS_REVEAL_TIMEOUT", 5*time.Second),
			RevealSettle:       envDurationOr("FLIGHTS_REVEAL_SETTLE", 2*time.Second),
			RevealClickTimeout: envDurationOr("FLIGHTS_REVEAL_CLICK_TIMEOUT", 5*time.Second),
			MaxReveals:         envIntOr("FLIGHTS_MAX_REVEALS", 0),
			RevealClickRetries: envIntOr("FLIGHTS_REVEAL_CLICK_RETRIES", 0),
			ProfileFile:        os.Getenv("FLIGHTS_PROFILE_FILE"),
		},
		Retry: RetryConfig{
			Attempts: envIntOr("FLIGHTS_RETRY_ATTEMPTS", 3),
			Delay:    envDurationOr("FLIGHTS_RETRY_DELAY", 5*time.Second),
		},
		Output: OutputConfig{
			File:      envOr("FLIGHTS_OUTPUT_FILE", "flight_results.json"),
			HistoryDB: os.Getenv("FLIGHTS_HISTORY_DB"),
		},
		Auth: AuthConfig{
			Enabled: envBoolOr("FLIGHTS_AUTH_ENABLED", true),
			APIKeys: envSliceOr("FLIGHTS_API_KEYS", nil),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: envFloatOr("FLIGHTS_RATE_RPS", 1.0),
			Burst:             envIntOr("FLIGHTS_RATE_BURST", 3),
		},
		Cache: CacheConfig{
			MaxEntries: envIntOr("FLIGHTS_CACHE_MAX_ENTRIES", 200),
		},
		Log: LogConfig{
			Level:  envOr("FLIGHTS_LOG_LEVEL", "info"),
			Format: envOr("FLIGHTS_LOG_FORMAT", "json"),
		},
	}
}

// --- helper functions ---

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envBoolOr(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envFloatOr(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envSliceOr(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		return result
	}
	return fallback
}
