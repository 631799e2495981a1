package models

// SearchRequest is the payload for POST /api/v1/search.
type SearchRequest struct {
	// URL is the fully-formed flight search results URL. Required.
	URL string `json:"url" binding:"required,url"`

	// MaxAge allows serving a cached outcome younger than this many
	// milliseconds. 0 disables the cache lookup.
	MaxAge int `json:"max_age,omitempty" binding:"omitempty,min=0"`

	// WebhookURL receives a search.completed or search.failed event.
	WebhookURL string `json:"webhook_url,omitempty" binding:"omitempty,url"`

	// WebhookSecret signs the webhook body with HMAC-SHA256.
	WebhookSecret string `json:"webhook_secret,omitempty"`
}

// ExtractRequest is the payload for POST /api/v1/extract. It runs the
// result-set extraction over an already rendered results page.
type ExtractRequest struct {
	// HTML is the rendered results page. Required.
	HTML string `json:"html" binding:"required"`

	// URL is the page's search URL, echoed into the outcome.
	URL string `json:"url,omitempty"`
}

// SearchResponse is the response for search, extract and history lookups.
type SearchResponse struct {
	Success bool `json:"success"`

	// SearchID identifies the stored history entry, when history is enabled.
	SearchID string `json:"search_id,omitempty"`

	Outcome *ScrapeOutcome `json:"outcome,omitempty"`
	Trip    TripInfo       `json:"trip"`
	Count   int            `json:"count"`

	// Attempts is how many browser sessions the search needed.
	Attempts int `json:"attempts,omitempty"`

	// Reveals is how many "show more" activations were performed.
	Reveals int `json:"reveals,omitempty"`

	// CacheStatus is "hit", "miss", or empty when caching was not requested.
	CacheStatus string `json:"cache_status,omitempty"`

	Timing TimingInfo   `json:"timing"`
	Error  *ErrorDetail `json:"error,omitempty"`
}

// TimingInfo provides duration breakdowns for the operation.
type TimingInfo struct {
	TotalMs int64 `json:"total_ms"`
}

// HealthResponse is the response for GET /api/v1/health.
type HealthResponse struct {
	Status         string `json:"status"`
	Uptime         string `json:"uptime"`
	ActiveSearches int    `json:"active_searches"`
	MaxConcurrent  int    `json:"max_concurrent"`
	HistoryEnabled bool   `json:"history_enabled"`
	Version        string `json:"version"`
}

// TripResponse is the response for GET /api/v1/trip.
type TripResponse struct {
	Success bool         `json:"success"`
	URL     string       `json:"url,omitempty"`
	Trip    TripInfo     `json:"trip"`
	Error   *ErrorDetail `json:"error,omitempty"`
}
