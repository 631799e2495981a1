package handler

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/use-agent/flightscrape/cache"
	"github.com/use-agent/flightscrape/extract"
	"github.com/use-agent/flightscrape/models"
	"github.com/use-agent/flightscrape/scraper"
	"github.com/use-agent/flightscrape/storage"
	"github.com/use-agent/flightscrape/webhook"
	"golang.org/x/sync/semaphore"
)

// Searcher runs a browser search. *scraper.Session implements it.
type Searcher interface {
	Search(ctx context.Context, searchURL string) (*scraper.SearchResult, error)
}

// HistoryStore persists completed searches. *storage.History implements it.
type HistoryStore interface {
	Record(ctx context.Context, outcome models.ScrapeOutcome, trip models.TripInfo, attempts, reveals int) (string, error)
	Get(ctx context.Context, id string) (*storage.SearchRecord, error)
}

// Services bundles what the handlers need.
type Services struct {
	Searcher Searcher

	// Slots caps concurrent searches; MaxConcurrent is its size.
	Slots         *semaphore.Weighted
	MaxConcurrent int

	// Profile drives offline extraction and namespaces cache keys.
	Profile extract.SiteProfile

	// Cache, History and Webhooks are optional.
	Cache    *cache.Cache
	History  HistoryStore
	Webhooks *webhook.Sender

	StartTime time.Time

	active atomic.Int32
}

// Active returns the number of searches holding a slot.
func (s *Services) Active() int { return int(s.active.Load()) }

// NewServices builds Services with a semaphore of maxConcurrent slots.
func NewServices(s Searcher, profile extract.SiteProfile, maxConcurrent int) *Services {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	return &Services{
		Searcher:      s,
		Slots:         semaphore.NewWeighted(int64(maxConcurrent)),
		MaxConcurrent: maxConcurrent,
		Profile:       profile,
		Webhooks:      webhook.DefaultSender,
		StartTime:     time.Now(),
	}
}
