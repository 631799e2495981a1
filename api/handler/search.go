package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/use-agent/flightscrape/cache"
	"github.com/use-agent/flightscrape/models"
	"github.com/use-agent/flightscrape/webhook"
)

// Search returns a handler for POST /api/v1/search.
//
// Orchestration flow:
//  1. Parse & validate request.
//  2. Cache lookup when max_age is set.
//  3. Wait for a free search slot; BUSY if the client gives up first.
//  4. Session.Search → ordered flights + trip info.
//  5. Record history, store in cache, fire webhook, return 200.
func Search(svc *Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		totalStart := time.Now()

		// ── 1. Parse request ────────────────────────────────────────
		var req models.SearchRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, models.NewScrapeError(models.ErrCodeInvalidInput, err.Error(), err), totalStart)
			return
		}

		// ── 2. Cache lookup ─────────────────────────────────────────
		cacheKey := cache.Key(req.URL, svc.Profile.Name)
		if svc.Cache != nil && req.MaxAge > 0 {
			if cached, hit := svc.Cache.Get(cacheKey, req.MaxAge); hit {
				resp := *cached
				resp.CacheStatus = "hit"
				resp.Timing = models.TimingInfo{TotalMs: time.Since(totalStart).Milliseconds()}
				c.JSON(http.StatusOK, resp)
				return
			}
		}

		// ── 3. Acquire slot ─────────────────────────────────────────
		ctx := c.Request.Context()
		if err := svc.Slots.Acquire(ctx, 1); err != nil {
			respondError(c, models.NewScrapeError(models.ErrCodeBusy,
				"all search slots are busy", err), totalStart)
			return
		}
		defer svc.Slots.Release(1)
		svc.active.Add(1)
		defer svc.active.Add(-1)

		// ── 4. Search ───────────────────────────────────────────────
		result, err := svc.Searcher.Search(ctx, req.URL)
		if err != nil {
			notify(svc, req, webhook.EventSearchFailed, uuid.NewString(), errorDetail(err))
			respondError(c, err, totalStart)
			return
		}

		resp := &models.SearchResponse{
			Success:  true,
			Outcome:  &result.Outcome,
			Trip:     result.Trip,
			Count:    len(result.Outcome.Flights),
			Attempts: result.Attempts,
			Reveals:  result.Pagination.Reveals,
		}

		// ── 5. History, cache, webhook ──────────────────────────────
		if svc.History != nil {
			id, err := svc.History.Record(ctx, result.Outcome, result.Trip, result.Attempts, result.Pagination.Reveals)
			if err != nil {
				slog.Warn("history record failed", "url", req.URL, "error", err)
			} else {
				resp.SearchID = id
			}
		}

		if svc.Cache != nil {
			svc.Cache.Set(cacheKey, resp)
			if req.MaxAge > 0 {
				resp = withCacheStatus(resp, "miss")
			}
		}

		jobID := resp.SearchID
		if jobID == "" {
			jobID = uuid.NewString()
		}
		notify(svc, req, webhook.EventSearchCompleted, jobID, resp)

		out := *resp
		out.Timing = models.TimingInfo{TotalMs: time.Since(totalStart).Milliseconds()}
		c.JSON(http.StatusOK, out)
	}
}

// withCacheStatus copies resp so the cached value keeps an empty status.
func withCacheStatus(resp *models.SearchResponse, status string) *models.SearchResponse {
	out := *resp
	out.CacheStatus = status
	return &out
}

func notify(svc *Services, req models.SearchRequest, eventType, jobID string, data interface{}) {
	if req.WebhookURL == "" || svc.Webhooks == nil {
		return
	}
	svc.Webhooks.DeliverAsync(req.WebhookURL, req.WebhookSecret, webhook.NewEvent(eventType, jobID, data))
}

func errorDetail(err error) *models.ErrorDetail {
	var se *models.ScrapeError
	if errors.As(err, &se) {
		return se.ToDetail()
	}
	return &models.ErrorDetail{Code: models.ErrCodeInternal, Message: err.Error()}
}

// respondError maps a ScrapeError to the correct HTTP status code and writes
// a structured JSON error response.
func respondError(c *gin.Context, err error, start time.Time) {
	detail := errorDetail(err)
	c.JSON(statusFor(detail.Code), models.SearchResponse{
		Success: false,
		Error:   detail,
		Timing:  models.TimingInfo{TotalMs: time.Since(start).Milliseconds()},
	})
}

// statusFor translates error codes to HTTP status codes.
func statusFor(code string) int {
	switch code {
	case models.ErrCodeTimeout:
		return http.StatusGatewayTimeout // 504
	case models.ErrCodeNavigation, models.ErrCodeBrowserCrash:
		return http.StatusBadGateway // 502
	case models.ErrCodeNoResults, models.ErrCodeNotFound:
		return http.StatusNotFound // 404
	case models.ErrCodeExtraction:
		return http.StatusUnprocessableEntity // 422
	case models.ErrCodeInvalidInput:
		return http.StatusBadRequest // 400
	case models.ErrCodeRateLimited:
		return http.StatusTooManyRequests // 429
	case models.ErrCodeUnauthorized:
		return http.StatusUnauthorized // 401
	case models.ErrCodeBusy:
		return http.StatusServiceUnavailable // 503
	default:
		return http.StatusInternalServerError // 500
	}
}
