package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/flightscrape/models"
	"github.com/use-agent/flightscrape/storage"
)

// GetSearch returns a handler for GET /api/v1/searches/:id.
func GetSearch(history HistoryStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		if history == nil {
			respondError(c, models.NewScrapeError(models.ErrCodeNotFound, "search history is disabled", nil), start)
			return
		}

		id := c.Param("id")
		rec, err := history.Get(c.Request.Context(), id)
		if errors.Is(err, storage.ErrNotFound) {
			respondError(c, models.NewScrapeError(models.ErrCodeNotFound, "search not found: "+id, err), start)
			return
		}
		if err != nil {
			respondError(c, err, start)
			return
		}

		outcome := rec.Outcome()
		c.JSON(http.StatusOK, models.SearchResponse{
			Success:  true,
			SearchID: rec.ID,
			Outcome:  &outcome,
			Trip:     rec.Trip,
			Count:    len(outcome.Flights),
			Attempts: rec.Attempts,
			Reveals:  rec.Reveals,
			Timing:   models.TimingInfo{TotalMs: time.Since(start).Milliseconds()},
		})
	}
}
