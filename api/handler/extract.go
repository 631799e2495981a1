package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/flightscrape/extract"
	"github.com/use-agent/flightscrape/htmlpage"
	"github.com/use-agent/flightscrape/models"
)

// Extract returns a handler for POST /api/v1/extract.
//
// It runs the result-set extraction over a rendered results page supplied
// by the client. A static page cannot reveal more rows, so only the rows
// present in the HTML are returned.
func Extract(profile extract.SiteProfile) gin.HandlerFunc {
	return func(c *gin.Context) {
		totalStart := time.Now()

		var req models.ExtractRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, models.NewScrapeError(models.ErrCodeInvalidInput, err.Error(), err), totalStart)
			return
		}

		page, err := htmlpage.FromString(req.HTML)
		if err != nil {
			respondError(c, models.NewScrapeError(models.ErrCodeInvalidInput, "html does not parse", err), totalStart)
			return
		}

		x, err := extract.NewResultSetExtractor(profile, extract.Options{})
		if err != nil {
			respondError(c, models.NewScrapeError(models.ErrCodeInternal, "invalid site profile", err), totalStart)
			return
		}

		res, err := x.Run(c.Request.Context(), page)
		if err != nil {
			respondError(c, err, totalStart)
			return
		}

		outcome := models.NewScrapeOutcome(req.URL, res.Flights)
		c.JSON(http.StatusOK, models.SearchResponse{
			Success: true,
			Outcome: &outcome,
			Trip:    extract.ParseTripInfo(req.URL),
			Count:   len(outcome.Flights),
			Timing:  models.TimingInfo{TotalMs: time.Since(totalStart).Milliseconds()},
		})
	}
}
