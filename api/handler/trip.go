package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/flightscrape/extract"
	"github.com/use-agent/flightscrape/models"
)

// Trip returns a handler for GET /api/v1/trip?url=...
func Trip() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.Query("url")
		if raw == "" {
			c.JSON(http.StatusBadRequest, models.TripResponse{
				Error: &models.ErrorDetail{
					Code:    models.ErrCodeInvalidInput,
					Message: "query parameter url is required",
				},
			})
			return
		}
		c.JSON(http.StatusOK, models.TripResponse{
			Success: true,
			URL:     raw,
			Trip:    extract.ParseTripInfo(raw),
		})
	}
}
