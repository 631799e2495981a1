package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/flightscrape/models"
)

// Version is reported by the health endpoint.
const Version = "0.1.0"

// Health returns a handler for GET /api/v1/health.
//
// Status degrades to "busy" while every search slot is taken.
func Health(svc *Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		active := svc.Active()

		status := "healthy"
		if svc.MaxConcurrent > 0 && active >= svc.MaxConcurrent {
			status = "busy"
		}

		c.JSON(http.StatusOK, models.HealthResponse{
			Status:         status,
			Uptime:         time.Since(svc.StartTime).Round(time.Second).String(),
			ActiveSearches: active,
			MaxConcurrent:  svc.MaxConcurrent,
			HistoryEnabled: svc.History != nil,
			Version:        Version,
		})
	}
}
