package api

import (
	"github.com/gin-gonic/gin"
	"github.com/use-agent/flightscrape/api/handler"
	"github.com/use-agent/flightscrape/api/middleware"
	"github.com/use-agent/flightscrape/config"
)

// NewRouter creates a configured Gin engine with all routes and middleware.
//
// Middleware chain:
//
//	Global:  Recovery → Logger
//	API:     Auth (if enabled) → RateLimit
//
// Health and trip parsing stay outside auth: neither touches the browser.
func NewRouter(svc *handler.Services, cfg *config.Config) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.Logger())

	v1 := r.Group("/api/v1")

	v1.GET("/health", handler.Health(svc))
	v1.GET("/trip", handler.Trip())

	protected := v1.Group("")
	if cfg.Auth.Enabled {
		protected.Use(middleware.Auth(cfg.Auth.APIKeys))
	}
	protected.Use(middleware.RateLimit(cfg.RateLimit))

	protected.POST("/search", handler.Search(svc))
	protected.POST("/extract", handler.Extract(svc.Profile))
	protected.GET("/searches/:id", handler.GetSearch(svc.History))

	return r
}
