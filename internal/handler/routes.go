package handler

import (
	"github.com/avecnous/shipclass/shipclass-backend/internal/middleware"
	"github.com/labstack/echo/v4"
	echoSwagger "github.com/swaggo/echo-swagger"
)

// Handlers groups the HTTP handlers served by the API
type Handlers struct {
	Settings   *SettingsHandler
	RateFilter *RateFilterHandler
	Backup     *BackupHandler
	WebSocket  *WebSocketHandler
}

// RegisterRoutes sets up all API routes
func RegisterRoutes(e *echo.Echo, h Handlers, rateLimiter *middleware.RateLimiter, servers ...Server) {
	// API docs
	e.GET("/swagger/*", echoSwagger.WrapHandler)
	e.GET("/api/openapi.json", OpenAPI3Handler(servers...))

	// Live settings updates
	if h.WebSocket != nil {
		e.GET("/ws", h.WebSocket.HandleWS)
	}

	// API version 1
	api := e.Group("/api/v1")

	// Settings routes
	shipping := api.Group("/shipping")
	shipping.GET("/sections", h.Settings.GetSections)
	shipping.GET("/settings", h.Settings.GetSettings)
	shipping.GET("/classes", h.Settings.GetShippingClasses)
	shipping.GET("/zones", h.Settings.GetShippingZones)

	// Exclusion routes
	exclusions := shipping.Group("/exclusions")
	exclusions.GET("/:slug", h.Settings.GetClassExclusions)
	exclusions.PUT("/:slug", h.Settings.SaveClassExclusions)
	exclusions.DELETE("/:slug", h.Settings.ClearClassExclusions)

	// Rate filtering (called from checkout, rate limited per client)
	rates := shipping.Group("/rates")
	if rateLimiter != nil {
		rates.Use(middleware.RateLimitMiddleware(rateLimiter))
	}
	rates.POST("/filter", h.RateFilter.FilterRates)

	// Backup routes
	backups := shipping.Group("/backups")
	backups.POST("", h.Backup.Export)
	backups.POST("/restore", h.Backup.Restore)
	backups.GET("/url", h.Backup.DownloadURL)

	// Plugin routes
	plugin := api.Group("/plugin")
	plugin.GET("/action-links", h.Settings.GetActionLinks)
}
