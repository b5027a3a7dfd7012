// Package routes provides HTTP route configuration for the presentation layer.
package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/pixelcycle/pixelcycle-go/internal/application/container"
	"github.com/pixelcycle/pixelcycle-go/internal/presentation/http/handlers"
	"github.com/pixelcycle/pixelcycle-go/internal/presentation/http/middleware"
)

// SetupRoutes configures all HTTP routes and middleware with dependency injection.
func SetupRoutes(container *container.Container) *gin.Engine {
	r := gin.Default()

	r.Use(middleware.CORSMiddleware())

	// Initialize handlers
	rotationHandlers := handlers.NewRotationHandlers(
		container.Scheduler,
		container.Fetcher,
		container.StateHub,
		container.DisplayMonitor,
		container.Logger,
		container.PerfTracker,
	)
	cacheHandlers := handlers.NewCacheHandlers(
		container.CacheManager,
		container.CacheMonitor,
		container.RefreshService,
		container.Registry,
		container.Logger,
		container.PerfTracker,
	)
	authHandlers := handlers.NewAuthHandlers(container.AuthService, container.Logger, container.PerfTracker)
	healthHandlers := handlers.NewHealthHandlers(
		container.CacheManager,
		container.Store,
		container.CacheMonitor,
		container.DisplayMonitor,
		container.PerfTracker,
		container.Logger,
	)
	socketHandlers := handlers.NewSocketHandlers(container.StateHub, container.Logger)
	logsHandlers := handlers.NewLogsHandlers(container.Logger)

	// Probes stay outside the versioned API so deploy tooling never breaks
	// on an API version bump.
	r.GET("/health", healthHandlers.GetHealth)
	r.GET("/metrics", gin.WrapH(container.Metrics.Handler(func() {
		container.Metrics.SetFetchQueueDepth(container.Fetcher.QueueDepth())
		container.Metrics.SetFetchInflight(container.Fetcher.InflightCount())
		container.Metrics.SetCacheEntries(container.CacheManager.Stats().Entries)
		container.Metrics.SetScrollingRegions(container.Coordinator.ScrollingCount())
	})))

	// Websocket state stream consumed by the renderer and the dashboard.
	r.GET("/ws/state", socketHandlers.GetStateSocket)

	// API routes
	api := r.Group("/api/v1")
	api.Use(middleware.PerformanceMiddleware(container.PerfTracker))
	{
		// Authentication
		auth := api.Group("/auth")
		{
			auth.POST("/login", authHandlers.PostLogin)
			auth.GET("/status", authHandlers.GetAuthStatus)
		}

		// Read-only rotation and cache state (public)
		api.GET("/status", rotationHandlers.GetStatus)
		api.GET("/modes", rotationHandlers.GetModes)
		api.GET("/cache/stats", cacheHandlers.GetCacheStats)

		// Admin endpoints
		admin := api.Group("")
		admin.Use(authHandlers.AuthMiddleware())
		{
			admin.POST("/override", rotationHandlers.PostOverride)
			admin.DELETE("/override", rotationHandlers.DeleteOverride)
			admin.PUT("/schedule", rotationHandlers.PutSchedule)
			admin.POST("/cache/invalidate/:key", cacheHandlers.PostInvalidateKey)
			admin.GET("/performance", healthHandlers.GetPerformance)
			admin.GET("/logs/stream", logsHandlers.StreamLogs)
		}
	}

	return r
}
