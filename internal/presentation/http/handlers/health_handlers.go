package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pixelcycle/pixelcycle-go/internal/infrastructure/caching/interfaces"
	"github.com/pixelcycle/pixelcycle-go/internal/infrastructure/observability/logging"
	"github.com/pixelcycle/pixelcycle-go/internal/infrastructure/observability/monitoring"
	"github.com/pixelcycle/pixelcycle-go/internal/infrastructure/observability/performance"
	"github.com/pixelcycle/pixelcycle-go/internal/infrastructure/persistence"
)

// HealthHandlers aggregates component health for probes and dashboards.
type HealthHandlers struct {
	cache          interfaces.Cache
	store          *persistence.Store
	cacheMonitor   *monitoring.CachePerformanceMonitor
	displayMonitor *monitoring.DisplayMonitor
	perfTracker    *performance.Tracker
	logger         *logging.ChanneledLogger
}

// NewHealthHandlers creates health handlers with injected dependencies.
func NewHealthHandlers(
	cache interfaces.Cache,
	store *persistence.Store,
	cacheMonitor *monitoring.CachePerformanceMonitor,
	displayMonitor *monitoring.DisplayMonitor,
	perfTracker *performance.Tracker,
	logger *logging.ChanneledLogger,
) *HealthHandlers {
	return &HealthHandlers{
		cache:          cache,
		store:          store,
		cacheMonitor:   cacheMonitor,
		displayMonitor: displayMonitor,
		perfTracker:    perfTracker,
		logger:         logger,
	}
}

// GetHealth handles GET /health. The probe fails only when the rotation
// itself is unhealthy; a cold cache or degraded feed still leaves the panel
// serving last-known-good content.
func (h *HealthHandlers) GetHealth(c *gin.Context) {
	now := time.Now().UTC()

	displayHealth := h.displayMonitor.Health(now)
	cacheHealth := h.cacheMonitor.Health()
	opHealth := h.perfTracker.Health()

	status := http.StatusOK
	overall := "healthy"
	switch {
	case displayHealth == monitoring.DisplayUnhealthy:
		status = http.StatusServiceUnavailable
		overall = "unhealthy"
	case displayHealth == monitoring.DisplayDegraded ||
		cacheHealth == monitoring.CacheUnhealthy || cacheHealth == monitoring.CacheDegraded ||
		opHealth == performance.HealthUnhealthy || opHealth == performance.HealthDegraded:
		overall = "degraded"
	}

	c.JSON(status, gin.H{
		"status":     overall,
		"display":    string(displayHealth),
		"cache":      h.cache.Health(),
		"snapshot":   h.store.Health(),
		"operations": string(opHealth),
		"at":         now,
	})
}

// GetPerformance handles GET /api/v1/performance.
func (h *HealthHandlers) GetPerformance(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"stats":  h.perfTracker.Stats(),
		"alerts": h.perfTracker.Alerts(),
		"active": h.perfTracker.ActiveOperations(),
	})
}
