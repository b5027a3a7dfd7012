package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pixelcycle/pixelcycle-go/internal/application/services"
	"github.com/pixelcycle/pixelcycle-go/internal/domain/modes"
	"github.com/pixelcycle/pixelcycle-go/internal/infrastructure/caching/interfaces"
	"github.com/pixelcycle/pixelcycle-go/internal/infrastructure/observability/logging"
	"github.com/pixelcycle/pixelcycle-go/internal/infrastructure/observability/monitoring"
	"github.com/pixelcycle/pixelcycle-go/internal/infrastructure/observability/performance"
)

// CacheHandlers exposes cache statistics and invalidation.
type CacheHandlers struct {
	cache        interfaces.Cache
	cacheMonitor *monitoring.CachePerformanceMonitor
	refresh      *services.RefreshService
	registry     *modes.Registry
	logger       *logging.ChanneledLogger
	perfTracker  *performance.Tracker
}

// NewCacheHandlers creates cache handlers with injected dependencies.
func NewCacheHandlers(
	cache interfaces.Cache,
	cacheMonitor *monitoring.CachePerformanceMonitor,
	refresh *services.RefreshService,
	registry *modes.Registry,
	logger *logging.ChanneledLogger,
	perfTracker *performance.Tracker,
) *CacheHandlers {
	return &CacheHandlers{
		cache:        cache,
		cacheMonitor: cacheMonitor,
		refresh:      refresh,
		registry:     registry,
		logger:       logger,
		perfTracker:  perfTracker,
	}
}

// GetCacheStats handles GET /api/v1/cache/stats.
func (h *CacheHandlers) GetCacheStats(c *gin.Context) {
	report := h.cacheMonitor.Report()
	report["keys"] = h.cache.Keys()
	c.JSON(http.StatusOK, report)
}

// PostInvalidateKey handles POST /api/v1/cache/invalidate/:key. The entry is
// dropped and, when a provider owns the key, a high-priority refresh is
// queued so the gap closes without waiting for the next rotation visit.
func (h *CacheHandlers) PostInvalidateKey(c *gin.Context) {
	key := c.Param("key")
	if key == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cache key is required"})
		return
	}

	existed := h.cache.Has(key)
	h.cache.Invalidate(key)

	refreshQueued := false
	if provider, ok := h.registry.ByCacheKey(key); ok {
		h.refresh.EnsureFresh(provider, services.PriorityCurrentMode)
		refreshQueued = true
	}

	h.logger.API().Info("Cache key invalidated", "key", key, "existed", existed, "refreshQueued", refreshQueued)
	c.JSON(http.StatusOK, gin.H{
		"key":           key,
		"existed":       existed,
		"refreshQueued": refreshQueued,
	})
}
