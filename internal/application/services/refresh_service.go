// Package services provides the application glue between the rotation loop
// and the infrastructure: refresh submission and outage alerting.
package services

import (
	"errors"

	"github.com/pixelcycle/pixelcycle-go/internal/application/coordinator"
	"github.com/pixelcycle/pixelcycle-go/internal/domain/modes"
	"github.com/pixelcycle/pixelcycle-go/internal/infrastructure/caching/interfaces"
	"github.com/pixelcycle/pixelcycle-go/internal/infrastructure/fetching"
	"github.com/pixelcycle/pixelcycle-go/internal/infrastructure/observability/logging"
)

// Refresh priorities. The mode on screen refreshes before background
// prefetches when deferred submissions drain at a safe point.
const (
	PriorityCurrentMode = 0
	PriorityPrefetch    = 1
)

// RefreshService keeps cache entries fresh without ever blocking the render
// loop: staleness checks are cheap, fetches run on the worker pool, and
// submissions for a scrolling mode wait for the next safe point.
type RefreshService struct {
	fetcher *fetching.Service
	cache   interfaces.Cache
	coord   *coordinator.GracefulUpdateCoordinator
	logger  *logging.ChanneledLogger
}

// NewRefreshService creates the refresh service.
func NewRefreshService(fetcher *fetching.Service, cache interfaces.Cache, coord *coordinator.GracefulUpdateCoordinator, logger *logging.ChanneledLogger) *RefreshService {
	return &RefreshService{fetcher: fetcher, cache: cache, coord: coord, logger: logger}
}

// EnsureFresh submits a refresh for the provider's key unless the cached
// entry is still fresh. While the mode's region is scrolling, the submission
// itself is deferred so a mid-scroll overwrite cannot stutter the panel.
func (s *RefreshService) EnsureFresh(p modes.Provider, priority int) {
	key := p.CacheKey()
	if key == "" {
		return
	}
	if s.cache.IsFresh(key) {
		return
	}

	if s.coord != nil && s.coord.IsScrolling(p.ModeID()) {
		s.coord.Defer(&coordinator.DeferredUpdate{
			RegionID: p.ModeID(),
			Priority: priority,
			Apply:    func() { s.submit(p, priority) },
		})
		return
	}
	s.submit(p, priority)
}

// PrefetchAll warms every fetchable provider, used at startup so the first
// rotation pass has data waiting.
func (s *RefreshService) PrefetchAll(registry *modes.Registry) {
	for _, p := range registry.All() {
		s.EnsureFresh(p, PriorityPrefetch)
	}
}

// submit hands the provider's fetch to the worker pool. Freshness is checked
// again because deferred submissions can land after another path already
// refreshed the key.
func (s *RefreshService) submit(p modes.Provider, priority int) {
	key := p.CacheKey()
	if s.cache.IsFresh(key) {
		return
	}

	req := &fetching.FetchRequest{
		CacheKey: key,
		Priority: priority,
		Strategy: p.Strategy(),
		Execute:  p.Fetch,
	}
	if partial, ok := p.(modes.PartialProvider); ok {
		req.Partial = partial.Partial
	}

	if _, err := s.fetcher.Submit(req); err != nil {
		if errors.Is(err, fetching.ErrQueueSaturated) {
			s.logger.Fetch().Debug("Refresh skipped, queue saturated", "cacheKey", key)
			return
		}
		s.logger.Fetch().Warn("Refresh submit failed", "cacheKey", key, "error", err.Error())
	}
}
