// Package coordinator defers content mutations while display regions are
// actively scrolling, so refreshes never cause visible stutter.
package coordinator

import (
	"sort"
	"sync"
	"time"

	"github.com/pixelcycle/pixelcycle-go/internal/infrastructure/observability/logging"
	"github.com/pixelcycle/pixelcycle-go/internal/infrastructure/observability/metrics"
	"github.com/pixelcycle/pixelcycle-go/internal/infrastructure/security"
)

// DeferredUpdate is a content mutation waiting for its region to stop
// scrolling. Updates are applied in (priority asc, enqueued asc) order and
// consumed exactly once.
type DeferredUpdate struct {
	ID         string
	RegionID   string
	Priority   int
	Apply      func()
	EnqueuedAt time.Time
}

// scrollState tracks one region's scroll activity.
type scrollState struct {
	isScrolling    bool
	lastActivityAt time.Time
}

// ScrollStateView is a point-in-time view of one region for status APIs.
type ScrollStateView struct {
	RegionID       string    `json:"regionId"`
	IsScrolling    bool      `json:"isScrolling"`
	LastActivityAt time.Time `json:"lastActivityAt"`
}

// GracefulUpdateCoordinator tracks which regions are mid-scroll and holds
// updates for them until a safe point. A region that keeps claiming to
// scroll but goes silent past the inactivity threshold is treated as
// stopped, so updates can never starve.
type GracefulUpdateCoordinator struct {
	mu      sync.Mutex
	regions map[string]*scrollState
	pending []*DeferredUpdate

	inactivityThreshold time.Duration
	logger              *logging.ChanneledLogger
	metrics             *metrics.Metrics
}

// New creates a coordinator with the given inactivity threshold.
func New(inactivityThreshold time.Duration, logger *logging.ChanneledLogger, m *metrics.Metrics) *GracefulUpdateCoordinator {
	return &GracefulUpdateCoordinator{
		regions:             make(map[string]*scrollState),
		inactivityThreshold: inactivityThreshold,
		logger:              logger,
		metrics:             m,
	}
}

// SetScrollingState records whether a region is actively scrolling. The
// rendering layer calls this as scroll animation starts, advances, and
// stops; each true call refreshes the region's activity timestamp.
func (c *GracefulUpdateCoordinator) SetScrollingState(regionID string, isScrolling bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	state, exists := c.regions[regionID]
	if !exists {
		state = &scrollState{}
		c.regions[regionID] = state
	}

	state.isScrolling = isScrolling
	if isScrolling {
		state.lastActivityAt = time.Now().UTC()
	}
}

// IsScrolling reports whether a region is actively scrolling. Regions
// silent past the inactivity threshold report false even if their last
// reported state was scrolling.
func (c *GracefulUpdateCoordinator) IsScrolling(regionID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.scrollingLocked(regionID, time.Now().UTC())
}

func (c *GracefulUpdateCoordinator) scrollingLocked(regionID string, now time.Time) bool {
	state, exists := c.regions[regionID]
	if !exists || !state.isScrolling {
		return false
	}
	return now.Sub(state.lastActivityAt) < c.inactivityThreshold
}

// Defer applies the update immediately when its region is idle, otherwise
// queues it for the next safe point.
func (c *GracefulUpdateCoordinator) Defer(update *DeferredUpdate) {
	if update == nil || update.Apply == nil {
		return
	}
	if update.ID == "" {
		update.ID = security.GenerateULID()
	}
	if update.EnqueuedAt.IsZero() {
		update.EnqueuedAt = time.Now().UTC()
	}

	c.mu.Lock()
	if c.scrollingLocked(update.RegionID, time.Now().UTC()) {
		c.pending = append(c.pending, update)
		c.mu.Unlock()

		c.metrics.IncDeferredEnqueued()
		c.logger.Scroll().Debug("Update deferred while region scrolls",
			"id", update.ID, "regionId", update.RegionID, "priority", update.Priority)
		return
	}
	c.mu.Unlock()

	c.apply(update)
}

// ProcessDeferred applies every queued update whose region has stopped
// scrolling or gone silent past the inactivity threshold. The scheduler
// calls this once per tick as its safe point. It returns the number of
// updates applied.
func (c *GracefulUpdateCoordinator) ProcessDeferred() int {
	now := time.Now().UTC()

	c.mu.Lock()
	var runnable []*DeferredUpdate
	var blocked []*DeferredUpdate
	for _, update := range c.pending {
		if c.scrollingLocked(update.RegionID, now) {
			blocked = append(blocked, update)
		} else {
			runnable = append(runnable, update)
		}
	}
	c.pending = blocked
	c.mu.Unlock()

	if len(runnable) == 0 {
		return 0
	}

	sort.SliceStable(runnable, func(i, j int) bool {
		if runnable[i].Priority != runnable[j].Priority {
			return runnable[i].Priority < runnable[j].Priority
		}
		return runnable[i].EnqueuedAt.Before(runnable[j].EnqueuedAt)
	})

	for _, update := range runnable {
		c.apply(update)
	}
	return len(runnable)
}

// apply runs the update callback, containing panics so a bad callback
// cannot take down the render loop.
func (c *GracefulUpdateCoordinator) apply(update *DeferredUpdate) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Scroll().Error("Deferred update panicked",
				"id", update.ID, "regionId", update.RegionID, "panic", r)
		}
	}()

	update.Apply()
	c.metrics.IncDeferredApplied()
	c.logger.Scroll().Debug("Update applied",
		"id", update.ID, "regionId", update.RegionID, "priority", update.Priority)
}

// PendingCount reports the number of queued updates.
func (c *GracefulUpdateCoordinator) PendingCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}

// ScrollingCount reports how many regions are effectively scrolling.
func (c *GracefulUpdateCoordinator) ScrollingCount() int {
	now := time.Now().UTC()

	c.mu.Lock()
	defer c.mu.Unlock()

	var count int
	for regionID := range c.regions {
		if c.scrollingLocked(regionID, now) {
			count++
		}
	}
	return count
}

// Snapshot returns per-region scroll state sorted by region id.
func (c *GracefulUpdateCoordinator) Snapshot() []ScrollStateView {
	c.mu.Lock()
	defer c.mu.Unlock()

	views := make([]ScrollStateView, 0, len(c.regions))
	for regionID, state := range c.regions {
		views = append(views, ScrollStateView{
			RegionID:       regionID,
			IsScrolling:    state.isScrolling,
			LastActivityAt: state.lastActivityAt,
		})
	}
	sort.Slice(views, func(i, j int) bool { return views[i].RegionID < views[j].RegionID })
	return views
}
