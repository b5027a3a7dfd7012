package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pixelcycle/pixelcycle-go/internal/application/scheduler"
	"github.com/pixelcycle/pixelcycle-go/internal/domain/display"
	"github.com/pixelcycle/pixelcycle-go/internal/infrastructure/fetching"
	"github.com/pixelcycle/pixelcycle-go/internal/infrastructure/messaging"
	"github.com/pixelcycle/pixelcycle-go/internal/infrastructure/observability/logging"
	"github.com/pixelcycle/pixelcycle-go/internal/infrastructure/observability/monitoring"
	"github.com/pixelcycle/pixelcycle-go/internal/infrastructure/observability/performance"
	"github.com/pixelcycle/pixelcycle-go/pkg/config"
)

// RotationHandlers exposes the rotation state machine over HTTP.
type RotationHandlers struct {
	sched       *scheduler.Scheduler
	fetcher     *fetching.Service
	hub         *messaging.StateHub
	monitor     *monitoring.DisplayMonitor
	logger      *logging.ChanneledLogger
	perfTracker *performance.Tracker
	startedAt   time.Time
}

// NewRotationHandlers creates rotation handlers with injected dependencies.
func NewRotationHandlers(
	sched *scheduler.Scheduler,
	fetcher *fetching.Service,
	hub *messaging.StateHub,
	monitor *monitoring.DisplayMonitor,
	logger *logging.ChanneledLogger,
	perfTracker *performance.Tracker,
) *RotationHandlers {
	return &RotationHandlers{
		sched:       sched,
		fetcher:     fetcher,
		hub:         hub,
		monitor:     monitor,
		logger:      logger,
		perfTracker: perfTracker,
		startedAt:   time.Now().UTC(),
	}
}

// GetStatus handles GET /api/v1/status.
func (h *RotationHandlers) GetStatus(c *gin.Context) {
	now := time.Now().UTC()
	ev := h.sched.Event(now)

	c.JSON(http.StatusOK, gin.H{
		"state":            ev.State,
		"modeId":           ev.ModeID,
		"remainingSeconds": ev.RemainingSeconds,
		"live":             ev.Live,
		"liveModes":        ev.LiveModes,
		"fetch": gin.H{
			"queueDepth": h.fetcher.QueueDepth(),
			"inflight":   h.fetcher.InflightCount(),
		},
		"socketClients": h.hub.ClientCount(),
		"rotation":      h.monitor.Report(now),
		"uptimeSeconds": int64(now.Sub(h.startedAt).Seconds()),
		"at":            now,
	})
}

// GetModes handles GET /api/v1/modes.
func (h *RotationHandlers) GetModes(c *gin.Context) {
	entries := h.sched.Schedule().Entries()
	out := make([]gin.H, 0, len(entries))

	for _, entry := range entries {
		item := gin.H{
			"id":           entry.ID,
			"category":     string(entry.Category),
			"livePriority": entry.LivePriority,
		}
		if duration, ok := h.sched.ResolvedDuration(entry.ID); ok {
			item["resolvedSeconds"] = duration.Seconds()
		}
		if metrics, ok := h.monitor.ModeMetricsFor(entry.ID); ok {
			item["timesShown"] = metrics.TimesShown
			item["lastShown"] = metrics.LastShown.UTC()
			item["livePreemptions"] = metrics.LivePreemptions
		}
		out = append(out, item)
	}

	c.JSON(http.StatusOK, gin.H{"modes": out, "count": len(out)})
}

// PostOverride handles POST /api/v1/override.
func (h *RotationHandlers) PostOverride(c *gin.Context) {
	var req struct {
		ModeID string `json:"modeId" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "modeId is required"})
		return
	}

	if err := h.sched.RequestOverride(req.ModeID); err != nil {
		if errors.Is(err, display.ErrUnknownMode) {
			c.JSON(http.StatusNotFound, gin.H{"error": "unknown mode: " + req.ModeID})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	h.logger.API().Info("Override requested", "modeId", req.ModeID)
	c.JSON(http.StatusOK, gin.H{"state": string(h.sched.State()), "modeId": req.ModeID})
}

// DeleteOverride handles DELETE /api/v1/override.
func (h *RotationHandlers) DeleteOverride(c *gin.Context) {
	h.sched.ClearOverride()
	h.logger.API().Info("Override cleared")
	c.JSON(http.StatusOK, gin.H{"state": string(h.sched.State()), "modeId": h.sched.CurrentMode()})
}

// PutSchedule handles PUT /api/v1/schedule. The schedule is replaced
// wholesale; invalid entries are dropped during reload and the applied
// rotation is returned so the caller sees what survived validation.
func (h *RotationHandlers) PutSchedule(c *gin.Context) {
	var req config.ScheduleFile
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid schedule document"})
		return
	}
	if len(req.Modes) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Schedule must declare at least one mode"})
		return
	}

	if err := config.SaveSchedule(req.Modes); err != nil {
		h.logger.API().Error("Failed to persist schedule", "error", err.Error())
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to persist schedule"})
		return
	}
	h.sched.ReloadSchedule(req.Modes)

	applied := h.sched.Schedule().Entries()
	ids := make([]string, 0, len(applied))
	for _, entry := range applied {
		ids = append(ids, entry.ID)
	}

	h.logger.API().Info("Schedule replaced", "submitted", len(req.Modes), "applied", len(ids))
	c.JSON(http.StatusOK, gin.H{"applied": ids, "dropped": len(req.Modes) - len(ids)})
}
