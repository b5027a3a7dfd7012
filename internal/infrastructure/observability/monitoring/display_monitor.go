package monitoring

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

// DisplayHealthStatus classifies the rotation loop's condition.
type DisplayHealthStatus string

const (
	DisplayHealthy   DisplayHealthStatus = "healthy"
	DisplayDegraded  DisplayHealthStatus = "degraded"
	DisplayUnhealthy DisplayHealthStatus = "unhealthy"
	DisplayUnknown   DisplayHealthStatus = "unknown"
)

// ModeMetrics tracks activity for a single display mode.
type ModeMetrics struct {
	ModeID          string    `json:"modeId"`
	LastShown       time.Time `json:"lastShown"`
	TimesShown      int64     `json:"timesShown"` // distinct slots, not ticks
	TicksObserved   int64     `json:"ticksObserved"`
	LivePreemptions int64     `json:"livePreemptions"` // slots entered by preempting rotation
	Overrides       int64     `json:"overrides"`       // slots entered by operator override
}

// DisplayHealthThresholds configures stall and placeholder detection.
type DisplayHealthThresholds struct {
	StallAfter          time.Duration `json:"stallAfter"`          // No ticks for this long means the loop is stuck
	MaxPlaceholderRatio float64       `json:"maxPlaceholderRatio"` // Recent ticks allowed to show the placeholder
	WindowSize          int           `json:"windowSize"`          // Ticks retained for the placeholder ratio
	AlertCooldown       time.Duration `json:"alertCooldown"`
}

// DefaultDisplayHealthThresholds returns limits for a one-second tick cadence.
func DefaultDisplayHealthThresholds() *DisplayHealthThresholds {
	return &DisplayHealthThresholds{
		StallAfter:          10 * time.Second,
		MaxPlaceholderRatio: 0.5,
		WindowSize:          60,
		AlertCooldown:       5 * time.Minute,
	}
}

// DisplayAlertCategory represents the type of display alert.
type DisplayAlertCategory string

const (
	DisplayAlertStall       DisplayAlertCategory = "stall"
	DisplayAlertPlaceholder DisplayAlertCategory = "placeholder"
)

// DisplayAlert represents a rotation health alert.
type DisplayAlert struct {
	ID        string               `json:"id"`
	Timestamp time.Time            `json:"timestamp"`
	Severity  AlertSeverity        `json:"severity"`
	Category  DisplayAlertCategory `json:"category"`
	Message   string               `json:"message"`
}

// DisplayAlertCallback is called when display alerts are generated.
type DisplayAlertCallback func(alert *DisplayAlert)

// DisplayMonitor consumes the scheduler's published tick events and keeps
// per-mode activity counters plus stall and placeholder detection. It never
// touches the scheduler itself.
type DisplayMonitor struct {
	modes      map[string]*ModeMetrics
	recent     []bool // true where the tick showed the placeholder
	lastModeID string
	lastState  string
	lastTickAt time.Time
	totalTicks int64
	thresholds *DisplayHealthThresholds
	callbacks  []DisplayAlertCallback
	lastAlert  map[DisplayAlertCategory]time.Time
	mu         sync.RWMutex
}

// NewDisplayMonitor creates a monitor with the given thresholds.
func NewDisplayMonitor(thresholds *DisplayHealthThresholds) *DisplayMonitor {
	if thresholds == nil {
		thresholds = DefaultDisplayHealthThresholds()
	}
	return &DisplayMonitor{
		modes:      make(map[string]*ModeMetrics),
		recent:     make([]bool, 0, thresholds.WindowSize),
		thresholds: thresholds,
		lastAlert:  make(map[DisplayAlertCategory]time.Time),
	}
}

// AddAlertCallback registers a callback invoked on rotation health alerts.
func (dm *DisplayMonitor) AddAlertCallback(callback DisplayAlertCallback) {
	dm.mu.Lock()
	defer dm.mu.Unlock()
	dm.callbacks = append(dm.callbacks, callback)
}

// Start runs the stall watch until the context is canceled.
func (dm *DisplayMonitor) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(5 * time.Second)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				dm.CheckStall(time.Now())
			}
		}
	}()
}

// RecordTick ingests one published state event.
func (dm *DisplayMonitor) RecordTick(now time.Time, state, modeID string, live bool) {
	placeholder := modeID == "placeholder"

	dm.mu.Lock()
	dm.totalTicks++
	dm.recent = append(dm.recent, placeholder)
	if len(dm.recent) > dm.thresholds.WindowSize {
		dm.recent = dm.recent[len(dm.recent)-dm.thresholds.WindowSize:]
	}

	metrics, ok := dm.modes[modeID]
	if !ok {
		metrics = &ModeMetrics{ModeID: modeID}
		dm.modes[modeID] = metrics
	}
	metrics.TicksObserved++
	metrics.LastShown = now

	// A new slot starts whenever the shown mode or the scheduler state
	// changes between ticks.
	if modeID != dm.lastModeID || state != dm.lastState {
		metrics.TimesShown++
		switch state {
		case "LivePreempted":
			metrics.LivePreemptions++
		case "OnDemandOverride":
			metrics.Overrides++
		}
	}

	dm.lastModeID = modeID
	dm.lastState = state
	dm.lastTickAt = now

	alert := dm.placeholderAlertLocked(now)
	callbacks := dm.callbacks
	dm.mu.Unlock()

	if alert != nil {
		for _, cb := range callbacks {
			cb(alert)
		}
	}
}

func (dm *DisplayMonitor) placeholderAlertLocked(now time.Time) *DisplayAlert {
	if len(dm.recent) < dm.thresholds.WindowSize {
		return nil
	}
	ratio := dm.placeholderRatioLocked()
	if ratio <= dm.thresholds.MaxPlaceholderRatio {
		return nil
	}
	if last, ok := dm.lastAlert[DisplayAlertPlaceholder]; ok && now.Sub(last) < dm.thresholds.AlertCooldown {
		return nil
	}
	dm.lastAlert[DisplayAlertPlaceholder] = now

	severity := SeverityWarning
	if ratio >= 1.0 {
		severity = SeverityCritical
	}
	return &DisplayAlert{
		ID:        fmt.Sprintf("%s_%d", DisplayAlertPlaceholder, now.UnixNano()),
		Timestamp: now,
		Severity:  severity,
		Category:  DisplayAlertPlaceholder,
		Message:   fmt.Sprintf("placeholder shown on %.0f%% of recent ticks, all feeds may be failing", ratio*100),
	}
}

func (dm *DisplayMonitor) placeholderRatioLocked() float64 {
	if len(dm.recent) == 0 {
		return 0
	}
	var count int
	for _, p := range dm.recent {
		if p {
			count++
		}
	}
	return float64(count) / float64(len(dm.recent))
}

// CheckStall fires a stall alert when no tick has arrived within the stall
// horizon. It reports whether the loop is considered stalled.
func (dm *DisplayMonitor) CheckStall(now time.Time) bool {
	dm.mu.Lock()
	if dm.lastTickAt.IsZero() || now.Sub(dm.lastTickAt) <= dm.thresholds.StallAfter {
		dm.mu.Unlock()
		return false
	}

	var alert *DisplayAlert
	if last, ok := dm.lastAlert[DisplayAlertStall]; !ok || now.Sub(last) >= dm.thresholds.AlertCooldown {
		dm.lastAlert[DisplayAlertStall] = now
		alert = &DisplayAlert{
			ID:        fmt.Sprintf("%s_%d", DisplayAlertStall, now.UnixNano()),
			Timestamp: now,
			Severity:  SeverityCritical,
			Category:  DisplayAlertStall,
			Message:   fmt.Sprintf("no rotation tick for %v, render loop may be stuck", now.Sub(dm.lastTickAt).Round(time.Second)),
		}
	}
	callbacks := dm.callbacks
	dm.mu.Unlock()

	if alert != nil {
		for _, cb := range callbacks {
			cb(alert)
		}
	}
	return true
}

// Health classifies rotation state as of now.
func (dm *DisplayMonitor) Health(now time.Time) DisplayHealthStatus {
	dm.mu.RLock()
	defer dm.mu.RUnlock()

	if dm.totalTicks == 0 {
		return DisplayUnknown
	}
	if now.Sub(dm.lastTickAt) > dm.thresholds.StallAfter {
		return DisplayUnhealthy
	}

	ratio := dm.placeholderRatioLocked()
	switch {
	case ratio >= 1.0 && len(dm.recent) >= dm.thresholds.WindowSize:
		return DisplayUnhealthy
	case ratio > dm.thresholds.MaxPlaceholderRatio:
		return DisplayDegraded
	default:
		return DisplayHealthy
	}
}

// ModeMetricsFor returns a copy of one mode's counters.
func (dm *DisplayMonitor) ModeMetricsFor(modeID string) (ModeMetrics, bool) {
	dm.mu.RLock()
	defer dm.mu.RUnlock()

	metrics, ok := dm.modes[modeID]
	if !ok {
		return ModeMetrics{}, false
	}
	return *metrics, true
}

// AllModeMetrics returns copies of every mode's counters, sorted by mode ID.
func (dm *DisplayMonitor) AllModeMetrics() []ModeMetrics {
	dm.mu.RLock()
	defer dm.mu.RUnlock()

	out := make([]ModeMetrics, 0, len(dm.modes))
	for _, metrics := range dm.modes {
		out = append(out, *metrics)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ModeID < out[j].ModeID })
	return out
}

// Report summarizes rotation activity for the status API.
func (dm *DisplayMonitor) Report(now time.Time) map[string]any {
	health := dm.Health(now)

	dm.mu.RLock()
	defer dm.mu.RUnlock()

	return map[string]any{
		"health":           string(health),
		"totalTicks":       dm.totalTicks,
		"lastTickAt":       dm.lastTickAt.UTC(),
		"currentMode":      dm.lastModeID,
		"currentState":     dm.lastState,
		"placeholderRatio": dm.placeholderRatioLocked(),
		"modesTracked":     len(dm.modes),
	}
}
