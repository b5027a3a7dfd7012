package performance

import (
	"fmt"
	"runtime"
	"strings"
	"sync"
	"time"
)

// Thresholds defines the slow-operation limits per operation family.
// Operations are matched on their name prefix ("tick:render" matches "tick").
type Thresholds struct {
	SlowTick     time.Duration `json:"slowTick"`
	SlowFetch    time.Duration `json:"slowFetch"`
	SlowRequest  time.Duration `json:"slowRequest"`
	SlowSnapshot time.Duration `json:"slowSnapshot"`
	SlowDefault  time.Duration `json:"slowDefault"`
	Critical     time.Duration `json:"critical"`
}

// DefaultThresholds returns limits tuned for a display that renders a frame
// every few milliseconds and fetches feeds in the background.
func DefaultThresholds() *Thresholds {
	return &Thresholds{
		SlowTick:     250 * time.Millisecond,
		SlowFetch:    10 * time.Second,
		SlowRequest:  500 * time.Millisecond,
		SlowSnapshot: 2 * time.Second,
		SlowDefault:  1 * time.Second,
		Critical:     5 * time.Second,
	}
}

// Tracker records operation markers and raises alerts when thresholds are
// exceeded. All methods are safe for concurrent use.
type Tracker struct {
	markers    map[string]*Marker
	alerts     []*Alert
	thresholds *Thresholds
	maxMarkers int
	maxAlerts  int
	started    time.Time
	mu         sync.RWMutex
}

// NewTracker creates a tracker with default thresholds and bounds.
func NewTracker() *Tracker {
	return &Tracker{
		markers:    make(map[string]*Marker),
		alerts:     make([]*Alert, 0),
		thresholds: DefaultThresholds(),
		maxMarkers: 2048,
		maxAlerts:  256,
		started:    time.Now(),
	}
}

// SetThresholds replaces the active thresholds.
func (t *Tracker) SetThresholds(th *Thresholds) {
	if th == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.thresholds = th
}

// StartOperation begins tracking a named operation and returns its marker.
// The caller completes it via CompleteOperation.
func (t *Tracker) StartOperation(operation string) *Marker {
	marker := &Marker{
		Operation: operation,
		StartTime: time.Now(),
		Success:   true,
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if len(t.markers) >= t.maxMarkers {
		t.evictOldestCompletedLocked()
	}
	id := fmt.Sprintf("%s_%d", operation, marker.StartTime.UnixNano())
	t.markers[id] = marker
	return marker
}

// CompleteOperation finishes a marker and evaluates it against thresholds.
func (t *Tracker) CompleteOperation(marker *Marker) {
	if marker == nil {
		return
	}
	marker.Complete()

	alerts := t.evaluateThresholds(marker)
	if len(alerts) == 0 {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.alerts = append(t.alerts, alerts...)
	if len(t.alerts) > t.maxAlerts {
		t.alerts = t.alerts[len(t.alerts)-t.maxAlerts:]
	}
}

// Track wraps fn with a marker, recording its duration and error.
func (t *Tracker) Track(operation string, fn func() error) error {
	marker := t.StartOperation(operation)
	err := fn()
	if err != nil {
		marker.SetError(err)
	}
	t.CompleteOperation(marker)
	return err
}

func (t *Tracker) evaluateThresholds(marker *Marker) []*Alert {
	t.mu.RLock()
	th := t.thresholds
	t.mu.RUnlock()

	var alerts []*Alert
	limit := th.limitFor(marker.Operation)

	if marker.Duration >= th.Critical {
		alerts = append(alerts, newAlert(AlertCritical, marker, th.Critical,
			fmt.Sprintf("%s took %v, critical limit is %v", marker.Operation, marker.Duration.Round(time.Millisecond), th.Critical)))
	} else if limit > 0 && marker.Duration >= limit {
		alerts = append(alerts, newAlert(AlertWarning, marker, limit,
			fmt.Sprintf("%s took %v, limit is %v", marker.Operation, marker.Duration.Round(time.Millisecond), limit)))
	}
	return alerts
}

func (th *Thresholds) limitFor(operation string) time.Duration {
	switch {
	case strings.HasPrefix(operation, "tick"):
		return th.SlowTick
	case strings.HasPrefix(operation, "fetch"):
		return th.SlowFetch
	case strings.HasPrefix(operation, "api"):
		return th.SlowRequest
	case strings.HasPrefix(operation, "snapshot"):
		return th.SlowSnapshot
	default:
		return th.SlowDefault
	}
}

func newAlert(severity AlertSeverity, marker *Marker, threshold time.Duration, message string) *Alert {
	return &Alert{
		ID:        fmt.Sprintf("%s_%d", marker.Operation, time.Now().UnixNano()),
		Timestamp: time.Now(),
		Severity:  severity,
		Operation: marker.Operation,
		Threshold: threshold,
		Actual:    marker.Duration,
		Message:   message,
	}
}

// RecentMarkers returns completed markers whose operation finished within
// the given window.
func (t *Tracker) RecentMarkers(within time.Duration) []Marker {
	cutoff := time.Now().Add(-within)

	t.mu.RLock()
	defer t.mu.RUnlock()

	var out []Marker
	for _, m := range t.markers {
		if m.Completed && m.EndTime.After(cutoff) {
			out = append(out, *m)
		}
	}
	return out
}

// ActiveOperations returns markers that have been started but not completed.
func (t *Tracker) ActiveOperations() []Marker {
	t.mu.RLock()
	defer t.mu.RUnlock()

	var out []Marker
	for _, m := range t.markers {
		if !m.Completed {
			out = append(out, *m)
		}
	}
	return out
}

// Alerts returns a copy of the retained alerts, newest last.
func (t *Tracker) Alerts() []*Alert {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]*Alert, len(t.alerts))
	copy(out, t.alerts)
	return out
}

// Health grades the last five minutes of completed operations. More than
// 10% critical outcomes is unhealthy; more than 5% critical or 20% slow
// is degraded.
func (t *Tracker) Health() HealthStatus {
	recent := t.RecentMarkers(5 * time.Minute)
	if len(recent) == 0 {
		return HealthUnknown
	}

	t.mu.RLock()
	th := t.thresholds
	t.mu.RUnlock()

	var critical, warning int
	for _, m := range recent {
		switch {
		case !m.Success || m.Duration >= th.Critical:
			critical++
		case m.Duration >= th.limitFor(m.Operation):
			warning++
		}
	}

	total := float64(len(recent))
	criticalRatio := float64(critical) / total
	warningRatio := float64(warning) / total

	switch {
	case criticalRatio > 0.1:
		return HealthUnhealthy
	case criticalRatio > 0.05 || warningRatio > 0.2:
		return HealthDegraded
	default:
		return HealthHealthy
	}
}

// Cleanup removes completed markers older than one hour.
func (t *Tracker) Cleanup() int {
	cutoff := time.Now().Add(-1 * time.Hour)

	t.mu.Lock()
	defer t.mu.Unlock()

	removed := 0
	for id, m := range t.markers {
		if m.Completed && m.EndTime.Before(cutoff) {
			delete(t.markers, id)
			removed++
		}
	}
	return removed
}

func (t *Tracker) evictOldestCompletedLocked() {
	var oldestID string
	var oldest time.Time
	for id, m := range t.markers {
		if !m.Completed {
			continue
		}
		if oldestID == "" || m.EndTime.Before(oldest) {
			oldestID = id
			oldest = m.EndTime
		}
	}
	if oldestID != "" {
		delete(t.markers, oldestID)
	}
}

// Stats summarizes tracker and process state for the status endpoint.
func (t *Tracker) Stats() map[string]interface{} {
	t.mu.RLock()
	totalMarkers := len(t.markers)
	active := 0
	for _, m := range t.markers {
		if !m.Completed {
			active++
		}
	}
	alertCount := len(t.alerts)
	started := t.started
	t.mu.RUnlock()

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	return map[string]interface{}{
		"health":           string(t.Health()),
		"trackedMarkers":   totalMarkers,
		"activeOperations": active,
		"retainedAlerts":   alertCount,
		"uptimeSeconds":    int64(time.Since(started).Seconds()),
		"memoryAllocMB":    mem.Alloc / 1024 / 1024,
		"goroutines":       runtime.NumGoroutine(),
	}
}
