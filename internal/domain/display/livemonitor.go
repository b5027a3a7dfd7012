package display

import (
	"sort"
	"sync"
	"time"
)

// LiveSignal reports an active, time-critical event for one mode.
type LiveSignal struct {
	HasLiveEvent bool      `json:"hasLiveEvent"`
	SourceModeID string    `json:"sourceModeId,omitempty"`
	DetectedAt   time.Time `json:"detectedAt,omitempty"`
}

// LiveMonitor tracks which live-category modes currently report an active
// event. Providers update it after each scoreboard refresh; the scheduler
// reads it every tick.
type LiveMonitor struct {
	mu     sync.RWMutex
	active map[string]time.Time
}

// NewLiveMonitor creates an empty live monitor.
func NewLiveMonitor() *LiveMonitor {
	return &LiveMonitor{
		active: make(map[string]time.Time),
	}
}

// SetLive marks a mode as having an active live event. The detection time
// of an already-live mode is preserved.
func (m *LiveMonitor) SetLive(modeID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.active[modeID]; !exists {
		m.active[modeID] = time.Now().UTC()
	}
}

// ClearLive marks a mode's live event as ended.
func (m *LiveMonitor) ClearLive(modeID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.active, modeID)
}

// IsLive reports whether a mode currently has a live event.
func (m *LiveMonitor) IsLive(modeID string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, exists := m.active[modeID]
	return exists
}

// Detected returns when a mode's live event was first seen.
func (m *LiveMonitor) Detected(modeID string) (time.Time, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	detected, exists := m.active[modeID]
	return detected, exists
}

// ActiveModes returns the ids of all modes reporting live events, sorted.
func (m *LiveMonitor) ActiveModes() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := make([]string, 0, len(m.active))
	for id := range m.active {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Signal summarizes the monitor state for one mode.
func (m *LiveMonitor) Signal(modeID string) LiveSignal {
	m.mu.RLock()
	defer m.mu.RUnlock()

	detected, exists := m.active[modeID]
	if !exists {
		return LiveSignal{}
	}
	return LiveSignal{
		HasLiveEvent: true,
		SourceModeID: modeID,
		DetectedAt:   detected,
	}
}
