// Package performance tracks operation timings for the render loop, feed
// fetches, and the admin API, with threshold-based health reporting.
package performance

import (
	"time"
)

// Marker represents a single timed operation.
type Marker struct {
	Operation string        `json:"operation"` // e.g. "tick:render", "fetch:weather:current"
	StartTime time.Time     `json:"startTime"`
	EndTime   time.Time     `json:"endTime"`
	Duration  time.Duration `json:"duration"`
	Success   bool          `json:"success"`
	Error     string        `json:"error,omitempty"`
	Completed bool          `json:"completed"`
}

// Complete marks the operation as finished and fixes its duration.
func (m *Marker) Complete() {
	if m.Completed {
		return
	}
	m.EndTime = time.Now()
	m.Duration = m.EndTime.Sub(m.StartTime)
	m.Completed = true
}

// SetError records an error message and marks the operation as failed.
func (m *Marker) SetError(err error) {
	if err != nil {
		m.Error = err.Error()
		m.Success = false
	}
}

// HealthStatus represents the overall health of the render pipeline.
type HealthStatus string

const (
	HealthHealthy   HealthStatus = "healthy"
	HealthDegraded  HealthStatus = "degraded"
	HealthUnhealthy HealthStatus = "unhealthy"
	HealthUnknown   HealthStatus = "unknown"
)

// Alert represents a performance threshold violation.
type Alert struct {
	ID        string        `json:"id"`
	Timestamp time.Time     `json:"timestamp"`
	Severity  AlertSeverity `json:"severity"`
	Operation string        `json:"operation"`
	Threshold time.Duration `json:"threshold"`
	Actual    time.Duration `json:"actual"`
	Message   string        `json:"message"`
}

// AlertSeverity represents the severity level of a performance alert.
type AlertSeverity string

const (
	AlertWarning  AlertSeverity = "warning"
	AlertCritical AlertSeverity = "critical"
)
