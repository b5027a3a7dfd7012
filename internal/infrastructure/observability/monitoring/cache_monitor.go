// Package monitoring provides cache and rotation health tracking for the
// display pipeline, with periodic sampling and threshold alerting.
package monitoring

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/pixelcycle/pixelcycle-go/internal/infrastructure/caching/interfaces"
)

// CacheHealthStatus classifies cache performance.
type CacheHealthStatus string

const (
	CacheHealthy   CacheHealthStatus = "healthy"
	CacheDegraded  CacheHealthStatus = "degraded"
	CacheUnhealthy CacheHealthStatus = "unhealthy"
	CacheUnknown   CacheHealthStatus = "unknown"
)

// AlertSeverity represents the severity level of a monitoring alert.
type AlertSeverity string

const (
	SeverityWarning  AlertSeverity = "warning"
	SeverityCritical AlertSeverity = "critical"
)

// CacheAlertCategory represents the type of cache alert.
type CacheAlertCategory string

const (
	CacheAlertHitRatio CacheAlertCategory = "hit_ratio"
	CacheAlertEviction CacheAlertCategory = "eviction"
)

// CacheAlert represents a cache performance alert.
type CacheAlert struct {
	ID           string             `json:"id"`
	Timestamp    time.Time          `json:"timestamp"`
	Severity     AlertSeverity      `json:"severity"`
	Category     CacheAlertCategory `json:"category"`
	Message      string             `json:"message"`
	CurrentValue float64            `json:"currentValue"`
	Threshold    float64            `json:"threshold"`
}

// CacheAlertCallback is called when cache alerts are generated.
type CacheAlertCallback func(alert *CacheAlert)

// CacheMonitorConfig contains configuration for the cache monitor.
type CacheMonitorConfig struct {
	SampleInterval time.Duration `json:"sampleInterval"` // How often to sample cache counters
	WindowSize     int           `json:"windowSize"`     // Samples retained for recent-rate math

	MinHealthyHitRatio  float64 `json:"minHealthyHitRatio"`
	MinDegradedHitRatio float64 `json:"minDegradedHitRatio"`
	MaxEvictionRate     float64 `json:"maxEvictionRate"` // Evictions per minute

	AlertCooldown time.Duration `json:"alertCooldown"`
}

// DefaultCacheMonitorConfig returns sensible defaults.
func DefaultCacheMonitorConfig() *CacheMonitorConfig {
	return &CacheMonitorConfig{
		SampleInterval:      30 * time.Second,
		WindowSize:          20,
		MinHealthyHitRatio:  0.85,
		MinDegradedHitRatio: 0.70,
		MaxEvictionRate:     10.0,
		AlertCooldown:       5 * time.Minute,
	}
}

type cacheSample struct {
	at    time.Time
	stats interfaces.CacheStats
}

// CachePerformanceMonitor samples the cache manager's lifetime counters and
// derives recent hit ratios, request rates, and eviction rates from the
// deltas between samples.
type CachePerformanceMonitor struct {
	source    func() interfaces.CacheStats
	samples   []cacheSample
	health    CacheHealthStatus
	config    *CacheMonitorConfig
	callbacks []CacheAlertCallback
	lastAlert map[CacheAlertCategory]time.Time
	started   time.Time
	mu        sync.RWMutex
}

// NewCachePerformanceMonitor creates a monitor reading counters from source.
func NewCachePerformanceMonitor(source func() interfaces.CacheStats, config *CacheMonitorConfig) *CachePerformanceMonitor {
	if config == nil {
		config = DefaultCacheMonitorConfig()
	}

	return &CachePerformanceMonitor{
		source:    source,
		samples:   make([]cacheSample, 0, config.WindowSize),
		health:    CacheUnknown,
		config:    config,
		lastAlert: make(map[CacheAlertCategory]time.Time),
		started:   time.Now(),
	}
}

// AddAlertCallback registers a callback invoked on threshold violations.
func (cpm *CachePerformanceMonitor) AddAlertCallback(callback CacheAlertCallback) {
	cpm.mu.Lock()
	defer cpm.mu.Unlock()
	cpm.callbacks = append(cpm.callbacks, callback)
}

// Start samples on the configured interval until the context is canceled.
func (cpm *CachePerformanceMonitor) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(cpm.config.SampleInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				cpm.Sample(time.Now())
			}
		}
	}()
}

// Sample records one reading of the cache counters, reclassifies health,
// and fires alerts for sustained threshold violations.
func (cpm *CachePerformanceMonitor) Sample(now time.Time) {
	stats := cpm.source()

	cpm.mu.Lock()
	cpm.samples = append(cpm.samples, cacheSample{at: now, stats: stats})
	if len(cpm.samples) > cpm.config.WindowSize {
		cpm.samples = cpm.samples[len(cpm.samples)-cpm.config.WindowSize:]
	}

	hitRatio, evictionRate, requests := cpm.windowLocked()
	health := cpm.classifyLocked(hitRatio, evictionRate, requests)
	cpm.health = health

	var alerts []*CacheAlert
	if requests > 0 {
		if hitRatio < cpm.config.MinDegradedHitRatio {
			alerts = append(alerts, cpm.alertLocked(now, SeverityCritical, CacheAlertHitRatio,
				fmt.Sprintf("cache hit ratio %.0f%% over the recent window", hitRatio*100),
				hitRatio, cpm.config.MinDegradedHitRatio))
		} else if hitRatio < cpm.config.MinHealthyHitRatio {
			alerts = append(alerts, cpm.alertLocked(now, SeverityWarning, CacheAlertHitRatio,
				fmt.Sprintf("cache hit ratio %.0f%% over the recent window", hitRatio*100),
				hitRatio, cpm.config.MinHealthyHitRatio))
		}
	}
	if evictionRate > cpm.config.MaxEvictionRate {
		alerts = append(alerts, cpm.alertLocked(now, SeverityWarning, CacheAlertEviction,
			fmt.Sprintf("cache evicting %.1f entries/min, soft cap may be too small", evictionRate),
			evictionRate, cpm.config.MaxEvictionRate))
	}
	callbacks := cpm.callbacks
	cpm.mu.Unlock()

	for _, alert := range alerts {
		if alert == nil {
			continue
		}
		for _, cb := range callbacks {
			cb(alert)
		}
	}
}

// windowLocked derives recent rates from the oldest and newest samples.
func (cpm *CachePerformanceMonitor) windowLocked() (hitRatio, evictionRate float64, requests int64) {
	if len(cpm.samples) < 2 {
		return 0, 0, 0
	}
	first := cpm.samples[0]
	last := cpm.samples[len(cpm.samples)-1]

	deltaHits := last.stats.Hits - first.stats.Hits
	deltaMisses := last.stats.Misses - first.stats.Misses
	deltaEvictions := last.stats.Evictions - first.stats.Evictions
	requests = deltaHits + deltaMisses

	if requests > 0 {
		hitRatio = float64(deltaHits) / float64(requests)
	}
	if elapsed := last.at.Sub(first.at).Minutes(); elapsed > 0 {
		evictionRate = float64(deltaEvictions) / elapsed
	}
	return hitRatio, evictionRate, requests
}

func (cpm *CachePerformanceMonitor) classifyLocked(hitRatio, evictionRate float64, requests int64) CacheHealthStatus {
	if len(cpm.samples) < 2 {
		return CacheUnknown
	}
	// A quiet cache is not a sick cache.
	if requests == 0 {
		if evictionRate > cpm.config.MaxEvictionRate {
			return CacheDegraded
		}
		return CacheHealthy
	}
	switch {
	case hitRatio < cpm.config.MinDegradedHitRatio:
		return CacheUnhealthy
	case hitRatio < cpm.config.MinHealthyHitRatio || evictionRate > cpm.config.MaxEvictionRate:
		return CacheDegraded
	default:
		return CacheHealthy
	}
}

// alertLocked builds an alert unless the category is still cooling down.
func (cpm *CachePerformanceMonitor) alertLocked(now time.Time, severity AlertSeverity, category CacheAlertCategory, message string, current, threshold float64) *CacheAlert {
	if last, ok := cpm.lastAlert[category]; ok && now.Sub(last) < cpm.config.AlertCooldown {
		return nil
	}
	cpm.lastAlert[category] = now

	return &CacheAlert{
		ID:           fmt.Sprintf("%s_%d", category, now.UnixNano()),
		Timestamp:    now,
		Severity:     severity,
		Category:     category,
		Message:      message,
		CurrentValue: current,
		Threshold:    threshold,
	}
}

// Health returns the current classification.
func (cpm *CachePerformanceMonitor) Health() CacheHealthStatus {
	cpm.mu.RLock()
	defer cpm.mu.RUnlock()
	return cpm.health
}

// Report summarizes lifetime counters and recent rates for the stats API.
func (cpm *CachePerformanceMonitor) Report() map[string]any {
	stats := cpm.source()

	cpm.mu.RLock()
	hitRatio, evictionRate, requests := cpm.windowLocked()
	health := cpm.health
	samples := len(cpm.samples)
	cpm.mu.RUnlock()

	var lifetimeRatio float64
	if total := stats.Hits + stats.Misses; total > 0 {
		lifetimeRatio = float64(stats.Hits) / float64(total)
	}

	return map[string]any{
		"health":              string(health),
		"entries":             stats.Entries,
		"hits":                stats.Hits,
		"misses":              stats.Misses,
		"evictions":           stats.Evictions,
		"hitRatio":            lifetimeRatio,
		"recentHitRatio":      hitRatio,
		"recentRequests":      requests,
		"recentEvictionsPerM": evictionRate,
		"samples":             samples,
		"monitoredSince":      cpm.started.UTC(),
	}
}
