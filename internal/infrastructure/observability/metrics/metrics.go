// Package metrics exposes Prometheus counters and gauges for the
// orchestration core.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds Prometheus counters and gauges for the display orchestrator.
type Metrics struct {
	registry *prometheus.Registry

	rotationsTotal   prometheus.Counter
	preemptionsTotal prometheus.Counter
	overridesTotal   prometheus.Counter
	modeFailures     prometheus.Counter

	fetchAttemptsTotal  prometheus.Counter
	fetchRetriesTotal   prometheus.Counter
	fetchExhaustedTotal prometheus.Counter
	fetchRejectedTotal  prometheus.Counter

	cacheHitsTotal      prometheus.Counter
	cacheMissesTotal    prometheus.Counter
	cacheEvictionsTotal prometheus.Counter

	deferredEnqueuedTotal prometheus.Counter
	deferredAppliedTotal  prometheus.Counter

	fetchQueueDepth  prometheus.Gauge
	fetchInflight    prometheus.Gauge
	cacheEntries     prometheus.Gauge
	scrollingRegions prometheus.Gauge
}

// New creates and registers Prometheus metrics for the orchestrator.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		rotationsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pixelcycle_rotations_total",
			Help: "Total number of mode rotations",
		}),
		preemptionsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pixelcycle_live_preemptions_total",
			Help: "Total number of live-event preemptions",
		}),
		overridesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pixelcycle_overrides_total",
			Help: "Total number of on-demand override requests honored",
		}),
		modeFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pixelcycle_mode_failures_total",
			Help: "Total number of modes skipped for failing to render",
		}),
		fetchAttemptsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pixelcycle_fetch_attempts_total",
			Help: "Total number of background fetch attempts",
		}),
		fetchRetriesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pixelcycle_fetch_retries_total",
			Help: "Total number of fetch retries after failed attempts",
		}),
		fetchExhaustedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pixelcycle_fetch_exhausted_total",
			Help: "Total number of fetches that exhausted their retries",
		}),
		fetchRejectedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pixelcycle_fetch_rejected_total",
			Help: "Total number of fetch submissions rejected by a full queue",
		}),
		cacheHitsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pixelcycle_cache_hits_total",
			Help: "Total number of cache hits",
		}),
		cacheMissesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pixelcycle_cache_misses_total",
			Help: "Total number of cache misses",
		}),
		cacheEvictionsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pixelcycle_cache_evictions_total",
			Help: "Total number of cache entries evicted or purged",
		}),
		deferredEnqueuedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pixelcycle_deferred_updates_enqueued_total",
			Help: "Total number of updates deferred while a region was scrolling",
		}),
		deferredAppliedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pixelcycle_deferred_updates_applied_total",
			Help: "Total number of deferred updates applied at safe points",
		}),
		fetchQueueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "pixelcycle_fetch_queue_depth",
			Help: "Number of fetch requests waiting in the queue",
		}),
		fetchInflight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "pixelcycle_fetch_inflight",
			Help: "Number of cache keys with a fetch queued or executing",
		}),
		cacheEntries: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "pixelcycle_cache_entries",
			Help: "Number of entries currently cached",
		}),
		scrollingRegions: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "pixelcycle_scrolling_regions",
			Help: "Number of regions currently reporting active scroll",
		}),
	}

	registry.MustRegister(
		m.rotationsTotal,
		m.preemptionsTotal,
		m.overridesTotal,
		m.modeFailures,
		m.fetchAttemptsTotal,
		m.fetchRetriesTotal,
		m.fetchExhaustedTotal,
		m.fetchRejectedTotal,
		m.cacheHitsTotal,
		m.cacheMissesTotal,
		m.cacheEvictionsTotal,
		m.deferredEnqueuedTotal,
		m.deferredAppliedTotal,
		m.fetchQueueDepth,
		m.fetchInflight,
		m.cacheEntries,
		m.scrollingRegions,
	)

	return m
}

// IncRotations increments the rotation counter.
func (m *Metrics) IncRotations() { m.rotationsTotal.Inc() }

// IncPreemptions increments the live preemption counter.
func (m *Metrics) IncPreemptions() { m.preemptionsTotal.Inc() }

// IncOverrides increments the override counter.
func (m *Metrics) IncOverrides() { m.overridesTotal.Inc() }

// IncModeFailures increments the skipped-mode counter.
func (m *Metrics) IncModeFailures() { m.modeFailures.Inc() }

// IncFetchAttempts increments the fetch attempt counter.
func (m *Metrics) IncFetchAttempts() { m.fetchAttemptsTotal.Inc() }

// IncFetchRetries increments the fetch retry counter.
func (m *Metrics) IncFetchRetries() { m.fetchRetriesTotal.Inc() }

// IncFetchExhausted increments the exhausted fetch counter.
func (m *Metrics) IncFetchExhausted() { m.fetchExhaustedTotal.Inc() }

// IncFetchRejected increments the saturated-queue rejection counter.
func (m *Metrics) IncFetchRejected() { m.fetchRejectedTotal.Inc() }

// IncCacheHits increments the cache hit counter.
func (m *Metrics) IncCacheHits() { m.cacheHitsTotal.Inc() }

// IncCacheMisses increments the cache miss counter.
func (m *Metrics) IncCacheMisses() { m.cacheMissesTotal.Inc() }

// IncCacheEvictions increments the eviction counter.
func (m *Metrics) IncCacheEvictions() { m.cacheEvictionsTotal.Inc() }

// IncDeferredEnqueued increments the deferred update counter.
func (m *Metrics) IncDeferredEnqueued() { m.deferredEnqueuedTotal.Inc() }

// IncDeferredApplied increments the applied deferred update counter.
func (m *Metrics) IncDeferredApplied() { m.deferredAppliedTotal.Inc() }

// SetFetchQueueDepth sets the queue depth gauge.
func (m *Metrics) SetFetchQueueDepth(n int) { m.fetchQueueDepth.Set(float64(n)) }

// SetFetchInflight sets the in-flight fetch gauge.
func (m *Metrics) SetFetchInflight(n int) { m.fetchInflight.Set(float64(n)) }

// SetCacheEntries sets the cached entry gauge.
func (m *Metrics) SetCacheEntries(n int) { m.cacheEntries.Set(float64(n)) }

// SetScrollingRegions sets the actively scrolling region gauge.
func (m *Metrics) SetScrollingRegions(n int) { m.scrollingRegions.Set(float64(n)) }

// Handler returns an http.Handler that serves Prometheus metrics.
// updateGauges is called before each scrape to refresh gauge values.
func (m *Metrics) Handler(updateGauges func()) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if updateGauges != nil {
			updateGauges()
		}
		promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}).ServeHTTP(w, r)
	})
}
