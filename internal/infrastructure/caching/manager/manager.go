// Package manager provides centralized cache operations behind a single facade
package manager

import (
	"encoding/json"
	"time"

	"github.com/pixelcycle/pixelcycle-go/internal/infrastructure/caching"
	"github.com/pixelcycle/pixelcycle-go/internal/infrastructure/caching/interfaces"
	"github.com/pixelcycle/pixelcycle-go/internal/infrastructure/caching/stores"
	"github.com/pixelcycle/pixelcycle-go/internal/infrastructure/caching/types"
	"github.com/pixelcycle/pixelcycle-go/internal/infrastructure/observability/logging"
)

// Interface assertions to ensure Manager implements all required interfaces.
var (
	_ interfaces.Cache         = (*Manager)(nil)
	_ interfaces.EntryCache    = (*Manager)(nil)
	_ interfaces.SnapshotCache = (*Manager)(nil)
)

// Manager is the single source of truth for "is this data fresh enough to use
// without a network call." It delegates storage to the entry store and owns
// TTL strategy resolution and content fingerprinting.
type Manager struct {
	store  *stores.EntryStore
	logger *logging.ChanneledLogger
}

// NewManager creates the cache manager with the given bounds.
func NewManager(softCap int, idleHorizon time.Duration, logger *logging.ChanneledLogger) *Manager {
	if logger != nil {
		logger.Cache().Info("Initializing cache manager", "softCap", softCap, "idleHorizon", idleHorizon)
	}

	return &Manager{
		store:  stores.NewEntryStore(softCap, idleHorizon, logger),
		logger: logger,
	}
}

// Get returns the entry for key, fresh or stale, recording the access.
func (m *Manager) Get(key string) (*types.CacheEntry, bool) {
	start := time.Now()
	entry, exists := m.store.Get(key)
	if m.logger != nil {
		m.logger.LogCacheOperation("get", key, exists, time.Since(start))
	}
	return entry, exists
}

// Put stores a value under key, stamping StoredAt, computing its content
// fingerprint, and resolving the TTL for the entry's strategy.
func (m *Manager) Put(key string, value any, strategy types.Strategy) {
	now := time.Now().UTC()
	entry := &types.CacheEntry{
		Key:         key,
		Value:       value,
		StoredAt:    now,
		TTL:         caching.ResolveTTL(key, strategy, now),
		Fingerprint: types.Fingerprint(value),
		Strategy:    strategy,
	}
	m.store.Set(entry)

	if m.logger != nil {
		m.logger.Cache().Debug("Cache entry stored",
			"key", key, "strategy", string(strategy), "ttl", entry.TTL)
	}
}

// Has reports whether key is present, fresh or stale, without recording
// an access.
func (m *Manager) Has(key string) bool {
	_, exists := m.store.Peek(key)
	return exists
}

// IsFresh reports whether key exists and is within its TTL.
func (m *Manager) IsFresh(key string) bool {
	entry, exists := m.store.Peek(key)
	if !exists {
		return false
	}
	return entry.IsFresh(time.Now().UTC())
}

// HasChanged compares the candidate's fingerprint against the stored entry.
// A missing entry counts as changed. TTL is never touched here; the answer
// only tells consumers whether a re-render is worth doing.
func (m *Manager) HasChanged(key string, candidate any) bool {
	entry, exists := m.store.Peek(key)
	if !exists {
		return true
	}
	return types.Fingerprint(candidate) != entry.Fingerprint
}

// Invalidate removes a single entry.
func (m *Manager) Invalidate(key string) {
	m.store.Delete(key)
	if m.logger != nil {
		m.logger.Cache().Info("Cache entry invalidated", "key", key)
	}
}

// InvalidateAll clears the store.
func (m *Manager) InvalidateAll() {
	m.store.Clear()
	if m.logger != nil {
		m.logger.Cache().Info("Cache cleared")
	}
}

// Keys returns all stored keys.
func (m *Manager) Keys() []string {
	return m.store.Keys()
}

// PurgeIdle drops entries with no access inside the idle horizon.
func (m *Manager) PurgeIdle() int {
	return m.store.PurgeIdle(time.Now().UTC())
}

// Export serializes every entry for the snapshot store.
func (m *Manager) Export() []types.ExportedEntry {
	snapshot := m.store.Snapshot()
	out := make([]types.ExportedEntry, 0, len(snapshot))

	for _, entry := range snapshot {
		payload, err := marshalValue(entry.Value)
		if err != nil {
			if m.logger != nil {
				m.logger.Cache().Warn("Skipping unserializable entry in export", "key", entry.Key, "error", err.Error())
			}
			continue
		}
		out = append(out, types.ExportedEntry{
			Key:         entry.Key,
			Payload:     payload,
			Fingerprint: entry.Fingerprint,
			Strategy:    entry.Strategy,
			StoredAt:    entry.StoredAt,
			TTLSeconds:  int64(entry.TTL / time.Second),
		})
	}
	return out
}

// Restore rebuilds entries from snapshot records. Original StoredAt and TTL
// are preserved, so restored entries that were stale render immediately as
// last-known-good while their refreshes are queued. Records that fail to
// decode are skipped.
func (m *Manager) Restore(records []types.ExportedEntry, decode func(key string, raw []byte) (any, error)) int {
	var restored int
	for _, record := range records {
		value, err := decode(record.Key, record.Payload)
		if err != nil {
			if m.logger != nil {
				m.logger.Cache().Warn("Skipping undecodable snapshot record", "key", record.Key, "error", err.Error())
			}
			continue
		}

		m.store.Set(&types.CacheEntry{
			Key:         record.Key,
			Value:       value,
			StoredAt:    record.StoredAt,
			TTL:         time.Duration(record.TTLSeconds) * time.Second,
			Fingerprint: record.Fingerprint,
			Strategy:    record.Strategy,
		})
		restored++
	}

	if m.logger != nil {
		m.logger.Cache().Info("Cache restored from snapshot", "restored", restored, "records", len(records))
	}
	return restored
}

// Stats returns lifetime cache counters.
func (m *Manager) Stats() interfaces.CacheStats {
	hits, misses, evictions := m.store.Counters()
	return interfaces.CacheStats{
		Hits:      hits,
		Misses:    misses,
		Evictions: evictions,
		Entries:   m.store.Len(),
	}
}

func marshalValue(value any) ([]byte, error) {
	return json.Marshal(value)
}

// Health reports cache status for the health endpoint.
func (m *Manager) Health() map[string]any {
	stats := m.Stats()
	return map[string]any{
		"status":    "healthy",
		"entries":   stats.Entries,
		"hits":      stats.Hits,
		"misses":    stats.Misses,
		"evictions": stats.Evictions,
	}
}
