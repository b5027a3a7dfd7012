// Package stores provides the synchronized entry storage behind the cache manager.
package stores

import (
	"sync"
	"time"

	"github.com/pixelcycle/pixelcycle-go/internal/infrastructure/caching/types"
	"github.com/pixelcycle/pixelcycle-go/internal/infrastructure/observability/logging"
)

// EntryStore holds all cache entries behind a single lock. The render loop
// reads, fetch workers write.
type EntryStore struct {
	mu          sync.RWMutex
	entries     map[string]*types.CacheEntry
	softCap     int
	idleHorizon time.Duration
	hits        int64
	misses      int64
	evictions   int64
	logger      *logging.ChanneledLogger
}

// NewEntryStore creates an entry store bounded by softCap entries.
func NewEntryStore(softCap int, idleHorizon time.Duration, logger *logging.ChanneledLogger) *EntryStore {
	return &EntryStore{
		entries:     make(map[string]*types.CacheEntry),
		softCap:     softCap,
		idleHorizon: idleHorizon,
		logger:      logger,
	}
}

// Get returns the entry for key, recording access time and hit/miss counters.
// Stale entries are still returned; freshness is the caller's question to ask.
func (s *EntryStore) Get(key string) (*types.CacheEntry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, exists := s.entries[key]
	if !exists {
		s.misses++
		return nil, false
	}

	entry.LastAccess = time.Now().UTC()
	s.hits++
	return entry, true
}

// Peek returns the entry without touching access time or counters.
func (s *EntryStore) Peek(key string) (*types.CacheEntry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, exists := s.entries[key]
	return entry, exists
}

// Set inserts or overwrites an entry, then enforces the soft cap by evicting
// the least recently accessed entries.
func (s *EntryStore) Set(entry *types.CacheEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry.LastAccess = time.Now().UTC()
	s.entries[entry.Key] = entry

	for s.softCap > 0 && len(s.entries) > s.softCap {
		s.evictOldestLocked()
	}
}

func (s *EntryStore) evictOldestLocked() {
	var oldestKey string
	var oldestAccess time.Time

	for key, entry := range s.entries {
		if oldestKey == "" || entry.LastAccess.Before(oldestAccess) {
			oldestKey = key
			oldestAccess = entry.LastAccess
		}
	}

	if oldestKey == "" {
		return
	}

	delete(s.entries, oldestKey)
	s.evictions++
	if s.logger != nil {
		s.logger.Cache().Debug("Evicted cache entry over soft cap", "key", oldestKey, "lastAccess", oldestAccess)
	}
}

// Delete removes a single entry.
func (s *EntryStore) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
}

// Clear removes every entry.
func (s *EntryStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make(map[string]*types.CacheEntry)
}

// Keys returns all entry keys.
func (s *EntryStore) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0, len(s.entries))
	for key := range s.entries {
		keys = append(keys, key)
	}
	return keys
}

// Len returns the number of stored entries.
func (s *EntryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Snapshot returns copies of all entries for export and reporting.
func (s *EntryStore) Snapshot() []types.CacheEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]types.CacheEntry, 0, len(s.entries))
	for _, entry := range s.entries {
		out = append(out, *entry)
	}
	return out
}

// PurgeIdle removes entries with no access inside the idle horizon. Stale
// entries that are still being rendered keep a recent access time and survive,
// preserving last-known-good behavior.
func (s *EntryStore) PurgeIdle(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	var purged int
	for key, entry := range s.entries {
		if now.Sub(entry.LastAccess) > s.idleHorizon {
			delete(s.entries, key)
			purged++
		}
	}

	if purged > 0 {
		s.evictions += int64(purged)
		if s.logger != nil {
			s.logger.Cache().Info("Purged idle cache entries", "count", purged, "horizon", s.idleHorizon)
		}
	}
	return purged
}

// Counters returns the lifetime hit/miss/eviction totals.
func (s *EntryStore) Counters() (hits, misses, evictions int64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.hits, s.misses, s.evictions
}
