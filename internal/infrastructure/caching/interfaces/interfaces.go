// Package interfaces defines cache operation contracts for display data.
package interfaces

import (
	"github.com/pixelcycle/pixelcycle-go/internal/infrastructure/caching/types"
)

// EntryCache defines read/write operations on cached display payloads
type EntryCache interface {
	Get(key string) (*types.CacheEntry, bool)
	Put(key string, value any, strategy types.Strategy)
	Has(key string) bool
	IsFresh(key string) bool
	HasChanged(key string, candidate any) bool
	Invalidate(key string)
	InvalidateAll()
	Keys() []string
}

// SnapshotCache defines export/restore operations for disk persistence
type SnapshotCache interface {
	Export() []types.ExportedEntry
	Restore(records []types.ExportedEntry, decode func(key string, raw []byte) (any, error)) int
}

// Cache is the main interface that combines all cache operations
type Cache interface {
	EntryCache
	SnapshotCache
	PurgeIdle() int
	Stats() CacheStats
	Health() map[string]any
}

type CacheStats struct {
	Hits      int64 `json:"hits"`
	Misses    int64 `json:"misses"`
	Evictions int64 `json:"evictions"`
	Entries   int   `json:"entries"`
}
