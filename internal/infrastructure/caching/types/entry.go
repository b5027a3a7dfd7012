// Package types defines cache entry data structures
package types

import (
	"encoding/json"
	"fmt"
	"hash/fnv"
	"time"
)

// Strategy selects how a cache entry's TTL is resolved on put.
type Strategy string

const (
	StrategyFixedTTL          Strategy = "fixedTTL"
	StrategyMarketAware       Strategy = "marketAware"
	StrategySportLiveInterval Strategy = "sportLiveInterval"
)

// CacheEntry is one cached payload with freshness and change-detection metadata.
type CacheEntry struct {
	Key         string        `json:"key"`
	Value       any           `json:"value"`
	StoredAt    time.Time     `json:"storedAt"`
	TTL         time.Duration `json:"ttl"`
	Fingerprint string        `json:"fingerprint"`
	Strategy    Strategy      `json:"strategy"`
	LastAccess  time.Time     `json:"lastAccess"`
}

// IsFresh reports whether the entry is still within its TTL at the given instant.
func (e *CacheEntry) IsFresh(now time.Time) bool {
	return now.Sub(e.StoredAt) < e.TTL
}

// ExportedEntry is the portable form of a cache entry used by the snapshot store.
type ExportedEntry struct {
	Key         string    `json:"key"`
	Payload     []byte    `json:"payload"`
	Fingerprint string    `json:"fingerprint"`
	Strategy    Strategy  `json:"strategy"`
	StoredAt    time.Time `json:"storedAt"`
	TTLSeconds  int64     `json:"ttlSeconds"`
}

// Fingerprinter lets a payload expose only its semantically relevant fields
// for change detection, excluding volatile ones like fetch timestamps.
type Fingerprinter interface {
	FingerprintFields() any
}

// Fingerprint computes a stable content hash for a cached value. Values
// implementing Fingerprinter are hashed over their declared fields only.
func Fingerprint(value any) string {
	subject := value
	if fp, ok := value.(Fingerprinter); ok {
		subject = fp.FingerprintFields()
	}

	data, err := json.Marshal(subject)
	if err != nil {
		data = []byte(fmt.Sprintf("%v", subject))
	}

	h := fnv.New64a()
	h.Write(data)
	return fmt.Sprintf("%016x", h.Sum64())
}
