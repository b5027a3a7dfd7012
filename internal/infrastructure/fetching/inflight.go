// Package fetching runs background data fetches on a bounded worker pool.
package fetching

import "sync"

// InflightLock prevents duplicate background fetches by ensuring only one
// fetch runs for a given cache key at a time.
type InflightLock struct {
	mu    sync.Mutex
	locks map[string]struct{}
}

// NewInflightLock creates a new instance of an InflightLock.
func NewInflightLock() *InflightLock {
	return &InflightLock{
		locks: make(map[string]struct{}),
	}
}

// TryLock attempts to claim a key. It returns true if the claim was
// acquired, and false if another fetch already holds it.
// This operation is non-blocking.
func (l *InflightLock) TryLock(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, exists := l.locks[key]; exists {
		return false
	}

	l.locks[key] = struct{}{}
	return true
}

// Unlock releases the claim for a given key.
// This should be called by the worker that finished the fetch.
func (l *InflightLock) Unlock(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	delete(l.locks, key)
}

// Held reports whether a key is currently claimed.
func (l *InflightLock) Held(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	_, exists := l.locks[key]
	return exists
}

// Len reports the number of claimed keys.
func (l *InflightLock) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	return len(l.locks)
}
