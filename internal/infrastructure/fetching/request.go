package fetching

import (
	"context"
	"errors"
	"time"

	"github.com/pixelcycle/pixelcycle-go/internal/infrastructure/caching/types"
)

var (
	// ErrQueueSaturated is returned synchronously by Submit when the
	// bounded queue cannot accept another request.
	ErrQueueSaturated = errors.New("fetch queue saturated")

	// ErrRetriesExhausted wraps the last attempt error once a request
	// has used its full retry budget.
	ErrRetriesExhausted = errors.New("fetch retries exhausted")

	// ErrInvalidRequest is returned by Submit for requests missing a
	// cache key or an Execute function.
	ErrInvalidRequest = errors.New("invalid fetch request")
)

// FetchRequest describes one unit of background work: fetch fresh data for
// a cache key and store the decoded result.
type FetchRequest struct {
	// ID identifies the request in logs. Submit assigns a ULID when empty.
	ID string

	// CacheKey is the cache entry this fetch refreshes. Submitting a key
	// that is already in flight joins the existing fetch.
	CacheKey string

	// Priority orders this request's deferred submission when a mid-scroll
	// refresh is handed to the update coordinator. The fetch queue itself
	// is FIFO. Lower values apply first.
	Priority int

	// Strategy selects how the cached result's TTL is resolved.
	Strategy types.Strategy

	// Execute performs the fetch. It must honor ctx cancellation.
	Execute func(ctx context.Context) (any, error)

	// Partial optionally supplies immediately renderable data that is
	// cached until Execute's complete result replaces it. It is consulted
	// only when the key has no cached entry at submission time.
	Partial func() (any, bool)

	// MaxRetries is the number of retries after the first attempt.
	// Zero uses the configured default; negative disables retries.
	MaxRetries int

	// BackoffBase is the delay before the first retry. Each further retry
	// doubles it, up to the configured cap. Zero uses the configured
	// default.
	BackoffBase time.Duration
}

// FetchResult is the terminal outcome of a fetch request.
type FetchResult struct {
	ID       string
	CacheKey string
	Success  bool
	Value    any
	Err      error
	Attempts int
	Elapsed  time.Duration
}

// Handle tracks an in-flight fetch. All submitters of the same cache key
// share one handle.
type Handle struct {
	ID       string
	CacheKey string

	done   chan struct{}
	result FetchResult
}

func newHandle(id, cacheKey string) *Handle {
	return &Handle{
		ID:       id,
		CacheKey: cacheKey,
		done:     make(chan struct{}),
	}
}

// complete records the result and wakes every waiter. The cached value is
// already stored by the time waiters observe the closed channel.
func (h *Handle) complete(res FetchResult) {
	h.result = res
	close(h.done)
}

// Done returns a channel that is closed when the fetch has finished.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// Result returns the fetch outcome. ok is false while the fetch is still
// running.
func (h *Handle) Result() (FetchResult, bool) {
	select {
	case <-h.done:
		return h.result, true
	default:
		return FetchResult{}, false
	}
}

// Wait blocks until the fetch finishes or ctx is done.
func (h *Handle) Wait(ctx context.Context) (FetchResult, error) {
	select {
	case <-h.done:
		return h.result, nil
	case <-ctx.Done():
		return FetchResult{}, ctx.Err()
	}
}
