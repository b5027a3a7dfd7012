// Package modes holds the content providers behind each display mode: what
// to fetch, how it is cached, and how a cached value becomes a frame.
package modes

import (
	"context"
	"fmt"

	"github.com/pixelcycle/pixelcycle-go/internal/domain/display"
	"github.com/pixelcycle/pixelcycle-go/internal/infrastructure/caching/types"
)

// Provider is the contract every display mode implements. A provider with an
// empty cache key renders locally and is never fetched (the clock).
type Provider interface {
	ModeID() string
	CacheKey() string
	Strategy() types.Strategy

	// Fetch retrieves the mode's current payload. The background fetch
	// service wraps it with timeout, retries, and backoff.
	Fetch(ctx context.Context) (any, error)

	// Decode rehydrates a snapshot payload into the provider's value type so
	// restored entries render and fingerprint exactly like fetched ones.
	Decode(raw []byte) (any, error)

	// RenderCurrent turns a cached value into a frame. A value the provider
	// cannot render returns display.ErrNoRenderable.
	RenderCurrent(value any) (*display.Frame, error)

	// ScrollText returns the text that scrolls across the panel for this
	// value. Empty means the mode shows fixed content.
	ScrollText(value any) string
}

// PartialProvider is implemented by providers that can produce an instant
// placeholder value while the full fetch runs.
type PartialProvider interface {
	Partial() (any, bool)
}

// IconCache resolves processed icon tiles by name. Satisfied by the media
// icon processor; nil disables icons.
type IconCache interface {
	Cached(name string) (string, bool)
}

// Registry holds the wired providers in registration order and resolves them
// by mode id or cache key.
type Registry struct {
	ordered []Provider
	byMode  map[string]Provider
	byKey   map[string]Provider
}

// NewRegistry builds a registry from providers. Later registrations with a
// duplicate mode id are rejected.
func NewRegistry(providers ...Provider) (*Registry, error) {
	r := &Registry{
		byMode: make(map[string]Provider, len(providers)),
		byKey:  make(map[string]Provider, len(providers)),
	}
	for _, p := range providers {
		if err := r.Register(p); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register adds a provider to the registry.
func (r *Registry) Register(p Provider) error {
	if p == nil {
		return fmt.Errorf("nil provider")
	}
	id := p.ModeID()
	if id == "" {
		return fmt.Errorf("provider has empty mode id")
	}
	if _, exists := r.byMode[id]; exists {
		return fmt.Errorf("duplicate provider for mode %s", id)
	}
	r.byMode[id] = p
	if key := p.CacheKey(); key != "" {
		r.byKey[key] = p
	}
	r.ordered = append(r.ordered, p)
	return nil
}

// ByMode resolves a provider by mode id.
func (r *Registry) ByMode(modeID string) (Provider, bool) {
	p, ok := r.byMode[modeID]
	return p, ok
}

// ByCacheKey resolves a provider by its cache key, used on snapshot restore.
func (r *Registry) ByCacheKey(key string) (Provider, bool) {
	p, ok := r.byKey[key]
	return p, ok
}

// All returns providers in registration order.
func (r *Registry) All() []Provider {
	out := make([]Provider, len(r.ordered))
	copy(out, r.ordered)
	return out
}

// ModeIDs returns the registered mode ids in registration order.
func (r *Registry) ModeIDs() []string {
	ids := make([]string, 0, len(r.ordered))
	for _, p := range r.ordered {
		ids = append(ids, p.ModeID())
	}
	return ids
}
