package services

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/pixelcycle/pixelcycle-go/internal/domain/modes"
	"github.com/pixelcycle/pixelcycle-go/internal/infrastructure/caching/manager"
	"github.com/pixelcycle/pixelcycle-go/internal/infrastructure/caching/types"
	"github.com/pixelcycle/pixelcycle-go/internal/infrastructure/persistence"
)

// snapshotProvider round-trips string payloads the way real providers do:
// exported values are JSON, so Decode unmarshals rather than casting.
type snapshotProvider struct {
	*stubProvider
}

func (p snapshotProvider) Decode(raw []byte) (any, error) {
	var v string
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, err
	}
	return v, nil
}

func newSnapshotFixture(t *testing.T, providers ...modes.Provider) (*SnapshotService, *manager.Manager, *persistence.Store) {
	t.Helper()

	store, err := persistence.Open("sqlite3", filepath.Join(t.TempDir(), "snapshot.db"), nil)
	if err != nil {
		t.Fatalf("persistence.Open: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	registry, err := modes.NewRegistry(providers...)
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}

	cache := manager.NewManager(32, time.Hour, nil)
	return NewSnapshotService(store, cache, registry, silentLogger(t)), cache, store
}

func TestSnapshotRoundTripRestoresTypedValues(t *testing.T) {
	weather := snapshotProvider{newStubProvider("weather", "weather:current")}
	svc, cache, store := newSnapshotFixture(t, weather)
	ctx := context.Background()

	cache.Put("weather:current", "sunny 21C", types.StrategyFixedTTL)
	if err := svc.SaveNow(ctx); err != nil {
		t.Fatalf("SaveNow: %v", err)
	}

	// A second cache simulates the post-restart process sharing the store.
	restartCache := manager.NewManager(32, time.Hour, nil)
	registry, err := modes.NewRegistry(weather)
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	restarted := NewSnapshotService(store, restartCache, registry, silentLogger(t))

	if restored := restarted.Restore(ctx); restored != 1 {
		t.Fatalf("restored = %d, want 1", restored)
	}

	entry, found := restartCache.Get("weather:current")
	if !found {
		t.Fatal("weather:current missing after restore")
	}
	if value, ok := entry.Value.(string); !ok || value != "sunny 21C" {
		t.Errorf("restored value = %#v, want \"sunny 21C\"", entry.Value)
	}
	if entry.Strategy != types.StrategyFixedTTL {
		t.Errorf("restored strategy = %q, want %q", entry.Strategy, types.StrategyFixedTTL)
	}
}

func TestRestoreSkipsKeysWithoutProvider(t *testing.T) {
	weather := snapshotProvider{newStubProvider("weather", "weather:current")}
	svc, cache, _ := newSnapshotFixture(t, weather)
	ctx := context.Background()

	cache.Put("weather:current", "sunny", types.StrategyFixedTTL)
	cache.Put("stocks:quotes", "AAPL 101", types.StrategyMarketAware)
	if err := svc.SaveNow(ctx); err != nil {
		t.Fatalf("SaveNow: %v", err)
	}

	cache.InvalidateAll()
	if restored := svc.Restore(ctx); restored != 1 {
		t.Fatalf("restored = %d, want 1 (stocks has no provider after reconfigure)", restored)
	}
	if cache.Has("stocks:quotes") {
		t.Error("orphaned stocks:quotes entry restored anyway")
	}
	if !cache.Has("weather:current") {
		t.Error("weather:current not restored")
	}
}

func TestRestoreEmptyStoreStartsCold(t *testing.T) {
	weather := snapshotProvider{newStubProvider("weather", "weather:current")}
	svc, cache, _ := newSnapshotFixture(t, weather)

	if restored := svc.Restore(context.Background()); restored != 0 {
		t.Errorf("restored = %d from empty store, want 0", restored)
	}
	if keys := cache.Keys(); len(keys) != 0 {
		t.Errorf("cache keys = %v, want empty", keys)
	}
}
