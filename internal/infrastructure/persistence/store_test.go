package persistence

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/pixelcycle/pixelcycle-go/internal/infrastructure/caching/types"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := Open("sqlite3", filepath.Join(t.TempDir(), "snapshot.db"), nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func sampleEntries(storedAt time.Time) []types.ExportedEntry {
	return []types.ExportedEntry{
		{
			Key:         "weather:current",
			Payload:     []byte(`{"tempC":21.5}`),
			Fingerprint: "a1b2c3",
			Strategy:    types.StrategyFixedTTL,
			StoredAt:    storedAt,
			TTLSeconds:  600,
		},
		{
			Key:         "sports:nfl:scoreboard",
			Payload:     []byte(`{"league":"nfl"}`),
			Fingerprint: "d4e5f6",
			Strategy:    types.StrategySportLiveInterval,
			StoredAt:    storedAt.Add(-time.Minute),
			TTLSeconds:  30,
		},
	}
}

func TestSaveAllRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	storedAt := time.Now().UTC().Truncate(time.Second)

	if err := store.SaveAll(ctx, sampleEntries(storedAt)); err != nil {
		t.Fatalf("SaveAll: %v", err)
	}

	loaded, err := store.LoadAll(ctx)
	if err != nil {
		t.Fatalf("LoadAll: %v", err)
	}
	if len(loaded) != 2 {
		t.Fatalf("loaded %d entries, want 2", len(loaded))
	}

	byKey := make(map[string]types.ExportedEntry, len(loaded))
	for _, entry := range loaded {
		byKey[entry.Key] = entry
	}

	weather, ok := byKey["weather:current"]
	if !ok {
		t.Fatal("weather:current missing from loaded snapshot")
	}
	if string(weather.Payload) != `{"tempC":21.5}` {
		t.Errorf("payload = %s", weather.Payload)
	}
	if weather.Strategy != types.StrategyFixedTTL {
		t.Errorf("strategy = %q, want %q", weather.Strategy, types.StrategyFixedTTL)
	}
	if weather.TTLSeconds != 600 {
		t.Errorf("ttlSeconds = %d, want 600", weather.TTLSeconds)
	}
	if !weather.StoredAt.Equal(storedAt) {
		t.Errorf("storedAt = %s, want %s", weather.StoredAt, storedAt)
	}

	sports, ok := byKey["sports:nfl:scoreboard"]
	if !ok {
		t.Fatal("sports:nfl:scoreboard missing from loaded snapshot")
	}
	if sports.Strategy != types.StrategySportLiveInterval {
		t.Errorf("strategy = %q, want %q", sports.Strategy, types.StrategySportLiveInterval)
	}
}

func TestSaveAllReplacesPreviousSnapshot(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	storedAt := time.Now().UTC().Truncate(time.Second)

	if err := store.SaveAll(ctx, sampleEntries(storedAt)); err != nil {
		t.Fatalf("first SaveAll: %v", err)
	}

	replacement := []types.ExportedEntry{{
		Key:         "news:headlines",
		Payload:     []byte(`{"items":[]}`),
		Fingerprint: "f7g8",
		Strategy:    types.StrategyFixedTTL,
		StoredAt:    storedAt,
		TTLSeconds:  900,
	}}
	if err := store.SaveAll(ctx, replacement); err != nil {
		t.Fatalf("second SaveAll: %v", err)
	}

	loaded, err := store.LoadAll(ctx)
	if err != nil {
		t.Fatalf("LoadAll: %v", err)
	}
	if len(loaded) != 1 || loaded[0].Key != "news:headlines" {
		t.Fatalf("loaded = %+v, want single news:headlines entry", loaded)
	}
}

func TestLoadAllEmptyStore(t *testing.T) {
	store := newTestStore(t)

	loaded, err := store.LoadAll(context.Background())
	if err != nil {
		t.Fatalf("LoadAll: %v", err)
	}
	if len(loaded) != 0 {
		t.Errorf("loaded %d entries from empty store, want 0", len(loaded))
	}
}

func TestHealthReportsBackend(t *testing.T) {
	store := newTestStore(t)

	health := store.Health()
	if health["status"] != "healthy" {
		t.Errorf("status = %v, want healthy", health["status"])
	}
}
