package manager

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/pixelcycle/pixelcycle-go/internal/infrastructure/caching/types"
	"github.com/pixelcycle/pixelcycle-go/pkg/config"
)

type quotePayload struct {
	Symbol    string    `json:"symbol"`
	Price     float64   `json:"price"`
	FetchedAt time.Time `json:"fetchedAt"`
}

// FingerprintFields excludes FetchedAt so refetches of identical prices
// do not read as content changes.
func (q quotePayload) FingerprintFields() any {
	return struct {
		Symbol string
		Price  float64
	}{q.Symbol, q.Price}
}

func withFixedTTL(t *testing.T, ttl time.Duration) {
	t.Helper()
	prev := config.FixedTTL
	config.FixedTTL = ttl
	t.Cleanup(func() { config.FixedTTL = prev })
}

func TestPutThenIsFresh(t *testing.T) {
	withFixedTTL(t, 40*time.Millisecond)
	m := NewManager(16, time.Hour, nil)

	m.Put("news:headlines", []string{"headline one"}, types.StrategyFixedTTL)

	if !m.IsFresh("news:headlines") {
		t.Fatalf("expected entry to be fresh immediately after Put")
	}

	time.Sleep(60 * time.Millisecond)

	if m.IsFresh("news:headlines") {
		t.Fatalf("expected entry to be stale once TTL elapsed")
	}

	// Stale entries remain readable as last-known-good.
	entry, exists := m.Get("news:headlines")
	if !exists {
		t.Fatalf("expected stale entry to remain readable")
	}
	if entry.Key != "news:headlines" {
		t.Errorf("unexpected entry key %q", entry.Key)
	}
}

func TestIsFreshMissingKey(t *testing.T) {
	m := NewManager(16, time.Hour, nil)
	if m.IsFresh("never:stored") {
		t.Errorf("expected missing key to report not fresh")
	}
}

func TestHasChangedUsesFingerprintFields(t *testing.T) {
	m := NewManager(16, time.Hour, nil)

	stored := quotePayload{Symbol: "AAPL", Price: 123.45, FetchedAt: time.Now().UTC()}
	m.Put("stocks:quotes", stored, types.StrategyFixedTTL)

	// Same semantic content, different fetch timestamp.
	refetched := quotePayload{Symbol: "AAPL", Price: 123.45, FetchedAt: time.Now().UTC().Add(time.Minute)}
	if m.HasChanged("stocks:quotes", refetched) {
		t.Errorf("expected identical content with new timestamp to read unchanged")
	}

	moved := quotePayload{Symbol: "AAPL", Price: 130.00, FetchedAt: refetched.FetchedAt}
	if !m.HasChanged("stocks:quotes", moved) {
		t.Errorf("expected price change to read as changed")
	}

	if !m.HasChanged("stocks:absent", moved) {
		t.Errorf("expected missing key to read as changed")
	}
}

func TestHasChangedDoesNotTouchTTL(t *testing.T) {
	withFixedTTL(t, 50*time.Millisecond)
	m := NewManager(16, time.Hour, nil)

	m.Put("weather:current", "sunny", types.StrategyFixedTTL)
	before, _ := m.Get("weather:current")
	storedAt := before.StoredAt

	m.HasChanged("weather:current", "rainy")

	after, _ := m.Get("weather:current")
	if !after.StoredAt.Equal(storedAt) || after.TTL != before.TTL {
		t.Errorf("HasChanged must not mutate entry freshness")
	}
}

func TestInvalidate(t *testing.T) {
	m := NewManager(16, time.Hour, nil)
	m.Put("weather:current", "sunny", types.StrategyFixedTTL)

	m.Invalidate("weather:current")
	if _, exists := m.Get("weather:current"); exists {
		t.Errorf("expected entry gone after Invalidate")
	}

	m.Put("a", 1, types.StrategyFixedTTL)
	m.Put("b", 2, types.StrategyFixedTTL)
	m.InvalidateAll()
	if len(m.Keys()) != 0 {
		t.Errorf("expected empty cache after InvalidateAll")
	}
}

func TestExportRestoreRoundTrip(t *testing.T) {
	m := NewManager(16, time.Hour, nil)

	stored := quotePayload{Symbol: "TSLA", Price: 420.69, FetchedAt: time.Now().UTC()}
	m.Put("stocks:quotes", stored, types.StrategyMarketAware)

	records := m.Export()
	if len(records) != 1 {
		t.Fatalf("expected 1 exported record, got %d", len(records))
	}

	restoredCache := NewManager(16, time.Hour, nil)
	n := restoredCache.Restore(records, func(key string, raw []byte) (any, error) {
		var q quotePayload
		if err := json.Unmarshal(raw, &q); err != nil {
			return nil, err
		}
		return q, nil
	})
	if n != 1 {
		t.Fatalf("expected 1 restored record, got %d", n)
	}

	entry, exists := restoredCache.Get("stocks:quotes")
	if !exists {
		t.Fatalf("expected restored entry present")
	}
	got, ok := entry.Value.(quotePayload)
	if !ok {
		t.Fatalf("expected decoded quotePayload, got %T", entry.Value)
	}
	if got.Symbol != "TSLA" || got.Price != 420.69 {
		t.Errorf("restored payload mismatch: %+v", got)
	}
	if entry.Strategy != types.StrategyMarketAware {
		t.Errorf("restored strategy mismatch: %s", entry.Strategy)
	}
}

func TestStats(t *testing.T) {
	m := NewManager(16, time.Hour, nil)
	m.Put("a", 1, types.StrategyFixedTTL)
	m.Get("a")
	m.Get("missing")

	stats := m.Stats()
	if stats.Hits != 1 || stats.Misses != 1 || stats.Entries != 1 {
		t.Errorf("unexpected stats: %+v", stats)
	}
}
