package caching

import (
	"testing"
	"time"

	"github.com/pixelcycle/pixelcycle-go/internal/infrastructure/caching/types"
	"github.com/pixelcycle/pixelcycle-go/pkg/config"
)

func eastern(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Fatalf("failed to load eastern time zone: %v", err)
	}
	return loc
}

func TestIsMarketOpenRegularHours(t *testing.T) {
	loc := eastern(t)

	// Wednesday noon
	open := time.Date(2026, time.August, 19, 12, 0, 0, 0, loc)
	if !IsMarketOpen(open) {
		t.Errorf("expected market open on weekday noon, got closed")
	}

	// Wednesday before the bell
	preOpen := time.Date(2026, time.August, 19, 8, 0, 0, 0, loc)
	if IsMarketOpen(preOpen) {
		t.Errorf("expected market closed before 09:30")
	}

	// Wednesday after the close
	afterClose := time.Date(2026, time.August, 19, 16, 30, 0, 0, loc)
	if IsMarketOpen(afterClose) {
		t.Errorf("expected market closed after 16:00")
	}

	// Opening minute is inside the session
	openingBell := time.Date(2026, time.August, 19, 9, 30, 0, 0, loc)
	if !IsMarketOpen(openingBell) {
		t.Errorf("expected market open at 09:30")
	}
}

func TestIsMarketOpenWeekend(t *testing.T) {
	loc := eastern(t)

	saturday := time.Date(2026, time.August, 22, 12, 0, 0, 0, loc)
	if IsMarketOpen(saturday) {
		t.Errorf("expected market closed on Saturday")
	}
}

func TestIsMarketOpenHolidays(t *testing.T) {
	loc := eastern(t)

	holidays := []time.Time{
		time.Date(2026, time.January, 1, 12, 0, 0, 0, loc),   // New Year's Day (Thursday)
		time.Date(2026, time.November, 26, 12, 0, 0, 0, loc), // Thanksgiving (4th Thursday)
		time.Date(2026, time.May, 25, 12, 0, 0, 0, loc),      // Memorial Day (last Monday)
		time.Date(2026, time.September, 7, 12, 0, 0, 0, loc), // Labor Day (1st Monday)
	}

	for _, day := range holidays {
		if IsMarketOpen(day) {
			t.Errorf("expected market closed on holiday %s", day.Format("2006-01-02"))
		}
	}
}

func TestResolveTTLMarketAware(t *testing.T) {
	loc := eastern(t)

	open := time.Date(2026, time.August, 19, 12, 0, 0, 0, loc)
	if got := ResolveTTL("stocks:quotes", types.StrategyMarketAware, open); got != config.MarketOpenTTL {
		t.Errorf("expected open-market TTL %v, got %v", config.MarketOpenTTL, got)
	}

	closed := time.Date(2026, time.August, 22, 12, 0, 0, 0, loc)
	if got := ResolveTTL("stocks:quotes", types.StrategyMarketAware, closed); got != config.MarketClosedTTL {
		t.Errorf("expected closed-market TTL %v, got %v", config.MarketClosedTTL, got)
	}
}

func TestResolveTTLSportLiveInterval(t *testing.T) {
	now := time.Now().UTC()

	cases := []struct {
		key  string
		want time.Duration
	}{
		{"sports:nfl:scoreboard", 30 * time.Second},
		{"sports:nba:scoreboard", 20 * time.Second},
		{"sports:NHL:scoreboard", 20 * time.Second},
		{"sports:cricket:scoreboard", sportLiveFallback}, // unknown league
		{"not-a-sport-key", sportLiveFallback},           // no league segment
	}

	for _, tc := range cases {
		if got := ResolveTTL(tc.key, types.StrategySportLiveInterval, now); got != tc.want {
			t.Errorf("ResolveTTL(%q) = %v, want %v", tc.key, got, tc.want)
		}
	}
}

func TestResolveTTLFixed(t *testing.T) {
	now := time.Now().UTC()

	cases := []struct {
		key  string
		want time.Duration
	}{
		{"news:headlines", config.NewsTTL},
		{"weather:current", config.WeatherTTL},
		{"misc:thing", config.FixedTTL},
	}

	for _, tc := range cases {
		if got := ResolveTTL(tc.key, types.StrategyFixedTTL, now); got != tc.want {
			t.Errorf("ResolveTTL(%q) = %v, want %v", tc.key, got, tc.want)
		}
	}
}
