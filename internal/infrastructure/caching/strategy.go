// Package caching provides the adaptive TTL cache and related utilities.
package caching

import (
	"strings"
	"sync"
	"time"

	"github.com/pixelcycle/pixelcycle-go/internal/infrastructure/caching/types"
	"github.com/pixelcycle/pixelcycle-go/pkg/config"
)

// sportLiveDefaults is the fallback per-league live refresh table, used when
// no live_update_interval override exists in configuration.
var sportLiveDefaults = map[string]time.Duration{
	"nfl":   30 * time.Second,
	"nba":   20 * time.Second,
	"mlb":   30 * time.Second,
	"nhl":   20 * time.Second,
	"mls":   45 * time.Second,
	"ncaaf": 30 * time.Second,
	"ncaam": 30 * time.Second,
}

const sportLiveFallback = 60 * time.Second

var (
	marketLocation *time.Location
	marketLocOnce  sync.Once
)

func easternTime(now time.Time) time.Time {
	marketLocOnce.Do(func() {
		loc, err := time.LoadLocation("America/New_York")
		if err != nil {
			loc = time.FixedZone("EST", -5*60*60)
		}
		marketLocation = loc
	})
	return now.In(marketLocation)
}

// ResolveTTL selects the TTL for a cache entry per its strategy at the given
// instant. Market-aware entries refresh fast only while the exchange can
// actually move; sport entries follow the per-league live interval keyed by
// the league segment of keys shaped "sports:<league>:...".
func ResolveTTL(key string, strategy types.Strategy, now time.Time) time.Duration {
	switch strategy {
	case types.StrategyMarketAware:
		if IsMarketOpen(now) {
			return config.MarketOpenTTL
		}
		return config.MarketClosedTTL
	case types.StrategySportLiveInterval:
		league := leagueFromKey(key)
		if ttl, ok := config.SportLiveInterval(league); ok {
			return ttl
		}
		if ttl, ok := sportLiveDefaults[league]; ok {
			return ttl
		}
		return sportLiveFallback
	default:
		return fixedTTLForKey(key)
	}
}

// fixedTTLForKey applies the per-feed constants for content kinds that have
// their own configured cadence, with the generic fixed TTL as the floor.
func fixedTTLForKey(key string) time.Duration {
	switch {
	case strings.HasPrefix(key, "weather:"):
		return config.WeatherTTL
	case strings.HasPrefix(key, "news:"):
		return config.NewsTTL
	default:
		return config.FixedTTL
	}
}

func leagueFromKey(key string) string {
	parts := strings.Split(key, ":")
	if len(parts) >= 2 && parts[0] == "sports" {
		return strings.ToLower(parts[1])
	}
	return ""
}

// IsMarketOpen reports whether the exchange is in regular trading hours:
// weekdays 09:30-16:00 Eastern, excluding market holidays.
func IsMarketOpen(now time.Time) bool {
	et := easternTime(now)

	switch et.Weekday() {
	case time.Saturday, time.Sunday:
		return false
	}

	if isMarketHoliday(et) {
		return false
	}

	minutes := et.Hour()*60 + et.Minute()
	return minutes >= 9*60+30 && minutes < 16*60
}

// isMarketHoliday covers the fixed and floating NYSE full-day closures.
// Good Friday is not modeled.
func isMarketHoliday(et time.Time) bool {
	month, day := et.Month(), et.Day()

	switch {
	case month == time.January && day == 1: // New Year's Day
		return true
	case month == time.June && day == 19: // Juneteenth
		return true
	case month == time.July && day == 4: // Independence Day
		return true
	case month == time.December && day == 25: // Christmas
		return true
	}

	switch {
	case month == time.January && et.Day() == nthWeekday(et, time.Monday, 3): // MLK Day
		return true
	case month == time.February && et.Day() == nthWeekday(et, time.Monday, 3): // Presidents Day
		return true
	case month == time.May && et.Day() == lastWeekday(et, time.Monday): // Memorial Day
		return true
	case month == time.September && et.Day() == nthWeekday(et, time.Monday, 1): // Labor Day
		return true
	case month == time.November && et.Day() == nthWeekday(et, time.Thursday, 4): // Thanksgiving
		return true
	}

	return false
}

// nthWeekday returns the day-of-month of the nth given weekday in t's month.
func nthWeekday(t time.Time, weekday time.Weekday, n int) int {
	first := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	offset := (int(weekday) - int(first.Weekday()) + 7) % 7
	return 1 + offset + (n-1)*7
}

// lastWeekday returns the day-of-month of the last given weekday in t's month.
func lastWeekday(t time.Time, weekday time.Weekday) int {
	last := time.Date(t.Year(), t.Month()+1, 0, 0, 0, 0, 0, t.Location())
	offset := (int(last.Weekday()) - int(weekday) + 7) % 7
	return last.Day() - offset
}
