package display

import (
	"testing"
	"time"
)

func TestScheduleKeepsEnabledOrder(t *testing.T) {
	s := NewSchedule([]*ModeDescriptor{
		{ID: "clock", Category: CategoryAmbient, Enabled: true, FixedDuration: 15 * time.Second},
		{ID: "stocks", Category: CategoryRecent, Enabled: false},
		{ID: "weather", Category: CategoryRecent, Enabled: true, FixedDuration: 30 * time.Second},
		{ID: "news", Category: CategoryAmbient, Enabled: true},
	})

	if s.Len() != 3 {
		t.Fatalf("expected 3 scheduled modes, got %d", s.Len())
	}
	want := []string{"clock", "weather", "news"}
	for i, id := range want {
		if s.At(i).ID != id {
			t.Errorf("position %d = %s, want %s", i, s.At(i).ID, id)
		}
	}

	if got := s.IndexOf("weather"); got != 1 {
		t.Errorf("IndexOf(weather) = %d, want 1", got)
	}
	if got := s.IndexOf("stocks"); got != -1 {
		t.Errorf("IndexOf(disabled mode) = %d, want -1", got)
	}
	if got := s.Next(2); got != 0 {
		t.Errorf("Next(2) = %d, want wrap to 0", got)
	}
}

func TestScheduleFallsBackWhenNothingEnabled(t *testing.T) {
	s := NewSchedule([]*ModeDescriptor{
		{ID: "stocks", Category: CategoryRecent, Enabled: false},
	})

	if s.Len() != 1 {
		t.Fatalf("expected fallback schedule of 1 mode, got %d", s.Len())
	}
	fallback := s.At(0)
	if fallback.ID != "clock" || fallback.Category != CategoryAmbient || !fallback.Enabled {
		t.Errorf("unexpected fallback mode: %+v", fallback)
	}

	empty := NewSchedule(nil)
	if empty.Len() != 1 || empty.At(0).ID != "clock" {
		t.Errorf("empty schedule did not fall back to clock")
	}
}

func TestFirstLiveUsesScheduleOrderTieBreak(t *testing.T) {
	s := NewSchedule([]*ModeDescriptor{
		{ID: "clock", Category: CategoryAmbient, Enabled: true},
		{ID: "nfl", Category: CategoryLive, Enabled: true, LivePriority: true},
		{ID: "nba", Category: CategoryLive, Enabled: true, LivePriority: true},
	})

	live := map[string]bool{"nfl": true, "nba": true}
	mode, idx, ok := s.FirstLive(func(id string) bool { return live[id] })
	if !ok || mode.ID != "nfl" || idx != 1 {
		t.Errorf("simultaneous live events: got %v idx=%d ok=%v, want nfl at 1", mode, idx, ok)
	}

	// The earlier event ending promotes the later one.
	live["nfl"] = false
	mode, idx, ok = s.FirstLive(func(id string) bool { return live[id] })
	if !ok || mode.ID != "nba" || idx != 2 {
		t.Errorf("after nfl cleared: got %v idx=%d ok=%v, want nba at 2", mode, idx, ok)
	}
}

func TestFirstLiveRequiresLivePriorityAndCategory(t *testing.T) {
	s := NewSchedule([]*ModeDescriptor{
		{ID: "weather", Category: CategoryRecent, Enabled: true},
		{ID: "mlb", Category: CategoryLive, Enabled: true, LivePriority: false},
	})

	_, _, ok := s.FirstLive(func(id string) bool { return true })
	if ok {
		t.Errorf("modes without live priority must not preempt")
	}
}

func TestParseCategory(t *testing.T) {
	for s, want := range map[string]Category{
		"live":     CategoryLive,
		"Recent":   CategoryRecent,
		"UPCOMING": CategoryUpcoming,
		"ambient":  CategoryAmbient,
	} {
		got, ok := ParseCategory(s)
		if !ok || got != want {
			t.Errorf("ParseCategory(%q) = %v ok=%v, want %v", s, got, ok, want)
		}
	}

	if _, ok := ParseCategory("breaking"); ok {
		t.Errorf("unknown category accepted")
	}
}
