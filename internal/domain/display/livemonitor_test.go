package display

import (
	"testing"
	"time"
)

func TestLiveMonitorSetAndClear(t *testing.T) {
	m := NewLiveMonitor()

	if m.IsLive("nfl") {
		t.Fatalf("fresh monitor reported a live event")
	}

	m.SetLive("nfl")
	m.SetLive("nba")
	if !m.IsLive("nfl") || !m.IsLive("nba") {
		t.Errorf("expected both modes live")
	}

	got := m.ActiveModes()
	if len(got) != 2 || got[0] != "nba" || got[1] != "nfl" {
		t.Errorf("ActiveModes = %v, want [nba nfl]", got)
	}

	m.ClearLive("nfl")
	if m.IsLive("nfl") {
		t.Errorf("cleared mode still live")
	}
	if !m.IsLive("nba") {
		t.Errorf("clearing one mode affected another")
	}
}

func TestLiveMonitorPreservesDetectionTime(t *testing.T) {
	m := NewLiveMonitor()

	m.SetLive("nfl")
	first, ok := m.Detected("nfl")
	if !ok {
		t.Fatalf("detection time missing")
	}

	time.Sleep(5 * time.Millisecond)
	m.SetLive("nfl")
	second, _ := m.Detected("nfl")
	if !second.Equal(first) {
		t.Errorf("repeated SetLive moved detection time from %v to %v", first, second)
	}
}

func TestLiveMonitorSignal(t *testing.T) {
	m := NewLiveMonitor()

	if sig := m.Signal("nhl"); sig.HasLiveEvent {
		t.Errorf("signal for idle mode reports live")
	}

	m.SetLive("nhl")
	sig := m.Signal("nhl")
	if !sig.HasLiveEvent || sig.SourceModeID != "nhl" || sig.DetectedAt.IsZero() {
		t.Errorf("unexpected signal: %+v", sig)
	}
}
