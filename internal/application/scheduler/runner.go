package scheduler

import (
	"context"
	"time"

	"github.com/pixelcycle/pixelcycle-go/internal/domain/display"
	"github.com/pixelcycle/pixelcycle-go/pkg/config"
)

// StateEvent is the tick summary pushed to websocket clients and reused by
// the status API.
type StateEvent struct {
	State            string         `json:"state"`
	ModeID           string         `json:"modeId"`
	RemainingSeconds float64        `json:"remainingSeconds"`
	Live             bool           `json:"live"`
	LiveModes        []string       `json:"liveModes,omitempty"`
	Frame            *display.Frame `json:"frame,omitempty"`
	At               time.Time      `json:"at"`
}

// SetPublisher wires the consumer of per-tick state events.
func (s *Scheduler) SetPublisher(fn func(StateEvent)) {
	s.publishMu.Lock()
	defer s.publishMu.Unlock()
	s.publish = fn
}

// Event builds the state event for the given instant.
func (s *Scheduler) Event(now time.Time) StateEvent {
	s.mu.Lock()
	ev := StateEvent{
		State:  string(s.state),
		ModeID: s.schedule.At(s.index).ID,
		Frame:  s.lastFrame,
		At:     now.UTC(),
	}
	if s.state == StateRotatingNormal && !s.slotStart.IsZero() {
		if remaining := s.slotUntil.Sub(now); remaining > 0 {
			ev.RemainingSeconds = remaining.Seconds()
		}
	}
	s.mu.Unlock()

	live := s.deps.Monitor.ActiveModes()
	ev.Live = len(live) > 0
	ev.LiveModes = live
	return ev
}

// Run drives the rotation at the configured tick cadence until the context
// is canceled. The first tick fires immediately so the panel is never blank
// waiting out the first interval.
func (s *Scheduler) Run(ctx context.Context) {
	interval := config.TickInterval
	if interval <= 0 {
		interval = time.Second
	}

	s.deps.Logger.Rotation().Info("Rotation loop started", "tickInterval", interval.String())
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.step(time.Now())
	for {
		select {
		case <-ctx.Done():
			s.deps.Logger.Rotation().Info("Rotation loop stopped")
			return
		case now := <-ticker.C:
			s.step(now)
		}
	}
}

// step runs one tick and publishes the resulting state.
func (s *Scheduler) step(now time.Time) {
	s.Tick(now)

	s.publishMu.Lock()
	publish := s.publish
	s.publishMu.Unlock()
	if publish != nil {
		publish(s.Event(now))
	}
}
