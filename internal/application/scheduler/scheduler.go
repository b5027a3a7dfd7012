// Package scheduler drives the display rotation: which mode owns the panel,
// for how long, and how live events and manual overrides interrupt the cycle.
package scheduler

import (
	"fmt"
	"sync"
	"time"

	"github.com/pixelcycle/pixelcycle-go/internal/application/coordinator"
	"github.com/pixelcycle/pixelcycle-go/internal/application/services"
	"github.com/pixelcycle/pixelcycle-go/internal/domain/display"
	"github.com/pixelcycle/pixelcycle-go/internal/domain/modes"
	"github.com/pixelcycle/pixelcycle-go/internal/infrastructure/caching/interfaces"
	"github.com/pixelcycle/pixelcycle-go/internal/infrastructure/observability/logging"
	"github.com/pixelcycle/pixelcycle-go/internal/infrastructure/observability/metrics"
	"github.com/pixelcycle/pixelcycle-go/pkg/config"
)

// State is the rotation state machine's current mode of operation.
type State string

const (
	StateRotatingNormal   State = "RotatingNormal"
	StateLivePreempted    State = "LivePreempted"
	StateOnDemandOverride State = "OnDemandOverride"
)

// WidthMeasurer reports the pixel width of scroll text. Satisfied by the
// typography measurer.
type WidthMeasurer interface {
	Width(text string) int
}

// Deps bundles everything the scheduler consumes.
type Deps struct {
	Registry    *modes.Registry
	Cache       interfaces.Cache
	Refresh     *services.RefreshService
	Coordinator *coordinator.GracefulUpdateCoordinator
	Monitor     *display.LiveMonitor
	Measurer    WidthMeasurer
	Calculator  *display.Calculator
	Logger      *logging.ChanneledLogger
	Metrics     *metrics.Metrics
}

// Scheduler owns the rotation. Tick is the only place mode selection
// happens; everything else observes through the mutex-guarded accessors.
type Scheduler struct {
	deps Deps

	mu       sync.Mutex
	schedule *display.RotationSchedule

	state     State
	index     int
	slotStart time.Time
	slotUntil time.Time

	// Preemption bookkeeping. The resume point is recorded once, on the
	// Normal to LivePreempted transition, and survives chained live events.
	resumeIdx    int
	hasResume    bool
	liveTargetID string

	// Override bookkeeping: the entry showing when the override began.
	overrideFromIdx int

	// scrollingMode is the mode currently holding a scroll region open.
	scrollingMode string

	allFailed bool
	lastFrame *display.Frame

	publishMu sync.Mutex
	publish   func(StateEvent)
}

// New builds a scheduler over the given schedule entries. Invalid entries
// are dropped with a warning; an empty result falls back to the built-in
// clock so the panel always has something to show.
func New(deps Deps, entries []config.ScheduleEntry) *Scheduler {
	s := &Scheduler{
		deps:  deps,
		state: StateRotatingNormal,
	}
	s.schedule = s.buildSchedule(entries)
	return s
}

// buildSchedule validates raw entries against the provider registry and the
// duration range, wiring dynamic duration functions for modes without a
// fixed duration.
func (s *Scheduler) buildSchedule(entries []config.ScheduleEntry) *display.RotationSchedule {
	descriptors := make([]*display.ModeDescriptor, 0, len(entries))
	for _, e := range entries {
		desc, reason := s.buildDescriptor(e)
		if desc == nil {
			s.deps.Logger.Rotation().Warn("Dropping schedule entry",
				"modeID", e.ID, "reason", reason)
			continue
		}
		descriptors = append(descriptors, desc)
	}
	return display.NewSchedule(descriptors)
}

// buildDescriptor validates one schedule entry. A nil return means the entry
// is dropped, with the reason for the log.
func (s *Scheduler) buildDescriptor(e config.ScheduleEntry) (*display.ModeDescriptor, string) {
	if e.ID == "" {
		return nil, "empty mode id"
	}
	category, ok := display.ParseCategory(e.Category)
	if !ok {
		return nil, fmt.Sprintf("unknown category %q", e.Category)
	}
	provider, ok := s.deps.Registry.ByMode(e.ID)
	if !ok {
		return nil, "no provider registered"
	}

	desc := &display.ModeDescriptor{
		ID:           e.ID,
		Category:     category,
		Enabled:      e.Enabled,
		LivePriority: e.LivePriority,
	}

	if e.FixedDurationSeconds != 0 {
		fixed := time.Duration(e.FixedDurationSeconds) * time.Second
		if fixed < s.deps.Calculator.MinDuration || fixed > s.deps.Calculator.MaxDuration {
			return nil, fmt.Sprintf("fixed duration %s outside [%s, %s]",
				fixed, s.deps.Calculator.MinDuration, s.deps.Calculator.MaxDuration)
		}
		desc.FixedDuration = fixed
		return desc, ""
	}

	desc.DynamicDurationFn = func() time.Duration {
		return s.dynamicDuration(provider)
	}
	return desc, ""
}

// dynamicDuration derives a mode's slot length from the pixel width of its
// current scroll text. No cached content measures as zero width, which the
// calculator maps to exactly the minimum duration.
func (s *Scheduler) dynamicDuration(p modes.Provider) time.Duration {
	key := p.CacheKey()
	if key == "" {
		return s.deps.Calculator.Dynamic(0)
	}
	entry, found := s.deps.Cache.Get(key)
	if !found {
		return s.deps.Calculator.Dynamic(0)
	}
	text := p.ScrollText(entry.Value)
	if text == "" {
		return s.deps.Calculator.Dynamic(0)
	}
	return s.deps.Calculator.Dynamic(s.deps.Measurer.Width(text))
}

// Tick advances the rotation to the given instant and returns the frame the
// panel should show. Each tick ends at the coordinator's safe point, where
// deferred updates drain.
func (s *Scheduler) Tick(now time.Time) *display.Frame {
	s.mu.Lock()
	frame := s.tickLocked(now)
	s.lastFrame = frame
	s.mu.Unlock()

	if s.deps.Coordinator != nil {
		s.deps.Coordinator.ProcessDeferred()
	}
	return frame
}

func (s *Scheduler) tickLocked(now time.Time) *display.Frame {
	if s.state != StateOnDemandOverride {
		s.evaluateLive(now)
	}

	if s.state == StateRotatingNormal {
		switch {
		case s.allFailed:
			s.allFailed = false
			s.jumpTo(0, now)
		case s.slotStart.IsZero():
			s.jumpTo(s.index, now)
		case !now.Before(s.slotUntil):
			s.advance(now)
		}
	}

	return s.renderPass(now)
}

// evaluateLive applies the live preemption rules: earliest qualifying entry
// in schedule order wins, the resume point is recorded only when leaving
// normal rotation, and chained events keep preempting as earlier ones clear.
func (s *Scheduler) evaluateLive(now time.Time) {
	liveEntry, liveIdx, ok := s.schedule.FirstLive(s.deps.Monitor.IsLive)

	switch {
	case ok && s.state == StateRotatingNormal:
		s.resumeIdx = s.schedule.Next(s.index)
		s.hasResume = true
		s.liveTargetID = liveEntry.ID
		s.state = StateLivePreempted
		s.deps.Metrics.IncPreemptions()
		s.deps.Logger.LogStateTransition(
			string(StateRotatingNormal), string(StateLivePreempted), liveEntry.ID, "live event detected")
		s.jumpTo(liveIdx, now)

	case ok && s.state == StateLivePreempted:
		if s.liveTargetID != liveEntry.ID {
			s.liveTargetID = liveEntry.ID
			s.deps.Metrics.IncPreemptions()
			s.deps.Logger.LogStateTransition(
				string(StateLivePreempted), string(StateLivePreempted), liveEntry.ID, "live event chain")
		}
		if s.index != liveIdx {
			s.jumpTo(liveIdx, now)
		}

	case !ok && s.state == StateLivePreempted:
		resume := s.resumeIdx
		if !s.hasResume {
			resume = s.schedule.Next(s.index)
		}
		s.hasResume = false
		s.liveTargetID = ""
		s.state = StateRotatingNormal
		s.deps.Logger.LogStateTransition(
			string(StateLivePreempted), string(StateRotatingNormal),
			s.schedule.At(resume).ID, "live events cleared")
		s.jumpTo(resume, now)
	}
}

// advance moves to the next schedule entry as a completed rotation step.
func (s *Scheduler) advance(now time.Time) {
	s.deps.Metrics.IncRotations()
	s.jumpTo(s.schedule.Next(s.index), now)
}

// jumpTo points the rotation at an entry and opens its slot window. Any
// scroll region held by the previous mode is released.
func (s *Scheduler) jumpTo(idx int, now time.Time) {
	if s.scrollingMode != "" && s.deps.Coordinator != nil {
		s.deps.Coordinator.SetScrollingState(s.scrollingMode, false)
		s.scrollingMode = ""
	}

	s.index = idx
	s.slotStart = now
	s.slotUntil = now.Add(s.deps.Calculator.Resolve(s.schedule.At(idx)))
}

// renderPass renders the current entry, skipping forward past modes that
// cannot produce content. When a full pass fails, the placeholder frame
// shows and the next tick retries from the schedule head.
func (s *Scheduler) renderPass(now time.Time) *display.Frame {
	// An override pins its mode: no skipping, placeholder on failure.
	if s.state == StateOnDemandOverride {
		entry := s.schedule.At(s.index)
		frame, err := s.renderEntry(entry, now)
		if err == nil {
			s.trackScrolling(entry.ID, frame)
			return frame
		}
		s.deps.Metrics.IncModeFailures()
		s.deps.Logger.Rotation().Warn("Override mode failed to render",
			"modeID", entry.ID, "error", err.Error())
		return display.PlaceholderFrame(now)
	}

	for i := 0; i < s.schedule.Len(); i++ {
		entry := s.schedule.At(s.index)
		frame, err := s.renderEntry(entry, now)
		if err == nil {
			s.trackScrolling(entry.ID, frame)
			return frame
		}

		s.deps.Metrics.IncModeFailures()
		s.deps.Logger.Rotation().Warn("Mode failed to render, skipping",
			"modeID", entry.ID, "error", err.Error())
		s.jumpTo(s.schedule.Next(s.index), now)
	}

	s.allFailed = true
	s.deps.Logger.Rotation().Error("All modes failed to render, showing placeholder")
	return display.PlaceholderFrame(now)
}

// renderEntry produces a frame for one mode from cached content, fresh or
// stale. A stale entry still renders as last known good while its refresh
// is submitted in the background.
func (s *Scheduler) renderEntry(entry *display.ModeDescriptor, now time.Time) (*display.Frame, error) {
	provider, ok := s.deps.Registry.ByMode(entry.ID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", display.ErrUnknownMode, entry.ID)
	}

	key := provider.CacheKey()
	if key == "" {
		return provider.RenderCurrent(nil)
	}

	cached, found := s.deps.Cache.Get(key)
	if !found {
		s.deps.Refresh.EnsureFresh(provider, services.PriorityCurrentMode)
		return nil, fmt.Errorf("%s: %w", entry.ID, display.ErrNoRenderable)
	}
	if !cached.IsFresh(now) {
		s.deps.Refresh.EnsureFresh(provider, services.PriorityCurrentMode)
	}

	return provider.RenderCurrent(cached.Value)
}

// trackScrolling keeps the coordinator's scroll state in step with what the
// panel is doing: a frame with scroll text holds its region open, anything
// else releases it.
func (s *Scheduler) trackScrolling(modeID string, frame *display.Frame) {
	if s.deps.Coordinator == nil {
		return
	}
	if frame.ScrollText != "" {
		s.deps.Coordinator.SetScrollingState(modeID, true)
		s.scrollingMode = modeID
		return
	}
	if s.scrollingMode == modeID {
		s.deps.Coordinator.SetScrollingState(modeID, false)
		s.scrollingMode = ""
	}
}

// RequestOverride pins the named mode to the panel until cleared. The mode
// must exist in the schedule (enabled entries only).
func (s *Scheduler) RequestOverride(modeID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.schedule.IndexOf(modeID)
	if idx < 0 {
		return fmt.Errorf("%w: %s", display.ErrUnknownMode, modeID)
	}

	from := string(s.state)
	if s.state != StateOnDemandOverride {
		// Rotation resumes after the mode that was showing when the
		// override began; switching override targets keeps that anchor.
		s.overrideFromIdx = s.index
	}
	s.state = StateOnDemandOverride
	s.jumpTo(idx, time.Now().UTC())

	s.deps.Metrics.IncOverrides()
	s.deps.Logger.LogStateTransition(from, string(StateOnDemandOverride), modeID, "manual override")
	return nil
}

// ClearOverride releases a manual override and resumes rotation at the entry
// after the mode that was showing when the override began.
func (s *Scheduler) ClearOverride() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateOnDemandOverride {
		return
	}

	resume := s.schedule.Next(s.overrideFromIdx)
	s.state = StateRotatingNormal
	s.hasResume = false
	s.liveTargetID = ""
	s.deps.Logger.LogStateTransition(
		string(StateOnDemandOverride), string(StateRotatingNormal),
		s.schedule.At(resume).ID, "override cleared")
	s.jumpTo(resume, time.Now().UTC())
}

// ReloadSchedule replaces the rotation wholesale. Invalid entries are
// dropped with warnings; rotation restarts from the head in normal state.
func (s *Scheduler) ReloadSchedule(entries []config.ScheduleEntry) {
	schedule := s.buildSchedule(entries)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.schedule = schedule
	s.state = StateRotatingNormal
	s.index = 0
	s.slotStart = time.Time{}
	s.slotUntil = time.Time{}
	s.hasResume = false
	s.liveTargetID = ""
	s.allFailed = false

	s.deps.Logger.Rotation().Info("Schedule reloaded", "modes", schedule.Len())
}

// CurrentMode returns the mode id the rotation currently points at.
func (s *Scheduler) CurrentMode() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.schedule.At(s.index).ID
}

// State returns the rotation state.
func (s *Scheduler) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// RemainingDuration reports how long the current slot has left. Preempted
// and overridden panels hold indefinitely and report zero.
func (s *Scheduler) RemainingDuration(now time.Time) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateRotatingNormal || s.slotStart.IsZero() {
		return 0
	}
	remaining := s.slotUntil.Sub(now)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// LastFrame returns the most recently rendered frame.
func (s *Scheduler) LastFrame() *display.Frame {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastFrame
}

// Schedule returns the active schedule.
func (s *Scheduler) Schedule() *display.RotationSchedule {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.schedule
}

// ResolvedDuration reports the slot duration an entry would get right now,
// for the modes listing API.
func (s *Scheduler) ResolvedDuration(modeID string) (time.Duration, bool) {
	s.mu.Lock()
	entry, ok := s.schedule.Get(modeID)
	s.mu.Unlock()
	if !ok {
		return 0, false
	}
	return s.deps.Calculator.Resolve(entry), true
}
