package display

// RotationSchedule is the ordered sequence of enabled display modes.
// Insertion order is display order. A schedule built from zero enabled
// modes holds the built-in fallback mode, so rotation always has something
// to show.
type RotationSchedule struct {
	entries []*ModeDescriptor
}

// NewSchedule builds a schedule from descriptors, keeping enabled ones in
// the given order.
func NewSchedule(modes []*ModeDescriptor) *RotationSchedule {
	entries := make([]*ModeDescriptor, 0, len(modes))
	for _, mode := range modes {
		if mode != nil && mode.Enabled {
			entries = append(entries, mode)
		}
	}
	if len(entries) == 0 {
		entries = append(entries, FallbackMode())
	}
	return &RotationSchedule{entries: entries}
}

// Entries returns the scheduled descriptors in display order.
func (s *RotationSchedule) Entries() []*ModeDescriptor {
	return s.entries
}

// Len returns the number of scheduled modes.
func (s *RotationSchedule) Len() int {
	return len(s.entries)
}

// At returns the descriptor at schedule position i.
func (s *RotationSchedule) At(i int) *ModeDescriptor {
	return s.entries[i]
}

// Next returns the schedule position after i, wrapping to the head.
func (s *RotationSchedule) Next(i int) int {
	return (i + 1) % len(s.entries)
}

// IndexOf returns the schedule position of a mode id, or -1.
func (s *RotationSchedule) IndexOf(id string) int {
	for i, mode := range s.entries {
		if mode.ID == id {
			return i
		}
	}
	return -1
}

// Get returns the descriptor for a mode id.
func (s *RotationSchedule) Get(id string) (*ModeDescriptor, bool) {
	i := s.IndexOf(id)
	if i < 0 {
		return nil, false
	}
	return s.entries[i], true
}

// FirstLive returns the earliest scheduled live-priority mode for which
// isLive reports an active event. Schedule order is the tie-break between
// simultaneous live events.
func (s *RotationSchedule) FirstLive(isLive func(id string) bool) (*ModeDescriptor, int, bool) {
	for i, mode := range s.entries {
		if mode.Category == CategoryLive && mode.LivePriority && isLive(mode.ID) {
			return mode, i, true
		}
	}
	return nil, -1, false
}
