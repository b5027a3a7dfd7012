// Package display defines the core entities of the rotation engine: mode
// descriptors, the rotation schedule, live signals, frames, and duration math.
package display

import (
	"strings"
	"time"
)

// Category classifies a display mode by content urgency.
type Category string

const (
	CategoryLive     Category = "live"
	CategoryRecent   Category = "recent"
	CategoryUpcoming Category = "upcoming"
	CategoryAmbient  Category = "ambient"
)

// ParseCategory maps a config string onto a Category.
func ParseCategory(s string) (Category, bool) {
	switch Category(strings.ToLower(s)) {
	case CategoryLive:
		return CategoryLive, true
	case CategoryRecent:
		return CategoryRecent, true
	case CategoryUpcoming:
		return CategoryUpcoming, true
	case CategoryAmbient:
		return CategoryAmbient, true
	}
	return "", false
}

// ModeDescriptor describes one display mode in the rotation. Descriptors are
// immutable during a rotation cycle and replaced wholesale on reload.
type ModeDescriptor struct {
	ID           string   `json:"id"`
	Category     Category `json:"category"`
	Enabled      bool     `json:"enabled"`
	LivePriority bool     `json:"livePriority"`

	// FixedDuration pins the mode's on-screen time. Zero means the duration
	// is computed dynamically from content width.
	FixedDuration time.Duration `json:"fixedDuration"`

	// DynamicDurationFn computes the on-screen time for scrolling content.
	// Consulted only when FixedDuration is zero.
	DynamicDurationFn func() time.Duration `json:"-"`
}

// FallbackMode returns the built-in ambient clock shown when no configured
// mode is enabled.
func FallbackMode() *ModeDescriptor {
	return &ModeDescriptor{
		ID:            "clock",
		Category:      CategoryAmbient,
		Enabled:       true,
		FixedDuration: 15 * time.Second,
	}
}

// Frame is the renderable artifact one tick produces for the panel driver.
type Frame struct {
	ModeID     string    `json:"modeId"`
	Lines      []string  `json:"lines"`
	ScrollText string    `json:"scrollText,omitempty"`
	IconPath   string    `json:"iconPath,omitempty"`
	RenderedAt time.Time `json:"renderedAt"`
}

// PlaceholderFrame is shown when every scheduled mode fails to render.
func PlaceholderFrame(now time.Time) *Frame {
	return &Frame{
		ModeID:     "placeholder",
		Lines:      []string{"PIXELCYCLE", "NO DATA"},
		RenderedAt: now,
	}
}
