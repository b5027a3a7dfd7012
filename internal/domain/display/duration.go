package display

import (
	"math"
	"time"

	"github.com/pixelcycle/pixelcycle-go/pkg/config"
)

// Calculator computes on-screen durations for display modes. Scrolling
// content is shown exactly long enough to complete one full pass plus a
// buffer, never cutting off mid-scroll and never looping pointlessly.
type Calculator struct {
	DisplayWidth   int
	ScrollSpeed    int
	FrameDelay     time.Duration
	DurationBuffer float64
	MinDuration    time.Duration
	MaxDuration    time.Duration
}

// NewCalculator creates a calculator from application defaults.
func NewCalculator() Calculator {
	return Calculator{
		DisplayWidth:   config.DisplayWidth,
		ScrollSpeed:    config.ScrollSpeedPx,
		FrameDelay:     config.FrameDelay,
		DurationBuffer: config.DurationBuffer,
		MinDuration:    config.MinDuration,
		MaxDuration:    config.MaxDuration,
	}
}

// Dynamic returns the on-screen time for content contentWidth pixels wide:
// one full scroll pass across the panel plus the buffer fraction, clamped
// to [MinDuration, MaxDuration]. Zero-width content returns exactly
// MinDuration.
func (c Calculator) Dynamic(contentWidth int) time.Duration {
	if contentWidth <= 0 {
		return c.MinDuration
	}

	speed := c.ScrollSpeed
	if speed <= 0 {
		speed = 1
	}

	frames := math.Ceil(float64(c.DisplayWidth+contentWidth) / float64(speed))
	duration := time.Duration(frames * (1 + c.DurationBuffer) * float64(c.FrameDelay))
	return c.Clamp(duration)
}

// Clamp bounds a duration to [MinDuration, MaxDuration].
func (c Calculator) Clamp(d time.Duration) time.Duration {
	if d < c.MinDuration {
		return c.MinDuration
	}
	if c.MaxDuration > 0 && d > c.MaxDuration {
		return c.MaxDuration
	}
	return d
}

// Resolve returns a mode's on-screen duration: the fixed duration when set,
// else the mode's dynamic duration clamped to the calculator's bounds, else
// MinDuration.
func (c Calculator) Resolve(mode *ModeDescriptor) time.Duration {
	if mode.FixedDuration > 0 {
		return mode.FixedDuration
	}
	if mode.DynamicDurationFn != nil {
		return c.Clamp(mode.DynamicDurationFn())
	}
	return c.MinDuration
}
