package geometry

import "math"

// Modifiers are the keyboard modifiers held during a pointer gesture.
type Modifiers struct {
	Shift bool
	Ctrl  bool
	Alt   bool
}

// SnapFor returns the minute granularity pointer positions snap to: 1 with
// only Alt held, 60 with only Ctrl, 15 with only Shift and 5 otherwise.
func SnapFor(m Modifiers) int {
	switch {
	case m.Alt && !m.Ctrl && !m.Shift:
		return 1
	case !m.Alt && m.Ctrl && !m.Shift:
		return 60
	case !m.Alt && !m.Ctrl && m.Shift:
		return 15
	default:
		return 5
	}
}

// Zoom bounds and steps for Zoom.Base.
const (
	MinZoomBase     = 1.0
	MaxZoomBase     = 4.0
	DefaultZoomBase = 1.25
	ZoomStep        = 0.25
	wheelDivisor    = 800
)

// Zoom is the user-facing zoom control. Pixels per minute grow with the
// square of Base.
type Zoom struct {
	Base float64
}

// NewZoom returns a zoom control at the default level.
func NewZoom() Zoom {
	return Zoom{Base: DefaultZoomBase}
}

// PixelsPerMinute returns base² rounded to 1/128 so layouts stay stable.
func (z Zoom) PixelsPerMinute() float64 {
	return math.Round(z.Base*z.Base*128) / 128
}

// Set clamps base into the allowed range and returns the new zoom.
func (z Zoom) Set(base float64) Zoom {
	return Zoom{Base: math.Min(MaxZoomBase, math.Max(MinZoomBase, base))}
}

// In returns the next zoom level, clamped to MaxZoomBase.
func (z Zoom) In() Zoom { return z.Set(z.Base + ZoomStep) }

// Out returns the previous zoom level, clamped to MinZoomBase.
func (z Zoom) Out() Zoom { return z.Set(z.Base - ZoomStep) }

// Wheel applies a ctrl+wheel delta; scrolling up zooms in.
func (z Zoom) Wheel(deltaY float64) Zoom {
	return z.Set(z.Base - deltaY/wheelDivisor)
}

// CanZoomIn reports whether In would change the level.
func (z Zoom) CanZoomIn() bool { return z.Base < MaxZoomBase }

// CanZoomOut reports whether Out would change the level.
func (z Zoom) CanZoomOut() bool { return z.Base > MinZoomBase }
