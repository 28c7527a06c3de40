package editor

import (
	"sync"

	"github.com/Tiliavir/plaid/internal/geometry"
	"github.com/Tiliavir/plaid/internal/timecalc"
)

// Button identifies a pointer button.
type Button int

const (
	ButtonPrimary Button = iota
	ButtonMiddle
	ButtonSecondary
)

// Pointer is a pointer event in grid content coordinates.
type Pointer struct {
	X, Y   float64
	Button Button
	Mods   geometry.Modifiers
}

// Gesture is a captured pointer interaction on the edited panel. The shell
// forwards pointer motion to Move until the button is released and must call
// Release exactly once it ends, normally or not; extra calls are harmless.
// A gesture also ends when the editor closes or reopens, after which Move
// does nothing.
type Gesture struct {
	e       *Editor
	kind    State
	once    sync.Once
	release func()
}

// Active reports whether the gesture still drives the editor.
func (g *Gesture) Active() bool {
	if g == nil {
		return false
	}
	g.e.mu.Lock()
	defer g.e.mu.Unlock()
	return g.e.gesture == g
}

// Kind returns Dragging, StretchingTop or StretchingBottom.
func (g *Gesture) Kind() State {
	if g == nil {
		return Idle
	}
	return g.kind
}

// Move applies a pointer position and reports whether the draft changed.
func (g *Gesture) Move(p Pointer) bool {
	if g == nil {
		return false
	}
	e := g.e
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.gesture != g {
		return false
	}
	snap := geometry.SnapFor(p.Mods)
	switch g.kind {
	case Dragging:
		return e.dragLocked(p, snap)
	case StretchingTop:
		return e.stretchTopLocked(p, snap)
	case StretchingBottom:
		return e.stretchBottomLocked(p, snap)
	}
	return false
}

// Release ends the gesture and returns the editor to editing.
func (g *Gesture) Release() {
	if g == nil {
		return
	}
	g.once.Do(func() {
		e := g.e
		e.mu.Lock()
		if e.gesture == g {
			e.gesture = nil
			e.state = Editing
		}
		e.mu.Unlock()
		if g.release != nil {
			g.release()
		}
	})
}

// OnRelease registers fn to run once when the gesture is released. Shells
// use it to drop the pointer capture they installed for the gesture.
func (g *Gesture) OnRelease(fn func()) {
	if g != nil {
		g.release = fn
	}
}

// BeginDrag starts moving the whole panel. offsetX and offsetY are the
// pointer position within the panel. It returns nil when a drag may not
// start: not editing, saving, a non-primary button or a panel outside the
// visible range.
func (e *Editor) BeginDrag(p Pointer, offsetX, offsetY float64) *Gesture {
	return e.begin(Dragging, p, offsetX, offsetY)
}

// BeginStretchTop starts moving the start of the panel; offsetY is the
// pointer's distance below the panel's top edge.
func (e *Editor) BeginStretchTop(p Pointer, offsetY float64) *Gesture {
	return e.begin(StretchingTop, p, 0, offsetY)
}

// BeginStretchBottom starts moving the end of the panel; offsetY is the
// pointer's distance below the panel's bottom edge, usually negative.
func (e *Editor) BeginStretchBottom(p Pointer, offsetY float64) *Gesture {
	return e.begin(StretchingBottom, p, 0, offsetY)
}

func (e *Editor) begin(kind State, p Pointer, offsetX, offsetY float64) *Gesture {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state != Editing || e.saving || p.Button != ButtonPrimary {
		return nil
	}
	if !e.rng.Contains(e.draft.Start) {
		return nil
	}
	g := &Gesture{e: e, kind: kind}
	e.gesture = g
	e.state = kind
	e.anchorX = offsetX
	e.anchorY = offsetY
	return g
}

func (e *Editor) dragLocked(p Pointer, snap int) bool {
	minute := e.mapper.YToMinutes(p.Y-e.anchorY, snap)
	changed := false
	if minute != timecalc.MinuteOfDay(e.draft.Start) {
		changed = e.moveStartLocked(minute)
	}
	if e.moveDayLocked(e.mapper.XToDayIndex(p.X - e.anchorX)) {
		changed = true
	}
	return changed
}

func (e *Editor) stretchTopLocked(p Pointer, snap int) bool {
	oldStart := timecalc.MinuteOfDay(e.draft.Start)
	end := oldStart + e.draft.DurationMinutes
	start := e.mapper.YToMinutes(p.Y-e.anchorY, snap)
	if start == oldStart {
		return false
	}
	if start < 0 {
		start = 0
	} else if start >= end {
		start = floorTo(end-1, snap)
	}
	if start == oldStart {
		return false
	}
	e.draft.Start = timecalc.AtMinute(timecalc.StartOfDay(e.draft.Start), start)
	e.draft.DurationMinutes += oldStart - start
	return true
}

func (e *Editor) stretchBottomLocked(p Pointer, snap int) bool {
	start := timecalc.MinuteOfDay(e.draft.Start)
	oldEnd := start + e.draft.DurationMinutes
	end := e.mapper.YToMinutes(p.Y-e.anchorY, snap)
	if end == oldEnd {
		return false
	}
	if end <= start {
		end = ceilTo(start+1, snap)
	} else if end > geometry.MinutesPerDay {
		end = geometry.MinutesPerDay
	}
	if end == oldEnd {
		return false
	}
	e.draft.DurationMinutes = end - start
	return true
}

func floorTo(v, snap int) int {
	if snap < 1 {
		return v
	}
	return v / snap * snap
}

func ceilTo(v, snap int) int {
	if snap < 1 {
		return v
	}
	return (v + snap - 1) / snap * snap
}
