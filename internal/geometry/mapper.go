// Package geometry converts between grid pixels and minutes of day or day
// indexes, and keeps the vertical scroll stable across zoom changes.
//
// Coordinates are relative to the scrollable grid content: Y == 0 is midnight
// of every day column, X == 0 is the left edge of the first visible day.
// A Mapper is owned by the presentation loop and is not safe for concurrent
// use.
package geometry

import (
	"math"
)

const (
	// MinutesPerDay is the height of the grid in minutes.
	MinutesPerDay = 1440
	// GridFooter is extra scrollable space below minute 1440, in pixels.
	GridFooter = 60
)

// Mapper maps minutes of day to vertical pixels and day indexes to
// horizontal pixels for the current zoom and viewport.
type Mapper struct {
	PixelsPerMinute float64
	Days            int
	ViewportWidth   float64
	ViewportHeight  float64
	ScrollTop       float64

	contentHeight float64
	pending       *pendingZoom
}

type pendingZoom struct {
	ppm       float64
	scrollTop float64
}

// NewMapper creates a mapper showing days columns at the given zoom.
func NewMapper(ppm float64, days int) *Mapper {
	m := &Mapper{PixelsPerMinute: ppm, Days: days}
	m.contentHeight = contentHeight(ppm)
	return m
}

func contentHeight(ppm float64) float64 {
	return MinutesPerDay*ppm + GridFooter
}

// MinutesToY converts a minute of day to a vertical pixel offset.
func (m *Mapper) MinutesToY(minutes int) float64 {
	return float64(minutes) * m.PixelsPerMinute
}

// YToMinutes converts a vertical pixel offset to minutes, rounded to the
// nearest multiple of snap. A snap of 1 or less rounds to the whole minute.
func (m *Mapper) YToMinutes(y float64, snap int) int {
	if snap < 1 {
		snap = 1
	}
	s := float64(snap)
	return int(math.Round(y/m.PixelsPerMinute/s)) * snap
}

// DayWidth returns the width of one day column in pixels.
func (m *Mapper) DayWidth() float64 {
	if m.Days <= 0 {
		return 0
	}
	return m.ViewportWidth / float64(m.Days)
}

// DayIndexToX returns the left edge of the day column at index.
func (m *Mapper) DayIndexToX(index int) float64 {
	return float64(index) * m.DayWidth()
}

// XToDayIndex returns the day column whose left edge is nearest to x,
// clamped to the visible days.
func (m *Mapper) XToDayIndex(x float64) int {
	w := m.DayWidth()
	if w <= 0 {
		return 0
	}
	i := int(math.Round(x / w))
	return ClampInt(i, 0, m.Days-1)
}

// ColumnAt returns the day column containing x, clamped to the visible days.
func (m *Mapper) ColumnAt(x float64) int {
	w := m.DayWidth()
	if w <= 0 {
		return 0
	}
	return ClampInt(int(math.Floor(x/w)), 0, m.Days-1)
}

// ContentHeight returns the scrollable grid height in pixels. While a zoom
// change is pending it is already the height of the new zoom.
func (m *Mapper) ContentHeight() float64 {
	if m.contentHeight == 0 {
		return contentHeight(m.PixelsPerMinute)
	}
	return m.contentHeight
}

// CenterMinute returns the minute of day at the vertical middle of the
// viewport.
func (m *Mapper) CenterMinute() float64 {
	return (m.ScrollTop + m.ViewportHeight/2) / m.PixelsPerMinute
}

// Resize updates the viewport size and keeps ScrollTop within the content.
func (m *Mapper) Resize(width, height float64) {
	m.ViewportWidth, m.ViewportHeight = width, height
	m.ScrollTop = m.clampScroll(m.ScrollTop)
}

// ScrollBy moves the viewport vertically by dy pixels.
func (m *Mapper) ScrollBy(dy float64) {
	m.ScrollTop = m.clampScroll(m.ScrollTop + dy)
}

// ScrollToMinute centers the viewport on the given minute of day.
func (m *Mapper) ScrollToMinute(minute int) {
	m.ScrollTop = m.clampScroll(m.MinutesToY(minute) - m.ViewportHeight/2)
}

// SetPixelsPerMinute changes the zoom so the minute at the middle of the
// viewport stays in place. When the new scroll offset does not fit into
// the current content the change is held back until Flush, giving the
// content one render cycle to grow first. It reports whether the change was
// deferred. A newer call replaces a pending one.
func (m *Mapper) SetPixelsPerMinute(ppm float64) bool {
	if ppm <= 0 {
		return false
	}
	m.pending = nil
	change := ppm / m.PixelsPerMinute
	newScrollTop := change*m.ScrollTop + (change-1)*m.ViewportHeight*0.5
	oldHeight := m.ContentHeight()
	m.contentHeight = contentHeight(ppm)
	if newScrollTop+m.ViewportHeight > oldHeight {
		m.pending = &pendingZoom{ppm: ppm, scrollTop: newScrollTop}
		return true
	}
	m.apply(ppm, newScrollTop)
	return false
}

// Pending reports whether a zoom change waits for Flush.
func (m *Mapper) Pending() bool {
	return m.pending != nil
}

// Flush applies a deferred zoom change. It reports whether there was one.
func (m *Mapper) Flush() bool {
	if m.pending == nil {
		return false
	}
	p := m.pending
	m.pending = nil
	m.apply(p.ppm, p.scrollTop)
	return true
}

func (m *Mapper) apply(ppm, scrollTop float64) {
	m.PixelsPerMinute = ppm
	m.ScrollTop = m.clampScroll(scrollTop)
}

func (m *Mapper) clampScroll(top float64) float64 {
	limit := m.ContentHeight() - m.ViewportHeight
	if top > limit {
		top = limit
	}
	if top < 0 {
		top = 0
	}
	return top
}

// ClampMinute limits a minute of day to [0, 1440).
func ClampMinute(minute int) int {
	return ClampInt(minute, 0, MinutesPerDay-1)
}

// ClampInt limits v to [lo, hi].
func ClampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
