package geometry

import (
	"math"
	"time"

	"github.com/Tiliavir/plaid/internal/model"
	"github.com/Tiliavir/plaid/internal/timecalc"
)

// Rect positions a panel. Left and Width are fractions of the day column
// width (or of the whole grid for editor panels), Top and Height are pixels.
type Rect struct {
	Left   float64
	Width  float64
	Top    float64
	Height float64
}

// Bottom returns Top + Height.
func (r Rect) Bottom() float64 {
	return r.Top + r.Height
}

// SlotRect places a block starting at minuteOfDay for durationMinutes in the
// given column. The height never extends past minute 1440.
func (m *Mapper) SlotRect(minuteOfDay, durationMinutes, column, columns int) Rect {
	if columns < 1 {
		columns = 1
	}
	top := m.MinutesToY(minuteOfDay)
	height := math.Min(float64(durationMinutes)*m.PixelsPerMinute, MinutesPerDay*m.PixelsPerMinute-top)
	width := 1 / float64(columns)
	return Rect{
		Left:   float64(column) * width,
		Width:  width,
		Top:    top,
		Height: math.Max(0, height),
	}
}

// WorklogRect places w within its day column.
func (m *Mapper) WorklogRect(w model.Worklog, column, columns int) Rect {
	minutes := int(math.Round(float64(w.TimeSpentSeconds) / 60))
	return m.SlotRect(timecalc.MinuteOfDay(w.Started), minutes, column, columns)
}

// Marker is the current-time indicator.
type Marker struct {
	Top      float64
	DayIndex int
	Visible  bool
	Label    string
}

// Marker locates now on the grid showing r.
func (m *Mapper) Marker(now time.Time, r model.DateRange) Marker {
	minutes := float64(timecalc.MinuteOfDay(now)) + float64(now.Second())/60
	idx := timecalc.DaysBetween(r.Start, now)
	return Marker{
		Top:      math.Round(minutes * m.PixelsPerMinute),
		DayIndex: idx,
		Visible:  idx >= 0 && idx < r.Len(),
		Label:    timecalc.FormatClock(now),
	}
}
