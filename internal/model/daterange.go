package model

import (
	"time"

	"github.com/Tiliavir/plaid/internal/timecalc"
)

// DateRange is an inclusive range of calendar days. Start and End are local
// midnights with Start <= End.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// NewDateRange normalises a and b to midnight and orders them.
func NewDateRange(a, b time.Time) DateRange {
	a, b = timecalc.StartOfDay(a), timecalc.StartOfDay(b)
	if b.Before(a) {
		a, b = b, a
	}
	return DateRange{Start: a, End: b}
}

// WeekOf returns the week containing t, limited to the weekdays first..last
// (time.Sunday == 0).
func WeekOf(t time.Time, first, last time.Weekday) DateRange {
	day := timecalc.StartOfDay(t)
	start := day.AddDate(0, 0, int(first)-int(day.Weekday()))
	end := start.AddDate(0, 0, int(last)-int(first))
	return NewDateRange(start, end)
}

// Len returns the number of days in the range.
func (r DateRange) Len() int {
	if r.Start.IsZero() {
		return 0
	}
	return timecalc.DaysBetween(r.Start, r.End) + 1
}

// Days returns the midnight of every day in the range.
func (r DateRange) Days() []time.Time {
	n := r.Len()
	days := make([]time.Time, 0, n)
	for i := 0; i < n; i++ {
		days = append(days, r.Start.AddDate(0, 0, i))
	}
	return days
}

// Index returns the position of t's calendar day within the range, or -1.
func (r DateRange) Index(t time.Time) int {
	if r.Start.IsZero() {
		return -1
	}
	i := timecalc.DaysBetween(r.Start, t)
	if i < 0 || i >= r.Len() {
		return -1
	}
	return i
}

// Contains reports whether t's calendar day lies in the range.
func (r DateRange) Contains(t time.Time) bool {
	return r.Index(t) >= 0
}

// Covers reports whether o is a sub-range of r.
func (r DateRange) Covers(o DateRange) bool {
	return r.Contains(o.Start) && r.Contains(o.End)
}

// Equal reports whether both ranges denote the same days.
func (r DateRange) Equal(o DateRange) bool {
	return r.Start.Equal(o.Start) && r.End.Equal(o.End)
}

// Shift moves the range by the given number of days.
func (r DateRange) Shift(days int) DateRange {
	return DateRange{Start: r.Start.AddDate(0, 0, days), End: r.End.AddDate(0, 0, days)}
}

// Until returns the exclusive upper bound: midnight after End.
func (r DateRange) Until() time.Time {
	return timecalc.NextDay(r.End)
}

func (r DateRange) String() string {
	return timecalc.FormatDateRange(r.Start, r.End)
}
