package timecalc

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"
)

// MinutesPerDay is the length of a calendar day in minutes.
const MinutesPerDay = 24 * 60

// GenerateID creates a unique work-log ID based on timestamp and random suffix.
func GenerateID(t time.Time) string {
	const chars = "abcdefghijklmnopqrstuvwxyz0123456789"
	suffix := make([]byte, 5)
	for i := range suffix {
		n, _ := rand.Int(rand.Reader, big.NewInt(int64(len(chars))))
		suffix[i] = chars[n.Int64()]
	}
	return fmt.Sprintf("%s-%s", t.Format("20060102-150405"), string(suffix))
}

// FormatDuration formats seconds as a human-readable string like "1h 40m" or "45m" or "30s".
func FormatDuration(seconds int64) string {
	h := seconds / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60
	if h > 0 {
		return fmt.Sprintf("%dh %dm", h, m)
	}
	if m > 0 {
		return fmt.Sprintf("%dm", m)
	}
	return fmt.Sprintf("%ds", s)
}

// FormatPeriod formats seconds as "1h 2m 3s", leaving out zero components.
// Zero seconds yields an empty string.
func FormatPeriod(seconds int64) string {
	h := seconds / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60
	parts := make([]string, 0, 3)
	if h > 0 {
		parts = append(parts, fmt.Sprintf("%dh", h))
	}
	if m > 0 {
		parts = append(parts, fmt.Sprintf("%dm", m))
	}
	if s > 0 {
		parts = append(parts, fmt.Sprintf("%ds", s))
	}
	return strings.Join(parts, " ")
}

// FormatClock formats a time of day as "15:04".
func FormatClock(t time.Time) string {
	return t.Format("15:04")
}

// FormatDateRange renders an inclusive date range compactly:
// "Mar 2, 2026", "Mar 2 - 6, 2026", "Mar 30 - Apr 3, 2026" or
// "Dec 29, '25 - Jan 2, '26".
func FormatDateRange(start, end time.Time) string {
	switch {
	case SameDay(start, end):
		return start.Format("Jan 2, 2006")
	case start.Year() == end.Year() && start.Month() == end.Month():
		return start.Format("Jan 2 - ") + end.Format("2, 2006")
	case start.Year() == end.Year():
		return start.Format("Jan 2 - ") + end.Format("Jan 2, 2006")
	default:
		return start.Format("Jan 2, '06 - ") + end.Format("Jan 2, '06")
	}
}

// ISOWeekLabel returns a label like "2026-W09".
func ISOWeekLabel(t time.Time) string {
	year, week := t.ISOWeek()
	return fmt.Sprintf("%d-W%02d", year, week)
}

// NextDay returns the start of the next day (midnight) in the same location.
func NextDay(t time.Time) time.Time {
	next := t.AddDate(0, 0, 1)
	return time.Date(next.Year(), next.Month(), next.Day(), 0, 0, 0, 0, t.Location())
}

// StartOfDay returns 00:00:00 of the same day.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// SameDay reports whether two times fall on the same calendar day.
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// DaysBetween counts calendar days from a to b, ignoring the time of day and
// DST shifts.
func DaysBetween(a, b time.Time) int {
	ua := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	ub := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(ub.Sub(ua).Hours() / 24)
}

// TruncateToMinute drops seconds and sub-second precision.
func TruncateToMinute(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), 0, 0, t.Location())
}

// TruncateToSecond drops sub-second precision.
func TruncateToSecond(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, t.Location())
}

// MinuteOfDay returns the wall-clock minutes since midnight.
func MinuteOfDay(t time.Time) int {
	return t.Hour()*60 + t.Minute()
}

// AtMinute returns the wall-clock time on day's calendar date at the given
// minute of day. Minute 1440 is the next midnight.
func AtMinute(day time.Time, minute int) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), 0, minute, 0, 0, day.Location())
}

// RoundTo rounds t to the nearest multiple of d in t's location, halves
// rounding up.
func RoundTo(t time.Time, d time.Duration) time.Time {
	if d <= 0 {
		return t
	}
	day := StartOfDay(t)
	offset := t.Sub(day)
	rounded := (offset + d/2) / d * d
	return day.Add(rounded)
}
