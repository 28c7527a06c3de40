package timecalc_test

import (
	"testing"
	"time"

	"github.com/Tiliavir/plaid/internal/timecalc"
)

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		seconds int64
		want    string
	}{
		{0, "0s"},
		{45, "45s"},
		{60, "1m"},
		{90, "1m"},
		{3600, "1h 0m"},
		{3661, "1h 1m"},
		{5400, "1h 30m"},
	}
	for _, tt := range tests {
		got := timecalc.FormatDuration(tt.seconds)
		if got != tt.want {
			t.Errorf("FormatDuration(%d) = %q, want %q", tt.seconds, got, tt.want)
		}
	}
}

func TestFormatPeriod(t *testing.T) {
	tests := []struct {
		seconds int64
		want    string
	}{
		{0, ""},
		{5, "5s"},
		{60, "1m"},
		{3600, "1h"},
		{3723, "1h 2m 3s"},
		{7205, "2h 5s"},
		{29 * 3600, "29h"},
	}
	for _, tt := range tests {
		got := timecalc.FormatPeriod(tt.seconds)
		if got != tt.want {
			t.Errorf("FormatPeriod(%d) = %q, want %q", tt.seconds, got, tt.want)
		}
	}
}

func TestFormatDateRange(t *testing.T) {
	d := func(y int, m time.Month, day int) time.Time {
		return time.Date(y, m, day, 0, 0, 0, 0, time.UTC)
	}
	tests := []struct {
		name       string
		start, end time.Time
		want       string
	}{
		{"single day", d(2026, 3, 2), d(2026, 3, 2), "Mar 2, 2026"},
		{"same month", d(2026, 3, 2), d(2026, 3, 6), "Mar 2 - 6, 2026"},
		{"same year", d(2026, 3, 30), d(2026, 4, 3), "Mar 30 - Apr 3, 2026"},
		{"across years", d(2025, 12, 29), d(2026, 1, 2), "Dec 29, '25 - Jan 2, '26"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := timecalc.FormatDateRange(tt.start, tt.end); got != tt.want {
				t.Errorf("FormatDateRange = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestISOWeekLabel(t *testing.T) {
	fri := time.Date(2026, 2, 27, 10, 0, 0, 0, time.UTC)
	got := timecalc.ISOWeekLabel(fri)
	if got != "2026-W09" {
		t.Errorf("ISOWeekLabel = %q, want %q", got, "2026-W09")
	}
}

func TestSameDay(t *testing.T) {
	a := time.Date(2026, 2, 27, 10, 0, 0, 0, time.UTC)
	b := time.Date(2026, 2, 27, 23, 59, 59, 0, time.UTC)
	c := time.Date(2026, 2, 28, 0, 0, 0, 0, time.UTC)

	if !timecalc.SameDay(a, b) {
		t.Error("SameDay: expected same day for a and b")
	}
	if timecalc.SameDay(a, c) {
		t.Error("SameDay: expected different day for a and c")
	}
}

func TestDaysBetween(t *testing.T) {
	a := time.Date(2026, 2, 27, 23, 0, 0, 0, time.UTC)
	b := time.Date(2026, 3, 2, 1, 0, 0, 0, time.UTC)
	if got := timecalc.DaysBetween(a, b); got != 3 {
		t.Errorf("DaysBetween = %d, want 3", got)
	}
	if got := timecalc.DaysBetween(b, a); got != -3 {
		t.Errorf("DaysBetween reversed = %d, want -3", got)
	}
}

func TestMinuteArithmetic(t *testing.T) {
	ts := time.Date(2026, 2, 27, 9, 41, 33, 500, time.UTC)
	if got := timecalc.MinuteOfDay(ts); got != 9*60+41 {
		t.Errorf("MinuteOfDay = %d, want %d", got, 9*60+41)
	}
	if got := timecalc.TruncateToMinute(ts); !got.Equal(time.Date(2026, 2, 27, 9, 41, 0, 0, time.UTC)) {
		t.Errorf("TruncateToMinute = %v", got)
	}
	if got := timecalc.TruncateToSecond(ts); !got.Equal(time.Date(2026, 2, 27, 9, 41, 33, 0, time.UTC)) {
		t.Errorf("TruncateToSecond = %v", got)
	}
	if got := timecalc.AtMinute(ts, timecalc.MinutesPerDay); !got.Equal(time.Date(2026, 2, 28, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("AtMinute(1440) = %v, want next midnight", got)
	}
	if got := timecalc.NextDay(ts); !got.Equal(time.Date(2026, 2, 28, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("NextDay = %v", got)
	}
}

func TestRoundTo(t *testing.T) {
	tests := []struct {
		in, want time.Time
	}{
		{time.Date(2026, 2, 27, 10, 2, 29, 0, time.UTC), time.Date(2026, 2, 27, 10, 0, 0, 0, time.UTC)},
		{time.Date(2026, 2, 27, 10, 2, 30, 0, time.UTC), time.Date(2026, 2, 27, 10, 5, 0, 0, time.UTC)},
		{time.Date(2026, 2, 27, 10, 7, 0, 0, time.UTC), time.Date(2026, 2, 27, 10, 5, 0, 0, time.UTC)},
		{time.Date(2026, 2, 27, 23, 58, 0, 0, time.UTC), time.Date(2026, 2, 28, 0, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		if got := timecalc.RoundTo(tt.in, 5*time.Minute); !got.Equal(tt.want) {
			t.Errorf("RoundTo(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestGenerateID(t *testing.T) {
	ts := time.Date(2026, 2, 27, 8, 32, 10, 0, time.UTC)
	id := timecalc.GenerateID(ts)
	if len(id) != len("20260227-083210-xxxxx") {
		t.Errorf("GenerateID length = %d, want %d", len(id), len("20260227-083210-xxxxx"))
	}
	if id[:15] != "20260227-083210" {
		t.Errorf("GenerateID prefix = %q, want %q", id[:15], "20260227-083210")
	}
}
