package model_test

import (
	"testing"
	"time"

	"github.com/Tiliavir/plaid/internal/model"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestWeekOf(t *testing.T) {
	// 2026-03-04 is a Wednesday.
	wed := time.Date(2026, 3, 4, 15, 30, 0, 0, time.UTC)
	tests := []struct {
		name        string
		first, last time.Weekday
		wantStart   time.Time
		wantEnd     time.Time
	}{
		{"working week", time.Monday, time.Friday, day(2026, 3, 2), day(2026, 3, 6)},
		{"full week", time.Sunday, time.Saturday, day(2026, 3, 1), day(2026, 3, 7)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := model.WeekOf(wed, tt.first, tt.last)
			if !r.Start.Equal(tt.wantStart) || !r.End.Equal(tt.wantEnd) {
				t.Errorf("WeekOf = %v..%v, want %v..%v", r.Start, r.End, tt.wantStart, tt.wantEnd)
			}
		})
	}
}

func TestDateRange(t *testing.T) {
	r := model.NewDateRange(time.Date(2026, 3, 6, 12, 0, 0, 0, time.UTC), day(2026, 3, 2))
	if !r.Start.Equal(day(2026, 3, 2)) {
		t.Fatalf("NewDateRange did not order bounds: %v", r.Start)
	}
	if r.Len() != 5 {
		t.Errorf("Len = %d, want 5", r.Len())
	}
	if got := len(r.Days()); got != 5 {
		t.Errorf("Days = %d entries, want 5", got)
	}
	if got := r.Index(time.Date(2026, 3, 4, 23, 59, 0, 0, time.UTC)); got != 2 {
		t.Errorf("Index = %d, want 2", got)
	}
	if r.Contains(day(2026, 3, 7)) {
		t.Error("Contains: day after End reported inside")
	}
	if !r.Covers(model.NewDateRange(day(2026, 3, 3), day(2026, 3, 4))) {
		t.Error("Covers: sub-range not covered")
	}
	if r.Covers(model.NewDateRange(day(2026, 3, 5), day(2026, 3, 9))) {
		t.Error("Covers: overlapping range reported as covered")
	}
	if !r.Shift(7).Start.Equal(day(2026, 3, 9)) {
		t.Errorf("Shift(7) start = %v", r.Shift(7).Start)
	}
	if !r.Until().Equal(day(2026, 3, 7)) {
		t.Errorf("Until = %v", r.Until())
	}
}

func TestIssueHue(t *testing.T) {
	tests := []struct {
		issue *model.Issue
		want  int
	}{
		{nil, 0},
		{&model.Issue{ID: "10000"}, 128},
		{&model.Issue{ID: "10001", ParentID: "10000"}, 128},
		{&model.Issue{ID: "not-a-number"}, 0},
	}
	for _, tt := range tests {
		if got := tt.issue.Hue(); got != tt.want {
			t.Errorf("Hue(%+v) = %d, want %d", tt.issue, got, tt.want)
		}
	}
}

func TestWorklogEnd(t *testing.T) {
	w := model.Worklog{Started: time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC), TimeSpentSeconds: 5400}
	if !w.End().Equal(time.Date(2026, 3, 2, 10, 30, 0, 0, time.UTC)) {
		t.Errorf("End = %v", w.End())
	}
	if !w.IsNew() {
		t.Error("IsNew: worklog without ID should be new")
	}
}
