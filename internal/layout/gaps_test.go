package layout_test

import (
	"testing"
	"time"

	"github.com/Tiliavir/plaid/internal/layout"
	"github.com/Tiliavir/plaid/internal/model"
)

var workday = layout.WorkingHours{StartMinutes: 9 * 60, EndMinutes: 17 * 60}

type span struct{ from, to string }

func gapSpans(gaps []layout.Slot) []span {
	out := make([]span, 0, len(gaps))
	for _, g := range gaps {
		out = append(out, span{g.Worklog.Started.Format("15:04"), g.Worklog.End().Format("15:04")})
	}
	return out
}

func dayOf(ws ...model.Worklog) layout.Day {
	r := model.NewDateRange(monday, monday)
	return layout.Split(ws, r)[0]
}

func TestGaps(t *testing.T) {
	evening := monday.Add(20 * time.Hour)
	tests := []struct {
		name string
		day  layout.Day
		now  time.Time
		want []span
	}{
		{
			name: "empty day",
			day:  dayOf(),
			now:  evening,
			want: []span{{"09:00", "17:00"}},
		},
		{
			name: "holes between blocks",
			day:  dayOf(wl("a", 0, 10, 0, 60), wl("b", 0, 12, 0, 30)),
			now:  evening,
			want: []span{{"09:00", "10:00"}, {"11:00", "12:00"}, {"12:30", "17:00"}},
		},
		{
			name: "blocks outside working hours",
			day:  dayOf(wl("a", 0, 7, 0, 150), wl("b", 0, 16, 30, 120)),
			now:  evening,
			want: []span{{"09:30", "16:30"}},
		},
		{
			name: "fully covered",
			day:  dayOf(wl("a", 0, 8, 0, 600)),
			now:  evening,
			want: []span{},
		},
		{
			name: "nested block does not reopen covered time",
			day:  dayOf(wl("a", 0, 9, 0, 240), wl("b", 0, 10, 0, 30), wl("c", 0, 14, 0, 60)),
			now:  evening,
			want: []span{{"13:00", "14:00"}, {"15:00", "17:00"}},
		},
		{
			name: "clamped to now rounded to five minutes",
			day:  dayOf(wl("a", 0, 9, 0, 60)),
			now:  monday.Add(11*time.Hour + 12*time.Minute + 40*time.Second),
			want: []span{{"10:00", "11:15"}},
		},
		{
			name: "future day",
			day:  dayOf(),
			now:  monday.Add(-time.Hour),
			want: []span{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gaps := layout.Gaps(tt.day, workday, tt.now)
			got := gapSpans(gaps)
			if len(got) != len(tt.want) {
				t.Fatalf("Gaps = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("gap[%d] = %v, want %v", i, got[i], tt.want[i])
				}
				if gaps[i].Column != 0 || gaps[i].Columns != 1 || gaps[i].Worklog.Issue != nil {
					t.Errorf("gap[%d] has unexpected shape %+v", i, gaps[i])
				}
			}
		})
	}
}

func TestGapsIdempotent(t *testing.T) {
	day := dayOf(wl("a", 0, 10, 0, 60))
	now := monday.Add(18 * time.Hour)
	first := gapSpans(layout.Gaps(day, workday, now))
	second := gapSpans(layout.Gaps(day, workday, now))
	if len(first) != len(second) {
		t.Fatalf("Gaps not idempotent: %v vs %v", first, second)
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("Gaps not idempotent at %d: %v vs %v", i, first[i], second[i])
		}
	}
}

func TestAllGaps(t *testing.T) {
	r := model.NewDateRange(monday, monday.AddDate(0, 0, 1))
	days := layout.Split([]model.Worklog{wl("a", 1, 9, 0, 480)}, r)
	all := layout.AllGaps(days, workday, monday.AddDate(0, 0, 2))
	if len(all) != 2 {
		t.Fatalf("AllGaps returned %d days, want 2", len(all))
	}
	if len(all[0]) != 1 || len(all[1]) != 0 {
		t.Errorf("AllGaps = %v / %v", gapSpans(all[0]), gapSpans(all[1]))
	}
}
