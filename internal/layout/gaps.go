package layout

import (
	"time"

	"github.com/Tiliavir/plaid/internal/model"
	"github.com/Tiliavir/plaid/internal/timecalc"
)

// GapRefreshInterval is how often gap hints are recomputed so the "now"
// bound keeps moving.
const GapRefreshInterval = time.Minute

// WorkingHours is the daily window gaps are suggested in, in minutes since
// midnight, end exclusive.
type WorkingHours struct {
	StartMinutes int
	EndMinutes   int
}

// Gaps returns the uncovered stretches of the working hours of day, bounded
// by now rounded to the nearest five minutes. Gaps are slots holding an
// unsaved, issue-less work log in a single column.
func Gaps(day Day, hours WorkingHours, now time.Time) []Slot {
	dayStart := timecalc.StartOfDay(day.Date)
	dayEnd := timecalc.NextDay(dayStart)
	workStart := timecalc.AtMinute(dayStart, hours.StartMinutes)
	workEnd := timecalc.AtMinute(dayStart, hours.EndMinutes)
	limit := timecalc.RoundTo(now, 5*time.Minute)

	var gaps []Slot
	emit := func(start, end time.Time) {
		if !end.After(dayStart) || !start.Before(dayEnd) {
			return
		}
		if start.Before(workStart) {
			start = workStart
		}
		if end.After(workEnd) {
			end = workEnd
		}
		if end.After(limit) {
			end = limit
		}
		if !end.After(start) {
			return
		}
		gaps = append(gaps, Slot{
			Worklog: model.Worklog{
				Started:          start,
				TimeSpentSeconds: int64(end.Sub(start) / time.Second),
			},
			Column:  0,
			Columns: 1,
		})
	}

	gapStart := dayStart
	for _, s := range day.Slots {
		emit(gapStart, s.Worklog.Started)
		if end := s.Worklog.End(); end.After(gapStart) {
			gapStart = end
		}
	}
	emit(gapStart, workEnd)
	return gaps
}

// AllGaps computes Gaps for every day.
func AllGaps(days []Day, hours WorkingHours, now time.Time) [][]Slot {
	out := make([][]Slot, len(days))
	for i, d := range days {
		out[i] = Gaps(d, hours, now)
	}
	return out
}
