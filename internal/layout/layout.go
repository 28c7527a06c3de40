// Package layout buckets work logs into days and assigns each one a column
// within its overlap cluster so overlapping blocks render side by side.
package layout

import (
	"sort"
	"time"

	"github.com/Tiliavir/plaid/internal/model"
	"github.com/Tiliavir/plaid/internal/timecalc"
)

// Placement is the column assignment of one work log. Column is zero-based
// and always less than Columns.
type Placement struct {
	Column  int
	Columns int
}

// Slot is a work log together with its placement in the day grid.
type Slot struct {
	Worklog model.Worklog
	Column  int
	Columns int
}

// Day holds the laid-out work logs starting on Date, ordered by start.
type Day struct {
	Date  time.Time
	Slots []Slot
}

// Total returns the summed logged time of the day in seconds.
func (d Day) Total() int64 {
	var sum int64
	for _, s := range d.Slots {
		sum += s.Worklog.TimeSpentSeconds
	}
	return sum
}

// TotalLabel returns Total formatted as "7h 30m".
func (d Day) TotalLabel() string {
	return timecalc.FormatPeriod(d.Total())
}

// Place assigns columns to ws, which must be sorted by start. The result is
// parallel to ws.
//
// The first pass packs every work log into the lowest free column and records
// overlap clusters (sections) with their widest column. The second pass gives
// each work log the column count of the section it belongs to.
func Place(ws []model.Worklog) []Placement {
	out := make([]Placement, len(ws))
	if len(ws) == 0 {
		return out
	}

	var (
		columnsLastEnd   []time.Time
		sectionSize      []int
		sectionMaxColumn []int
		lastEnd          time.Time
	)
	for i, w := range ws {
		c := 0
		for c < len(columnsLastEnd) && columnsLastEnd[c].After(w.Started) {
			c++
		}
		if c == len(columnsLastEnd) {
			columnsLastEnd = append(columnsLastEnd, time.Time{})
		}
		columnsLastEnd[c] = w.End()

		if w.Started.Before(lastEnd) {
			last := len(sectionSize) - 1
			sectionSize[last]++
			sectionMaxColumn[last] = max(sectionMaxColumn[last], c)
		} else {
			sectionSize = append(sectionSize, 1)
			sectionMaxColumn = append(sectionMaxColumn, c)
		}
		if columnsLastEnd[c].After(lastEnd) {
			lastEnd = columnsLastEnd[c]
		}
		out[i].Column = c
	}

	cursor := 0
	for i := range out {
		for sectionSize[cursor] == 0 {
			cursor++
		}
		out[i].Columns = sectionMaxColumn[cursor] + 1
		sectionSize[cursor]--
	}
	return out
}

// Split drops work logs that do not start inside r, buckets the rest by the
// day they start on and lays out every day. Work logs with equal start keep
// their input order. The result has one Day per day of r.
func Split(ws []model.Worklog, r model.DateRange) []Day {
	days := make([]Day, r.Len())
	for i, d := range r.Days() {
		days[i].Date = d
	}
	if len(days) == 0 {
		return days
	}

	sorted := make([]model.Worklog, 0, len(ws))
	until := r.Until()
	loc := r.Start.Location()
	for _, w := range ws {
		if w.Started.Before(r.Start) || !w.Started.Before(until) {
			continue
		}
		// Day files keep the offset they were written with; read wall
		// clock times in the zone of the range.
		w.Started = w.Started.In(loc)
		sorted = append(sorted, w)
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Started.Before(sorted[j].Started)
	})

	buckets := make([][]model.Worklog, len(days))
	for _, w := range sorted {
		i := r.Index(w.Started)
		if i < 0 {
			continue
		}
		buckets[i] = append(buckets[i], w)
	}
	for i, bucket := range buckets {
		placements := Place(bucket)
		slots := make([]Slot, len(bucket))
		for j, w := range bucket {
			slots[j] = Slot{Worklog: w, Column: placements[j].Column, Columns: placements[j].Columns}
		}
		days[i].Slots = slots
	}
	return days
}

// Total returns the summed logged time across days in seconds.
func Total(days []Day) int64 {
	var sum int64
	for _, d := range days {
		sum += d.Total()
	}
	return sum
}
