package tui

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/Tiliavir/plaid/internal/geometry"
	"github.com/Tiliavir/plaid/internal/layout"
	"github.com/Tiliavir/plaid/internal/model"
	"github.com/Tiliavir/plaid/internal/timecalc"
)

type cell struct {
	r     rune
	style int
}

// canvas is the grid area as runes with an index into a style table.
type canvas struct {
	w, h   int
	cells  []cell
	styles []lipgloss.Style
}

func newCanvas(w, h int, base lipgloss.Style) *canvas {
	c := &canvas{w: w, h: h, cells: make([]cell, w*h), styles: []lipgloss.Style{base}}
	for i := range c.cells {
		c.cells[i] = cell{r: ' '}
	}
	return c
}

func (c *canvas) addStyle(s lipgloss.Style) int {
	c.styles = append(c.styles, s)
	return len(c.styles) - 1
}

func (c *canvas) fill(x0, y0, x1, y1 int, r rune, style int) {
	x0, x1 = max(x0, 0), min(x1, c.w)
	y0, y1 = max(y0, 0), min(y1, c.h)
	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			c.cells[y*c.w+x] = cell{r: r, style: style}
		}
	}
}

// text writes s from x on row y, clipped at limit.
func (c *canvas) text(x, y, limit int, s string, style int) {
	if y < 0 || y >= c.h {
		return
	}
	limit = min(limit, c.w)
	for _, r := range s {
		if x >= limit {
			return
		}
		if x >= 0 && runewidth.RuneWidth(r) == 1 {
			c.cells[y*c.w+x] = cell{r: r, style: style}
		}
		x++
	}
}

func (c *canvas) row(y int) string {
	var b strings.Builder
	start := 0
	line := c.cells[y*c.w : (y+1)*c.w]
	for x := 1; x <= len(line); x++ {
		if x < len(line) && line[x].style == line[start].style {
			continue
		}
		runes := make([]rune, 0, x-start)
		for _, cl := range line[start:x] {
			runes = append(runes, cl.r)
		}
		b.WriteString(c.styles[line[start].style].Render(string(runes)))
		start = x
	}
	return b.String()
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString(m.titleView())
	b.WriteByte('\n')
	b.WriteString(m.dayHeaderView())
	b.WriteByte('\n')

	gutter := m.gutterLabels()
	grid := m.gridCanvas()
	for y := 0; y < grid.h; y++ {
		b.WriteString(m.styles.gutter.Render(fmt.Sprintf("%-*s", gutterWidth, gutter[y])))
		b.WriteString(grid.row(y))
		b.WriteByte('\n')
	}
	b.WriteString(m.statusView())
	b.WriteByte('\n')
	b.WriteString(m.help.ShortHelpView(m.bindings()))
	return b.String()
}

func (m *Model) titleView() string {
	r := m.pl.Range.Get()
	parts := []string{
		"plaid",
		r.String() + " (" + timecalc.ISOWeekLabel(r.Start) + ")",
		"Total " + timecalc.FormatDuration(layout.Total(m.pl.Days())),
	}
	if u := m.pl.User.Get(); u != nil {
		parts = append(parts, u.DisplayName)
	} else {
		parts = append(parts, "signed out")
	}
	if m.fetching {
		parts = append(parts, "loading…")
	}
	return m.styles.header.Render(runewidth.Truncate(strings.Join(parts, "  ·  "), m.width, "…"))
}

func (m *Model) dayHeaderView() string {
	mp := m.pl.Mapper()
	now := m.now()
	var b strings.Builder
	b.WriteString(strings.Repeat(" ", gutterWidth))
	for i, d := range m.pl.Days() {
		x0, x1 := m.dayBounds(mp, i)
		w := x1 - x0
		if w <= 0 {
			continue
		}
		label := d.Date.Format("Mon 02")
		if total := d.Total(); total > 0 {
			label += " " + d.TotalLabel()
		}
		label = runewidth.FillRight(runewidth.Truncate(label, w-1, "…"), w)
		style := m.styles.dayHead
		if timecalc.SameDay(d.Date, now) {
			style = m.styles.today
		}
		b.WriteString(style.Render(label))
	}
	return b.String()
}

// dayBounds returns the terminal columns [x0, x1) of day index i.
func (m *Model) dayBounds(mp *geometry.Mapper, i int) (int, int) {
	return int(math.Round(mp.DayIndexToX(i))), int(math.Round(mp.DayIndexToX(i + 1)))
}

// rowSpan converts a pixel span to terminal rows [y0, y1), at least one row.
func rowSpan(mp *geometry.Mapper, top, height float64) (int, int) {
	y0 := int(math.Floor((top - mp.ScrollTop) / pixelsPerRow))
	y1 := int(math.Ceil((top + height - mp.ScrollTop) / pixelsPerRow))
	if y1 <= y0 {
		y1 = y0 + 1
	}
	return y0, y1
}

func (m *Model) rowMinute(mp *geometry.Mapper, row int) float64 {
	return (mp.ScrollTop + float64(row)*pixelsPerRow) / mp.PixelsPerMinute
}

func (m *Model) gutterLabels() []string {
	mp := m.pl.Mapper()
	rows := m.gridRows()
	labels := make([]string, rows)
	for y := range rows {
		from, to := m.rowMinute(mp, y), m.rowMinute(mp, y+1)
		hour := math.Ceil(from/60) * 60
		if hour < to && hour < timecalc.MinutesPerDay {
			labels[y] = fmt.Sprintf("%02d:00", int(hour)/60)
		}
	}
	if mk := mp.Marker(m.now(), m.pl.Range.Get()); mk.Visible {
		if y, _ := rowSpan(mp, mk.Top, 0); y >= 0 && y < rows {
			labels[y] = mk.Label
		}
	}
	return labels
}

func (m *Model) gridCanvas() *canvas {
	mp := m.pl.Mapper()
	c := newCanvas(m.gridWidth(), m.gridRows(), m.styles.grid)
	working := c.addStyle(m.styles.working)
	gapStyle := c.addStyle(m.styles.gap)
	markerStyle := c.addStyle(m.styles.marker)

	hours := m.pl.Prefs().WorkingHours()
	for y := 0; y < c.h; y++ {
		minute := m.rowMinute(mp, y)
		if minute >= float64(hours.StartMinutes) && minute < float64(hours.EndMinutes) {
			c.fill(0, y, c.w, y+1, ' ', working)
		}
	}

	for i, gaps := range m.pl.Gaps() {
		x0, x1 := m.dayBounds(mp, i)
		for _, g := range gaps {
			r := mp.WorklogRect(g.Worklog, 0, 1)
			y0, y1 := rowSpan(mp, r.Top, r.Height)
			c.fill(x0+1, y0, x1-1, y1, '·', gapStyle)
			c.text(x0+1, y0, x1-1, "+ "+timecalc.FormatDuration(g.Worklog.TimeSpentSeconds), gapStyle)
		}
	}

	draft, editing := m.pl.Editor().Draft()
	for i, d := range m.pl.Days() {
		x0, x1 := m.dayBounds(mp, i)
		dayW := float64(x1 - x0)
		for _, s := range d.Slots {
			w := s.Worklog
			if editing && !draft.Adding && w.ID == draft.Original.ID {
				continue
			}
			r := mp.WorklogRect(w, s.Column, s.Columns)
			sx0 := x0 + int(math.Round(r.Left*dayW))
			sx1 := x0 + int(math.Round((r.Left+r.Width)*dayW))
			if sx1-sx0 > 2 {
				sx1--
			}
			style := m.styles.issueStyle(w.Issue)
			if w.ID == m.selected {
				style = style.Inherit(m.styles.selected).Reverse(true)
			}
			if m.pl.Service().IsDeleting(w.ID) {
				style = style.Faint(true)
			}
			idx := c.addStyle(style)
			y0, y1 := rowSpan(mp, r.Top, r.Height)
			c.fill(sx0, y0, sx1, y1, ' ', idx)
			m.blockText(c, sx0, y0, sx1, y1, w, idx)
		}
	}

	if mk := mp.Marker(m.now(), m.pl.Range.Get()); mk.Visible {
		x0, x1 := m.dayBounds(mp, mk.DayIndex)
		y, _ := rowSpan(mp, mk.Top, 0)
		for x := max(x0, 0); x < min(x1, c.w); x++ {
			if y >= 0 && y < c.h && c.cells[y*c.w+x].r == ' ' {
				c.cells[y*c.w+x] = cell{r: '─', style: markerStyle}
			}
		}
	}

	if editing {
		if rect, ok := m.pl.Editor().Panel(); ok {
			gw := float64(c.w)
			x0 := int(math.Round(rect.Left * gw))
			x1 := int(math.Round((rect.Left + rect.Width) * gw))
			y0, y1 := rowSpan(mp, rect.Top, rect.Height)
			idx := c.addStyle(m.styles.draft)
			c.fill(x0, y0, x1, y1, ' ', idx)
			m.blockText(c, x0, y0, x1, y1, draft.Worklog(), idx)
		}
	}
	return c
}

// blockText writes the issue and times of w on the first row of its block
// and the comment or summary on the following ones.
func (m *Model) blockText(c *canvas, x0, y0, x1, y1 int, w model.Worklog, style int) {
	head := timecalc.FormatClock(w.Started) + " " + issueLabel(w)
	c.text(x0+1, y0, x1, head, style)
	if y1-y0 < 2 {
		return
	}
	detail := w.Comment
	if detail == "" && w.Issue != nil {
		detail = w.Issue.Summary
	}
	c.text(x0+1, y0+1, x1, detail, style)
	if y1-y0 >= 3 {
		c.text(x0+1, y0+2, x1, timecalc.FormatDuration(w.TimeSpentSeconds), style)
	}
}

func issueLabel(w model.Worklog) string {
	if w.Issue != nil {
		return w.Issue.Key
	}
	if w.IssueID != "" {
		return w.IssueID
	}
	return "(no issue)"
}

func (m *Model) bindings() []key.Binding {
	if m.editing() {
		return m.keys.editHelp()
	}
	return m.keys.ShortHelp()
}

func (m *Model) statusView() string {
	if m.mode != inputNone {
		return m.input.View()
	}
	if m.err != nil {
		return m.styles.errText.Render(runewidth.Truncate("Error: "+m.err.Error(), m.width, "…"))
	}
	if d, ok := m.pl.Editor().Draft(); ok {
		verb := "Editing"
		if d.Adding {
			verb = "Adding"
		}
		line := fmt.Sprintf("%s %s  %s %s-%s (%s)", verb, issueLabel(d.Worklog()),
			d.Start.Format("Mon 02 Jan"), timecalc.FormatClock(d.Start), timecalc.FormatClock(d.End()),
			timecalc.FormatDuration(int64(d.DurationMinutes)*60))
		if d.Comment != "" {
			line += "  " + d.Comment
		}
		if m.pl.Editor().Saving() {
			line += "  saving…"
		}
		return m.styles.status.Render(runewidth.Truncate(line, m.width, "…"))
	}
	return m.styles.status.Render(runewidth.Truncate(m.status, m.width, "…"))
}
