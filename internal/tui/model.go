// Package tui is the interactive week grid: work logs as coloured blocks
// per day, gap hints, the current-time marker and an editor driven by keys
// and the mouse.
package tui

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Tiliavir/plaid/internal/editor"
	"github.com/Tiliavir/plaid/internal/geometry"
	"github.com/Tiliavir/plaid/internal/layout"
	"github.com/Tiliavir/plaid/internal/model"
	"github.com/Tiliavir/plaid/internal/planner"
	"github.com/Tiliavir/plaid/internal/prefs"
	"github.com/Tiliavir/plaid/internal/timecalc"
)

const (
	// pixelsPerRow is how many grid pixels one terminal row shows.
	pixelsPerRow = 15.0
	gutterWidth  = 6
	headerRows   = 2
	footerRows   = 2
	// keyStep is the minute step of keyboard moves and resizes.
	keyStep = 15
)

type inputMode int

const (
	inputNone inputMode = iota
	inputComment
	inputIssue
)

type (
	listChangedMsg struct{}
	fetchingMsg    bool
	errMsg         struct{ err error }
	gapsTickMsg    struct{}
	closedMsg      editor.CloseEvent
	themeMsg       prefs.Theme
	flushMsg       struct{}

	savedMsg struct {
		w   model.Worklog
		err error
	}
	deletedMsg struct {
		w   model.Worklog
		err error
	}
	issueMsg struct {
		key   string
		issue *model.Issue
		err   error
	}
)

// Options configures the grid.
type Options struct {
	Context context.Context
	Now     func() time.Time
}

// Model is the bubbletea model of the week grid.
type Model struct {
	pl     *planner.Planner
	ctx    context.Context
	now    func() time.Time
	keys   keyMap
	help   help.Model
	styles styles
	input  textinput.Model

	events chan tea.Msg
	unsubs []func()

	width, height int
	sized         bool
	fetching      bool
	mode          inputMode
	selected      string
	gesture       *editor.Gesture
	status        string
	err           error
}

// New creates the grid for pl.
func New(pl *planner.Planner, opts Options) *Model {
	if opts.Context == nil {
		opts.Context = context.Background()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	in := textinput.New()
	in.CharLimit = 500
	in.Width = 50
	in.Cursor.SetMode(cursor.CursorStatic)

	m := &Model{
		pl:     pl,
		ctx:    opts.Context,
		now:    opts.Now,
		keys:   defaultKeyMap(),
		help:   help.New(),
		styles: newStyles(pl.Prefs().Theme.Get()),
		input:  in,
		events: make(chan tea.Msg, 64),
	}
	send := m.send
	m.unsubs = append(m.unsubs,
		pl.Service().List().Subscribe(func([]model.Worklog) { send(listChangedMsg{}) }),
		pl.Service().List().SubscribeFetching(func(v bool) { send(fetchingMsg(v)) }),
		pl.Errors.Subscribe(func(err error) { send(errMsg{err}) }),
		pl.GapsTick.Subscribe(func(time.Time) { send(gapsTickMsg{}) }),
		pl.Editor().OnClose(func(ev editor.CloseEvent) { send(closedMsg(ev)) }),
		pl.Prefs().Theme.Subscribe(func(t prefs.Theme) { send(themeMsg(t)) }),
	)
	return m
}

// send queues an event for the program without blocking the publisher.
func (m *Model) send(msg tea.Msg) {
	select {
	case m.events <- msg:
	default:
	}
}

func (m *Model) waitForEvent() tea.Cmd {
	ch := m.events
	return func() tea.Msg { return <-ch }
}

// Close drops the subscriptions.
func (m *Model) Close() {
	for _, fn := range m.unsubs {
		fn()
	}
	m.unsubs = nil
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return m.waitForEvent()
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case tea.KeyMsg:
		if m.mode != inputNone {
			return m.updateInput(msg)
		}
		return m.updateKey(msg)

	case tea.MouseMsg:
		return m.updateMouse(msg)

	case listChangedMsg, gapsTickMsg:
		return m, m.waitForEvent()

	case fetchingMsg:
		m.fetching = bool(msg)
		return m, m.waitForEvent()

	case errMsg:
		m.err = msg.err
		return m, m.waitForEvent()

	case themeMsg:
		m.styles = newStyles(prefs.Theme(msg))
		return m, m.waitForEvent()

	case closedMsg:
		m.endGesture()
		m.closeInput()
		if msg.Reason == editor.CloseSaved {
			m.selected = msg.Worklog.ID
		}
		return m, m.waitForEvent()

	case savedMsg:
		switch {
		case errors.Is(msg.err, editor.ErrStale):
		case msg.err != nil:
			m.err = msg.err
		default:
			m.err = nil
			m.status = "Saved " + describe(msg.w)
		}
		return m, nil

	case deletedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.err = nil
		if m.selected == msg.w.ID {
			m.selected = ""
		}
		m.status = "Deleted " + describe(msg.w)
		return m, nil

	case issueMsg:
		switch {
		case msg.err != nil:
			m.err = msg.err
		case msg.issue == nil:
			m.err = fmt.Errorf("issue %s not found", msg.key)
		default:
			if err := m.pl.Editor().SelectIssue(msg.issue); err != nil {
				m.err = err
			} else {
				m.err = nil
			}
		}
		return m, nil

	case flushMsg:
		m.pl.Mapper().Flush()
		return m, nil
	}
	return m, nil
}

func (m *Model) resize(width, height int) {
	m.width, m.height = width, height
	m.help.Width = width
	mp := m.pl.Mapper()
	mp.Resize(float64(m.gridWidth()), float64(m.gridRows())*pixelsPerRow)
	if !m.sized {
		m.sized = true
		h := m.pl.Prefs().WorkingHours()
		mp.ScrollToMinute((h.StartMinutes + h.EndMinutes) / 2)
	}
}

func (m *Model) gridWidth() int { return max(0, m.width-gutterWidth) }

func (m *Model) gridRows() int { return max(0, m.height-headerRows-footerRows) }

func (m *Model) editing() bool {
	_, ok := m.pl.Editor().Draft()
	return ok
}

func (m *Model) updateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	ed := m.pl.Editor()
	k := m.keys
	switch {
	case key.Matches(msg, k.ForceQuit), key.Matches(msg, k.Quit):
		m.endGesture()
		return m, tea.Quit

	case key.Matches(msg, k.PrevWeek):
		m.pl.PrevWeek()
	case key.Matches(msg, k.NextWeek):
		m.pl.NextWeek()
	case key.Matches(msg, k.Today):
		m.pl.Today()
	case key.Matches(msg, k.Refresh):
		m.err = nil
		m.pl.Reload()

	case key.Matches(msg, k.ZoomIn):
		if m.pl.Zoom().CanZoomIn() {
			return m, m.zoom(m.pl.Zoom().In())
		}
	case key.Matches(msg, k.ZoomOut):
		if m.pl.Zoom().CanZoomOut() {
			return m, m.zoom(m.pl.Zoom().Out())
		}

	case key.Matches(msg, k.Add):
		if !m.editing() {
			m.pl.AddInView()
		}

	case key.Matches(msg, k.Enter):
		if m.editing() {
			return m, m.save()
		}
		if w, ok := m.selectedWorklog(); ok {
			m.pl.Edit(w)
		}

	case key.Matches(msg, k.Escape):
		if ed.Escape() == editor.FocusNone {
			m.selected = ""
		}

	case key.Matches(msg, k.Comment):
		if d, ok := ed.Draft(); ok {
			m.mode = inputComment
			m.input.Placeholder = "Comment"
			m.input.SetValue(d.Comment)
			return m, m.input.Focus()
		}

	case key.Matches(msg, k.Issue):
		if d, ok := ed.Draft(); ok && d.Adding && ed.ToggleIssuePicker() {
			m.mode = inputIssue
			m.input.Placeholder = "Issue key, e.g. PLD-12"
			m.input.SetValue("")
			return m, m.input.Focus()
		}

	case key.Matches(msg, k.Delete):
		if w, ok := m.deleteTarget(); ok {
			return m, m.remove(w)
		}

	case key.Matches(msg, k.Up):
		m.nudgeOrScroll(-keyStep)
	case key.Matches(msg, k.Down):
		m.nudgeOrScroll(keyStep)
	case key.Matches(msg, k.Left):
		if m.editing() {
			m.report(ed.MoveDays(-1))
		} else {
			m.cycle(-1)
		}
	case key.Matches(msg, k.Right):
		if m.editing() {
			m.report(ed.MoveDays(1))
		} else {
			m.cycle(1)
		}
	case key.Matches(msg, k.Shrink):
		m.report(ed.Resize(-keyStep))
	case key.Matches(msg, k.Grow):
		m.report(ed.Resize(keyStep))
	case key.Matches(msg, k.Next):
		if !m.editing() {
			m.cycle(1)
		}

	case key.Matches(msg, k.ScrollUp):
		m.pl.Mapper().ScrollBy(-float64(m.gridRows()) * pixelsPerRow / 2)
	case key.Matches(msg, k.ScrollDown):
		m.pl.Mapper().ScrollBy(float64(m.gridRows()) * pixelsPerRow / 2)
	}
	return m, nil
}

func (m *Model) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		if m.mode == inputIssue {
			m.pl.Editor().Escape()
		}
		m.closeInput()
		return m, nil

	case tea.KeyEnter:
		value := strings.TrimSpace(m.input.Value())
		mode := m.mode
		m.closeInput()
		switch mode {
		case inputComment:
			m.report(m.pl.Editor().SetComment(value))
		case inputIssue:
			if value == "" {
				m.pl.Editor().Escape()
				return m, nil
			}
			return m, m.lookupIssue(value)
		}
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) closeInput() {
	m.mode = inputNone
	m.input.Blur()
	m.input.SetValue("")
}

func (m *Model) report(err error) {
	if err != nil && !errors.Is(err, editor.ErrNotEditing) {
		m.err = err
	}
}

func (m *Model) nudgeOrScroll(minutes int) {
	if m.editing() {
		m.report(m.pl.Editor().Nudge(minutes))
		return
	}
	m.pl.Mapper().ScrollBy(float64(minutes) * m.pl.Mapper().PixelsPerMinute)
}

func (m *Model) zoom(z geometry.Zoom) tea.Cmd {
	if !m.pl.SetZoom(z) {
		return nil
	}
	return func() tea.Msg { return flushMsg{} }
}

func (m *Model) save() tea.Cmd {
	ed, ctx := m.pl.Editor(), m.ctx
	return func() tea.Msg {
		w, err := ed.Save(ctx)
		return savedMsg{w: w, err: err}
	}
}

func (m *Model) remove(w model.Worklog) tea.Cmd {
	pl, ctx := m.pl, m.ctx
	return func() tea.Msg {
		return deletedMsg{w: w, err: pl.Delete(ctx, w)}
	}
}

func (m *Model) lookupIssue(k string) tea.Cmd {
	svc, ctx := m.pl.Service(), m.ctx
	return func() tea.Msg {
		issue, err := svc.GetIssue(ctx, k)
		return issueMsg{key: k, issue: issue, err: err}
	}
}

func (m *Model) deleteTarget() (model.Worklog, bool) {
	if d, ok := m.pl.Editor().Draft(); ok {
		if d.Adding {
			return model.Worklog{}, false
		}
		return d.Original, true
	}
	return m.selectedWorklog()
}

// slots returns the work logs of the visible days in display order.
func (m *Model) slots() []layout.Slot {
	var out []layout.Slot
	for _, d := range m.pl.Days() {
		out = append(out, d.Slots...)
	}
	return out
}

func (m *Model) selectedWorklog() (model.Worklog, bool) {
	if m.selected == "" {
		return model.Worklog{}, false
	}
	for _, s := range m.slots() {
		if s.Worklog.ID == m.selected {
			return s.Worklog, true
		}
	}
	return model.Worklog{}, false
}

// cycle moves the selection by step through the visible work logs.
func (m *Model) cycle(step int) {
	slots := m.slots()
	if len(slots) == 0 {
		m.selected = ""
		return
	}
	idx := -1
	for i, s := range slots {
		if s.Worklog.ID == m.selected {
			idx = i
		}
	}
	if idx < 0 && step < 0 {
		idx = 0
	}
	idx = (idx + step + len(slots)) % len(slots)
	m.selected = slots[idx].Worklog.ID
	mp := m.pl.Mapper()
	mp.ScrollToMinute(timecalc.MinuteOfDay(slots[idx].Worklog.Started))
}

// pointer converts a terminal cell to grid content coordinates at the
// middle of the cell. It reports false outside the grid.
func (m *Model) pointer(msg tea.MouseMsg) (editor.Pointer, bool) {
	col, row := msg.X-gutterWidth, msg.Y-headerRows
	if col < 0 || row < 0 || col >= m.gridWidth() || row >= m.gridRows() {
		return editor.Pointer{}, false
	}
	p := editor.Pointer{
		X:    float64(col) + 0.5,
		Y:    m.pl.Mapper().ScrollTop + (float64(row)+0.5)*pixelsPerRow,
		Mods: geometry.Modifiers{Shift: msg.Shift, Ctrl: msg.Ctrl, Alt: msg.Alt},
	}
	switch msg.Button {
	case tea.MouseButtonMiddle:
		p.Button = editor.ButtonMiddle
	case tea.MouseButtonRight:
		p.Button = editor.ButtonSecondary
	}
	return p, true
}

func (m *Model) updateMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	switch {
	case msg.Button == tea.MouseButtonWheelUp || msg.Button == tea.MouseButtonWheelDown:
		dir := 1.0
		if msg.Button == tea.MouseButtonWheelUp {
			dir = -1
		}
		if msg.Ctrl {
			return m, m.zoom(m.pl.Zoom().Wheel(dir * 100))
		}
		m.pl.Mapper().ScrollBy(dir * 3 * pixelsPerRow)
		return m, nil

	case msg.Action == tea.MouseActionMotion:
		if m.gesture != nil && !m.gesture.Active() {
			m.gesture = nil
		}
		if m.gesture != nil {
			if p, ok := m.pointer(msg); ok {
				p.Button = editor.ButtonPrimary
				m.gesture.Move(p)
			}
		}
		return m, nil

	case msg.Action == tea.MouseActionRelease:
		m.endGesture()
		return m, nil

	case msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft:
		p, ok := m.pointer(msg)
		if !ok || m.gesture.Active() {
			return m, nil
		}
		m.press(p)
	}
	return m, nil
}

func (m *Model) press(p editor.Pointer) {
	ed := m.pl.Editor()
	if m.editing() {
		if m.beginGesture(p) {
			return
		}
		m.closeInput()
		ed.ClickOutside()
		return
	}
	if w, ok := m.hit(p); ok {
		m.selected = w.ID
		m.pl.Edit(w)
		return
	}
	mp := m.pl.Mapper()
	m.pl.AddAt(mp.ColumnAt(p.X), mp.YToMinutes(p.Y, geometry.SnapFor(p.Mods)))
}

// beginGesture starts a drag or stretch when p is on the edited panel: the
// top row stretches the start, the bottom row the end, anything else drags.
func (m *Model) beginGesture(p editor.Pointer) bool {
	ed := m.pl.Editor()
	rect, ok := ed.Panel()
	if !ok {
		return false
	}
	gw := float64(m.gridWidth())
	left, right := rect.Left*gw, (rect.Left+rect.Width)*gw
	if p.X < left || p.X >= right || p.Y < rect.Top || p.Y >= math.Max(rect.Bottom(), rect.Top+pixelsPerRow) {
		return false
	}
	var g *editor.Gesture
	switch {
	case p.Y < rect.Top+pixelsPerRow:
		g = ed.BeginStretchTop(p, p.Y-rect.Top)
	case p.Y >= rect.Bottom()-pixelsPerRow:
		g = ed.BeginStretchBottom(p, p.Y-rect.Bottom())
	default:
		g = ed.BeginDrag(p, p.X-left, p.Y-rect.Top)
	}
	if g == nil {
		return true
	}
	m.gesture = g
	return true
}

func (m *Model) endGesture() {
	if g := m.gesture; g != nil {
		g.Release()
		m.gesture = nil
	}
}

// hit returns the work log drawn under p.
func (m *Model) hit(p editor.Pointer) (model.Worklog, bool) {
	mp := m.pl.Mapper()
	idx := mp.ColumnAt(p.X)
	days := m.pl.Days()
	if idx < 0 || idx >= len(days) {
		return model.Worklog{}, false
	}
	dayX, dayW := mp.DayIndexToX(idx), mp.DayWidth()
	for _, s := range days[idx].Slots {
		r := mp.WorklogRect(s.Worklog, s.Column, s.Columns)
		x0, x1 := dayX+r.Left*dayW, dayX+(r.Left+r.Width)*dayW
		if p.X >= x0 && p.X < x1 && p.Y >= r.Top && p.Y < math.Max(r.Bottom(), r.Top+pixelsPerRow) {
			return s.Worklog, true
		}
	}
	return model.Worklog{}, false
}

func describe(w model.Worklog) string {
	label := w.IssueID
	if w.Issue != nil {
		label = w.Issue.Key
	}
	return fmt.Sprintf("%s %s %s-%s", label, w.Started.Format("Mon"), timecalc.FormatClock(w.Started), timecalc.FormatClock(w.End()))
}
