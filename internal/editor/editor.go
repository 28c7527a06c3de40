// Package editor implements the interactive work-log editor: a single edited
// panel that can be dragged, stretched at either end, annotated and saved.
//
// The editor keeps its own copy of the edited work log. Nothing is written
// back until Save succeeds, and a Save that completes after the editor was
// closed or reopened is ignored.
package editor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/Tiliavir/plaid/internal/geometry"
	"github.com/Tiliavir/plaid/internal/model"
	"github.com/Tiliavir/plaid/internal/signal"
	"github.com/Tiliavir/plaid/internal/timecalc"
)

var (
	ErrNotEditing = errors.New("no work log is being edited")
	ErrSaving     = errors.New("save in progress")
	ErrBusy       = errors.New("gesture in progress")
	ErrNoIssue    = errors.New("new work log needs an issue")
	ErrExisting   = errors.New("issue of a saved work log cannot change")
	ErrStale      = errors.New("editor closed before save completed")
)

// State is the editor's interaction state.
type State int

const (
	Idle State = iota
	Editing
	Dragging
	StretchingTop
	StretchingBottom
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Editing:
		return "editing"
	case Dragging:
		return "dragging"
	case StretchingTop:
		return "stretching-top"
	case StretchingBottom:
		return "stretching-bottom"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// CloseReason tells subscribers why the editor closed.
type CloseReason int

const (
	CloseCancel CloseReason = iota
	CloseEscape
	CloseSaved
	CloseAuth
	CloseHiddenDay
	CloseExternal
)

// CloseEvent is published every time an edit session ends.
type CloseEvent struct {
	Reason  CloseReason
	Worklog model.Worklog
}

// Focus tells the shell where keyboard focus goes after Escape.
type Focus int

const (
	FocusNone Focus = iota
	FocusDateToggle
	FocusIssueToggle
	FocusClosed
)

// Persister commits edited work logs. Both methods return the stored record.
type Persister interface {
	CreateWorklog(ctx context.Context, w model.Worklog) (model.Worklog, error)
	UpdateWorklog(ctx context.Context, w model.Worklog) (model.Worklog, error)
}

// Options configures an Editor.
type Options struct {
	// FirstDay and LastDay bound the weekdays that may be edited.
	// Both zero means the full week.
	FirstDay time.Weekday
	LastDay  time.Weekday
	Logger   *slog.Logger
}

// Draft is a snapshot of the edit in progress.
type Draft struct {
	Original        model.Worklog
	Start           time.Time
	DurationMinutes int
	Comment         string
	Issue           *model.Issue
	Adding          bool
	InRange         bool
}

// Date returns midnight of the draft's day.
func (d Draft) Date() time.Time {
	return timecalc.StartOfDay(d.Start)
}

// End returns the end of the draft.
func (d Draft) End() time.Time {
	return d.Start.Add(time.Duration(d.DurationMinutes) * time.Minute)
}

// Worklog returns the work log that Save would submit.
func (d Draft) Worklog() model.Worklog {
	w := d.Original
	w.Started = d.Start
	w.TimeSpentSeconds = int64(d.DurationMinutes) * 60
	w.Comment = d.Comment
	if d.Issue != nil {
		w.Issue = d.Issue
		w.IssueID = d.Issue.ID
	}
	return w
}

// Editor is the edit state machine. All methods are safe for concurrent
// use; Save may run on another goroutine while pointer events continue.
type Editor struct {
	persist Persister
	mapper  *geometry.Mapper
	log     *slog.Logger
	closed  *signal.Topic[CloseEvent]

	mu          sync.Mutex
	rng         model.DateRange
	firstDay    time.Weekday
	lastDay     time.Weekday
	state       State
	saving      bool
	session     uint64
	draft       Draft
	datePicker  bool
	issuePicker bool
	gesture     *Gesture
	anchorX     float64
	anchorY     float64
}

// New creates an idle editor showing r through m.
func New(p Persister, m *geometry.Mapper, r model.DateRange, opts Options) *Editor {
	if opts.FirstDay == 0 && opts.LastDay == 0 {
		opts.LastDay = time.Saturday
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Editor{
		persist:  p,
		mapper:   m,
		log:      opts.Logger,
		closed:   signal.NewTopic[CloseEvent](),
		rng:      r,
		firstDay: opts.FirstDay,
		lastDay:  opts.LastDay,
	}
}

// OnClose registers fn for close events until cancel is called.
func (e *Editor) OnClose(fn func(CloseEvent)) (cancel func()) {
	return e.closed.Subscribe(fn)
}

// Open starts editing a copy of w. Any previous session is abandoned
// without a close event.
func (e *Editor) Open(w model.Worklog) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.session++
	e.gesture = nil
	e.state = Editing
	e.saving = false
	e.datePicker = false
	e.issuePicker = false
	e.draft = Draft{
		Original:        w,
		Start:           timecalc.TruncateToMinute(w.Started),
		DurationMinutes: int((w.TimeSpentSeconds + 30) / 60),
		Comment:         w.Comment,
		Issue:           w.Issue,
		Adding:          w.IsNew(),
	}
}

// State returns the current interaction state.
func (e *Editor) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Saving reports whether a save is outstanding.
func (e *Editor) Saving() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.saving
}

// DatePickerOpen reports whether the date popover is open.
func (e *Editor) DatePickerOpen() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.datePicker
}

// IssuePickerOpen reports whether the issue popover is open.
func (e *Editor) IssuePickerOpen() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.issuePicker
}

// Draft returns the edit in progress, or false when idle.
func (e *Editor) Draft() (Draft, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == Idle {
		return Draft{}, false
	}
	d := e.draft
	d.InRange = e.rng.Contains(d.Start)
	return d, true
}

// Panel returns the edited panel's rectangle. Left and Width are fractions
// of the whole grid. It reports false when idle or when the edited day is
// outside the visible range.
func (e *Editor) Panel() (geometry.Rect, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == Idle {
		return geometry.Rect{}, false
	}
	idx := e.rng.Index(e.draft.Start)
	if idx < 0 {
		return geometry.Rect{}, false
	}
	return e.mapper.SlotRect(timecalc.MinuteOfDay(e.draft.Start), e.draft.DurationMinutes, idx, e.rng.Len()), true
}

// SetRange updates the visible range.
func (e *Editor) SetRange(r model.DateRange) {
	e.mu.Lock()
	e.rng = r
	e.mu.Unlock()
}

// SetVisibleDays changes the editable weekdays and closes the editor when
// the edited day is no longer among them.
func (e *Editor) SetVisibleDays(first, last time.Weekday) {
	e.mu.Lock()
	e.firstDay, e.lastDay = first, last
	if e.state == Idle || e.dayVisible(e.draft.Start) {
		e.mu.Unlock()
		return
	}
	ev := e.closeLocked(CloseHiddenDay)
	e.mu.Unlock()
	e.closed.Publish(ev)
}

func (e *Editor) dayVisible(t time.Time) bool {
	wd := t.Weekday()
	return wd >= e.firstDay && wd <= e.lastDay
}

// ZoomChanged keeps a running gesture anchored when the zoom changes from
// oldPPM to newPPM.
func (e *Editor) ZoomChanged(oldPPM, newPPM float64) {
	if oldPPM <= 0 {
		return
	}
	e.mu.Lock()
	if e.gesture != nil {
		e.anchorY *= newPPM / oldPPM
	}
	e.mu.Unlock()
}

// Close ends the session for the given reason, even while saving. A save
// still in flight completes with ErrStale.
func (e *Editor) Close(reason CloseReason) {
	e.mu.Lock()
	if e.state == Idle {
		e.mu.Unlock()
		return
	}
	ev := e.closeLocked(reason)
	e.mu.Unlock()
	e.closed.Publish(ev)
}

func (e *Editor) closeLocked(reason CloseReason) CloseEvent {
	ev := CloseEvent{Reason: reason, Worklog: e.draft.Worklog()}
	e.session++
	e.state = Idle
	e.saving = false
	e.gesture = nil
	e.datePicker = false
	e.issuePicker = false
	e.draft = Draft{}
	return ev
}

// Escape closes an open popover and reports which toggle gets focus back.
// Without a popover it closes the editor, also while saving.
func (e *Editor) Escape() Focus {
	e.mu.Lock()
	switch {
	case e.state == Idle:
		e.mu.Unlock()
		return FocusNone
	case e.datePicker:
		e.datePicker = false
		e.mu.Unlock()
		return FocusDateToggle
	case e.issuePicker:
		e.issuePicker = false
		e.mu.Unlock()
		return FocusIssueToggle
	}
	ev := e.closeLocked(CloseEscape)
	e.mu.Unlock()
	e.closed.Publish(ev)
	return FocusClosed
}

// ClickOutside handles a primary click outside the panel. An open popover
// is dismissed instead of the editor; while saving nothing happens. It
// reports whether the editor closed.
func (e *Editor) ClickOutside() bool {
	e.mu.Lock()
	if e.state != Editing || e.saving {
		e.mu.Unlock()
		return false
	}
	if e.datePicker || e.issuePicker {
		e.datePicker = false
		e.issuePicker = false
		e.mu.Unlock()
		return false
	}
	ev := e.closeLocked(CloseCancel)
	e.mu.Unlock()
	e.closed.Publish(ev)
	return true
}

// ToggleDatePicker opens or closes the date popover and returns whether it
// is open. It cannot be opened while saving.
func (e *Editor) ToggleDatePicker() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.datePicker {
		e.datePicker = false
		return false
	}
	if e.state == Editing && !e.saving {
		e.datePicker = true
	}
	return e.datePicker
}

// ToggleIssuePicker opens or closes the issue popover and returns whether
// it is open. It only opens for unsaved work logs and not while saving.
func (e *Editor) ToggleIssuePicker() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.issuePicker {
		e.issuePicker = false
		return false
	}
	if e.state == Editing && !e.saving && e.draft.Adding {
		e.issuePicker = true
	}
	return e.issuePicker
}

// SelectDate moves the draft to day d keeping its time of day and closes
// the date popover. When d is outside the visible range it returns the week
// that should be shown instead.
func (e *Editor) SelectDate(d time.Time) (model.DateRange, bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.editableLocked(); err != nil {
		return model.DateRange{}, false, err
	}
	minute := timecalc.MinuteOfDay(e.draft.Start)
	e.draft.Start = timecalc.AtMinute(timecalc.StartOfDay(d), minute)
	e.datePicker = false
	week := model.WeekOf(d, e.firstDay, e.lastDay)
	if week.Equal(e.rng) {
		return model.DateRange{}, false, nil
	}
	return week, true, nil
}

// SelectIssue assigns the issue of an unsaved work log and closes the
// issue popover.
func (e *Editor) SelectIssue(issue *model.Issue) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.editableLocked(); err != nil {
		return err
	}
	if !e.draft.Adding {
		return ErrExisting
	}
	e.draft.Issue = issue
	e.issuePicker = false
	return nil
}

// SetComment replaces the draft's comment.
func (e *Editor) SetComment(comment string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.editableLocked(); err != nil {
		return err
	}
	e.draft.Comment = comment
	return nil
}

// Nudge moves the draft by the given minutes within its day, clamped so it
// stays between midnight and the end of the day.
func (e *Editor) Nudge(minutes int) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.editableLocked(); err != nil {
		return err
	}
	e.moveStartLocked(timecalc.MinuteOfDay(e.draft.Start) + minutes)
	return nil
}

// Resize changes the draft's duration by the given minutes keeping its
// start. The end stays after the start and not past midnight.
func (e *Editor) Resize(minutes int) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.editableLocked(); err != nil {
		return err
	}
	start := timecalc.MinuteOfDay(e.draft.Start)
	end := geometry.ClampInt(start+e.draft.DurationMinutes+minutes, start+1, geometry.MinutesPerDay)
	e.draft.DurationMinutes = end - start
	return nil
}

// MoveDays moves the draft by n days, clamped to the visible range.
func (e *Editor) MoveDays(n int) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.editableLocked(); err != nil {
		return err
	}
	idx := e.rng.Index(e.draft.Start)
	if idx < 0 {
		return nil
	}
	e.moveDayLocked(idx + n)
	return nil
}

func (e *Editor) editableLocked() error {
	switch {
	case e.state == Idle:
		return ErrNotEditing
	case e.saving:
		return ErrSaving
	case e.state != Editing:
		return ErrBusy
	}
	return nil
}

// moveStartLocked sets the draft's start minute, keeping the whole draft
// inside its day.
func (e *Editor) moveStartLocked(minute int) bool {
	old := timecalc.MinuteOfDay(e.draft.Start)
	if minute < 0 {
		minute = 0
	} else if minute+e.draft.DurationMinutes > geometry.MinutesPerDay {
		minute = max(0, geometry.MinutesPerDay-e.draft.DurationMinutes)
	}
	if minute == old {
		return false
	}
	e.draft.Start = timecalc.AtMinute(timecalc.StartOfDay(e.draft.Start), minute)
	return true
}

// moveDayLocked moves the draft to the visible day at idx, clamped to the
// range.
func (e *Editor) moveDayLocked(idx int) bool {
	idx = geometry.ClampInt(idx, 0, e.rng.Len()-1)
	day := e.rng.Start.AddDate(0, 0, idx)
	if timecalc.SameDay(day, e.draft.Start) {
		return false
	}
	e.draft.Start = timecalc.AtMinute(day, timecalc.MinuteOfDay(e.draft.Start))
	return true
}

// Save submits the draft: a create for unsaved work logs, an update
// otherwise. While it runs the editor is saving and refuses gestures and
// edits. On success the editor closes; on failure it keeps the draft and
// returns to editing.
func (e *Editor) Save(ctx context.Context) (model.Worklog, error) {
	e.mu.Lock()
	if err := e.editableLocked(); err != nil {
		e.mu.Unlock()
		return model.Worklog{}, err
	}
	w := e.draft.Worklog()
	if w.IsNew() && w.IssueID == "" {
		e.mu.Unlock()
		return model.Worklog{}, ErrNoIssue
	}
	e.saving = true
	session := e.session
	e.mu.Unlock()

	var (
		saved model.Worklog
		err   error
	)
	if w.IsNew() {
		saved, err = e.persist.CreateWorklog(ctx, w)
	} else {
		saved, err = e.persist.UpdateWorklog(ctx, w)
	}

	e.mu.Lock()
	if e.session != session {
		e.mu.Unlock()
		e.log.Debug("ignoring stale save completion", "worklog", w.ID, "error", err)
		if err != nil {
			return model.Worklog{}, fmt.Errorf("saving work log: %w", err)
		}
		return saved, ErrStale
	}
	e.saving = false
	if err != nil {
		e.mu.Unlock()
		e.log.Warn("save failed", "worklog", w.ID, "issue", w.IssueID, "error", err)
		return model.Worklog{}, fmt.Errorf("saving work log: %w", err)
	}
	ev := e.closeLocked(CloseSaved)
	ev.Worklog = saved
	e.mu.Unlock()
	e.closed.Publish(ev)
	return saved, nil
}
