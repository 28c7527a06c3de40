// Package planner ties the work-log service, the preferences, the editor
// and the grid geometry into the week view the shells present.
//
// Range and user changes load work logs in the background; failures are
// published on Errors. Methods touching the mapper or zoom must be called
// from the presentation loop.
package planner

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/Tiliavir/plaid/internal/editor"
	"github.com/Tiliavir/plaid/internal/geometry"
	"github.com/Tiliavir/plaid/internal/layout"
	"github.com/Tiliavir/plaid/internal/model"
	"github.com/Tiliavir/plaid/internal/prefs"
	"github.com/Tiliavir/plaid/internal/signal"
	"github.com/Tiliavir/plaid/internal/timecalc"
	"github.com/Tiliavir/plaid/internal/worklog"
)

// DefaultAddMinutes is the length of a work log added outside a gap.
const DefaultAddMinutes = 60

// Options configures a Planner.
type Options struct {
	Now    func() time.Time
	Logger *slog.Logger
}

// Planner is the state behind the week grid.
type Planner struct {
	Range    *signal.Value[model.DateRange]
	User     *signal.Value[*model.User]
	GapsTick *signal.Topic[time.Time]
	Errors   *signal.Topic[error]

	svc     *worklog.Service
	prefs   *prefs.Preferences
	editor  *editor.Editor
	mapper  *geometry.Mapper
	zoom    geometry.Zoom
	refresh *signal.Value[time.Duration]
	now     func() time.Time
	log     *slog.Logger

	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	unsubs  []func()
	closeMu sync.Once
}

// New creates a planner showing the current week.
func New(svc *worklog.Service, p *prefs.Preferences, opts Options) *Planner {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	first, last := p.VisibleDays()
	week := model.WeekOf(opts.Now(), first, last)
	zoom := geometry.NewZoom()
	mapper := geometry.NewMapper(zoom.PixelsPerMinute(), week.Len())

	ctx, cancel := context.WithCancel(context.Background())
	pl := &Planner{
		Range:    signal.NewValue(week),
		User:     signal.NewValue[*model.User](nil),
		GapsTick: signal.NewTopic[time.Time](),
		Errors:   signal.NewTopic[error](),
		svc:      svc,
		prefs:    p,
		mapper:   mapper,
		zoom:     zoom,
		refresh:  signal.NewValue(p.RefreshInterval()),
		now:      opts.Now,
		log:      opts.Logger,
		ctx:      ctx,
		cancel:   cancel,
	}
	pl.editor = editor.New(svc, mapper, week, editor.Options{FirstDay: first, LastDay: last, Logger: opts.Logger})

	pl.unsubs = append(pl.unsubs,
		p.RefreshIntervalMinutes.Subscribe(func(int) { pl.refresh.Set(p.RefreshInterval()) }),
		p.HideWeekend.Subscribe(func(bool) { pl.visibleDaysChanged() }),
		p.WorkingDaysStart.Subscribe(func(int) { pl.visibleDaysChanged() }),
		p.WorkingDaysEnd.Subscribe(func(int) { pl.visibleDaysChanged() }),
	)
	return pl
}

// Editor returns the work-log editor.
func (p *Planner) Editor() *editor.Editor { return p.editor }

// Mapper returns the grid geometry.
func (p *Planner) Mapper() *geometry.Mapper { return p.mapper }

// Service returns the work-log service.
func (p *Planner) Service() *worklog.Service { return p.svc }

// Prefs returns the preferences.
func (p *Planner) Prefs() *prefs.Preferences { return p.prefs }

// Days lays out the loaded work logs of the visible range.
func (p *Planner) Days() []layout.Day {
	return layout.Split(p.svc.List().Items(), p.Range.Get())
}

// Gaps returns the gap hints of every visible day.
func (p *Planner) Gaps() [][]layout.Slot {
	return layout.AllGaps(p.Days(), p.prefs.WorkingHours(), p.now())
}

// SetRange shows r and loads its work logs unless they are already there.
func (p *Planner) SetRange(r model.DateRange) {
	old := p.Range.Get()
	if old.Equal(r) {
		return
	}
	p.Range.Set(r)
	p.editor.SetRange(r)
	p.mapper.Days = r.Len()
	user := p.User.Get()
	p.background("loading work logs", func(ctx context.Context) error {
		_, err := p.svc.RangeChanged(ctx, old, r, user)
		return err
	})
}

// NextWeek shows the following week.
func (p *Planner) NextWeek() { p.SetRange(p.Range.Get().Shift(7)) }

// PrevWeek shows the previous week.
func (p *Planner) PrevWeek() { p.SetRange(p.Range.Get().Shift(-7)) }

// Today shows the current week.
func (p *Planner) Today() { p.GoTo(p.now()) }

// GoTo shows the week containing t.
func (p *Planner) GoTo(t time.Time) {
	first, last := p.prefs.VisibleDays()
	p.SetRange(model.WeekOf(t, first, last))
}

func (p *Planner) visibleDaysChanged() {
	first, last := p.prefs.VisibleDays()
	p.editor.SetVisibleDays(first, last)
	p.SetRange(model.WeekOf(p.Range.Get().Start, first, last))
}

// SetUser switches the signed-in account. Any edit is closed; nil clears
// the work logs, a user loads them.
func (p *Planner) SetUser(u *model.User) {
	prev := p.User.Get()
	if prev.Same(u) && prev != nil {
		return
	}
	p.User.Set(u)
	if _, ok := p.editor.Draft(); ok {
		p.editor.Close(editor.CloseAuth)
	}
	if u == nil {
		p.svc.Reset()
		return
	}
	r := p.Range.Get()
	p.background("loading work logs", func(ctx context.Context) error {
		return p.svc.Fetch(ctx, r, u)
	})
}

// Reload fetches the visible range again, showing the fetching state.
func (p *Planner) Reload() {
	u := p.User.Get()
	if u == nil {
		return
	}
	r := p.Range.Get()
	p.background("reloading work logs", func(ctx context.Context) error {
		return p.svc.Fetch(ctx, r, u)
	})
}

// Edit opens w in the editor.
func (p *Planner) Edit(w model.Worklog) {
	p.editor.Open(w)
}

// AddAt opens a new work log on the visible day index at minute. Inside a
// gap it fills the gap; elsewhere it lasts DefaultAddMinutes, cut at
// midnight.
func (p *Planner) AddAt(dayIndex, minute int) bool {
	r := p.Range.Get()
	if dayIndex < 0 || dayIndex >= r.Len() {
		return false
	}
	minute = geometry.ClampMinute(minute)
	day := r.Days()[dayIndex]
	at := timecalc.AtMinute(day, minute)

	for _, g := range p.Gaps()[dayIndex] {
		if !at.Before(g.Worklog.Started) && at.Before(g.Worklog.End()) {
			p.editor.Open(g.Worklog)
			return true
		}
	}
	dur := min(DefaultAddMinutes, timecalc.MinutesPerDay-minute)
	p.editor.Open(model.Worklog{Started: at, TimeSpentSeconds: int64(dur) * 60})
	return true
}

// AddInView opens a new work log in the middle of the viewport on today's
// column, or the first column when today is not visible.
func (p *Planner) AddInView() bool {
	idx := p.Range.Get().Index(p.now())
	if idx < 0 {
		idx = 0
	}
	minute := int(p.mapper.CenterMinute())
	minute -= minute % 15
	return p.AddAt(idx, minute)
}

// Delete removes w. An edit of the same work log is closed.
func (p *Planner) Delete(ctx context.Context, w model.Worklog) error {
	if err := p.svc.Delete(ctx, w); err != nil {
		return err
	}
	if d, ok := p.editor.Draft(); ok && !d.Adding && d.Original.ID == w.ID {
		p.editor.Close(editor.CloseExternal)
	}
	return nil
}

// Zoom returns the zoom level.
func (p *Planner) Zoom() geometry.Zoom { return p.zoom }

// SetZoom applies z. It reports whether the mapper deferred the change
// until Mapper().Flush.
func (p *Planner) SetZoom(z geometry.Zoom) bool {
	old := p.mapper.PixelsPerMinute
	p.zoom = z
	deferred := p.mapper.SetPixelsPerMinute(z.PixelsPerMinute())
	p.editor.ZoomChanged(old, z.PixelsPerMinute())
	return deferred
}

// ZoomIn increases the zoom by one step.
func (p *Planner) ZoomIn() bool { return p.SetZoom(p.zoom.In()) }

// ZoomOut decreases the zoom by one step.
func (p *Planner) ZoomOut() bool { return p.SetZoom(p.zoom.Out()) }

// Run drives periodic work until ctx ends: the gap tick that keeps the
// "now" bound of gap hints moving and the quiet refresh of work logs.
func (p *Planner) Run(ctx context.Context) {
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		p.svc.RunRefresh(ctx, p.refresh)
	}()

	ticker := time.NewTicker(layout.GapRefreshInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			wg.Wait()
			return
		case <-p.ctx.Done():
			wg.Wait()
			return
		case t := <-ticker.C:
			p.GapsTick.Publish(t)
		}
	}
}

// Wait blocks until background loads finished.
func (p *Planner) Wait() {
	p.wg.Wait()
}

// Close cancels background loads and drops all subscribers.
func (p *Planner) Close() {
	p.closeMu.Do(func() {
		for _, fn := range p.unsubs {
			fn()
		}
		p.cancel()
		p.wg.Wait()
		p.Range.Close()
		p.User.Close()
		p.GapsTick.Close()
		p.Errors.Close()
		p.refresh.Close()
	})
}

func (p *Planner) background(what string, fn func(context.Context) error) {
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		if err := fn(p.ctx); err != nil {
			if p.ctx.Err() != nil {
				return
			}
			p.log.Warn(what+" failed", "error", err)
			p.Errors.Publish(err)
		}
	}()
}
