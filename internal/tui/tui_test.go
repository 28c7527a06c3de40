package tui_test

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Tiliavir/plaid/internal/model"
	"github.com/Tiliavir/plaid/internal/planner"
	"github.com/Tiliavir/plaid/internal/prefs"
	"github.com/Tiliavir/plaid/internal/storage"
	"github.com/Tiliavir/plaid/internal/tui"
	"github.com/Tiliavir/plaid/internal/worklog"
)

const (
	width  = 126
	height = 40
	// grid origin in terminal cells
	gridX = 6
	gridY = 2
)

var (
	monday = time.Date(2026, 3, 2, 0, 0, 0, 0, time.Local)
	noon   = monday.Add(12 * time.Hour)
	me     = storage.LocalUser("me")
)

type fixture struct {
	m     *tui.Model
	pl    *planner.Planner
	local *storage.Local
	issue model.Issue
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dir := t.TempDir()
	local := storage.NewLocal(filepath.Join(dir, "worklogs"), me)
	issue, err := local.AddIssue(model.Issue{Key: "PLD-1", Summary: "Week grid"})
	if err != nil {
		t.Fatal(err)
	}
	p := prefs.Open(dir, nil)
	now := func() time.Time { return noon }
	pl := planner.New(worklog.NewService(local, worklog.NewList(), nil), p, planner.Options{Now: now})
	m := tui.New(pl, tui.Options{Now: now})
	t.Cleanup(func() {
		m.Close()
		pl.Close()
		p.Close()
	})
	m.Update(tea.WindowSizeMsg{Width: width, Height: height})
	return &fixture{m: m, pl: pl, local: local, issue: issue}
}

func (f *fixture) add(t *testing.T, start time.Time, minutes int) model.Worklog {
	t.Helper()
	w, err := f.local.CreateWorklog(context.Background(), f.issue.ID, start, int64(minutes)*60, "")
	if err != nil {
		t.Fatal(err)
	}
	return w
}

func (f *fixture) signIn() {
	f.pl.SetUser(me)
	f.pl.Wait()
}

// press sends keys and runs the returned commands once, feeding their
// messages back.
func (f *fixture) press(t *testing.T, keys ...tea.KeyMsg) {
	t.Helper()
	for _, k := range keys {
		_, cmd := f.m.Update(k)
		f.run(cmd)
	}
}

func (f *fixture) run(cmd tea.Cmd) {
	if cmd == nil {
		return
	}
	if msg := cmd(); msg != nil {
		switch msg.(type) {
		case tea.QuitMsg, tea.BatchMsg:
			return
		}
		f.m.Update(msg)
	}
}

func runes(s string) tea.KeyMsg { return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)} }

var (
	enter = tea.KeyMsg{Type: tea.KeyEnter}
	tab   = tea.KeyMsg{Type: tea.KeyTab}
	down  = tea.KeyMsg{Type: tea.KeyDown}
	right = tea.KeyMsg{Type: tea.KeyRight}
)

func TestViewRendersWeek(t *testing.T) {
	f := newFixture(t)
	f.add(t, monday.Add(11*time.Hour), 45)
	f.signIn()

	out := f.m.View()
	for _, want := range []string{"plaid", "2026-W09", "Mon 02", "Sat 07", "PLD-1", "45m"} {
		if !strings.Contains(out, want) {
			t.Errorf("view lacks %q", want)
		}
	}
	if lines := strings.Count(out, "\n") + 1; lines != height {
		t.Errorf("view has %d lines, want %d", lines, height)
	}
}

func TestWeekKeys(t *testing.T) {
	f := newFixture(t)
	f.press(t, runes("]"))
	if got := f.pl.Range.Get().Start; !got.Equal(monday.AddDate(0, 0, 6)) {
		t.Errorf("after ] start = %v", got)
	}
	f.press(t, runes("["), runes("["), runes("t"))
	if got := f.pl.Range.Get().Start; !got.Equal(monday.AddDate(0, 0, -1)) {
		t.Errorf("after t start = %v", got)
	}
	f.pl.Wait()
}

func TestSelectNudgeAndSave(t *testing.T) {
	f := newFixture(t)
	w := f.add(t, monday.Add(9*time.Hour), 60)
	f.signIn()

	f.press(t, tab, enter)
	d, ok := f.pl.Editor().Draft()
	if !ok || d.Original.ID != w.ID {
		t.Fatalf("draft = %+v, %v", d, ok)
	}
	f.press(t, down, right, enter)
	if _, ok := f.pl.Editor().Draft(); ok {
		t.Fatal("editor still open after save")
	}

	got, err := f.local.ListWorklogs(context.Background(), f.pl.Range.Get(), me)
	if err != nil {
		t.Fatal(err)
	}
	want := monday.AddDate(0, 0, 1).Add(9*time.Hour + 15*time.Minute)
	if len(got) != 1 || !got[0].Started.Equal(want) {
		t.Errorf("stored = %+v, want start %v", got, want)
	}
}

func TestAddWithIssueAndComment(t *testing.T) {
	f := newFixture(t)
	f.signIn()

	f.press(t, runes("a"))
	if d, ok := f.pl.Editor().Draft(); !ok || !d.Adding {
		t.Fatalf("draft = %+v, %v", d, ok)
	}
	f.press(t, runes("i"))
	for _, r := range "pld-1" {
		f.press(t, runes(string(r)))
	}
	f.press(t, enter)
	f.press(t, runes("c"), runes("w"), runes("i"), runes("p"), enter)

	d, _ := f.pl.Editor().Draft()
	if d.Issue == nil || d.Issue.Key != "PLD-1" || d.Comment != "wip" {
		t.Fatalf("draft = %+v", d)
	}
	f.press(t, enter)
	if n := len(f.pl.Service().List().Items()); n != 1 {
		t.Errorf("work logs after add = %d, want 1", n)
	}
}

func TestUnknownIssueShowsError(t *testing.T) {
	f := newFixture(t)
	f.signIn()
	f.press(t, runes("a"), runes("i"), runes("X"), enter)
	if d, _ := f.pl.Editor().Draft(); d.Issue != nil {
		t.Errorf("issue = %+v, want none", d.Issue)
	}
	if !strings.Contains(f.m.View(), "issue X not found") {
		t.Error("view does not show the lookup error")
	}
}

func TestDeleteSelected(t *testing.T) {
	f := newFixture(t)
	f.add(t, monday.Add(9*time.Hour), 30)
	f.signIn()

	f.press(t, tab, runes("d"))
	if n := len(f.pl.Service().List().Items()); n != 0 {
		t.Errorf("work logs after delete = %d", n)
	}
	if !strings.Contains(f.m.View(), "Deleted PLD-1") {
		t.Error("view does not confirm the delete")
	}
}

func TestClickOpensAndDragMoves(t *testing.T) {
	f := newFixture(t)
	w := f.add(t, monday.Add(9*time.Hour), 60)
	f.signIn()

	mp := f.pl.Mapper()
	mp.ScrollToMinute(9*60 + 30)
	dayX := int(mp.DayIndexToX(1)) + 2
	row := func(minute int) int {
		return gridY + int((mp.MinutesToY(minute)-mp.ScrollTop)/15)
	}
	mouse := func(action tea.MouseAction, x, y int) {
		f.m.Update(tea.MouseMsg{X: x, Y: y, Action: action, Button: tea.MouseButtonLeft})
	}

	mouse(tea.MouseActionPress, gridX+dayX, row(9*60+30))
	mouse(tea.MouseActionRelease, gridX+dayX, row(9*60+30))
	d, ok := f.pl.Editor().Draft()
	if !ok || d.Original.ID != w.ID {
		t.Fatalf("click did not open the work log: %+v, %v", d, ok)
	}

	rect, _ := f.pl.Editor().Panel()
	x := gridX + int(rect.Left*mp.ViewportWidth) + 2
	y := gridY + int((rect.Top+rect.Height/2-mp.ScrollTop)/15)
	mouse(tea.MouseActionPress, x, y)
	mouse(tea.MouseActionMotion, x, y+4)
	mouse(tea.MouseActionRelease, x, y+4)

	d, _ = f.pl.Editor().Draft()
	if !d.Start.After(w.Started) || d.DurationMinutes != 60 {
		t.Errorf("after drag draft = %v for %d minutes", d.Start, d.DurationMinutes)
	}
	if d.Start.Minute()%5 != 0 {
		t.Errorf("drag did not snap: %v", d.Start)
	}
}

func TestClickEmptyAdds(t *testing.T) {
	f := newFixture(t)
	f.signIn()

	mp := f.pl.Mapper()
	x := gridX + int(mp.DayIndexToX(3)) + 2
	f.m.Update(tea.MouseMsg{X: x, Y: gridY + 3, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft})
	d, ok := f.pl.Editor().Draft()
	if !ok || !d.Adding {
		t.Fatalf("draft = %+v, %v", d, ok)
	}
	if day := monday.AddDate(0, 0, 2); !d.Date().Equal(day) {
		t.Errorf("draft day = %v, want %v", d.Date(), day)
	}

	f.m.Update(tea.MouseMsg{X: gridX + 1, Y: gridY + 1, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft})
	if _, ok := f.pl.Editor().Draft(); ok {
		t.Error("click outside did not close the editor")
	}
}

func TestClickRightPartOfDay(t *testing.T) {
	f := newFixture(t)
	w := f.add(t, monday.Add(11*time.Hour), 120)
	f.signIn()

	mp := f.pl.Mapper()
	mp.ScrollToMinute(11*60 + 30)
	x := gridX + int(mp.DayIndexToX(1)+mp.DayWidth()*0.8)
	y := gridY + int((mp.MinutesToY(11*60+30)-mp.ScrollTop)/15)
	f.m.Update(tea.MouseMsg{X: x, Y: y, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft})
	f.m.Update(tea.MouseMsg{X: x, Y: y, Action: tea.MouseActionRelease, Button: tea.MouseButtonLeft})

	d, ok := f.pl.Editor().Draft()
	if !ok || d.Adding || d.Original.ID != w.ID {
		t.Fatalf("click on the right of Monday opened %+v, %v", d, ok)
	}
	f.press(t, tea.KeyMsg{Type: tea.KeyEsc})

	x = gridX + int(mp.DayIndexToX(3)+mp.DayWidth()*0.8)
	f.m.Update(tea.MouseMsg{X: x, Y: gridY + 3, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft})
	d, ok = f.pl.Editor().Draft()
	if !ok || !d.Adding {
		t.Fatalf("draft = %+v, %v", d, ok)
	}
	if day := monday.AddDate(0, 0, 2); !d.Date().Equal(day) {
		t.Errorf("draft day = %v, want %v", d.Date(), day)
	}
}

func TestPublishedErrorsAreShown(t *testing.T) {
	f := newFixture(t)
	cmd := f.m.Init()
	f.pl.Errors.Publish(errors.New("connection refused"))
	for i := 0; i < 10 && !strings.Contains(f.m.View(), "connection refused"); i++ {
		_, cmd = f.m.Update(cmd())
	}
	if !strings.Contains(f.m.View(), "connection refused") {
		t.Error("view does not show the published error")
	}
}

func TestQuit(t *testing.T) {
	f := newFixture(t)
	_, cmd := f.m.Update(runes("q"))
	if cmd == nil {
		t.Fatal("q returned no command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q did not quit")
	}
}
