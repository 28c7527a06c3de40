package prefs_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Tiliavir/plaid/internal/layout"
	"github.com/Tiliavir/plaid/internal/prefs"
)

func TestDefaults(t *testing.T) {
	p := prefs.Open(t.TempDir(), nil)
	defer p.Close()

	if got := p.WorkingHours(); got != (layout.WorkingHours{StartMinutes: 540, EndMinutes: 1020}) {
		t.Errorf("WorkingHours = %+v", got)
	}
	first, last := p.VisibleDays()
	if first != time.Sunday || last != time.Saturday {
		t.Errorf("VisibleDays = %v..%v, want Sunday..Saturday", first, last)
	}
	if got := p.RefreshInterval(); got != 5*time.Minute {
		t.Errorf("RefreshInterval = %v", got)
	}
	if got := p.Theme.Get(); got != prefs.ThemeSystem {
		t.Errorf("Theme = %q", got)
	}
}

func TestSetPersistsAndNotifies(t *testing.T) {
	dir := t.TempDir()
	p := prefs.Open(dir, nil)

	var seen []bool
	cancel := p.HideWeekend.Subscribe(func(v bool) { seen = append(seen, v) })
	defer cancel()

	if err := p.HideWeekend.Set(true); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := p.WorkingHoursStart.Set(8 * 60); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if len(seen) != 2 || seen[0] || !seen[1] {
		t.Errorf("notifications = %v, want [false true]", seen)
	}
	first, last := p.VisibleDays()
	if first != time.Monday || last != time.Friday {
		t.Errorf("VisibleDays = %v..%v, want Monday..Friday", first, last)
	}
	p.Close()

	reopened := prefs.Open(dir, nil)
	defer reopened.Close()
	if !reopened.HideWeekend.Get() || reopened.WorkingHoursStart.Get() != 480 {
		t.Errorf("reopened: hide = %v start = %d", reopened.HideWeekend.Get(), reopened.WorkingHoursStart.Get())
	}
}

func TestInvalidValues(t *testing.T) {
	dir := t.TempDir()
	p := prefs.Open(dir, nil)
	defer p.Close()

	tests := []struct {
		key, value string
	}{
		{prefs.KeyWorkingHoursEnd, "1441"},
		{prefs.KeyWorkingDaysStart, "7"},
		{prefs.KeyHideWeekend, "maybe"},
		{prefs.KeyTheme, "solarized"},
		{"NO_SUCH_KEY", "1"},
	}
	for _, tt := range tests {
		if err := p.SetString(tt.key, tt.value); err == nil {
			t.Errorf("SetString(%s, %s) succeeded, want error", tt.key, tt.value)
		}
	}
	if got := p.WorkingHoursEnd.Get(); got != 1020 {
		t.Errorf("rejected value changed WorkingHoursEnd to %d", got)
	}
}

func TestStringAccess(t *testing.T) {
	p := prefs.Open(t.TempDir(), nil)
	defer p.Close()

	if err := p.SetString("theme", "Dark"); err != nil {
		t.Fatalf("SetString: %v", err)
	}
	if got, _ := p.GetString(prefs.KeyTheme); got != "dark" {
		t.Errorf("GetString(THEME) = %q", got)
	}
	if got := len(p.Keys()); got != 7 {
		t.Errorf("len(Keys) = %d, want 7", got)
	}
}

func TestCorruptStoredValueFallsBack(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "prefs"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "prefs", prefs.KeyRefreshInterval), []byte("soon"), 0o644); err != nil {
		t.Fatal(err)
	}
	p := prefs.Open(dir, nil)
	defer p.Close()
	if got := p.RefreshIntervalMinutes.Get(); got != 5 {
		t.Errorf("RefreshIntervalMinutes = %d, want default 5", got)
	}
}
