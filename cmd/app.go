package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/user"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/Tiliavir/plaid/internal/config"
	"github.com/Tiliavir/plaid/internal/jira"
	"github.com/Tiliavir/plaid/internal/model"
	"github.com/Tiliavir/plaid/internal/prefs"
	"github.com/Tiliavir/plaid/internal/storage"
	"github.com/Tiliavir/plaid/internal/worklog"
)

// app bundles what every command needs: configuration, preferences and the
// work-log service backed by Jira or local files.
type app struct {
	cfg   config.Config
	prefs *prefs.Preferences
	src   worklog.Source
	svc   *worklog.Service
	user  *model.User
	// local is set when running offline.
	local *storage.Local
	jira  *jira.Client
	log   *slog.Logger
}

// identity resolves the signed-in user.
type identity interface {
	Myself(ctx context.Context) (*model.User, error)
}

func loadConfig() config.Config {
	cfg, err := config.Load()
	if err != nil {
		fail(fmt.Errorf("loading config: %w", err))
	}
	if flagOffline {
		cfg.Offline = true
	}
	return cfg
}

// openApp wires the backend selected by the config. With signIn the current
// user is resolved, which for Jira verifies the stored credentials.
func openApp(ctx context.Context, signIn bool) *app {
	cfg := loadConfig()
	log := slog.Default()
	a := &app{cfg: cfg, log: log, prefs: prefs.Open(cfg.DataDir, log)}

	var id identity
	if cfg.Offline {
		a.local = storage.NewLocal(filepath.Join(cfg.DataDir, "worklogs"), storage.LocalUser(localName()))
		a.src, id = a.local, a.local
	} else {
		if err := cfg.Validate(); err != nil {
			fail(err)
		}
		creds, err := jira.LoadCredentials(cfg.DataDir)
		if err != nil {
			fail(err)
		}
		client, err := jira.NewClient(cfg.Jira.URL, jira.NewHTTPClient(ctx, creds), log)
		if err != nil {
			fail(err)
		}
		a.jira = client
		a.src, id = client, client
	}
	a.svc = worklog.NewService(a.src, worklog.NewList(), log)

	if signIn {
		u, err := id.Myself(ctx)
		if err != nil {
			fail(err)
		}
		a.user = u
	}
	return a
}

func (a *app) close() {
	a.prefs.Close()
}

func localName() string {
	if u, err := user.Current(); err == nil && u.Username != "" {
		return u.Username
	}
	return "local"
}

// fail prints err with a hint for the common remote failures and exits
// with status 2.
func fail(err error) {
	fmt.Fprintln(os.Stderr, "Error:", err)
	switch {
	case errors.Is(err, jira.ErrNoCredentials), jira.IsAuth(err):
		fmt.Fprintln(os.Stderr, "Run 'plaid login' to sign in, or use --offline.")
	case errors.Is(err, jira.ErrNotConfigured):
		if path, perr := config.Path(); perr == nil {
			fmt.Fprintf(os.Stderr, "Set jira.url in %s, or use --offline.\n", path)
		}
	case jira.IsNetwork(err):
		fmt.Fprintln(os.Stderr, "The Jira server could not be reached.")
	}
	os.Exit(2)
}

// weekFor returns the visible week containing the --date value (today when
// empty) shifted by offset weeks.
func (a *app) weekFor(date string, offset int) (model.DateRange, error) {
	day := time.Now()
	if date != "" {
		d, err := parseDate(date)
		if err != nil {
			return model.DateRange{}, err
		}
		day = d
	}
	first, last := a.prefs.VisibleDays()
	return model.WeekOf(day, first, last).Shift(7 * offset), nil
}

// load fetches the work logs of r for the signed-in user.
func (a *app) load(ctx context.Context, r model.DateRange) []model.Worklog {
	if err := a.svc.Fetch(ctx, r, a.user); err != nil {
		fail(err)
	}
	return a.svc.List().Items()
}

func parseDate(s string) (time.Time, error) {
	t, err := time.ParseInLocation("2006-01-02", s, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, want YYYY-MM-DD", s)
	}
	return t, nil
}

// parseStart accepts "YYYY-MM-DD HH:MM", "YYYY-MM-DDTHH:MM" or "HH:MM" on
// the day given by base.
func parseStart(s string, base time.Time) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{"2006-01-02 15:04", "2006-01-02T15:04"} {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}
	clock, err := time.Parse("15:04", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid start %q, want HH:MM or \"YYYY-MM-DD HH:MM\"", s)
	}
	return time.Date(base.Year(), base.Month(), base.Day(), clock.Hour(), clock.Minute(), 0, 0, time.Local), nil
}

// parseMinutes accepts Go durations like "1h30m" or plain minutes.
func parseMinutes(s string) (int, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		if n <= 0 {
			return 0, fmt.Errorf("duration must be positive, got %q", s)
		}
		return n, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q, want e.g. 90 or 1h30m", s)
	}
	if d < time.Minute {
		return 0, fmt.Errorf("duration must be at least one minute, got %q", s)
	}
	return int(d / time.Minute), nil
}
