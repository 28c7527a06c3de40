// Package prefs stores user preferences as one small file per key and
// exposes each of them as an observable value.
package prefs

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/peterbourgon/diskv/v3"

	"github.com/Tiliavir/plaid/internal/layout"
	"github.com/Tiliavir/plaid/internal/signal"
)

// Storage keys.
const (
	KeyWorkingHoursStart = "WORKING_HOURS_START_MINUTES"
	KeyWorkingHoursEnd   = "WORKING_HOURS_END_MINUTES"
	KeyWorkingDaysStart  = "WORKING_DAYS_START"
	KeyWorkingDaysEnd    = "WORKING_DAYS_END"
	KeyHideWeekend       = "HIDE_WEEKEND"
	KeyRefreshInterval   = "REFRESH_INTERVAL_MINUTES"
	KeyTheme             = "THEME"
)

// Theme is the colour scheme of the interactive grid.
type Theme string

const (
	ThemeSystem Theme = "system"
	ThemeLight  Theme = "light"
	ThemeDark   Theme = "dark"
)

// Pref is a single persisted preference.
type Pref[T any] struct {
	key    string
	def    T
	v      *signal.Value[T]
	d      *diskv.Diskv
	parse  func(string) (T, error)
	format func(T) string
}

// Key returns the storage key.
func (p *Pref[T]) Key() string { return p.key }

// Get returns the current value.
func (p *Pref[T]) Get() T { return p.v.Get() }

// Default returns the built-in value.
func (p *Pref[T]) Default() T { return p.def }

// Subscribe calls fn with the current value and after every change.
func (p *Pref[T]) Subscribe(fn func(T)) (cancel func()) {
	return p.v.Subscribe(fn)
}

// Set validates, persists and publishes v.
func (p *Pref[T]) Set(v T) error {
	s := p.format(v)
	if _, err := p.parse(s); err != nil {
		return fmt.Errorf("invalid %s: %w", p.key, err)
	}
	if err := p.d.Write(p.key, []byte(s)); err != nil {
		return fmt.Errorf("writing preference %s: %w", p.key, err)
	}
	p.v.Set(v)
	return nil
}

func (p *Pref[T]) setString(s string) error {
	v, err := p.parse(strings.TrimSpace(s))
	if err != nil {
		return fmt.Errorf("invalid %s: %w", p.key, err)
	}
	return p.Set(v)
}

func (p *Pref[T]) getString() string {
	return p.format(p.Get())
}

func (p *Pref[T]) close() { p.v.Close() }

// load reads the stored value, falling back to the default when the key is
// missing or unreadable.
func (p *Pref[T]) load(log *slog.Logger) {
	v := p.def
	if p.d.Has(p.key) {
		raw, err := p.d.Read(p.key)
		if err == nil {
			v, err = p.parse(strings.TrimSpace(string(raw)))
		}
		if err != nil {
			log.Warn("ignoring stored preference", "key", p.key, "error", err)
			v = p.def
		}
	}
	p.v = signal.NewValue(v)
}

type stringPref interface {
	Key() string
	setString(string) error
	getString() string
	close()
}

// Preferences holds every user preference.
type Preferences struct {
	WorkingHoursStart      *Pref[int]
	WorkingHoursEnd        *Pref[int]
	WorkingDaysStart       *Pref[int]
	WorkingDaysEnd         *Pref[int]
	HideWeekend            *Pref[bool]
	RefreshIntervalMinutes *Pref[int]
	Theme                  *Pref[Theme]

	all map[string]stringPref
}

// Open loads preferences stored under dir/prefs.
func Open(dir string, log *slog.Logger) *Preferences {
	if log == nil {
		log = slog.Default()
	}
	d := diskv.New(diskv.Options{
		BasePath:     filepath.Join(dir, "prefs"),
		Transform:    func(string) []string { return []string{} },
		CacheSizeMax: 64 * 1024,
	})

	p := &Preferences{
		WorkingHoursStart:      intPref(d, KeyWorkingHoursStart, 9*60, 0, 24*60),
		WorkingHoursEnd:        intPref(d, KeyWorkingHoursEnd, 17*60, 0, 24*60),
		WorkingDaysStart:       intPref(d, KeyWorkingDaysStart, int(time.Monday), 0, 6),
		WorkingDaysEnd:         intPref(d, KeyWorkingDaysEnd, int(time.Friday), 0, 6),
		HideWeekend:            &Pref[bool]{key: KeyHideWeekend, d: d, parse: strconv.ParseBool, format: strconv.FormatBool},
		RefreshIntervalMinutes: intPref(d, KeyRefreshInterval, 5, 0, 24*60),
		Theme: &Pref[Theme]{key: KeyTheme, def: ThemeSystem, d: d, parse: parseTheme, format: func(t Theme) string {
			return string(t)
		}},
	}
	p.all = map[string]stringPref{}
	for _, sp := range []interface {
		stringPref
		load(*slog.Logger)
	}{
		p.WorkingHoursStart, p.WorkingHoursEnd, p.WorkingDaysStart, p.WorkingDaysEnd,
		p.HideWeekend, p.RefreshIntervalMinutes, p.Theme,
	} {
		sp.load(log)
		p.all[sp.Key()] = sp
	}
	return p
}

func intPref(d *diskv.Diskv, key string, def, lo, hi int) *Pref[int] {
	return &Pref[int]{
		key: key,
		def: def,
		d:   d,
		parse: func(s string) (int, error) {
			n, err := strconv.Atoi(s)
			if err != nil {
				return 0, err
			}
			if n < lo || n > hi {
				return 0, fmt.Errorf("%d outside [%d, %d]", n, lo, hi)
			}
			return n, nil
		},
		format: strconv.Itoa,
	}
}

func parseTheme(s string) (Theme, error) {
	switch t := Theme(strings.ToLower(s)); t {
	case ThemeSystem, ThemeLight, ThemeDark:
		return t, nil
	}
	return "", fmt.Errorf("unknown theme %q", s)
}

// WorkingHours returns the working-hours window.
func (p *Preferences) WorkingHours() layout.WorkingHours {
	return layout.WorkingHours{
		StartMinutes: p.WorkingHoursStart.Get(),
		EndMinutes:   p.WorkingHoursEnd.Get(),
	}
}

// VisibleDays returns the weekdays shown on the grid: the working days
// when the weekend is hidden, the whole week otherwise.
func (p *Preferences) VisibleDays() (first, last time.Weekday) {
	if p.HideWeekend.Get() {
		return time.Weekday(p.WorkingDaysStart.Get()), time.Weekday(p.WorkingDaysEnd.Get())
	}
	return time.Sunday, time.Saturday
}

// RefreshInterval returns the periodic refresh interval; zero disables it.
func (p *Preferences) RefreshInterval() time.Duration {
	return time.Duration(p.RefreshIntervalMinutes.Get()) * time.Minute
}

// Keys lists every preference key in order.
func (p *Preferences) Keys() []string {
	keys := make([]string, 0, len(p.all))
	for k := range p.all {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// GetString returns the stored form of a preference.
func (p *Preferences) GetString(key string) (string, error) {
	sp, ok := p.all[strings.ToUpper(key)]
	if !ok {
		return "", fmt.Errorf("unknown preference %q", key)
	}
	return sp.getString(), nil
}

// SetString parses and stores a preference given in its stored form.
func (p *Preferences) SetString(key, value string) error {
	sp, ok := p.all[strings.ToUpper(key)]
	if !ok {
		return fmt.Errorf("unknown preference %q", key)
	}
	return sp.setString(value)
}

// Close stops notifying subscribers.
func (p *Preferences) Close() {
	for _, sp := range p.all {
		sp.close()
	}
}
