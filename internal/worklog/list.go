// Package worklog keeps the in-memory list of work logs for the visible
// range and talks to the data source that stores them.
package worklog

import (
	"github.com/Tiliavir/plaid/internal/model"
	"github.com/Tiliavir/plaid/internal/signal"
)

// List is the single in-memory collection of work logs. It is only changed
// by Replace, Upsert and Remove; every change publishes a fresh slice so
// subscribers may keep what they received.
type List struct {
	items    *signal.Value[[]model.Worklog]
	fetching *signal.Value[bool]
}

// NewList returns an empty list.
func NewList() *List {
	return &List{
		items:    signal.NewValue[[]model.Worklog](nil),
		fetching: signal.NewValue(false),
	}
}

// Items returns the current work logs.
func (l *List) Items() []model.Worklog {
	return l.items.Get()
}

// Subscribe calls fn with the current work logs and after every change.
func (l *List) Subscribe(fn func([]model.Worklog)) (cancel func()) {
	return l.items.Subscribe(fn)
}

// Fetching reports whether a visible fetch is running.
func (l *List) Fetching() bool {
	return l.fetching.Get()
}

// SubscribeFetching calls fn whenever the fetching flag changes.
func (l *List) SubscribeFetching(fn func(bool)) (cancel func()) {
	return l.fetching.Subscribe(fn)
}

func (l *List) setFetching(v bool) {
	l.fetching.Set(v)
}

// Replace swaps the whole collection.
func (l *List) Replace(ws []model.Worklog) {
	l.items.Set(append([]model.Worklog(nil), ws...))
}

// Upsert replaces the work log with w's ID or appends w.
func (l *List) Upsert(w model.Worklog) {
	l.items.Update(func(cur []model.Worklog) []model.Worklog {
		out := make([]model.Worklog, 0, len(cur)+1)
		found := false
		for _, x := range cur {
			if x.ID == w.ID {
				x = w
				found = true
			}
			out = append(out, x)
		}
		if !found {
			out = append(out, w)
		}
		return out
	})
}

// Remove drops the work log with the given ID.
func (l *List) Remove(id string) {
	l.items.Update(func(cur []model.Worklog) []model.Worklog {
		out := make([]model.Worklog, 0, len(cur))
		for _, x := range cur {
			if x.ID != id {
				out = append(out, x)
			}
		}
		return out
	})
}

// Find returns the work log with the given ID.
func (l *List) Find(id string) (model.Worklog, bool) {
	for _, w := range l.items.Get() {
		if w.ID == id {
			return w, true
		}
	}
	return model.Worklog{}, false
}

// Close stops all notifications.
func (l *List) Close() {
	l.items.Close()
	l.fetching.Close()
}
