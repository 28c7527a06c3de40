// Package signal provides small observable stores: Value holds a current
// value and notifies subscribers of every change, Topic broadcasts events.
// After Close neither notifies anyone again.
package signal

import "sync"

// Value is an observable current value. The zero Value is not usable; use
// NewValue.
type Value[T any] struct {
	mu     sync.Mutex
	v      T
	subs   map[int]func(T)
	nextID int
	closed bool

	// pending holds values not yet delivered. Only the goroutine that set
	// delivering drains it, so subscribers see values in the order they
	// were stored.
	pending    []T
	delivering bool
}

// NewValue returns a Value holding v.
func NewValue[T any](v T) *Value[T] {
	return &Value[T]{v: v, subs: map[int]func(T){}}
}

// Get returns the current value.
func (s *Value[T]) Get() T {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.v
}

// Set stores v and notifies subscribers. After Close the value is stored
// but nobody is notified. When another Set is still notifying, v is queued
// behind it and Set returns without waiting.
func (s *Value[T]) Set(v T) {
	s.mu.Lock()
	s.v = v
	s.notifyLocked(v)
}

// Update replaces the value with fn(current) atomically and notifies.
func (s *Value[T]) Update(fn func(T) T) {
	s.mu.Lock()
	s.v = fn(s.v)
	s.notifyLocked(s.v)
}

// notifyLocked must be called with mu held and releases it.
func (s *Value[T]) notifyLocked(v T) {
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.pending = append(s.pending, v)
	if s.delivering {
		s.mu.Unlock()
		return
	}
	s.delivering = true
	for len(s.pending) > 0 {
		next := s.pending[0]
		s.pending = s.pending[1:]
		fns := s.snapshot()
		s.mu.Unlock()
		for _, fn := range fns {
			fn(next)
		}
		s.mu.Lock()
	}
	s.pending = nil
	s.delivering = false
	s.mu.Unlock()
}

// Subscribe calls fn with the current value and then with every new value
// until the returned cancel func is called. Subscribing to a closed Value
// returns a no-op cancel and never calls fn.
func (s *Value[T]) Subscribe(fn func(T)) (cancel func()) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return func() {}
	}
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	v := s.v
	s.mu.Unlock()

	fn(v)
	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

// Close drops all subscribers.
func (s *Value[T]) Close() {
	s.mu.Lock()
	s.closed = true
	s.subs = map[int]func(T){}
	s.pending = nil
	s.mu.Unlock()
}

// snapshot must be called with mu held.
func (s *Value[T]) snapshot() []func(T) {
	if s.closed {
		return nil
	}
	fns := make([]func(T), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	return fns
}

// Topic broadcasts events to subscribers. Unlike Value it keeps no state, so
// late subscribers only see later events.
type Topic[T any] struct {
	mu     sync.Mutex
	subs   map[int]func(T)
	nextID int
	closed bool
}

// NewTopic returns an open Topic.
func NewTopic[T any]() *Topic[T] {
	return &Topic[T]{subs: map[int]func(T){}}
}

// Publish delivers ev to every subscriber.
func (t *Topic[T]) Publish(ev T) {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return
	}
	fns := make([]func(T), 0, len(t.subs))
	for _, fn := range t.subs {
		fns = append(fns, fn)
	}
	t.mu.Unlock()
	for _, fn := range fns {
		fn(ev)
	}
}

// Subscribe registers fn until cancel is called.
func (t *Topic[T]) Subscribe(fn func(T)) (cancel func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return func() {}
	}
	id := t.nextID
	t.nextID++
	t.subs[id] = fn
	return func() {
		t.mu.Lock()
		delete(t.subs, id)
		t.mu.Unlock()
	}
}

// Close drops all subscribers; later publishes are discarded.
func (t *Topic[T]) Close() {
	t.mu.Lock()
	t.closed = true
	t.subs = map[int]func(T){}
	t.mu.Unlock()
}
