package signal_test

import (
	"sync"
	"testing"

	"github.com/Tiliavir/plaid/internal/signal"
)

func TestValueSubscribe(t *testing.T) {
	v := signal.NewValue(1)
	var got []int
	cancel := v.Subscribe(func(n int) { got = append(got, n) })

	v.Set(2)
	v.Update(func(n int) int { return n * 10 })
	cancel()
	v.Set(3)

	want := []int{1, 2, 20}
	if len(got) != len(want) {
		t.Fatalf("notifications = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("notifications = %v, want %v", got, want)
			break
		}
	}
	if v.Get() != 3 {
		t.Errorf("Get = %d, want 3", v.Get())
	}
}

func TestValueClose(t *testing.T) {
	v := signal.NewValue("a")
	calls := 0
	v.Subscribe(func(string) { calls++ })
	v.Close()
	v.Set("b")
	v.Subscribe(func(string) { calls++ })

	if calls != 1 {
		t.Errorf("calls = %d, want 1 (initial delivery only)", calls)
	}
	if v.Get() != "b" {
		t.Errorf("Get after Close = %q, want %q", v.Get(), "b")
	}
}

func TestTopic(t *testing.T) {
	tp := signal.NewTopic[string]()
	tp.Publish("before")

	var got []string
	cancel := tp.Subscribe(func(s string) { got = append(got, s) })
	tp.Publish("one")
	cancel()
	tp.Publish("two")

	if len(got) != 1 || got[0] != "one" {
		t.Errorf("events = %v, want [one]", got)
	}

	tp.Subscribe(func(s string) { got = append(got, s) })
	tp.Close()
	tp.Publish("three")
	if len(got) != 1 {
		t.Errorf("events after Close = %v", got)
	}
}

func TestValueConcurrentSet(t *testing.T) {
	v := signal.NewValue(0)
	var mu sync.Mutex
	seen := 0
	v.Subscribe(func(int) {
		mu.Lock()
		seen++
		mu.Unlock()
	})

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v.Update(func(n int) int { return n + 1 })
		}()
	}
	wg.Wait()

	if v.Get() != 50 {
		t.Errorf("Get = %d, want 50", v.Get())
	}
	if seen != 51 {
		t.Errorf("seen = %d, want 51", seen)
	}
}

func TestValueSetFromSubscriberKeepsOrder(t *testing.T) {
	v := signal.NewValue(0)
	v.Subscribe(func(n int) {
		if n == 1 {
			v.Set(2)
		}
	})
	var got []int
	v.Subscribe(func(n int) { got = append(got, n) })

	v.Set(1)

	want := []int{0, 1, 2}
	if len(got) != len(want) {
		t.Fatalf("notifications = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("notifications = %v, want %v", got, want)
		}
	}
}

func TestValueLastNotificationIsCurrent(t *testing.T) {
	v := signal.NewValue(0)
	var mu sync.Mutex
	last, prev := 0, 0
	inOrder := true
	v.Subscribe(func(n int) {
		mu.Lock()
		defer mu.Unlock()
		if n < prev {
			inOrder = false
		}
		prev, last = n, n
	})

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				v.Update(func(n int) int { return n + 1 })
			}
		}()
	}
	wg.Wait()

	if !inOrder {
		t.Error("subscriber saw values out of order")
	}
	if last != v.Get() {
		t.Errorf("last notification = %d, current value = %d", last, v.Get())
	}
}
