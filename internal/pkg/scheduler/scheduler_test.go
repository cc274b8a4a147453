package scheduler

import (
	"context"
	"sync"
	"testing"
	"time"
)

// fakeClock hands out tick channels the test fires by hand.
type fakeClock struct {
	mu    sync.Mutex
	now   time.Time
	ticks []chan time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) After(d time.Duration) <-chan time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	ch := make(chan time.Time, 1)
	c.ticks = append(c.ticks, ch)
	return ch
}

func (c *fakeClock) fire() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, ch := range c.ticks {
		select {
		case ch <- c.now:
		default:
		}
	}
	c.ticks = nil
}

func TestSchedulerRunsTaskOnTick(t *testing.T) {
	clock := newFakeClock()
	s := NewScheduler(clock)
	defer s.Stop()

	ran := make(chan struct{}, 1)
	s.Every("test-task", time.Minute, func(ctx context.Context) error {
		ran <- struct{}{}
		return nil
	})

	// Let the goroutine register its first After channel.
	waitFor(t, func() bool {
		clock.mu.Lock()
		defer clock.mu.Unlock()
		return len(clock.ticks) > 0
	})
	clock.fire()

	select {
	case <-ran:
	case <-time.After(2 * time.Second):
		t.Fatal("task did not run after tick")
	}
}

func TestSchedulerRecoversPanic(t *testing.T) {
	clock := newFakeClock()
	s := NewScheduler(clock)
	defer s.Stop()

	calls := make(chan int, 2)
	n := 0
	s.Every("panicky", time.Minute, func(ctx context.Context) error {
		n++
		calls <- n
		panic("boom")
	})

	for i := 1; i <= 2; i++ {
		waitFor(t, func() bool {
			clock.mu.Lock()
			defer clock.mu.Unlock()
			return len(clock.ticks) > 0
		})
		clock.fire()
		select {
		case got := <-calls:
			if got != i {
				t.Fatalf("expected call %d, got %d", i, got)
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("task did not survive panic before run %d", i)
		}
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}
