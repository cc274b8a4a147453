// Package scheduler runs periodic background workers on independent timers.
// The clock is injectable so backoff and cursor tests can advance time
// without real waits.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2/log"
)

// Clock abstracts wall-clock access for deterministic tests.
type Clock interface {
	Now() time.Time
	After(d time.Duration) <-chan time.Time
}

type realClock struct{}

func (realClock) Now() time.Time                         { return time.Now() }
func (realClock) After(d time.Duration) <-chan time.Time { return time.After(d) }

// RealClock returns a Clock backed by the system clock.
func RealClock() Clock { return realClock{} }

// TaskFunc is one scheduled unit of work. Errors are logged, never fatal.
type TaskFunc func(ctx context.Context) error

// Scheduler owns a set of named periodic tasks.
type Scheduler struct {
	clock  Clock
	stopCh chan struct{}
	wg     sync.WaitGroup
}

// NewScheduler creates a scheduler using the given clock.
func NewScheduler(clock Clock) *Scheduler {
	if clock == nil {
		clock = RealClock()
	}
	return &Scheduler{
		clock:  clock,
		stopCh: make(chan struct{}),
	}
}

// Every registers a task that runs once per interval until Stop is called.
// A panicking task is recovered and logged so one bad tick cannot take the
// scheduler down.
func (s *Scheduler) Every(name string, interval time.Duration, task TaskFunc) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		log.Infof("[Scheduler] %s running every %s", name, interval)
		for {
			select {
			case <-s.stopCh:
				log.Infof("[Scheduler] %s stopping", name)
				return
			case <-s.clock.After(interval):
				s.runTask(name, task)
			}
		}
	}()
}

func (s *Scheduler) runTask(name string, task TaskFunc) {
	defer func() {
		if r := recover(); r != nil {
			log.Errorf("[Scheduler] %s panicked: %v", name, r)
		}
	}()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := task(ctx); err != nil {
		log.Errorf("[Scheduler] %s failed: %v", name, err)
	}
}

// Stop stops all registered tasks and waits for in-flight runs to finish.
func (s *Scheduler) Stop() {
	close(s.stopCh)
	s.wg.Wait()
}
