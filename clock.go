package session

import (
	"sync"
	"time"
)

// CancelFunc stops a scheduled task. Safe to call more than once; calling
// it after the task fired is a no-op.
type CancelFunc func()

func nopCancel() {}

// Scheduler abstracts timer-driven callbacks so teardown is explicit and
// tests can run against a manual implementation instead of the wall clock.
type Scheduler interface {
	// Schedule runs fn once after d.
	Schedule(d time.Duration, fn func()) CancelFunc
	// Repeat runs fn every interval until canceled.
	Repeat(interval time.Duration, fn func()) CancelFunc
}

// NewScheduler returns the wall-clock Scheduler used outside of tests.
// Delays are wall-clock based; a system clock change or device sleep can
// fire tasks early or late.
func NewScheduler() Scheduler {
	return wallScheduler{}
}

type wallScheduler struct{}

func (wallScheduler) Schedule(d time.Duration, fn func()) CancelFunc {
	t := time.AfterFunc(d, fn)
	return func() { t.Stop() }
}

func (wallScheduler) Repeat(interval time.Duration, fn func()) CancelFunc {
	ticker := time.NewTicker(interval)
	done := make(chan struct{})

	go func() {
		for {
			select {
			case <-ticker.C:
				fn()
			case <-done:
				return
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			ticker.Stop()
			close(done)
		})
	}
}
