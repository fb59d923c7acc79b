package stream

import (
	"sync"
	"time"
)

// Clock abstracts the time source so tests can drive timers by hand.
type Clock interface {
	Now() time.Time
	// AfterFunc calls f in its own goroutine after d. The returned function
	// cancels the call and reports whether it did so before f ran.
	AfterFunc(d time.Duration, f func()) (stop func() bool)
}

type realClock struct{}

func (realClock) Now() time.Time {
	return time.Now()
}

func (realClock) AfterFunc(d time.Duration, f func()) func() bool {
	return time.AfterFunc(d, f).Stop
}

// RealClock is the wall clock backed by package time.
var RealClock Clock = realClock{}

// Delay is a one-shot timer that becomes ready once its duration has
// elapsed. A ready Delay stays ready; it is meant to be dropped afterwards.
type Delay struct {
	mu      sync.Mutex
	fired   bool
	stopped bool
	waker   Waker
	stop    func() bool
}

// NewDelay arms a Delay for d starting now. Non positive durations produce a
// Delay that is already elapsed.
func NewDelay(clock Clock, d time.Duration) *Delay {
	if d <= 0 {
		return &Delay{fired: true}
	}
	if clock == nil {
		clock = RealClock
	}

	dl := &Delay{}
	dl.stop = clock.AfterFunc(d, dl.fire)
	return dl
}

func (dl *Delay) fire() {
	dl.mu.Lock()
	if dl.stopped {
		dl.mu.Unlock()
		return
	}
	dl.fired = true
	w := dl.waker
	dl.waker = nil
	dl.mu.Unlock()

	if w != nil {
		w.Wake()
	}
}

// Poll reports whether the delay has elapsed. When it has not, the waker of
// cx replaces any previously registered one and is woken on expiry.
func (dl *Delay) Poll(cx *Context) bool {
	dl.mu.Lock()
	defer dl.mu.Unlock()

	if dl.fired {
		return true
	}
	dl.waker = cx.Waker()
	return false
}

// Stop cancels a pending timer. The Delay never becomes ready afterwards,
// even when the timer already started to fire.
func (dl *Delay) Stop() {
	dl.mu.Lock()
	dl.stopped = true
	dl.waker = nil
	dl.mu.Unlock()

	if dl.stop != nil {
		dl.stop()
	}
}
