package stream

import (
	"io"
	"sync/atomic"
	"time"

	"github.com/go-graphite/go-throttle/helper"
)

// Option configures a Throttle.
type Option func(*options)

type options struct {
	clock Clock
}

// WithClock replaces the wall clock used to arm cooldown timers.
func WithClock(clock Clock) Option {
	return func(o *options) {
		o.clock = clock
	}
}

// Throttle yields the items of its source no faster than one per interval.
// Items arriving too soon are held back, never dropped. The first item is
// not delayed.
//
// A Throttle owns its source: nobody else may poll it while the Throttle is
// in use.
type Throttle[T any] struct {
	source   Stream[T]
	interval time.Duration
	clock    Clock

	// non-nil while cooling down after the last emitted item
	delay    *Delay
	finished bool

	emitted       uint32
	cooling       uint32
	sourcePending uint32
}

// NewThrottle wraps source so that consecutive items are at least interval
// apart.
func NewThrottle[T any](source Stream[T], interval time.Duration, opts ...Option) *Throttle[T] {
	o := options{clock: RealClock}
	for _, opt := range opts {
		opt(&o)
	}

	return &Throttle[T]{
		source:   source,
		interval: interval,
		clock:    o.clock,
	}
}

// Interval returns the minimum spacing between items.
func (t *Throttle[T]) Interval() time.Duration {
	return t.interval
}

// PollNext implements Stream.
func (t *Throttle[T]) PollNext(cx *Context) Poll[T] {
	if t.finished {
		return Done[T]()
	}

	if t.delay != nil {
		if !t.delay.Poll(cx) {
			atomic.AddUint32(&t.cooling, 1)
			return Pending[T]()
		}
		// elapsed: go straight to the source in this same call
		t.delay = nil
	}

	p := t.source.PollNext(cx)
	switch {
	case p.IsPending():
		atomic.AddUint32(&t.sourcePending, 1)
		// no timer is armed, nothing else would get us polled again
		cx.Wake()
	case p.IsDone():
		t.finished = true
	default:
		t.delay = NewDelay(t.clock, t.interval)
		atomic.AddUint32(&t.emitted, 1)
	}

	return p
}

// Close stops an armed cooldown timer and closes the source if it is an
// io.Closer. The Throttle reports Done afterwards.
func (t *Throttle[T]) Close() error {
	t.finished = true
	if t.delay != nil {
		t.delay.Stop()
		t.delay = nil
	}

	if c, ok := t.source.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// Stat sends counters accumulated since the previous call.
func (t *Throttle[T]) Stat(send helper.StatCallback) {
	helper.SendAndSubstractUint32("emitted", &t.emitted, send)
	helper.SendAndSubstractUint32("cooling", &t.cooling, send)
	helper.SendAndSubstractUint32("sourcePending", &t.sourcePending, send)
}
