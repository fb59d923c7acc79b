package executor

import (
	"sync"
	"sync/atomic"

	"github.com/lomik/stop"

	"github.com/go-graphite/go-throttle/helper"
	"github.com/go-graphite/go-throttle/stream"
)

// Runner drives a stream in a background goroutine and hands every value to
// a handler. The handler runs on the driving goroutine, so a slow handler
// slows the stream down instead of buffering.
type Runner[T any] struct {
	stop.Struct
	source   stream.Stream[T]
	handler  func(T)
	config   *config
	task     *task
	finished chan struct{}
	once     sync.Once
	items    uint32
}

// NewRunner creates a Runner. Call Start to begin polling.
func NewRunner[T any](source stream.Stream[T], handler func(T), opts ...Option) *Runner[T] {
	return &Runner[T]{
		source:   source,
		handler:  handler,
		config:   newConfig(opts),
		task:     newTask(),
		finished: make(chan struct{}),
	}
}

// Start launches the driving goroutine.
func (r *Runner[T]) Start() error {
	return r.StartFunc(func() error {
		r.Go(func(exit chan struct{}) {
			finished := drive(exit, r.task, r.source, r.config, func(v T) bool {
				atomic.AddUint32(&r.items, 1)
				r.handler(v)
				return true
			})

			if finished {
				r.config.logger.Info("source exhausted")
				r.once.Do(func() { close(r.finished) })
			}
		})
		return nil
	})
}

// Finished is closed once the source reported Done.
func (r *Runner[T]) Finished() <-chan struct{} {
	return r.finished
}

// Stat sends polling counters accumulated since the previous call.
func (r *Runner[T]) Stat(send helper.StatCallback) {
	helper.SendAndSubstractUint32("polls", &r.task.polls, send)
	helper.SendAndSubstractUint32("wakes", &r.task.wakes, send)
	helper.SendAndSubstractUint32("items", &r.items, send)
}
