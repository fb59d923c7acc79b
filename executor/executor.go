package executor

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/go-graphite/go-throttle/stream"
)

// Option configures how a stream is driven.
type Option func(*config)

type config struct {
	logger      *zap.Logger
	spinBackoff time.Duration
}

func newConfig(opts []Option) *config {
	c := &config{
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Logger sets the logger used for debug messages.
func Logger(logger *zap.Logger) Option {
	return func(c *config) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// SpinBackoff bounds busy polling. When the only wake after a Pending poll
// came from inside the poll itself, the next poll waits up to d for a wake
// from another goroutine. Zero re-polls immediately.
func SpinBackoff(d time.Duration) Option {
	return func(c *config) {
		c.spinBackoff = d
	}
}

// task is the waker handed to the driven stream.
type task struct {
	woken   chan struct{}
	polling int32
	inPoll  int32

	polls uint32
	wakes uint32
}

func newTask() *task {
	return &task{woken: make(chan struct{}, 1)}
}

func (t *task) Wake() {
	atomic.AddUint32(&t.wakes, 1)
	if atomic.LoadInt32(&t.polling) == 1 {
		atomic.StoreInt32(&t.inPoll, 1)
	}
	select {
	case t.woken <- struct{}{}:
	default:
	}
}

func (t *task) poll(fn func()) (selfWoken bool) {
	atomic.AddUint32(&t.polls, 1)
	atomic.StoreInt32(&t.inPoll, 0)
	atomic.StoreInt32(&t.polling, 1)
	fn()
	atomic.StoreInt32(&t.polling, 0)
	return atomic.LoadInt32(&t.inPoll) == 1
}

// wait blocks until the task is woken or exit is closed. It returns false on
// exit.
func (t *task) wait(exit <-chan struct{}, selfWoken bool, backoff time.Duration) bool {
	if selfWoken && backoff > 0 {
		// drop the wake raised during the poll and give other goroutines
		// a chance to make the stream ready
		select {
		case <-t.woken:
		default:
		}

		timer := time.NewTimer(backoff)
		defer timer.Stop()

		select {
		case <-t.woken:
		case <-timer.C:
		case <-exit:
			return false
		}
		return true
	}

	select {
	case <-t.woken:
		return true
	case <-exit:
		return false
	}
}

// drive polls s until it is exhausted, handle returns false or exit is
// closed. It reports whether s finished.
func drive[T any](exit <-chan struct{}, t *task, s stream.Stream[T], c *config, handle func(T) bool) bool {
	cx := stream.NewContext(t)

	for {
		select {
		case <-exit:
			return false
		default:
		}

		var p stream.Poll[T]
		selfWoken := t.poll(func() {
			p = s.PollNext(cx)
		})

		if p.IsDone() {
			return true
		}
		if v, ok := p.Value(); ok {
			if !handle(v) {
				return false
			}
			continue
		}

		if !t.wait(exit, selfWoken, c.spinBackoff) {
			return false
		}
	}
}

// Drain polls s on the calling goroutine until it is exhausted, calling fn
// for every value. It returns the first fn error, or the context error if
// ctx ends first.
func Drain[T any](ctx context.Context, s stream.Stream[T], fn func(T) error, opts ...Option) error {
	c := newConfig(opts)
	t := newTask()

	var handleErr error
	finished := drive(ctx.Done(), t, s, c, func(v T) bool {
		if err := fn(v); err != nil {
			handleErr = err
			return false
		}
		return true
	})

	c.logger.Debug("drain stopped",
		zap.Bool("finished", finished),
		zap.Uint32("polls", atomic.LoadUint32(&t.polls)),
		zap.Uint32("wakes", atomic.LoadUint32(&t.wakes)),
	)

	if handleErr != nil {
		return handleErr
	}
	if !finished {
		return fmt.Errorf("drain interrupted: %w", ctx.Err())
	}
	return nil
}

// Collect drains s into a slice.
func Collect[T any](ctx context.Context, s stream.Stream[T], opts ...Option) ([]T, error) {
	var result []T
	err := Drain(ctx, s, func(v T) error {
		result = append(result, v)
		return nil
	}, opts...)
	return result, err
}
