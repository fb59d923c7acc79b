// Package relay is a daemon that forwards Graphite points from one input to
// one output at a bounded rate.
package relay

import (
	"io"
	"net"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/lomik/stop"
	"github.com/lomik/zapwriter"
	"go.uber.org/zap"

	"github.com/go-graphite/go-throttle/executor"
	"github.com/go-graphite/go-throttle/helper"
	"github.com/go-graphite/go-throttle/points"
	"github.com/go-graphite/go-throttle/stream"
)

// pause between attempts to write a point the output rejected
const reconnectPause = time.Second

// Option changes a Relay before Start.
type Option func(*Relay)

// Stdin replaces os.Stdin for the stdin input.
func Stdin(r io.Reader) Option {
	return func(rl *Relay) {
		rl.stdin = r
	}
}

// Stdout replaces os.Stdout for the stdout output.
func Stdout(w io.Writer) Option {
	return func(rl *Relay) {
		rl.stdout = w
	}
}

// Logger replaces the zapwriter loggers. Components get named children.
func Logger(logger *zap.Logger) Option {
	return func(rl *Relay) {
		rl.logger = logger
	}
}

// Relay forwards points from one input to one output, at most one Points
// per throttle interval. Nothing is dropped while the relay runs: a full
// queue blocks the input.
type Relay struct {
	stop.Struct
	config *Config
	stdin  io.Reader
	stdout io.Writer
	logger *zap.Logger

	quit      chan struct{}
	queue     chan *points.Points
	input     Input
	output    Output
	source    *stream.ChanStream[*points.Points]
	throttle  *stream.Throttle[*points.Points]
	runner    *executor.Runner[*points.Points]
	collector *Collector
	finished  chan struct{}
	once      sync.Once

	sent        uint32
	writeErrors uint32
	dropped     uint32
}

// New checks cfg and prepares a relay. Nothing is listened or dialed before
// Start.
func New(cfg *Config, opts ...Option) (*Relay, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	r := &Relay{
		config:   cfg,
		stdin:    os.Stdin,
		stdout:   os.Stdout,
		finished: make(chan struct{}),
	}

	for _, opt := range opts {
		opt(r)
	}

	output, err := newOutput(cfg.Output, r.stdout, r.named("output"))
	if err != nil {
		return nil, err
	}
	r.output = output

	if r.logger == nil {
		r.logger = zapwriter.Logger("relay")
	}

	return r, nil
}

func (r *Relay) named(name string) *zap.Logger {
	if r.logger != nil {
		return r.logger.Named(name)
	}
	return zapwriter.Logger(name)
}

// Start opens the input and begins forwarding.
func (r *Relay) Start() error {
	return r.StartFunc(func() error {
		quit := make(chan struct{})
		queue := make(chan *points.Points, r.config.Throttle.BufferSize)

		store := func(p *points.Points) {
			select {
			case queue <- p:
			case <-quit:
				atomic.AddUint32(&r.dropped, uint32(p.Len()))
			}
		}

		// only the stdin input ends, and it is the only sender then
		eof := func() {
			close(queue)
		}

		input, err := newInput(r.config.Input, r.stdin, store, eof, r.named("input"))
		if err != nil {
			return err
		}

		r.quit = quit
		r.queue = queue
		r.input = input
		r.source = stream.FromChan[*points.Points](queue)
		r.throttle = stream.NewThrottle[*points.Points](r.source, r.config.Throttle.Interval.Value())
		r.runner = executor.NewRunner[*points.Points](r.throttle, r.send,
			executor.SpinBackoff(r.config.Throttle.SpinBackoff.Value()),
			executor.Logger(r.named("runner")),
		)

		if err := r.runner.Start(); err != nil {
			return err
		}

		if err := r.input.Start(); err != nil {
			r.shutdown()
			return err
		}

		runner := r.runner
		r.Go(func(exit chan struct{}) {
			select {
			case <-exit:
			case <-runner.Finished():
				r.logger.Info("input drained")
				r.once.Do(func() { close(r.finished) })
			}
		})

		r.collector = NewCollector(r.config.Common.MetricPrefix, r.config.Common.MetricInterval.Value(), r.Stat, r.named("stat"))
		listen := ""
		if r.config.Metrics.Enabled {
			listen = r.config.Metrics.Listen
		}
		if err := r.collector.Start(listen); err != nil {
			r.shutdown()
			return err
		}

		r.logger.Info("started",
			zap.String("input", r.config.Input.Listen),
			zap.String("output", r.config.Output.Endpoint),
			zap.Duration("interval", r.throttle.Interval()),
		)
		return nil
	})
}

// shutdown releases everything Start created. quit goes first so blocked
// senders and writers give up.
func (r *Relay) shutdown() {
	close(r.quit)
	if r.collector != nil {
		r.collector.Stop()
	}
	r.input.Stop()
	r.runner.Stop()
	r.throttle.Close()
	if err := r.output.Close(); err != nil {
		r.logger.Warn("output close failed", zap.Error(err))
	}
}

// Stop stops the input and the forwarding. Points still queued are
// counted as dropped.
func (r *Relay) Stop() {
	r.StopFunc(func() {
		r.shutdown()
		if r.queue != nil {
			atomic.AddUint32(&r.dropped, uint32(len(r.queue)))
		}
		r.logger.Info("stopped")
	})
}

func (r *Relay) send(p *points.Points) {
	for {
		err := r.output.Write(p)
		if err == nil {
			atomic.AddUint32(&r.sent, uint32(p.Len()))
			return
		}

		atomic.AddUint32(&r.writeErrors, 1)
		r.logger.Error("write failed", zap.Error(err), zap.String("metric", p.Metric))

		select {
		case <-r.quit:
			atomic.AddUint32(&r.dropped, uint32(p.Len()))
			return
		case <-time.After(reconnectPause):
		}
	}
}

// Finished is closed when the stdin input reached EOF and everything read
// was written.
func (r *Relay) Finished() <-chan struct{} {
	return r.finished
}

// Addr returns the bound input address, nil for stdin. For port 0 in tests.
func (r *Relay) Addr() net.Addr {
	if r.input == nil {
		return nil
	}
	return r.input.Addr()
}

// Collector returns the stat collector of the running relay.
func (r *Relay) Collector() *Collector {
	return r.collector
}

// Stat sends relay counters and those of its parts.
func (r *Relay) Stat(send helper.StatCallback) {
	helper.SendAndSubstractUint32("sent", &r.sent, send)
	helper.SendAndSubstractUint32("writeErrors", &r.writeErrors, send)
	helper.SendAndSubstractUint32("dropped", &r.dropped, send)

	if r.queue != nil {
		send("queueLen", float64(len(r.queue)))
		send("queueCap", float64(cap(r.queue)))
	}

	if r.input != nil {
		r.input.Stat(helper.PrefixStat("input", send))
	}
	if r.throttle != nil {
		r.throttle.Stat(helper.PrefixStat("throttle", send))
	}
	if r.runner != nil {
		r.runner.Stat(helper.PrefixStat("runner", send))
	}
}
