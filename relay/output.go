package relay

import (
	"bufio"
	"io"
	"net"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/go-graphite/go-throttle/points"
)

// Output receives throttled points.
type Output interface {
	Write(p *points.Points) error
	Close() error
}

func newOutput(cfg outputConfig, stdout io.Writer, logger *zap.Logger) (Output, error) {
	scheme, addr, err := outputScheme(cfg.Endpoint)
	if err != nil {
		return nil, err
	}

	if scheme == "stdout" {
		return &writerOutput{w: bufio.NewWriter(stdout)}, nil
	}

	return &netOutput{
		network: scheme,
		addr:    addr,
		timeout: cfg.Timeout.Value(),
		logger:  logger,
	}, nil
}

// writerOutput writes plain lines and flushes after each Points, so the
// pace of the throttle is visible to the reader.
type writerOutput struct {
	sync.Mutex
	w   *bufio.Writer
	buf []byte
}

func (o *writerOutput) Write(p *points.Points) error {
	o.Lock()
	defer o.Unlock()

	o.buf = p.AppendPlain(o.buf[:0])
	if _, err := o.w.Write(o.buf); err != nil {
		return err
	}
	return o.w.Flush()
}

func (o *writerOutput) Close() error {
	o.Lock()
	defer o.Unlock()
	return o.w.Flush()
}

// netOutput sends plain lines to a tcp or udp endpoint. A broken
// connection is closed and dialed again on the next Write.
type netOutput struct {
	sync.Mutex
	network string
	addr    string
	timeout time.Duration
	conn    net.Conn
	buf     []byte
	logger  *zap.Logger
}

func (o *netOutput) dial() error {
	if o.conn != nil {
		return nil
	}

	conn, err := net.DialTimeout(o.network, o.addr, o.timeout)
	if err != nil {
		return err
	}

	o.logger.Info("connected", zap.String("endpoint", o.network+"://"+o.addr))
	o.conn = conn
	return nil
}

func (o *netOutput) Write(p *points.Points) error {
	o.Lock()
	defer o.Unlock()

	if err := o.dial(); err != nil {
		return err
	}

	if o.timeout > 0 {
		if err := o.conn.SetWriteDeadline(time.Now().Add(o.timeout)); err != nil {
			o.reset()
			return err
		}
	}

	o.buf = p.AppendPlain(o.buf[:0])
	if _, err := o.conn.Write(o.buf); err != nil {
		o.reset()
		return err
	}
	return nil
}

func (o *netOutput) reset() {
	if o.conn != nil {
		o.conn.Close()
		o.conn = nil
	}
}

func (o *netOutput) Close() error {
	o.Lock()
	defer o.Unlock()

	if o.conn == nil {
		return nil
	}
	err := o.conn.Close()
	o.conn = nil
	return err
}
