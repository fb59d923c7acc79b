package relay

import (
	"encoding/binary"
	"errors"
	"io"
	"net"
	"strings"
	"sync/atomic"
	"time"

	"github.com/lomik/graphite-pickle/framing"
	"github.com/lomik/stop"
	"go.uber.org/zap"

	"github.com/go-graphite/go-throttle/helper"
	"github.com/go-graphite/go-throttle/parse"
	"github.com/go-graphite/go-throttle/points"
)

// Input accepts points from the outside world and hands them to store.
type Input interface {
	Start() error
	Stop()
	Addr() net.Addr
	Stat(send helper.StatCallback)
}

type inputCounters struct {
	metricsReceived uint32
	errors          uint32
	active          int32
}

func (c *inputCounters) Stat(send helper.StatCallback) {
	helper.SendAndSubstractUint32("metricsReceived", &c.metricsReceived, send)
	helper.SendAndSubstractUint32("errors", &c.errors, send)
	send("active", float64(atomic.LoadInt32(&c.active)))
}

func newInput(cfg inputConfig, stdin io.Reader, store func(*points.Points), eof func(), logger *zap.Logger) (Input, error) {
	scheme, addr, err := inputScheme(cfg.Listen)
	if err != nil {
		return nil, err
	}

	parser, err := parse.ByName(cfg.Format)
	if err != nil {
		return nil, err
	}

	switch scheme {
	case "stdin":
		return &stdinInput{
			reader: stdin,
			store:  store,
			eof:    eof,
			logger: logger,
		}, nil
	case "tcp":
		return &tcpInput{
			addr:    addr,
			format:  cfg.Format,
			maxSize: cfg.MaxMessageSize,
			timeout: cfg.ReadTimeout.Value(),
			store:   store,
			logger:  logger,
		}, nil
	default:
		return &udpInput{
			addr:   addr,
			plain:  cfg.Format == "plain",
			parser: parser,
			store:  store,
			logger: logger,
		}, nil
	}
}

// stdinInput reads plain lines until EOF and then reports the end of input.
type stdinInput struct {
	inputCounters
	reader io.Reader
	store  func(*points.Points)
	eof    func()
	logger *zap.Logger
}

func (in *stdinInput) Start() error {
	atomic.StoreInt32(&in.active, 1)

	// a blocked read on stdin can not be interrupted, so the reader is not
	// waited for on Stop
	go func() {
		defer atomic.StoreInt32(&in.active, 0)

		err := points.ReadPlain(in.reader, func(p *points.Points) {
			atomic.AddUint32(&in.metricsReceived, 1)
			in.store(p)
		}, func(err error) {
			atomic.AddUint32(&in.errors, 1)
			in.logger.Info("parse failed", zap.Error(err))
		})
		if err != nil {
			atomic.AddUint32(&in.errors, 1)
			in.logger.Error("read error", zap.Error(err))
		}

		in.logger.Info("input closed")
		in.eof()
	}()

	return nil
}

func (in *stdinInput) Stop() {}

func (in *stdinInput) Addr() net.Addr {
	return nil
}

// deadlineReader extends the read deadline of conn before every read
type deadlineReader struct {
	conn    net.Conn
	timeout time.Duration
}

func (r *deadlineReader) Read(p []byte) (int, error) {
	if r.timeout > 0 {
		r.conn.SetReadDeadline(time.Now().Add(r.timeout))
	}
	return r.conn.Read(p)
}

type tcpInput struct {
	stop.Struct
	inputCounters
	addr     string
	format   string
	maxSize  uint32
	timeout  time.Duration
	store    func(*points.Points)
	listener *net.TCPListener
	logger   *zap.Logger
}

func (in *tcpInput) Addr() net.Addr {
	if in.listener == nil {
		return nil
	}
	return in.listener.Addr()
}

func (in *tcpInput) handleConnection(conn net.Conn) {
	atomic.AddInt32(&in.active, 1)
	defer atomic.AddInt32(&in.active, -1)

	finished := make(chan bool)
	defer close(finished)

	in.Go(func(exit chan struct{}) {
		select {
		case <-finished:
		case <-exit:
		}
		conn.Close()
	})

	peer := zap.String("peer", conn.RemoteAddr().String())

	if in.format == "pickle" {
		in.readPickle(conn, peer)
		return
	}

	reader := &deadlineReader{conn: conn, timeout: in.timeout}
	err := points.ReadPlain(reader, func(p *points.Points) {
		atomic.AddUint32(&in.metricsReceived, 1)
		in.store(p)
	}, func(err error) {
		atomic.AddUint32(&in.errors, 1)
		in.logger.Info("parse failed", zap.Error(err), peer)
	})
	if err != nil && !isClosed(err) {
		atomic.AddUint32(&in.errors, 1)
		in.logger.Warn("read error", zap.Error(err), peer)
	}
}

func (in *tcpInput) readPickle(conn net.Conn, peer zap.Field) {
	framedConn, err := framing.NewConn(conn, byte(4), binary.BigEndian)
	if err != nil {
		atomic.AddUint32(&in.errors, 1)
		in.logger.Error("framing failed", zap.Error(err), peer)
		return
	}
	if in.maxSize > 0 {
		framedConn.MaxFrameSize = uint(in.maxSize)
	}

	for {
		if in.timeout > 0 {
			conn.SetReadDeadline(time.Now().Add(in.timeout))
		}

		frame, err := framedConn.ReadFrame()
		if err == io.EOF {
			return
		} else if err == framing.ErrPrefixLength {
			atomic.AddUint32(&in.errors, 1)
			in.logger.Warn("bad message size", peer)
			return
		} else if err != nil {
			if !isClosed(err) {
				atomic.AddUint32(&in.errors, 1)
				in.logger.Warn("read error", zap.Error(err), peer)
			}
			return
		}

		msgs, err := parse.Pickle(frame)
		if err != nil {
			atomic.AddUint32(&in.errors, 1)
			in.logger.Info("parse failed", zap.Error(err), peer)
			continue
		}

		for _, p := range msgs {
			atomic.AddUint32(&in.metricsReceived, uint32(p.Len()))
			in.store(p)
		}
	}
}

type udpInput struct {
	stop.Struct
	inputCounters
	addr   string
	plain  bool
	parser parse.Func
	store  func(*points.Points)
	conn   *net.UDPConn
	logger *zap.Logger
}

func (in *udpInput) Addr() net.Addr {
	if in.conn == nil {
		return nil
	}
	return in.conn.LocalAddr()
}

func (in *udpInput) receiveWorker(exit chan struct{}) {
	defer in.conn.Close()

	var buf [65535]byte

	for {
		n, peer, err := in.conn.ReadFromUDP(buf[:])
		if err != nil {
			if isClosed(err) {
				break
			}
			atomic.AddUint32(&in.errors, 1)
			in.logger.Error("read error", zap.Error(err))
			continue
		}

		body := buf[:n]
		// a single plain line is usually sent without a trailing newline
		if in.plain && n > 0 && body[n-1] != '\n' && n < len(buf) {
			body = buf[:n+1]
			body[n] = '\n'
		}

		msgs, err := in.parser(body)
		for _, p := range msgs {
			atomic.AddUint32(&in.metricsReceived, uint32(p.Len()))
			in.store(p)
		}
		if err != nil {
			atomic.AddUint32(&in.errors, 1)
			in.logger.Info("parse failed",
				zap.Error(err),
				zap.String("peer", peer.String()),
			)
		}
	}
}

func (in *udpInput) Start() error {
	return in.StartFunc(func() error {
		addr, err := net.ResolveUDPAddr("udp", in.addr)
		if err != nil {
			return err
		}

		in.conn, err = net.ListenUDP("udp", addr)
		if err != nil {
			return err
		}
		atomic.StoreInt32(&in.active, 1)

		in.Go(func(exit chan struct{}) {
			<-exit
			in.conn.Close()
			atomic.StoreInt32(&in.active, 0)
		})

		in.Go(in.receiveWorker)

		in.logger.Info("listening", zap.String("addr", in.conn.LocalAddr().String()))
		return nil
	})
}

func isClosed(err error) bool {
	return errors.Is(err, net.ErrClosed) || strings.Contains(err.Error(), "use of closed network connection")
}
