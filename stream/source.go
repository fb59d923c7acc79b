package stream

import "sync"

type sliceStream[T any] struct {
	items []T
}

// FromSlice returns a stream yielding items in order, then Done.
func FromSlice[T any](items []T) Stream[T] {
	return &sliceStream[T]{items: items}
}

func (s *sliceStream[T]) PollNext(cx *Context) Poll[T] {
	if len(s.items) == 0 {
		return Done[T]()
	}
	v := s.items[0]
	s.items = s.items[1:]
	return Ready(v)
}

// ChanStream is a stream reading from a channel. It finishes when the
// channel is closed and drained.
type ChanStream[T any] struct {
	ch   <-chan T
	exit chan struct{}

	mu       sync.Mutex
	slot     T
	hasSlot  bool
	closed   bool
	watching bool
	stopped  bool
	waker    Waker
}

// FromChan wraps ch. While ch is empty a single watcher goroutine blocks on
// it; a value taken by the watcher is kept and returned by the next poll.
func FromChan[T any](ch <-chan T) *ChanStream[T] {
	return &ChanStream[T]{
		ch:   ch,
		exit: make(chan struct{}),
	}
}

// PollNext implements Stream.
func (s *ChanStream[T]) PollNext(cx *Context) Poll[T] {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.hasSlot {
		v := s.slot
		var zero T
		s.slot, s.hasSlot = zero, false
		return Ready(v)
	}
	if s.closed || s.stopped {
		return Done[T]()
	}

	s.waker = cx.Waker()
	if s.watching {
		return Pending[T]()
	}

	select {
	case v, ok := <-s.ch:
		if !ok {
			s.closed = true
			return Done[T]()
		}
		return Ready(v)
	default:
	}

	s.watching = true
	go s.watch()
	return Pending[T]()
}

func (s *ChanStream[T]) watch() {
	var v T
	var ok bool

	select {
	case v, ok = <-s.ch:
	case <-s.exit:
		return
	}

	s.mu.Lock()
	s.watching = false
	if ok {
		s.slot, s.hasSlot = v, true
	} else {
		s.closed = true
	}
	w := s.waker
	s.mu.Unlock()

	if w != nil {
		w.Wake()
	}
}

// Close stops the watcher. Values still in the channel are left there; a
// value the watcher already took is returned by the next poll.
func (s *ChanStream[T]) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.stopped {
		s.stopped = true
		close(s.exit)
	}
	return nil
}
