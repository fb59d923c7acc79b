package stream

// Waker resumes a suspended poller. Wake may be called from any goroutine,
// any number of times.
type Waker interface {
	Wake()
}

// WakerFunc adapts a plain function to Waker.
type WakerFunc func()

func (f WakerFunc) Wake() {
	f()
}

type noopWaker struct{}

func (noopWaker) Wake() {}

// Context is passed to every PollNext call. It carries the waker through
// which a stream that returned Pending asks to be polled again.
type Context struct {
	waker Waker
}

// NewContext returns a Context wrapping w. A nil w gives a Context whose
// wakes are discarded.
func NewContext(w Waker) *Context {
	if w == nil {
		w = noopWaker{}
	}
	return &Context{waker: w}
}

// Waker returns the waker to store when suspending.
func (cx *Context) Waker() Waker {
	return cx.waker
}

// Wake asks the poller to poll again as soon as possible.
func (cx *Context) Wake() {
	cx.waker.Wake()
}
