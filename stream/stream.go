package stream

// Stream is a lazy, non restartable sequence of values advanced by an
// external poller. PollNext is never called concurrently; once it returned
// Done it should keep returning Done.
type Stream[T any] interface {
	PollNext(cx *Context) Poll[T]
}

// Func adapts a poll function to Stream.
type Func[T any] func(cx *Context) Poll[T]

func (f Func[T]) PollNext(cx *Context) Poll[T] {
	return f(cx)
}
