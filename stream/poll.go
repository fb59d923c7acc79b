package stream

type pollState uint8

const (
	statePending pollState = iota
	stateReady
	stateDone
)

// Poll is the outcome of a single PollNext call: Pending, Ready with a value,
// or Done once the stream is exhausted.
type Poll[T any] struct {
	state pollState
	value T
}

// Pending means no value is available yet. The stream has arranged for the
// waker of the polling Context to be called when it is worth polling again.
func Pending[T any]() Poll[T] {
	return Poll[T]{state: statePending}
}

// Ready wraps the next value of the stream.
func Ready[T any](value T) Poll[T] {
	return Poll[T]{state: stateReady, value: value}
}

// Done means the stream is exhausted.
func Done[T any]() Poll[T] {
	return Poll[T]{state: stateDone}
}

func (p Poll[T]) IsPending() bool {
	return p.state == statePending
}

func (p Poll[T]) IsReady() bool {
	return p.state == stateReady
}

func (p Poll[T]) IsDone() bool {
	return p.state == stateDone
}

// Value returns the carried value and true for a Ready outcome.
func (p Poll[T]) Value() (T, bool) {
	return p.value, p.state == stateReady
}

func (p Poll[T]) String() string {
	switch p.state {
	case stateReady:
		return "Ready"
	case stateDone:
		return "Done"
	default:
		return "Pending"
	}
}
