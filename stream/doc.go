// Package stream implements pollable streams and the Throttle adapter.
//
// A Stream is advanced by calling PollNext with a Context. A stream that has
// nothing to offer returns Pending and arranges for the Context's Waker to be
// called once polling again may make progress. Ready carries the next value,
// Done marks exhaustion.
//
// Throttle decorates a Stream so that its items come out at least a fixed
// interval apart. It applies backpressure: an item is never dropped, the
// next poll after an emission just waits for the cooldown timer first.
//
//	t := stream.NewThrottle(stream.FromChan(ch), 50*time.Millisecond)
//	defer t.Close()
//	err := executor.Drain(ctx, t, func(v int) error { ... })
package stream
