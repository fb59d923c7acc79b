// Package executor drives pollable streams.
//
// Drain and Collect poll a stream on the calling goroutine. Runner does the
// same in a background goroutine with Start/Stop. Between Pending outcomes
// the driver sleeps until the stream's waker fires.
package executor
