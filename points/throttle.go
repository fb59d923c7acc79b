package points

import (
	"time"

	"github.com/go-graphite/go-throttle/executor"
	"github.com/go-graphite/go-throttle/stream"
)

// idle in chan is polled at least this often
const idleBackoff = time.Millisecond

// ThrottleChan creates new points channel with limited throughput.
// ratePerSec <= 0 disables the limit.
func ThrottleChan(in chan *Points, ratePerSec int) chan *Points {
	var step time.Duration
	if ratePerSec > 0 {
		step = time.Duration(1e9/ratePerSec) * time.Nanosecond
	}
	return ThrottleChanInterval(in, step)
}

// ThrottleChanInterval passes points from in to the returned channel at
// least interval apart. Nothing is dropped: a slow reader of the returned
// channel blocks the writers of in. The returned channel is closed after in
// is closed and drained.
func ThrottleChanInterval(in chan *Points, interval time.Duration) chan *Points {
	out := make(chan *Points, cap(in))

	go func() {
		defer close(out)

		th := stream.NewThrottle[*Points](stream.FromChan(in), interval)
		defer th.Close()

		runner := executor.NewRunner[*Points](th, func(p *Points) {
			out <- p
		}, executor.SpinBackoff(idleBackoff))
		if err := runner.Start(); err != nil {
			return
		}
		<-runner.Finished()
		runner.Stop()
	}()

	return out
}
