package executor

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/go-graphite/go-throttle/qa"
	"github.com/go-graphite/go-throttle/stream"
)

func TestCollect(t *testing.T) {
	out, err := Collect(context.Background(), stream.FromSlice([]int{1, 2, 3}))
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, out)
}

func TestDrainThrottled(t *testing.T) {
	interval := 20 * time.Millisecond
	input := []string{"a", "b", "c", "d", "e"}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	th := stream.NewThrottle(stream.FromSlice(input), interval)
	defer th.Close()

	var output []string
	var stamps []time.Time
	start := time.Now()

	err := Drain[string](ctx, th, func(v string) error {
		output = append(output, v)
		stamps = append(stamps, time.Now())
		return nil
	}, Logger(zaptest.NewLogger(t)))
	require.NoError(t, err)

	if diff := cmp.Diff(input, output); diff != "" {
		t.Fatalf("output mismatch (-want +got):\n%s", diff)
	}

	// first item is not delayed
	assert.Less(t, stamps[0].Sub(start), interval)
	for i := 1; i < len(stamps); i++ {
		assert.GreaterOrEqual(t, stamps[i].Sub(stamps[i-1]), interval-time.Millisecond)
	}
}

func TestDrainChanSource(t *testing.T) {
	ch := make(chan int)
	go func() {
		for i := 0; i < 10; i++ {
			ch <- i
			time.Sleep(time.Millisecond)
		}
		close(ch)
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	th := stream.NewThrottle[int](stream.FromChan(ch), 5*time.Millisecond)
	defer th.Close()

	out, err := Collect[int](ctx, th, SpinBackoff(time.Millisecond))
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}, out)
}

func TestDrainContextCancel(t *testing.T) {
	never := stream.Func[int](func(cx *stream.Context) stream.Poll[int] {
		return stream.Pending[int]()
	})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := Drain[int](ctx, never, func(int) error { return nil })
	assert.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}

func TestDrainHandlerError(t *testing.T) {
	stopErr := errors.New("enough")
	calls := 0

	err := Drain(context.Background(), stream.FromSlice([]int{1, 2, 3}), func(v int) error {
		calls++
		if v == 2 {
			return stopErr
		}
		return nil
	})

	assert.Equal(t, stopErr, err)
	assert.Equal(t, 2, calls)
}

func TestSpinBackoff(t *testing.T) {
	var polls int32
	idle := stream.Func[int](func(cx *stream.Context) stream.Poll[int] {
		atomic.AddInt32(&polls, 1)
		return stream.Pending[int]()
	})

	// the throttle wakes itself on every pending poll of the source
	th := stream.NewThrottle[int](idle, time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	logger, out := qa.Logger()
	err := Drain[int](ctx, th, func(int) error { return nil }, SpinBackoff(10*time.Millisecond), Logger(logger))
	assert.True(t, errors.Is(err, context.DeadlineExceeded))

	n := atomic.LoadInt32(&polls)
	assert.GreaterOrEqual(t, n, int32(2))
	assert.LessOrEqual(t, n, int32(10))
	assert.Contains(t, out(), "drain stopped")
}

func TestSelfWakeRepollsWithoutBackoff(t *testing.T) {
	var polls int32
	ready := make(chan struct{})

	src := stream.Func[int](func(cx *stream.Context) stream.Poll[int] {
		if atomic.AddInt32(&polls, 1) < 100 {
			return stream.Pending[int]()
		}
		select {
		case <-ready:
			return stream.Done[int]()
		default:
			close(ready)
			return stream.Ready(1)
		}
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	out, err := Collect[int](ctx, stream.NewThrottle[int](src, 0))
	require.NoError(t, err)
	assert.Equal(t, []int{1}, out)
	assert.Equal(t, int32(101), atomic.LoadInt32(&polls))
}
