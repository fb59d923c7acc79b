package helper

import "sync/atomic"

// StatCallback receives one metric value. Components expose their counters
// through a Stat(send StatCallback) method.
type StatCallback func(metric string, value float64)

// SendAndSubstractUint32 sends the current value of v and subtracts it, so
// increments racing with the report are kept for the next one.
func SendAndSubstractUint32(metric string, v *uint32, send StatCallback) {
	res := atomic.LoadUint32(v)
	atomic.AddUint32(v, ^uint32(res-1))
	send(metric, float64(res))
}

// SendUint32 sends the current value of a gauge-like counter.
func SendUint32(metric string, v *uint32, send StatCallback) {
	send(metric, float64(atomic.LoadUint32(v)))
}

// PrefixStat returns a callback that sends metrics under prefix.
func PrefixStat(prefix string, send StatCallback) StatCallback {
	return func(metric string, value float64) {
		send(prefix+"."+metric, value)
	}
}
