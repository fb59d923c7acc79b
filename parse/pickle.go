package parse

import (
	pickle "github.com/lomik/graphite-pickle"

	"github.com/go-graphite/go-throttle/points"
)

// Pickle parses one graphite pickle message (the payload of a frame).
// Consecutive datapoints of the same metric are merged into one Points.
func Pickle(body []byte) ([]*points.Points, error) {
	result := []*points.Points{}

	err := pickle.ParseMessage(body, func(name string, value float64, timestamp int64) {
		if len(result) == 0 || result[len(result)-1].Metric != name {
			result = append(result, points.OnePoint(name, value, timestamp))
		} else {
			result[len(result)-1].Add(value, timestamp)
		}
	})

	return result, err
}
