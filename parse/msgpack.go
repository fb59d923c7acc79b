package parse

import (
	"errors"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/go-graphite/go-throttle/points"
)

// Datapoint loads a msgpack data
type Datapoint struct {
	Name  string  `json:"Name"`
	Value float64 `json:"Value"`
	Time  int64   `json:"Time"`
}

var errEmptyName = errors.New("empty metric name")

// Msgpack is used to unpack metrics produced by
// carbon-relay-ng
func Msgpack(body []byte) ([]*points.Points, error) {
	var d Datapoint
	if err := msgpack.Unmarshal(body, &d); err != nil {
		return nil, err
	}

	if d.Name == "" {
		return nil, errEmptyName
	}

	return []*points.Points{points.OnePoint(d.Name, d.Value, d.Time)}, nil
}
