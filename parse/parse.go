// Package parse decodes Graphite wire formats into points.
package parse

import (
	"errors"
	"fmt"

	"github.com/go-graphite/go-throttle/points"
)

// Func parses one message body.
type Func func(body []byte) ([]*points.Points, error)

// ErrUnknownFormat is returned by ByName for unsupported formats.
var ErrUnknownFormat = errors.New("unknown format")

var formats = map[string]Func{
	"plain":   Plain,
	"pickle":  Pickle,
	"msgpack": Msgpack,
}

// ByName returns the parser registered for name: plain, pickle or msgpack.
func ByName(name string) (Func, error) {
	f, ok := formats[name]
	if !ok {
		return nil, fmt.Errorf("%w %#v", ErrUnknownFormat, name)
	}
	return f, nil
}
