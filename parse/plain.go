package parse

import "github.com/go-graphite/go-throttle/points"

// Plain parses newline terminated "name value timestamp" lines.
func Plain(body []byte) ([]*points.Points, error) {
	return points.ParsePlain(body)
}

// PlainLine parses a single "name value timestamp" line.
func PlainLine(line []byte) ([]byte, float64, int64, error) {
	return points.PlainParseLine(line)
}
