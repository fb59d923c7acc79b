package points

import (
	"fmt"
	"io"
	"strconv"
	"time"
)

// Point value/time pair
type Point struct {
	Timestamp int64
	Value     float64
}

// Points is one metric with one or more datapoints. A Points value is the
// unit the relay throttles.
type Points struct {
	Metric string
	Data   []Point
}

// OnePoint create Points instance with single point
func OnePoint(metric string, value float64, timestamp int64) *Points {
	return &Points{
		Metric: metric,
		Data: []Point{
			{
				Value:     value,
				Timestamp: timestamp,
			},
		},
	}
}

// NowPoint create OnePoint with now timestamp
func NowPoint(metric string, value float64) *Points {
	return OnePoint(metric, value, time.Now().Unix())
}

// Add value/timestamp pair to points
func (p *Points) Add(value float64, timestamp int64) *Points {
	p.Data = append(p.Data, Point{
		Value:     value,
		Timestamp: timestamp,
	})
	return p
}

// Len returns the number of datapoints.
func (p *Points) Len() int {
	return len(p.Data)
}

// AppendPlain appends the plain text form, one "name value timestamp\n" line
// per datapoint.
func (p *Points) AppendPlain(b []byte) []byte {
	for _, d := range p.Data {
		b = append(b, p.Metric...)
		b = append(b, ' ')
		b = strconv.AppendFloat(b, d.Value, 'f', -1, 64)
		b = append(b, ' ')
		b = strconv.AppendInt(b, d.Timestamp, 10)
		b = append(b, '\n')
	}
	return b
}

// WriteTo writes the plain text form of p to w.
func (p *Points) WriteTo(w io.Writer) (n int64, err error) {
	c, err := w.Write(p.AppendPlain(nil))
	return int64(c), err
}

func (p *Points) String() string {
	return fmt.Sprintf("%s%v", p.Metric, p.Data)
}

// Eq points check
func (p *Points) Eq(other *Points) bool {
	if other == nil {
		return false
	}
	if p.Metric != other.Metric {
		return false
	}
	if len(p.Data) != len(other.Data) {
		return false
	}
	for i := 0; i < len(p.Data); i++ {
		if p.Data[i].Value != other.Data[i].Value {
			return false
		}
		if p.Data[i].Timestamp != other.Data[i].Timestamp {
			return false
		}
	}
	return true
}
