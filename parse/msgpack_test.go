package parse

import (
	"testing"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/go-graphite/go-throttle/points"
)

func mustMsgpack(t *testing.T, d Datapoint) []byte {
	body, err := msgpack.Marshal(d)
	if err != nil {
		t.Fatal(err)
	}
	return body
}

func TestMsgpack(t *testing.T) {
	msgpacks := []testcase{
		{"One metric with one datapoint",
			mustMsgpack(t, Datapoint{Name: "test.case.number.1", Value: 60.2, Time: 1423931224}),
			[]*points.Points{points.OnePoint("test.case.number.1", 60.2, 1423931224)},
			false,
		},
		{"Negative value",
			mustMsgpack(t, Datapoint{Name: "test.case.negative", Value: -15, Time: 1423931224}),
			[]*points.Points{points.OnePoint("test.case.negative", -15, 1423931224)},
			false,
		},
		{"Empty metric name with one datapoint",
			mustMsgpack(t, Datapoint{Name: "", Value: 60.2, Time: 1423931224}),
			nil,
			true,
		},
		{"Garbage",
			[]byte{0xc1, 0x00},
			nil,
			true,
		},
	}
	run(t, msgpacks, Msgpack)
}
