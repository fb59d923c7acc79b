package parse

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"

	"github.com/go-graphite/go-throttle/points"
)

type testcase struct {
	description string
	input       []byte
	output      []*points.Points
	wantError   bool
}

func run(t *testing.T, table []testcase, parser Func) {
	for _, tc := range table {
		t.Run(tc.description, func(t *testing.T) {
			output, err := parser(tc.input)
			if tc.wantError {
				assert.Error(t, err, "bad message parsed without error")
				return
			}

			assert.NoError(t, err)
			if diff := cmp.Diff(tc.output, output); diff != "" {
				t.Errorf("parsed points mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
