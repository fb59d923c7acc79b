package qa

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLogger(t *testing.T) {
	logger, out := Logger()

	logger.Info("first message")
	logger.Named("relay").Debug("second message")

	lines := Lines(out())
	assert.Len(t, lines, 2)
	assert.Contains(t, lines[0], "first message")
	assert.Contains(t, lines[1], `"name":"relay"`)
}
