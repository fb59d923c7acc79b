package qa

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestClockAdvance(t *testing.T) {
	assert := assert.New(t)

	c := NewClock()
	start := c.Now()

	var fired []string
	c.AfterFunc(20*time.Millisecond, func() { fired = append(fired, "b") })
	c.AfterFunc(10*time.Millisecond, func() { fired = append(fired, "a") })
	stop := c.AfterFunc(15*time.Millisecond, func() { fired = append(fired, "stopped") })

	assert.True(stop())
	assert.False(stop())
	assert.Equal(2, c.Timers())

	c.Advance(5 * time.Millisecond)
	assert.Empty(fired)

	c.Advance(20 * time.Millisecond)
	assert.Equal([]string{"a", "b"}, fired)
	assert.Equal(25*time.Millisecond, c.Now().Sub(start))
	assert.Equal(0, c.Timers())
}
