package relay

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-graphite/go-throttle/qa"
)

func TestReadConfig(t *testing.T) {
	assert := assert.New(t)

	qa.Root(t, func(dir string) {
		filename := qa.WriteFile(t, dir, "throttle.conf", `
[throttle]
interval = "250ms"
buffer-size = 10

[input]
listen = "udp://127.0.0.1:2003"
format = "msgpack"

[output]
endpoint = "tcp://127.0.0.1:2004"

[[logging]]
logger = ""
file = "stdout"
level = "debug"
encoding = "json"
`)

		cfg, err := ReadConfig(filename)
		require.NoError(t, err)

		assert.Equal(250*time.Millisecond, cfg.Throttle.Interval.Value())
		assert.Equal(10, cfg.Throttle.BufferSize)
		// untouched values keep defaults
		assert.Equal(time.Millisecond, cfg.Throttle.SpinBackoff.Value())
		assert.Equal(time.Minute, cfg.Common.MetricInterval.Value())
		assert.Equal("msgpack", cfg.Input.Format)
		assert.Equal("tcp://127.0.0.1:2004", cfg.Output.Endpoint)

		require.Len(t, cfg.Logging, 1)
		assert.Equal("stdout", cfg.Logging[0].File)
		assert.Equal("debug", cfg.Logging[0].Level)
	})
}

func TestReadConfigDefaultLogging(t *testing.T) {
	qa.Root(t, func(dir string) {
		filename := qa.WriteFile(t, dir, "throttle.conf", "[throttle]\ninterval = \"1s\"\n")

		cfg, err := ReadConfig(filename)
		require.NoError(t, err)
		require.Len(t, cfg.Logging, 1)
		assert.Equal(t, "stderr", cfg.Logging[0].File)
	})
}

func TestReadConfigMissingFile(t *testing.T) {
	_, err := ReadConfig("/nonexistent/throttle.conf")
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	table := []struct {
		name   string
		change func(*Config)
		err    error
	}{
		{"default", func(*Config) {}, nil},
		{"zero interval", func(c *Config) { c.Throttle.Interval = Duration{} }, nil},
		{"negative interval", func(c *Config) { c.Throttle.Interval = Duration{-time.Second} }, ErrBadInterval},
		{"negative backoff", func(c *Config) { c.Throttle.SpinBackoff = Duration{-time.Second} }, ErrBadInterval},
		{"zero metric interval", func(c *Config) { c.Common.MetricInterval = Duration{} }, ErrBadInterval},
		{"stdin", func(c *Config) { c.Input.Listen = "stdin" }, nil},
		{"stdin pickle", func(c *Config) { c.Input.Listen, c.Input.Format = "stdin", "pickle" }, ErrUnknownFormat},
		{"tcp pickle", func(c *Config) { c.Input.Format = "pickle" }, nil},
		{"tcp msgpack", func(c *Config) { c.Input.Format = "msgpack" }, ErrUnknownFormat},
		{"udp msgpack", func(c *Config) { c.Input.Listen, c.Input.Format = "udp://:2003", "msgpack" }, nil},
		{"unknown input", func(c *Config) { c.Input.Listen = "http://:2003" }, ErrUnknownScheme},
		{"unknown output", func(c *Config) { c.Output.Endpoint = "kafka://localhost" }, ErrUnknownScheme},
		{"udp output", func(c *Config) { c.Output.Endpoint = "udp://127.0.0.1:2003" }, nil},
	}

	for _, tt := range table {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewConfig()
			tt.change(cfg)

			err := cfg.Validate()
			if tt.err == nil {
				assert.NoError(t, err)
				return
			}
			assert.True(t, errors.Is(err, tt.err), "got %v", err)
		})
	}
}

func TestPrintConfig(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, PrintConfig(&buf, NewConfig()))

	assert.Contains(t, buf.String(), `interval = "100ms"`)
	assert.Contains(t, buf.String(), "[[logging]]")

	// printed defaults read back unchanged
	cfg := NewConfig()
	cfg.Logging = nil
	_, err := toml.Decode(buf.String(), cfg)
	require.NoError(t, err)
	assert.Equal(t, NewConfig(), cfg)
}

func TestValidateLoggerName(t *testing.T) {
	cfg := NewConfig()
	cfg.Logging = append(cfg.Logging, NewLoggingConfig())
	cfg.Logging[1].Logger = "persister"

	assert.Error(t, cfg.Validate())

	cfg.Logging[1].Logger = "input"
	assert.NoError(t, cfg.Validate())
}
