package relay

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/url"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/lomik/zapwriter"
)

// Configuration errors.
var (
	ErrBadInterval   = errors.New("interval must not be negative")
	ErrUnknownScheme = errors.New("unknown scheme")
	ErrUnknownFormat = errors.New("format not supported by input")
)

// Duration wrapper time.Duration for TOML
type Duration struct {
	time.Duration
}

// UnmarshalText from TOML
func (d *Duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText encode text with TOML format
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Value return time.Duration value
func (d Duration) Value() time.Duration {
	return d.Duration
}

type commonConfig struct {
	User           string   `toml:"user"`
	MetricPrefix   string   `toml:"metric-prefix"`
	MetricInterval Duration `toml:"metric-interval"`
}

type throttleConfig struct {
	Interval    Duration `toml:"interval"`
	BufferSize  int      `toml:"buffer-size"`
	SpinBackoff Duration `toml:"spin-backoff"`
}

type inputConfig struct {
	Listen         string   `toml:"listen"`
	Format         string   `toml:"format"`
	MaxMessageSize uint32   `toml:"max-message-size"`
	ReadTimeout    Duration `toml:"read-timeout"`
}

type outputConfig struct {
	Endpoint string   `toml:"endpoint"`
	Timeout  Duration `toml:"timeout"`
}

type metricsConfig struct {
	Enabled bool   `toml:"enabled"`
	Listen  string `toml:"listen"`
}

// Config of the relay daemon
type Config struct {
	Common   commonConfig       `toml:"common"`
	Throttle throttleConfig     `toml:"throttle"`
	Input    inputConfig        `toml:"input"`
	Output   outputConfig       `toml:"output"`
	Metrics  metricsConfig      `toml:"metrics"`
	Logging  []zapwriter.Config `toml:"logging"`
}

// NewLoggingConfig returns the default single stderr logger
func NewLoggingConfig() zapwriter.Config {
	cfg := zapwriter.NewConfig()
	cfg.File = "stderr"
	return cfg
}

// NewConfig returns the default configuration
func NewConfig() *Config {
	return &Config{
		Common: commonConfig{
			MetricPrefix:   "throttle.{host}",
			MetricInterval: Duration{time.Minute},
		},
		Throttle: throttleConfig{
			Interval:    Duration{100 * time.Millisecond},
			BufferSize:  1024,
			SpinBackoff: Duration{time.Millisecond},
		},
		Input: inputConfig{
			Listen:         "tcp://:2003",
			Format:         "plain",
			MaxMessageSize: 67108864, // 64 Mb
			ReadTimeout:    Duration{2 * time.Minute},
		},
		Output: outputConfig{
			Endpoint: "stdout",
			Timeout:  Duration{5 * time.Second},
		},
		Metrics: metricsConfig{
			Enabled: false,
			Listen:  "127.0.0.1:9273",
		},
		Logging: []zapwriter.Config{NewLoggingConfig()},
	}
}

// PrintConfig writes cfg as TOML to w
func PrintConfig(w io.Writer, cfg interface{}) error {
	buf := new(bytes.Buffer)

	encoder := toml.NewEncoder(buf)
	encoder.Indent = ""

	if err := encoder.Encode(cfg); err != nil {
		return err
	}

	_, err := w.Write(buf.Bytes())
	return err
}

// ReadConfig parses filename over the defaults and validates the result
func ReadConfig(filename string) (*Config, error) {
	cfg := NewConfig()
	if filename != "" {
		// drop the default logger so a configured one replaces it
		cfg.Logging = nil
		if _, err := toml.DecodeFile(filename, cfg); err != nil {
			return nil, err
		}
		if len(cfg.Logging) == 0 {
			cfg.Logging = []zapwriter.Config{NewLoggingConfig()}
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

var inputFormats = map[string][]string{
	"stdin": {"plain"},
	"tcp":   {"plain", "pickle"},
	"udp":   {"plain", "msgpack"},
}

func inputScheme(listen string) (string, string, error) {
	if listen == "stdin" || listen == "-" {
		return "stdin", "", nil
	}
	u, err := url.Parse(listen)
	if err != nil {
		return "", "", err
	}
	if _, ok := inputFormats[u.Scheme]; !ok {
		return "", "", fmt.Errorf("input %#v: %w", listen, ErrUnknownScheme)
	}
	return u.Scheme, u.Host, nil
}

func outputScheme(endpoint string) (string, string, error) {
	if endpoint == "stdout" || endpoint == "-" {
		return "stdout", "", nil
	}
	u, err := url.Parse(endpoint)
	if err != nil {
		return "", "", err
	}
	if u.Scheme != "tcp" && u.Scheme != "udp" {
		return "", "", fmt.Errorf("output %#v: %w", endpoint, ErrUnknownScheme)
	}
	return u.Scheme, u.Host, nil
}

// Validate checks values that can not be checked while decoding
func (c *Config) Validate() error {
	if c.Throttle.Interval.Value() < 0 {
		return fmt.Errorf("throttle.interval %s: %w", c.Throttle.Interval.Value(), ErrBadInterval)
	}
	if c.Throttle.SpinBackoff.Value() < 0 {
		return fmt.Errorf("throttle.spin-backoff %s: %w", c.Throttle.SpinBackoff.Value(), ErrBadInterval)
	}
	if c.Common.MetricInterval.Value() <= 0 {
		return fmt.Errorf("common.metric-interval %s: %w", c.Common.MetricInterval.Value(), ErrBadInterval)
	}
	if c.Throttle.BufferSize < 0 {
		return fmt.Errorf("throttle.buffer-size must not be negative, got %d", c.Throttle.BufferSize)
	}

	scheme, _, err := inputScheme(c.Input.Listen)
	if err != nil {
		return err
	}
	supported := false
	for _, f := range inputFormats[scheme] {
		if f == c.Input.Format {
			supported = true
		}
	}
	if !supported {
		return fmt.Errorf("%s input with %#v: %w", scheme, c.Input.Format, ErrUnknownFormat)
	}

	if _, _, err := outputScheme(c.Output.Endpoint); err != nil {
		return err
	}

	return zapwriter.CheckConfig(c.Logging, []string{"main", "relay", "input", "output", "runner", "stat"})
}
