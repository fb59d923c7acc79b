package relay

import (
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/NYTimes/gziphandler"
	"github.com/lomik/stop"
	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/go-graphite/go-throttle/helper"
)

// Collector periodically reads Stat counters, logs them and publishes them
// as prometheus gauges.
type Collector struct {
	stop.Struct
	prefix   string
	interval time.Duration
	stat     func(helper.StatCallback)
	registry *prom.Registry
	values   *prom.GaugeVec
	listener net.Listener
	server   *http.Server
	logger   *zap.Logger
}

// MetricPrefix replaces {host} in prefix with the hostname, dots escaped.
func MetricPrefix(prefix string) string {
	if !strings.Contains(prefix, "{host}") {
		return prefix
	}
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "localhost"
	}
	return strings.ReplaceAll(prefix, "{host}", strings.ReplaceAll(hostname, ".", "_"))
}

// NewCollector creates a collector for stat.
func NewCollector(prefix string, interval time.Duration, stat func(helper.StatCallback), logger *zap.Logger) *Collector {
	c := &Collector{
		prefix:   MetricPrefix(prefix),
		interval: interval,
		stat:     stat,
		registry: prom.NewRegistry(),
		values: prom.NewGaugeVec(
			prom.GaugeOpts{
				Name: "throttle_stat",
				Help: "Relay counters of the last metric interval, partitioned by metric",
			},
			[]string{"metric"},
		),
		logger: logger,
	}
	c.registry.MustRegister(c.values)
	return c
}

// Collect runs one round of stat collection.
func (c *Collector) Collect() {
	c.stat(func(metric string, value float64) {
		key := c.prefix + "." + metric
		c.logger.Debug("stat", zap.String("metric", key), zap.Float64("value", value))
		c.values.WithLabelValues(key).Set(value)
	})
}

// Handler serves the gauges in prometheus text format. Large responses are
// gzip compressed.
func (c *Collector) Handler() http.Handler {
	return gziphandler.GzipHandler(promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{
		DisableCompression: true,
	}))
}

// Addr returns the bound address of the metrics endpoint, nil if disabled.
func (c *Collector) Addr() net.Addr {
	if c.listener == nil {
		return nil
	}
	return c.listener.Addr()
}

// Start runs the collection loop. A non empty listen also serves /metrics.
func (c *Collector) Start(listen string) error {
	return c.StartFunc(func() error {
		if listen != "" {
			listener, err := net.Listen("tcp", listen)
			if err != nil {
				return err
			}
			c.listener = listener

			mux := http.NewServeMux()
			mux.Handle("/metrics", c.Handler())
			c.server = &http.Server{Handler: mux}

			c.Go(func(exit chan struct{}) {
				<-exit
				c.server.Close()
			})

			c.Go(func(exit chan struct{}) {
				if err := c.server.Serve(listener); err != nil && err != http.ErrServerClosed {
					c.logger.Error("metrics server failed", zap.Error(err))
				}
			})

			c.logger.Info("metrics endpoint", zap.String("addr", listener.Addr().String()))
		}

		c.Go(func(exit chan struct{}) {
			ticker := time.NewTicker(c.interval)
			defer ticker.Stop()

			for {
				select {
				case <-exit:
					return
				case <-ticker.C:
					c.Collect()
				}
			}
		})

		return nil
	})
}
