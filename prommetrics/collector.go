// Package prommetrics exports engine metrics to Prometheus.
package prommetrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/hupe1980/vqz"
)

// Collector implements vqz.MetricsCollector with Prometheus metrics.
type Collector struct {
	opLatency *prometheus.HistogramVec
	ops       *prometheus.CounterVec
	bytes     *prometheus.CounterVec
	ratio     prometheus.Histogram
}

var _ vqz.MetricsCollector = (*Collector)(nil)

// New creates a Collector whose metric names start with namespace
// (e.g. "vqz") and registers it with reg. A nil reg uses
// prometheus.DefaultRegisterer.
func New(namespace string, reg prometheus.Registerer) (*Collector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	c := &Collector{
		opLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "operation_duration_seconds",
			Help:      "Latency of compress and decompress operations",
			Buckets:   prometheus.DefBuckets,
		}, []string{"op", "status"}),
		ops: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operations_total",
			Help:      "Total compress and decompress operations",
		}, []string{"op", "status"}),
		bytes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bytes_total",
			Help:      "Bytes processed by successful operations",
		}, []string{"op", "direction"}),
		ratio: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "compression_ratio",
			Help:      "Original size over container size per compressed payload",
			Buckets:   []float64{0.5, 1, 1.5, 2, 4, 8, 16, 32, 64, 128},
		}),
	}

	for _, m := range []prometheus.Collector{c.opLatency, c.ops, c.bytes, c.ratio} {
		if err := reg.Register(m); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

// RecordCompress implements vqz.MetricsCollector.
func (c *Collector) RecordCompress(originalBytes, compressedBytes int, duration time.Duration, err error) {
	s := status(err)
	c.opLatency.WithLabelValues("compress", s).Observe(duration.Seconds())
	c.ops.WithLabelValues("compress", s).Inc()
	if err != nil {
		return
	}
	c.bytes.WithLabelValues("compress", "in").Add(float64(originalBytes))
	c.bytes.WithLabelValues("compress", "out").Add(float64(compressedBytes))
	if compressedBytes > 0 {
		c.ratio.Observe(float64(originalBytes) / float64(compressedBytes))
	}
}

// RecordDecompress implements vqz.MetricsCollector.
func (c *Collector) RecordDecompress(compressedBytes, originalBytes int, duration time.Duration, err error) {
	s := status(err)
	c.opLatency.WithLabelValues("decompress", s).Observe(duration.Seconds())
	c.ops.WithLabelValues("decompress", s).Inc()
	if err != nil {
		return
	}
	c.bytes.WithLabelValues("decompress", "in").Add(float64(compressedBytes))
	c.bytes.WithLabelValues("decompress", "out").Add(float64(originalBytes))
}
