package vqz

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems; see the
// prommetrics package for a Prometheus implementation.
type MetricsCollector interface {
	// RecordCompress is called after each compress operation.
	// originalBytes is the input size, compressedBytes the container size
	// (0 on failure), err is nil if successful.
	RecordCompress(originalBytes, compressedBytes int, duration time.Duration, err error)

	// RecordDecompress is called after each decompress operation.
	// originalBytes is the reconstructed size (0 on failure).
	RecordDecompress(compressedBytes, originalBytes int, duration time.Duration, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordCompress(int, int, time.Duration, error)   {}
func (NoopMetricsCollector) RecordDecompress(int, int, time.Duration, error) {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	CompressCount         atomic.Int64
	CompressErrors        atomic.Int64
	CompressTotalNanos    atomic.Int64
	CompressInputBytes    atomic.Int64
	CompressOutputBytes   atomic.Int64
	DecompressCount       atomic.Int64
	DecompressErrors      atomic.Int64
	DecompressTotalNanos  atomic.Int64
	DecompressOutputBytes atomic.Int64
}

// RecordCompress implements MetricsCollector.
func (b *BasicMetricsCollector) RecordCompress(originalBytes, compressedBytes int, duration time.Duration, err error) {
	b.CompressCount.Add(1)
	b.CompressTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.CompressErrors.Add(1)
		return
	}
	b.CompressInputBytes.Add(int64(originalBytes))
	b.CompressOutputBytes.Add(int64(compressedBytes))
}

// RecordDecompress implements MetricsCollector.
func (b *BasicMetricsCollector) RecordDecompress(_, originalBytes int, duration time.Duration, err error) {
	b.DecompressCount.Add(1)
	b.DecompressTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.DecompressErrors.Add(1)
		return
	}
	b.DecompressOutputBytes.Add(int64(originalBytes))
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	s := BasicMetricsStats{
		CompressCount:         b.CompressCount.Load(),
		CompressErrors:        b.CompressErrors.Load(),
		CompressAvgNanos:      avg(b.CompressTotalNanos.Load(), b.CompressCount.Load()),
		CompressInputBytes:    b.CompressInputBytes.Load(),
		CompressOutputBytes:   b.CompressOutputBytes.Load(),
		DecompressCount:       b.DecompressCount.Load(),
		DecompressErrors:      b.DecompressErrors.Load(),
		DecompressAvgNanos:    avg(b.DecompressTotalNanos.Load(), b.DecompressCount.Load()),
		DecompressOutputBytes: b.DecompressOutputBytes.Load(),
	}
	if s.CompressOutputBytes > 0 {
		s.OverallRatio = float64(s.CompressInputBytes) / float64(s.CompressOutputBytes)
	}
	return s
}

func avg(total, count int64) int64 {
	if count == 0 {
		return 0
	}
	return total / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	CompressCount         int64
	CompressErrors        int64
	CompressAvgNanos      int64
	CompressInputBytes    int64
	CompressOutputBytes   int64
	DecompressCount       int64
	DecompressErrors      int64
	DecompressAvgNanos    int64
	DecompressOutputBytes int64

	// OverallRatio is total input bytes over total container bytes for
	// successful compressions.
	OverallRatio float64
}
