package vqz

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewMetrics(t *testing.T) {
	m := NewMetrics(1000, 250)
	assert.Equal(t, 4.0, m.CompressionRatio)
	assert.Equal(t, 75.0, m.SpaceSavedPercent)

	grown := NewMetrics(100, 200)
	assert.Equal(t, 0.5, grown.CompressionRatio)
	assert.Equal(t, -100.0, grown.SpaceSavedPercent)

	assert.Zero(t, NewMetrics(0, 0).CompressionRatio)
}

func TestMetrics_Rounded(t *testing.T) {
	m := NewMetrics(1000, 300).Rounded()
	assert.Equal(t, 3.33, m.CompressionRatio)
	assert.Equal(t, 70.0, m.SpaceSavedPercent)
	assert.Equal(t, 1000, m.OriginalSizeBytes)
}

func TestEffectiveK(t *testing.T) {
	assert.Equal(t, 3, effectiveK([]uint32{5, 5, 1, 9, 1}))
	assert.Equal(t, 0, effectiveK(nil))
}

func TestBasicMetricsCollector(t *testing.T) {
	var b BasicMetricsCollector
	b.RecordCompress(100, 25, 2*time.Millisecond, nil)
	b.RecordCompress(100, 0, 4*time.Millisecond, assert.AnError)

	s := b.GetStats()
	assert.Equal(t, int64(2), s.CompressCount)
	assert.Equal(t, int64(1), s.CompressErrors)
	assert.Equal(t, int64(3*time.Millisecond), s.CompressAvgNanos)
	assert.Equal(t, 4.0, s.OverallRatio)
	assert.Zero(t, s.DecompressAvgNanos)
}
