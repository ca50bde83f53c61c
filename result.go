package vqz

import (
	"math"
	"time"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/hupe1980/vqz/codebook"
)

// Metrics are the size figures reported for one compression.
type Metrics struct {
	OriginalSizeBytes   int     `json:"original_size_bytes"`
	CompressedSizeBytes int     `json:"compressed_size_bytes"`
	CompressionRatio    float64 `json:"compression_ratio"`
	SpaceSavedPercent   float64 `json:"space_saved_percent"`
}

// NewMetrics computes ratio = original/compressed and
// saved = (1 - compressed/original) * 100.
func NewMetrics(original, compressed int) Metrics {
	m := Metrics{
		OriginalSizeBytes:   original,
		CompressedSizeBytes: compressed,
	}
	if compressed > 0 {
		m.CompressionRatio = float64(original) / float64(compressed)
	}
	if original > 0 {
		m.SpaceSavedPercent = (1 - float64(compressed)/float64(original)) * 100
	}
	return m
}

// Rounded returns the metrics with ratio and percentage rounded to two
// decimals, the precision shown to end users.
func (m Metrics) Rounded() Metrics {
	m.CompressionRatio = round2(m.CompressionRatio)
	m.SpaceSavedPercent = round2(m.SpaceSavedPercent)
	return m
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Stats describe one compression run.
type Stats struct {
	Transform string `json:"transform"`
	BlockLen  int    `json:"block_len"`
	Dim       int    `json:"dim"`
	Blocks    int    `json:"blocks"`

	// K is the number of codebook centroids; EffectiveK is the number of
	// distinct symbols actually emitted.
	K          int `json:"k"`
	EffectiveK int `json:"effective_k"`

	// Bits is the packed stream length; MaxCodeLen the longest code.
	Bits       uint64 `json:"bits"`
	MaxCodeLen int    `json:"max_code_len"`

	// QuantizationMSE is the mean squared distance between latent vectors
	// and their centroids.
	QuantizationMSE float64 `json:"quantization_mse"`

	EncodeDuration time.Duration `json:"encode_duration"`
	TrainDuration  time.Duration `json:"train_duration"`
	TotalDuration  time.Duration `json:"total_duration"`
}

// Result is the outcome of Compress.
type Result struct {
	// Container is the serialized artifact.
	Container []byte

	// Codebook is the codebook the symbols refer to. For external placement
	// it must be persisted by the caller (or via CompressTo).
	Codebook *codebook.Codebook

	Metrics Metrics
	Stats   Stats
}

func effectiveK(symbols []uint32) int {
	bm := roaring.New()
	bm.AddMany(symbols)
	return int(bm.GetCardinality())
}
