package latent

import (
	"fmt"
	"math"
)

// sampleScale maps the byte range onto [0, 1].
const sampleScale = 255

// NumBlocks returns the number of blocks of blockLen samples needed to hold
// n bytes.
func NumBlocks(n, blockLen int) int {
	if n <= 0 || blockLen <= 0 {
		return 0
	}
	return (n + blockLen - 1) / blockLen
}

// Preprocess slices data into blocks of blockLen samples. The final block is
// zero-padded. All blocks share one backing array.
func Preprocess(data []byte, blockLen int) [][]float32 {
	n := NumBlocks(len(data), blockLen)
	samples := make([]float32, n*blockLen)
	for i, b := range data {
		samples[i] = float32(b) / sampleScale
	}

	blocks := make([][]float32, n)
	for i := range blocks {
		blocks[i] = samples[i*blockLen : (i+1)*blockLen : (i+1)*blockLen]
	}
	return blocks
}

// Postprocess converts blocks back to bytes and drops the padding beyond
// origLen. Every block must hold the same number of samples.
func Postprocess(blocks [][]float32, origLen int) ([]byte, error) {
	if origLen < 0 {
		return nil, fmt.Errorf("latent: negative length %d", origLen)
	}
	out := make([]byte, 0, origLen)
	for i, block := range blocks {
		if i > 0 && len(block) != len(blocks[0]) {
			return nil, fmt.Errorf("%w: block %d has %d samples, expected %d", ErrWidth, i, len(block), len(blocks[0]))
		}
		for _, s := range block {
			if len(out) == origLen {
				return out, nil
			}
			out = append(out, SampleToByte(s))
		}
	}
	if len(out) != origLen {
		return nil, fmt.Errorf("%w: %d samples for %d bytes", ErrWidth, len(out), origLen)
	}
	return out, nil
}

// SampleToByte is the inverse of the byte framing: it rounds s*255 to the
// nearest integer and clamps it to [0, 255]. NaN maps to 0.
func SampleToByte(s float32) byte {
	v := math.Round(float64(s) * sampleScale)
	switch {
	case math.IsNaN(v) || v <= 0:
		return 0
	case v >= 255:
		return 255
	default:
		return byte(v)
	}
}
