package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBytes(t *testing.T) {
	a := NewRNG(4711).Bytes(64)
	b := NewRNG(4711).Bytes(64)

	assert.Len(t, a, 64)
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, NewRNG(1).Bytes(64))
}

func TestText(t *testing.T) {
	text := NewRNG(4711).Text(1000)

	assert.Len(t, text, 1000)
	for _, c := range text {
		assert.Contains(t, alphabet, string(c))
	}
}

func TestSignal(t *testing.T) {
	s := NewRNG(4711).Signal(512)
	assert.Len(t, s, 512)

	// Neighbouring samples stay close.
	for i := 1; i < len(s); i++ {
		assert.InDelta(t, float64(s[i-1]), float64(s[i]), 20)
	}
}

func TestRepeatBlock(t *testing.T) {
	out := RepeatBlock([]byte{1, 2, 3}, 4)
	assert.Equal(t, []byte{1, 2, 3, 1, 2, 3, 1, 2, 3, 1, 2, 3}, out)
}

func TestUniformVectors(t *testing.T) {
	v := NewRNG(4711).UniformVectors(8, 32)

	assert.Len(t, v, 8)
	assert.Len(t, v[0], 32)
	for _, vec := range v {
		for _, x := range vec {
			assert.GreaterOrEqual(t, x, float32(0))
			assert.Less(t, x, float32(1))
		}
	}
}

func TestGaussianVectors(t *testing.T) {
	v := NewRNG(4711).GaussianVectors(8, 16)
	assert.Len(t, v, 8)
	assert.Len(t, v[7], 16)
}

func TestClusteredVectors(t *testing.T) {
	v := NewRNG(4711).ClusteredVectors(100, 32, 5, 0.01)

	assert.Len(t, v, 100)
	assert.Len(t, v[0], 32)
	// Members of one cluster are near each other.
	for j := range v[0] {
		assert.InDelta(t, v[0][j], v[5][j], 0.2)
	}
}

func TestZipfSymbols(t *testing.T) {
	syms := NewRNG(4711).ZipfSymbols(10000, 16, 1.5)

	counts := make([]int, 16)
	for _, s := range syms {
		assert.Less(t, s, uint32(16))
		counts[s]++
	}
	assert.Greater(t, counts[0], counts[15])
	assert.Greater(t, counts[0], 10000/16)
}

func TestZipf(t *testing.T) {
	rng := NewRNG(4711)
	for range 100 {
		v := rng.Zipf(10, 1.0)
		assert.GreaterOrEqual(t, v, 0)
		assert.Less(t, v, 10)
	}
	assert.Zero(t, rng.Zipf(1, 1.0))
}

func TestReset(t *testing.T) {
	rng := NewRNG(4711)
	v1 := rng.UniformVectors(1, 10)
	rng.Reset()
	v2 := rng.UniformVectors(1, 10)

	assert.Equal(t, v1, v2)
	assert.Equal(t, int64(4711), rng.Seed())
}
