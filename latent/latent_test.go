package latent

import (
	"bytes"
	"context"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/vqz/codec"
)

func randomBlock(rng *rand.Rand, n int) []float32 {
	b := make([]float32, n)
	for i := range b {
		b[i] = rng.Float32()
	}
	return b
}

func maxAbsDiff(a, b []float32) float64 {
	var m float64
	for i := range a {
		m = math.Max(m, math.Abs(float64(a[i]-b[i])))
	}
	return m
}

func TestDCT_FullRankIsInvertible(t *testing.T) {
	tr, err := NewDCT(16, 16)
	require.NoError(t, err)
	assert.Equal(t, "dct", tr.Name())

	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 20; i++ {
		block := randomBlock(rng, 16)
		z, err := tr.Encode(block)
		require.NoError(t, err)
		require.Len(t, z, 16)

		back, err := tr.Decode(z)
		require.NoError(t, err)
		assert.Less(t, maxAbsDiff(block, back), 1e-5)
	}
}

func TestDCT_TruncatedKeepsSmoothSignals(t *testing.T) {
	tr, err := NewDCT(32, 8)
	require.NoError(t, err)

	// A constant block lives entirely in the DC coefficient.
	block := make([]float32, 32)
	for i := range block {
		block[i] = 0.5
	}
	z, err := tr.Encode(block)
	require.NoError(t, err)
	require.Len(t, z, 8)
	for _, v := range z[1:] {
		assert.InDelta(t, 0, v, 1e-5)
	}

	back, err := tr.Decode(z)
	require.NoError(t, err)
	assert.Less(t, maxAbsDiff(block, back), 1e-5)
}

func TestDCT_Deterministic(t *testing.T) {
	a, err := NewDCT(8, 4)
	require.NoError(t, err)
	b, err := NewDCT(8, 4)
	require.NoError(t, err)
	assert.Equal(t, a.Fingerprint(), b.Fingerprint())

	c, err := NewDCT(8, 3)
	require.NoError(t, err)
	assert.NotEqual(t, a.Fingerprint(), c.Fingerprint())

	block := randomBlock(rand.New(rand.NewSource(2)), 8)
	za, err := a.Encode(block)
	require.NoError(t, err)
	zb, err := b.Encode(block)
	require.NoError(t, err)
	assert.Equal(t, za, zb)
}

func TestDCT_InvalidShape(t *testing.T) {
	_, err := NewDCT(8, 9)
	assert.ErrorIs(t, err, ErrInvalidParams)
	_, err = NewDCT(0, 0)
	assert.ErrorIs(t, err, ErrInvalidParams)
}

func TestLinear_Bias(t *testing.T) {
	tr, err := NewLinear(Params{
		BlockLen:    2,
		Dim:         1,
		Encoder:     []float64{0.5, 0.5},
		EncoderBias: []float64{1},
		Decoder:     []float64{1, 1},
		DecoderBias: []float64{0, -1},
	})
	require.NoError(t, err)

	z, err := tr.Encode([]float32{2, 4})
	require.NoError(t, err)
	assert.Equal(t, []float32{4}, z)

	back, err := tr.Decode(z)
	require.NoError(t, err)
	assert.Equal(t, []float32{4, 3}, back)
}

func TestLinear_WidthErrors(t *testing.T) {
	tr, err := NewDCT(4, 2)
	require.NoError(t, err)

	_, err = tr.Encode([]float32{1, 2, 3})
	assert.ErrorIs(t, err, ErrWidth)
	_, err = tr.Decode([]float32{1})
	assert.ErrorIs(t, err, ErrWidth)
}

func TestParams_Validate(t *testing.T) {
	good, err := DCTParams(4, 2)
	require.NoError(t, err)
	require.NoError(t, good.Validate())

	bad := good
	bad.Encoder = bad.Encoder[:3]
	assert.ErrorIs(t, bad.Validate(), ErrInvalidParams)

	bad = good
	bad.DecoderBias = []float64{1}
	assert.ErrorIs(t, bad.Validate(), ErrInvalidParams)

	bad = good
	bad.Decoder = append([]float64(nil), good.Decoder...)
	bad.Decoder[0] = math.NaN()
	assert.ErrorIs(t, bad.Validate(), ErrInvalidParams)
}

func TestParams_CodecRoundTripPreservesFingerprint(t *testing.T) {
	dct, err := NewDCT(8, 4)
	require.NoError(t, err)

	for _, c := range []codec.Codec{codec.JSON{}, codec.GoJSON{}, codec.YAML{}} {
		t.Run(c.Name(), func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, WriteParams(&buf, dct.Params(), c))

			p, err := LoadParams(&buf, c)
			require.NoError(t, err)

			lin, err := NewLinear(p)
			require.NoError(t, err)
			assert.Equal(t, dct.Fingerprint(), lin.Fingerprint())
			assert.Equal(t, "linear", lin.Name())
		})
	}
}

func TestLoadParams_Invalid(t *testing.T) {
	_, err := LoadParams(bytes.NewReader([]byte("{not json")), nil)
	assert.ErrorIs(t, err, ErrInvalidParams)

	_, err = LoadParams(bytes.NewReader([]byte(`{"block_len":2,"dim":1}`)), codec.JSON{})
	assert.ErrorIs(t, err, ErrInvalidParams)
}

func TestOpenLinear(t *testing.T) {
	p, err := DCTParams(4, 4)
	require.NoError(t, err)

	dir := t.TempDir()
	path := filepath.Join(dir, "model.yaml")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, WriteParams(f, p, codec.YAML{}))
	require.NoError(t, f.Close())

	lin, err := OpenLinear(path)
	require.NoError(t, err)
	assert.Equal(t, 4, lin.Dim())

	_, err = OpenLinear(filepath.Join(dir, "missing.json"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestIdentity(t *testing.T) {
	tr, err := NewIdentity(3)
	require.NoError(t, err)
	assert.Equal(t, 3, tr.Dim())

	in := []float32{0.1, 0.2, 0.3}
	z, err := tr.Encode(in)
	require.NoError(t, err)
	z[0] = 9
	assert.Equal(t, float32(0.1), in[0], "encode must copy")

	back, err := tr.Decode([]float32{0.1, 0.2, 0.3})
	require.NoError(t, err)
	assert.Equal(t, in, back)

	_, err = tr.Encode([]float32{1})
	assert.ErrorIs(t, err, ErrWidth)

	other, err := NewIdentity(4)
	require.NoError(t, err)
	assert.NotEqual(t, tr.Fingerprint(), other.Fingerprint())

	_, err = NewIdentity(0)
	assert.ErrorIs(t, err, ErrInvalidParams)
}

func TestFraming_RoundTrip(t *testing.T) {
	data := make([]byte, 300)
	for i := range data {
		data[i] = byte(i * 7)
	}

	blocks := Preprocess(data, 64)
	require.Len(t, blocks, 5)
	for _, b := range blocks {
		require.Len(t, b, 64)
	}
	// Padding is zero.
	assert.Equal(t, float32(0), blocks[4][63])

	out, err := Postprocess(blocks, len(data))
	require.NoError(t, err)
	assert.Equal(t, data, out)
}

func TestFraming_Edges(t *testing.T) {
	assert.Equal(t, 0, NumBlocks(0, 8))
	assert.Equal(t, 1, NumBlocks(1, 8))
	assert.Equal(t, 1, NumBlocks(8, 8))
	assert.Equal(t, 2, NumBlocks(9, 8))
	assert.Empty(t, Preprocess(nil, 8))

	_, err := Postprocess([][]float32{{0, 0}}, 3)
	assert.ErrorIs(t, err, ErrWidth)

	_, err = Postprocess([][]float32{{0, 0}, {0}}, 3)
	assert.ErrorIs(t, err, ErrWidth)
}

func TestSampleToByte(t *testing.T) {
	assert.Equal(t, byte(0), SampleToByte(-0.5))
	assert.Equal(t, byte(255), SampleToByte(1.7))
	assert.Equal(t, byte(0), SampleToByte(float32(math.NaN())))
	assert.Equal(t, byte(128), SampleToByte(128.0/255))
	assert.Equal(t, byte(128), SampleToByte(127.6/255))
}

func TestEncodeDecodeBlocks(t *testing.T) {
	tr, err := NewDCT(8, 8)
	require.NoError(t, err)

	rng := rand.New(rand.NewSource(4))
	blocks := make([][]float32, 1000)
	for i := range blocks {
		blocks[i] = randomBlock(rng, 8)
	}

	latents, err := EncodeBlocks(context.Background(), tr, blocks, 3)
	require.NoError(t, err)
	require.Len(t, latents, len(blocks))
	for i := range blocks {
		want, err := tr.Encode(blocks[i])
		require.NoError(t, err)
		assert.Equal(t, want, latents[i])
	}

	back, err := DecodeBlocks(context.Background(), tr, latents, 0)
	require.NoError(t, err)
	for i := range blocks {
		assert.Less(t, maxAbsDiff(blocks[i], back[i]), 1e-5)
	}
}

func TestEncodeBlocks_Errors(t *testing.T) {
	tr, err := NewIdentity(2)
	require.NoError(t, err)

	_, err = EncodeBlocks(context.Background(), tr, [][]float32{{1, 2}, {1}}, 1)
	assert.ErrorIs(t, err, ErrWidth)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = EncodeBlocks(ctx, tr, [][]float32{{1, 2}}, 1)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLinear_FingerprintSeparatesBiases(t *testing.T) {
	// The parameter values concatenate to the same sequence but the two
	// transforms reconstruct differently.
	a, err := NewLinear(Params{
		BlockLen:    2,
		Dim:         2,
		Encoder:     []float64{1, 0, 0, 1},
		EncoderBias: []float64{1, 0},
		Decoder:     []float64{0, 1, 0, 0},
	})
	require.NoError(t, err)
	b, err := NewLinear(Params{
		BlockLen:    2,
		Dim:         2,
		Encoder:     []float64{1, 0, 0, 1},
		Decoder:     []float64{1, 0, 0, 1},
		DecoderBias: []float64{0, 0},
	})
	require.NoError(t, err)

	block := []float32{0.5, 0.5}
	za, err := a.Encode(block)
	require.NoError(t, err)
	ra, err := a.Decode(za)
	require.NoError(t, err)
	zb, err := b.Encode(block)
	require.NoError(t, err)
	rb, err := b.Decode(zb)
	require.NoError(t, err)

	require.NotEqual(t, ra, rb)
	assert.NotEqual(t, a.Fingerprint(), b.Fingerprint())
}
