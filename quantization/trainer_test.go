package quantization

import (
	"context"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/vqz/codebook"
)

func TestKMeansTrainer_IdenticalVectors(t *testing.T) {
	vectors := make([][]float32, 10)
	for i := range vectors {
		vectors[i] = []float32{0.25, 0.5, 0.75}
	}

	cb, err := KMeansTrainer{Seed: 1}.Train(context.Background(), vectors, 256)
	require.NoError(t, err)
	assert.Equal(t, 1, cb.K())
	assert.Equal(t, 3, cb.Dim())
	assert.Equal(t, []float32{0.25, 0.5, 0.75}, cb.At(0))
}

func TestKMeansTrainer_FewDistinctAreExact(t *testing.T) {
	vectors := [][]float32{{3}, {1}, {3}, {2}, {1}}

	cb, err := KMeansTrainer{}.Train(context.Background(), vectors, 8)
	require.NoError(t, err)
	require.Equal(t, 3, cb.K())
	// Order of first occurrence.
	assert.Equal(t, []float32{3}, cb.At(0))
	assert.Equal(t, []float32{1}, cb.At(1))
	assert.Equal(t, []float32{2}, cb.At(2))

	for _, v := range vectors {
		sym, err := Encode(v, cb)
		require.NoError(t, err)
		assert.Equal(t, v, cb.At(int(sym)))
	}
}

func TestKMeansTrainer_Deterministic(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	vectors := make([][]float32, 2000)
	for i := range vectors {
		vectors[i] = []float32{rng.Float32(), rng.Float32(), rng.Float32(), rng.Float32()}
	}

	trainer := KMeansTrainer{Seed: 42, MaxIter: 10, SampleSize: 500}
	a, err := trainer.Train(context.Background(), vectors, 16)
	require.NoError(t, err)
	b, err := trainer.Train(context.Background(), vectors, 16)
	require.NoError(t, err)

	assert.Equal(t, 16, a.K())
	assert.Equal(t, a.ID(), b.ID())

	other, err := KMeansTrainer{Seed: 43, MaxIter: 10, SampleSize: 500}.Train(context.Background(), vectors, 16)
	require.NoError(t, err)
	assert.NotEqual(t, a.ID(), other.ID())

	serial, err := KMeansTrainer{Seed: 42, MaxIter: 10, SampleSize: 3000, Workers: 1}.Train(context.Background(), vectors, 16)
	require.NoError(t, err)
	parallel, err := KMeansTrainer{Seed: 42, MaxIter: 10, SampleSize: 3000, Workers: 8}.Train(context.Background(), vectors, 16)
	require.NoError(t, err)
	assert.Equal(t, serial.ID(), parallel.ID())
}

func TestKMeansTrainer_Errors(t *testing.T) {
	ctx := context.Background()

	_, err := KMeansTrainer{}.Train(ctx, nil, 4)
	assert.ErrorIs(t, err, ErrNoVectors)

	_, err = KMeansTrainer{}.Train(ctx, [][]float32{{1}}, 0)
	assert.Error(t, err)

	_, err = KMeansTrainer{}.Train(ctx, [][]float32{{1, 2}, {1}}, 4)
	assert.ErrorIs(t, err, codebook.ErrShapeMismatch)
}

func TestStaticTrainer(t *testing.T) {
	cb, err := codebook.FromVectors([][]float32{{0, 0}, {1, 1}})
	require.NoError(t, err)

	got, err := StaticTrainer{Codebook: cb}.Train(context.Background(), [][]float32{{0.1, 0.2}}, 99)
	require.NoError(t, err)
	assert.Same(t, cb, got)

	_, err = StaticTrainer{Codebook: cb}.Train(context.Background(), [][]float32{{0.1}}, 99)
	assert.ErrorIs(t, err, codebook.ErrShapeMismatch)

	_, err = StaticTrainer{}.Train(context.Background(), nil, 1)
	assert.Error(t, err)
}

func TestDistinct(t *testing.T) {
	out, err := Distinct([][]float32{{1, 2}, {1, 2}, {2, 1}})
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{1, 2}, {2, 1}}, out)

	out, err = Distinct(nil)
	require.NoError(t, err)
	assert.Empty(t, out)
}
