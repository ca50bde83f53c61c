package quantization

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"math/rand"

	"github.com/hupe1980/vqz/codebook"
	"github.com/hupe1980/vqz/internal/kmeans"
)

// ErrNoVectors is returned when training is requested on an empty set.
var ErrNoVectors = errors.New("quantization: no vectors provided for training")

// Trainer builds a codebook from a set of latent vectors.
//
// Implementations must be deterministic: the same vectors and k always
// produce the same codebook. The returned codebook may hold fewer than k
// centroids.
type Trainer interface {
	Train(ctx context.Context, vectors [][]float32, k int) (*codebook.Codebook, error)
}

const (
	// DefaultMaxIter is the default number of Lloyd iterations.
	DefaultMaxIter = 25

	// DefaultSampleSize is the default number of distinct vectors clustered.
	DefaultSampleSize = 16384
)

// KMeansTrainer trains codebooks with seeded k-means++ and Lloyd iterations.
//
// The effective codebook size is min(k, number of distinct vectors). When the
// input has at most k distinct vectors they become the centroids in order of
// first occurrence, so quantization is exact.
type KMeansTrainer struct {
	Seed       int64
	MaxIter    int // DefaultMaxIter when zero
	SampleSize int // DefaultSampleSize when zero
	Workers    int // GOMAXPROCS when zero
}

// Train implements Trainer.
func (t KMeansTrainer) Train(ctx context.Context, vectors [][]float32, k int) (*codebook.Codebook, error) {
	if len(vectors) == 0 {
		return nil, ErrNoVectors
	}
	if k <= 0 || k > codebook.MaxSize {
		return nil, fmt.Errorf("quantization: k=%d outside [1, %d]", k, codebook.MaxSize)
	}

	distinct, err := Distinct(vectors)
	if err != nil {
		return nil, err
	}
	if len(distinct) <= k {
		return codebook.FromVectors(distinct)
	}

	rng := rand.New(rand.NewSource(t.Seed)) //nolint:gosec // determinism, not security

	sampleSize := t.SampleSize
	if sampleSize <= 0 {
		sampleSize = DefaultSampleSize
	}
	sample := distinct
	if len(sample) > sampleSize && sampleSize >= k {
		perm := rng.Perm(len(distinct))[:sampleSize]
		sample = make([][]float32, sampleSize)
		for i, p := range perm {
			sample[i] = distinct[p]
		}
	}

	maxIter := t.MaxIter
	if maxIter <= 0 {
		maxIter = DefaultMaxIter
	}

	centroids, err := kmeans.Train(ctx, sample, k, maxIter, t.Workers, rng)
	if err != nil {
		return nil, err
	}
	return codebook.New(k, len(vectors[0]), centroids)
}

// Distinct returns the distinct vectors in order of first occurrence.
// Vectors are compared by their exact bit patterns.
func Distinct(vectors [][]float32) ([][]float32, error) {
	if len(vectors) == 0 {
		return nil, nil
	}
	dim := len(vectors[0])
	seen := make(map[string]struct{}, len(vectors))
	out := make([][]float32, 0)
	key := make([]byte, dim*4)
	for i, v := range vectors {
		if len(v) != dim {
			return nil, &codebook.ShapeError{Field: "dim", Expected: dim, Actual: len(v)}
		}
		for j, x := range v {
			if math.IsNaN(float64(x)) || math.IsInf(float64(x), 0) {
				return nil, fmt.Errorf("quantization: non-finite value in vector %d", i)
			}
			binary.LittleEndian.PutUint32(key[j*4:], math.Float32bits(x))
		}
		if _, ok := seen[string(key)]; ok {
			continue
		}
		seen[string(key)] = struct{}{}
		out = append(out, v)
	}
	return out, nil
}

// StaticTrainer always returns a fixed, pre-built codebook.
type StaticTrainer struct {
	Codebook *codebook.Codebook
}

// Train implements Trainer. The requested k is ignored.
func (t StaticTrainer) Train(_ context.Context, vectors [][]float32, _ int) (*codebook.Codebook, error) {
	if t.Codebook == nil {
		return nil, errors.New("quantization: static trainer has no codebook")
	}
	if len(vectors) > 0 && len(vectors[0]) != t.Codebook.Dim() {
		return nil, &codebook.ShapeError{Field: "dim", Expected: len(vectors[0]), Actual: t.Codebook.Dim()}
	}
	return t.Codebook, nil
}
