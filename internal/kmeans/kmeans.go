package kmeans

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/vqz/distance"
)

// assignChunk is the number of vectors one worker assigns per task.
const assignChunk = 1024

// ErrNotEnoughVectors is returned when fewer vectors than centroids are supplied.
var ErrNotEnoughVectors = errors.New("kmeans: not enough vectors")

// Train clusters vectors into k centroids using k-means++ initialization
// followed by Lloyd iterations. It returns the flattened centroids (k * dim).
//
// The assignment step runs on up to workers goroutines (GOMAXPROCS when
// workers <= 0); the centroid update is sequential, so the result does not
// depend on workers. Training stops early when no assignment changes.
func Train(ctx context.Context, vectors [][]float32, k, maxIter, workers int, rng *rand.Rand) ([]float32, error) {
	n := len(vectors)
	if k <= 0 {
		return nil, fmt.Errorf("kmeans: k must be positive, got %d", k)
	}
	if n < k {
		return nil, fmt.Errorf("%w: %d vectors for %d centroids", ErrNotEnoughVectors, n, k)
	}
	dim := len(vectors[0])
	for i, v := range vectors {
		if len(v) != dim {
			return nil, fmt.Errorf("kmeans: vector %d has dim %d, expected %d", i, len(v), dim)
		}
	}

	centroids := initPlusPlus(vectors, k, dim, rng)

	assignments := make([]int, n)
	for i := range assignments {
		assignments[i] = -1
	}
	dists := make([]float32, n)
	counts := make([]int, k)
	sums := make([]float64, k*dim)

	for iter := 0; iter < maxIter; iter++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		changed, err := assign(ctx, vectors, centroids, dim, assignments, dists, workers)
		if err != nil {
			return nil, err
		}
		if !changed {
			break
		}

		clear(sums)
		clear(counts)
		for i, vec := range vectors {
			c := assignments[i]
			counts[c]++
			row := sums[c*dim : (c+1)*dim]
			for j, v := range vec {
				row[j] += float64(v)
			}
		}

		for c := 0; c < k; c++ {
			dst := centroids[c*dim : (c+1)*dim]
			if counts[c] == 0 {
				// Reseed an empty cluster with the point farthest from its centroid.
				far := farthest(dists)
				copy(dst, vectors[far])
				dists[far] = 0
				continue
			}
			inv := 1.0 / float64(counts[c])
			for j := range dst {
				dst[j] = float32(sums[c*dim+j] * inv)
			}
		}
	}

	return centroids, nil
}

// assign moves every vector to its nearest centroid and reports whether any
// assignment changed. Chunks write disjoint ranges of assignments and dists.
func assign(ctx context.Context, vectors [][]float32, centroids []float32, dim int, assignments []int, dists []float32, workers int) (bool, error) {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	chunks := (len(vectors) + assignChunk - 1) / assignChunk
	changed := make([]bool, chunks)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for c := range chunks {
		start := c * assignChunk
		end := min(start+assignChunk, len(vectors))
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			for i := start; i < end; i++ {
				best, d := Nearest(vectors[i], centroids, dim)
				dists[i] = d
				if assignments[i] != best {
					assignments[i] = best
					changed[c] = true
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return false, err
	}
	for _, ch := range changed {
		if ch {
			return true, nil
		}
	}
	return false, nil
}

// initPlusPlus picks k initial centroids with k-means++ seeding.
func initPlusPlus(vectors [][]float32, k, dim int, rng *rand.Rand) []float32 {
	n := len(vectors)
	centroids := make([]float32, k*dim)

	first := rng.Intn(n)
	copy(centroids[0:dim], vectors[first])

	minDist := make([]float64, n)
	var sum float64
	for i, vec := range vectors {
		d := float64(distance.SquaredL2(vec, centroids[0:dim]))
		minDist[i] = d
		sum += d
	}

	for c := 1; c < k; c++ {
		chosen := -1
		if sum > 0 {
			// Sample proportional to squared distance.
			target := rng.Float64() * sum
			var cumsum float64
			for i, d := range minDist {
				cumsum += d
				if d > 0 && cumsum >= target {
					chosen = i
					break
				}
			}
		}
		if chosen < 0 {
			// Rounding left the target unreached; take the farthest point.
			chosen = farthest64(minDist)
		}
		dst := centroids[c*dim : (c+1)*dim]
		copy(dst, vectors[chosen])

		sum = 0
		for i, vec := range vectors {
			d := float64(distance.SquaredL2(vec, dst))
			if d < minDist[i] {
				minDist[i] = d
			}
			sum += minDist[i]
		}
	}
	return centroids
}

// Nearest returns the index of the centroid closest to vec and its squared
// distance. Ties resolve to the lowest index.
func Nearest(vec []float32, centroids []float32, dim int) (int, float32) {
	k := len(centroids) / dim
	best := 0
	minDist := float32(math.Inf(1))
	for j := 0; j < k; j++ {
		d := distance.SquaredL2(vec, centroids[j*dim:(j+1)*dim])
		if d < minDist {
			minDist = d
			best = j
		}
	}
	return best, minDist
}

func farthest(dists []float32) int {
	idx := 0
	for i, d := range dists {
		if d > dists[idx] {
			idx = i
		}
	}
	return idx
}

func farthest64(dists []float64) int {
	idx := 0
	for i, d := range dists {
		if d > dists[idx] {
			idx = i
		}
	}
	return idx
}
