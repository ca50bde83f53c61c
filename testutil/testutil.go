package testutil

import (
	"bytes"
	"math"
	"math/rand"
	"sync"
)

// RNG struct encapsulates the random number generator and seed.
// It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed int64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewSource(seed)),
		seed: seed,
	}
}

// Reset resets the RNG to its initial seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand.Seed(r.seed)
}

// Seed returns the initial seed.
func (r *RNG) Seed() int64 {
	return r.seed
}

// Intn returns a non-negative pseudo-random number in [0,n).
func (r *RNG) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Intn(n)
}

// Float32 returns, as a float32, a pseudo-random number in [0.0,1.0).
func (r *RNG) Float32() float32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Float32()
}

// Bytes returns n uniformly random bytes.
func (r *RNG) Bytes(n int) []byte {
	r.mu.Lock()
	defer r.mu.Unlock()

	b := make([]byte, n)
	_, _ = r.rand.Read(b)
	return b
}

const alphabet = "abcdefghijklmnopqrstuvwxyz    \n.,"

// Text returns n bytes of pseudo-text drawn from a small alphabet with a
// Zipfian letter distribution.
func (r *RNG) Text(n int) []byte {
	r.mu.Lock()
	defer r.mu.Unlock()

	b := make([]byte, n)
	for i := range b {
		b[i] = alphabet[r.zipfLocked(len(alphabet), 1.1)]
	}
	return b
}

// Signal returns n bytes of a slowly varying waveform with small noise,
// resembling a row of image pixels.
func (r *RNG) Signal(n int) []byte {
	r.mu.Lock()
	defer r.mu.Unlock()

	phase := r.rand.Float64() * 2 * math.Pi
	b := make([]byte, n)
	for i := range b {
		v := 128 + 100*math.Sin(phase+float64(i)/40) + r.rand.NormFloat64()*2
		b[i] = byte(max(0, min(255, math.Round(v))))
	}
	return b
}

// RepeatBlock returns count concatenated copies of block.
func RepeatBlock(block []byte, count int) []byte {
	return bytes.Repeat(block, count)
}

// UniformVectors generates random vectors with values in range [0, 1).
// Uses a single backing array for efficiency.
func (r *RNG) UniformVectors(num int, dimensions int) [][]float32 {
	r.mu.Lock()
	defer r.mu.Unlock()

	data := make([]float32, num*dimensions)
	vectors := make([][]float32, num)

	for i := range num {
		vec := data[i*dimensions : (i+1)*dimensions]
		for j := range vec {
			vec[j] = r.rand.Float32()
		}
		vectors[i] = vec
	}

	return vectors
}

// GaussianVectors generates random vectors with values from a standard normal distribution.
func (r *RNG) GaussianVectors(num int, dimensions int) [][]float32 {
	r.mu.Lock()
	defer r.mu.Unlock()

	data := make([]float32, num*dimensions)
	vectors := make([][]float32, num)

	for i := range num {
		vec := data[i*dimensions : (i+1)*dimensions]
		for j := range vec {
			vec[j] = float32(r.rand.NormFloat64())
		}
		vectors[i] = vec
	}

	return vectors
}

// ClusteredVectors generates vectors around clusters uniform centroids in
// [0, 1)^dim with Gaussian noise of the given spread. Vector i belongs to
// cluster i % clusters.
func (r *RNG) ClusteredVectors(num, dim, clusters int, spread float32) [][]float32 {
	centroids := r.UniformVectors(clusters, dim)

	r.mu.Lock()
	defer r.mu.Unlock()

	data := make([]float32, num*dim)
	vectors := make([][]float32, num)

	for i := range num {
		centroid := centroids[i%clusters]
		vec := data[i*dim : (i+1)*dim]
		for j := range dim {
			vec[j] = centroid[j] + float32(r.rand.NormFloat64())*spread
		}
		vectors[i] = vec
	}

	return vectors
}

// Zipf returns a Zipfian-distributed value in [0, n).
// P(k) ∝ 1/k^s; larger s gives a heavier head.
func (r *RNG) Zipf(n int, s float64) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.zipfLocked(n, s)
}

// zipfLocked is the internal implementation (caller must hold lock).
func (r *RNG) zipfLocked(n int, s float64) int {
	if n <= 1 {
		return 0
	}

	var hns float64
	for i := 1; i <= n; i++ {
		hns += 1.0 / math.Pow(float64(i), s)
	}

	// Inverse transform sampling.
	u := r.rand.Float64() * hns
	var cumulative float64
	for k := 1; k <= n; k++ {
		cumulative += 1.0 / math.Pow(float64(k), s)
		if u <= cumulative {
			return k - 1
		}
	}

	return n - 1
}

// ZipfSymbols generates n code symbols in [0, alphabet) with a Zipfian
// frequency distribution.
func (r *RNG) ZipfSymbols(n, alphabet int, s float64) []uint32 {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Precompute the CDF once; zipfLocked is O(alphabet) per call.
	cdf := make([]float64, alphabet)
	var total float64
	for k := range alphabet {
		total += 1.0 / math.Pow(float64(k+1), s)
		cdf[k] = total
	}

	symbols := make([]uint32, n)
	for i := range symbols {
		u := r.rand.Float64() * total
		lo, hi := 0, alphabet-1
		for lo < hi {
			mid := (lo + hi) / 2
			if cdf[mid] < u {
				lo = mid + 1
			} else {
				hi = mid
			}
		}
		symbols[i] = uint32(lo)
	}
	return symbols
}
