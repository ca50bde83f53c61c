// Package codebook defines the symbol codebook: an ordered table of K
// centroids in a D-dimensional latent space whose indices form the code
// alphabet.
//
// A Codebook is immutable once constructed and safe for concurrent use.
package codebook

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/hupe1980/vqz/internal/hash"
)

var (
	// ErrInvalid is returned when a codebook cannot be constructed or parsed.
	ErrInvalid = errors.New("codebook: invalid codebook")

	// ErrShapeMismatch is returned when a codebook's K or D differs from what a
	// caller expects.
	ErrShapeMismatch = errors.New("codebook: shape mismatch")
)

// ShapeError describes a K or D mismatch.
type ShapeError struct {
	Field    string // "k" or "dim"
	Expected int
	Actual   int
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("codebook: %s mismatch: expected %d, got %d", e.Field, e.Expected, e.Actual)
}

func (e *ShapeError) Unwrap() error { return ErrShapeMismatch }

// MaxSize is the largest supported number of centroids.
const MaxSize = 1 << 16

// Codebook is an ordered set of K centroids of dimensionality D.
type Codebook struct {
	k         int
	dim       int
	centroids []float32 // k * dim, row-major
	id        uint64
}

// New creates a codebook from flattened centroids (k * dim values).
// The values are copied.
func New(k, dim int, centroids []float32) (*Codebook, error) {
	if k <= 0 || k > MaxSize {
		return nil, fmt.Errorf("%w: k=%d outside [1, %d]", ErrInvalid, k, MaxSize)
	}
	if dim <= 0 {
		return nil, fmt.Errorf("%w: dim=%d", ErrInvalid, dim)
	}
	if len(centroids) != k*dim {
		return nil, fmt.Errorf("%w: got %d values, expected %d", ErrInvalid, len(centroids), k*dim)
	}
	for i, v := range centroids {
		if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
			return nil, fmt.Errorf("%w: non-finite value at %d", ErrInvalid, i)
		}
	}

	c := &Codebook{
		k:         k,
		dim:       dim,
		centroids: append([]float32(nil), centroids...),
	}
	c.id = hash.FingerprintFloats([]int{k, dim}, c.centroids)
	return c, nil
}

// FromVectors creates a codebook whose centroids are the given vectors in order.
func FromVectors(vectors [][]float32) (*Codebook, error) {
	if len(vectors) == 0 {
		return nil, fmt.Errorf("%w: no centroids", ErrInvalid)
	}
	dim := len(vectors[0])
	flat := make([]float32, 0, len(vectors)*dim)
	for i, v := range vectors {
		if len(v) != dim {
			return nil, fmt.Errorf("%w: centroid %d has dim %d, expected %d", ErrInvalid, i, len(v), dim)
		}
		flat = append(flat, v...)
	}
	return New(len(vectors), dim, flat)
}

// K returns the number of centroids.
func (c *Codebook) K() int { return c.k }

// Dim returns the centroid dimensionality.
func (c *Codebook) Dim() int { return c.dim }

// ID returns the content fingerprint of the codebook.
func (c *Codebook) ID() uint64 { return c.id }

// At returns a read-only view of centroid i. Callers must not modify it.
func (c *Codebook) At(i int) []float32 {
	return c.centroids[i*c.dim : (i+1)*c.dim : (i+1)*c.dim]
}

// Centroid returns a copy of centroid i.
func (c *Codebook) Centroid(i int) ([]float32, error) {
	if i < 0 || i >= c.k {
		return nil, fmt.Errorf("%w: index %d outside [0, %d)", ErrInvalid, i, c.k)
	}
	return append([]float32(nil), c.At(i)...), nil
}

// CheckShape verifies the codebook has exactly k centroids of width dim.
func (c *Codebook) CheckShape(k, dim int) error {
	if c.dim != dim {
		return &ShapeError{Field: "dim", Expected: dim, Actual: c.dim}
	}
	if c.k != k {
		return &ShapeError{Field: "k", Expected: k, Actual: c.k}
	}
	return nil
}

// RawSize returns the size of the raw centroid encoding in bytes.
func (c *Codebook) RawSize() int { return c.k * c.dim * 4 }

// AppendRaw appends the centroid values as little-endian float32 to dst.
// The shape is not included; see FromRaw.
func (c *Codebook) AppendRaw(dst []byte) []byte {
	for _, v := range c.centroids {
		dst = binary.LittleEndian.AppendUint32(dst, math.Float32bits(v))
	}
	return dst
}

// FromRaw parses centroid values written by AppendRaw for a known shape.
func FromRaw(k, dim int, data []byte) (*Codebook, error) {
	if k <= 0 || dim <= 0 || k > MaxSize {
		return nil, fmt.Errorf("%w: k=%d dim=%d", ErrInvalid, k, dim)
	}
	if uint64(len(data)) != uint64(k)*uint64(dim)*4 {
		return nil, fmt.Errorf("%w: raw length %d, expected %d", ErrInvalid, len(data), uint64(k)*uint64(dim)*4)
	}
	values := make([]float32, k*dim)
	for i := range values {
		values[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return New(k, dim, values)
}

// headerSize is the size of the self-describing prefix written by MarshalBinary.
const headerSize = 8

// MarshalBinary implements encoding.BinaryMarshaler.
// Format (little-endian):
// [k:uint32][dim:uint32]
// [c_0_0:float32]...[c_k-1_dim-1:float32]
func (c *Codebook) MarshalBinary() ([]byte, error) {
	buf := make([]byte, headerSize, headerSize+c.RawSize())
	binary.LittleEndian.PutUint32(buf[0:4], uint32(c.k))
	binary.LittleEndian.PutUint32(buf[4:8], uint32(c.dim))
	return c.AppendRaw(buf), nil
}

// Unmarshal parses a codebook written by MarshalBinary.
func Unmarshal(data []byte) (*Codebook, error) {
	if len(data) < headerSize {
		return nil, fmt.Errorf("%w: %d bytes is shorter than the header", ErrInvalid, len(data))
	}
	k := binary.LittleEndian.Uint32(data[0:4])
	dim := binary.LittleEndian.Uint32(data[4:8])
	if k == 0 || k > MaxSize || dim == 0 || dim > math.MaxInt32 {
		return nil, fmt.Errorf("%w: k=%d dim=%d", ErrInvalid, k, dim)
	}
	return FromRaw(int(k), int(dim), data[headerSize:])
}
