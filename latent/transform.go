package latent

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidParams is returned when transform parameters are malformed.
	ErrInvalidParams = errors.New("latent: invalid parameters")

	// ErrWidth is returned when a block or latent vector has the wrong length.
	ErrWidth = errors.New("latent: width mismatch")
)

// Transform is a deterministic mapping between raw blocks of BlockLen
// samples and latent vectors of Dim values.
type Transform interface {
	// Name identifies the transform family for logs ("linear", "dct", "identity").
	Name() string

	// BlockLen returns L, the number of samples per raw block.
	BlockLen() int

	// Dim returns D, the latent dimensionality.
	Dim() int

	// Encode maps a block of BlockLen samples to a latent vector.
	Encode(block []float32) ([]float32, error)

	// Decode maps a latent vector back to an approximate block.
	Decode(latent []float32) ([]float32, error)

	// Fingerprint identifies the transform parameters. Two transforms with
	// equal fingerprints produce identical outputs.
	Fingerprint() uint64
}

func checkWidth(what string, got, want int) error {
	if got != want {
		return fmt.Errorf("%w: %s has %d values, expected %d", ErrWidth, what, got, want)
	}
	return nil
}
