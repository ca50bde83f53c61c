package vqz

import (
	"errors"
	"fmt"

	"github.com/hupe1980/vqz/archive"
	"github.com/hupe1980/vqz/codebook"
	"github.com/hupe1980/vqz/container"
	"github.com/hupe1980/vqz/huffman"
	"github.com/hupe1980/vqz/latent"
	"github.com/hupe1980/vqz/quantization"
)

var (
	// ErrUnsupportedInput is returned when compress is called with an empty buffer.
	ErrUnsupportedInput = errors.New("vqz: unsupported input")

	// ErrCodebookMissing is returned when a container references a codebook
	// that was not supplied or cannot be found.
	ErrCodebookMissing = errors.New("vqz: codebook not found")

	// ErrCorruptContainer is returned when a container is truncated, altered
	// or internally inconsistent.
	ErrCorruptContainer = errors.New("vqz: corrupt container")

	// ErrDimensionMismatch is matched by every *DimensionMismatchError.
	ErrDimensionMismatch = errors.New("vqz: dimension mismatch")

	// ErrTransformMismatch is returned when a container was produced by a
	// latent transform with different parameters than the engine's.
	ErrTransformMismatch = errors.New("vqz: transform mismatch")

	// ErrNotFound is returned when an archive reference does not exist.
	ErrNotFound = errors.New("vqz: container not found")

	// ErrInvalidOptions is returned by New for an inconsistent configuration.
	ErrInvalidOptions = errors.New("vqz: invalid options")
)

// DimensionMismatchError reports a shape disagreement between a container,
// its codebook and the engine's transform.
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type DimensionMismatchError struct {
	Field    string // "k", "dim" or "block_len"
	Expected int
	Actual   int
	cause    error
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("vqz: dimension mismatch: %s expected %d, got %d", e.Field, e.Expected, e.Actual)
}

// Is reports whether target is ErrDimensionMismatch.
func (e *DimensionMismatchError) Is(target error) bool { return target == ErrDimensionMismatch }

func (e *DimensionMismatchError) Unwrap() error { return e.cause }

func translateError(err error) error {
	if err == nil {
		return nil
	}

	var de *DimensionMismatchError
	if errors.As(err, &de) {
		return err
	}
	var se *codebook.ShapeError
	if errors.As(err, &se) {
		return &DimensionMismatchError{Field: se.Field, Expected: se.Expected, Actual: se.Actual, cause: err}
	}

	// Codebook resolution.
	if errors.Is(err, archive.ErrCodebookNotFound) ||
		errors.Is(err, container.ErrNoCodebook) ||
		errors.Is(err, container.ErrCodebookMismatch) {
		return fmt.Errorf("%w: %w", ErrCodebookMissing, err)
	}

	// Corruption unification.
	if errors.Is(err, container.ErrCorrupt) ||
		errors.Is(err, huffman.ErrCorrupt) ||
		errors.Is(err, huffman.ErrInvalidTable) ||
		errors.Is(err, archive.ErrCorrupt) ||
		errors.Is(err, quantization.ErrSymbolOutOfRange) {
		return fmt.Errorf("%w: %w", ErrCorruptContainer, err)
	}

	if errors.Is(err, archive.ErrNotFound) {
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	}
	if errors.Is(err, latent.ErrInvalidParams) {
		return fmt.Errorf("%w: %w", ErrInvalidOptions, err)
	}

	return err
}
