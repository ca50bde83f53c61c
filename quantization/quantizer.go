package quantization

import (
	"context"
	"errors"
	"fmt"
	"math"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/vqz/codebook"
	"github.com/hupe1980/vqz/distance"
)

// ErrSymbolOutOfRange is returned when decoding an index outside [0, K).
var ErrSymbolOutOfRange = errors.New("quantization: symbol out of range")

// Encode returns the index of the centroid nearest to v.
func Encode(v []float32, cb *codebook.Codebook) (uint32, error) {
	sym, _, err := encodeOne(v, cb)
	return sym, err
}

func encodeOne(v []float32, cb *codebook.Codebook) (uint32, float32, error) {
	if len(v) != cb.Dim() {
		return 0, 0, &codebook.ShapeError{Field: "dim", Expected: cb.Dim(), Actual: len(v)}
	}
	best := 0
	minDist := float32(math.Inf(1))
	for i := 0; i < cb.K(); i++ {
		if d := distance.SquaredL2(v, cb.At(i)); d < minDist {
			minDist = d
			best = i
		}
	}
	return uint32(best), minDist, nil
}

// Decode returns a copy of the centroid at sym.
func Decode(sym uint32, cb *codebook.Codebook) ([]float32, error) {
	if int64(sym) >= int64(cb.K()) {
		return nil, fmt.Errorf("%w: %d >= %d", ErrSymbolOutOfRange, sym, cb.K())
	}
	return cb.Centroid(int(sym))
}

// batchChunk is the number of vectors a worker processes per task.
const batchChunk = 256

// EncodeBatch quantizes vectors in parallel using up to workers goroutines
// (GOMAXPROCS when workers <= 0). Symbols are returned in input order along
// with the mean squared quantization error.
func EncodeBatch(ctx context.Context, vectors [][]float32, cb *codebook.Codebook, workers int) ([]uint32, float64, error) {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	symbols := make([]uint32, len(vectors))
	errs := make([]float32, len(vectors))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for start := 0; start < len(vectors); start += batchChunk {
		end := min(start+batchChunk, len(vectors))
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			for i := start; i < end; i++ {
				sym, d, err := encodeOne(vectors[i], cb)
				if err != nil {
					return fmt.Errorf("vector %d: %w", i, err)
				}
				symbols[i] = sym
				errs[i] = d
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, 0, err
	}

	if len(vectors) == 0 {
		return symbols, 0, nil
	}
	var sum float64
	for _, d := range errs {
		sum += float64(d)
	}
	return symbols, sum / float64(len(vectors)), nil
}

// DecodeBatch maps every symbol back to its centroid. The returned vectors
// are read-only views into the codebook.
func DecodeBatch(symbols []uint32, cb *codebook.Codebook) ([][]float32, error) {
	out := make([][]float32, len(symbols))
	for i, sym := range symbols {
		if int64(sym) >= int64(cb.K()) {
			return nil, fmt.Errorf("%w: symbol %d at position %d, k=%d", ErrSymbolOutOfRange, sym, i, cb.K())
		}
		out[i] = cb.At(int(sym))
	}
	return out, nil
}
