package latent

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// chunkSize is the number of blocks a worker transforms per task.
const chunkSize = 128

// EncodeBlocks encodes every block with t using up to workers goroutines
// (GOMAXPROCS when workers <= 0). Results keep the block order.
func EncodeBlocks(ctx context.Context, t Transform, blocks [][]float32, workers int) ([][]float32, error) {
	return parallelMap(ctx, blocks, workers, t.Encode)
}

// DecodeBlocks decodes every latent vector with t using up to workers
// goroutines. Results keep the input order.
func DecodeBlocks(ctx context.Context, t Transform, latents [][]float32, workers int) ([][]float32, error) {
	return parallelMap(ctx, latents, workers, t.Decode)
}

func parallelMap(ctx context.Context, in [][]float32, workers int, fn func([]float32) ([]float32, error)) ([][]float32, error) {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	out := make([][]float32, len(in))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for start := 0; start < len(in); start += chunkSize {
		end := min(start+chunkSize, len(in))
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			for i := start; i < end; i++ {
				v, err := fn(in[i])
				if err != nil {
					return fmt.Errorf("block %d: %w", i, err)
				}
				out[i] = v
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
