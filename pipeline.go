package vqz

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hupe1980/vqz/archive"
	"github.com/hupe1980/vqz/codebook"
	"github.com/hupe1980/vqz/container"
	"github.com/hupe1980/vqz/huffman"
	"github.com/hupe1980/vqz/internal/conv"
	"github.com/hupe1980/vqz/latent"
	"github.com/hupe1980/vqz/quantization"
)

// bytesPerSample is the in-memory size of one float32 sample or latent value.
const bytesPerSample = 4

// reserve takes a job slot and a memory reservation for a call working on
// n blocks. The returned func releases both.
func (e *Engine) reserve(ctx context.Context, blocks int) (func(), error) {
	rc := e.opts.controller
	if err := rc.AcquireJob(ctx); err != nil {
		return nil, err
	}

	t := e.opts.transform
	mem := int64(blocks) * int64(t.BlockLen()+t.Dim()) * bytesPerSample
	if err := rc.AcquireMemory(ctx, mem); err != nil {
		rc.ReleaseJob()
		return nil, err
	}
	return func() {
		rc.ReleaseMemory(mem)
		rc.ReleaseJob()
	}, nil
}

func (e *Engine) compress(ctx context.Context, data []byte) (*Result, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty input", ErrUnsupportedInput)
	}
	start := time.Now()

	t := e.opts.transform
	numBlocks := latent.NumBlocks(len(data), t.BlockLen())
	release, err := e.reserve(ctx, numBlocks)
	if err != nil {
		return nil, err
	}
	defer release()

	blocks := latent.Preprocess(data, t.BlockLen())
	latents, err := latent.EncodeBlocks(ctx, t, blocks, e.opts.workers)
	if err != nil {
		return nil, err
	}
	encodeDone := time.Now()

	cb, err := e.opts.trainer.Train(ctx, latents, e.opts.codebookSize)
	if err != nil {
		return nil, fmt.Errorf("vqz: train codebook: %w", err)
	}
	if err := e.checkCodebook(cb); err != nil {
		return nil, err
	}
	trainDone := time.Now()

	symbols, mse, err := quantization.EncodeBatch(ctx, latents, cb, e.opts.workers)
	if err != nil {
		return nil, err
	}

	// Entropy coding is a single sequential pass over the symbol sequence.
	freqs, err := huffman.Count(symbols, cb.K())
	if err != nil {
		return nil, err
	}
	table, err := huffman.Build(freqs)
	if err != nil {
		return nil, err
	}
	stream, bits, err := table.Encode(symbols)
	if err != nil {
		return nil, err
	}

	out, err := container.Marshal(container.Params{
		OrigLen:     uint64(len(data)),
		BlockLen:    t.BlockLen(),
		TransformID: t.Fingerprint(),
		Symbols:     uint64(len(symbols)),
		Bits:        bits,
		External:    e.opts.placement == External,
		Compression: e.opts.sectionCompression,
	}, cb, table, stream)
	if err != nil {
		return nil, err
	}

	return &Result{
		Container: out,
		Codebook:  cb,
		Metrics:   NewMetrics(len(data), len(out)),
		Stats: Stats{
			Transform:       t.Name(),
			BlockLen:        t.BlockLen(),
			Dim:             t.Dim(),
			Blocks:          len(blocks),
			K:               cb.K(),
			EffectiveK:      effectiveK(symbols),
			Bits:            bits,
			MaxCodeLen:      table.MaxLen(),
			QuantizationMSE: mse,
			EncodeDuration:  encodeDone.Sub(start),
			TrainDuration:   trainDone.Sub(encodeDone),
			TotalDuration:   time.Since(start),
		},
	}, nil
}

func (e *Engine) decompress(ctx context.Context, data []byte, o decompressOptions) ([]byte, error) {
	c, err := container.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	h := c.Header

	t := e.opts.transform
	if int(h.BlockLen) != t.BlockLen() {
		return nil, &DimensionMismatchError{Field: "block_len", Expected: t.BlockLen(), Actual: int(h.BlockLen)}
	}
	if int(h.Dim) != t.Dim() {
		return nil, &DimensionMismatchError{Field: "dim", Expected: t.Dim(), Actual: int(h.Dim)}
	}
	if h.TransformID != t.Fingerprint() {
		return nil, fmt.Errorf("%w: container was produced by transform %016x, engine uses %s (%016x)",
			ErrTransformMismatch, h.TransformID, t.Name(), t.Fingerprint())
	}

	if err := e.resolveCodebook(ctx, c, o); err != nil {
		return nil, err
	}

	origLen, err := conv.Uint64ToInt(h.OrigLen)
	if err != nil {
		return nil, fmt.Errorf("%w: original length: %w", container.ErrCorrupt, err)
	}
	numBlocks, err := conv.Uint64ToInt(h.Symbols)
	if err != nil {
		return nil, fmt.Errorf("%w: symbol count: %w", container.ErrCorrupt, err)
	}
	release, err := e.reserve(ctx, numBlocks)
	if err != nil {
		return nil, err
	}
	defer release()

	symbols, err := c.Symbols()
	if err != nil {
		return nil, err
	}
	latents, err := quantization.DecodeBatch(symbols, c.Codebook)
	if err != nil {
		return nil, err
	}
	blocks, err := latent.DecodeBlocks(ctx, t, latents, e.opts.workers)
	if err != nil {
		return nil, err
	}
	return latent.Postprocess(blocks, origLen)
}

// resolveCodebook attaches the codebook to c. A supplied codebook is always
// checked against the header; an external codebook is looked up through the
// resolvers in order.
func (e *Engine) resolveCodebook(ctx context.Context, c *container.Container, o decompressOptions) error {
	if o.codebook != nil {
		return c.AttachCodebook(o.codebook)
	}
	if c.Codebook != nil {
		return nil
	}

	id := c.Header.CodebookID
	for _, r := range o.resolvers {
		cb, err := r.GetCodebook(ctx, id)
		if errors.Is(err, archive.ErrCodebookNotFound) {
			continue
		}
		if err != nil {
			return fmt.Errorf("vqz: resolve codebook %016x: %w", id, err)
		}
		if cb == nil {
			continue
		}
		return c.AttachCodebook(cb)
	}
	return fmt.Errorf("%w: %016x", ErrCodebookMissing, id)
}

// checkCodebook verifies a codebook fits the engine's transform.
func (e *Engine) checkCodebook(cb *codebook.Codebook) error {
	if cb.Dim() != e.opts.transform.Dim() {
		return &DimensionMismatchError{Field: "dim", Expected: e.opts.transform.Dim(), Actual: cb.Dim()}
	}
	return nil
}
