// Package vqz compresses byte buffers with a hybrid pipeline: blocks of
// bytes are mapped into a low-dimensional latent space, snapped to the
// nearest entry of a learned codebook, and the resulting symbol stream is
// Huffman coded into a self-describing container.
//
// # Quick Start
//
//	eng, err := vqz.New(vqz.WithSeed(42))
//	res, err := eng.Compress(ctx, data)
//	fmt.Println(res.Metrics.CompressionRatio)
//	out, err := eng.Decompress(ctx, res.Container)
//
// The latent transform and the quantizer are lossy: len(out) == len(data)
// always holds, the bytes are an approximation. The entropy stage is
// lossless, so decoding reproduces the quantized symbols exactly.
//
// # Archives
//
// CompressTo and DecompressFrom keep containers and codebooks in an
// archive.Archive and hand out content-addressed references:
//
//	arc := archive.New(blobstore.NewLocalStore("./data"))
//	ref, res, err := eng.CompressTo(ctx, arc, data)
//	out, err := eng.DecompressFrom(ctx, arc, ref)
package vqz

import (
	"context"
	"time"

	"github.com/hupe1980/vqz/archive"
	"github.com/hupe1980/vqz/codebook"
	"github.com/hupe1980/vqz/container"
	"github.com/hupe1980/vqz/latent"
)

// Engine runs the compression pipeline. It holds no per-call state and is
// safe for concurrent use.
type Engine struct {
	opts options
}

// New creates an Engine. Without options it uses a DCT transform with
// DefaultBlockLen and DefaultLatentDim, a seeded k-means trainer and
// embedded zstd-compressed codebooks.
func New(optFns ...Option) (*Engine, error) {
	o, err := applyOptions(optFns)
	if err != nil {
		return nil, err
	}
	return &Engine{opts: o}, nil
}

// Transform returns the engine's latent transform.
func (e *Engine) Transform() latent.Transform {
	return e.opts.transform
}

// Compress runs the full pipeline over data. Empty input fails with
// ErrUnsupportedInput.
func (e *Engine) Compress(ctx context.Context, data []byte) (*Result, error) {
	start := time.Now()
	res, err := e.compress(ctx, data)
	err = translateError(err)

	compressed := 0
	if res != nil {
		compressed = len(res.Container)
	}
	e.opts.metricsCollector.RecordCompress(len(data), compressed, time.Since(start), err)
	e.opts.logger.LogCompress(ctx, len(data), res, err)
	if err != nil {
		return nil, err
	}
	return res, nil
}

// Decompress reconstructs the payload of a container. The output always has
// the length recorded in the container.
func (e *Engine) Decompress(ctx context.Context, data []byte, optFns ...DecompressOption) ([]byte, error) {
	var o decompressOptions
	for _, fn := range optFns {
		fn(&o)
	}

	start := time.Now()
	out, err := e.decompress(ctx, data, o)
	err = translateError(err)

	e.opts.metricsCollector.RecordDecompress(len(data), len(out), time.Since(start), err)
	e.opts.logger.LogDecompress(ctx, len(data), len(out), err)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Inspect parses and validates a container without decoding its payload.
func (e *Engine) Inspect(data []byte) (container.Header, error) {
	c, err := container.Unmarshal(data)
	if err != nil {
		return container.Header{}, translateError(err)
	}
	return c.Header, nil
}

// CompressTo compresses data and stores the container in arc. The codebook
// is stored under its fingerprint as well, so it can be resolved from the
// returned reference whatever the placement.
func (e *Engine) CompressTo(ctx context.Context, arc *archive.Archive, data []byte) (archive.Ref, *Result, error) {
	res, err := e.Compress(ctx, data)
	if err != nil {
		return 0, nil, err
	}

	if err := arc.PutCodebook(ctx, res.Codebook); err != nil {
		e.opts.logger.LogArchive(ctx, "put codebook", "", err)
		return 0, nil, translateError(err)
	}
	ref, err := arc.PutContainer(ctx, res.Container)
	e.opts.logger.LogArchive(ctx, "put container", ref.String(), err)
	if err != nil {
		return 0, nil, translateError(err)
	}
	return ref, res, nil
}

// DecompressFrom loads the container ref from arc and decompresses it.
// External codebooks are resolved from arc after any codebook or resolvers
// supplied via options.
func (e *Engine) DecompressFrom(ctx context.Context, arc *archive.Archive, ref archive.Ref, optFns ...DecompressOption) ([]byte, error) {
	data, err := arc.GetContainer(ctx, ref)
	e.opts.logger.LogArchive(ctx, "get container", ref.String(), err)
	if err != nil {
		return nil, translateError(err)
	}

	opts := append(optFns[:len(optFns):len(optFns)], WithCodebookResolver(arc))
	return e.Decompress(ctx, data, opts...)
}

// CodebookOf returns the codebook of a stored container: the embedded copy
// when present, otherwise the one archived under its fingerprint.
func CodebookOf(ctx context.Context, arc *archive.Archive, ref archive.Ref) (*codebook.Codebook, error) {
	data, err := arc.GetContainer(ctx, ref)
	if err != nil {
		return nil, translateError(err)
	}
	c, err := container.Unmarshal(data)
	if err != nil {
		return nil, translateError(err)
	}
	if c.Codebook != nil {
		return c.Codebook, nil
	}
	cb, err := arc.GetCodebook(ctx, c.Header.CodebookID)
	if err != nil {
		return nil, translateError(err)
	}
	if err := c.AttachCodebook(cb); err != nil {
		return nil, translateError(err)
	}
	return cb, nil
}

// CodebookResolver looks up codebooks by fingerprint. *archive.Archive
// implements it.
type CodebookResolver interface {
	GetCodebook(ctx context.Context, id uint64) (*codebook.Codebook, error)
}

// CodebookResolverFunc adapts a function to CodebookResolver.
type CodebookResolverFunc func(ctx context.Context, id uint64) (*codebook.Codebook, error)

// GetCodebook implements CodebookResolver.
func (f CodebookResolverFunc) GetCodebook(ctx context.Context, id uint64) (*codebook.Codebook, error) {
	return f(ctx, id)
}

type decompressOptions struct {
	codebook  *codebook.Codebook
	resolvers []CodebookResolver
}

// DecompressOption configures a Decompress call.
type DecompressOption func(*decompressOptions)

// WithCodebook supplies the codebook for an external-codebook container. If
// the container embeds its codebook, cb must match it.
func WithCodebook(cb *codebook.Codebook) DecompressOption {
	return func(o *decompressOptions) {
		o.codebook = cb
	}
}

// WithCodebookResolver adds a resolver consulted, in order, when the
// container's codebook is external and none was supplied via WithCodebook.
func WithCodebookResolver(r CodebookResolver) DecompressOption {
	return func(o *decompressOptions) {
		o.resolvers = append(o.resolvers, r)
	}
}
