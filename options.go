package vqz

import (
	"fmt"
	"log/slog"
	"runtime"

	"github.com/hupe1980/vqz/codebook"
	"github.com/hupe1980/vqz/internal/compress"
	"github.com/hupe1980/vqz/latent"
	"github.com/hupe1980/vqz/quantization"
	"github.com/hupe1980/vqz/resource"
)

const (
	// DefaultBlockLen is the default number of bytes per raw block.
	DefaultBlockLen = 64

	// DefaultLatentDim is the default latent dimensionality of the DCT transform.
	DefaultLatentDim = 16

	// DefaultCodebookSize is the default maximum number of centroids.
	DefaultCodebookSize = 256
)

// Placement selects where the codebook of a container is kept.
type Placement int

const (
	// Embedded stores the codebook inside the container (default).
	Embedded Placement = iota

	// External stores only the codebook fingerprint; the codebook must be
	// supplied on decompress or kept in an archive.
	External
)

func (p Placement) String() string {
	switch p {
	case Embedded:
		return "embedded"
	case External:
		return "external"
	default:
		return fmt.Sprintf("Placement(%d)", int(p))
	}
}

// ParsePlacement parses "embedded" or "external".
func ParsePlacement(s string) (Placement, error) {
	switch s {
	case "", "embedded":
		return Embedded, nil
	case "external":
		return External, nil
	default:
		return 0, fmt.Errorf("%w: unknown codebook placement %q", ErrInvalidOptions, s)
	}
}

type options struct {
	transform          latent.Transform
	blockLen           int
	latentDim          int
	codebookSize       int
	trainer            quantization.Trainer
	seed               int64
	workers            int
	placement          Placement
	sectionCompression compress.Type
	logger             *Logger
	metricsCollector   MetricsCollector
	controller         *resource.Controller
	err                error
}

// Option configures an Engine.
type Option func(*options)

func applyOptions(optFns []Option) (options, error) {
	o := options{
		blockLen:           DefaultBlockLen,
		latentDim:          DefaultLatentDim,
		codebookSize:       DefaultCodebookSize,
		workers:            runtime.GOMAXPROCS(0),
		placement:          Embedded,
		sectionCompression: compress.Zstd,
	}
	for _, fn := range optFns {
		fn(&o)
	}
	if o.err != nil {
		return o, o.err
	}

	if o.codebookSize <= 0 || o.codebookSize > codebook.MaxSize {
		return o, fmt.Errorf("%w: codebook size %d outside [1, %d]", ErrInvalidOptions, o.codebookSize, codebook.MaxSize)
	}
	if o.workers <= 0 {
		o.workers = 1
	}
	if o.logger == nil {
		o.logger = NoopLogger()
	}
	if o.metricsCollector == nil {
		o.metricsCollector = NoopMetricsCollector{}
	}
	if o.trainer == nil {
		o.trainer = quantization.KMeansTrainer{Seed: o.seed, Workers: o.workers}
	}
	if o.transform == nil {
		t, err := latent.NewDCT(o.blockLen, o.latentDim)
		if err != nil {
			return o, fmt.Errorf("%w: %w", ErrInvalidOptions, err)
		}
		o.transform = t
	}
	return o, nil
}

// WithTransform sets the latent transform. It overrides WithBlockLen and
// WithLatentDim.
func WithTransform(t latent.Transform) Option {
	return func(o *options) {
		o.transform = t
	}
}

// WithBlockLen sets the block length L of the default DCT transform.
func WithBlockLen(n int) Option {
	return func(o *options) {
		o.blockLen = n
	}
}

// WithLatentDim sets the latent dimensionality D of the default DCT transform.
func WithLatentDim(d int) Option {
	return func(o *options) {
		o.latentDim = d
	}
}

// WithCodebookSize sets the maximum number of codebook centroids K. The
// trained codebook holds min(K, distinct latent vectors) entries.
func WithCodebookSize(k int) Option {
	return func(o *options) {
		o.codebookSize = k
	}
}

// WithTrainer replaces the default k-means codebook trainer.
func WithTrainer(t quantization.Trainer) Option {
	return func(o *options) {
		o.trainer = t
	}
}

// WithSeed sets the seed of the default k-means trainer.
func WithSeed(seed int64) Option {
	return func(o *options) {
		o.seed = seed
	}
}

// WithWorkers bounds the goroutines used for per-block work within one call.
// Defaults to GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(o *options) {
		o.workers = n
	}
}

// WithCodebookPlacement selects embedded or external codebooks.
func WithCodebookPlacement(p Placement) Option {
	return func(o *options) {
		o.placement = p
	}
}

// WithSectionCompression selects the compressor for embedded codebook
// sections: "none", "zstd" (default), "s2" or "lz4". The section is stored
// uncompressed whenever compression does not pay off.
func WithSectionCompression(name string) Option {
	return func(o *options) {
		t, err := compress.ParseType(name)
		if err != nil {
			o.err = fmt.Errorf("%w: %w", ErrInvalidOptions, err)
			return
		}
		o.sectionCompression = t
	}
}

// WithLogger configures structured logging. Pass nil to disable logging.
func WithLogger(l *Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithLogLevel installs a text logger to stderr at the given level.
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

// WithMetricsCollector configures a metrics collector for monitoring operations.
// Pass nil to disable metrics collection.
//
// Example with BasicMetricsCollector:
//
//	metrics := &vqz.BasicMetricsCollector{}
//	eng, _ := vqz.New(vqz.WithMetricsCollector(metrics))
//	// ... use engine ...
//	stats := metrics.GetStats()
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		o.metricsCollector = mc
	}
}

// WithResourceController shares a resource controller between engines.
func WithResourceController(rc *resource.Controller) Option {
	return func(o *options) {
		o.controller = rc
	}
}

// WithResourceLimits creates a dedicated resource controller.
func WithResourceLimits(cfg resource.Config) Option {
	return func(o *options) {
		o.controller = resource.NewController(cfg)
	}
}
