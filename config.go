package vqz

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/hupe1980/vqz/codec"
	"github.com/hupe1980/vqz/latent"
	"github.com/hupe1980/vqz/quantization"
	"github.com/hupe1980/vqz/resource"
)

// Config is the file form of the engine options. Zero values keep the
// defaults.
//
// Example (YAML):
//
//	transform: dct
//	block_len: 64
//	latent_dim: 16
//	codebook_size: 256
//	seed: 42
//	codebook_placement: external
//	section_compression: zstd
//	log_level: debug
//	resources:
//	  max_concurrent_jobs: 4
type Config struct {
	// Transform is "dct" (default), "identity" or "linear". A linear
	// transform loads its weights from TransformParams, decoded with the
	// codec named by TransformParamsCodec ("json", "go-json" or "yaml") or,
	// when empty, the one matching the file extension.
	Transform            string `json:"transform,omitempty" yaml:"transform,omitempty"`
	TransformParams      string `json:"transform_params,omitempty" yaml:"transform_params,omitempty"`
	TransformParamsCodec string `json:"transform_params_codec,omitempty" yaml:"transform_params_codec,omitempty"`

	BlockLen     int   `json:"block_len,omitempty" yaml:"block_len,omitempty"`
	LatentDim    int   `json:"latent_dim,omitempty" yaml:"latent_dim,omitempty"`
	CodebookSize int   `json:"codebook_size,omitempty" yaml:"codebook_size,omitempty"`
	Seed         int64 `json:"seed,omitempty" yaml:"seed,omitempty"`
	MaxIter      int   `json:"max_iter,omitempty" yaml:"max_iter,omitempty"`
	SampleSize   int   `json:"sample_size,omitempty" yaml:"sample_size,omitempty"`
	Workers      int   `json:"workers,omitempty" yaml:"workers,omitempty"`

	CodebookPlacement  string `json:"codebook_placement,omitempty" yaml:"codebook_placement,omitempty"`
	SectionCompression string `json:"section_compression,omitempty" yaml:"section_compression,omitempty"`

	// LogLevel is "debug", "info", "warn" or "error". Empty disables logging.
	LogLevel string `json:"log_level,omitempty" yaml:"log_level,omitempty"`

	Resources ResourceConfig `json:"resources,omitempty" yaml:"resources,omitempty"`
}

// ResourceConfig mirrors resource.Config.
type ResourceConfig struct {
	MaxConcurrentJobs  int64 `json:"max_concurrent_jobs,omitempty" yaml:"max_concurrent_jobs,omitempty"`
	MemoryLimitBytes   int64 `json:"memory_limit_bytes,omitempty" yaml:"memory_limit_bytes,omitempty"`
	IOLimitBytesPerSec int64 `json:"io_limit_bytes_per_sec,omitempty" yaml:"io_limit_bytes_per_sec,omitempty"`
}

func (r ResourceConfig) isZero() bool {
	return r == ResourceConfig{}
}

// LoadConfig reads a configuration file. Files ending in .yaml or .yml are
// parsed as YAML, everything else as JSON.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg, err := ParseConfig(data, codec.ForPath(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// ParseConfig decodes a configuration with c (codec.Default when nil).
func ParseConfig(data []byte, c codec.Codec) (*Config, error) {
	if c == nil {
		c = codec.Default
	}
	var cfg Config
	if err := c.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("%w: decode %s config: %v", ErrInvalidOptions, c.Name(), err)
	}
	return &cfg, nil
}

// Options converts the configuration into engine options.
func (c *Config) Options() ([]Option, error) {
	var opts []Option

	blockLen := c.BlockLen
	if blockLen == 0 {
		blockLen = DefaultBlockLen
	}
	if c.BlockLen != 0 {
		opts = append(opts, WithBlockLen(c.BlockLen))
	}
	if c.LatentDim != 0 {
		opts = append(opts, WithLatentDim(c.LatentDim))
	}

	switch strings.ToLower(c.Transform) {
	case "", "dct":
	case "identity":
		t, err := latent.NewIdentity(blockLen)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidOptions, err)
		}
		opts = append(opts, WithTransform(t))
	case "linear":
		if c.TransformParams == "" {
			return nil, fmt.Errorf("%w: linear transform requires transform_params", ErrInvalidOptions)
		}
		t, err := c.openLinear()
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidOptions, err)
		}
		opts = append(opts, WithTransform(t))
	default:
		return nil, fmt.Errorf("%w: unknown transform %q", ErrInvalidOptions, c.Transform)
	}

	if c.CodebookSize != 0 {
		opts = append(opts, WithCodebookSize(c.CodebookSize))
	}
	if c.MaxIter != 0 || c.SampleSize != 0 {
		opts = append(opts, WithTrainer(quantization.KMeansTrainer{
			Seed:       c.Seed,
			MaxIter:    c.MaxIter,
			SampleSize: c.SampleSize,
			Workers:    c.Workers,
		}))
	} else if c.Seed != 0 {
		opts = append(opts, WithSeed(c.Seed))
	}
	if c.Workers != 0 {
		opts = append(opts, WithWorkers(c.Workers))
	}

	placement, err := ParsePlacement(strings.ToLower(c.CodebookPlacement))
	if err != nil {
		return nil, err
	}
	opts = append(opts, WithCodebookPlacement(placement))

	if c.SectionCompression != "" {
		opts = append(opts, WithSectionCompression(strings.ToLower(c.SectionCompression)))
	}

	if c.LogLevel != "" {
		var level slog.Level
		if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
			return nil, fmt.Errorf("%w: log level: %w", ErrInvalidOptions, err)
		}
		opts = append(opts, WithLogLevel(level))
	}

	if !c.Resources.isZero() {
		opts = append(opts, WithResourceLimits(resource.Config{
			MaxConcurrentJobs:  c.Resources.MaxConcurrentJobs,
			MemoryLimitBytes:   c.Resources.MemoryLimitBytes,
			IOLimitBytesPerSec: c.Resources.IOLimitBytesPerSec,
		}))
	}
	return opts, nil
}

func (c *Config) openLinear() (*latent.Linear, error) {
	if c.TransformParamsCodec == "" {
		return latent.OpenLinear(c.TransformParams)
	}
	pc, ok := codec.ByName(strings.ToLower(c.TransformParamsCodec))
	if !ok {
		return nil, fmt.Errorf("unknown transform_params_codec %q", c.TransformParamsCodec)
	}
	f, err := os.Open(c.TransformParams)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	p, err := latent.LoadParams(f, pc)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", c.TransformParams, err)
	}
	return latent.NewLinear(p)
}
