package vqz

import (
	"context"
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with vqz-specific context.
// This provides structured logging with consistent field names.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler.
// If handler is nil, uses default text handler to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
// level sets the minimum log level (e.g., slog.LevelDebug, slog.LevelInfo).
func NewJSONLogger(level slog.Level) *Logger {
	return NewLogger(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	return NewLogger(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}

// NoopLogger creates a Logger that discards all log output.
func NoopLogger() *Logger {
	return NewLogger(slog.DiscardHandler)
}

// WithRef adds an archive reference field to the logger.
func (l *Logger) WithRef(ref string) *Logger {
	return &Logger{
		Logger: l.Logger.With("ref", ref),
	}
}

// WithTransform adds the transform name and shape to the logger.
func (l *Logger) WithTransform(name string, blockLen, dim int) *Logger {
	return &Logger{
		Logger: l.Logger.With("transform", name, "block_len", blockLen, "dim", dim),
	}
}

// LogCompress logs a compress operation.
func (l *Logger) LogCompress(ctx context.Context, originalBytes int, res *Result, err error) {
	if err != nil {
		l.ErrorContext(ctx, "compress failed",
			"original_bytes", originalBytes,
			"error", err,
		)
		return
	}
	l.DebugContext(ctx, "compress completed",
		"original_bytes", res.Metrics.OriginalSizeBytes,
		"compressed_bytes", res.Metrics.CompressedSizeBytes,
		"ratio", res.Metrics.CompressionRatio,
		"blocks", res.Stats.Blocks,
		"k", res.Stats.K,
		"effective_k", res.Stats.EffectiveK,
		"max_code_len", res.Stats.MaxCodeLen,
		"duration", res.Stats.TotalDuration,
	)
}

// LogDecompress logs a decompress operation.
func (l *Logger) LogDecompress(ctx context.Context, compressedBytes, originalBytes int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "decompress failed",
			"compressed_bytes", compressedBytes,
			"error", err,
		)
		return
	}
	l.DebugContext(ctx, "decompress completed",
		"compressed_bytes", compressedBytes,
		"original_bytes", originalBytes,
	)
}

// LogArchive logs an archive store or load.
func (l *Logger) LogArchive(ctx context.Context, op, ref string, err error) {
	if err != nil {
		l.ErrorContext(ctx, "archive "+op+" failed",
			"ref", ref,
			"error", err,
		)
		return
	}
	l.InfoContext(ctx, "archive "+op+" completed",
		"ref", ref,
	)
}
