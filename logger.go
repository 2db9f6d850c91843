package gramstore

import (
	"context"
	"io"
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with gramstore-specific context.
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
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NoopLogger creates a Logger that discards all log output.
func NoopLogger() *Logger {
	return &Logger{
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

// WithOrder adds an order field to the logger.
func (l *Logger) WithOrder(order int) *Logger {
	return &Logger{
		Logger: l.Logger.With("order", order),
	}
}

// LogTrain logs the outcome of a training run. On success the per-order
// cold sizes are logged as the resulting topology.
func (l *Logger) LogTrain(ctx context.Context, res TrainResult, tiers []TierStats, err error) {
	if err != nil {
		l.ErrorContext(ctx, "Training failed",
			"positions", res.Positions,
			"passes", res.Passes,
			"error", err,
		)
		return
	}

	l.InfoContext(ctx, "Training completed",
		"status", res.Status.String(),
		"positions", res.Positions,
		"passes", res.Passes,
		"duration", res.Duration,
	)
	for _, t := range tiers {
		l.WithOrder(t.Order).DebugContext(ctx, "Tier topology",
			"coldSize", t.ColdSize,
			"coldCapacity", t.ColdCapacity,
		)
	}
}

// LogGenerate logs the end of a generation.
func (l *Logger) LogGenerate(ctx context.Context, tokens int, status Status, err error) {
	if err != nil {
		l.ErrorContext(ctx, "Generation failed",
			"tokens", tokens,
			"error", err,
		)
		return
	}
	l.DebugContext(ctx, "Generation completed",
		"tokens", tokens,
		"status", status.String(),
	)
}
