package gramstore

import (
	"log/slog"
	"time"

	"github.com/hupe1980/gramstore/internal/table"
	"github.com/hupe1980/gramstore/internal/trainer"
)

// MergePolicy decides how records with equal keys are handled when a hot
// table is spilled into its cold table.
type MergePolicy = table.Policy

const (
	// MergeSum combines equal keys by adding their counts. This is the default.
	MergeSum = table.MergeSum

	// MergeAppend keeps both records. Lookups then see only one of them.
	MergeAppend = table.MergeAppend
)

// DefaultPacing is the delay between emitted tokens of a generation.
const DefaultPacing = 10 * time.Millisecond

type options struct {
	metricsCollector     MetricsCollector
	logger               *Logger
	mergePolicy          MergePolicy
	sliceDuration        time.Duration
	pacing               time.Duration
	seed                 *uint64
	maxChars             int
	memoryLimit          int64
	maxBackgroundWorkers int
}

// Option configures a Model.
type Option func(*options)

// WithMetricsCollector configures a metrics collector for monitoring operations.
// Pass nil to disable metrics collection.
//
// Example with BasicMetricsCollector:
//
//	metrics := &gramstore.BasicMetricsCollector{}
//	m, _ := gramstore.New(cfg, gramstore.WithMetricsCollector(metrics))
//	// ... train ...
//	stats := metrics.GetStats()
//	fmt.Printf("Spills: %d, moved: %d\n", stats.SpillCount, stats.SpillMoved)
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metricsCollector = mc
	}
}

// WithLogger configures structured logging for operations.
// Pass nil to disable logging.
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = NoopLogger()
		}
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

// WithMergePolicy sets how spills treat keys present in both tiers.
func WithMergePolicy(p MergePolicy) Option {
	return func(o *options) {
		o.mergePolicy = p
	}
}

// WithSliceDuration bounds how long training runs before yielding.
func WithSliceDuration(d time.Duration) Option {
	return func(o *options) {
		o.sliceDuration = d
	}
}

// WithPacing sets the delay between emitted tokens. Zero disables pacing.
func WithPacing(d time.Duration) Option {
	return func(o *options) {
		o.pacing = d
	}
}

// WithSeed makes generation reproducible: every generation started with
// the same prompt on the same tables yields the same text.
func WithSeed(seed uint64) Option {
	return func(o *options) {
		o.seed = &seed
	}
}

// WithMaxChars caps the characters of a generation, prompt included.
func WithMaxChars(n int) Option {
	return func(o *options) {
		o.maxChars = n
	}
}

// WithMemoryLimit caps the bytes reserved for table buffers. Zero means no limit.
// Tables are reserved by the first training run; a run that cannot reserve
// them fails with ErrMemoryLimitExceeded and the next run tries again.
func WithMemoryLimit(bytes int64) Option {
	return func(o *options) {
		o.memoryLimit = bytes
	}
}

// WithMaxBackgroundWorkers bounds how many orders are flushed concurrently.
func WithMaxBackgroundWorkers(n int) Option {
	return func(o *options) {
		o.maxBackgroundWorkers = n
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		metricsCollector: NoopMetricsCollector{},
		logger:           NoopLogger(),
		mergePolicy:      MergeSum,
		sliceDuration:    trainer.DefaultSliceDuration,
		pacing:           DefaultPacing,
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	return o
}
