package gramstore

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hupe1980/gramstore/internal/resource"
	"github.com/hupe1980/gramstore/internal/sampler"
	"github.com/hupe1980/gramstore/internal/store"
	"github.com/hupe1980/gramstore/internal/trainer"
	"github.com/hupe1980/gramstore/tokenizer"
)

// TrainStatus is the outcome of a training run.
type TrainStatus uint8

const (
	// TrainCompleted means every position of every pass was processed.
	TrainCompleted TrainStatus = iota
	// TrainStopped means the context was cancelled. Counts gathered so far are kept.
	TrainStopped
)

func (s TrainStatus) String() string {
	switch s {
	case TrainCompleted:
		return "completed"
	case TrainStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// TrainResult summarizes a training run.
type TrainResult struct {
	Status    TrainStatus
	Passes    int
	Positions int64
	Duration  time.Duration
}

// Model is an n-gram model over the text it was trained on.
//
// Train and TrainText hold the model exclusively; generations share it.
// All methods are safe for concurrent use.
type Model struct {
	cfg     Config
	opts    options
	tok     *tokenizer.Tokenizer
	rc      *resource.Controller
	store   *store.Store
	trainer *trainer.Trainer
	sampler *sampler.Sampler
	tracker *trainer.Tracker

	mode   sync.RWMutex
	closed atomic.Bool
}

// New creates a model with the given shape. Tables are allocated on the
// first training run.
func New(cfg Config, optFns ...Option) (*Model, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	opts := applyOptions(optFns)

	tok, err := tokenizer.New(cfg.TokenWidth)
	if err != nil {
		return nil, translateError(err)
	}

	rc := resource.NewController(resource.Config{
		MemoryLimitBytes:     opts.memoryLimit,
		MaxBackgroundWorkers: opts.maxBackgroundWorkers,
	})

	m := &Model{
		cfg:     cfg,
		opts:    opts,
		tok:     tok,
		rc:      rc,
		tracker: &trainer.Tracker{},
	}

	st, err := store.New(cfg.storeConfig(),
		store.WithLogger(opts.logger.Logger),
		store.WithResourceController(rc),
		store.WithMergePolicy(opts.mergePolicy),
		store.WithSpillObserver(m.observeSpill),
	)
	if err != nil {
		return nil, translateError(err)
	}
	m.store = st

	m.trainer = trainer.New(st,
		trainer.WithLogger(opts.logger.Logger),
		trainer.WithSliceDuration(opts.sliceDuration),
		trainer.WithTracker(m.tracker),
	)

	samplerOpts := []sampler.Option{
		sampler.WithLogger(opts.logger.Logger),
		sampler.WithPacing(opts.pacing),
		sampler.WithMaxChars(opts.maxChars),
	}
	if opts.seed != nil {
		samplerOpts = append(samplerOpts, sampler.WithSeed(*opts.seed))
	}
	m.sampler = sampler.New(st, tok, samplerOpts...)

	return m, nil
}

// Config returns the model shape.
func (m *Model) Config() Config { return m.cfg }

// Tokenizer returns the model's tokenizer. Token ids passed to Train must
// come from it.
func (m *Model) Tokenizer() *tokenizer.Tokenizer { return m.tok }

// TrainText tokenizes text once per phase offset (dropping the first p
// characters for p in 0..TokenWidth-1) and trains on every pass, so chunks
// aligned to any character position are counted.
func (m *Model) TrainText(ctx context.Context, text string) (TrainResult, error) {
	return m.train(ctx, func() [][]int32 {
		return m.tok.TokenizePhases(text)
	})
}

// Train counts the n-grams of one token sequence.
func (m *Model) Train(ctx context.Context, tokens []int32) (TrainResult, error) {
	return m.train(ctx, func() [][]int32 {
		return [][]int32{tokens}
	})
}

func (m *Model) train(ctx context.Context, passes func() [][]int32) (res TrainResult, err error) {
	if m.closed.Load() {
		return res, ErrClosed
	}
	if !m.mode.TryLock() {
		return res, ErrBusy
	}
	defer m.mode.Unlock()

	start := time.Now()
	defer func() {
		res.Duration = time.Since(start)
		err = translateError(err)
		m.opts.metricsCollector.RecordTrain(res.Positions, res.Duration, err)
		var tiers []TierStats
		if err == nil {
			tiers = m.tierStats()
		}
		m.opts.logger.LogTrain(ctx, res, tiers, err)
	}()

	seqs := passes()
	tasks := make([]*trainer.Task, 0, len(seqs))
	for _, seq := range seqs {
		task, err := m.trainer.NewTask(seq)
		if err != nil {
			return res, err
		}
		tasks = append(tasks, task)
	}

	for _, task := range tasks {
		err := task.Run(ctx)
		res.Positions += int64(task.Position())
		if err != nil {
			if cerr := ctx.Err(); cerr == nil || !errors.Is(err, cerr) {
				return res, err
			}
			res.Status = TrainStopped
			break
		}
		res.Passes++
	}

	// The sampler only reads cold tables, so whatever was gathered is flushed,
	// even when the run was stopped.
	if err := m.store.FlushAll(context.WithoutCancel(ctx)); err != nil {
		return res, fmt.Errorf("finalize: %w", err)
	}
	return res, nil
}

// Generate starts a generation from prompt. The generation shares the model
// with other generations and blocks training until it ends or is closed.
//
// A prompt chunk the tokenizer never produced yields an *ErrUnresolvedChunk.
// A prompt too short for the minimum order is not an error: the returned
// generation has already ended with StatusPromptTooShort.
func (m *Model) Generate(ctx context.Context, prompt string) (*Generation, error) {
	if m.closed.Load() {
		return nil, ErrClosed
	}
	if !m.mode.TryRLock() {
		return nil, ErrBusy
	}

	sess, err := m.sampler.Start(ctx, prompt)
	if err != nil {
		m.mode.RUnlock()
		err = translateError(err)
		m.opts.logger.LogGenerate(ctx, 0, StatusStopped, err)
		return nil, err
	}

	g := &Generation{
		m:     m,
		ctx:   ctx,
		sess:  sess,
		start: time.Now(),
	}
	if sess.Done() {
		g.release()
	}
	return g, nil
}

// Close releases the tables. It fails with ErrBusy while a training run or
// generation is active.
func (m *Model) Close() error {
	if !m.mode.TryLock() {
		return ErrBusy
	}
	defer m.mode.Unlock()

	if m.closed.Swap(true) {
		return nil
	}
	return m.store.Close()
}

func (m *Model) observeSpill(order, moved, _ int, d time.Duration, err error) {
	m.opts.metricsCollector.RecordSpill(order, moved, d, err)
}
