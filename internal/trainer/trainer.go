package trainer

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"time"

	"github.com/hupe1980/gramstore/internal/store"
	"github.com/hupe1980/gramstore/internal/table"
)

// DefaultSliceDuration bounds how long a single Step may run.
const DefaultSliceDuration = 50 * time.Millisecond

// Option configures a Trainer.
type Option func(*Trainer)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(t *Trainer) {
		t.logger = l
	}
}

// WithSliceDuration sets the time budget of one slice.
func WithSliceDuration(d time.Duration) Option {
	return func(t *Trainer) {
		if d > 0 {
			t.slice = d
		}
	}
}

// WithYield replaces the function Run calls between slices.
// The default is runtime.Gosched.
func WithYield(fn func()) Option {
	return func(t *Trainer) {
		if fn != nil {
			t.yield = fn
		}
	}
}

// WithTracker shares a progress tracker with the host.
func WithTracker(tr *Tracker) Option {
	return func(t *Trainer) {
		if tr != nil {
			t.progress = tr
		}
	}
}

// WithCoverage shares a token coverage set with the host.
func WithCoverage(c *Coverage) Option {
	return func(t *Trainer) {
		if c != nil {
			t.coverage = c
		}
	}
}

// Trainer counts n-grams into a store. It is the only writer of the store's
// tables; callers must not run two tasks at once.
type Trainer struct {
	store    *store.Store
	slice    time.Duration
	yield    func()
	progress *Tracker
	coverage *Coverage
	logger   *slog.Logger
}

// New returns a trainer writing into s.
func New(s *store.Store, opts ...Option) *Trainer {
	t := &Trainer{
		store:    s,
		slice:    DefaultSliceDuration,
		yield:    runtime.Gosched,
		progress: &Tracker{},
		coverage: NewCoverage(),
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Progress returns the shared progress counters.
func (t *Trainer) Progress() Progress { return t.progress.Snapshot() }

// Coverage returns the observed token set.
func (t *Trainer) Coverage() *Coverage { return t.coverage }

// NewTask prepares a run over tokens. It allocates the store's tables on first use.
func (t *Trainer) NewTask(tokens []int32) (*Task, error) {
	if err := t.store.Init(); err != nil {
		return nil, err
	}

	cfg := t.store.Config()
	hot := make([]*table.Table, 0, cfg.MaxOrder-cfg.MinOrder+1)
	for n := cfg.MinOrder; n <= cfg.MaxOrder; n++ {
		h, err := t.store.Hot(n)
		if err != nil {
			return nil, err
		}
		hot = append(hot, h)
	}

	positions := max(0, len(tokens)-cfg.MinOrder+1)
	t.progress.AddTotal(int64(positions))

	return &Task{
		tr:        t,
		tokens:    tokens,
		positions: positions,
		minOrder:  cfg.MinOrder,
		maxOrder:  cfg.MaxOrder,
		hot:       hot,
		value:     []int32{1, 0},
	}, nil
}

// Train runs a task over tokens to completion or cancellation.
func (t *Trainer) Train(ctx context.Context, tokens []int32) error {
	task, err := t.NewTask(tokens)
	if err != nil {
		return err
	}
	return task.Run(ctx)
}

// Task is one training run over a token sequence.
type Task struct {
	tr        *Trainer
	tokens    []int32
	positions int
	pos       int
	minOrder  int
	maxOrder  int
	hot       []*table.Table
	value     []int32
	err       error
}

// Done reports whether every position has been processed or the task failed.
func (k *Task) Done() bool {
	return k.err != nil || k.pos >= k.positions
}

// Position returns the number of processed start positions.
func (k *Task) Position() int { return k.pos }

// Positions returns the number of start positions in the sequence.
func (k *Task) Positions() int { return k.positions }

// Step processes positions until budget has elapsed, the sequence is
// exhausted or ctx is done. A non-positive budget uses the trainer's slice
// duration. It returns true once the task is finished.
//
// A failed task keeps returning its error.
func (k *Task) Step(ctx context.Context, budget time.Duration) (bool, error) {
	if k.err != nil {
		return true, k.err
	}
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if budget <= 0 {
		budget = k.tr.slice
	}

	start := time.Now()
	from := k.pos
	defer func() {
		k.tr.progress.Advance(int64(k.pos - from))
		k.tr.coverage.Add(k.tokens[from:k.pos])
	}()

	for k.pos < k.positions {
		if err := ctx.Err(); err != nil {
			return false, err
		}
		if err := k.observe(k.pos); err != nil {
			k.err = err
			return true, err
		}
		k.pos++
		if time.Since(start) >= budget {
			break
		}
	}

	if k.pos >= k.positions {
		// Tokens past the last start position still belong to counted n-grams.
		k.tr.coverage.Add(k.tokens[k.pos:])
		return true, nil
	}
	return false, nil
}

// Run steps the task to completion, yielding between slices. It returns
// ctx.Err() if cancelled; counts gathered before that remain in the store.
func (k *Task) Run(ctx context.Context) error {
	start := time.Now()
	k.tr.logger.Debug("Training started", "tokens", len(k.tokens), "positions", k.positions)

	for {
		done, err := k.Step(ctx, 0)
		if err != nil {
			k.tr.logger.Info("Training interrupted", "positions", k.pos, "error", err)
			return err
		}
		if done {
			break
		}
		k.tr.yield()
	}

	k.tr.logger.Debug("Training completed", "positions", k.pos, "duration", time.Since(start))
	return nil
}

// observe counts every n-gram starting at position i.
func (k *Task) observe(i int) error {
	for n := k.minOrder; n <= k.maxOrder && i+n <= len(k.tokens); n++ {
		key := k.tokens[i : i+n]
		hot := k.hot[n-k.minOrder]

		if hot.FindAndIncrement(key, 1) {
			continue
		}
		if hot.IsFull() {
			if err := k.tr.store.Spill(n); err != nil {
				return err
			}
		}
		if !hot.Insert(key, k.value) {
			return fmt.Errorf("%w: order %d", store.ErrInsertionFailed, n)
		}
	}
	return nil
}
