package store

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/gramstore/internal/resource"
	"github.com/hupe1980/gramstore/internal/table"
)

// ValueWidth is the number of value columns per record: the counter and one reserved column.
const ValueWidth = 2

// Config describes the tier layout.
type Config struct {
	MinOrder     int
	MaxOrder     int
	HotCapacity  int
	ColdCapacity int
}

// Validate checks the order range and capacities.
func (c Config) Validate() error {
	if c.MinOrder < 1 || c.MaxOrder < c.MinOrder {
		return fmt.Errorf("%w: [%d, %d]", ErrOrderOutOfRange, c.MinOrder, c.MaxOrder)
	}
	if c.HotCapacity <= 0 || c.ColdCapacity <= 0 {
		return fmt.Errorf("%w: hot=%d cold=%d", table.ErrInvalidLayout, c.HotCapacity, c.ColdCapacity)
	}
	return nil
}

// SpillObserver is notified after every spill attempt. It may be called from
// several goroutines at once during FlushAll.
type SpillObserver func(order, moved, combined int, duration time.Duration, err error)

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		s.logger = l
	}
}

// WithResourceController reserves table memory against rc.
func WithResourceController(rc *resource.Controller) Option {
	return func(s *Store) {
		s.rc = rc
	}
}

// WithMergePolicy selects how equal keys are treated when a hot tier is spilled.
func WithMergePolicy(p table.Policy) Option {
	return func(s *Store) {
		s.policy = p
	}
}

// WithSpillObserver registers a callback invoked after every spill.
func WithSpillObserver(fn SpillObserver) Option {
	return func(s *Store) {
		s.onSpill = fn
	}
}

type tier struct {
	hot  *table.Table
	cold *table.Table
}

// Store owns one hot and one cold table per order.
//
// A Store does not synchronize table access; callers serialize writers
// against readers.
type Store struct {
	cfg      Config
	policy   table.Policy
	rc       *resource.Controller
	logger   *slog.Logger
	onSpill  SpillObserver
	initMu   sync.Mutex
	reserved int64
	tiers    []tier
}

// New returns a store for the given layout. Tables are not allocated until Init.
func New(cfg Config, opts ...Option) (*Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	s := &Store{
		cfg:    cfg,
		policy: table.MergeSum,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Config returns the tier layout.
func (s *Store) Config() Config { return s.cfg }

// Policy returns the merge policy used for spills.
func (s *Store) Policy() table.Policy { return s.policy }

// Init allocates the tables of every order. It is a no-op once the tables
// exist. A failed allocation reserves nothing, so a later call tries again,
// for example after another store on the same controller released its budget.
func (s *Store) Init() error {
	s.initMu.Lock()
	defer s.initMu.Unlock()

	if s.tiers != nil {
		return nil
	}
	return s.allocate()
}

// Initialized reports whether the tables have been allocated.
func (s *Store) Initialized() bool {
	return s.tiers != nil
}

func (s *Store) allocate() error {
	var (
		orders = s.cfg.MaxOrder - s.cfg.MinOrder + 1
		tiers  = make([]tier, 0, orders)
		need   int64
	)
	for n := s.cfg.MinOrder; n <= s.cfg.MaxOrder; n++ {
		need += table.BufferBytes(s.cfg.HotCapacity, n, ValueWidth)
		need += table.BufferBytes(s.cfg.ColdCapacity, n, ValueWidth)
	}
	if err := s.rc.AcquireMemory(need); err != nil {
		return fmt.Errorf("reserve %d bytes for %d orders: %w", need, orders, err)
	}

	for n := s.cfg.MinOrder; n <= s.cfg.MaxOrder; n++ {
		hot, err := table.New(s.cfg.HotCapacity, n, ValueWidth)
		if err != nil {
			s.rc.ReleaseMemory(need)
			return err
		}
		cold, err := table.New(s.cfg.ColdCapacity, n, ValueWidth)
		if err != nil {
			s.rc.ReleaseMemory(need)
			return err
		}
		tiers = append(tiers, tier{hot: hot, cold: cold})
	}

	s.reserved = need
	s.tiers = tiers
	s.logger.Info("Tiers allocated",
		"minOrder", s.cfg.MinOrder,
		"maxOrder", s.cfg.MaxOrder,
		"hotCapacity", s.cfg.HotCapacity,
		"coldCapacity", s.cfg.ColdCapacity,
		"bytes", need,
	)
	return nil
}

// Close releases the memory reservation. The store must not be used afterwards.
func (s *Store) Close() error {
	if s.reserved > 0 {
		s.rc.ReleaseMemory(s.reserved)
		s.reserved = 0
	}
	s.tiers = nil
	return nil
}

func (s *Store) tier(order int) (tier, error) {
	if s.tiers == nil {
		return tier{}, ErrNotInitialized
	}
	if order < s.cfg.MinOrder || order > s.cfg.MaxOrder {
		return tier{}, fmt.Errorf("%w: %d not in [%d, %d]", ErrOrderOutOfRange, order, s.cfg.MinOrder, s.cfg.MaxOrder)
	}
	return s.tiers[order-s.cfg.MinOrder], nil
}

// Hot returns the hot table of the given order.
func (s *Store) Hot(order int) (*table.Table, error) {
	t, err := s.tier(order)
	return t.hot, err
}

// Cold returns the cold table of the given order.
func (s *Store) Cold(order int) (*table.Table, error) {
	t, err := s.tier(order)
	return t.cold, err
}

// Spill merges the hot table of the given order into its cold table.
// On a capacity error neither table is modified.
func (s *Store) Spill(order int) error {
	t, err := s.tier(order)
	if err != nil {
		return err
	}
	return s.spill(order, t)
}

func (s *Store) spill(order int, t tier) error {
	start := time.Now()
	hotSize := t.hot.Len()
	res, err := table.Merge(t.hot, t.cold, s.policy)
	if s.onSpill != nil {
		s.onSpill(order, res.Moved, res.Combined, time.Since(start), err)
	}
	if err != nil {
		s.logger.Error("Spill failed", "order", order, "hotSize", hotSize, "coldSize", t.cold.Len(), "error", err)
		return fmt.Errorf("spill order %d: %w", order, err)
	}
	s.logger.Debug("Spill completed",
		"order", order,
		"moved", res.Moved,
		"combined", res.Combined,
		"coldSize", t.cold.Len(),
		"duration", time.Since(start),
	)
	return nil
}

// FlushAll spills every non-empty hot table. Orders are independent, so their
// merges run concurrently, bounded by the resource controller's worker limit.
func (s *Store) FlushAll(ctx context.Context) error {
	if s.tiers == nil {
		return nil
	}

	start := time.Now()
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.rc.MaxBackgroundWorkers())

	flushed := 0
	for i, t := range s.tiers {
		if t.hot.Len() == 0 {
			continue
		}
		flushed++
		order := s.cfg.MinOrder + i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			return s.spill(order, t)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	s.logger.Info("Flush completed", "orders", flushed, "duration", time.Since(start))
	return nil
}

// TierStats describes the fill level of one order.
type TierStats struct {
	Order        int
	HotSize      int
	HotCapacity  int
	ColdSize     int
	ColdCapacity int
}

// Stats returns the fill level of every order, lowest order first.
func (s *Store) Stats() []TierStats {
	out := make([]TierStats, 0, len(s.tiers))
	for i, t := range s.tiers {
		out = append(out, TierStats{
			Order:        s.cfg.MinOrder + i,
			HotSize:      t.hot.Len(),
			HotCapacity:  t.hot.Cap(),
			ColdSize:     t.cold.Len(),
			ColdCapacity: t.cold.Cap(),
		})
	}
	return out
}

// MemoryBytes returns the bytes reserved for table buffers.
func (s *Store) MemoryBytes() int64 {
	return s.reserved
}
