package trainer

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/gramstore/internal/store"
	"github.com/hupe1980/gramstore/testutil"
)

func newStore(t *testing.T, cfg store.Config) *store.Store {
	t.Helper()
	s, err := store.New(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func coldCount(t *testing.T, s *store.Store, key []int32) int32 {
	t.Helper()
	cold, err := s.Cold(len(key))
	require.NoError(t, err)
	i, ok := cold.FindIndex(key)
	if !ok {
		return 0
	}
	return cold.Value(i)[0]
}

func TestTrainer_CountsAlternatingSequence(t *testing.T) {
	const a, b = 0, 1
	s := newStore(t, store.Config{MinOrder: 1, MaxOrder: 2, HotCapacity: 8, ColdCapacity: 8})

	tr := New(s)
	require.NoError(t, tr.Train(context.Background(), []int32{a, b, a, b}))
	require.NoError(t, s.FlushAll(context.Background()))

	assert.Equal(t, int32(2), coldCount(t, s, []int32{a}))
	assert.Equal(t, int32(2), coldCount(t, s, []int32{b}))
	assert.Equal(t, int32(2), coldCount(t, s, []int32{a, b}))
	assert.Equal(t, int32(1), coldCount(t, s, []int32{b, a}))

	cold2, err := s.Cold(2)
	require.NoError(t, err)
	assert.Equal(t, 2, cold2.Len())

	p := tr.Progress()
	assert.Equal(t, int64(4), p.Total)
	assert.Equal(t, p.Total, p.Processed)
	assert.Equal(t, 100, p.Percent())
}

func TestTrainer_SpillsIntoCold(t *testing.T) {
	rng := testutil.NewRNG(42)
	tokens := rng.ZipfTokens(2000, 12, 1.1)

	var spills atomic.Int64
	s2, err := store.New(
		store.Config{MinOrder: 1, MaxOrder: 3, HotCapacity: 5, ColdCapacity: 4096},
		store.WithSpillObserver(func(_, _, _ int, _ time.Duration, err error) {
			assert.NoError(t, err)
			spills.Add(1)
		}),
	)
	require.NoError(t, err)
	defer s2.Close()

	require.NoError(t, New(s2).Train(context.Background(), tokens))
	require.NoError(t, s2.FlushAll(context.Background()))
	assert.Positive(t, spills.Load())

	ref := testutil.CountNGrams(tokens, 1, 3)
	for n := 1; n <= 3; n++ {
		cold, err := s2.Cold(n)
		require.NoError(t, err)
		require.NoError(t, cold.CheckOrder())

		keys := ref.Keys(n)
		require.Equal(t, len(keys), cold.Len(), "order %d", n)
		for _, key := range keys {
			assert.Equal(t, ref.Count(key), coldCount(t, s2, key), "key %v", key)
		}
	}
}

func TestTrainer_CapacityExhausted(t *testing.T) {
	s := newStore(t, store.Config{MinOrder: 1, MaxOrder: 1, HotCapacity: 2, ColdCapacity: 2})

	task, err := New(s).NewTask([]int32{0, 1, 2, 3, 4, 5})
	require.NoError(t, err)

	err = task.Run(context.Background())
	require.ErrorIs(t, err, store.ErrCapacityExhausted)

	var capErr *store.CapacityError
	require.True(t, errors.As(err, &capErr))
	assert.Equal(t, 2, capErr.Capacity)

	assert.True(t, task.Done())
	done, again := task.Step(context.Background(), time.Second)
	assert.True(t, done)
	assert.Equal(t, err, again)
}

func TestTask_StepRespectsBudget(t *testing.T) {
	s := newStore(t, store.Config{MinOrder: 1, MaxOrder: 2, HotCapacity: 64, ColdCapacity: 4096})
	tokens := testutil.NewRNG(7).Tokens(500, 16)

	tr := New(s, WithSliceDuration(time.Nanosecond))
	task, err := tr.NewTask(tokens)
	require.NoError(t, err)
	assert.Equal(t, 500, task.Positions())

	done, err := task.Step(context.Background(), 0)
	require.NoError(t, err)
	assert.False(t, done)
	assert.Positive(t, task.Position())
	assert.Less(t, task.Position(), task.Positions())

	for !done {
		done, err = task.Step(context.Background(), time.Hour)
		require.NoError(t, err)
	}
	assert.Equal(t, task.Positions(), task.Position())
	assert.Equal(t, int64(500), tr.Progress().Processed)
}

func TestTask_RunCancelled(t *testing.T) {
	s := newStore(t, store.Config{MinOrder: 1, MaxOrder: 2, HotCapacity: 64, ColdCapacity: 4096})
	tokens := testutil.NewRNG(7).Tokens(1000, 16)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	yields := 0
	tr := New(s, WithSliceDuration(time.Nanosecond), WithYield(func() {
		yields++
		cancel()
	}))

	task, err := tr.NewTask(tokens)
	require.NoError(t, err)

	err = task.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, yields)
	assert.False(t, task.Done())

	p := tr.Progress()
	assert.Positive(t, p.Processed)
	assert.Less(t, p.Processed, p.Total)

	// Counts gathered before the stop are kept.
	hot, err := s.Hot(1)
	require.NoError(t, err)
	assert.Positive(t, hot.Len())
}

func TestTask_CancelledBeforeStart(t *testing.T) {
	s := newStore(t, store.Config{MinOrder: 1, MaxOrder: 1, HotCapacity: 4, ColdCapacity: 4})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	task, err := New(s).NewTask([]int32{1, 2, 3})
	require.NoError(t, err)

	done, err := task.Step(ctx, time.Second)
	assert.False(t, done)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, task.Position())
}

func TestTrainer_ShortSequence(t *testing.T) {
	s := newStore(t, store.Config{MinOrder: 3, MaxOrder: 4, HotCapacity: 4, ColdCapacity: 4})

	tr := New(s)
	task, err := tr.NewTask([]int32{1, 2})
	require.NoError(t, err)
	assert.Zero(t, task.Positions())
	assert.True(t, task.Done())
	require.NoError(t, task.Run(context.Background()))

	hot, err := s.Hot(3)
	require.NoError(t, err)
	assert.Zero(t, hot.Len())
}

func TestTrainer_CoverageAndSharedTracker(t *testing.T) {
	s := newStore(t, store.Config{MinOrder: 2, MaxOrder: 2, HotCapacity: 8, ColdCapacity: 64})

	tracker := &Tracker{}
	cov := NewCoverage()
	tr := New(s, WithTracker(tracker), WithCoverage(cov))

	require.NoError(t, tr.Train(context.Background(), []int32{5, 6, 5, 9}))
	require.NoError(t, tr.Train(context.Background(), []int32{1, 2}))

	assert.Equal(t, uint64(5), cov.Cardinality())
	for _, id := range []int32{1, 2, 5, 6, 9} {
		assert.True(t, cov.Contains(id), "id %d", id)
	}
	assert.False(t, cov.Contains(3))
	assert.False(t, cov.Contains(-1))

	assert.Equal(t, Progress{Processed: 4, Total: 4}, tracker.Snapshot())
	tracker.Reset()
	assert.Equal(t, Progress{}, tracker.Snapshot())
}
