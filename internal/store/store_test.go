package store

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/gramstore/internal/resource"
	"github.com/hupe1980/gramstore/internal/table"
)

func testConfig() Config {
	return Config{MinOrder: 1, MaxOrder: 3, HotCapacity: 4, ColdCapacity: 16}
}

func TestConfig_Validate(t *testing.T) {
	require.NoError(t, testConfig().Validate())

	for _, cfg := range []Config{
		{MinOrder: 0, MaxOrder: 2, HotCapacity: 1, ColdCapacity: 1},
		{MinOrder: 3, MaxOrder: 2, HotCapacity: 1, ColdCapacity: 1},
	} {
		assert.ErrorIs(t, cfg.Validate(), ErrOrderOutOfRange)
	}

	bad := testConfig()
	bad.HotCapacity = 0
	assert.ErrorIs(t, bad.Validate(), table.ErrInvalidLayout)

	_, err := New(bad)
	assert.Error(t, err)
}

func TestStore_LazyInit(t *testing.T) {
	s, err := New(testConfig())
	require.NoError(t, err)
	assert.False(t, s.Initialized())

	_, err = s.Hot(1)
	assert.ErrorIs(t, err, ErrNotInitialized)

	require.NoError(t, s.Init())
	require.NoError(t, s.Init())
	assert.True(t, s.Initialized())

	for n := 1; n <= 3; n++ {
		hot, err := s.Hot(n)
		require.NoError(t, err)
		cold, err := s.Cold(n)
		require.NoError(t, err)

		assert.Equal(t, n, hot.KeyWidth())
		assert.Equal(t, ValueWidth, hot.ValueWidth())
		assert.Equal(t, 4, hot.Cap())
		assert.Equal(t, n, cold.KeyWidth())
		assert.Equal(t, 16, cold.Cap())
	}

	_, err = s.Cold(4)
	assert.ErrorIs(t, err, ErrOrderOutOfRange)
	_, err = s.Cold(0)
	assert.ErrorIs(t, err, ErrOrderOutOfRange)
}

func TestStore_MemoryBudget(t *testing.T) {
	cfg := testConfig()
	var need int64
	for n := cfg.MinOrder; n <= cfg.MaxOrder; n++ {
		need += table.BufferBytes(cfg.HotCapacity, n, ValueWidth) + table.BufferBytes(cfg.ColdCapacity, n, ValueWidth)
	}

	rc := resource.NewController(resource.Config{MemoryLimitBytes: need - 1})
	s, err := New(cfg, WithResourceController(rc))
	require.NoError(t, err)
	err = s.Init()
	assert.ErrorIs(t, err, resource.ErrMemoryLimitExceeded)
	assert.Zero(t, rc.MemoryUsage())

	rc = resource.NewController(resource.Config{MemoryLimitBytes: need})
	s, err = New(cfg, WithResourceController(rc))
	require.NoError(t, err)
	require.NoError(t, s.Init())
	assert.Equal(t, need, rc.MemoryUsage())
	assert.Equal(t, need, s.MemoryBytes())

	require.NoError(t, s.Close())
	assert.Zero(t, rc.MemoryUsage())
}

func TestStore_InitRetriesAfterMemoryLimit(t *testing.T) {
	cfg := testConfig()
	var need int64
	for n := cfg.MinOrder; n <= cfg.MaxOrder; n++ {
		need += table.BufferBytes(cfg.HotCapacity, n, ValueWidth) + table.BufferBytes(cfg.ColdCapacity, n, ValueWidth)
	}

	rc := resource.NewController(resource.Config{MemoryLimitBytes: need})
	first, err := New(cfg, WithResourceController(rc))
	require.NoError(t, err)
	second, err := New(cfg, WithResourceController(rc))
	require.NoError(t, err)

	require.NoError(t, first.Init())
	require.ErrorIs(t, second.Init(), resource.ErrMemoryLimitExceeded)
	assert.False(t, second.Initialized())

	require.NoError(t, first.Close())
	require.NoError(t, second.Init())
	assert.True(t, second.Initialized())
	assert.Equal(t, need, rc.MemoryUsage())

	require.NoError(t, second.Init(), "init is idempotent")
	assert.Equal(t, need, rc.MemoryUsage())
}

func TestStore_Spill(t *testing.T) {
	var (
		mu    sync.Mutex
		calls []int
	)
	s, err := New(testConfig(), WithSpillObserver(func(order, moved, combined int, _ time.Duration, err error) {
		mu.Lock()
		defer mu.Unlock()
		calls = append(calls, order, moved, combined)
	}))
	require.NoError(t, err)
	require.NoError(t, s.Init())

	hot, _ := s.Hot(2)
	cold, _ := s.Cold(2)
	require.True(t, hot.Insert([]int32{1, 2}, []int32{2, 0}))
	require.True(t, hot.Insert([]int32{3, 4}, []int32{1, 0}))
	require.True(t, cold.Insert([]int32{1, 2}, []int32{5, 0}))

	require.NoError(t, s.Spill(2))
	assert.Zero(t, hot.Len())
	assert.Equal(t, 2, cold.Len())
	i, ok := cold.FindIndex([]int32{1, 2})
	require.True(t, ok)
	assert.Equal(t, int32(7), cold.Value(i)[0])
	assert.Equal(t, []int{2, 2, 1}, calls)
}

func TestStore_SpillCapacityExhausted(t *testing.T) {
	cfg := Config{MinOrder: 1, MaxOrder: 1, HotCapacity: 4, ColdCapacity: 4}
	s, err := New(cfg)
	require.NoError(t, err)
	require.NoError(t, s.Init())

	hot, _ := s.Hot(1)
	cold, _ := s.Cold(1)
	for k := range int32(3) {
		require.True(t, cold.Insert([]int32{k}, []int32{1, 0}))
	}
	for k := range int32(2) {
		require.True(t, hot.Insert([]int32{10 + k}, []int32{1, 0}))
	}

	err = s.Spill(1)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCapacityExhausted)
	var ce *CapacityError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, 4, ce.Capacity)
	assert.Equal(t, 2, hot.Len())
	assert.Equal(t, 3, cold.Len())
}

func TestStore_MergeAppendPolicy(t *testing.T) {
	s, err := New(testConfig(), WithMergePolicy(table.MergeAppend))
	require.NoError(t, err)
	require.NoError(t, s.Init())
	assert.Equal(t, table.MergeAppend, s.Policy())

	hot, _ := s.Hot(1)
	cold, _ := s.Cold(1)
	require.True(t, hot.Insert([]int32{1}, []int32{1, 0}))
	require.True(t, cold.Insert([]int32{1}, []int32{1, 0}))
	require.NoError(t, s.Spill(1))
	assert.Equal(t, 2, cold.Len())
}

func TestStore_FlushAll(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	rc := resource.NewController(resource.Config{MaxBackgroundWorkers: 2})

	s, err := New(testConfig(), WithLogger(logger), WithResourceController(rc))
	require.NoError(t, err)
	require.NoError(t, s.FlushAll(t.Context()), "flushing before init is a no-op")
	require.NoError(t, s.Init())

	for n := 1; n <= 3; n++ {
		hot, _ := s.Hot(n)
		key := make([]int32, n)
		for c := range key {
			key[c] = int32(c)
		}
		require.True(t, hot.Insert(key, []int32{1, 0}))
	}

	require.NoError(t, s.FlushAll(t.Context()))
	for _, st := range s.Stats() {
		assert.Zero(t, st.HotSize, "order %d", st.Order)
		assert.Equal(t, 1, st.ColdSize, "order %d", st.Order)
		assert.Equal(t, 4, st.HotCapacity)
		assert.Equal(t, 16, st.ColdCapacity)
	}
	assert.Contains(t, buf.String(), "Tiers allocated")
	assert.Contains(t, buf.String(), "Flush completed")
	assert.Contains(t, buf.String(), `"orders":3`)
}

func TestStore_FlushAllCancelled(t *testing.T) {
	s, err := New(testConfig())
	require.NoError(t, err)
	require.NoError(t, s.Init())

	hot, _ := s.Hot(1)
	require.True(t, hot.Insert([]int32{1}, []int32{1, 0}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, s.FlushAll(ctx), context.Canceled)
	assert.Equal(t, 1, hot.Len())
}
