package trainer

import (
	"sync"
	"sync/atomic"

	"github.com/RoaringBitmap/roaring/v2"
)

// Progress is a point-in-time view of training progress.
type Progress struct {
	Processed int64
	Total     int64
}

// Percent returns the completed share in [0, 100].
func (p Progress) Percent() int {
	if p.Total <= 0 {
		return 0
	}
	return int(min(100, p.Processed*100/p.Total))
}

// Tracker counts processed positions across tasks. It may be read from any
// goroutine; values are advisory and may be slightly stale.
type Tracker struct {
	processed atomic.Int64
	total     atomic.Int64
}

// AddTotal registers n more positions to process.
func (t *Tracker) AddTotal(n int64) { t.total.Add(n) }

// Advance records n processed positions.
func (t *Tracker) Advance(n int64) { t.processed.Add(n) }

// Complete marks everything registered so far as processed.
func (t *Tracker) Complete() { t.processed.Store(t.total.Load()) }

// Reset zeroes both counters.
func (t *Tracker) Reset() {
	t.processed.Store(0)
	t.total.Store(0)
}

// Snapshot returns the current counters.
func (t *Tracker) Snapshot() Progress {
	return Progress{Processed: t.processed.Load(), Total: t.total.Load()}
}

// Coverage records which token ids have been observed during training.
type Coverage struct {
	mu sync.RWMutex
	rb *roaring.Bitmap
}

// NewCoverage returns an empty coverage set.
func NewCoverage() *Coverage {
	return &Coverage{rb: roaring.New()}
}

// Add marks every id in tokens as observed. Negative ids are ignored.
func (c *Coverage) Add(tokens []int32) {
	if len(tokens) == 0 {
		return
	}
	ids := make([]uint32, 0, len(tokens))
	for _, t := range tokens {
		if t >= 0 {
			ids = append(ids, uint32(t))
		}
	}

	c.mu.Lock()
	c.rb.AddMany(ids)
	c.mu.Unlock()
}

// Contains reports whether id was observed.
func (c *Coverage) Contains(id int32) bool {
	if id < 0 {
		return false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.rb.Contains(uint32(id))
}

// Cardinality returns the number of distinct observed ids.
func (c *Coverage) Cardinality() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.rb.GetCardinality()
}
