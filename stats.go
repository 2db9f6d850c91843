package gramstore

import (
	"github.com/hupe1980/gramstore/internal/mem"
	"github.com/hupe1980/gramstore/internal/trainer"
)

// TierStats describes the fill level of one order.
type TierStats struct {
	Order        int
	HotSize      int
	HotCapacity  int
	ColdSize     int
	ColdCapacity int
}

// HotFill returns the hot table fill ratio in [0, 1].
func (t TierStats) HotFill() float64 {
	if t.HotCapacity == 0 {
		return 0
	}
	return float64(t.HotSize) / float64(t.HotCapacity)
}

// Progress is the advisory training progress.
type Progress = trainer.Progress

// Stats is a snapshot of model state.
type Stats struct {
	// Training is true while a training run holds the model. Tier fields are
	// then left empty because the tables are being written.
	Training bool

	Tiers       []TierStats
	MaxHotFill  float64
	MaxHotOrder int
	ColdRecords int

	VocabularySize int
	DistinctTokens uint64
	Progress       Progress

	// MemoryBytes is the size of the reserved table buffers.
	MemoryBytes int64
	// MaxRSSBytes is the peak resident set size of the process, or 0 if the
	// platform does not report it.
	MaxRSSBytes int64
}

// Stats returns a snapshot of the model. It never blocks.
func (m *Model) Stats() Stats {
	s := Stats{
		VocabularySize: m.tok.Size(),
		DistinctTokens: m.trainer.Coverage().Cardinality(),
		Progress:       m.tracker.Snapshot(),
	}
	if rss, ok := mem.MaxRSS(); ok {
		s.MaxRSSBytes = rss
	}

	if !m.mode.TryRLock() {
		s.Training = true
		return s
	}
	defer m.mode.RUnlock()

	s.Tiers = m.tierStats()
	s.MemoryBytes = m.store.MemoryBytes()
	for _, t := range s.Tiers {
		s.ColdRecords += t.ColdSize
		if f := t.HotFill(); f > s.MaxHotFill {
			s.MaxHotFill = f
			s.MaxHotOrder = t.Order
		}
	}
	return s
}

// tierStats must be called with the model locked.
func (m *Model) tierStats() []TierStats {
	raw := m.store.Stats()
	out := make([]TierStats, len(raw))
	for i, t := range raw {
		out[i] = TierStats{
			Order:        t.Order,
			HotSize:      t.HotSize,
			HotCapacity:  t.HotCapacity,
			ColdSize:     t.ColdSize,
			ColdCapacity: t.ColdCapacity,
		}
	}
	return out
}
