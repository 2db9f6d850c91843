package gramstore

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems like Prometheus.
type MetricsCollector interface {
	// RecordTrain is called after each training run.
	// positions is the number of start positions processed.
	RecordTrain(positions int64, duration time.Duration, err error)

	// RecordSpill is called after every hot-to-cold merge, including the
	// final flush of a training run.
	RecordSpill(order, moved int, duration time.Duration, err error)

	// RecordGenerate is called when a generation ends.
	RecordGenerate(tokens int, status Status, duration time.Duration)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordTrain(int64, time.Duration, error)    {}
func (NoopMetricsCollector) RecordSpill(int, int, time.Duration, error) {}
func (NoopMetricsCollector) RecordGenerate(int, Status, time.Duration)  {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	TrainCount         atomic.Int64
	TrainErrors        atomic.Int64
	TrainPositions     atomic.Int64
	TrainTotalNanos    atomic.Int64
	SpillCount         atomic.Int64
	SpillErrors        atomic.Int64
	SpillMoved         atomic.Int64
	SpillTotalNanos    atomic.Int64
	GenerateCount      atomic.Int64
	GenerateTokens     atomic.Int64
	GenerateNoMatch    atomic.Int64
	GenerateTotalNanos atomic.Int64
}

// RecordTrain implements MetricsCollector.
func (b *BasicMetricsCollector) RecordTrain(positions int64, duration time.Duration, err error) {
	b.TrainCount.Add(1)
	b.TrainPositions.Add(positions)
	b.TrainTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.TrainErrors.Add(1)
	}
}

// RecordSpill implements MetricsCollector.
func (b *BasicMetricsCollector) RecordSpill(order, moved int, duration time.Duration, err error) {
	b.SpillCount.Add(1)
	b.SpillTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.SpillErrors.Add(1)
		return
	}
	b.SpillMoved.Add(int64(moved))
}

// RecordGenerate implements MetricsCollector.
func (b *BasicMetricsCollector) RecordGenerate(tokens int, status Status, duration time.Duration) {
	b.GenerateCount.Add(1)
	b.GenerateTokens.Add(int64(tokens))
	b.GenerateTotalNanos.Add(duration.Nanoseconds())
	if status == StatusNoCandidates {
		b.GenerateNoMatch.Add(1)
	}
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		TrainCount:       b.TrainCount.Load(),
		TrainErrors:      b.TrainErrors.Load(),
		TrainPositions:   b.TrainPositions.Load(),
		TrainAvgNanos:    avg(b.TrainTotalNanos.Load(), b.TrainCount.Load()),
		SpillCount:       b.SpillCount.Load(),
		SpillErrors:      b.SpillErrors.Load(),
		SpillMoved:       b.SpillMoved.Load(),
		SpillAvgNanos:    avg(b.SpillTotalNanos.Load(), b.SpillCount.Load()),
		GenerateCount:    b.GenerateCount.Load(),
		GenerateTokens:   b.GenerateTokens.Load(),
		GenerateNoMatch:  b.GenerateNoMatch.Load(),
		GenerateAvgNanos: avg(b.GenerateTotalNanos.Load(), b.GenerateCount.Load()),
	}
}

func avg(total, count int64) int64 {
	if count == 0 {
		return 0
	}
	return total / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	TrainCount       int64
	TrainErrors      int64
	TrainPositions   int64
	TrainAvgNanos    int64
	SpillCount       int64
	SpillErrors      int64
	SpillMoved       int64
	SpillAvgNanos    int64
	GenerateCount    int64
	GenerateTokens   int64
	GenerateNoMatch  int64
	GenerateAvgNanos int64
}
