package hypervec

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems; see
// package metrics/prometheus for a Prometheus implementation.
type MetricsCollector interface {
	// RecordInteraction is called after each profile update. kind is
	// "interaction", "fact", "vector" or "sync".
	RecordInteraction(kind string, duration time.Duration, err error)

	// RecordLearn is called after each clustering pass with the number of
	// vectors that created, reinforced or were rejected.
	RecordLearn(created, reinforced, rejected int, duration time.Duration)

	// RecordFlush is called after each debounced batch flush.
	RecordFlush(events int, published bool, err error)

	// RecordQuery is called after each nearest neighbor query.
	RecordQuery(k int, duration time.Duration, err error)

	// RecordPersist is called after each persist or restore. op is
	// "persist" or "restore".
	RecordPersist(op string, duration time.Duration, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordInteraction(string, time.Duration, error) {}
func (NoopMetricsCollector) RecordLearn(int, int, int, time.Duration)       {}
func (NoopMetricsCollector) RecordFlush(int, bool, error)                   {}
func (NoopMetricsCollector) RecordQuery(int, time.Duration, error)          {}
func (NoopMetricsCollector) RecordPersist(string, time.Duration, error)     {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	InteractionCount      atomic.Int64
	InteractionErrors     atomic.Int64
	InteractionTotalNanos atomic.Int64
	LearnCount            atomic.Int64
	AnchorsCreated        atomic.Int64
	AnchorsReinforced     atomic.Int64
	VectorsRejected       atomic.Int64
	FlushCount            atomic.Int64
	FlushEvents           atomic.Int64
	FlushErrors           atomic.Int64
	SnapshotsPublished    atomic.Int64
	QueryCount            atomic.Int64
	QueryErrors           atomic.Int64
	QueryTotalNanos       atomic.Int64
	PersistCount          atomic.Int64
	PersistErrors         atomic.Int64
}

// RecordInteraction implements MetricsCollector.
func (b *BasicMetricsCollector) RecordInteraction(_ string, duration time.Duration, err error) {
	b.InteractionCount.Add(1)
	b.InteractionTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.InteractionErrors.Add(1)
	}
}

// RecordLearn implements MetricsCollector.
func (b *BasicMetricsCollector) RecordLearn(created, reinforced, rejected int, _ time.Duration) {
	b.LearnCount.Add(1)
	b.AnchorsCreated.Add(int64(created))
	b.AnchorsReinforced.Add(int64(reinforced))
	b.VectorsRejected.Add(int64(rejected))
}

// RecordFlush implements MetricsCollector.
func (b *BasicMetricsCollector) RecordFlush(events int, published bool, err error) {
	b.FlushCount.Add(1)
	b.FlushEvents.Add(int64(events))
	if published {
		b.SnapshotsPublished.Add(1)
	}
	if err != nil {
		b.FlushErrors.Add(1)
	}
}

// RecordQuery implements MetricsCollector.
func (b *BasicMetricsCollector) RecordQuery(_ int, duration time.Duration, err error) {
	b.QueryCount.Add(1)
	b.QueryTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.QueryErrors.Add(1)
	}
}

// RecordPersist implements MetricsCollector.
func (b *BasicMetricsCollector) RecordPersist(_ string, _ time.Duration, err error) {
	b.PersistCount.Add(1)
	if err != nil {
		b.PersistErrors.Add(1)
	}
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		InteractionCount:    b.InteractionCount.Load(),
		InteractionErrors:   b.InteractionErrors.Load(),
		InteractionAvgNanos: avg(b.InteractionTotalNanos.Load(), b.InteractionCount.Load()),
		LearnCount:          b.LearnCount.Load(),
		AnchorsCreated:      b.AnchorsCreated.Load(),
		AnchorsReinforced:   b.AnchorsReinforced.Load(),
		VectorsRejected:     b.VectorsRejected.Load(),
		FlushCount:          b.FlushCount.Load(),
		FlushEvents:         b.FlushEvents.Load(),
		FlushErrors:         b.FlushErrors.Load(),
		SnapshotsPublished:  b.SnapshotsPublished.Load(),
		QueryCount:          b.QueryCount.Load(),
		QueryErrors:         b.QueryErrors.Load(),
		QueryAvgNanos:       avg(b.QueryTotalNanos.Load(), b.QueryCount.Load()),
		PersistCount:        b.PersistCount.Load(),
		PersistErrors:       b.PersistErrors.Load(),
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
	InteractionCount    int64
	InteractionErrors   int64
	InteractionAvgNanos int64
	LearnCount          int64
	AnchorsCreated      int64
	AnchorsReinforced   int64
	VectorsRejected     int64
	FlushCount          int64
	FlushEvents         int64
	FlushErrors         int64
	SnapshotsPublished  int64
	QueryCount          int64
	QueryErrors         int64
	QueryAvgNanos       int64
	PersistCount        int64
	PersistErrors       int64
}
