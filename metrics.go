package entigo

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems like Prometheus.
//
// Example Prometheus integration:
//
//	type PrometheusCollector struct {
//	    runCounter     prometheus.Counter
//	    matchHistogram prometheus.Histogram
//	}
//
//	func (p *PrometheusCollector) RecordMatch(matcher string, pairs, skipped, failed int, duration time.Duration, err error) {
//	    p.matchHistogram.Observe(duration.Seconds())
//	    // ... record error state, pair counts, etc.
//	}
type MetricsCollector interface {
	// RecordClean is called after the cleansing step.
	// records is the number of records cleaned, duration the time taken.
	RecordClean(records int, duration time.Duration)

	// RecordMatch is called after each matcher finishes.
	// pairs is the number of candidate pairs produced, skipped the number of
	// records excluded for missing fields, failed the number of records
	// excluded for embedding or index failures, err is nil if successful.
	RecordMatch(matcher string, pairs, skipped, failed int, duration time.Duration, err error)

	// RecordMerge is called after pair union and cluster merging.
	RecordMerge(pairs, clusters int, duration time.Duration)

	// RecordRun is called after each pipeline run.
	// records is the input size, clusters is the partition size,
	// duration is the total time taken, err is nil if successful.
	RecordRun(records, clusters int, duration time.Duration, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordClean(int, time.Duration)                          {}
func (NoopMetricsCollector) RecordMatch(string, int, int, int, time.Duration, error) {}
func (NoopMetricsCollector) RecordMerge(int, int, time.Duration)                     {}
func (NoopMetricsCollector) RecordRun(int, int, time.Duration, error)                {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	CleanCount      atomic.Int64
	CleanRecords    atomic.Int64
	MatchCount      atomic.Int64
	MatchErrors     atomic.Int64
	MatchPairs      atomic.Int64
	MatchSkipped    atomic.Int64
	MatchFailed     atomic.Int64
	MatchTotalNanos atomic.Int64
	MergeCount      atomic.Int64
	MergePairs      atomic.Int64
	MergeClusters   atomic.Int64
	RunCount        atomic.Int64
	RunErrors       atomic.Int64
	RunTotalNanos   atomic.Int64
}

// RecordClean implements MetricsCollector.
func (b *BasicMetricsCollector) RecordClean(records int, duration time.Duration) {
	b.CleanCount.Add(1)
	b.CleanRecords.Add(int64(records))
}

// RecordMatch implements MetricsCollector.
func (b *BasicMetricsCollector) RecordMatch(matcher string, pairs, skipped, failed int, duration time.Duration, err error) {
	b.MatchCount.Add(1)
	b.MatchPairs.Add(int64(pairs))
	b.MatchSkipped.Add(int64(skipped))
	b.MatchFailed.Add(int64(failed))
	b.MatchTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.MatchErrors.Add(1)
	}
}

// RecordMerge implements MetricsCollector.
func (b *BasicMetricsCollector) RecordMerge(pairs, clusters int, duration time.Duration) {
	b.MergeCount.Add(1)
	b.MergePairs.Add(int64(pairs))
	b.MergeClusters.Add(int64(clusters))
}

// RecordRun implements MetricsCollector.
func (b *BasicMetricsCollector) RecordRun(records, clusters int, duration time.Duration, err error) {
	b.RunCount.Add(1)
	b.RunTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.RunErrors.Add(1)
	}
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		CleanCount:    b.CleanCount.Load(),
		CleanRecords:  b.CleanRecords.Load(),
		MatchCount:    b.MatchCount.Load(),
		MatchErrors:   b.MatchErrors.Load(),
		MatchPairs:    b.MatchPairs.Load(),
		MatchSkipped:  b.MatchSkipped.Load(),
		MatchFailed:   b.MatchFailed.Load(),
		MatchAvgNanos: b.getAvgMatchNanos(),
		MergeCount:    b.MergeCount.Load(),
		MergePairs:    b.MergePairs.Load(),
		MergeClusters: b.MergeClusters.Load(),
		RunCount:      b.RunCount.Load(),
		RunErrors:     b.RunErrors.Load(),
		RunAvgNanos:   b.getAvgRunNanos(),
	}
}

func (b *BasicMetricsCollector) getAvgMatchNanos() int64 {
	count := b.MatchCount.Load()
	if count == 0 {
		return 0
	}
	return b.MatchTotalNanos.Load() / count
}

func (b *BasicMetricsCollector) getAvgRunNanos() int64 {
	count := b.RunCount.Load()
	if count == 0 {
		return 0
	}
	return b.RunTotalNanos.Load() / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	CleanCount    int64
	CleanRecords  int64
	MatchCount    int64
	MatchErrors   int64
	MatchPairs    int64
	MatchSkipped  int64
	MatchFailed   int64
	MatchAvgNanos int64
	MergeCount    int64
	MergePairs    int64
	MergeClusters int64
	RunCount      int64
	RunErrors     int64
	RunAvgNanos   int64
}
