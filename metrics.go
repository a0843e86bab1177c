package vecdex

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems; package
// prommetrics provides a Prometheus-backed implementation.
type MetricsCollector interface {
	// RecordInsert is called after each single insert operation.
	// duration is the total time taken, err is nil if successful.
	RecordInsert(duration time.Duration, err error)

	// RecordBlockApply is called after each block's insert batch.
	// txs is the number of transactions in the batch, duration is the
	// total time taken, err is nil if the whole batch applied.
	RecordBlockApply(txs int, duration time.Duration, err error)

	// RecordSearch is called after each search operation.
	// k is the number of neighbors requested, duration is the time taken,
	// err is nil if successful.
	RecordSearch(k int, duration time.Duration, err error)

	// RecordSearchBatch is called after each batch search.
	// queries is the number of queries in the batch, duration is the
	// total time taken.
	RecordSearchBatch(queries int, duration time.Duration, err error)

	// RecordSnapshotWrite is called after each snapshot serialization.
	RecordSnapshotWrite(duration time.Duration, err error)

	// RecordSnapshotLoad is called after each snapshot restore.
	RecordSnapshotLoad(duration time.Duration, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordInsert(time.Duration, error)           {}
func (NoopMetricsCollector) RecordBlockApply(int, time.Duration, error)  {}
func (NoopMetricsCollector) RecordSearch(int, time.Duration, error)      {}
func (NoopMetricsCollector) RecordSearchBatch(int, time.Duration, error) {}
func (NoopMetricsCollector) RecordSnapshotWrite(time.Duration, error)    {}
func (NoopMetricsCollector) RecordSnapshotLoad(time.Duration, error)     {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	InsertCount      atomic.Int64
	InsertErrors     atomic.Int64
	InsertTotalNanos atomic.Int64
	BlockCount       atomic.Int64
	BlockErrors      atomic.Int64
	BlockTxs         atomic.Int64
	BlockTotalNanos  atomic.Int64
	SearchCount      atomic.Int64
	SearchErrors     atomic.Int64
	SearchTotalNanos atomic.Int64
	BatchCount       atomic.Int64
	BatchQueries     atomic.Int64
	BatchErrors      atomic.Int64
	SnapshotWrites   atomic.Int64
	SnapshotLoads    atomic.Int64
	SnapshotErrors   atomic.Int64
}

// RecordInsert implements MetricsCollector.
func (b *BasicMetricsCollector) RecordInsert(duration time.Duration, err error) {
	b.InsertCount.Add(1)
	b.InsertTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.InsertErrors.Add(1)
	}
}

// RecordBlockApply implements MetricsCollector.
func (b *BasicMetricsCollector) RecordBlockApply(txs int, duration time.Duration, err error) {
	b.BlockCount.Add(1)
	b.BlockTxs.Add(int64(txs))
	b.BlockTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.BlockErrors.Add(1)
	}
}

// RecordSearch implements MetricsCollector.
func (b *BasicMetricsCollector) RecordSearch(k int, duration time.Duration, err error) {
	b.SearchCount.Add(1)
	b.SearchTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.SearchErrors.Add(1)
	}
}

// RecordSearchBatch implements MetricsCollector.
func (b *BasicMetricsCollector) RecordSearchBatch(queries int, duration time.Duration, err error) {
	b.BatchCount.Add(1)
	b.BatchQueries.Add(int64(queries))
	if err != nil {
		b.BatchErrors.Add(1)
	}
}

// RecordSnapshotWrite implements MetricsCollector.
func (b *BasicMetricsCollector) RecordSnapshotWrite(duration time.Duration, err error) {
	b.SnapshotWrites.Add(1)
	if err != nil {
		b.SnapshotErrors.Add(1)
	}
}

// RecordSnapshotLoad implements MetricsCollector.
func (b *BasicMetricsCollector) RecordSnapshotLoad(duration time.Duration, err error) {
	b.SnapshotLoads.Add(1)
	if err != nil {
		b.SnapshotErrors.Add(1)
	}
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		InsertCount:    b.InsertCount.Load(),
		InsertErrors:   b.InsertErrors.Load(),
		InsertAvgNanos: b.getAvgInsertNanos(),
		BlockCount:     b.BlockCount.Load(),
		BlockErrors:    b.BlockErrors.Load(),
		BlockTxs:       b.BlockTxs.Load(),
		BlockAvgNanos:  b.getAvgBlockNanos(),
		SearchCount:    b.SearchCount.Load(),
		SearchErrors:   b.SearchErrors.Load(),
		SearchAvgNanos: b.getAvgSearchNanos(),
		BatchCount:     b.BatchCount.Load(),
		BatchQueries:   b.BatchQueries.Load(),
		BatchErrors:    b.BatchErrors.Load(),
		SnapshotWrites: b.SnapshotWrites.Load(),
		SnapshotLoads:  b.SnapshotLoads.Load(),
		SnapshotErrors: b.SnapshotErrors.Load(),
	}
}

func (b *BasicMetricsCollector) getAvgInsertNanos() int64 {
	count := b.InsertCount.Load()
	if count == 0 {
		return 0
	}
	return b.InsertTotalNanos.Load() / count
}

func (b *BasicMetricsCollector) getAvgBlockNanos() int64 {
	count := b.BlockCount.Load()
	if count == 0 {
		return 0
	}
	return b.BlockTotalNanos.Load() / count
}

func (b *BasicMetricsCollector) getAvgSearchNanos() int64 {
	count := b.SearchCount.Load()
	if count == 0 {
		return 0
	}
	return b.SearchTotalNanos.Load() / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	InsertCount    int64
	InsertErrors   int64
	InsertAvgNanos int64
	BlockCount     int64
	BlockErrors    int64
	BlockTxs       int64
	BlockAvgNanos  int64
	SearchCount    int64
	SearchErrors   int64
	SearchAvgNanos int64
	BatchCount     int64
	BatchQueries   int64
	BatchErrors    int64
	SnapshotWrites int64
	SnapshotLoads  int64
	SnapshotErrors int64
}
