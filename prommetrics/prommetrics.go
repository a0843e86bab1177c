// Package prommetrics exports vecdex operation metrics to Prometheus.
//
//	reg := prometheus.NewRegistry()
//	ix, err := vecdex.New(768,
//		vecdex.WithMetricsCollector(prommetrics.NewCollector(reg)),
//	)
//
// All metrics are node-local observability; nothing here touches
// consensus state.
package prommetrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collector implements vecdex.MetricsCollector on Prometheus primitives.
type Collector struct {
	inserts        *prometheus.CounterVec
	insertSeconds  prometheus.Histogram
	blocks         *prometheus.CounterVec
	blockTxs       prometheus.Counter
	blockSeconds   prometheus.Histogram
	searches       *prometheus.CounterVec
	searchSeconds  prometheus.Histogram
	searchBatches  *prometheus.CounterVec
	snapshotOps    *prometheus.CounterVec
	snapshotSecond *prometheus.HistogramVec
}

// NewCollector creates a collector and registers its metrics with reg.
// Registering two collectors on one registry panics with a duplicate
// registration error, as usual for Prometheus; use one per registry.
func NewCollector(reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)

	// Insert and search latencies sit in the microsecond to low
	// millisecond range; block application and snapshots run longer.
	opBuckets := []float64{
		0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5,
	}
	heavyBuckets := []float64{
		0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30,
	}

	return &Collector{
		inserts: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "vecdex_inserts_total",
			Help: "Vector insert operations by outcome",
		}, []string{"status"}),
		insertSeconds: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "vecdex_insert_duration_seconds",
			Help:    "Duration of single vector inserts",
			Buckets: opBuckets,
		}),
		blocks: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "vecdex_block_applies_total",
			Help: "Block batch applications by outcome",
		}, []string{"status"}),
		blockTxs: factory.NewCounter(prometheus.CounterOpts{
			Name: "vecdex_block_txs_total",
			Help: "Vector-mint transactions submitted through block application",
		}),
		blockSeconds: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "vecdex_block_apply_duration_seconds",
			Help:    "Duration of block batch applications",
			Buckets: heavyBuckets,
		}),
		searches: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "vecdex_searches_total",
			Help: "Search operations by outcome",
		}, []string{"status"}),
		searchSeconds: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "vecdex_search_duration_seconds",
			Help:    "Duration of single searches",
			Buckets: opBuckets,
		}),
		searchBatches: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "vecdex_search_batches_total",
			Help: "Batch search operations by outcome",
		}, []string{"status"}),
		snapshotOps: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "vecdex_snapshot_ops_total",
			Help: "Snapshot serializations and restores by operation and outcome",
		}, []string{"op", "status"}),
		snapshotSecond: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "vecdex_snapshot_duration_seconds",
			Help:    "Duration of snapshot serializations and restores",
			Buckets: heavyBuckets,
		}, []string{"op"}),
	}
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// RecordInsert implements vecdex.MetricsCollector.
func (c *Collector) RecordInsert(duration time.Duration, err error) {
	c.inserts.WithLabelValues(status(err)).Inc()
	c.insertSeconds.Observe(duration.Seconds())
}

// RecordBlockApply implements vecdex.MetricsCollector.
func (c *Collector) RecordBlockApply(txs int, duration time.Duration, err error) {
	c.blocks.WithLabelValues(status(err)).Inc()
	c.blockTxs.Add(float64(txs))
	c.blockSeconds.Observe(duration.Seconds())
}

// RecordSearch implements vecdex.MetricsCollector.
func (c *Collector) RecordSearch(_ int, duration time.Duration, err error) {
	c.searches.WithLabelValues(status(err)).Inc()
	c.searchSeconds.Observe(duration.Seconds())
}

// RecordSearchBatch implements vecdex.MetricsCollector.
func (c *Collector) RecordSearchBatch(_ int, _ time.Duration, err error) {
	c.searchBatches.WithLabelValues(status(err)).Inc()
}

// RecordSnapshotWrite implements vecdex.MetricsCollector.
func (c *Collector) RecordSnapshotWrite(duration time.Duration, err error) {
	c.snapshotOps.WithLabelValues("write", status(err)).Inc()
	c.snapshotSecond.WithLabelValues("write").Observe(duration.Seconds())
}

// RecordSnapshotLoad implements vecdex.MetricsCollector.
func (c *Collector) RecordSnapshotLoad(duration time.Duration, err error) {
	c.snapshotOps.WithLabelValues("load", status(err)).Inc()
	c.snapshotSecond.WithLabelValues("load").Observe(duration.Seconds())
}
