package vecdex

import (
	"log/slog"
	"runtime"

	"github.com/vecdex/vecdex/snapshot"
	"golang.org/x/time/rate"
)

type options struct {
	logger            *Logger
	metricsCollector  MetricsCollector
	initialCapacity   int
	queryCacheSize    int
	queryRate         rate.Limit
	queryBurst        int
	searchParallelism int
	snapshotCodec     snapshot.Codec
}

// Option configures Index constructor behavior.
type Option func(*options)

// WithLogger configures structured logging for operations.
// Pass nil to disable logging.
//
// Example with JSON logging:
//
//	logger := vecdex.NewJSONLogger(slog.LevelInfo)
//	ix, _ := vecdex.New(768, vecdex.WithLogger(logger))
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = NoopLogger()
		}
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

// WithMetricsCollector configures a metrics collector for monitoring
// operations. Pass nil to disable metrics collection.
//
// Example with BasicMetricsCollector:
//
//	metrics := &vecdex.BasicMetricsCollector{}
//	ix, _ := vecdex.New(768, vecdex.WithMetricsCollector(metrics))
//	// ... use ix ...
//	stats := metrics.GetStats()
//	fmt.Printf("Inserts: %d, Avg latency: %dns\n", stats.InsertCount, stats.InsertAvgNanos)
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metricsCollector = mc
	}
}

// WithInitialCapacity pre-sizes the node arena. Useful when restoring a
// chain whose vector count is known in advance.
func WithInitialCapacity(n int) Option {
	return func(o *options) {
		o.initialCapacity = n
	}
}

// WithQueryCache enables an LRU cache of search results with the given
// number of entries. Entries are keyed by (state version, query, k), so a
// cached result is never served after any write. size <= 0 disables the
// cache (the default).
//
// The cache only affects the read path; consensus state is untouched.
func WithQueryCache(size int) Option {
	return func(o *options) {
		o.queryCacheSize = size
	}
}

// WithQueryRateLimit bounds search admission to rps queries per second with
// the given burst. rps <= 0 disables limiting (the default). burst <= 0 is
// treated as 1.
//
// Searches beyond the budget block until a token is available or their
// context is done.
func WithQueryRateLimit(rps float64, burst int) Option {
	return func(o *options) {
		o.queryRate = rate.Limit(rps)
		o.queryBurst = burst
	}
}

// WithSearchParallelism bounds the number of concurrent queries a single
// SearchBatch call runs. n <= 0 means GOMAXPROCS.
func WithSearchParallelism(n int) Option {
	return func(o *options) {
		o.searchParallelism = n
	}
}

// WithSnapshotCodec selects the compression codec WriteSnapshot uses.
// Default is snapshot.CodecZstd.
func WithSnapshotCodec(c snapshot.Codec) Option {
	return func(o *options) {
		o.snapshotCodec = c
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		logger:           NoopLogger(),
		metricsCollector: NoopMetricsCollector{},
		snapshotCodec:    snapshot.CodecZstd,
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	if o.searchParallelism <= 0 {
		o.searchParallelism = runtime.GOMAXPROCS(0)
	}
	return o
}
