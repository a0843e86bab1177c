package vecdex

import (
	"context"
	"encoding/hex"
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with vecdex-specific context.
// This provides structured logging with consistent field names.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler.
// If handler is nil, uses default text handler to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
// level sets the minimum log level (e.g., slog.LevelDebug, slog.LevelInfo).
func NewJSONLogger(level slog.Level) *Logger {
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NoopLogger creates a Logger that discards all log output.
// Use this to disable logging entirely.
func NoopLogger() *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.Level(1000), // Unreachable level
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// WithID adds an ID field to the logger (useful for tagging operations).
func (l *Logger) WithID(id uint64) *Logger {
	return &Logger{
		Logger: l.Logger.With("id", id),
	}
}

// WithBlock adds a block hash field to the logger.
func (l *Logger) WithBlock(blockHash [32]byte) *Logger {
	return &Logger{
		Logger: l.Logger.With("block", hex.EncodeToString(blockHash[:])),
	}
}

// WithDimension adds a dimension field to the logger.
func (l *Logger) WithDimension(dim int) *Logger {
	return &Logger{
		Logger: l.Logger.With("dimension", dim),
	}
}

// LogInsert logs a single vector insert.
func (l *Logger) LogInsert(ctx context.Context, id uint64, dimension int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "insert failed",
			"id", id,
			"dimension", dimension,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "insert completed",
			"id", id,
			"dimension", dimension,
		)
	}
}

// LogBlockApply logs the application of one block's insert batch.
func (l *Logger) LogBlockApply(ctx context.Context, blockHash [32]byte, txs int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "block apply failed",
			"block", hex.EncodeToString(blockHash[:]),
			"txs", txs,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "block applied",
			"block", hex.EncodeToString(blockHash[:]),
			"txs", txs,
		)
	}
}

// LogSearch logs a search operation.
func (l *Logger) LogSearch(ctx context.Context, k, resultsFound int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "search failed",
			"k", k,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "search completed",
			"k", k,
			"results", resultsFound,
		)
	}
}

// LogSearchBatch logs a batch search.
func (l *Logger) LogSearchBatch(ctx context.Context, queries, k int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "batch search failed",
			"queries", queries,
			"k", k,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "batch search completed",
			"queries", queries,
			"k", k,
		)
	}
}

// LogSnapshotWrite logs a snapshot serialization.
func (l *Logger) LogSnapshotWrite(ctx context.Context, nodes int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "snapshot write failed",
			"nodes", nodes,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "snapshot written",
			"nodes", nodes,
		)
	}
}

// LogSnapshotLoad logs a snapshot restore.
func (l *Logger) LogSnapshotLoad(ctx context.Context, nodes int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "snapshot load failed",
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "snapshot loaded",
			"nodes", nodes,
		)
	}
}
