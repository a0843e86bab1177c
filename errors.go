package vecdex

import (
	"errors"
	"fmt"

	"github.com/vecdex/vecdex/hnsw"
)

var (
	// ErrInvalidK is returned when k is not positive.
	ErrInvalidK = errors.New("vecdex: k must be positive")

	// ErrClosed is returned by operations on a closed Index.
	ErrClosed = errors.New("vecdex: index is closed")

	// ErrEmptyIndex is returned when searching an index with no vectors.
	ErrEmptyIndex = errors.New("vecdex: empty index")
)

// ErrDimensionMismatch indicates a vector/query dimensionality mismatch.
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type ErrDimensionMismatch struct {
	Expected int
	Actual   int
	cause    error
}

func (e *ErrDimensionMismatch) Error() string {
	return fmt.Sprintf("vecdex: dimension mismatch: expected %d, got %d", e.Expected, e.Actual)
}

func (e *ErrDimensionMismatch) Unwrap() error { return e.cause }

// ErrDuplicateID indicates an insert with an id already present in the
// graph. Under consensus rules the same id can be minted at most once, so
// this surfaces a malformed or replayed transaction.
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type ErrDuplicateID struct {
	ID    uint64
	cause error
}

func (e *ErrDuplicateID) Error() string {
	return fmt.Sprintf("vecdex: duplicate id %d", e.ID)
}

func (e *ErrDuplicateID) Unwrap() error { return e.cause }

// translateError maps graph-level errors onto the package taxonomy.
//
// Corruption errors (*hnsw.ErrInvalidNodeID) and conversion errors
// (*fixpoint.ErrOverflow) pass through unchanged; callers match them with
// errors.As. The execution layer must treat a corruption error as fatal for
// the block rather than skip the transaction, since skipping would itself
// diverge from validators that did not observe the corruption.
func translateError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, hnsw.ErrEmptyGraph) {
		return fmt.Errorf("%w: %w", ErrEmptyIndex, err)
	}

	var dm *hnsw.ErrDimensionMismatch
	if errors.As(err, &dm) {
		return &ErrDimensionMismatch{Expected: dm.Expected, Actual: dm.Actual, cause: err}
	}

	var dup *hnsw.ErrDuplicateID
	if errors.As(err, &dup) {
		return &ErrDuplicateID{ID: dup.ID, cause: err}
	}

	var ip *hnsw.ErrInvalidParameter
	if errors.As(err, &ip) && ip.Name == "k" {
		return fmt.Errorf("%w: %w", ErrInvalidK, err)
	}

	return err
}
