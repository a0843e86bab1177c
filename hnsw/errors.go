package hnsw

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyGraph is returned when searching a graph with no nodes.
	ErrEmptyGraph = errors.New("hnsw: empty graph")

	// ErrFull is returned when the node arena cannot grow further.
	ErrFull = errors.New("hnsw: node capacity exceeded")
)

// ErrDimensionMismatch is returned when a vector's length does not match
// the graph dimension.
type ErrDimensionMismatch struct {
	Expected int
	Actual   int
}

// Error implements the error interface.
func (e *ErrDimensionMismatch) Error() string {
	return fmt.Sprintf("hnsw: dimension mismatch: expected %d, got %d", e.Expected, e.Actual)
}

// ErrDuplicateID is returned when inserting an id that is already
// present. Callers decide whether that aborts the block or skips the
// transaction; the graph itself never silently ignores it.
type ErrDuplicateID struct {
	ID uint64
}

// Error implements the error interface.
func (e *ErrDuplicateID) Error() string {
	return fmt.Sprintf("hnsw: id %d already present", e.ID)
}

// ErrInvalidNodeID is returned when an edge references an id with no
// node behind it. The graph is corrupted; treat the state as fatal and
// restore from a snapshot.
type ErrInvalidNodeID struct {
	ID uint64
}

// Error implements the error interface.
func (e *ErrInvalidNodeID) Error() string {
	return fmt.Sprintf("hnsw: edge references unknown node %d: graph corrupted", e.ID)
}

// ErrInvalidParameter is returned for out-of-range arguments.
type ErrInvalidParameter struct {
	Name   string
	Reason string
}

// Error implements the error interface.
func (e *ErrInvalidParameter) Error() string {
	return fmt.Sprintf("hnsw: invalid parameter %s: %s", e.Name, e.Reason)
}
