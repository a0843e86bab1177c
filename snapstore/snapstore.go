// Package snapstore distributes index snapshots between nodes.
//
// A new validator bootstraps from the most recent archived snapshot and
// replays only the blocks after it, instead of replaying the whole chain
// from genesis. An Archive stores one snapshot container per block height;
// Publisher uploads them on a height interval and Fetcher restores an
// index from them.
//
// Archives hold opaque snapshot bytes. Everything consensus-relevant
// (format, checksums, parameter validation) lives in the snapshot and
// hnsw packages; a corrupt or truncated archive entry fails there on
// restore.
package snapstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ErrNotFound is returned when no snapshot exists for the requested
// height, or when Latest is called on an empty archive.
var ErrNotFound = errors.New("snapstore: snapshot not found")

// Archive stores one snapshot per block height.
//
// Implementations must be safe for concurrent use. Put for a height that
// already exists overwrites it: snapshots are deterministic functions of
// the chain state, so rewriting the same height is idempotent by
// construction.
type Archive interface {
	// Put stores the snapshot read from r under the given height.
	Put(ctx context.Context, height uint64, r io.Reader) error

	// Open returns the snapshot stored for the given height.
	Open(ctx context.Context, height uint64) (io.ReadCloser, error)

	// Latest returns the highest height with a stored snapshot.
	Latest(ctx context.Context) (uint64, error)

	// List returns all stored heights in ascending order.
	List(ctx context.Context) ([]uint64, error)

	// Delete removes the snapshot for the given height. Deleting a
	// missing height is not an error.
	Delete(ctx context.Context, height uint64) error
}

// ObjectName returns the canonical object name for a height. The fixed
// width keeps lexicographic and numeric order identical, so prefix
// listings come back height-ordered on stores that sort keys.
func ObjectName(height uint64) string {
	return fmt.Sprintf("snap-%016x.vdx", height)
}

// ParseObjectName extracts the height from a canonical object name.
func ParseObjectName(name string) (uint64, bool) {
	rest, ok := strings.CutPrefix(name, "snap-")
	if !ok {
		return 0, false
	}
	hexPart, ok := strings.CutSuffix(rest, ".vdx")
	if !ok || len(hexPart) != 16 {
		return 0, false
	}
	height, err := strconv.ParseUint(hexPart, 16, 64)
	if err != nil {
		return 0, false
	}
	return height, true
}
