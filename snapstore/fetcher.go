package snapstore

import (
	"context"
	"fmt"

	"github.com/vecdex/vecdex"
	"golang.org/x/sync/singleflight"
)

// Fetcher restores indexes from archived snapshots. Concurrent fetches of
// the same height are deduplicated: one download and restore runs, and
// every caller receives the same *vecdex.Index (which is safe for
// concurrent use).
type Fetcher struct {
	archive Archive
	options []vecdex.Option
	group   singleflight.Group
}

// NewFetcher creates a fetcher. The options are applied to every restored
// index (query cache, logger, and so on).
func NewFetcher(archive Archive, optFns ...vecdex.Option) *Fetcher {
	return &Fetcher{archive: archive, options: optFns}
}

// Fetch downloads the snapshot for the given height and restores an index
// from it.
func (f *Fetcher) Fetch(ctx context.Context, height uint64) (*vecdex.Index, error) {
	v, err, _ := f.group.Do(ObjectName(height), func() (any, error) {
		return f.fetch(ctx, height)
	})
	if err != nil {
		return nil, err
	}
	return v.(*vecdex.Index), nil
}

// FetchLatest restores an index from the newest archived snapshot and
// reports which height it came from.
func (f *Fetcher) FetchLatest(ctx context.Context) (uint64, *vecdex.Index, error) {
	height, err := f.archive.Latest(ctx)
	if err != nil {
		return 0, nil, err
	}
	ix, err := f.Fetch(ctx, height)
	if err != nil {
		return 0, nil, err
	}
	return height, ix, nil
}

func (f *Fetcher) fetch(ctx context.Context, height uint64) (*vecdex.Index, error) {
	rc, err := f.archive.Open(ctx, height)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rc.Close() }()

	ix, err := vecdex.FromSnapshot(rc, f.options...)
	if err != nil {
		return nil, fmt.Errorf("snapstore: restore height %d: %w", height, err)
	}
	return ix, nil
}
