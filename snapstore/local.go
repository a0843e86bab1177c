package snapstore

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
)

// latestName is the pointer file holding the most recent height.
const latestName = "LATEST"

// Local is a directory-backed Archive. Snapshot files and the LATEST
// pointer are written to a temporary file and renamed into place, so a
// crash mid-write never leaves a partial object under a canonical name.
type Local struct {
	dir string
}

// NewLocal creates (if needed) and opens an archive directory.
func NewLocal(dir string) (*Local, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("snapstore: create archive dir: %w", err)
	}
	return &Local{dir: dir}, nil
}

// Put implements Archive.
func (l *Local) Put(ctx context.Context, height uint64, r io.Reader) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := l.writeAtomic(ObjectName(height), r); err != nil {
		return err
	}

	// Advance the pointer only forward; republishing an old height must
	// not move LATEST backwards.
	if latest, err := l.readLatest(); err == nil && latest >= height {
		return nil
	}
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], height)
	return l.writeAtomic(latestName, bytes.NewReader(buf[:]))
}

// Open implements Archive.
func (l *Local) Open(ctx context.Context, height uint64) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(filepath.Join(l.dir, ObjectName(height)))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	return f, err
}

// Latest implements Archive. It prefers the LATEST pointer and falls back
// to scanning the directory when the pointer is missing or unreadable.
func (l *Local) Latest(ctx context.Context) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if height, err := l.readLatest(); err == nil {
		return height, nil
	}
	heights, err := l.List(ctx)
	if err != nil {
		return 0, err
	}
	if len(heights) == 0 {
		return 0, ErrNotFound
	}
	return heights[len(heights)-1], nil
}

// List implements Archive.
func (l *Local) List(ctx context.Context) ([]uint64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(l.dir)
	if err != nil {
		return nil, fmt.Errorf("snapstore: list archive dir: %w", err)
	}
	var heights []uint64
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if height, ok := ParseObjectName(e.Name()); ok {
			heights = append(heights, height)
		}
	}
	slices.Sort(heights)
	return heights, nil
}

// Delete implements Archive. The LATEST pointer is left alone: it names
// the newest published height, and deletions prune old heights.
func (l *Local) Delete(ctx context.Context, height uint64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := os.Remove(filepath.Join(l.dir, ObjectName(height)))
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

func (l *Local) readLatest() (uint64, error) {
	data, err := os.ReadFile(filepath.Join(l.dir, latestName))
	if err != nil {
		return 0, err
	}
	if len(data) != 8 {
		return 0, fmt.Errorf("snapstore: LATEST pointer has %d bytes, want 8", len(data))
	}
	return binary.BigEndian.Uint64(data), nil
}

func (l *Local) writeAtomic(name string, r io.Reader) error {
	tmp, err := os.CreateTemp(l.dir, name+".tmp-*")
	if err != nil {
		return fmt.Errorf("snapstore: create temp file: %w", err)
	}
	tmpName := tmp.Name()

	_, err = io.Copy(tmp, r)
	if err == nil {
		err = tmp.Sync()
	}
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err == nil {
		err = os.Rename(tmpName, filepath.Join(l.dir, name))
	}
	if err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("snapstore: write %s: %w", name, err)
	}
	return nil
}
