package snapstore

import (
	"bytes"
	"context"
	"io"
	"slices"
	"sync"
)

// Memory is an in-memory Archive for tests and embedded use. Safe for
// concurrent use.
type Memory struct {
	mu    sync.RWMutex
	snaps map[uint64][]byte
}

// NewMemory creates an empty in-memory archive.
func NewMemory() *Memory {
	return &Memory{snaps: make(map[uint64][]byte)}
}

// Put implements Archive.
func (m *Memory) Put(ctx context.Context, height uint64, r io.Reader) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.snaps[height] = data
	return nil
}

// Open implements Archive.
func (m *Memory) Open(ctx context.Context, height uint64) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	data, ok := m.snaps[height]
	m.mu.RUnlock()

	if !ok {
		return nil, ErrNotFound
	}
	// The stored slice is never mutated after Put, so the reader can
	// share it.
	return io.NopCloser(bytes.NewReader(data)), nil
}

// Latest implements Archive.
func (m *Memory) Latest(ctx context.Context) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	if len(m.snaps) == 0 {
		return 0, ErrNotFound
	}
	var latest uint64
	for height := range m.snaps {
		latest = max(latest, height)
	}
	return latest, nil
}

// List implements Archive.
func (m *Memory) List(ctx context.Context) ([]uint64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	heights := make([]uint64, 0, len(m.snaps))
	for height := range m.snaps {
		heights = append(heights, height)
	}
	slices.Sort(heights)
	return heights, nil
}

// Delete implements Archive.
func (m *Memory) Delete(ctx context.Context, height uint64) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.snaps, height)
	return nil
}
