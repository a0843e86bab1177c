package snapshot

import (
	"bytes"
	"fmt"
	"os"
)

// Mapped is a read-only view of a snapshot file, memory-mapped where
// the platform supports it and read into memory otherwise. It lets the
// CLI inspect multi-gigabyte snapshots without buffering them.
type Mapped struct {
	Info Info

	data []byte
	f    *os.File // nil when the fallback loaded the file into memory
}

// OpenMMap opens path and validates the container framing.
func OpenMMap(path string) (*Mapped, error) {
	data, f, err := mapFile(path)
	if err != nil {
		return nil, err
	}
	m := &Mapped{data: data, f: f}

	info, err := Inspect(bytes.NewReader(data))
	if err != nil {
		_ = m.Close()
		return nil, err
	}

	want := uint64(headerSize) + info.PayloadSize + uint64(trailerSize)
	if uint64(len(data)) < want {
		_ = m.Close()
		return nil, fmt.Errorf("%w: file is %d bytes, container needs %d", ErrTruncated, len(data), want)
	}
	if uint64(len(data)) > want {
		_ = m.Close()
		return nil, &CorruptError{Reason: fmt.Sprintf("%d trailing bytes after container", uint64(len(data))-want)}
	}

	m.Info = info
	return m, nil
}

// Bytes returns the mapped file contents. The slice is invalid after
// Close.
func (m *Mapped) Bytes() []byte {
	if m == nil {
		return nil
	}
	return m.data
}

// Decode reads the snapshot out of the mapping.
func (m *Mapped) Decode() (Meta, []byte, error) {
	return Read(bytes.NewReader(m.data))
}

// Verify checks the trailer and payload against the header.
func (m *Mapped) Verify() (Info, error) {
	return Verify(bytes.NewReader(m.data))
}

// Close releases the mapping and the underlying file.
func (m *Mapped) Close() error {
	if m == nil {
		return nil
	}
	var err error
	if m.f != nil {
		err = unmapFile(m.data)
		if closeErr := m.f.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
		m.f = nil
	}
	m.data = nil
	return err
}
