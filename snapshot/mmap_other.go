//go:build !unix

package snapshot

import (
	"fmt"
	"os"
)

// Platforms without unix mmap read the whole file instead.

func mapFile(path string) ([]byte, *os.File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, err
	}
	if len(data) == 0 {
		return nil, nil, fmt.Errorf("%w: empty file", ErrTruncated)
	}
	return data, nil, nil
}

func unmapFile([]byte) error {
	return nil
}
