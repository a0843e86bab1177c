package vecdex

// Close marks the index closed and releases node-local resources. Every
// subsequent operation returns ErrClosed. Close is idempotent.
func (ix *Index) Close() error {
	if ix == nil {
		return nil
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()

	if ix.closed {
		return nil
	}
	ix.closed = true
	if ix.cache != nil {
		ix.cache.Purge()
	}
	return nil
}
