// Package visited tracks node visitation during a single graph traversal.
package visited

// Set tracks visited arena positions using a bitset plus a dirty list,
// so Reset touches only the words a traversal actually marked.
type Set struct {
	bits  []uint64
	dirty []uint32
}

// New creates a set sized for the given number of nodes.
func New(capacity int) *Set {
	return &Set{
		bits:  make([]uint64, (capacity+63)/64),
		dirty: make([]uint32, 0, 128),
	}
}

// Visit marks a position as visited.
func (v *Set) Visit(pos uint32) {
	wordIdx := int(pos >> 6)
	bitMask := uint64(1) << (pos & 63)

	if wordIdx >= len(v.bits) {
		v.grow(wordIdx + 1)
	}

	if v.bits[wordIdx]&bitMask == 0 {
		v.bits[wordIdx] |= bitMask
		v.dirty = append(v.dirty, pos)
	}
}

// Visited reports whether a position has been visited.
func (v *Set) Visited(pos uint32) bool {
	wordIdx := int(pos >> 6)
	if wordIdx >= len(v.bits) {
		return false
	}
	return v.bits[wordIdx]&(uint64(1)<<(pos&63)) != 0
}

// Reset clears every position visited since the last reset.
func (v *Set) Reset() {
	for _, pos := range v.dirty {
		v.bits[pos>>6] &^= uint64(1) << (pos & 63)
	}
	v.dirty = v.dirty[:0]
}

// EnsureCapacity grows the set to hold at least capacity positions.
func (v *Set) EnsureCapacity(capacity int) {
	words := (capacity + 63) / 64
	if words > len(v.bits) {
		v.grow(words)
	}
}

func (v *Set) grow(newLen int) {
	newCap := len(v.bits) * 2
	if newCap < newLen {
		newCap = newLen
	}

	newBits := make([]uint64, newCap)
	copy(newBits, v.bits)
	v.bits = newBits
}
