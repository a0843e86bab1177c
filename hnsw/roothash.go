package hnsw

import (
	"github.com/vecdex/vecdex/internal/hash"
)

// RootHash returns the keccak256 commitment to the graph: the node
// frames of every live node, concatenated in ascending id order, hashed
// as one stream. The empty graph hashes the empty stream.
//
// The entry point and top layer are excluded on purpose. Both are a
// function of the node set under deterministic replay, and hashing them
// would only double-commit derived state.
func (g *Graph) RootHash() [32]byte {
	h := hash.NewKeccak256()

	var frame []byte
	it := g.ids.Iterator()
	for it.HasNext() {
		pos := g.byID[it.Next()]
		n := &g.nodes[pos]

		if cap(frame) < frameSize(n) {
			frame = make([]byte, 0, frameSize(n))
		}
		frame = appendNodeFrame(frame[:0], n)
		_, _ = h.Write(frame)
	}

	var out [32]byte
	h.Sum(out[:0])
	return out
}
