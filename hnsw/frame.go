package hnsw

import (
	"encoding/binary"
	"slices"
)

// appendNodeFrame appends the canonical hash frame for one node:
//
//	id          8 bytes big-endian
//	level       8 bytes big-endian
//	components  dimension x 8 bytes big-endian, two's complement
//	per layer 0..level:
//	  count     8 bytes big-endian
//	  neighbors count x 8 bytes big-endian, ascending
//
// Neighbor ids are sorted here rather than stored sorted: the stored
// order encodes selection priority and feeds pruning, while the frame
// only commits to the edge set.
func appendNodeFrame(dst []byte, n *node) []byte {
	dst = binary.BigEndian.AppendUint64(dst, n.id)
	dst = binary.BigEndian.AppendUint64(dst, uint64(n.level))

	for _, c := range n.vector {
		dst = binary.BigEndian.AppendUint64(dst, uint64(c))
	}

	for layer := 0; layer <= int(n.level); layer++ {
		conns := slices.Clone(n.neighbors[layer])
		slices.Sort(conns)

		dst = binary.BigEndian.AppendUint64(dst, uint64(len(conns)))
		for _, c := range conns {
			dst = binary.BigEndian.AppendUint64(dst, c)
		}
	}

	return dst
}

// frameSize returns the byte length of a node's frame.
func frameSize(n *node) int {
	size := 16 + 8*len(n.vector)
	for layer := 0; layer <= int(n.level); layer++ {
		size += 8 + 8*len(n.neighbors[layer])
	}
	return size
}
