package snapshot

import (
	"encoding/binary"
	"fmt"
)

// NodeRecord is one node in the payload stream.
//
// Neighbors holds one list per layer, index 0 first, in the order the
// graph stores them. That order is selection history, not an id sort:
// it feeds future pruning decisions and must round-trip exactly.
type NodeRecord struct {
	ID        uint64
	Level     uint32
	Vector    []int64
	Neighbors [][]uint64
}

// levelHardCap bounds the level field during decode, before any
// per-layer allocation. The semantic cap is enforced by the graph
// loader; this only rejects garbage.
const levelHardCap = 64

// PayloadWriter builds the raw (uncompressed) payload stream.
type PayloadWriter struct {
	buf []byte
}

// NewPayloadWriter creates a writer with a pre-sized buffer.
func NewPayloadWriter(sizeHint int) *PayloadWriter {
	return &PayloadWriter{buf: make([]byte, 0, sizeHint)}
}

// AppendNode appends one node record. len(neighbors) must be level+1.
func (w *PayloadWriter) AppendNode(id uint64, level uint32, vector []int64, neighbors [][]uint64) {
	w.buf = binary.LittleEndian.AppendUint64(w.buf, id)
	w.buf = binary.LittleEndian.AppendUint32(w.buf, level)
	for _, c := range vector {
		w.buf = binary.LittleEndian.AppendUint64(w.buf, uint64(c))
	}
	for _, layer := range neighbors {
		w.buf = binary.LittleEndian.AppendUint32(w.buf, uint32(len(layer)))
		for _, nid := range layer {
			w.buf = binary.LittleEndian.AppendUint64(w.buf, nid)
		}
	}
}

// Bytes returns the accumulated payload.
func (w *PayloadWriter) Bytes() []byte {
	return w.buf
}

// PayloadReader decodes the raw payload stream.
type PayloadReader struct {
	buf       []byte
	off       int
	dimension int
}

// NewPayloadReader wraps a decoded payload buffer.
func NewPayloadReader(buf []byte, dimension int) *PayloadReader {
	return &PayloadReader{buf: buf, dimension: dimension}
}

// Remaining returns the number of unread payload bytes.
func (r *PayloadReader) Remaining() int {
	return len(r.buf) - r.off
}

func (r *PayloadReader) uint32At() (uint32, error) {
	if r.Remaining() < 4 {
		return 0, ErrTruncated
	}
	v := binary.LittleEndian.Uint32(r.buf[r.off:])
	r.off += 4
	return v, nil
}

func (r *PayloadReader) uint64At() (uint64, error) {
	if r.Remaining() < 8 {
		return 0, ErrTruncated
	}
	v := binary.LittleEndian.Uint64(r.buf[r.off:])
	r.off += 8
	return v, nil
}

// Next decodes the next node record.
func (r *PayloadReader) Next() (NodeRecord, error) {
	var rec NodeRecord
	var err error

	if rec.ID, err = r.uint64At(); err != nil {
		return rec, err
	}
	if rec.Level, err = r.uint32At(); err != nil {
		return rec, err
	}
	if rec.Level > levelHardCap {
		return rec, &CorruptError{Reason: fmt.Sprintf("node %d: level %d out of range", rec.ID, rec.Level)}
	}

	if r.Remaining() < 8*r.dimension {
		return rec, ErrTruncated
	}
	rec.Vector = make([]int64, r.dimension)
	for i := range rec.Vector {
		v, _ := r.uint64At()
		rec.Vector[i] = int64(v)
	}

	rec.Neighbors = make([][]uint64, rec.Level+1)
	for layer := range rec.Neighbors {
		count, err := r.uint32At()
		if err != nil {
			return rec, err
		}
		if int(count)*8 > r.Remaining() {
			return rec, ErrTruncated
		}
		list := make([]uint64, count)
		for i := range list {
			list[i], _ = r.uint64At()
		}
		rec.Neighbors[layer] = list
	}

	return rec, nil
}
