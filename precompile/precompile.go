package precompile

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/vecdex/vecdex/hnsw"
)

// ErrMalformedInput reports a structurally invalid calldata frame. The
// wrapped detail names the offending field.
var ErrMalformedInput = errors.New("precompile: malformed input")

const (
	wordSize   = 32
	headerSize = 3 * wordSize

	// inputDataOffset is the only accepted value of the offset word in
	// store and query inputs: components start right after the header.
	inputDataOffset = headerSize

	// outputIDsOffset is where the ids block of a query output starts,
	// right after the two offset words.
	outputIDsOffset = 2 * wordSize
)

// MaxK caps the k word of a query input. The gas schedule clamps much
// harder; this bound only stops a single frame from demanding an
// unbounded result allocation.
const MaxK = 1024

// StoreInput is a decoded VECTOR_STORE call: the id to mint and its raw
// float32 components. Dimension and fixed-point range are checked by
// the index, not here.
type StoreInput struct {
	ID     uint64
	Vector []float32
}

// QueryInput is a decoded VECTOR_QUERY call.
type QueryInput struct {
	K     int
	Query []float32
}

// QueryOutput is a decoded VECTOR_QUERY result frame. Scores carry the
// float32 narrowing of each squared distance; exact distances exist
// only inside the index.
type QueryOutput struct {
	IDs    []uint64
	Scores []float32
}

// DecodeStoreInput parses a VECTOR_STORE frame:
//
//	[id: 32B][offset: 32B][count: 32B][count x float32, big-endian]
//
// The offset word must equal 0x60 and the frame must end exactly after
// the last component.
func DecodeStoreInput(input []byte) (StoreInput, error) {
	if len(input) < headerSize {
		return StoreInput{}, fmt.Errorf("%w: input of %d bytes is shorter than the %d-byte header",
			ErrMalformedInput, len(input), headerSize)
	}
	id, ok := wordUint64(word(input, 0))
	if !ok {
		return StoreInput{}, fmt.Errorf("%w: id word does not fit uint64", ErrMalformedInput)
	}
	if off, ok := wordUint64(word(input, 1)); !ok || off != inputDataOffset {
		return StoreInput{}, fmt.Errorf("%w: component offset must be %#x", ErrMalformedInput, inputDataOffset)
	}
	count, ok := wordUint64(word(input, 2))
	if !ok {
		return StoreInput{}, fmt.Errorf("%w: component count word does not fit uint64", ErrMalformedInput)
	}
	vec, err := decodeComponents(input[headerSize:], count)
	if err != nil {
		return StoreInput{}, err
	}
	return StoreInput{ID: id, Vector: vec}, nil
}

// DecodeQueryInput parses a VECTOR_QUERY frame. The layout matches
// DecodeStoreInput with k in place of the id; k must be between 1 and
// MaxK.
func DecodeQueryInput(input []byte) (QueryInput, error) {
	if len(input) < headerSize {
		return QueryInput{}, fmt.Errorf("%w: input of %d bytes is shorter than the %d-byte header",
			ErrMalformedInput, len(input), headerSize)
	}
	k, ok := wordUint64(word(input, 0))
	if !ok || k == 0 || k > MaxK {
		return QueryInput{}, fmt.Errorf("%w: k must be between 1 and %d", ErrMalformedInput, MaxK)
	}
	if off, ok := wordUint64(word(input, 1)); !ok || off != inputDataOffset {
		return QueryInput{}, fmt.Errorf("%w: component offset must be %#x", ErrMalformedInput, inputDataOffset)
	}
	count, ok := wordUint64(word(input, 2))
	if !ok {
		return QueryInput{}, fmt.Errorf("%w: component count word does not fit uint64", ErrMalformedInput)
	}
	query, err := decodeComponents(input[headerSize:], count)
	if err != nil {
		return QueryInput{}, err
	}
	return QueryInput{K: int(k), Query: query}, nil
}

// EncodeQueryOutput builds a VECTOR_QUERY result frame:
//
//	[offset-to-ids: 32B][offset-to-scores: 32B]
//	[n: 32B][n x id word][n: 32B][n x score word]
//
// Both offsets point at the length word of their block. A score word is
// the big-endian float32 bits of the squared distance, right-aligned.
func EncodeQueryOutput(results []hnsw.Result) []byte {
	n := len(results)
	out := make([]byte, (4+2*n)*wordSize)
	putWordUint64(word(out, 0), outputIDsOffset)
	putWordUint64(word(out, 1), uint64((3+n)*wordSize))
	putWordUint64(word(out, 2), uint64(n))
	putWordUint64(word(out, 3+n), uint64(n))
	for i, r := range results {
		putWordUint64(word(out, 3+i), r.ID)
		bits := math.Float32bits(float32(r.Distance.Float64()))
		binary.BigEndian.PutUint32(word(out, 4+n+i)[wordSize-4:], bits)
	}
	return out
}

// DecodeQueryOutput parses a frame produced by EncodeQueryOutput. Only
// the canonical encoding is accepted: fixed offsets, matching lengths,
// no stray high bytes.
func DecodeQueryOutput(output []byte) (QueryOutput, error) {
	if len(output)%wordSize != 0 || len(output) < 4*wordSize {
		return QueryOutput{}, fmt.Errorf("%w: output of %d bytes is not a whole frame", ErrMalformedInput, len(output))
	}
	if off, ok := wordUint64(word(output, 0)); !ok || off != outputIDsOffset {
		return QueryOutput{}, fmt.Errorf("%w: ids offset must be %#x", ErrMalformedInput, outputIDsOffset)
	}
	words := len(output) / wordSize
	n, ok := wordUint64(word(output, 2))
	if !ok || n > uint64(words) || uint64(words) != 4+2*n {
		return QueryOutput{}, fmt.Errorf("%w: length word does not match frame size", ErrMalformedInput)
	}
	scoresOffset := uint64((3 + int(n)) * wordSize)
	if off, ok := wordUint64(word(output, 1)); !ok || off != scoresOffset {
		return QueryOutput{}, fmt.Errorf("%w: scores offset must be %#x", ErrMalformedInput, scoresOffset)
	}
	if m, ok := wordUint64(word(output, 3+int(n))); !ok || m != n {
		return QueryOutput{}, fmt.Errorf("%w: ids and scores lengths differ", ErrMalformedInput)
	}

	res := QueryOutput{
		IDs:    make([]uint64, n),
		Scores: make([]float32, n),
	}
	for i := range res.IDs {
		id, ok := wordUint64(word(output, 3+i))
		if !ok {
			return QueryOutput{}, fmt.Errorf("%w: id word %d does not fit uint64", ErrMalformedInput, i)
		}
		res.IDs[i] = id
	}
	for i := range res.Scores {
		w := word(output, 4+int(n)+i)
		for _, b := range w[:wordSize-4] {
			if b != 0 {
				return QueryOutput{}, fmt.Errorf("%w: score word %d has high bytes set", ErrMalformedInput, i)
			}
		}
		res.Scores[i] = math.Float32frombits(binary.BigEndian.Uint32(w[wordSize-4:]))
	}
	return res, nil
}

func decodeComponents(data []byte, count uint64) ([]float32, error) {
	if count == 0 {
		return nil, fmt.Errorf("%w: zero components", ErrMalformedInput)
	}
	if len(data)%4 != 0 || uint64(len(data)/4) != count {
		return nil, fmt.Errorf("%w: %d components but %d data bytes", ErrMalformedInput, count, len(data))
	}
	out := make([]float32, count)
	for i := range out {
		out[i] = math.Float32frombits(binary.BigEndian.Uint32(data[4*i:]))
	}
	return out, nil
}

func word(b []byte, i int) []byte {
	return b[i*wordSize : (i+1)*wordSize]
}

// wordUint64 reads a 32-byte big-endian word whose value must fit in a
// uint64, meaning the high 24 bytes are zero.
func wordUint64(w []byte) (uint64, bool) {
	for _, b := range w[:wordSize-8] {
		if b != 0 {
			return 0, false
		}
	}
	return binary.BigEndian.Uint64(w[wordSize-8:]), true
}

func putWordUint64(w []byte, v uint64) {
	binary.BigEndian.PutUint64(w[wordSize-8:], v)
}
