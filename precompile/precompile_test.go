package precompile

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vecdex/vecdex/fixpoint"
	"github.com/vecdex/vecdex/hnsw"
)

// buildInput assembles a store/query frame from a first word and raw
// float32 components.
func buildInput(first uint64, offset uint64, components []float32) []byte {
	buf := make([]byte, headerSize+4*len(components))
	binary.BigEndian.PutUint64(buf[wordSize-8:wordSize], first)
	binary.BigEndian.PutUint64(buf[2*wordSize-8:2*wordSize], offset)
	binary.BigEndian.PutUint64(buf[3*wordSize-8:3*wordSize], uint64(len(components)))
	for i, c := range components {
		binary.BigEndian.PutUint32(buf[headerSize+4*i:], math.Float32bits(c))
	}
	return buf
}

func TestDecodeStoreInput(t *testing.T) {
	in, err := DecodeStoreInput(buildInput(42, inputDataOffset, []float32{1.5, -2.25, 0}))
	require.NoError(t, err)
	assert.Equal(t, uint64(42), in.ID)
	assert.Equal(t, []float32{1.5, -2.25, 0}, in.Vector)
}

func TestDecodeStoreInputErrors(t *testing.T) {
	valid := buildInput(1, inputDataOffset, []float32{1, 2})

	tests := []struct {
		name  string
		input []byte
	}{
		{name: "empty", input: nil},
		{name: "short header", input: valid[:headerSize-1]},
		{name: "truncated components", input: valid[:len(valid)-2]},
		{name: "trailing bytes", input: append(append([]byte{}, valid...), 0, 0, 0, 0)},
		{name: "wrong offset", input: buildInput(1, 0x40, []float32{1, 2})},
		{name: "zero components", input: buildInput(1, inputDataOffset, nil)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeStoreInput(tt.input)
			assert.ErrorIs(t, err, ErrMalformedInput)
		})
	}

	t.Run("id with high bytes", func(t *testing.T) {
		input := buildInput(1, inputDataOffset, []float32{1, 2})
		input[0] = 0x01
		_, err := DecodeStoreInput(input)
		assert.ErrorIs(t, err, ErrMalformedInput)
	})
}

func TestDecodeQueryInput(t *testing.T) {
	in, err := DecodeQueryInput(buildInput(5, inputDataOffset, []float32{0.5, 0.25}))
	require.NoError(t, err)
	assert.Equal(t, 5, in.K)
	assert.Equal(t, []float32{0.5, 0.25}, in.Query)
}

func TestDecodeQueryInputBoundsK(t *testing.T) {
	_, err := DecodeQueryInput(buildInput(0, inputDataOffset, []float32{1}))
	assert.ErrorIs(t, err, ErrMalformedInput)

	_, err = DecodeQueryInput(buildInput(MaxK+1, inputDataOffset, []float32{1}))
	assert.ErrorIs(t, err, ErrMalformedInput)

	_, err = DecodeQueryInput(buildInput(MaxK, inputDataOffset, []float32{1}))
	assert.NoError(t, err)
}

func TestEncodeQueryOutputGolden(t *testing.T) {
	out := EncodeQueryOutput([]hnsw.Result{
		{ID: 7, Distance: 0},
	})
	require.Len(t, out, 6*wordSize)

	// [ids offset][scores offset][n][id 7][n][score 0.0]
	assert.Equal(t, uint64(0x40), binary.BigEndian.Uint64(out[wordSize-8:wordSize]))
	assert.Equal(t, uint64(0x80), binary.BigEndian.Uint64(out[2*wordSize-8:2*wordSize]))
	assert.Equal(t, uint64(1), binary.BigEndian.Uint64(out[3*wordSize-8:3*wordSize]))
	assert.Equal(t, uint64(7), binary.BigEndian.Uint64(out[4*wordSize-8:4*wordSize]))
	assert.Equal(t, uint64(1), binary.BigEndian.Uint64(out[5*wordSize-8:5*wordSize]))
	assert.Equal(t, math.Float32bits(0), binary.BigEndian.Uint32(out[6*wordSize-4:]))
}

func TestQueryOutputRoundTrip(t *testing.T) {
	results := []hnsw.Result{
		{ID: 1, Distance: 0},
		{ID: 99, Distance: fixpoint.Distance(1) << 62},
		{ID: ^uint64(0), Distance: fixpoint.Distance(math.MaxInt64)},
	}

	decoded, err := DecodeQueryOutput(EncodeQueryOutput(results))
	require.NoError(t, err)
	require.Len(t, decoded.IDs, len(results))
	for i, r := range results {
		assert.Equal(t, r.ID, decoded.IDs[i])
		assert.Equal(t, float32(r.Distance.Float64()), decoded.Scores[i])
	}
}

func TestQueryOutputRoundTripEmpty(t *testing.T) {
	decoded, err := DecodeQueryOutput(EncodeQueryOutput(nil))
	require.NoError(t, err)
	assert.Empty(t, decoded.IDs)
	assert.Empty(t, decoded.Scores)
}

func TestDecodeQueryOutputRejectsNonCanonical(t *testing.T) {
	valid := EncodeQueryOutput([]hnsw.Result{{ID: 3, Distance: 0}})

	t.Run("truncated", func(t *testing.T) {
		_, err := DecodeQueryOutput(valid[:len(valid)-wordSize])
		assert.ErrorIs(t, err, ErrMalformedInput)
	})
	t.Run("ragged", func(t *testing.T) {
		_, err := DecodeQueryOutput(valid[:len(valid)-1])
		assert.ErrorIs(t, err, ErrMalformedInput)
	})
	t.Run("score high bytes", func(t *testing.T) {
		corrupt := append([]byte{}, valid...)
		corrupt[5*wordSize+3] = 0x01
		_, err := DecodeQueryOutput(corrupt)
		assert.ErrorIs(t, err, ErrMalformedInput)
	})
	t.Run("wrong ids offset", func(t *testing.T) {
		corrupt := append([]byte{}, valid...)
		corrupt[wordSize-1] = 0x41
		_, err := DecodeQueryOutput(corrupt)
		assert.ErrorIs(t, err, ErrMalformedInput)
	})
}

// TestFloatBitsSurviveDecode pins the decode rule to raw IEEE-754 bit
// reinterpretation, the same rule the EVM side applies.
func TestFloatBitsSurviveDecode(t *testing.T) {
	components := []float32{0, -0, 1.5, float32(math.Inf(1)), float32(math.NaN())}
	in, err := DecodeStoreInput(buildInput(1, inputDataOffset, components))
	require.NoError(t, err)
	for i := range components {
		assert.Equal(t, math.Float32bits(components[i]), math.Float32bits(in.Vector[i]), "component %d", i)
	}
}
