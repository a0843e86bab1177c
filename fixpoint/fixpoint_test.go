package fixpoint

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromFloat32(t *testing.T) {
	tests := []struct {
		name     string
		in       float32
		expected int64
	}{
		{"Zero", 0, 0},
		{"One", 1.0, One},
		{"Minus one", -1.0, -One},
		{"Quarter", 0.25, 1 << 30},
		{"Minus half", -0.5, -(1 << 31)},
		{"Tenth is exact in Q32.32", 0.1, 429496736},
		{"Min int", -2147483648, math.MinInt64},
		{"Largest below 2^31", 2147483520, math.MaxInt64 - (1 << 39) + 1},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			raw, err := FromFloat32(tc.in)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, raw)
		})
	}
}

// Every float32 with magnitude >= 2^-8 scales to an exact integer, so the
// rounding rule only shows at tiny magnitudes. 2^-33 scales to exactly
// 0.5: ties round away from zero.
func TestFromFloat32Rounding(t *testing.T) {
	halfULP := float32(math.Exp2(-33))

	raw, err := FromFloat32(halfULP)
	require.NoError(t, err)
	assert.Equal(t, int64(1), raw)

	raw, err = FromFloat32(-halfULP)
	require.NoError(t, err)
	assert.Equal(t, int64(-1), raw)

	raw, err = FromFloat32(float32(math.Exp2(-34)))
	require.NoError(t, err)
	assert.Equal(t, int64(0), raw)
}

func TestFromFloat32Overflow(t *testing.T) {
	tests := []struct {
		name string
		in   float32
	}{
		{"Two to the 31", 2147483648},
		{"Max float32", math.MaxFloat32},
		{"Below min", -2147483904}, // first float32 under -2^31
		{"NaN", float32(math.NaN())},
		{"Positive infinity", float32(math.Inf(1))},
		{"Negative infinity", float32(math.Inf(-1))},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := FromFloat32(tc.in)
			var oe *ErrOverflow
			require.ErrorAs(t, err, &oe)
			assert.Equal(t, -1, oe.Index)
		})
	}
}

func TestFromFloat32SliceReportsIndex(t *testing.T) {
	_, err := FromFloat32Slice([]float32{1, 2, float32(math.Inf(1)), 4})

	var oe *ErrOverflow
	require.True(t, errors.As(err, &oe))
	assert.Equal(t, 2, oe.Index)
	assert.Contains(t, oe.Error(), "component 2")
}

func TestToFloat64RoundTrip(t *testing.T) {
	for _, f := range []float32{0, 1, -1, 0.5, -0.25, 1024.75, -99.5} {
		raw, err := FromFloat32(f)
		require.NoError(t, err)
		assert.Equal(t, float64(f), ToFloat64(raw))
	}
}

func TestSquaredDistanceGolden(t *testing.T) {
	a, err := FromFloat32Slice([]float32{0.25, 0})
	require.NoError(t, err)
	b, err := FromFloat32Slice([]float32{0, 0.25})
	require.NoError(t, err)

	d := SquaredDistance(a, b)
	assert.Equal(t, Distance(1<<61), d)
	assert.Equal(t, 0.125, d.Float64())
}

func TestSquaredDistanceSymmetry(t *testing.T) {
	a := Vector{math.MaxInt64, -1, 0, 123456789}
	b := Vector{math.MinInt64, 1, -42, -987654321}

	assert.Equal(t, SquaredDistance(a, b), SquaredDistance(b, a))
}

func TestSquaredDistanceSelfIsZero(t *testing.T) {
	v := Vector{math.MaxInt64, math.MinInt64, 0, One, -One}
	assert.Equal(t, Distance(0), SquaredDistance(v, v))
}

func TestDotGolden(t *testing.T) {
	a, err := FromFloat32Slice([]float32{1.5, -2})
	require.NoError(t, err)
	b, err := FromFloat32Slice([]float32{2, 0.25})
	require.NoError(t, err)

	// 1.5*2 - 2*0.25 = 2.5
	assert.Equal(t, int64(5)<<31, Dot(a, b))
}

func TestClampBoundIsIntegerSqrtOfMaxInt64(t *testing.T) {
	cb := uint64(ClampBound)
	assert.LessOrEqual(t, cb*cb, uint64(math.MaxInt64))
	assert.Greater(t, (cb+1)*(cb+1), uint64(math.MaxInt64))
}

func TestClone(t *testing.T) {
	v := Vector{1, 2, 3}
	c := v.Clone()
	c[0] = 99

	assert.Equal(t, int64(1), v[0])
}
