package kernel

import (
	"math"
	"math/bits"
)

// ClampBound is the largest magnitude a component difference may take
// before squaring: floor(sqrt(MaxInt64)). Clamping to ±ClampBound trades
// bounded precision loss at extreme magnitudes for a square that can
// never overflow a signed 64-bit integer.
const ClampBound int64 = 3_037_000_499

// fracBits is the fractional width of a Q32.32 value.
const fracBits = 32

// addSat returns a+b saturated to the int64 range.
// Overflow occurred iff the operands share a sign and the sum does not.
func addSat(a, b int64) int64 {
	s := a + b
	if (a^b) >= 0 && (a^s) < 0 {
		if a >= 0 {
			return math.MaxInt64
		}
		return math.MinInt64
	}
	return s
}

// subSat returns a-b saturated to the int64 range.
// Overflow occurred iff the operands differ in sign and the result
// flips away from a.
func subSat(a, b int64) int64 {
	d := a - b
	if (a^b) < 0 && (a^d) < 0 {
		if a >= 0 {
			return math.MaxInt64
		}
		return math.MinInt64
	}
	return d
}

// clampDiff clamps a component difference to ±ClampBound.
func clampDiff(d int64) int64 {
	if d > ClampBound {
		return ClampBound
	}
	if d < -ClampBound {
		return -ClampBound
	}
	return d
}

// mulQ32 multiplies two Q32.32 values through a 128-bit intermediate,
// truncates toward zero back to Q32.32 scale, and saturates. Works on
// magnitudes so truncation is symmetric around zero.
func mulQ32(a, b int64) int64 {
	neg := (a < 0) != (b < 0)
	ua, ub := uint64(a), uint64(b)
	if a < 0 {
		ua = uint64(-a)
	}
	if b < 0 {
		ub = uint64(-b)
	}
	hi, lo := bits.Mul64(ua, ub)
	if hi>>fracBits != 0 {
		if neg {
			return math.MinInt64
		}
		return math.MaxInt64
	}
	m := hi<<(64-fracBits) | lo>>fracBits
	if neg {
		if m > 1<<63 {
			return math.MinInt64
		}
		// m == 1<<63 negates to MinInt64 exactly
		return -int64(m)
	}
	if m > math.MaxInt64 {
		return math.MaxInt64
	}
	return int64(m)
}

// squaredL2Scalar is the reference squared distance kernel. Per
// component: saturating difference, clamp, exact square (cannot overflow
// after the clamp), saturating accumulate.
func squaredL2Scalar(a, b []int64) int64 {
	var sum int64
	for i := range a {
		d := clampDiff(subSat(a[i], b[i]))
		sum = addSat(sum, d*d)
	}
	return sum
}

// dotScalar is the reference dot product kernel. Products fold in index
// order: once mixed signs saturate, saturating addition stops commuting,
// so the fold order is part of the consensus contract.
func dotScalar(a, b []int64) int64 {
	var sum int64
	for i := range a {
		sum = addSat(sum, mulQ32(a[i], b[i]))
	}
	return sum
}
