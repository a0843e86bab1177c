package fixpoint

import (
	"fmt"
	"math"

	"github.com/vecdex/vecdex/internal/kernel"
)

const (
	// FracBits is the number of fractional bits in a Q32.32 value.
	FracBits = 32

	// One is the raw Q32.32 representation of 1.0.
	One int64 = 1 << FracBits

	// ClampBound is the magnitude bound applied to component differences
	// before squaring: floor(sqrt(MaxInt64)).
	ClampBound int64 = kernel.ClampBound
)

// Exact in float64: powers of two only touch the exponent.
const (
	two63 = float64(1 << 63)
	two64 = two63 * 2
)

// ErrOverflow is returned when a floating point value cannot be
// represented as Q32.32. NaN and the infinities report as overflow too.
type ErrOverflow struct {
	Value float64
	Index int // position in the source slice, -1 for scalar conversions
}

// Error implements the error interface.
func (e *ErrOverflow) Error() string {
	if e.Index >= 0 {
		return fmt.Sprintf("fixpoint: component %d (%g) does not fit Q32.32", e.Index, e.Value)
	}
	return fmt.Sprintf("fixpoint: value %g does not fit Q32.32", e.Value)
}

// fromFloat64 converts f to raw Q32.32, reporting representability.
// float64(float32) and the scale by 2^32 are both exact, so the only
// rounding happens inside math.Round: to nearest, ties away from zero,
// one fixed rule on every platform.
func fromFloat64(f float64) (int64, bool) {
	scaled := math.Round(f * float64(One))
	if math.IsNaN(scaled) || scaled >= two63 || scaled < -two63 {
		return 0, false
	}
	return int64(scaled), true
}

// FromFloat32 converts a single float32 to a raw Q32.32 value.
func FromFloat32(f float32) (int64, error) {
	raw, ok := fromFloat64(float64(f))
	if !ok {
		return 0, &ErrOverflow{Value: float64(f), Index: -1}
	}
	return raw, nil
}

// FromFloat64 converts a single float64 to a raw Q32.32 value.
func FromFloat64(f float64) (int64, error) {
	raw, ok := fromFloat64(f)
	if !ok {
		return 0, &ErrOverflow{Value: f, Index: -1}
	}
	return raw, nil
}

// ToFloat64 converts a raw Q32.32 value back to float64. Boundary use
// only: consensus paths never consume the result.
func ToFloat64(raw int64) float64 {
	return float64(raw) / float64(One)
}
