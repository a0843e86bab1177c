package fixpoint

import (
	"slices"

	"github.com/vecdex/vecdex/internal/kernel"
)

// Vector is a fixed-point vector. Each component is a raw Q32.32 value.
type Vector []int64

// FromFloat32Slice converts float32 components to a fixed-point vector.
// The returned error identifies the first offending component.
func FromFloat32Slice(src []float32) (Vector, error) {
	v := make(Vector, len(src))
	for i, f := range src {
		raw, ok := fromFloat64(float64(f))
		if !ok {
			return nil, &ErrOverflow{Value: float64(f), Index: i}
		}
		v[i] = raw
	}
	return v, nil
}

// Float32Slice converts v back to float32 components. Boundary use only.
func (v Vector) Float32Slice() []float32 {
	out := make([]float32, len(v))
	for i, raw := range v {
		out[i] = float32(ToFloat64(raw))
	}
	return out
}

// Clone returns a copy of v.
func (v Vector) Clone() Vector {
	return slices.Clone(v)
}

// Distance is a squared L2 distance in raw squared units: the
// mathematical squared distance scaled by 2^64. Always non-negative.
type Distance int64

// Float64 converts d to the mathematical squared distance. Boundary use
// only: ordering and hashing always use the raw value.
func (d Distance) Float64() float64 {
	return float64(d) / two64
}

// SquaredDistance computes the saturating squared L2 distance between a
// and b.
//
// SAFETY: Assumes len(a) == len(b). Dimension checks belong to callers.
func SquaredDistance(a, b Vector) Distance {
	return Distance(kernel.SquaredL2(a, b))
}

// Dot computes the saturating Q32.32 dot product of a and b.
//
// SAFETY: Assumes len(a) == len(b). Dimension checks belong to callers.
func Dot(a, b Vector) int64 {
	return kernel.Dot(a, b)
}
