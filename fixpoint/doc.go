// Package fixpoint implements the Q32.32 fixed-point arithmetic used for
// all consensus-visible vector math.
//
// A Q32.32 value is a signed 64-bit integer with 32 integer bits and 32
// fractional bits. Floating point exists only at the boundary: callers
// convert float32 components in and read float64 distances out, while
// insertion, search, and hashing operate on raw integers alone. Replaying
// the same inputs on any platform produces the same bits.
//
// # Conversion
//
//	v, err := fixpoint.FromFloat32Slice([]float32{0.1, 0.2})
//
// Conversion rounds the scaled value to nearest (ties away from zero) and
// rejects anything outside the representable range, including NaN and the
// infinities, with *ErrOverflow.
//
// # Distances
//
// SquaredDistance reports raw squared units: the mathematical squared
// distance scaled by 2^64. Component differences are clamped to
// ±ClampBound before squaring so no input can overflow the accumulator.
// Dot rescales each product back to Q32.32. Both saturate instead of
// wrapping.
package fixpoint
