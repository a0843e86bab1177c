package kernel

import (
	"os"
	"runtime"
	"strings"
)

// Strategy identifies a kernel implementation.
type Strategy uint8

const (
	// Scalar is the reference implementation, one component at a time.
	Scalar Strategy = iota
	// Block processes four lanes per iteration with a scalar tail.
	Block
)

// String returns the string representation of a Strategy.
func (s Strategy) String() string {
	switch s {
	case Scalar:
		return "scalar"
	case Block:
		return "block"
	default:
		return "unknown"
	}
}

// ParseStrategy parses a string into a Strategy value.
func ParseStrategy(s string) (Strategy, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "scalar":
		return Scalar, true
	case "block":
		return Block, true
	default:
		return Scalar, false
	}
}

// Kernel function pointers - set once at init, zero runtime overhead.
var (
	squaredL2Impl = squaredL2Scalar
	dotImpl       = dotScalar
)

// Package-level state - initialized once at package init.
// No mutex needed: Go guarantees init() runs before any other code.
var (
	activeStrategy Strategy
	hasOverride    bool
)

func init() {
	initStrategy()
}

func initStrategy() {
	if override := os.Getenv("VECDEX_KERNEL"); override != "" {
		if s, ok := ParseStrategy(override); ok {
			hasOverride = true
			setStrategy(s)
			return
		}
	}
	setStrategy(selectBestStrategy())
}

// selectBestStrategy picks the default for the current platform. The block
// kernel wants fast 64x64 multiplies, so it is reserved for 64-bit targets.
func selectBestStrategy() Strategy {
	switch runtime.GOARCH {
	case "amd64", "arm64":
		return Block
	default:
		return Scalar
	}
}

func setStrategy(s Strategy) {
	activeStrategy = s
	switch s {
	case Block:
		squaredL2Impl = squaredL2Block
		dotImpl = dotBlock
	default:
		squaredL2Impl = squaredL2Scalar
		dotImpl = dotScalar
	}
}

// Active returns the currently selected strategy.
func Active() Strategy {
	return activeStrategy
}

// IsOverridden returns true if VECDEX_KERNEL forced the selection.
func IsOverridden() bool {
	return hasOverride
}

// SquaredL2 computes the saturating squared L2 distance between two raw
// Q32.32 component slices. Result units are raw squared (the mathematical
// squared distance scaled by 2^64). Always non-negative.
//
// SAFETY: Assumes len(a) == len(b). Caller MUST ensure lengths match.
func SquaredL2(a, b []int64) int64 {
	return squaredL2Impl(a, b)
}

// Dot computes the saturating Q32.32 dot product of two raw component
// slices. Each product is rescaled back to Q32.32 (arithmetic shift by the
// fractional width, truncating toward zero) before the saturating fold.
//
// SAFETY: Assumes len(a) == len(b). Caller MUST ensure lengths match.
func Dot(a, b []int64) int64 {
	return dotImpl(a, b)
}

// SquaredL2With evaluates with an explicit strategy, bypassing the
// selected one. Equivalence checks compare strategies through this.
func SquaredL2With(s Strategy, a, b []int64) int64 {
	if s == Block {
		return squaredL2Block(a, b)
	}
	return squaredL2Scalar(a, b)
}

// DotWith evaluates with an explicit strategy, bypassing the selected one.
func DotWith(s Strategy, a, b []int64) int64 {
	if s == Block {
		return dotBlock(a, b)
	}
	return dotScalar(a, b)
}
