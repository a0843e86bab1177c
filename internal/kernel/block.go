package kernel

// blockWidth is the number of lanes processed per iteration.
const blockWidth = 4

// squaredL2Block processes four lanes per iteration with two
// accumulators. Squared terms are non-negative, and a saturating fold of
// non-negative terms equals min(exact sum, MaxInt64) under every
// association, so the split cannot change the result.
func squaredL2Block(a, b []int64) int64 {
	var s0, s1 int64
	i := 0
	for ; i+blockWidth <= len(a); i += blockWidth {
		d0 := clampDiff(subSat(a[i], b[i]))
		d1 := clampDiff(subSat(a[i+1], b[i+1]))
		d2 := clampDiff(subSat(a[i+2], b[i+2]))
		d3 := clampDiff(subSat(a[i+3], b[i+3]))
		s0 = addSat(s0, d0*d0)
		s1 = addSat(s1, d1*d1)
		s0 = addSat(s0, d2*d2)
		s1 = addSat(s1, d3*d3)
	}
	for ; i < len(a); i++ {
		d := clampDiff(subSat(a[i], b[i]))
		s0 = addSat(s0, d*d)
	}
	return addSat(s0, s1)
}

// dotBlock unrolls four lanes per iteration but folds into a single
// accumulator in index order. Dot terms carry mixed signs, so the fold
// must not reassociate.
func dotBlock(a, b []int64) int64 {
	var sum int64
	i := 0
	for ; i+blockWidth <= len(a); i += blockWidth {
		sum = addSat(sum, mulQ32(a[i], b[i]))
		sum = addSat(sum, mulQ32(a[i+1], b[i+1]))
		sum = addSat(sum, mulQ32(a[i+2], b[i+2]))
		sum = addSat(sum, mulQ32(a[i+3], b[i+3]))
	}
	for ; i < len(a); i++ {
		sum = addSat(sum, mulQ32(a[i], b[i]))
	}
	return sum
}
