package kernel

// CPU feature flags (set by platform-specific init). Strategy selection
// never depends on these: the kernels are pure Go and correct everywhere.
// The flags exist so operators can log the hardware profile when
// investigating cross-validator divergence reports.
var (
	hasAVX2    bool
	hasAVX512F bool
	hasASIMD   bool
	hasSVE2    bool
)

// Features reports the detected CPU SIMD features, diagnostic only.
func Features() []string {
	var f []string
	if hasAVX2 {
		f = append(f, "avx2")
	}
	if hasAVX512F {
		f = append(f, "avx512f")
	}
	if hasASIMD {
		f = append(f, "neon")
	}
	if hasSVE2 {
		f = append(f, "sve2")
	}
	return f
}
