// Package kernel provides the fixed-point distance kernels behind the
// fixpoint package.
//
// Two strategies are compiled on every platform:
//
//   - Scalar: the reference implementation. One component at a time,
//     saturating arithmetic throughout. This is the correctness oracle
//     for the consensus rules.
//   - Block: processes four lanes per iteration with a scalar tail.
//     Bit-identical to Scalar for every input, including lengths that
//     are not a multiple of the block width.
//
// Block is selected on 64-bit targets, Scalar elsewhere. The VECDEX_KERNEL
// environment variable forces either strategy; equivalence tests run both
// against each other regardless of selection.
//
// All kernels are branch-stable integer code. No floating point is used
// anywhere in this package.
package kernel
