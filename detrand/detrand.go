// Package detrand provides the deterministic random source used for
// level assignment during graph construction.
//
// Draws derive exclusively from keccak-256 over a seed and a counter:
// seed = keccak256(txHash XOR blockHash), draw n = the first 8 bytes of
// keccak256(seed || n as 8-byte big-endian) read big-endian. No system
// time, no hardware randomness, no process state. Two validators
// replaying the same transaction take identical draws in identical order.
package detrand

import (
	"encoding/binary"

	"github.com/vecdex/vecdex/internal/hash"
)

const two64 = float64(1<<63) * 2

// Source is a counter-mode keccak stream. Not safe for concurrent use;
// graph construction owns one source per transaction.
type Source struct {
	seed    [32]byte
	counter uint64
}

// New derives a source from a transaction hash and its block hash. The
// seed is keccak256 of their bytewise XOR.
func New(txHash, blockHash [32]byte) *Source {
	var x [32]byte
	for i := range x {
		x[i] = txHash[i] ^ blockHash[i]
	}
	return &Source{seed: hash.Keccak256(x[:])}
}

// NewFromSeed constructs a source over an explicit seed. Intended for
// tests and tooling; consensus callers go through New.
func NewFromSeed(seed [32]byte) *Source {
	return &Source{seed: seed}
}

// Uint64 returns the next raw 64-bit draw.
func (s *Source) Uint64() uint64 {
	var ctr [8]byte
	binary.BigEndian.PutUint64(ctr[:], s.counter)
	s.counter++
	sum := hash.Keccak256(s.seed[:], ctr[:])
	return binary.BigEndian.Uint64(sum[:8])
}

// Float64 returns the next draw divided by 2^64. The result lies in the
// closed interval [0, 1]: draws within 1024 of 2^64 round up to exactly
// 1.0. The uint64 to float64 conversion rounds to nearest even and the
// division only shifts the exponent, so the result is bit-stable across
// platforms. Level derivation works on Uint64 and never sees the upper
// edge.
func (s *Source) Float64() float64 {
	return float64(s.Uint64()) / two64
}

// Seed returns the derived seed, for logging and diagnostics.
func (s *Source) Seed() [32]byte {
	return s.seed
}

// Counter returns the number of draws taken so far.
func (s *Source) Counter() uint64 {
	return s.counter
}
