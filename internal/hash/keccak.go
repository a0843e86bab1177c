package hash

import (
	"hash"

	"golang.org/x/crypto/sha3"
)

// Keccak256 computes the legacy Keccak-256 digest over the concatenation
// of the given slices. Legacy padding (the variant Ethereum uses), not
// FIPS-202 SHA3-256.
func Keccak256(data ...[]byte) [32]byte {
	h := sha3.NewLegacyKeccak256()
	for _, d := range data {
		h.Write(d)
	}
	var out [32]byte
	h.Sum(out[:0])
	return out
}

// NewKeccak256 returns a streaming legacy Keccak-256 hash.
func NewKeccak256() hash.Hash {
	return sha3.NewLegacyKeccak256()
}
