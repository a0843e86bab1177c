// Package hash hosts the two hash families the index depends on, kept
// behind one package so the rest of the tree never imports crypto or
// checksum primitives directly.
//
// # Keccak-256
//
// Keccak256 is the consensus commitment function: it derives the
// deterministic RNG seed and counter stream, and folds node frames into
// the graph root hash. Its output is part of replicated state, so the
// exact function (legacy Keccak, not SHA3-256 with domain padding)
// matters.
//
// # CRC32-Castagnoli (CRC32C)
//
// CRC32C guards snapshot containers against transport and storage
// corruption. It is an integrity check only and never enters consensus
// state. Castagnoli over IEEE because Go's crc32 package accelerates it
// in hardware on x86 (SSE4.2) and ARM (CRC extension), and it is the
// polynomial the surrounding storage ecosystem already standardizes on
// (iSCSI, RocksDB, LevelDB).
//
// For one-shot checksums:
//
//	checksum := hash.CRC32C(data)
//
// For streaming, ChecksumWriter and ChecksumReader wrap an io.Writer or
// io.Reader and accumulate the checksum of everything that passes
// through, so snapshot encode and decode checksum the byte stream
// without a second pass.
package hash
