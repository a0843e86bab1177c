// Package vecdex provides a deterministic vector index for blockchain state.
//
// Vecdex is the vector-search component of a Layer-1 node: an HNSW
// (Hierarchical Navigable Small World) index whose root hash is folded into
// the consensus state root. Every validator that replays the same block must
// arrive at a byte-identical graph, so the index is engineered around three
// rules ordinary ANN libraries break:
//
//   - Fixed-point arithmetic. Vectors are stored as Q32.32 signed values and
//     all distance math is saturating integer math (package fixpoint). No
//     floats touch consensus state after the insert boundary.
//   - Deterministic randomness. Level draws come from a keccak-based counter
//     RNG seeded by (txHash, blockHash) (package detrand), never from
//     hardware or OS entropy.
//   - Canonical ordering. Inserts execute strictly in block transaction
//     order, and every distance tie anywhere in the algorithm breaks by
//     ascending node id.
//
// # Quick start
//
//	ix, err := vecdex.New(768)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer ix.Close()
//
//	// Block execution: one writer, canonical order.
//	err = ix.ApplyBlock(ctx, blockHash, []vecdex.TxInsert{
//	    {TxHash: tx1, ID: 1, Vector: embedding1},
//	    {TxHash: tx2, ID: 2, Vector: embedding2},
//	})
//
//	// After the block: fold the vector root into the state root.
//	stateRoot := ix.StateRoot(accountRoot)
//
//	// RPC side: concurrent reads.
//	results, err := ix.Search(ctx, query, 10)
//
// # Concurrency
//
// One Index is owned by a chain's state database. Writes (Insert, ApplyBlock,
// ReadSnapshot) are serialized by the execution layer and take the write
// lock; Search, SearchBatch, RootHash and the accessors take the read lock
// and may run concurrently with each other. Search results, the query cache
// and the rate limiter are node-local conveniences and never influence
// consensus state.
//
// # Snapshots
//
// WriteSnapshot serializes the full graph to a checksummed container
// (package snapshot) so a syncing node can bootstrap from a peer instead of
// replaying every block. A restored index replays subsequent blocks to the
// same root hash as the index that wrote the snapshot. Package snapstore
// publishes and fetches these containers from local disk or object storage.
package vecdex
