// Package snapshot defines the on-disk container for a serialized index:
// a fixed 64-byte header, a node-record payload in an optional
// compression codec, and a CRC32C trailer.
//
// The package owns the byte format only. Mapping a graph to and from
// node records, and validating what the records mean, happens in the
// hnsw package. Snapshots are an availability mechanism: integrity here
// is guarded by the checksum, while authenticity of the state itself is
// always re-established by recomputing the root hash after load.
package snapshot
