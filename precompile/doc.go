// Package precompile implements the calldata framing of the vector
// precompiles: VECTOR_STORE carries an (id, vector) pair into the index
// and VECTOR_QUERY carries a k-nearest-neighbour search.
//
// The package owns byte structure only. Decoders validate framing
// (offsets, counts, word widths) and reject anything irregular with
// ErrMalformedInput; value-level checks such as dimension and
// fixed-point range stay with the index. Floats cross the boundary
// here and only here: components enter as big-endian float32 words,
// and scores leave as float32 narrowings of the squared distances.
// The narrowed scores are informational and never feed back into
// consensus state.
package precompile
