// Package container holds point clouds in memory.
//
// A Container stores a runtime-defined list of attributes for every point.
// Records are interleaved: point i occupies RecordSize bytes starting at
// i*RecordSize, and within a record the attributes follow their insertion
// order, each encoded little-endian with its declared primitive type. The
// insertion order is therefore also the on-disk column order of formats that
// dump records verbatim.
//
// Values are exchanged as float64 and converted to and from the declared
// type on access. 64-bit integers beyond 2^53 lose precision through this
// path; use Record or Bytes for bit-exact transfers.
//
// A Container is not safe for concurrent mutation.
package container
