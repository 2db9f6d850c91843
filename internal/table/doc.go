// Package table implements a bounded, ordered array of fixed-width records.
//
// # Layout
//
// A Table holds up to Cap() records in a single flat int32 buffer. Every record
// is KeyWidth() key columns followed by ValueWidth() value columns:
//
//	┌──────────── stride = N + K ────────────┐
//	│ k0 │ k1 │ ... │ kN-1 │ v0 │ ... │ vK-1 │ record 0
//	│ k0 │ k1 │ ... │ kN-1 │ v0 │ ... │ vK-1 │ record 1
//	...
//
// Records occupy [0, Len()) with no gaps and are kept in strictly ascending
// lexicographic key order (column 0 most significant). Value column 0 is the
// occurrence counter.
//
// # Queries
//
// Exact lookups and insert positions are found by binary search. Prefix
// lookups compare only the first N-1 key columns; because of the global order
// every record sharing a prefix sits in one contiguous run, which
// ExpandPrefixRange discovers by scanning outward from any match.
//
// # Merging
//
// Merge moves every record of a small table into a larger one of identical
// layout with a backward two-pointer merge that writes into the free tail of
// the destination, so no scratch buffer is needed.
package table
