// Package mem provides memory allocation utilities.
//
// # Aligned Allocation
//
// Record tables keep their rows in one flat int32 buffer. The buffer is
// 64-byte aligned so that a record run starts on a cache line boundary.
//
// # Process Memory
//
// MaxRSS reports the peak resident set size of the process where the
// platform exposes it.
package mem
