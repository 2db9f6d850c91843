// Package trainer accumulates n-gram counts from token sequences into a store.
//
// For every start position i and every order n in [MinOrder, MaxOrder] with
// i+n inside the sequence, the sub-sequence tokens[i:i+n] is counted in the
// hot table of order n. Unknown keys are inserted with count 1; a full hot
// table is spilled into its cold table first.
//
// Work is split into bounded time slices. A Task can be stepped by the host
// one slice at a time, or run to completion with Run, which yields between
// slices. Cancellation is checked at the start of every slice and before every
// position; a cancelled run keeps the counts gathered so far.
package trainer
