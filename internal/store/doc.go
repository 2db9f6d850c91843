// Package store implements the tiered per-order record store.
//
// For every n-gram order n in [MinOrder, MaxOrder] the store owns two tables
// with key width n and value width 2:
//
//   - hot: small, receives every new observation
//   - cold: large, accumulates the merged result
//
// When a hot table is full it is spilled into its cold table and cleared.
// Cold tables are never cleared; they are what generation reads.
//
// All tables are allocated together on the first call to Init and are never
// resized. Each buffer is reserved against the resource controller's memory
// budget before allocation.
package store
