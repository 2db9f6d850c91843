// Package testutil provides testing utilities for gramstore.
//
// This package is intended for use in tests and benchmarks only.
// It provides helpers for generating token streams and for counting
// n-grams with a plain map as ground truth.
//
// # Token Streams
//
//	rng := testutil.NewRNG(seed)
//	tokens := rng.Tokens(10_000, 64)       // uniform ids in [0, 64)
//	skewed := rng.ZipfTokens(10_000, 64, 1.2)
//
// # Reference Counts
//
//	ref := testutil.CountNGrams(tokens, 1, 3)
//	ref.Count([]int32{4, 7}) // occurrences of the bigram 4 7
package testutil
