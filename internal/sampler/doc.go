// Package sampler generates token sequences by a random walk over the cold
// n-gram tables of a store.
//
// A session keeps a context of L tokens. The cold table of order L is searched
// for keys whose leading L-1 columns equal the context without its head token.
// When nothing matches, the head token is dropped and the next lower order is
// tried, down to the store's minimum order. One matching key is chosen
// uniformly at random; counts are reported but never used as weights. Its last
// column is the emitted token and the whole key becomes the next context.
//
// Sampling only reads cold tables. Callers must not train the same store
// while a session is active.
package sampler
