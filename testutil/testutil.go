package testutil

import (
	"math"
	"math/rand"
	"slices"
	"sort"
	"strconv"
	"strings"
	"sync"
)

// RNG struct encapsulates the random number generator and seed.
// It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed int64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewSource(seed)),
		seed: seed,
	}
}

// Reset resets the RNG to its initial seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand.Seed(r.seed)
}

// Seed returns the initial seed.
func (r *RNG) Seed() int64 {
	return r.seed
}

// Intn returns a non-negative pseudo-random number in [0,n).
func (r *RNG) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Intn(n)
}

// Tokens returns n token ids drawn uniformly from [0, vocab).
func (r *RNG) Tokens(n, vocab int) []int32 {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]int32, n)
	for i := range out {
		out[i] = int32(r.rand.Intn(vocab))
	}
	return out
}

// ZipfTokens returns n token ids in [0, vocab) with a Zipfian distribution,
// which is closer to natural text than uniform ids.
func (r *RNG) ZipfTokens(n, vocab int, s float64) []int32 {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]int32, n)
	for i := range out {
		out[i] = int32(r.zipfLocked(vocab, s))
	}
	return out
}

// Text returns n random characters from alphabet.
func (r *RNG) Text(n int, alphabet string) string {
	r.mu.Lock()
	defer r.mu.Unlock()

	runes := []rune(alphabet)
	var b strings.Builder
	for range n {
		b.WriteRune(runes[r.rand.Intn(len(runes))])
	}
	return b.String()
}

// Zipf returns a Zipfian-distributed value in [0, n).
// P(k) ∝ 1/k^s where s is the skew parameter.
func (r *RNG) Zipf(n int, s float64) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.zipfLocked(n, s)
}

// zipfLocked is the internal implementation (caller must hold lock).
func (r *RNG) zipfLocked(n int, s float64) int {
	if n <= 1 {
		return 0
	}

	var hns float64
	for i := 1; i <= n; i++ {
		hns += 1.0 / math.Pow(float64(i), s)
	}

	u := r.rand.Float64() * hns
	var cumulative float64
	for k := 1; k <= n; k++ {
		cumulative += 1.0 / math.Pow(float64(k), s)
		if u <= cumulative {
			return k - 1
		}
	}

	return n - 1
}

// NGramCounts is a map-backed reference counter for n-grams.
type NGramCounts struct {
	counts map[string]int32
	keys   map[string][]int32
}

// CountNGrams counts every n-gram of order minOrder..maxOrder in tokens.
func CountNGrams(tokens []int32, minOrder, maxOrder int) *NGramCounts {
	c := &NGramCounts{
		counts: make(map[string]int32),
		keys:   make(map[string][]int32),
	}
	for i := range tokens {
		for n := minOrder; n <= maxOrder && i+n <= len(tokens); n++ {
			c.Add(tokens[i : i+n])
		}
	}
	return c
}

// Add counts one occurrence of key.
func (c *NGramCounts) Add(key []int32) {
	k := encode(key)
	if _, ok := c.keys[k]; !ok {
		c.keys[k] = slices.Clone(key)
	}
	c.counts[k]++
}

// Count returns the number of occurrences of key.
func (c *NGramCounts) Count(key []int32) int32 {
	return c.counts[encode(key)]
}

// Len returns the number of distinct n-grams.
func (c *NGramCounts) Len() int {
	return len(c.counts)
}

// Keys returns the distinct n-grams of the given order in ascending order.
func (c *NGramCounts) Keys(order int) [][]int32 {
	var out [][]int32
	for _, key := range c.keys {
		if len(key) == order {
			out = append(out, key)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return slices.Compare(out[i], out[j]) < 0
	})
	return out
}

func encode(key []int32) string {
	var b strings.Builder
	for i, v := range key {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatInt(int64(v), 10))
	}
	return b.String()
}
