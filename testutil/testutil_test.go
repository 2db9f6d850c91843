package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokens(t *testing.T) {
	rng := NewRNG(4711)

	tokens := rng.Tokens(100, 8)

	assert.Len(t, tokens, 100)
	for _, tok := range tokens {
		assert.GreaterOrEqual(t, tok, int32(0))
		assert.Less(t, tok, int32(8))
	}

	rng.Reset()
	assert.Equal(t, tokens, rng.Tokens(100, 8))
}

func TestZipfTokens(t *testing.T) {
	rng := NewRNG(4711)

	tokens := rng.ZipfTokens(2000, 16, 1.5)

	hist := make([]int, 16)
	for _, tok := range tokens {
		hist[tok]++
	}
	assert.Greater(t, hist[0], hist[15])
}

func TestText(t *testing.T) {
	rng := NewRNG(1)

	s := rng.Text(50, "ab")

	assert.Len(t, []rune(s), 50)
	for _, r := range s {
		assert.Contains(t, "ab", string(r))
	}
}

func TestCountNGrams(t *testing.T) {
	c := CountNGrams([]int32{1, 2, 1, 2}, 1, 2)

	assert.Equal(t, int32(2), c.Count([]int32{1}))
	assert.Equal(t, int32(2), c.Count([]int32{2}))
	assert.Equal(t, int32(2), c.Count([]int32{1, 2}))
	assert.Equal(t, int32(1), c.Count([]int32{2, 1}))
	assert.Equal(t, int32(0), c.Count([]int32{2, 2}))
	assert.Equal(t, 4, c.Len())

	keys := c.Keys(2)
	require.Len(t, keys, 2)
	assert.Equal(t, []int32{1, 2}, keys[0])
	assert.Equal(t, []int32{2, 1}, keys[1])
}
