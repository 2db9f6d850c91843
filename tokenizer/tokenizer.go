// Package tokenizer splits text into fixed-width character chunks and maps
// each distinct chunk to a token id.
//
// Ids are assigned in order of first appearance, starting at 0, and the
// dictionary grows on demand while tokenizing. A final chunk shorter than the
// width is padded with Pad, which Detokenize strips again, so
// Detokenize(Tokenize(s)) == s for any s that does not contain Pad.
package tokenizer

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"unicode/utf8"
)

const (
	// Pad fills the last chunk of a text up to the token width.
	Pad = '\u25a1'
	// Unknown is rendered for ids missing from the dictionary.
	Unknown = '\ufffd'
	// MaxWidth is the largest supported token width in characters.
	MaxWidth = 12
)

// ErrInvalidWidth is returned for a width outside [1, MaxWidth].
var ErrInvalidWidth = errors.New("invalid token width")

// Tokenizer is a fixed-width chunk tokenizer with a shared, growing dictionary.
// It is safe for concurrent use.
type Tokenizer struct {
	width int

	mu    sync.RWMutex
	ids   map[string]int32
	texts []string
}

// New returns a tokenizer cutting text into chunks of width characters.
func New(width int) (*Tokenizer, error) {
	if width < 1 || width > MaxWidth {
		return nil, fmt.Errorf("%w: %d not in [1, %d]", ErrInvalidWidth, width, MaxWidth)
	}
	return &Tokenizer{
		width: width,
		ids:   make(map[string]int32),
	}, nil
}

// Width returns the chunk width in characters.
func (t *Tokenizer) Width() int { return t.width }

// Size returns the number of dictionary entries.
func (t *Tokenizer) Size() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.texts)
}

// Tokenize converts text to token ids, adding unseen chunks to the dictionary.
func (t *Tokenizer) Tokenize(text string) []int32 {
	chunks := t.chunks(text)
	out := make([]int32, 0, len(chunks))

	t.mu.Lock()
	defer t.mu.Unlock()
	for _, c := range chunks {
		id, ok := t.ids[c]
		if !ok {
			id = int32(len(t.texts))
			t.ids[c] = id
			t.texts = append(t.texts, c)
		}
		out = append(out, id)
	}
	return out
}

// TokenizePhases tokenizes text once per phase offset p in [0, Width()),
// dropping the first p characters, so chunks aligned to every character
// position are seen. Phases with no characters left are omitted.
func (t *Tokenizer) TokenizePhases(text string) [][]int32 {
	out := make([][]int32, 0, t.width)
	rest := text
	for p := 0; p < t.width && rest != ""; p++ {
		out = append(out, t.Tokenize(rest))
		_, size := utf8.DecodeRuneInString(rest)
		rest = rest[size:]
	}
	return out
}

// Lookup returns the id of chunk without growing the dictionary.
func (t *Tokenizer) Lookup(chunk string) (int32, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	id, ok := t.ids[chunk]
	return id, ok
}

// Text returns the display form of id with padding removed.
func (t *Tokenizer) Text(id int32) string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if id < 0 || int(id) >= len(t.texts) {
		return string(Unknown)
	}
	return strings.ReplaceAll(t.texts[id], string(Pad), "")
}

// Detokenize joins the chunks of ids and removes padding.
func (t *Tokenizer) Detokenize(ids []int32) string {
	var sb strings.Builder
	t.mu.RLock()
	for _, id := range ids {
		if id < 0 || int(id) >= len(t.texts) {
			sb.WriteRune(Unknown)
			continue
		}
		sb.WriteString(t.texts[id])
	}
	t.mu.RUnlock()
	return strings.ReplaceAll(sb.String(), string(Pad), "")
}

// chunks cuts text into width-rune pieces, padding the last one.
func (t *Tokenizer) chunks(text string) []string {
	runes := []rune(text)
	if r := len(runes) % t.width; r != 0 {
		for range t.width - r {
			runes = append(runes, Pad)
		}
	}

	out := make([]string, 0, len(runes)/t.width)
	for i := 0; i < len(runes); i += t.width {
		out = append(out, string(runes[i:i+t.width]))
	}
	return out
}
