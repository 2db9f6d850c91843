package sampler

import (
	"errors"
	"fmt"
)

var (
	// ErrUnresolvedToken is returned when a prompt chunk has no dictionary entry.
	ErrUnresolvedToken = errors.New("unresolved token")

	// ErrInvalidVocabulary is returned when the vocabulary reports a non-positive width.
	ErrInvalidVocabulary = errors.New("invalid vocabulary")
)

// UnresolvedTokenError names the prompt chunk that could not be resolved.
type UnresolvedTokenError struct {
	Chunk  string
	Offset int // chunk position in the trimmed prompt, in characters
}

func (e *UnresolvedTokenError) Error() string {
	return fmt.Sprintf("unresolved token %q at offset %d", e.Chunk, e.Offset)
}

func (e *UnresolvedTokenError) Unwrap() error { return ErrUnresolvedToken }
