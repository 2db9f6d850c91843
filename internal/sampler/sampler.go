package sampler

import (
	"context"
	"io"
	"log/slog"
	"math/rand/v2"
	"time"
	"unicode/utf8"

	"github.com/hupe1980/gramstore/internal/resource"
	"github.com/hupe1980/gramstore/internal/store"
)

// DefaultMaxChars caps the text of a session, prompt included.
const DefaultMaxChars = 10_000

// Vocabulary maps fixed-width text chunks to token ids and back.
type Vocabulary interface {
	Width() int
	Lookup(chunk string) (int32, bool)
	Text(id int32) string
}

// Status is the state of a generation session.
type Status uint8

const (
	StatusRunning Status = iota
	StatusCompleted
	StatusStopped
	StatusNoCandidates
	StatusPromptTooShort
)

func (s Status) String() string {
	switch s {
	case StatusRunning:
		return "running"
	case StatusCompleted:
		return "completed"
	case StatusStopped:
		return "stopped"
	case StatusNoCandidates:
		return "no-candidates"
	case StatusPromptTooShort:
		return "prompt-too-short"
	default:
		return "unknown"
	}
}

// Option configures a Sampler.
type Option func(*Sampler)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Sampler) {
		s.logger = l
	}
}

// WithPacing spaces the emissions of each session by interval. Every session
// paces itself; concurrent sessions do not slow each other down.
func WithPacing(interval time.Duration) Option {
	return func(s *Sampler) {
		s.pacing = interval
	}
}

// WithSeed makes every session draw from a PCG source seeded with seed.
// Without a seed sessions use the global source.
func WithSeed(seed uint64) Option {
	return func(s *Sampler) {
		s.seed = seed
		s.seeded = true
	}
}

// WithMaxChars sets the output cap in characters. Non-positive values are ignored.
func WithMaxChars(n int) Option {
	return func(s *Sampler) {
		if n > 0 {
			s.maxChars = n
		}
	}
}

// Sampler starts generation sessions over a store.
type Sampler struct {
	store    *store.Store
	vocab    Vocabulary
	pacing   time.Duration
	seed     uint64
	seeded   bool
	maxChars int
	logger   *slog.Logger
}

// New returns a sampler reading the cold tables of st.
func New(st *store.Store, vocab Vocabulary, opts ...Option) *Sampler {
	s := &Sampler{
		store:    st,
		vocab:    vocab,
		maxChars: DefaultMaxChars,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Tokenize turns a prompt into a context. Leading characters are dropped so
// the rest splits into whole chunks, and the result keeps at most the store's
// maximum order of tokens from the tail. An unknown chunk yields an
// *UnresolvedTokenError.
func (s *Sampler) Tokenize(prompt string) ([]int32, error) {
	width := s.vocab.Width()
	if width <= 0 {
		return nil, ErrInvalidVocabulary
	}

	runes := []rune(prompt)
	runes = runes[len(runes)%width:]

	tokens := make([]int32, 0, len(runes)/width)
	for i := 0; i < len(runes); i += width {
		chunk := string(runes[i : i+width])
		id, ok := s.vocab.Lookup(chunk)
		if !ok {
			return nil, &UnresolvedTokenError{Chunk: chunk, Offset: i}
		}
		tokens = append(tokens, id)
	}

	if over := len(tokens) - s.store.Config().MaxOrder; over > 0 {
		tokens = tokens[over:]
	}
	return tokens, nil
}

// Start tokenizes prompt and opens a session. The session stops once ctx is
// done. Prompt errors are returned before any table is read.
func (s *Sampler) Start(ctx context.Context, prompt string) (*Session, error) {
	tokens, err := s.Tokenize(prompt)
	if err != nil {
		return nil, err
	}

	sess := &Session{
		s:      s,
		ctx:    ctx,
		window: tokens,
		pacer:  resource.NewPacer(s.pacing),
		chars:  utf8.RuneCountInString(prompt),
		prompt: prompt,
	}
	if s.seeded {
		sess.rng = rand.New(rand.NewPCG(s.seed, s.seed^0x9E3779B9))
	}

	switch {
	case len(tokens) < s.store.Config().MinOrder:
		sess.finish(StatusPromptTooShort)
	case !s.store.Initialized():
		sess.finish(StatusNoCandidates)
	}

	s.logger.Debug("Generation started", "contextLength", len(tokens), "status", sess.status.String())
	return sess, nil
}
