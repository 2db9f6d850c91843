package sampler

import (
	"context"
	"iter"
	"math/rand/v2"
	"strings"
	"unicode/utf8"

	"github.com/hupe1980/gramstore/internal/resource"
)

// Candidate is one key matching the current context.
type Candidate struct {
	Key   []int32
	Text  string
	Count int32
}

// Emission is one generated token.
type Emission struct {
	Token int32
	Text  string
	// Order is the order of the table the token was drawn from.
	Order      int
	Candidates []Candidate
	Chosen     int
}

// Session is a single generation run. It is not safe for concurrent use.
type Session struct {
	s       *Sampler
	ctx     context.Context
	rng     *rand.Rand
	pacer   *resource.Pacer
	window  []int32
	prompt  string
	out     strings.Builder
	chars   int
	emitted int
	status  Status
	err     error
}

// Status returns the session state. It is StatusRunning until the session ends.
func (ss *Session) Status() Status { return ss.status }

// Err returns the error that ended the session, if any.
func (ss *Session) Err() error { return ss.err }

// Done reports whether the session has ended.
func (ss *Session) Done() bool { return ss.status != StatusRunning }

// Emitted returns the number of generated tokens.
func (ss *Session) Emitted() int { return ss.emitted }

// Context returns a copy of the current context window.
func (ss *Session) Context() []int32 {
	return append([]int32(nil), ss.window...)
}

// Text returns the generated text without the prompt.
func (ss *Session) Text() string { return ss.out.String() }

// Output returns the prompt followed by the generated text.
func (ss *Session) Output() string { return ss.prompt + ss.out.String() }

// Next generates one token. It returns false once the session has ended;
// Status then reports why.
func (ss *Session) Next() (Emission, bool) {
	if ss.Done() {
		return Emission{}, false
	}
	if ss.ctx.Err() != nil {
		ss.finish(StatusStopped)
		return Emission{}, false
	}
	// The first wait is free, later ones keep emissions one interval apart.
	if err := ss.pacer.Wait(ss.ctx); err != nil {
		ss.finish(StatusStopped)
		return Emission{}, false
	}

	minOrder := ss.s.store.Config().MinOrder

	for {
		order := len(ss.window)
		if order < minOrder {
			ss.finish(StatusNoCandidates)
			return Emission{}, false
		}

		cold, err := ss.s.store.Cold(order)
		if err != nil {
			ss.err = err
			ss.finish(StatusStopped)
			return Emission{}, false
		}

		prefix := ss.window[1:]
		i, ok := cold.FindPrefixIndex(prefix)
		if !ok {
			ss.window = ss.window[1:]
			continue
		}

		first, last := cold.ExpandPrefixRange(prefix, i)
		records := cold.CollectRange(first, last)

		chosen := ss.pick(len(records))
		rec := records[chosen]

		e := Emission{
			Token:      rec.Last(),
			Order:      order,
			Candidates: make([]Candidate, len(records)),
			Chosen:     chosen,
		}
		for j, r := range records {
			e.Candidates[j] = Candidate{Key: r.Key, Text: ss.detokenize(r.Key), Count: r.Count()}
		}
		e.Text = ss.s.vocab.Text(e.Token)

		ss.window = rec.Key
		ss.emitted++
		ss.out.WriteString(e.Text)
		ss.chars += utf8.RuneCountInString(e.Text)
		if ss.chars > ss.s.maxChars {
			ss.finish(StatusCompleted)
		}
		return e, true
	}
}

// All iterates over the remaining emissions.
func (ss *Session) All() iter.Seq[Emission] {
	return func(yield func(Emission) bool) {
		for {
			e, ok := ss.Next()
			if !ok || !yield(e) {
				return
			}
		}
	}
}

// Drain runs the session to its end and returns the final status.
func (ss *Session) Drain() Status {
	for range ss.All() {
	}
	return ss.status
}

func (ss *Session) pick(n int) int {
	if ss.rng != nil {
		return ss.rng.IntN(n)
	}
	return rand.IntN(n)
}

func (ss *Session) detokenize(key []int32) string {
	var b strings.Builder
	for _, id := range key {
		b.WriteString(ss.s.vocab.Text(id))
	}
	return b.String()
}

func (ss *Session) finish(st Status) {
	if ss.status != StatusRunning {
		return
	}
	ss.status = st
	ss.s.logger.Debug("Generation finished",
		"status", st.String(),
		"emitted", ss.emitted,
		"chars", ss.chars,
	)
}
