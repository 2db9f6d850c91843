package gramstore

import (
	"context"
	"iter"
	"sync"
	"time"

	"github.com/hupe1980/gramstore/internal/sampler"
)

// Status is the state of a generation.
type Status = sampler.Status

const (
	StatusRunning        = sampler.StatusRunning
	StatusCompleted      = sampler.StatusCompleted
	StatusStopped        = sampler.StatusStopped
	StatusNoCandidates   = sampler.StatusNoCandidates
	StatusPromptTooShort = sampler.StatusPromptTooShort
)

// Emission is one generated token together with the candidates it was drawn from.
type Emission = sampler.Emission

// Candidate is a stored key that matched the context, with its count.
type Candidate = sampler.Candidate

// Generation is a running generation. It is not safe for concurrent use.
//
// A Generation holds the model in shared mode until it ends. Call Close if
// it is abandoned early.
type Generation struct {
	m     *Model
	ctx   context.Context
	sess  *sampler.Session
	start time.Time

	once   sync.Once
	closed bool
}

// Next generates one token. It returns false once the generation has ended.
func (g *Generation) Next() (Emission, bool) {
	if g.closed || g.sess.Done() {
		g.release()
		return Emission{}, false
	}

	e, ok := g.sess.Next()
	if g.sess.Done() {
		g.release()
	}
	return e, ok
}

// All iterates over the remaining emissions.
func (g *Generation) All() iter.Seq[Emission] {
	return func(yield func(Emission) bool) {
		for {
			e, ok := g.Next()
			if !ok || !yield(e) {
				return
			}
		}
	}
}

// Wait runs the generation to its end and returns the generated text.
func (g *Generation) Wait() (string, Status) {
	for range g.All() {
	}
	return g.Text(), g.Status()
}

// Status returns StatusRunning until the generation ends, then the reason it
// ended. A generation closed early reports StatusStopped.
func (g *Generation) Status() Status {
	if g.closed && !g.sess.Done() {
		return StatusStopped
	}
	return g.sess.Status()
}

// Err returns the error that ended the generation, if any.
func (g *Generation) Err() error { return translateError(g.sess.Err()) }

// Emitted returns the number of generated tokens.
func (g *Generation) Emitted() int { return g.sess.Emitted() }

// Text returns the generated text without the prompt.
func (g *Generation) Text() string { return g.sess.Text() }

// Output returns the prompt followed by the generated text.
func (g *Generation) Output() string { return g.sess.Output() }

// Close ends the generation and releases the model.
func (g *Generation) Close() error {
	g.closed = true
	g.release()
	return nil
}

func (g *Generation) release() {
	g.once.Do(func() {
		g.m.mode.RUnlock()
		status := g.Status()
		g.m.opts.metricsCollector.RecordGenerate(g.sess.Emitted(), status, time.Since(g.start))
		g.m.opts.logger.LogGenerate(g.ctx, g.sess.Emitted(), status, g.Err())
	})
}
