package gramstore

import (
	"errors"
	"fmt"

	"github.com/hupe1980/gramstore/internal/resource"
	"github.com/hupe1980/gramstore/internal/sampler"
	"github.com/hupe1980/gramstore/internal/store"
	"github.com/hupe1980/gramstore/tokenizer"
)

var (
	// ErrBusy is returned when a call conflicts with a running training or generation.
	ErrBusy = errors.New("model busy")

	// ErrClosed is returned by calls on a closed Model.
	ErrClosed = errors.New("model closed")

	// ErrInvalidConfig is returned for an unusable Config.
	ErrInvalidConfig = errors.New("invalid config")

	// ErrCapacityExhausted is returned when a cold table cannot absorb a spill.
	// It ends the training run.
	ErrCapacityExhausted = errors.New("cold tier capacity exhausted")

	// ErrInsertionFailed is returned when a hot table refuses an insert after a
	// spill. It indicates a bug, not a data problem.
	ErrInsertionFailed = errors.New("insertion failed")

	// ErrUnresolvedToken is returned when a prompt contains a chunk the model never saw.
	ErrUnresolvedToken = errors.New("unresolved token")

	// ErrMemoryLimitExceeded is returned when the tables do not fit the configured memory limit.
	ErrMemoryLimitExceeded = errors.New("memory limit exceeded")
)

// ErrInvalidOrderRange indicates an unusable [MinOrder, MaxOrder] pair.
type ErrInvalidOrderRange struct {
	MinOrder int
	MaxOrder int
}

func (e *ErrInvalidOrderRange) Error() string {
	return fmt.Sprintf("invalid order range [%d, %d]", e.MinOrder, e.MaxOrder)
}

func (e *ErrInvalidOrderRange) Unwrap() error { return ErrInvalidConfig }

// ErrColdTierFull describes a spill that did not fit its cold table.
//
// It matches ErrCapacityExhausted with errors.Is. The underlying
// error can be accessed via errors.Unwrap.
type ErrColdTierFull struct {
	Order    int
	ColdSize int
	HotSize  int
	Capacity int
	cause    error
}

func (e *ErrColdTierFull) Error() string {
	return fmt.Sprintf("cold tier of order %d full: %d + %d records exceed capacity %d",
		e.Order, e.ColdSize, e.HotSize, e.Capacity)
}

func (e *ErrColdTierFull) Is(target error) bool { return target == ErrCapacityExhausted }

func (e *ErrColdTierFull) Unwrap() error { return e.cause }

// ErrUnresolvedChunk names the prompt chunk that has no token id.
//
// It matches ErrUnresolvedToken with errors.Is.
type ErrUnresolvedChunk struct {
	Chunk  string
	Offset int
	cause  error
}

func (e *ErrUnresolvedChunk) Error() string {
	return fmt.Sprintf("unresolved chunk %q at offset %d", e.Chunk, e.Offset)
}

func (e *ErrUnresolvedChunk) Is(target error) bool { return target == ErrUnresolvedToken }

func (e *ErrUnresolvedChunk) Unwrap() error { return e.cause }

func translateError(err error) error {
	if err == nil {
		return nil
	}

	var ce *store.CapacityError
	if errors.As(err, &ce) {
		return &ErrColdTierFull{
			Order:    ce.KeyWidth,
			ColdSize: ce.DstSize,
			HotSize:  ce.SrcSize,
			Capacity: ce.Capacity,
			cause:    err,
		}
	}
	if errors.Is(err, store.ErrCapacityExhausted) {
		return fmt.Errorf("%w: %w", ErrCapacityExhausted, err)
	}
	if errors.Is(err, store.ErrInsertionFailed) {
		return fmt.Errorf("%w: %w", ErrInsertionFailed, err)
	}

	var ute *sampler.UnresolvedTokenError
	if errors.As(err, &ute) {
		return &ErrUnresolvedChunk{Chunk: ute.Chunk, Offset: ute.Offset, cause: err}
	}

	if errors.Is(err, resource.ErrMemoryLimitExceeded) {
		return fmt.Errorf("%w: %w", ErrMemoryLimitExceeded, err)
	}
	if errors.Is(err, store.ErrOrderOutOfRange) || errors.Is(err, tokenizer.ErrInvalidWidth) {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	return err
}
