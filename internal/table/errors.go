package table

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidLayout is returned when a table is created with a non-positive width or capacity.
	ErrInvalidLayout = errors.New("invalid table layout")

	// ErrLayoutMismatch is returned when two tables with different key or value widths are merged.
	ErrLayoutMismatch = errors.New("table layout mismatch")

	// ErrCapacityExhausted is returned when the destination of a merge cannot absorb the source.
	ErrCapacityExhausted = errors.New("capacity exhausted")
)

// CapacityError describes a merge that was refused because the destination is too small.
// Neither table is modified when it is returned.
type CapacityError struct {
	KeyWidth int
	DstSize  int
	SrcSize  int
	Capacity int
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("capacity exhausted for key width %d: %d + %d records exceed capacity %d",
		e.KeyWidth, e.DstSize, e.SrcSize, e.Capacity)
}

func (e *CapacityError) Unwrap() error { return ErrCapacityExhausted }
