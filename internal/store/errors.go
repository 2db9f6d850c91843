package store

import (
	"errors"

	"github.com/hupe1980/gramstore/internal/table"
)

var (
	// ErrCapacityExhausted is returned when a cold tier cannot absorb its hot tier.
	// It is fatal to the current training run.
	ErrCapacityExhausted = table.ErrCapacityExhausted

	// ErrInsertionFailed is returned when a hot tier refuses an insert right
	// after it was spilled. It indicates a broken invariant.
	ErrInsertionFailed = errors.New("insertion failed after spill")

	// ErrOrderOutOfRange is returned when an order outside [MinOrder, MaxOrder] is requested.
	ErrOrderOutOfRange = errors.New("order out of range")

	// ErrNotInitialized is returned when tiers are accessed before Init.
	ErrNotInitialized = errors.New("store not initialized")
)

// CapacityError is the typed form of ErrCapacityExhausted.
type CapacityError = table.CapacityError
