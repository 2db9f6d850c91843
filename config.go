package gramstore

import (
	"fmt"

	"github.com/hupe1980/gramstore/internal/store"
	"github.com/hupe1980/gramstore/tokenizer"
)

// Config sets the shape of a Model. It cannot change after New.
type Config struct {
	// MinOrder and MaxOrder bound the n-gram orders that are counted.
	MinOrder int
	MaxOrder int

	// HotCapacity is the record capacity of each per-order hot table.
	HotCapacity int

	// ColdCapacity is the record capacity of each per-order cold table.
	ColdCapacity int

	// TokenWidth is the number of characters per token.
	TokenWidth int
}

// DefaultConfig returns the default model shape.
func DefaultConfig() Config {
	return Config{
		MinOrder:     3,
		MaxOrder:     12,
		HotCapacity:  1000,
		ColdCapacity: 1_000_000,
		TokenWidth:   2,
	}
}

// Validate checks c.
func (c Config) Validate() error {
	if c.MinOrder < 1 || c.MaxOrder < c.MinOrder {
		return &ErrInvalidOrderRange{MinOrder: c.MinOrder, MaxOrder: c.MaxOrder}
	}
	if c.HotCapacity <= 0 {
		return fmt.Errorf("%w: hot capacity must be positive, got %d", ErrInvalidConfig, c.HotCapacity)
	}
	if c.ColdCapacity <= 0 {
		return fmt.Errorf("%w: cold capacity must be positive, got %d", ErrInvalidConfig, c.ColdCapacity)
	}
	if c.TokenWidth < 1 || c.TokenWidth > tokenizer.MaxWidth {
		return fmt.Errorf("%w: token width must be in [1, %d], got %d", ErrInvalidConfig, tokenizer.MaxWidth, c.TokenWidth)
	}
	return nil
}

func (c Config) storeConfig() store.Config {
	return store.Config{
		MinOrder:     c.MinOrder,
		MaxOrder:     c.MaxOrder,
		HotCapacity:  c.HotCapacity,
		ColdCapacity: c.ColdCapacity,
	}
}
