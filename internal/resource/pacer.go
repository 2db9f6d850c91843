package resource

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Pacer spaces out successive events by a fixed interval.
// The first Wait returns immediately. A Pacer belongs to one stream of
// events; streams sharing one would split its rate.
type Pacer struct {
	limiter *rate.Limiter
}

// NewPacer returns a pacer allowing one event per interval.
// A non-positive interval returns nil, which never waits.
func NewPacer(interval time.Duration) *Pacer {
	if interval <= 0 {
		return nil
	}
	return &Pacer{
		limiter: rate.NewLimiter(rate.Every(interval), 1),
	}
}

// Wait blocks until the next event is allowed or ctx is done.
func (p *Pacer) Wait(ctx context.Context) error {
	if p == nil {
		return ctx.Err()
	}
	return p.limiter.Wait(ctx)
}

// Interval returns the configured spacing, or 0 for a nil pacer.
func (p *Pacer) Interval() time.Duration {
	if p == nil {
		return 0
	}
	return time.Duration(float64(time.Second) / float64(p.limiter.Limit()))
}
