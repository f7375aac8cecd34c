package ratelimiter

import (
	"context"

	"golang.org/x/time/rate"
)

// Limiter paces queue submissions with a token bucket.
// A nil *Limiter, or one built with ratePerSec <= 0, never blocks.
type Limiter struct {
	limiter *rate.Limiter
}

// New creates a limiter allowing ratePerSec submissions per second with a burst of one,
// so calls are spread evenly instead of bunched at the start of each second.
func New(ratePerSec float64) *Limiter {
	if ratePerSec <= 0 {
		return &Limiter{}
	}
	return &Limiter{limiter: rate.NewLimiter(rate.Limit(ratePerSec), 1)}
}

// Wait blocks until the next submission may go out.
// Returns a non-nil error only if ctx is cancelled while waiting.
func (l *Limiter) Wait(ctx context.Context) error {
	if l == nil || l.limiter == nil {
		return ctx.Err()
	}
	return l.limiter.Wait(ctx)
}
