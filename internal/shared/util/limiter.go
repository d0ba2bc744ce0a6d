package util

import (
	"context"

	"golang.org/x/time/rate"
)

// Limiter is a token bucket used to throttle repeated work such as watch re-runs.
type Limiter struct {
	inner *rate.Limiter
}

// NewLimiter allows r events per second with bursts of b.
func NewLimiter(r float64, b int) *Limiter {
	return &Limiter{
		inner: rate.NewLimiter(rate.Limit(r), b),
	}
}

// Wait blocks until an event may happen or ctx is done.
func (l *Limiter) Wait(ctx context.Context) error {
	return l.inner.Wait(ctx)
}
