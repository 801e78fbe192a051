package ratelimiter

import (
	"context"

	"golang.org/x/time/rate"
)

// SendLimiter is a token bucket in front of the push provider. Expo throttles
// bursty senders, so every worker waits for a token before dispatching.
// Burst is set equal to the rate so no extra burst capacity is allowed
// beyond the configured per-second maximum.
type SendLimiter struct {
	limiter *rate.Limiter
}

// New creates a SendLimiter granting ratePerSec sends per second.
// A zero or negative rate means unlimited; a bucket with rate 0 and burst 0
// would reject every Wait.
func New(ratePerSec int) *SendLimiter {
	if ratePerSec <= 0 {
		return &SendLimiter{limiter: rate.NewLimiter(rate.Inf, 0)}
	}

	r := rate.Limit(ratePerSec)
	burst := ratePerSec // burst == rate: prevents any "saved up" burst above the limit

	return &SendLimiter{limiter: rate.NewLimiter(r, burst)}
}

// Wait blocks until the limiter grants a token.
// Called by each worker immediately before sending to the provider.
// Returns a non-nil error only if ctx is cancelled while waiting.
func (l *SendLimiter) Wait(ctx context.Context) error {
	return l.limiter.Wait(ctx)
}
