package enrich

import (
	"time"

	"golang.org/x/time/rate"
)

// NewGate returns the token bucket that paces every AI call attempt: one
// token every delay, burst 1. A non-positive delay disables pacing.
func NewGate(delay time.Duration) *rate.Limiter {
	if delay <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(delay), 1)
}
