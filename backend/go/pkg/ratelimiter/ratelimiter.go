package ratelimiter

import "golang.org/x/time/rate"

// RateLimiter is the interface for rate limiting.
type RateLimiter interface {
	// Allow reports whether a request may proceed now.
	Allow() bool
}

// NewTokenBucket returns a limiter that refills r tokens per second up to burst.
// The bucket starts full.
func NewTokenBucket(r float64, burst int) RateLimiter {
	return rate.NewLimiter(rate.Limit(r), burst)
}
