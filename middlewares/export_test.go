package middlewares

import (
	"time"

	"golang.org/x/time/rate"

	"github.com/legalbook/relay/internal"
)

// RateLimitWithClock builds a rate limiter on a fake clock and returns
// a func reporting how many clients are tracked.
func RateLimitWithClock(rps float64, burst int, ttl time.Duration, now func() time.Time) (internal.Middleware, func() int) {
	il := newIPLimiter(rate.Limit(rps), burst, ttl)
	il.now = now
	cfg := &RateLimitConfig{RPS: rps, Burst: burst, Message: DefaultRateLimitMessage, IdleTTL: ttl}
	return rateLimit(il, cfg), il.size
}
