package middlewares

import (
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/legalbook/relay/internal"
)

// Rate limit defaults.
const (
	DefaultRateLimitRPS     = 1.0
	DefaultRateLimitBurst   = 5
	DefaultRateLimitMessage = "Too many requests. Please try again later."
	defaultLimiterIdleTTL   = 10 * time.Minute
)

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// ipLimiter keeps one token bucket per client IP. Buckets idle for
// longer than ttl are dropped on the next sweep.
type ipLimiter struct {
	mu        sync.Mutex
	limiters  map[string]*limiterEntry
	rate      rate.Limit
	burst     int
	ttl       time.Duration
	lastSweep time.Time
	now       func() time.Time
}

func newIPLimiter(r rate.Limit, burst int, ttl time.Duration) *ipLimiter {
	return &ipLimiter{
		limiters: make(map[string]*limiterEntry),
		rate:     r,
		burst:    burst,
		ttl:      ttl,
		now:      time.Now,
	}
}

func (ipl *ipLimiter) get(ip string) *rate.Limiter {
	ipl.mu.Lock()
	defer ipl.mu.Unlock()

	now := ipl.now()
	if now.Sub(ipl.lastSweep) > ipl.ttl {
		for k, e := range ipl.limiters {
			if now.Sub(e.lastSeen) > ipl.ttl {
				delete(ipl.limiters, k)
			}
		}
		ipl.lastSweep = now
	}

	e, ok := ipl.limiters[ip]
	if !ok {
		e = &limiterEntry{limiter: rate.NewLimiter(ipl.rate, ipl.burst)}
		ipl.limiters[ip] = e
	}
	e.lastSeen = now
	return e.limiter
}

func (ipl *ipLimiter) size() int {
	ipl.mu.Lock()
	defer ipl.mu.Unlock()
	return len(ipl.limiters)
}

// RateLimitConfig configures the rate limit middleware.
type RateLimitConfig struct {
	Message string        // Error message for rejected requests
	RPS     float64       // Sustained requests per second per client
	Burst   int           // Bucket size
	IdleTTL time.Duration // How long an idle client bucket is kept
}

// RateLimitOption configures RateLimitConfig.
type RateLimitOption func(*RateLimitConfig)

// WithRateLimit sets the sustained rate and burst per client.
// Non-positive values keep the defaults.
func WithRateLimit(rps float64, burst int) RateLimitOption {
	return func(cfg *RateLimitConfig) {
		if rps > 0 {
			cfg.RPS = rps
		}
		if burst > 0 {
			cfg.Burst = burst
		}
	}
}

// WithRateLimitMessage sets the message returned with 429 responses.
func WithRateLimitMessage(msg string) RateLimitOption {
	return func(cfg *RateLimitConfig) {
		if msg != "" {
			cfg.Message = msg
		}
	}
}

// RateLimit rejects clients that exceed their token bucket with a 429
// *internal.HTTPError. Clients are keyed by IP taken from RemoteAddr.
// Put chi's RealIP in front only behind a proxy that overwrites the
// forwarded headers; otherwise clients choose their own key.
func RateLimit(opts ...RateLimitOption) internal.Middleware {
	cfg := &RateLimitConfig{
		RPS:     DefaultRateLimitRPS,
		Burst:   DefaultRateLimitBurst,
		Message: DefaultRateLimitMessage,
		IdleTTL: defaultLimiterIdleTTL,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return rateLimit(newIPLimiter(rate.Limit(cfg.RPS), cfg.Burst, cfg.IdleTTL), cfg)
}

func rateLimit(il *ipLimiter, cfg *RateLimitConfig) internal.Middleware {
	retryAfter := strconv.Itoa(max(1, int(1/cfg.RPS)))

	return func(next internal.HandlerFunc) internal.HandlerFunc {
		return func(c internal.Context) error {
			ip := clientIP(c.Request())
			if !il.get(ip).Allow() {
				c.LogWarn("rate limit exceeded", "client_ip", ip)
				c.SetHeader("Retry-After", retryAfter)
				return internal.ErrTooManyRequests(cfg.Message, internal.WithErrorCode("rate_limited"))
			}
			return next(c)
		}
	}
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
