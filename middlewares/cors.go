package middlewares

import (
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/legalbook/relay/internal"
)

// DefaultCORSMaxAge is the default preflight cache duration.
const DefaultCORSMaxAge = 12 * time.Hour

// DefaultAllowedOrigins are the sites that embed the assessment form.
var DefaultAllowedOrigins = []string{
	"https://legalbook.io",
	"https://www.legalbook.io",
	"https://legalbookadvisors.radhikakabbade.com",
	"http://legalbookadvisors.radhikakabbade.com",
	"http://localhost:5173",
	"http://localhost:3000",
	"http://localhost:8080",
	"https://legalbook-server.onrender.com",
	"https://reqbin.com",
	"https://hoppscotch.io",
}

// CORSConfig configures the CORS middleware.
type CORSConfig struct {
	// AllowOrigins is the exact-match origin allow-list. "*" allows any origin.
	AllowOrigins []string

	// AllowMethods lists the methods announced on preflight.
	AllowMethods []string

	// AllowHeaders lists the request headers announced on preflight.
	AllowHeaders []string

	// ExposeHeaders lists response headers readable by the browser.
	ExposeHeaders []string

	// MaxAge is how long browsers may cache a preflight response.
	MaxAge time.Duration
}

// CORSOption configures CORSConfig.
type CORSOption func(*CORSConfig)

// WithAllowOrigins replaces the origin allow-list. Empty values are dropped;
// an empty result keeps the defaults.
func WithAllowOrigins(origins ...string) CORSOption {
	return func(cfg *CORSConfig) {
		clean := make([]string, 0, len(origins))
		for _, o := range origins {
			if o = strings.TrimRight(strings.TrimSpace(o), "/"); o != "" {
				clean = append(clean, o)
			}
		}
		if len(clean) > 0 {
			cfg.AllowOrigins = clean
		}
	}
}

// WithAllowHeaders sets the allowed request headers.
func WithAllowHeaders(headers ...string) CORSOption {
	return func(cfg *CORSConfig) {
		cfg.AllowHeaders = headers
	}
}

// WithExposeHeaders sets the headers exposed to the client.
func WithExposeHeaders(headers ...string) CORSOption {
	return func(cfg *CORSConfig) {
		cfg.ExposeHeaders = headers
	}
}

// WithMaxAge sets the preflight cache duration.
func WithMaxAge(duration time.Duration) CORSOption {
	return func(cfg *CORSConfig) {
		cfg.MaxAge = duration
	}
}

// CORS returns middleware that answers preflight requests and adds CORS
// headers for allowed origins. Requests without an Origin header, and
// requests from origins not on the list, pass through without CORS headers
// so the browser blocks them. Credentials are never allowed.
func CORS(opts ...CORSOption) internal.Middleware {
	cfg := &CORSConfig{
		AllowOrigins:  DefaultAllowedOrigins,
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders:  []string{"Content-Type", "Authorization"},
		ExposeHeaders: []string{"X-Request-ID"},
		MaxAge:        DefaultCORSMaxAge,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	allowMethods := strings.Join(cfg.AllowMethods, ", ")
	allowHeaders := strings.Join(cfg.AllowHeaders, ", ")
	exposeHeaders := strings.Join(cfg.ExposeHeaders, ", ")
	maxAge := strconv.Itoa(int(cfg.MaxAge.Seconds()))
	anyOrigin := slices.Contains(cfg.AllowOrigins, "*")

	return func(next internal.HandlerFunc) internal.HandlerFunc {
		return func(c internal.Context) error {
			origin := c.Header("Origin")
			if origin == "" {
				return next(c)
			}

			if !anyOrigin && !slices.Contains(cfg.AllowOrigins, origin) {
				c.LogDebug("cors origin blocked", "origin", origin)
				return next(c)
			}

			h := c.Response().Header()
			h.Add("Vary", "Origin")
			if anyOrigin {
				h.Set("Access-Control-Allow-Origin", "*")
			} else {
				h.Set("Access-Control-Allow-Origin", origin)
			}
			if exposeHeaders != "" {
				h.Set("Access-Control-Expose-Headers", exposeHeaders)
			}

			if c.Request().Method != http.MethodOptions || c.Header("Access-Control-Request-Method") == "" {
				return next(c)
			}

			h.Add("Vary", "Access-Control-Request-Method")
			h.Add("Vary", "Access-Control-Request-Headers")
			h.Set("Access-Control-Allow-Methods", allowMethods)
			h.Set("Access-Control-Allow-Headers", allowHeaders)
			if cfg.MaxAge > 0 {
				h.Set("Access-Control-Max-Age", maxAge)
			}
			return c.NoContent(http.StatusNoContent)
		}
	}
}
