// Package middlewares provides the HTTP middleware stack of the relay server.
//
// # Request ID
//
// RequestID assigns every request an ID. A well-formed X-Request-ID or
// X-Correlation-ID from upstream is reused, otherwise a UUIDv4 is generated.
// The ID is echoed in the X-Request-ID response header.
//
// Use RequestIDExtractor with logger.New so every record written with the
// request context carries request_id:
//
//	log := logger.New(cfg.Log, middlewares.RequestIDExtractor())
//
// # Recover
//
// Recover converts handler panics into *PanicError. The error handler renders
// it as a generic 500 body; the panic value and stack only reach the log.
//
// # Timeout
//
// Timeout bounds the whole request and returns *TimeoutError when the
// deadline passes before the handler finishes. The handler's response is
// buffered and dropped if it finishes late.
//
// # CORS
//
// CORS answers preflight requests and sets Access-Control-* headers for the
// configured origin allow-list. Requests from other origins pass through
// without CORS headers, so browsers block them client-side.
//
// # Rate limiting
//
// RateLimit keeps a token bucket per client IP and rejects clients over
// their budget with 429. Run chi's RealIP in front of it only behind a
// proxy that overwrites X-Forwarded-For and X-Real-IP.
//
// # Access log
//
// AccessLog logs each finished request and counts it by method, chi route
// pattern and status.
//
// Typical order:
//
//	internal.New(
//	    internal.WithHTTPMiddleware(chimw.RealIP), // trusted proxy only
//	    internal.WithMiddleware(
//	        middlewares.RequestID(),
//	        middlewares.AccessLog(metrics.Recorder{}),
//	        middlewares.Recover(),
//	        middlewares.CORS(middlewares.WithAllowOrigins(origins...)),
//	        middlewares.RateLimit(),
//	        middlewares.Timeout(15*time.Second),
//	    ),
//	)
package middlewares
