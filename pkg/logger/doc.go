// Package logger provides structured JSON logging with context extraction,
// secret redaction and optional Sentry integration.
//
// # Basic Usage
//
// Create a logger with context extractors. Extractors run on every log call
// and pull request-scoped values such as the request ID out of the context:
//
//	log := logger.New(logger.Config{Level: "info"}, middlewares.RequestIDExtractor())
//	log.InfoContext(ctx, "relay attempt", slog.String("outcome", "success"))
//	// {"level":"INFO","msg":"relay attempt","outcome":"success","request_id":"..."}
//
// # Sentry Integration
//
// When Config.Sentry.DSN is set, New fans records out to stdout and Sentry.
// Errors become Sentry issues and warnings are stored as Sentry logs. If the
// SDK fails to start, logging continues on stdout only. Call Flush during
// shutdown so buffered events are delivered:
//
//	log := logger.New(logger.Config{
//	    Sentry: logger.SentryConfig{DSN: os.Getenv("SENTRY_DSN")},
//	}, middlewares.RequestIDExtractor())
//	defer logger.Flush(ctx)
//
// # Redaction
//
// Credentials must never reach a log sink. WithRedaction wraps a logger so
// that every configured secret is replaced with [REDACTED] in the message,
// string attributes, error attributes and groups:
//
//	red := logger.NewRedactor(cfg.BrevoAPIKey, cfg.SMTP.Password)
//	log = logger.WithRedaction(log, red)
//
// The same Redactor is used to scrub error detail returned to clients.
//
// NewNope returns a logger that discards everything and is the default
// wherever a logger is optional.
package logger
