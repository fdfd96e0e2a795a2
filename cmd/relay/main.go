package main

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/legalbook/relay/handlers"
	"github.com/legalbook/relay/internal"
	"github.com/legalbook/relay/middlewares"
	"github.com/legalbook/relay/pkg/logger"
	"github.com/legalbook/relay/pkg/mailer"
	"github.com/legalbook/relay/pkg/mailer/brevo"
	"github.com/legalbook/relay/pkg/mailer/resend"
	"github.com/legalbook/relay/pkg/mailer/smtp"
	"github.com/legalbook/relay/pkg/metrics"
	"github.com/legalbook/relay/pkg/relay"
)

const serviceName = "legalbook-email-api"

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	redactor := logger.NewRedactor(cfg.Secrets()...)
	log := logger.WithRedaction(logger.New(cfg.Log, middlewares.RequestIDExtractor()), redactor)

	transport, err := newTransport(cfg, log)
	if err != nil {
		return err
	}

	log.Info("mail configuration",
		slog.String("env", cfg.Env),
		slog.String("transport", transport.Name()),
		slog.Bool("brevo_api_key_set", cfg.Brevo.APIKey != ""),
		slog.Bool("resend_api_key_set", cfg.Resend.APIKey != ""),
		slog.Bool("smtp_host_set", cfg.SMTP.Host != ""),
		slog.Bool("smtp_password_set", cfg.SMTP.Password != ""),
		slog.String("timeout", cfg.MailTimeout.String()),
		slog.Bool("trust_proxy", cfg.TrustProxy),
	)

	rl := relay.New(transport, relay.Config{
		From:    cfg.Mail.From(),
		To:      []mailer.Address{cfg.Recipient()},
		Subject: cfg.Mail.FallbackSubject,
		Timeout: cfg.MailTimeout,
	},
		relay.WithLogger(log),
		relay.WithRecorder(metrics.Recorder{}),
		relay.WithRedactor(redactor),
	)

	app := newApp(cfg, log, transport, rl)

	return app.Run(cfg.Addr(),
		internal.Logger(log),
		internal.OnListen(func(addr net.Addr) {
			log.Info("relay ready", slog.String("address", addr.String()), slog.String("service", serviceName))
		}),
		internal.ShutdownHook(func(context.Context) error { return transport.Close() }),
		internal.ShutdownHook(logger.Flush),
	)
}

func newApp(cfg *Config, log *slog.Logger, transport mailer.Transport, rl handlers.Relayer) *internal.App {
	// Forwarded headers pick the rate-limit key, so they are honored only
	// behind a proxy that overwrites them.
	var httpMiddleware []func(http.Handler) http.Handler
	if cfg.TrustProxy {
		httpMiddleware = append(httpMiddleware, middleware.RealIP)
	}

	return internal.New(
		internal.WithCustomLogger(log),
		internal.WithMaxBodyBytes(cfg.MaxBodyBytes),
		internal.WithHTTPMiddleware(httpMiddleware...),
		internal.WithMiddleware(
			middlewares.RequestID(),
			middlewares.AccessLog(metrics.Recorder{}),
			middlewares.Recover(),
			middlewares.CORS(middlewares.WithAllowOrigins(cfg.AllowedOrigins...)),
		),
		internal.WithErrorHandler(handlers.ErrorHandler),
		internal.WithNotFoundHandler(handlers.NotFound),
		internal.WithMethodNotAllowedHandler(handlers.MethodNotAllowed),
		internal.WithHealthChecks(
			internal.WithServiceName(serviceName),
			internal.WithReadinessCheck(transport.Name(), transport.Ping),
		),
		internal.WithHTTPHandler("/metrics", metrics.Handler()),
		internal.WithHandlers(
			handlers.NewRoot(),
			handlers.NewSubmission(rl, handlers.WithRouteMiddleware(
				middlewares.RateLimit(
					middlewares.WithRateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst),
					middlewares.WithRateLimitMessage(relay.MsgRateLimited),
				),
				middlewares.Timeout(cfg.RequestTimeout()),
			)),
		),
	)
}

// newTransport builds the configured mail transport. Missing credentials
// are not an error here; they surface as delivery failures.
func newTransport(cfg *Config, log *slog.Logger) (mailer.Transport, error) {
	switch cfg.Transport {
	case transportBrevo:
		return brevo.New(cfg.Brevo, brevo.WithLogger(log)), nil
	case transportResend:
		return resend.New(cfg.Resend), nil
	case transportSMTP:
		return smtp.New(cfg.SMTP), nil
	default:
		return nil, fmt.Errorf("%w %q", errUnknownTransport, cfg.Transport)
	}
}
