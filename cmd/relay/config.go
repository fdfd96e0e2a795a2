package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/legalbook/relay/pkg/logger"
	"github.com/legalbook/relay/pkg/mailer"
	"github.com/legalbook/relay/pkg/mailer/brevo"
	"github.com/legalbook/relay/pkg/mailer/resend"
	"github.com/legalbook/relay/pkg/mailer/smtp"
	"github.com/legalbook/relay/pkg/relay"
)

// Supported MAIL_TRANSPORT values.
const (
	transportBrevo  = "brevo"
	transportResend = "resend"
	transportSMTP   = "smtp"
)

var errUnknownTransport = errors.New("unknown mail transport")

// Config is the process configuration, read from the environment.
type Config struct {
	Log    logger.Config
	Mail   mailer.Config
	Brevo  brevo.Config
	Resend resend.Config
	SMTP   smtp.Config

	Env            string        `env:"ENV" envDefault:"production"`
	Transport      string        `env:"MAIL_TRANSPORT" envDefault:"brevo"`
	MailTo         string        `env:"MAIL_TO" envDefault:"sales@legalbook.io"`
	MailToName     string        `env:"MAIL_TO_NAME" envDefault:"Legalbook Sales Team"`
	AllowedOrigins []string      `env:"CORS_ALLOWED_ORIGINS" envSeparator:","`
	MailTimeout    time.Duration `env:"MAIL_TIMEOUT" envDefault:"10s"`
	RateLimitRPS   float64       `env:"RATE_LIMIT_RPS" envDefault:"1"`
	RateLimitBurst int           `env:"RATE_LIMIT_BURST" envDefault:"5"`
	MaxBodyBytes   int64         `env:"MAX_BODY_BYTES" envDefault:"10485760"`
	TrustProxy     bool          `env:"TRUST_PROXY" envDefault:"false"`
	Port           int           `env:"PORT" envDefault:"4000"`
}

// loadConfig reads .env when present, then the environment.
func loadConfig() (*Config, error) {
	_ = godotenv.Load()
	return parseConfig(env.Options{})
}

func parseConfig(opts env.Options) (*Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return nil, describe(err)
	}

	cfg.Transport = strings.ToLower(strings.TrimSpace(cfg.Transport))
	switch cfg.Transport {
	case transportBrevo, transportResend, transportSMTP:
	default:
		return nil, fmt.Errorf("config: %w %q (want brevo, resend or smtp)", errUnknownTransport, cfg.Transport)
	}
	if cfg.Port <= 0 || cfg.Port > 65535 {
		return nil, fmt.Errorf("config: PORT out of range")
	}
	cfg.MailTimeout = relay.ClampTimeout(cfg.MailTimeout)
	return &cfg, nil
}

// describe rewrites env parse errors so they name the field but never
// echo the offending value, which may be a credential.
func describe(err error) error {
	var agg env.AggregateError
	if !errors.As(err, &agg) {
		return errors.New("config: invalid environment")
	}

	msgs := make([]string, 0, len(agg.Errors))
	for _, e := range agg.Errors {
		var pe env.ParseError
		if errors.As(e, &pe) {
			msgs = append(msgs, fmt.Sprintf("invalid %s (want %s)", pe.Name, pe.Type))
			continue
		}
		msgs = append(msgs, "invalid environment")
	}
	return fmt.Errorf("config: %s", strings.Join(msgs, "; "))
}

// Secrets lists every configured credential for log and error redaction.
func (c *Config) Secrets() []string {
	return []string{c.Brevo.APIKey, c.Resend.APIKey, c.SMTP.Password}
}

// Recipient is the single fixed notification recipient.
func (c *Config) Recipient() mailer.Address {
	return mailer.Address{Name: c.MailToName, Email: c.MailTo}
}

// Addr is the listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// RequestTimeout bounds a whole request: the dispatch timeout plus a
// margin for binding and rendering.
func (c *Config) RequestTimeout() time.Duration {
	return c.MailTimeout + 5*time.Second
}
