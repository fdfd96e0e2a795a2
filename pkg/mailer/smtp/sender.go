// Package smtp delivers mail over an SMTP relay.
//
// The session is driven with net/smtp on a connection whose deadline follows
// the caller's context; the MIME body is composed with gomail.
package smtp

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"net/smtp"
	"net/textproto"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"gopkg.in/gomail.v2"

	"github.com/legalbook/relay/pkg/mailer"
)

const providerName = "smtp"

// Sender implements mailer.Transport over SMTP.
// Every Send opens and closes its own connection.
type Sender struct {
	config Config
	dialer net.Dialer
}

// New creates a new SMTP sender.
func New(cfg Config) *Sender {
	if cfg.Port == 0 {
		cfg.Port = 587
	}
	if cfg.LocalName == "" {
		cfg.LocalName = "localhost"
	}
	return &Sender{config: cfg}
}

// Name implements mailer.Transport.
func (s *Sender) Name() string { return providerName }

// Send implements mailer.Sender.
func (s *Sender) Send(ctx context.Context, email *mailer.Email) (*mailer.Receipt, error) {
	if s.config.Host == "" {
		return nil, &mailer.DeliveryError{
			Provider: providerName,
			Kind:     mailer.FailureUnavailable,
			Message:  "smtp host is not set",
			Err:      mailer.ErrNotConfigured,
		}
	}

	messageID := newMessageID(email.From.Email)
	msg := buildMessage(email, messageID)

	c, err := s.open(ctx)
	if err != nil {
		return nil, s.classify(ctx, err)
	}
	defer c.Close()

	if err := s.deliver(c, email, msg); err != nil {
		return nil, s.classify(ctx, err)
	}

	return &mailer.Receipt{MessageID: messageID, Provider: providerName}, nil
}

// Ping opens a session, negotiates TLS and authenticates without sending mail.
func (s *Sender) Ping(ctx context.Context) error {
	if s.config.Host == "" {
		return fmt.Errorf("smtp: %w", mailer.ErrNotConfigured)
	}

	c, err := s.open(ctx)
	if err != nil {
		return s.classify(ctx, err)
	}
	defer c.Close()

	if err := c.Quit(); err != nil {
		return s.classify(ctx, err)
	}
	return nil
}

// Close is a no-op: connections are not pooled.
func (s *Sender) Close() error { return nil }

func (s *Sender) addr() string {
	return net.JoinHostPort(s.config.Host, strconv.Itoa(s.config.Port))
}

func (s *Sender) tlsConfig() *tls.Config {
	return &tls.Config{
		ServerName:         s.config.Host,
		MinVersion:         tls.VersionTLS12,
		InsecureSkipVerify: s.config.InsecureSkipVerify, //nolint:gosec // opt-in for local relays
	}
}

// session is an SMTP client whose connection deadline tracks a context.
type session struct {
	*smtp.Client
	stop func() bool
}

func (s *session) Close() error {
	s.stop()
	return s.Client.Close()
}

// open dials the relay and returns a session past EHLO, STARTTLS and AUTH.
func (s *Sender) open(ctx context.Context) (*session, error) {
	conn, err := s.dialer.DialContext(ctx, "tcp", s.addr())
	if err != nil {
		return nil, err
	}

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}
	stop := context.AfterFunc(ctx, func() {
		_ = conn.SetDeadline(time.Now())
	})

	if s.config.implicitTLS() {
		conn = tls.Client(conn, s.tlsConfig())
	}

	c, err := smtp.NewClient(conn, s.config.Host)
	if err != nil {
		stop()
		_ = conn.Close()
		return nil, err
	}

	if err := s.handshake(c); err != nil {
		stop()
		_ = c.Close()
		return nil, err
	}
	return &session{Client: c, stop: stop}, nil
}

func (s *Sender) handshake(c *smtp.Client) error {
	if err := c.Hello(s.config.LocalName); err != nil {
		return err
	}

	if !s.config.implicitTLS() {
		if ok, _ := c.Extension("STARTTLS"); ok {
			if err := c.StartTLS(s.tlsConfig()); err != nil {
				return err
			}
		}
	}

	if s.config.Username != "" {
		auth := smtp.PlainAuth("", s.config.Username, s.config.Password, s.config.Host)
		if err := c.Auth(auth); err != nil {
			return err
		}
	}
	return nil
}

func (s *Sender) deliver(c *session, email *mailer.Email, msg *gomail.Message) error {
	if err := c.Mail(email.From.Email); err != nil {
		return err
	}
	for _, rcpt := range email.To {
		if err := c.Rcpt(rcpt.Email); err != nil {
			return err
		}
	}

	w, err := c.Data()
	if err != nil {
		return err
	}
	if _, err := msg.WriteTo(w); err != nil {
		_ = w.Close()
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	return c.Quit()
}

// classify maps an SMTP session error to a DeliveryError.
// The password never appears in reply text or net errors.
func (s *Sender) classify(ctx context.Context, err error) *mailer.DeliveryError {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return mailer.TransportFailure(providerName, errors.Join(ctxErr, err))
	}

	var tpErr *textproto.Error
	if errors.As(err, &tpErr) {
		return &mailer.DeliveryError{
			Provider: providerName,
			Kind:     KindFromReplyCode(tpErr.Code),
			Status:   tpErr.Code,
			Message:  strings.TrimSpace(tpErr.Msg),
			Err:      err,
		}
	}

	if errors.Is(err, io.EOF) {
		return &mailer.DeliveryError{Provider: providerName, Kind: mailer.FailureUnavailable, Err: err}
	}
	return mailer.TransportFailure(providerName, err)
}

// KindFromReplyCode maps an SMTP reply code to a FailureKind.
func KindFromReplyCode(code int) mailer.FailureKind {
	switch {
	case code == 530 || code == 534 || code == 535:
		return mailer.FailureAuth
	case code == 421 || code == 450 || code == 451:
		return mailer.FailureRateLimit
	case code >= 500 && code <= 504, code >= 550 && code <= 554:
		return mailer.FailurePayload
	default:
		return mailer.FailureUnavailable
	}
}

// buildMessage composes a multipart/alternative message.
func buildMessage(email *mailer.Email, messageID string) *gomail.Message {
	m := gomail.NewMessage()
	m.SetAddressHeader("From", email.From.Email, email.From.Name)

	to := make([]string, 0, len(email.To))
	for _, a := range email.To {
		to = append(to, m.FormatAddress(a.Email, a.Name))
	}
	m.SetHeader("To", to...)

	if !email.ReplyTo.IsZero() {
		m.SetAddressHeader("Reply-To", email.ReplyTo.Email, email.ReplyTo.Name)
	}
	m.SetHeader("Subject", email.Subject)
	m.SetHeader("Message-ID", messageID)
	for k, v := range email.Headers {
		m.SetHeader(k, v)
	}

	switch {
	case email.Text != "" && email.HTML != "":
		m.SetBody("text/plain", email.Text)
		m.AddAlternative("text/html", email.HTML)
	case email.HTML != "":
		m.SetBody("text/html", email.HTML)
	default:
		m.SetBody("text/plain", email.Text)
	}
	return m
}

func newMessageID(from string) string {
	domain := "localhost"
	if _, d, ok := strings.Cut(from, "@"); ok && d != "" {
		domain = d
	}
	return "<" + uuid.NewString() + "@" + domain + ">"
}

var _ mailer.Transport = (*Sender)(nil)
