// Package brevo delivers mail through the Brevo (formerly Sendinblue)
// transactional email API.
package brevo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/go-resty/resty/v2"

	"github.com/legalbook/relay/pkg/mailer"
)

const (
	providerName = "brevo"

	// maxResponseBytes caps how much of a provider response is read.
	maxResponseBytes = 64 << 10
)

type contact struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email"`
}

type sendRequest struct {
	Sender      contact           `json:"sender"`
	ReplyTo     *contact          `json:"replyTo,omitempty"`
	Headers     map[string]string `json:"headers,omitempty"`
	Subject     string            `json:"subject"`
	HTMLContent string            `json:"htmlContent,omitempty"`
	TextContent string            `json:"textContent,omitempty"`
	To          []contact         `json:"to"`
	Tags        []string          `json:"tags,omitempty"`
}

type sendResponse struct {
	MessageID string `json:"messageId"`
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Sender implements mailer.Transport using the Brevo HTTP API.
type Sender struct {
	client *resty.Client
	config Config
	log    *slog.Logger
}

// Option configures a Sender.
type Option func(*Sender)

// WithLogger sets the logger for resty's internal messages and for
// accepted sends whose reply could not be decoded. Default: discard.
func WithLogger(l *slog.Logger) Option {
	return func(s *Sender) {
		if l != nil {
			s.log = l
		}
	}
}

// New creates a new Brevo sender.
func New(cfg Config, opts ...Option) *Sender {
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEndpoint
	}

	s := &Sender{config: cfg, log: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		opt(s)
	}

	s.client = resty.New().
		SetLogger(restyLogger{log: s.log}).
		SetHeader("Accept", "application/json").
		SetHeader("Content-Type", "application/json").
		SetResponseBodyLimit(maxResponseBytes)

	return s
}

// Name implements mailer.Transport.
func (s *Sender) Name() string { return providerName }

// Send implements mailer.Sender.
func (s *Sender) Send(ctx context.Context, email *mailer.Email) (*mailer.Receipt, error) {
	if s.config.APIKey == "" {
		return nil, &mailer.DeliveryError{
			Provider: providerName,
			Kind:     mailer.FailureAuth,
			Message:  "api key is not set",
			Err:      mailer.ErrNotConfigured,
		}
	}

	var (
		result  sendResponse
		failure apiError
	)
	resp, err := s.client.R().
		SetContext(ctx).
		SetHeader("api-key", s.config.APIKey).
		SetBody(buildRequest(email)).
		SetResult(&result).
		SetError(&failure).
		Post(s.config.Endpoint)
	if err != nil && (resp == nil || resp.StatusCode() == 0) {
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = errors.Join(ctxErr, err)
		}
		return nil, mailer.TransportFailure(providerName, err)
	}

	// A 2xx means Brevo accepted the message even if the reply body could
	// not be decoded.
	if resp.IsSuccess() {
		if err != nil {
			s.log.WarnContext(ctx, "brevo reply could not be decoded",
				"status", resp.StatusCode(), "error", err)
		}
		return &mailer.Receipt{MessageID: result.MessageID, Provider: providerName}, nil
	}

	status := resp.StatusCode()
	return nil, &mailer.DeliveryError{
		Provider: providerName,
		Kind:     mailer.KindFromHTTPStatus(status),
		Status:   status,
		Message:  failure.Message,
		Err:      fmt.Errorf("brevo: unexpected status %d %s", status, failure.Code),
	}
}

// Ping reports whether an API key is configured. It sends nothing.
func (s *Sender) Ping(context.Context) error {
	if s.config.APIKey == "" {
		return fmt.Errorf("brevo: %w", mailer.ErrNotConfigured)
	}
	return nil
}

// Close releases idle HTTP connections.
func (s *Sender) Close() error {
	s.client.GetClient().CloseIdleConnections()
	return nil
}

func buildRequest(email *mailer.Email) sendRequest {
	req := sendRequest{
		Sender:      contact{Name: email.From.Name, Email: email.From.Email},
		Subject:     email.Subject,
		HTMLContent: email.HTML,
		TextContent: email.Text,
		Headers:     email.Headers,
		To:          make([]contact, 0, len(email.To)),
	}
	for _, a := range email.To {
		req.To = append(req.To, contact{Name: a.Name, Email: a.Email})
	}
	if !email.ReplyTo.IsZero() {
		req.ReplyTo = &contact{Name: email.ReplyTo.Name, Email: email.ReplyTo.Email}
	}
	if len(email.Tags) > 0 {
		req.Tags = tagNames(email.Tags)
	}
	return req
}

// tagNames flattens tags to Brevo's name-only list.
// Key-value tags become "key:value". The result is sorted.
func tagNames(tags mailer.Tags) []string {
	names := make([]string, 0, len(tags))
	for name, value := range tags {
		switch v := value.(type) {
		case nil, struct{}:
			names = append(names, name)
		default:
			s := strings.TrimSpace(fmt.Sprint(v))
			if s == "" {
				names = append(names, name)
				continue
			}
			names = append(names, name+":"+s)
		}
	}
	sort.Strings(names)
	return names
}

var _ mailer.Transport = (*Sender)(nil)
