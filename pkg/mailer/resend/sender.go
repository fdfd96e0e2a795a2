package resend

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/resend/resend-go/v3"

	"github.com/legalbook/relay/pkg/mailer"
)

const providerName = "resend"

// Sender implements mailer.Transport using the Resend API.
type Sender struct {
	client     *resend.Client
	httpClient *http.Client
	config     Config
}

// New creates a new Resend sender. An invalid BaseURL is ignored.
func New(cfg Config) *Sender {
	rt := &statusRecorder{base: http.DefaultTransport}
	if cfg.BaseURL != "" {
		if u, err := url.Parse(cfg.BaseURL); err == nil && u.Host != "" {
			rt.target = u
		}
	}

	httpClient := &http.Client{Transport: rt}
	return &Sender{
		client:     resend.NewCustomClient(httpClient, cfg.APIKey),
		httpClient: httpClient,
		config:     cfg,
	}
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

	to := make([]string, 0, len(email.To))
	for _, a := range email.To {
		to = append(to, a.String())
	}

	req := &resend.SendEmailRequest{
		From:    email.From.String(),
		To:      to,
		Subject: email.Subject,
		Html:    email.HTML,
		Text:    email.Text,
		Headers: email.Headers,
	}
	if !email.ReplyTo.IsZero() {
		req.ReplyTo = email.ReplyTo.String()
	}
	if len(email.Tags) > 0 {
		req.Tags = convertTags(email.Tags)
	}

	status := new(int)
	resp, err := s.client.Emails.SendWithContext(context.WithValue(ctx, statusKey{}, status), req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, mailer.TransportFailure(providerName, errors.Join(ctxErr, err))
		}
		if *status == 0 {
			return nil, mailer.TransportFailure(providerName, err)
		}
		return nil, &mailer.DeliveryError{
			Provider: providerName,
			Kind:     mailer.KindFromHTTPStatus(*status),
			Status:   *status,
			Err:      err,
		}
	}

	receipt := &mailer.Receipt{Provider: providerName}
	if resp != nil {
		receipt.MessageID = resp.Id
	}
	return receipt, nil
}

// Ping reports whether an API key is configured. Resend has no
// side-effect-free credential check.
func (s *Sender) Ping(context.Context) error {
	if s.config.APIKey == "" {
		return fmt.Errorf("resend: %w", mailer.ErrNotConfigured)
	}
	return nil
}

// Close releases idle HTTP connections.
func (s *Sender) Close() error {
	s.httpClient.CloseIdleConnections()
	return nil
}

func convertTags(tags mailer.Tags) []resend.Tag {
	result := make([]resend.Tag, 0, len(tags))
	for name, value := range tags {
		result = append(result, resend.Tag{
			Name:  name,
			Value: tagValue(value),
		})
	}
	return result
}

// tagValue converts any value to a string for Resend's tag API.
// Presence-only tags (struct{}{}) become "true".
func tagValue(v any) string {
	switch val := v.(type) {
	case nil, struct{}:
		return "true"
	case string:
		return val
	case bool:
		return strconv.FormatBool(val)
	case int:
		return strconv.Itoa(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case fmt.Stringer:
		return val.String()
	default:
		return fmt.Sprint(val)
	}
}

type statusKey struct{}

// statusRecorder stores the response status into the *int carried by the
// request context, and optionally redirects requests to target.
type statusRecorder struct {
	base   http.RoundTripper
	target *url.URL
}

func (t *statusRecorder) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.target != nil {
		req = req.Clone(req.Context())
		req.URL.Scheme = t.target.Scheme
		req.URL.Host = t.target.Host
		req.Host = ""
	}

	resp, err := t.base.RoundTrip(req)
	if resp != nil {
		if status, ok := req.Context().Value(statusKey{}).(*int); ok {
			*status = resp.StatusCode
		}
	}
	return resp, err
}

func (t *statusRecorder) CloseIdleConnections() {
	if c, ok := t.base.(interface{ CloseIdleConnections() }); ok {
		c.CloseIdleConnections()
	}
}
