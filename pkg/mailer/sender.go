package mailer

import "context"

// Sender defines the minimal interface that email providers must implement.
// It accepts a fully-prepared Email and makes exactly one delivery attempt.
type Sender interface {
	// Send delivers an email message.
	// On failure the error is, or wraps, a *DeliveryError.
	Send(ctx context.Context, email *Email) (*Receipt, error)
}

// Receipt describes an accepted message.
type Receipt struct {
	// MessageID is the provider-assigned identifier, empty when the provider returns none.
	MessageID string
	// Provider names the transport that accepted the message.
	Provider string
}

// Transport is a Sender with an explicit lifecycle, used by long-lived providers.
type Transport interface {
	Sender

	// Name identifies the provider in logs, metrics and error details.
	Name() string

	// Ping checks that the provider is reachable without sending mail.
	Ping(ctx context.Context) error

	// Close releases pooled connections. Safe to call more than once.
	Close() error
}
