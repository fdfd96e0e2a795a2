package mailer

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

var (
	// ErrNoRecipient indicates no recipient was specified.
	ErrNoRecipient = errors.New("email must have at least one recipient")

	// ErrNoSender indicates no sender was specified.
	ErrNoSender = errors.New("email must have a sender")

	// ErrNoSubject indicates no subject was provided.
	ErrNoSubject = errors.New("email must have a subject")

	// ErrNoContent indicates neither HTML nor text content was provided.
	ErrNoContent = errors.New("email must have content")

	// ErrTemplateNotFound indicates the template file was not found.
	ErrTemplateNotFound = errors.New("template not found")

	// ErrLayoutNotFound indicates the layout file was not found.
	ErrLayoutNotFound = errors.New("layout not found")

	// ErrRenderFailed indicates template rendering failed.
	ErrRenderFailed = errors.New("failed to render template")

	// ErrSendFailed indicates email sending failed.
	ErrSendFailed = errors.New("failed to send email")

	// ErrInvalidFrontmatter indicates invalid YAML frontmatter.
	ErrInvalidFrontmatter = errors.New("invalid frontmatter")

	// ErrNotConfigured indicates the transport is missing credentials or a host.
	ErrNotConfigured = errors.New("mail transport not configured")
)

// FailureKind classifies why a delivery attempt failed.
type FailureKind int

const (
	// FailureUnavailable covers everything not classified below:
	// connection refused, DNS errors, provider 5xx.
	FailureUnavailable FailureKind = iota
	// FailureAuth means the provider rejected the credentials.
	FailureAuth
	// FailurePayload means the provider rejected the message itself.
	FailurePayload
	// FailureRateLimit means the provider throttled the request.
	FailureRateLimit
	// FailureTimeout means the attempt exceeded its deadline.
	FailureTimeout
)

func (k FailureKind) String() string {
	switch k {
	case FailureAuth:
		return "auth"
	case FailurePayload:
		return "payload"
	case FailureRateLimit:
		return "rate_limit"
	case FailureTimeout:
		return "timeout"
	default:
		return "unavailable"
	}
}

// DeliveryError is the tagged failure every transport returns.
type DeliveryError struct {
	// Err is the underlying cause, never containing credentials.
	Err error
	// Provider names the transport ("brevo", "resend", "smtp").
	Provider string
	// Message is the provider-reported reason, if any.
	Message string
	// Kind classifies the failure.
	Kind FailureKind
	// Status is the provider HTTP status or SMTP reply code (0 when none).
	Status int
}

func (e *DeliveryError) Error() string {
	msg := fmt.Sprintf("%s: %s failure", e.Provider, e.Kind)
	if e.Status != 0 {
		msg += fmt.Sprintf(" (%d)", e.Status)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	} else if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *DeliveryError) Unwrap() error {
	return e.Err
}

// AsDeliveryError extracts the DeliveryError from an error if present.
func AsDeliveryError(err error) (*DeliveryError, bool) {
	var de *DeliveryError
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}

// KindFromHTTPStatus maps a provider HTTP status to a FailureKind.
func KindFromHTTPStatus(code int) FailureKind {
	switch code {
	case http.StatusUnauthorized, http.StatusForbidden:
		return FailureAuth
	case http.StatusBadRequest, http.StatusUnprocessableEntity, http.StatusRequestEntityTooLarge:
		return FailurePayload
	case http.StatusTooManyRequests:
		return FailureRateLimit
	case http.StatusRequestTimeout, http.StatusGatewayTimeout:
		return FailureTimeout
	default:
		return FailureUnavailable
	}
}

// IsTimeout reports whether err is a context deadline or a network timeout.
func IsTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// TransportFailure wraps a low-level error (no provider response) as a
// DeliveryError, classifying deadlines and network timeouts.
func TransportFailure(provider string, err error) *DeliveryError {
	kind := FailureUnavailable
	if IsTimeout(err) {
		kind = FailureTimeout
	}
	return &DeliveryError{Provider: provider, Kind: kind, Err: err}
}
