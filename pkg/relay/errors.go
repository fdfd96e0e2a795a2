package relay

import (
	"errors"
	"net/http"
)

// ErrInvalidScores indicates sectionScores is not an object of numbers.
var ErrInvalidScores = errors.New("invalid section scores")

// Client-facing messages. They are stable and never carry provider text.
const (
	MsgMissingFields    = "Missing required fields: name, email, phone"
	MsgInvalidAPIKey    = "Invalid API key. Please check the mail provider credentials."
	MsgInvalidSMTPCreds = "Invalid SMTP credentials."
	MsgInvalidPayload   = "Invalid email data. Please check the request format."
	MsgRateLimited      = "Rate limit exceeded. Please try again later."
	MsgTimeout          = "Request timeout. Please try again."
	MsgSendFailed       = "Failed to send email"
	MsgInternal         = "Internal server error"
	MsgSent             = "Email sent successfully"
)

// Kind classifies a failed relay attempt.
type Kind int

const (
	KindValidation Kind = iota + 1
	KindAuth
	KindPayload
	KindRateLimit
	KindTimeout
	KindTransport
	KindInternal
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation_error"
	case KindAuth:
		return "auth_error"
	case KindPayload:
		return "payload_error"
	case KindRateLimit:
		return "rate_limit_error"
	case KindTimeout:
		return "timeout_error"
	case KindTransport:
		return "transport_error"
	default:
		return "internal_error"
	}
}

// Status is the HTTP status reported for the kind.
func (k Kind) Status() int {
	switch k {
	case KindValidation, KindPayload:
		return http.StatusBadRequest
	case KindAuth:
		return http.StatusUnauthorized
	case KindRateLimit:
		return http.StatusTooManyRequests
	case KindTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// ValidationDetails lists the missing required fields.
type ValidationDetails struct {
	Missing []string `json:"missing"`
}

// ProviderDetails is the sanitized provider response attached to transport
// failures. Message has markup stripped and configured secrets redacted.
type ProviderDetails struct {
	Provider string `json:"provider"`
	Message  string `json:"message,omitempty"`
	Status   int    `json:"status,omitempty"`
}

// Error is a classified relay failure.
type Error struct {
	// Err is the cause, for logs. It is nil for validation errors.
	Err error
	// Details is ValidationDetails or ProviderDetails.
	Details any
	// Message is safe to return to the client.
	Message string
	// Missing lists empty required fields for KindValidation.
	Missing []string
	Kind    Kind
	Status  int
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// AsError extracts a relay *Error from err.
func AsError(err error) (*Error, bool) {
	var re *Error
	if errors.As(err, &re) {
		return re, true
	}
	return nil, false
}

// IsValidation reports whether err is a validation failure.
func IsValidation(err error) bool {
	re, ok := AsError(err)
	return ok && re.Kind == KindValidation
}
