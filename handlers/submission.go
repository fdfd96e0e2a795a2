package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/legalbook/relay/internal"
	"github.com/legalbook/relay/pkg/relay"
)

// SendEmailPath is the submission endpoint.
const SendEmailPath = "/api/send-email"

// Relayer relays one submission. *relay.Relay implements it.
type Relayer interface {
	Handle(ctx context.Context, sub relay.Submission) (*relay.Result, error)
}

// SubmissionHandler accepts assessment submissions and relays them by email.
type SubmissionHandler struct {
	relay Relayer
	now   func() time.Time
	mw    []internal.Middleware
}

// SubmissionOption configures SubmissionHandler.
type SubmissionOption func(*SubmissionHandler)

// WithNow overrides the clock stamping ReceivedAt.
func WithNow(now func() time.Time) SubmissionOption {
	return func(h *SubmissionHandler) {
		if now != nil {
			h.now = now
		}
	}
}

// WithRouteMiddleware adds middleware that only wraps the submission route.
func WithRouteMiddleware(mw ...internal.Middleware) SubmissionOption {
	return func(h *SubmissionHandler) {
		h.mw = append(h.mw, mw...)
	}
}

// NewSubmission creates a submission handler over r.
func NewSubmission(r Relayer, opts ...SubmissionOption) *SubmissionHandler {
	h := &SubmissionHandler{relay: r, now: time.Now}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Routes implements internal.Handler.
func (h *SubmissionHandler) Routes(r internal.Router) {
	r.POST(SendEmailPath, h.send, h.mw...)
}

type sendResponse struct {
	MessageID string `json:"messageId,omitempty"`
	Message   string `json:"message"`
	Success   bool   `json:"success"`
}

// send binds the JSON body and relays it. An empty body is treated
// as an empty submission, so the client gets the missing fields error.
func (h *SubmissionHandler) send(c internal.Context) error {
	var sub relay.Submission
	if err := c.BindJSON(&sub); err != nil && !errors.Is(err, internal.ErrEmptyBody) {
		return err
	}
	sub.ReceivedAt = h.now()

	res, err := h.relay.Handle(c.Context(), sub)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, sendResponse{
		Success:   true,
		MessageID: res.MessageID,
		Message:   relay.MsgSent,
	})
}
