package handlers

import (
	"errors"
	"net/http"

	"github.com/legalbook/relay/internal"
	"github.com/legalbook/relay/middlewares"
	"github.com/legalbook/relay/pkg/relay"
)

// Client messages for failures outside the relay taxonomy.
const (
	MsgInvalidJSON      = "Invalid JSON body"
	MsgInvalidScores    = "Invalid section scores"
	MsgBodyTooLarge     = "Request body too large"
	MsgNotFound         = "Not found"
	MsgMethodNotAllowed = "Method not allowed"
)

type errorResponse struct {
	Details any    `json:"details,omitempty"`
	Error   string `json:"error"`
}

// ErrorHandler renders every handler error as {"error", "details"?}.
// Anything it does not recognize becomes a generic 500.
func ErrorHandler(c internal.Context, err error) error {
	he := classify(err)
	if he.Code >= http.StatusInternalServerError {
		attrs := []any{"status", he.Code}
		if pe, ok := middlewares.AsPanicError(err); ok {
			attrs = append(attrs, "panic", pe.Value)
		} else if _, ok := relay.AsError(err); !ok {
			attrs = append(attrs, "error", err.Error())
		}
		c.LogError("request failed", attrs...)
	}
	return c.JSON(he.Code, errorResponse{Error: he.Message, Details: he.Detail})
}

// classify maps err onto the HTTPError the client sees. The cause is kept
// in Err for logging only.
func classify(err error) *internal.HTTPError {
	if re, ok := relay.AsError(err); ok {
		return internal.NewHTTPError(re.Status, re.Message, internal.WithDetail(re.Details), internal.WithError(err))
	}
	if he := internal.AsHTTPError(err); he != nil {
		return he
	}
	if _, ok := middlewares.AsTimeoutError(err); ok {
		return internal.ErrGatewayTimeout(relay.MsgTimeout, internal.WithError(err))
	}

	switch {
	case errors.Is(err, internal.ErrBodyTooLarge):
		return internal.ErrPayloadTooLarge(MsgBodyTooLarge, internal.WithError(err))
	case errors.Is(err, relay.ErrInvalidScores):
		return internal.ErrBadRequest(MsgInvalidScores, internal.WithError(err))
	case errors.Is(err, internal.ErrInvalidJSON), errors.Is(err, internal.ErrEmptyBody):
		return internal.ErrBadRequest(MsgInvalidJSON, internal.WithError(err))
	}

	return internal.ErrInternal(relay.MsgInternal, internal.WithError(err))
}

// NotFound answers unknown routes.
func NotFound(internal.Context) error {
	return internal.ErrNotFound(MsgNotFound)
}

// MethodNotAllowed answers known routes hit with the wrong method.
func MethodNotAllowed(internal.Context) error {
	return internal.ErrMethodNotAllowed(MsgMethodNotAllowed)
}
