package mailer_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/legalbook/relay/pkg/mailer"
)

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestKindFromHTTPStatus(t *testing.T) {
	t.Parallel()

	tests := []struct {
		code int
		want mailer.FailureKind
	}{
		{http.StatusUnauthorized, mailer.FailureAuth},
		{http.StatusForbidden, mailer.FailureAuth},
		{http.StatusBadRequest, mailer.FailurePayload},
		{http.StatusUnprocessableEntity, mailer.FailurePayload},
		{http.StatusRequestEntityTooLarge, mailer.FailurePayload},
		{http.StatusTooManyRequests, mailer.FailureRateLimit},
		{http.StatusRequestTimeout, mailer.FailureTimeout},
		{http.StatusGatewayTimeout, mailer.FailureTimeout},
		{http.StatusInternalServerError, mailer.FailureUnavailable},
		{http.StatusBadGateway, mailer.FailureUnavailable},
		{http.StatusNotFound, mailer.FailureUnavailable},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.code), func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tt.want, mailer.KindFromHTTPStatus(tt.code))
		})
	}
}

func TestFailureKind_String(t *testing.T) {
	t.Parallel()

	require.Equal(t, "unavailable", mailer.FailureUnavailable.String())
	require.Equal(t, "auth", mailer.FailureAuth.String())
	require.Equal(t, "payload", mailer.FailurePayload.String())
	require.Equal(t, "rate_limit", mailer.FailureRateLimit.String())
	require.Equal(t, "timeout", mailer.FailureTimeout.String())
}

func TestDeliveryError(t *testing.T) {
	t.Parallel()

	t.Run("formats status and provider message", func(t *testing.T) {
		t.Parallel()

		err := &mailer.DeliveryError{Provider: "brevo", Kind: mailer.FailureAuth, Status: 401, Message: "Key not found"}
		require.Equal(t, "brevo: auth failure (401): Key not found", err.Error())
	})

	t.Run("falls back to cause", func(t *testing.T) {
		t.Parallel()

		cause := errors.New("connection refused")
		err := &mailer.DeliveryError{Provider: "smtp", Kind: mailer.FailureUnavailable, Err: cause}
		require.Equal(t, "smtp: unavailable failure: connection refused", err.Error())
		require.ErrorIs(t, err, cause)
	})

	t.Run("extracted through wrapping", func(t *testing.T) {
		t.Parallel()

		wrapped := errors.Join(mailer.ErrSendFailed, &mailer.DeliveryError{Provider: "resend", Kind: mailer.FailurePayload})
		de, ok := mailer.AsDeliveryError(wrapped)
		require.True(t, ok)
		require.Equal(t, "resend", de.Provider)

		_, ok = mailer.AsDeliveryError(errors.New("plain"))
		require.False(t, ok)
	})
}

func TestTransportFailure(t *testing.T) {
	t.Parallel()

	require.True(t, mailer.IsTimeout(context.DeadlineExceeded))
	require.True(t, mailer.IsTimeout(fmt.Errorf("dial: %w", timeoutErr{})))
	require.False(t, mailer.IsTimeout(errors.New("refused")))

	de := mailer.TransportFailure("brevo", fmt.Errorf("post: %w", context.DeadlineExceeded))
	require.Equal(t, mailer.FailureTimeout, de.Kind)
	require.Zero(t, de.Status)

	de = mailer.TransportFailure("brevo", errors.New("connection refused"))
	require.Equal(t, mailer.FailureUnavailable, de.Kind)
}
