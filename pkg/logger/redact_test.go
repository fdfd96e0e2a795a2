package logger_test

import (
	"bytes"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/legalbook/relay/pkg/logger"
)

func TestRedactor(t *testing.T) {
	t.Parallel()

	t.Run("replaces every secret", func(t *testing.T) {
		t.Parallel()

		r := logger.NewRedactor("xkeysib-123", "hunter2", "")
		got := r.Redact("key=xkeysib-123 pass=hunter2 again xkeysib-123")
		require.Equal(t, "key=[REDACTED] pass=[REDACTED] again [REDACTED]", got)
	})

	t.Run("longer secret wins over contained one", func(t *testing.T) {
		t.Parallel()

		r := logger.NewRedactor("abc", "abcdef")
		require.Equal(t, "[REDACTED]", r.Redact("abcdef"))
	})

	t.Run("nil and empty are passthrough", func(t *testing.T) {
		t.Parallel()

		var nilRedactor *logger.Redactor
		require.Equal(t, "plain", nilRedactor.Redact("plain"))
		require.Equal(t, "plain", logger.NewRedactor("", "  ").Redact("plain"))
	})
}

func TestWithRedaction(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	base := slog.New(slog.NewJSONHandler(&buf, nil))
	log := logger.WithRedaction(base, logger.NewRedactor("s3cr3t"))

	log.With("static", "token s3cr3t").Error("auth failed for s3cr3t",
		slog.String("detail", "api-key: s3cr3t"),
		slog.Any("error", errors.New("401 s3cr3t rejected")),
		slog.Group("provider", slog.String("message", "bad s3cr3t")),
		slog.Int("status", 401),
	)

	out := buf.String()
	require.NotContains(t, out, "s3cr3t")
	require.Contains(t, out, `"msg":"auth failed for [REDACTED]"`)
	require.Contains(t, out, `"detail":"api-key: [REDACTED]"`)
	require.Contains(t, out, `"error":"401 [REDACTED] rejected"`)
	require.Contains(t, out, `"static":"token [REDACTED]"`)
	require.Contains(t, out, `"status":401`)
}
