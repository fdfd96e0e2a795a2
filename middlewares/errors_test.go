package middlewares_test

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/legalbook/relay/middlewares"
)

func TestAsPanicError(t *testing.T) {
	t.Parallel()

	pe := &middlewares.PanicError{Value: "boom"}
	require.Equal(t, "panic: boom", pe.Error())

	got, ok := middlewares.AsPanicError(fmt.Errorf("wrapped: %w", pe))
	require.True(t, ok)
	require.Same(t, pe, got)

	_, ok = middlewares.AsPanicError(errors.New("plain"))
	require.False(t, ok)
}

func TestAsTimeoutError(t *testing.T) {
	t.Parallel()

	te := &middlewares.TimeoutError{Duration: 2 * time.Second}
	require.Equal(t, "request timeout after 2s", te.Error())

	got, ok := middlewares.AsTimeoutError(fmt.Errorf("wrapped: %w", te))
	require.True(t, ok)
	require.Equal(t, 2*time.Second, got.Duration)

	_, ok = middlewares.AsTimeoutError(nil)
	require.False(t, ok)
}
