package middlewares_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/legalbook/relay/internal"
	"github.com/legalbook/relay/middlewares"
)

func TestTimeout(t *testing.T) {
	t.Parallel()

	t.Run("fast handler", func(t *testing.T) {
		t.Parallel()

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()

		require.NoError(t, middlewares.Timeout(time.Second)(okHandler)(newTestContext(rec, req)))
		require.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("handler sees deadline", func(t *testing.T) {
		t.Parallel()

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		var hasDeadline bool
		handler := middlewares.Timeout(time.Second)(func(c internal.Context) error {
			_, hasDeadline = c.Context().Deadline()
			return nil
		})

		require.NoError(t, handler(newTestContext(httptest.NewRecorder(), req)))
		require.True(t, hasDeadline)
	})

	t.Run("slow handler returns TimeoutError", func(t *testing.T) {
		t.Parallel()

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		handler := middlewares.Timeout(50 * time.Millisecond)(func(c internal.Context) error {
			<-c.Context().Done()
			return c.Context().Err()
		})

		start := time.Now()
		err := handler(newTestContext(httptest.NewRecorder(), req))
		te, ok := middlewares.AsTimeoutError(err)
		require.True(t, ok)
		require.Equal(t, 50*time.Millisecond, te.Duration)
		require.Less(t, time.Since(start), time.Second)
	})

	t.Run("handler error passes through", func(t *testing.T) {
		t.Parallel()

		want := errors.New("boom")
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		handler := middlewares.Timeout(time.Second)(func(c internal.Context) error { return want })

		require.ErrorIs(t, handler(newTestContext(httptest.NewRecorder(), req)), want)
	})

	t.Run("parent cancellation is not a timeout", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		req := httptest.NewRequest(http.MethodGet, "/", nil).WithContext(ctx)
		handler := middlewares.Timeout(time.Second)(func(c internal.Context) error {
			<-c.Context().Done()
			time.Sleep(10 * time.Millisecond)
			return nil
		})

		err := handler(newTestContext(httptest.NewRecorder(), req))
		require.ErrorIs(t, err, context.Canceled)
		_, ok := middlewares.AsTimeoutError(err)
		require.False(t, ok)
	})

	t.Run("late handler cannot write", func(t *testing.T) {
		t.Parallel()

		lateErr := make(chan error, 1)
		handler := middlewares.Timeout(20 * time.Millisecond)(func(c internal.Context) error {
			<-c.Context().Done()
			time.Sleep(20 * time.Millisecond)
			c.SetHeader("X-Late", "1")
			lateErr <- c.JSON(http.StatusOK, map[string]bool{"success": true})
			return nil
		})

		errorHandler := func(c internal.Context, err error) error {
			if _, ok := middlewares.AsTimeoutError(err); ok {
				return c.String(http.StatusGatewayTimeout, "timeout")
			}
			return err
		}
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := serveApp(req, handler, internal.WithErrorHandler(errorHandler))

		require.Equal(t, http.StatusGatewayTimeout, rec.Code)
		require.Equal(t, "timeout", rec.Body.String())

		select {
		case err := <-lateErr:
			require.ErrorIs(t, err, http.ErrHandlerTimeout)
		case <-time.After(time.Second):
			t.Fatal("handler goroutine did not finish")
		}
		require.Equal(t, "timeout", rec.Body.String())
		require.Empty(t, rec.Header().Get("X-Late"))
	})

	t.Run("buffered response reaches the client", func(t *testing.T) {
		t.Parallel()

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()
		handler := middlewares.Timeout(time.Second)(func(c internal.Context) error {
			c.SetHeader("X-Handler", "yes")
			return c.String(http.StatusCreated, "made")
		})

		require.NoError(t, handler(newTestContext(rec, req)))
		require.Equal(t, http.StatusCreated, rec.Code)
		require.Equal(t, "made", rec.Body.String())
		require.Equal(t, "yes", rec.Header().Get("X-Handler"))
	})

	t.Run("headers survive an error return", func(t *testing.T) {
		t.Parallel()

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()
		c := newTestContext(rec, req)
		handler := middlewares.Timeout(time.Second)(func(c internal.Context) error {
			c.SetHeader("Retry-After", "3")
			return errors.New("boom")
		})

		require.Error(t, handler(c))
		require.False(t, c.Written())
		require.Equal(t, "3", rec.Header().Get("Retry-After"))
	})

	t.Run("panic becomes PanicError", func(t *testing.T) {
		t.Parallel()

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		handler := middlewares.Timeout(time.Second)(func(c internal.Context) error {
			panic("kaboom")
		})

		pe, ok := middlewares.AsPanicError(handler(newTestContext(httptest.NewRecorder(), req)))
		require.True(t, ok)
		require.Equal(t, "kaboom", pe.Value)
	})

	t.Run("non-positive uses default", func(t *testing.T) {
		t.Parallel()

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		var deadline time.Time
		handler := middlewares.Timeout(0)(func(c internal.Context) error {
			deadline, _ = c.Context().Deadline()
			return nil
		})

		require.NoError(t, handler(newTestContext(httptest.NewRecorder(), req)))
		require.WithinDuration(t, time.Now().Add(middlewares.DefaultTimeout), deadline, time.Second)
	})
}
