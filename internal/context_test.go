package internal_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/legalbook/relay/internal"
)

type routeFunc func(r internal.Router)

func (f routeFunc) Routes(r internal.Router) { f(r) }

func serve(t *testing.T, req *http.Request, h internal.HandlerFunc, opts ...internal.Option) *httptest.ResponseRecorder {
	t.Helper()

	opts = append(opts, internal.WithHandlers(routeFunc(func(r internal.Router) {
		r.POST("/", h)
		r.GET("/", h)
	})))
	rec := httptest.NewRecorder()
	internal.New(opts...).ServeHTTP(rec, req)
	return rec
}

func TestContext_BindJSON(t *testing.T) {
	t.Parallel()

	type payload struct {
		Name string `json:"name"`
	}

	bind := func(t *testing.T, body string, opts ...internal.Option) (payload, error) {
		t.Helper()

		var (
			got     payload
			bindErr error
		)
		var req *http.Request
		if body == "" {
			req = httptest.NewRequest(http.MethodPost, "/", http.NoBody)
		} else {
			req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
		}
		serve(t, req, func(c internal.Context) error {
			bindErr = c.BindJSON(&got)
			return c.NoContent(http.StatusOK)
		}, opts...)
		return got, bindErr
	}

	t.Run("decodes body", func(t *testing.T) {
		t.Parallel()
		got, err := bind(t, `{"name":"Jane"}`)
		require.NoError(t, err)
		require.Equal(t, "Jane", got.Name)
	})

	t.Run("empty body", func(t *testing.T) {
		t.Parallel()
		_, err := bind(t, "")
		require.ErrorIs(t, err, internal.ErrEmptyBody)
	})

	t.Run("whitespace only body", func(t *testing.T) {
		t.Parallel()
		_, err := bind(t, "   ")
		require.ErrorIs(t, err, internal.ErrEmptyBody)
	})

	t.Run("invalid json", func(t *testing.T) {
		t.Parallel()
		_, err := bind(t, `{"name":`)
		require.ErrorIs(t, err, internal.ErrInvalidJSON)
	})

	t.Run("trailing data", func(t *testing.T) {
		t.Parallel()
		for _, body := range []string{`{"name":"x"}garbage`, `{"name":"x"}{"name":"y"}`, `{"name":"x"} 1`} {
			_, err := bind(t, body)
			require.ErrorIs(t, err, internal.ErrInvalidJSON, body)
		}
	})

	t.Run("trailing whitespace", func(t *testing.T) {
		t.Parallel()
		got, err := bind(t, "{\"name\":\"Jane\"}\n\t ")
		require.NoError(t, err)
		require.Equal(t, "Jane", got.Name)
	})

	t.Run("trailing data past the limit", func(t *testing.T) {
		t.Parallel()
		_, err := bind(t, `{"name":"x"}`+strings.Repeat(" ", 64)+"x", internal.WithMaxBodyBytes(32))
		require.ErrorIs(t, err, internal.ErrBodyTooLarge)
	})

	t.Run("wrong type", func(t *testing.T) {
		t.Parallel()
		_, err := bind(t, `{"name":42}`)
		require.ErrorIs(t, err, internal.ErrInvalidJSON)
	})

	t.Run("body too large", func(t *testing.T) {
		t.Parallel()
		_, err := bind(t, `{"name":"`+strings.Repeat("x", 64)+`"}`, internal.WithMaxBodyBytes(16))
		require.ErrorIs(t, err, internal.ErrBodyTooLarge)
	})

	t.Run("limit disabled", func(t *testing.T) {
		t.Parallel()
		_, err := bind(t, `{"name":"`+strings.Repeat("x", 64)+`"}`, internal.WithMaxBodyBytes(0))
		require.NoError(t, err)
	})
}

func TestContext_Responses(t *testing.T) {
	t.Parallel()

	t.Run("json", func(t *testing.T) {
		t.Parallel()
		rec := serve(t, httptest.NewRequest(http.MethodGet, "/", nil), func(c internal.Context) error {
			return c.JSON(http.StatusOK, map[string]bool{"success": true})
		})
		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, "application/json; charset=utf-8", rec.Header().Get("Content-Type"))
		require.JSONEq(t, `{"success":true}`, rec.Body.String())
	})

	t.Run("string", func(t *testing.T) {
		t.Parallel()
		rec := serve(t, httptest.NewRequest(http.MethodGet, "/", nil), func(c internal.Context) error {
			return c.String(http.StatusOK, "running")
		})
		require.Equal(t, "running", rec.Body.String())
		require.Equal(t, "text/plain; charset=utf-8", rec.Header().Get("Content-Type"))
	})

	t.Run("no content and headers", func(t *testing.T) {
		t.Parallel()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-In", "abc")
		rec := serve(t, req, func(c internal.Context) error {
			c.SetHeader("X-Out", c.Header("X-In"))
			require.False(t, c.Written())
			err := c.NoContent(http.StatusNoContent)
			require.True(t, c.Written())
			return err
		})
		require.Equal(t, http.StatusNoContent, rec.Code)
		require.Equal(t, "abc", rec.Header().Get("X-Out"))
	})
}

type ctxKey struct{}

func TestContext_ValuesFlowThroughMiddleware(t *testing.T) {
	t.Parallel()

	mw := func(next internal.HandlerFunc) internal.HandlerFunc {
		return func(c internal.Context) error {
			c.Set(ctxKey{}, "from-middleware")
			return next(c)
		}
	}

	var got any
	var fromStd any
	serve(t, httptest.NewRequest(http.MethodGet, "/", nil), func(c internal.Context) error {
		got = c.Get(ctxKey{})
		fromStd = c.Context().Value(ctxKey{})
		return nil
	}, internal.WithMiddleware(mw))

	require.Equal(t, "from-middleware", got)
	require.Equal(t, "from-middleware", fromStd)
}

func TestContext_SetContext(t *testing.T) {
	t.Parallel()

	serve(t, httptest.NewRequest(http.MethodGet, "/", nil), func(c internal.Context) error {
		ctx, cancel := context.WithCancel(c.Context())
		c.SetContext(ctx)
		cancel()
		require.ErrorIs(t, c.Context().Err(), context.Canceled)
		return nil
	})
}
