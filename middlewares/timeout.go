package middlewares

import (
	"bytes"
	"context"
	"errors"
	"maps"
	"net/http"
	"runtime/debug"
	"sync"
	"time"

	"github.com/legalbook/relay/internal"
)

// DefaultTimeout is the default request timeout.
const DefaultTimeout = 30 * time.Second

// Timeout bounds the whole request. The derived deadline replaces the
// request context, so c.Context() inside the handler observes it.
//
// The handler runs on its own goroutine against a buffered writer. Its
// headers, status and body reach the client only if it returns before
// the deadline. When the deadline passes first, a *TimeoutError is
// returned and every later write by the handler fails with
// http.ErrHandlerTimeout.
func Timeout(timeout time.Duration) internal.Middleware {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return func(next internal.HandlerFunc) internal.HandlerFunc {
		return func(c internal.Context) error {
			ctx, cancel := context.WithTimeout(c.Context(), timeout)
			defer cancel()
			c.SetContext(ctx)

			tw := newTimeoutWriter()
			inner := c.WithWriter(tw)

			done := make(chan error, 1)
			go func() {
				defer func() {
					if p := recover(); p != nil {
						done <- &PanicError{Value: p, Stack: debug.Stack()}
					}
				}()
				done <- next(inner)
			}()

			select {
			case err := <-done:
				tw.flushTo(c.Response())
				return err
			case <-ctx.Done():
				tw.expire()
				if errors.Is(ctx.Err(), context.DeadlineExceeded) {
					c.LogWarn("request timeout", "timeout", timeout.String())
					return &TimeoutError{Duration: timeout}
				}
				return ctx.Err()
			}
		}
	}
}

// timeoutWriter holds a handler's response until it either finishes in
// time or expires.
type timeoutWriter struct {
	header http.Header

	mu          sync.Mutex
	buf         bytes.Buffer
	code        int
	wroteHeader bool
	timedOut    bool
}

func newTimeoutWriter() *timeoutWriter {
	return &timeoutWriter{header: make(http.Header), code: http.StatusOK}
}

// Header is only read by flushTo, after the handler returned.
func (tw *timeoutWriter) Header() http.Header {
	return tw.header
}

func (tw *timeoutWriter) WriteHeader(code int) {
	tw.mu.Lock()
	defer tw.mu.Unlock()
	if tw.timedOut || tw.wroteHeader {
		return
	}
	tw.wroteHeader = true
	tw.code = code
}

func (tw *timeoutWriter) Write(b []byte) (int, error) {
	tw.mu.Lock()
	defer tw.mu.Unlock()
	if tw.timedOut {
		return 0, http.ErrHandlerTimeout
	}
	tw.wroteHeader = true
	return tw.buf.Write(b)
}

func (tw *timeoutWriter) expire() {
	tw.mu.Lock()
	tw.timedOut = true
	tw.mu.Unlock()
}

// flushTo copies the buffered response to w. Headers are copied even when
// nothing was written, so an error handler still sees them.
func (tw *timeoutWriter) flushTo(w http.ResponseWriter) {
	tw.mu.Lock()
	defer tw.mu.Unlock()

	maps.Copy(w.Header(), tw.header)
	if !tw.wroteHeader {
		return
	}
	w.WriteHeader(tw.code)
	if tw.buf.Len() > 0 {
		_, _ = w.Write(tw.buf.Bytes())
	}
}
