package middlewares

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/legalbook/relay/internal"
)

// RequestCounter records one finished request.
// metrics.Recorder satisfies it.
type RequestCounter interface {
	ObserveRequest(method, route string, status int)
}

// AccessLog logs every finished request and, when counter is non-nil,
// counts it by method, chi route pattern and status. Unrouted requests
// are counted under "unmatched" to keep label cardinality bounded.
func AccessLog(counter RequestCounter) internal.Middleware {
	return func(next internal.HandlerFunc) internal.HandlerFunc {
		return func(c internal.Context) error {
			start := time.Now()
			err := next(c)

			r := c.Request()
			status := c.ResponseWriter().Status()
			if !c.Written() {
				status = http.StatusOK
			}
			route := routePattern(r)

			if counter != nil {
				counter.ObserveRequest(r.Method, route, status)
			}

			attrs := []any{
				"method", r.Method,
				"route", route,
				"status", strconv.Itoa(status),
				"bytes", c.ResponseWriter().Size(),
				"duration", time.Since(start).String(),
			}
			switch {
			case status >= http.StatusInternalServerError:
				c.LogError("request", attrs...)
			case status >= http.StatusBadRequest:
				c.LogWarn("request", attrs...)
			default:
				c.LogInfo("request", attrs...)
			}
			return err
		}
	}
}

func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return "unmatched"
}
