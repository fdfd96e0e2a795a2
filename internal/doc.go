// Package internal provides the HTTP application core of the relay service.
//
// # Core Types
//
//   - App: Orchestrates HTTP routing, middleware, health endpoints and graceful shutdown
//   - Context: Provides request/response access, JSON binding and logging helpers
//   - Router: Interface handlers use to declare routes with HTTP methods and grouping
//   - Handler: Interface implemented by types that declare routes on a router
//   - HandlerFunc: Signature for individual route handlers that return errors
//   - Middleware: Wraps handlers to add cross-cutting concerns
//   - ErrorHandler: Converts handler errors into responses
//   - HTTPError: Error carrying a status code, client message and optional details
//
// # Context as context.Context
//
// Context embeds context.Context, so it can be passed directly to any function
// that expects a standard library context. The Deadline, Done, Err, and Value
// methods delegate to the underlying request context:
//
//	func (h *Submission) send(c internal.Context) error {
//	    res, err := h.relay.Handle(c, sub)
//	    ...
//	}
//
// # Application Structure
//
//	app := internal.New(
//	    internal.WithCustomLogger(log),
//	    internal.WithMiddleware(middlewares.RequestID(), middlewares.Recover()),
//	    internal.WithHealthChecks(internal.WithReadinessCheck("mail", sender.Ping)),
//	    internal.WithHandlers(handlers.NewSubmission(rl)),
//	)
//	err := app.Run(":4000", internal.ShutdownHook(closeTransport))
//
// # Error Handling
//
// Handlers return errors instead of writing failure responses. The configured
// ErrorHandler (DefaultErrorHandler if none) renders them. If the response has
// already been written the error is dropped, so a handler that outlived its
// deadline cannot produce a second response.
package internal
