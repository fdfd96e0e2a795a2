// Package health provides liveness and readiness HTTP handlers.
//
// Liveness always answers 200 with a JSON body naming the service and the
// current time. Readiness runs named checks in parallel under a shared
// timeout and answers 503 when any of them fails:
//
//	mux.Get("/health", health.LivenessHandler(health.WithService("legalbook-email-api")))
//	mux.Get("/health/ready", health.ReadinessHandler(health.Checks{
//	    "mail": sender.Ping,
//	}, health.WithTimeout(3*time.Second)))
//
// Check errors are reported in the response body and logged at warn level.
// A check that outlives the timeout is reported as ErrCheckTimeout.
package health
