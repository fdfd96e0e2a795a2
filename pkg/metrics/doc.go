// Package metrics defines Prometheus metrics for the relay: delivery
// attempts by transport and outcome, dispatch latency, and HTTP requests.
package metrics
