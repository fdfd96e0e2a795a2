package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RelayAttempts = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "relay_attempts_total",
		Help: "Total number of relay attempts by transport and outcome",
	}, []string{"transport", "outcome"})
	RelayDispatchDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "relay_dispatch_duration_seconds",
		Help:    "Time spent in a single transport dispatch",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
	}, []string{"transport"})
	// Route is the chi route pattern, never the raw path, to bound cardinality.
	HTTPRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "relay_http_requests_total",
		Help: "Total number of HTTP requests by method, route and status",
	}, []string{"method", "route", "status"})
)

func init() {
	prometheus.MustRegister(RelayAttempts)
	prometheus.MustRegister(RelayDispatchDuration)
	prometheus.MustRegister(HTTPRequests)
}

// Handler exposes the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Recorder records relay attempts into the package metrics.
type Recorder struct{}

// ObserveAttempt counts one attempt and, when dispatch happened, its duration.
// A zero duration means the attempt never reached the transport.
func (Recorder) ObserveAttempt(transport, outcome string, d time.Duration) {
	RelayAttempts.WithLabelValues(transport, outcome).Inc()
	if d > 0 {
		RelayDispatchDuration.WithLabelValues(transport).Observe(d.Seconds())
	}
}

// ObserveRequest counts one finished HTTP request.
func (Recorder) ObserveRequest(method, route string, status int) {
	HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
}
