package metrics

import "github.com/prometheus/client_golang/prometheus"

// Upstream call metrics, shared by the search, blob and embedding transports.
// Registered explicitly from main (no init()) so tests can register them once.
var (
	UpstreamRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "searchgw",
			Name:      "upstream_requests_total",
			Help:      "Total number of upstream service calls",
		},
		[]string{"service", "operation", "status"},
	)

	UpstreamRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "searchgw",
			Name:      "upstream_request_duration_seconds",
			Help:      "Upstream call duration in seconds",
			Buckets:   []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"service", "operation"},
	)
)

var upstreamRegistered = false

// RegisterUpstreamMetrics registers upstream metrics with the default registry.
// Safe to call more than once.
func RegisterUpstreamMetrics() {
	if upstreamRegistered {
		return
	}
	upstreamRegistered = true
	prometheus.MustRegister(UpstreamRequestsTotal)
	prometheus.MustRegister(UpstreamRequestDuration)
}
