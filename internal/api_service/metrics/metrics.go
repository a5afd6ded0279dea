// Package metrics holds the prometheus collectors exposed on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"time"
)

var (
	UpstreamRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "odata_valet",
		Name:      "upstream_requests_total",
		Help:      "Valet observation requests by result status.",
	}, []string{"status"})

	UpstreamDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "odata_valet",
		Name:      "upstream_request_duration_seconds",
		Help:      "Latency of Valet observation requests.",
		Buckets:   prometheus.DefBuckets,
	})

	FeedEntries = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "odata_valet",
		Name:      "feed_entries",
		Help:      "Number of entries written per ExchangeRates feed.",
		Buckets:   []float64{0, 1, 10, 50, 100, 250, 500, 1000, 2500},
	})

	Responses = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "odata_valet",
		Name:      "responses_total",
		Help:      "Responses by endpoint and status code.",
	}, []string{"endpoint", "code"})
)

// ObserveUpstream records one upstream call. status is the HTTP status code,
// or "error"/"timeout" when no response was received.
func ObserveUpstream(status string, elapsed time.Duration) {
	UpstreamRequests.WithLabelValues(status).Inc()
	UpstreamDuration.Observe(elapsed.Seconds())
}
