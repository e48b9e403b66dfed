package feed

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("minifeed.feed")

var (
	// feedRequestsTotal counts feed assemblies by result
	feedRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "minifeed_feed_requests_total",
		Help: "Total feed assemblies by result",
	}, []string{"result"})

	// feedAssemblyDuration tracks scoring, ranking and pagination latency
	feedAssemblyDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "minifeed_feed_assembly_duration_seconds",
		Help:    "Feed assembly duration in seconds",
		Buckets: prometheus.ExponentialBuckets(0.0001, 2, 14),
	})

	// feedCandidates tracks how many posts were scored per request
	feedCandidates = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "minifeed_feed_candidates",
		Help:    "Number of posts scored per feed request",
		Buckets: []float64{10, 50, 100, 500, 1000, 5000, 10000},
	})
)
