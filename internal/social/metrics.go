package social

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// interactionsTotal counts successful mutations by action
	interactionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "minifeed_interactions_total",
		Help: "Total successful user interactions by action",
	}, []string{"action"})

	// eventPublishFailures counts events that could not be handed to the publisher
	eventPublishFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "minifeed_event_publish_failures_total",
		Help: "Total interaction events that failed to publish",
	})
)
