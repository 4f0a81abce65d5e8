// Package metrics holds the Prometheus collectors exported on the metrics port.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "feed_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)

	// Reads
	ReadDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "feed_read_duration_seconds",
			Help:    "Duration of feed, search and trending reads in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	FeedPostsServed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feed_posts_served_total",
			Help: "Posts returned by composed reads, by source stream",
		},
		[]string{"operation", "source"}, // source: network, discovery
	)

	TrendingCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feed_trending_cache_lookups_total",
			Help: "Trending page cache lookups by result",
		},
		[]string{"result"}, // hit, miss, error
	)

	// Mutations
	MutationAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feed_mutation_attempts_total",
			Help: "Mutation attempts by operation and terminal attempt state",
		},
		[]string{"operation", "state"},
	)

	MutationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "feed_mutation_duration_seconds",
			Help:    "End-to-end duration of mutations including retries",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation", "result"},
	)

	// Side effects
	ImageStoreRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feed_image_store_requests_total",
			Help: "Image store calls by operation and result",
		},
		[]string{"operation", "result"}, // result: success, failure, rejected
	)

	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feed_events_published_total",
			Help: "Domain events published by subject and result",
		},
		[]string{"subject", "result"},
	)

	NotificationsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feed_notifications_created_total",
			Help: "Notifications written by type and result",
		},
		[]string{"type", "result"},
	)

	// Circuit breakers
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "feed_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feed_circuit_breaker_transitions_total",
			Help: "Circuit breaker state transitions",
		},
		[]string{"name", "from", "to"},
	)
)

// RecordHTTPRequest observes one served request.
func RecordHTTPRequest(method, route string, status int, duration time.Duration) {
	HTTPRequestDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(duration.Seconds())
}

// RecordRead observes a composed read and how many posts each stream gave.
func RecordRead(operation string, duration time.Duration, network, discovery int) {
	ReadDuration.WithLabelValues(operation).Observe(duration.Seconds())
	FeedPostsServed.WithLabelValues(operation, "network").Add(float64(network))
	FeedPostsServed.WithLabelValues(operation, "discovery").Add(float64(discovery))
}

// RecordMutation observes a finished mutation.
func RecordMutation(operation string, duration time.Duration, err error) {
	MutationDuration.WithLabelValues(operation, resultLabel(err)).Observe(duration.Seconds())
}

// RecordMutationAttempt counts one attempt ending in state.
func RecordMutationAttempt(operation, state string) {
	MutationAttempts.WithLabelValues(operation, state).Inc()
}

func RecordEvent(subject string, err error) {
	EventsPublished.WithLabelValues(subject, resultLabel(err)).Inc()
}

func RecordNotification(kind string, err error) {
	NotificationsCreated.WithLabelValues(kind, resultLabel(err)).Inc()
}

func resultLabel(err error) string {
	if err != nil {
		return "failure"
	}
	return "success"
}
