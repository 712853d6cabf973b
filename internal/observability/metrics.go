package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome labels for ModerationTransitions.
const (
	OutcomeOK         = "ok"
	OutcomeInvalid    = "invalid_transition"
	OutcomeConflict   = "conflict"
	OutcomeNotFound   = "not_found"
	OutcomeValidation = "validation"
	OutcomeError      = "error"
)

var (
	// ModerationTransitions counts lifecycle operations by kind, event and outcome.
	ModerationTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "shutterdesk_moderation_transitions_total",
		Help: "Total number of moderation lifecycle operations",
	}, []string{"kind", "event", "outcome"})

	// NotificationsEmitted counts notifications persisted by type.
	NotificationsEmitted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "shutterdesk_notifications_emitted_total",
		Help: "Total number of notifications persisted",
	}, []string{"type"})

	// NotificationsFailed counts notification emits that failed after a committed transition.
	NotificationsFailed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "shutterdesk_notifications_failed_total",
		Help: "Total number of notifications that could not be persisted",
	}, []string{"type"})

	// NotificationsPublished counts realtime fan-out publishes by result.
	NotificationsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "shutterdesk_notifications_published_total",
		Help: "Total number of notification publishes to Redis",
	}, []string{"result"})

	// LiveConnections tracks open notification stream connections.
	LiveConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "shutterdesk_live_connections",
		Help: "Number of open notification stream connections",
	})

	// LiveDrops counts stream messages dropped because a client fell behind or left.
	LiveDrops = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "shutterdesk_live_drops_total",
		Help: "Total number of notification stream messages dropped",
	}, []string{"reason"})

	// MediaUploads counts image uploads by result.
	MediaUploads = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "shutterdesk_media_uploads_total",
		Help: "Total number of media uploads",
	}, []string{"result"})

	// RedisErrors counts failed Redis commands by command name.
	RedisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "shutterdesk_redis_errors_total",
		Help: "Total number of failed Redis commands",
	}, []string{"command"})

	// StoreQueryLatency records store latency by backend, operation and collection.
	StoreQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "shutterdesk_store_query_latency_seconds",
		Help:    "Store query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"backend", "operation", "collection"})
)

// TrackQuery returns a function that records query latency when called (e.g. defer).
func TrackQuery(backend, operation, collection string) func() {
	start := time.Now()
	return func() {
		StoreQueryLatency.WithLabelValues(backend, operation, collection).Observe(time.Since(start).Seconds())
	}
}
