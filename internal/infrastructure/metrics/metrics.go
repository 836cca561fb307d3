package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Chat-API Metrics
var (
	// Request counters
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "workhive",
			Subsystem: "chat_api",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	// Request duration histogram
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "workhive",
			Subsystem: "chat_api",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10},
		},
		[]string{"method", "endpoint", "status"},
	)

	// Conversations
	ConversationsCreatedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "workhive",
			Subsystem: "chat_api",
			Name:      "conversations_created_total",
			Help:      "Total conversations created",
		},
	)

	// Messages
	MessagesSentTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "workhive",
			Subsystem: "chat_api",
			Name:      "messages_sent_total",
			Help:      "Total messages sent",
		},
	)

	MessagesDeletedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "workhive",
			Subsystem: "chat_api",
			Name:      "messages_deleted_total",
			Help:      "Total messages soft deleted",
		},
	)

	// Order transitions
	OrderTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "workhive",
			Subsystem: "chat_api",
			Name:      "order_transitions_total",
			Help:      "Order lifecycle transitions by action and outcome",
		},
		[]string{"action", "status"},
	)

	// Live subscription streams gauge
	ActiveStreams = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "workhive",
			Subsystem: "chat_api",
			Name:      "active_streams",
			Help:      "Currently active subscription streams",
		},
		[]string{"kind"},
	)

	// Change events received from peers
	RemoteChangeEventsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "workhive",
			Subsystem: "chat_api",
			Name:      "remote_change_events_total",
			Help:      "Change events received over the pub/sub bridge",
		},
	)

	// Auth requests
	AuthRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "workhive",
			Subsystem: "chat_api",
			Name:      "auth_requests_total",
			Help:      "Total authentication requests",
		},
		[]string{"status"},
	)
)

// RecordRequest records an HTTP request with all relevant labels
func RecordRequest(method, endpoint, status string, durationSec float64) {
	RequestsTotal.WithLabelValues(method, endpoint, status).Inc()
	RequestDuration.WithLabelValues(method, endpoint, status).Observe(durationSec)
}

// RecordOrderTransition records a transition attempt outcome
func RecordOrderTransition(action, status string) {
	if status == "" {
		status = "unknown"
	}
	OrderTransitionsTotal.WithLabelValues(action, status).Inc()
}

// IncrementActiveStreams increments the active streams gauge
func IncrementActiveStreams(kind string) {
	ActiveStreams.WithLabelValues(kind).Inc()
}

// DecrementActiveStreams decrements the active streams gauge
func DecrementActiveStreams(kind string) {
	ActiveStreams.WithLabelValues(kind).Dec()
}
