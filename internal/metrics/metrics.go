package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "yuvshiksha"

// Transport labels for MessagesSent.
const (
	TransportSocket = "socket"
	TransportHTTP   = "http"
)

var (
	MessagesSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_sent_total",
			Help:      "Messages persisted, by the transport they arrived on.",
		},
		[]string{"transport"},
	)

	MessageErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "message_errors_total",
			Help:      "message_error events sent to clients, by reason.",
		},
		[]string{"reason"},
	)

	SocketConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "socket_connections",
			Help:      "Open realtime connections.",
		},
	)

	OnlineUsers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "online_users",
			Help:      "Authenticated users with a live connection on this instance.",
		},
	)

	NotificationFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notification_failures_total",
			Help:      "Best-effort notification records that could not be created.",
		},
	)

	RecommendationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "recommendation_duration_seconds",
			Help:      "Time to rank teachers for one student.",
			Buckets:   prometheus.DefBuckets,
		},
	)

	RetentionPurged = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "retention_purged_messages_total",
			Help:      "Soft-deleted messages removed by the retention sweeper.",
		},
	)
)
