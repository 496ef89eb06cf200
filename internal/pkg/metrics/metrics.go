package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Attendance counters exposed on /metrics.
var (
	SessionsIssued = promauto.NewCounter(prometheus.CounterOpts{
		Name: "classpulse_sessions_issued_total",
		Help: "Number of attendance sessions issued.",
	})

	SessionConflicts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "classpulse_session_conflicts_total",
		Help: "Number of generate calls rejected because an active session existed.",
	})

	CheckIns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "classpulse_checkins_total",
		Help: "Number of successful check-ins by method.",
	}, []string{"method"})

	DuplicateCheckIns = promauto.NewCounter(prometheus.CounterOpts{
		Name: "classpulse_duplicate_checkins_total",
		Help: "Number of check-in attempts answered with the existing entry.",
	})

	ExpiredCheckIns = promauto.NewCounter(prometheus.CounterOpts{
		Name: "classpulse_expired_checkins_total",
		Help: "Number of check-in attempts rejected because the session had expired.",
	})

	NotificationsSent = promauto.NewCounter(prometheus.CounterOpts{
		Name: "classpulse_notifications_sent_total",
		Help: "Number of lecturer notifications delivered.",
	})

	NotificationFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "classpulse_notification_failures_total",
		Help: "Number of lecturer notifications dropped after a delivery error.",
	})

	FallbackOperations = promauto.NewCounter(prometheus.CounterOpts{
		Name: "classpulse_fallback_store_operations_total",
		Help: "Number of storage operations served by the in-memory fallback.",
	})
)
