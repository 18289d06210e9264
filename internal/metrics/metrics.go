package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "guardian_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "guardian_http_request_duration_seconds",
			Help:    "HTTP request duration",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"method", "path"},
	)

	// Call metrics
	CallsStarted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "guardian_calls_started_total",
			Help: "Total calls started",
		},
	)

	CallsEnded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "guardian_calls_ended_total",
			Help: "Total calls ended",
		},
		[]string{"had_alerts"},
	)

	ActiveCalls = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "guardian_active_calls",
			Help: "Calls currently in progress",
		},
	)

	CallDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "guardian_call_duration_seconds",
			Help:    "Call length at hang-up",
			Buckets: []float64{10, 30, 60, 120, 300, 600, 1200, 3600},
		},
	)

	MessagesAppended = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "guardian_messages_total",
			Help: "Timeline entries appended",
		},
		[]string{"sender"},
	)

	ReplyCategories = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "guardian_reply_categories_total",
			Help: "Generated replies by category",
		},
		[]string{"category"},
	)

	// Alert metrics
	AlertsDispatched = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "guardian_alerts_dispatched_total",
			Help: "Alerts dispatched",
		},
		[]string{"reason"},
	)

	NotificationsSent = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "guardian_notifications_sent_total",
			Help: "Per-contact alert notifications handed to the sink",
		},
	)

	NotificationsDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "guardian_notifications_dropped_total",
			Help: "Notifications a sink could not accept",
		},
		[]string{"sink"},
	)

	// Infrastructure metrics
	HistoryWriteLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "guardian_history_write_seconds",
			Help:    "Call history write latency",
			Buckets: []float64{.0001, .0005, .001, .005, .01, .05, .1},
		},
		[]string{"backend"},
	)

	EventsDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "guardian_events_dropped_total",
			Help: "Session events dropped for slow subscribers",
		},
	)
)
