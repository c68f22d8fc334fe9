package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var Metrics = struct {
	ConnectAttempts   prometheus.Counter
	ReconnectsTotal   prometheus.Counter
	MessagesSent      prometheus.Counter
	MessagesReceived  prometheus.Counter
	DecodeFailures    prometheus.Counter
	QueueDepth        prometheus.Gauge
	ActiveConnections prometheus.Gauge
	RequestsTotal     *prometheus.CounterVec
	RequestDuration   *prometheus.HistogramVec
	ErrorsTotal       *prometheus.CounterVec
}{
	ConnectAttempts: promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "lectern",
		Name:      "connect_attempts_total",
		Help:      "Total connection attempts to the backend, including retries.",
	}),

	ReconnectsTotal: promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "lectern",
		Name:      "reconnects_scheduled_total",
		Help:      "Total reconnects scheduled after a failed or dropped connection.",
	}),

	MessagesSent: promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "lectern",
		Name:      "messages_sent_total",
		Help:      "Total envelopes written to the backend.",
	}),

	MessagesReceived: promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "lectern",
		Name:      "messages_received_total",
		Help:      "Total payloads received from the backend.",
	}),

	DecodeFailures: promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "lectern",
		Name:      "decode_failures_total",
		Help:      "Inbound frames that were not valid JSON and were delivered raw.",
	}),

	QueueDepth: promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "lectern",
		Name:      "outbound_queue_depth",
		Help:      "Envelopes waiting for the connection to open.",
	}),

	ActiveConnections: promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "lectern",
		Name:      "active_websocket_connections",
		Help:      "Number of active WebSocket connections on the dev server.",
	}),

	RequestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "lectern",
		Name:      "requests_total",
		Help:      "Dev server requests by type and status.",
	}, []string{"type", "status"}),

	RequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "lectern",
		Name:      "request_duration_seconds",
		Help:      "Dev server message handling duration in seconds.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"type"}),

	ErrorsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "lectern",
		Name:      "errors_total",
		Help:      "Total errors by component.",
	}, []string{"component"}),
}
