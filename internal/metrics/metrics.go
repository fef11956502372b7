package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Relay metrics
	MessagesRelayed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lanstream_messages_relayed_total",
			Help: "Total messages persisted and broadcast",
		},
		[]string{"kind"}, // "text" or "file"
	)

	MessagesRejected = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "lanstream_messages_rejected_total",
			Help: "Total envelopes rejected by validation",
		},
	)

	// Session metrics
	SessionsConnected = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "lanstream_sessions_connected",
			Help: "Currently registered client sessions",
		},
	)

	BroadcastsDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "lanstream_broadcasts_dropped_total",
			Help: "Broadcast deliveries dropped because a session buffer was full",
		},
	)

	// Upload metrics
	UploadsAccepted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "lanstream_uploads_accepted_total",
			Help: "Total files accepted by the upload endpoint",
		},
	)

	UploadBytes = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "lanstream_upload_bytes_total",
			Help: "Total bytes written to the content store by uploads",
		},
	)
)
