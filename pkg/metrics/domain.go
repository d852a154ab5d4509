package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Transcription outcomes.
const (
	OutcomeSuccess      = "success"
	OutcomeEmpty        = "empty"
	OutcomeUpstreamFail = "upstream_error"
	OutcomePersistFail  = "persist_error"
	OutcomeInvalid      = "invalid"
)

// TranscriptionMetrics instruments the transcription function.
type TranscriptionMetrics struct {
	RequestsTotal   *prometheus.CounterVec
	UpstreamSeconds prometheus.Histogram
	AudioBytes      prometheus.Histogram
}

func NewTranscriptionMetrics(reg prometheus.Registerer) *TranscriptionMetrics {
	factory := promauto.With(reg)
	return &TranscriptionMetrics{
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "transcriptions_total",
				Help:      "Transcription requests by outcome",
			},
			[]string{"outcome"},
		),
		UpstreamSeconds: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stt_request_seconds",
			Help:      "Latency of the speech-to-text API",
			Buckets:   []float64{0.25, 0.5, 1, 2, 4, 8, 16, 32},
		}),
		AudioBytes: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "audio_chunk_bytes",
			Help:      "Decoded size of submitted audio chunks",
			Buckets:   prometheus.ExponentialBuckets(4096, 2, 10),
		}),
	}
}

// FeedMetrics instruments the realtime gateway.
type FeedMetrics struct {
	Connections     prometheus.Gauge
	EventsDelivered *prometheus.CounterVec
	Reconnects      prometheus.Counter
}

func NewFeedMetrics(reg prometheus.Registerer) *FeedMetrics {
	factory := promauto.With(reg)
	return &FeedMetrics{
		Connections: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "feed_connections",
			Help:      "Open feed websocket connections",
		}),
		EventsDelivered: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "feed_events_delivered_total",
				Help:      "Insert events written to feed clients",
			},
			[]string{"table"},
		),
		Reconnects: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "feed_bus_reconnects_total",
			Help:      "Times the gateway resubscribed to the event bus",
		}),
	}
}

// MeetingMetrics instruments the registry.
type MeetingMetrics struct {
	Started     prometheus.Counter
	CacheLookup *prometheus.CounterVec
}

func NewMeetingMetrics(reg prometheus.Registerer) *MeetingMetrics {
	factory := promauto.With(reg)
	return &MeetingMetrics{
		Started: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "meetings_started_total",
			Help:      "Meetings created",
		}),
		CacheLookup: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "meeting_cache_lookups_total",
				Help:      "Meeting cache lookups by result",
			},
			[]string{"result"},
		),
	}
}
