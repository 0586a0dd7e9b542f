package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SessionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "gateway_sessions_active",
		Help: "Currently active voice sessions",
	})

	SessionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gateway_sessions_total",
		Help: "Total sessions handled",
	})

	SessionDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "gateway_session_duration_seconds",
		Help:    "Session lifetime from accept to close",
		Buckets: []float64{5, 15, 30, 60, 120, 300, 600, 1800},
	})

	UpstreamEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gateway_upstream_events_total",
		Help: "Server events received from the AI engine, by kind",
	}, []string{"kind"})

	ToolInvocations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gateway_tool_invocations_total",
		Help: "Tool dispatches by tool name and result status",
	}, []string{"tool", "status"})

	ToolDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "gateway_tool_duration_seconds",
		Help:    "Tool handler latency",
		Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5},
	}, []string{"tool"})

	ResolverOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gateway_resolver_outcomes_total",
		Help: "Entity resolution results by entity kind and outcome",
	}, []string{"entity", "outcome"})

	AudioChunksIn = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gateway_audio_chunks_in_total",
		Help: "Client audio chunks forwarded upstream",
	})

	AudioChunksOut = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gateway_audio_chunks_out_total",
		Help: "Synthesized audio chunks forwarded to the client",
	})

	TranscriptUpdates = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gateway_transcript_updates_total",
		Help: "Transcript updates sent to the client, by speaker",
	}, []string{"speaker"})

	Interruptions = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gateway_interruptions_total",
		Help: "Times the user talked over the model",
	})

	SessionResumptions = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gateway_session_resumptions_total",
		Help: "Sessions established with a resumption handle",
	})
)
