package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Turn outcomes, used as the "outcome" label.
const (
	OutcomeCompleted     = "completed"
	OutcomeInputBlocked  = "input_blocked"
	OutcomeOutputBlocked = "output_blocked"
	OutcomeUpstreamError = "upstream_error"
	OutcomeInternalError = "internal_error"
)

// ChatMetrics groups the collectors of the chat engine. A nil *ChatMetrics
// is valid and records nothing.
type ChatMetrics struct {
	turns            *prometheus.CounterVec
	turnDuration     *prometheus.HistogramVec
	timeToFirstToken prometheus.Histogram
	activeStreams    prometheus.Gauge
	moderationBlocks *prometheus.CounterVec
	quotaRejections  prometheus.Counter
	turnRejections   *prometheus.CounterVec
	upstreamFailures *prometheus.CounterVec
}

func NewChatMetrics(reg prometheus.Registerer) *ChatMetrics {
	factory := promauto.With(reg)

	return &ChatMetrics{
		// Labels: channel (user, anonymous), outcome
		turns: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "soulscript",
			Subsystem: "chat",
			Name:      "turns_total",
			Help:      "Chat turns by channel and outcome",
		}, []string{"channel", "outcome"}),

		turnDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "soulscript",
			Subsystem: "chat",
			Name:      "turn_duration_seconds",
			Help:      "Wall time of a chat turn from acceptance to final state",
			Buckets:   []float64{0.25, 0.5, 1, 2, 4, 8, 15, 30, 60, 120},
		}, []string{"outcome"}),

		timeToFirstToken: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "soulscript",
			Subsystem: "chat",
			Name:      "time_to_first_token_seconds",
			Help:      "Latency between turn acceptance and the first streamed token",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 4, 8, 15},
		}),

		activeStreams: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "soulscript",
			Subsystem: "chat",
			Name:      "active_streams",
			Help:      "Turns currently streaming model output",
		}),

		// Labels: direction (user_input, ai_response)
		moderationBlocks: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "soulscript",
			Subsystem: "moderation",
			Name:      "blocks_total",
			Help:      "Moderation verdicts that blocked content",
		}, []string{"direction"}),

		quotaRejections: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "soulscript",
			Subsystem: "anon",
			Name:      "quota_rejections_total",
			Help:      "Anonymous turns rejected by the daily quota",
		}),

		// Labels: reason (blocked, in_progress)
		turnRejections: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "soulscript",
			Subsystem: "chat",
			Name:      "turn_rejections_total",
			Help:      "Turns refused before any work started",
		}, []string{"reason"}),

		// Labels: dependency (llm, moderation, retrieval)
		upstreamFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "soulscript",
			Subsystem: "chat",
			Name:      "upstream_failures_total",
			Help:      "Failed calls to remote dependencies",
		}, []string{"dependency"}),
	}
}

func (m *ChatMetrics) RecordTurn(channel, outcome string, took time.Duration) {
	if m == nil {
		return
	}
	m.turns.WithLabelValues(channel, outcome).Inc()
	m.turnDuration.WithLabelValues(outcome).Observe(took.Seconds())
}

func (m *ChatMetrics) RecordFirstToken(took time.Duration) {
	if m == nil {
		return
	}
	m.timeToFirstToken.Observe(took.Seconds())
}

func (m *ChatMetrics) StreamStarted() {
	if m == nil {
		return
	}
	m.activeStreams.Inc()
}

func (m *ChatMetrics) StreamFinished() {
	if m == nil {
		return
	}
	m.activeStreams.Dec()
}

func (m *ChatMetrics) RecordModerationBlock(direction string) {
	if m == nil {
		return
	}
	m.moderationBlocks.WithLabelValues(direction).Inc()
}

func (m *ChatMetrics) RecordQuotaRejection() {
	if m == nil {
		return
	}
	m.quotaRejections.Inc()
}

func (m *ChatMetrics) RecordTurnRejection(reason string) {
	if m == nil {
		return
	}
	m.turnRejections.WithLabelValues(reason).Inc()
}

func (m *ChatMetrics) RecordUpstreamFailure(dependency string) {
	if m == nil {
		return
	}
	m.upstreamFailures.WithLabelValues(dependency).Inc()
}
