package prometheus

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/nanaharris/ph-actors-tcc/core/facade"
	"github.com/nanaharris/ph-actors-tcc/core/metrics"
)

// facadeMetrics implements facade.Metrics using Prometheus.
type facadeMetrics struct {
	messageDuration *prometheus.HistogramVec
	messagesTotal   *prometheus.CounterVec
	panicTotal      *prometheus.CounterVec
	mailboxDepth    *prometheus.GaugeVec
}

// NewFacadeMetrics creates a new Prometheus implementation of facade.Metrics.
func NewFacadeMetrics(reg prometheus.Registerer) facade.Metrics {
	m := &facadeMetrics{
		messageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "ph_actor_message_duration_seconds",
			Help:    "Message handling time in seconds",
			Buckets: defaultBuckets,
		}, []string{"message_type"}),

		messagesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ph_actor_messages_total",
			Help: "Total number of messages processed",
		}, []string{"message_type", "success"}),

		panicTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ph_actor_panics_total",
			Help: "Total number of contained handler panics",
		}, []string{"message_type"}),

		mailboxDepth: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "ph_actor_mailbox_depth",
			Help: "Current mailbox queue depth",
		}, []string{"actor_id"}),
	}

	reg.MustRegister(
		m.messageDuration,
		m.messagesTotal,
		m.panicTotal,
		m.mailboxDepth,
	)

	return m
}

func (m *facadeMetrics) MessageDuration(msgType string) metrics.Timer {
	return newTimer(m.messageDuration.WithLabelValues(msgType))
}

func (m *facadeMetrics) MessageProcessed(msgType string, success bool) {
	m.messagesTotal.WithLabelValues(msgType, boolToStr(success)).Inc()
}

func (m *facadeMetrics) MessagePanic(msgType string) {
	m.panicTotal.WithLabelValues(msgType).Inc()
}

func (m *facadeMetrics) MailboxDepth(actorID string, depth int) {
	m.mailboxDepth.WithLabelValues(actorID).Set(float64(depth))
}

var _ facade.Metrics = (*facadeMetrics)(nil)
