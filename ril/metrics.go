package ril

import (
	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "rilbridge"

// Metrics are the engine's Prometheus collectors. They are always live; they
// are only exported when registered.
type Metrics struct {
	Requests      *prometheus.CounterVec
	Completions   *prometheus.CounterVec
	Messages      *prometheus.CounterVec
	Unsolicited   *prometheus.CounterVec
	Dropped       *prometheus.CounterVec
	Overwrites    prometheus.Counter
	Connections   *prometheus.GaugeVec
	Continuations prometheus.Gauge
}

// NewMetrics builds the collectors and registers them on reg when it is not nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "requests_total",
			Help:      "Framework requests received, by request.",
		}, []string{"request"}),
		Completions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "completions_total",
			Help:      "Request completions delivered to the framework, by status.",
		}, []string{"status"}),
		Messages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "modem_messages_total",
			Help:      "Modem messages dispatched, by command and kind.",
		}, []string{"command", "kind"}),
		Unsolicited: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "unsolicited_total",
			Help:      "Unsolicited events emitted to the framework.",
		}, []string{"event"}),
		Dropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "modem_messages_dropped_total",
			Help:      "Modem messages logged and dropped, by reason.",
		}, []string{"reason"}),
		Overwrites: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "continuation_overwrites_total",
			Help:      "Continuations replaced before their acknowledgment arrived.",
		}),
		Connections: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "data_connections",
			Help:      "Allocated data connections, by lifecycle state.",
		}, []string{"state"}),
		Continuations: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "pending_continuations",
			Help:      "Continuations waiting for an acknowledgment.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.Requests, m.Completions, m.Messages, m.Unsolicited,
			m.Dropped, m.Overwrites, m.Connections, m.Continuations)
	}
	return m
}

func (m *Metrics) observeState(_ int, from, to string) {
	if from != StateFree {
		m.Connections.WithLabelValues(from).Dec()
	}
	if to != StateFree {
		m.Connections.WithLabelValues(to).Inc()
	}
}
