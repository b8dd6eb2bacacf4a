// Package metrics exposes Prometheus counters for moderation activity.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics records moderation decisions. A nil *Metrics is a no-op.
type Metrics struct {
	ActionsTotal *prometheus.CounterVec
	QueueDepth   prometheus.Gauge
}

func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		ActionsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "blkout_moderation_actions_total",
			Help: "Moderation decisions by action and outcome.",
		}, []string{"action", "outcome"}),
		QueueDepth: factory.NewGauge(prometheus.GaugeOpts{
			Name: "blkout_moderation_queue_depth",
			Help: "Records awaiting moderation at last queue read.",
		}),
	}
}

func (m *Metrics) RecordAction(action, outcome string) {
	if m == nil {
		return
	}
	m.ActionsTotal.WithLabelValues(action, outcome).Inc()
}

func (m *Metrics) SetQueueDepth(depth int) {
	if m == nil {
		return
	}
	m.QueueDepth.Set(float64(depth))
}
