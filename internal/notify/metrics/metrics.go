// Package metrics exposes Prometheus counters for webhook delivery.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics records delivery outcomes. A nil *Metrics is a no-op.
type Metrics struct {
	DeliveriesTotal  *prometheus.CounterVec
	DroppedTotal     prometheus.Counter
	DeliveryDuration *prometheus.HistogramVec
}

func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		DeliveriesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "blkout_webhook_deliveries_total",
			Help: "Webhook delivery attempts by platform and outcome.",
		}, []string{"platform", "outcome"}),
		DroppedTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "blkout_webhook_events_dropped_total",
			Help: "Lifecycle events dropped because the dispatch inbox was full.",
		}),
		DeliveryDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "blkout_webhook_delivery_duration_seconds",
			Help:    "Webhook delivery latency by platform.",
			Buckets: prometheus.DefBuckets,
		}, []string{"platform"}),
	}
}

func (m *Metrics) RecordDelivery(platform string, delivered bool, seconds float64) {
	if m == nil {
		return
	}
	outcome := "delivered"
	if !delivered {
		outcome = "failed"
	}
	m.DeliveriesTotal.WithLabelValues(platform, outcome).Inc()
	m.DeliveryDuration.WithLabelValues(platform).Observe(seconds)
}

func (m *Metrics) RecordDropped() {
	if m == nil {
		return
	}
	m.DroppedTotal.Inc()
}
