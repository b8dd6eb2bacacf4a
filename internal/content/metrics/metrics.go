// Package metrics exposes Prometheus counters for the submission pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics records submission and engagement activity. A nil *Metrics is a
// no-op so tests can skip registration.
type Metrics struct {
	SubmissionsTotal *prometheus.CounterVec
	EngagementTotal  *prometheus.CounterVec
}

func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		SubmissionsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "blkout_submissions_total",
			Help: "Submissions accepted into the pipeline by kind and channel.",
		}, []string{"kind", "channel"}),
		EngagementTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "blkout_engagement_total",
			Help: "Engagement counter increments by action (view, like, rsvp).",
		}, []string{"action"}),
	}
}

func (m *Metrics) RecordSubmission(kind, channel string) {
	if m == nil {
		return
	}
	m.SubmissionsTotal.WithLabelValues(kind, channel).Inc()
}

func (m *Metrics) RecordEngagement(action string) {
	if m == nil {
		return
	}
	m.EngagementTotal.WithLabelValues(action).Inc()
}
