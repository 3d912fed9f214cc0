package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics aggregates the generation pipeline's instrumentation. All vectors
// are registered once against the provided registry; a nil registry uses
// the default one.
type Metrics struct {
	JobsAccepted   prometheus.Counter
	JobsProcessed  *prometheus.CounterVec
	StageDuration  *prometheus.HistogramVec
	JobsInFlight   prometheus.Gauge
	StreamClients  prometheus.Gauge
	QueueClaimMiss prometheus.Counter
}

func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		JobsAccepted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "appforge",
			Name:      "jobs_accepted_total",
			Help:      "Generation jobs accepted and enqueued.",
		}),
		JobsProcessed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "appforge",
			Name:      "jobs_processed_total",
			Help:      "Generation jobs settled, by terminal outcome.",
		}, []string{"outcome"}),
		StageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "appforge",
			Name:      "stage_duration_seconds",
			Help:      "Wall time spent per pipeline stage.",
			Buckets:   []float64{0.05, 0.25, 1, 5, 15, 30, 60, 120},
		}, []string{"stage"}),
		JobsInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "appforge",
			Name:      "jobs_in_flight",
			Help:      "Jobs currently being processed by workers.",
		}),
		StreamClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "appforge",
			Name:      "stream_clients",
			Help:      "Progress stream subscribers currently connected.",
		}),
		QueueClaimMiss: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "appforge",
			Name:      "queue_claim_misses_total",
			Help:      "Claim attempts that found the queue empty.",
		}),
	}
	reg.MustRegister(
		m.JobsAccepted,
		m.JobsProcessed,
		m.StageDuration,
		m.JobsInFlight,
		m.StreamClients,
		m.QueueClaimMiss,
	)
	return m
}

// ObserveStage records one stage execution. It satisfies the pipeline's
// stage observer hook.
func (m *Metrics) ObserveStage(stage string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.StageDuration.WithLabelValues(stage).Observe(elapsed.Seconds())
}

// JobSettled counts a terminal outcome ("completed" or "failed").
func (m *Metrics) JobSettled(outcome string) {
	if m == nil {
		return
	}
	m.JobsProcessed.WithLabelValues(outcome).Inc()
}
