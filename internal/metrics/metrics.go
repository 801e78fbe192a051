package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/remindhub/reminder-pipeline/internal/domain"
)

// Metrics groups all Prometheus instruments used across the application.
// Registered once at startup via New(); passed by pointer wherever needed.
type Metrics struct {
	RemindersScheduled prometheus.Counter
	RemindersProcessed *prometheus.CounterVec
	DeliveryLatency    prometheus.Histogram
	JobsPending        prometheus.Gauge
	JobsDue            prometheus.Gauge
}

// New registers all instruments with the given Prometheus registerer and
// returns the populated Metrics struct.
// Using a custom registry (instead of prometheus.DefaultRegisterer) keeps
// tests isolated and avoids global state.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		RemindersScheduled: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "reminders_scheduled_total",
			Help: "Total number of reminder jobs enqueued by the scheduler.",
		}),

		RemindersProcessed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "reminders_processed_total",
			Help: "Total number of processed reminder jobs by delivery outcome.",
		}, []string{"outcome"}),

		DeliveryLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "reminder_processing_seconds",
			Help:    "Per-job processing latency from claim to outcome.",
			Buckets: prometheus.DefBuckets,
		}),

		JobsPending: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "reminder_jobs_pending",
			Help: "Current number of pending (not yet claimed) reminder jobs.",
		}),
		JobsDue: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "reminder_jobs_due",
			Help: "Current number of pending jobs whose run time has passed.",
		}),
	}

	reg.MustRegister(
		m.RemindersScheduled,
		m.RemindersProcessed,
		m.DeliveryLatency,
		m.JobsPending,
		m.JobsDue,
	)

	return m
}

// WorkerHooks returns the metric callback functions expected by
// worker.MetricHooks. Centralises the prometheus observation calls so the
// worker package stays metrics-agnostic.
func (m *Metrics) WorkerHooks() (
	onOutcome func(domain.DeliveryOutcome, time.Duration),
	onDepths func(pending, due int),
) {
	onOutcome = func(outcome domain.DeliveryOutcome, latency time.Duration) {
		m.RemindersProcessed.WithLabelValues(string(outcome)).Inc()
		m.DeliveryLatency.Observe(latency.Seconds())
	}
	onDepths = func(pending, due int) {
		m.JobsPending.Set(float64(pending))
		m.JobsDue.Set(float64(due))
	}
	return
}
