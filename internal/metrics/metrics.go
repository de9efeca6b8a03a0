// Package metrics exposes Prometheus collectors for sweep progress.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/cwygoda/morgue/internal/domain"
)

const namespace = "morgue"

// Metrics holds the collectors updated after every sweep.
type Metrics struct {
	JobsActed         *prometheus.CounterVec
	Passes            *prometheus.CounterVec
	TransientFailures *prometheus.CounterVec
	SkippedRows       prometheus.Counter
	Sweeps            *prometheus.CounterVec
	LastSweep         prometheus.Gauge
	LastPage          prometheus.Gauge
	SweepDuration     prometheus.Histogram
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		JobsActed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "jobs_acted_total",
			Help:      "Dead jobs discarded or retried.",
		}, []string{"action"}),
		Passes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "passes_total",
			Help:      "Convergence passes by action and outcome.",
		}, []string{"action", "outcome"}),
		TransientFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transient_failures_total",
			Help:      "Bulk actions whose navigation did not complete.",
		}, []string{"action"}),
		SkippedRows: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "skipped_rows_total",
			Help:      "Malformed rows skipped while scanning.",
		}),
		Sweeps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sweeps_total",
			Help:      "Completed sweeps by result.",
		}, []string{"result"}),
		LastSweep: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_sweep_timestamp_seconds",
			Help:      "Unix time the last sweep finished.",
		}),
		LastPage: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_page",
			Help:      "Highest page number seen by the last sweep.",
		}),
		SweepDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "sweep_duration_seconds",
			Help:      "Time taken by a full sweep.",
			Buckets:   prometheus.ExponentialBuckets(5, 2, 10),
		}),
	}

	reg.MustRegister(
		m.JobsActed,
		m.Passes,
		m.TransientFailures,
		m.SkippedRows,
		m.Sweeps,
		m.LastSweep,
		m.LastPage,
		m.SweepDuration,
	)
	return m
}

// ObserveSweep records a finished sweep.
func (m *Metrics) ObserveSweep(report domain.SweepReport, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.Sweeps.WithLabelValues(result).Inc()

	for _, p := range report.Passes {
		m.JobsActed.WithLabelValues(p.Action).Add(float64(p.Matched))
		m.Passes.WithLabelValues(p.Action, string(p.Outcome)).Inc()
		m.TransientFailures.WithLabelValues(p.Action).Add(float64(p.Failures))
		m.SkippedRows.Add(float64(p.Skipped))
	}

	if !report.FinishedAt.IsZero() {
		m.LastSweep.Set(float64(report.FinishedAt.Unix()))
		m.SweepDuration.Observe(report.FinishedAt.Sub(report.StartedAt).Seconds())
	}
	if report.LastPage > 0 {
		m.LastPage.Set(float64(report.LastPage))
	}
}
