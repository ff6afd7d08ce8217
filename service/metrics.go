package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.ule.co/platform/core"
)

const metricsNamespace = "ule"

// Metrics owns a private registry so tests can build as many as they like.
type Metrics struct {
	Registry *prometheus.Registry

	jobRuns       *prometheus.CounterVec
	jobDuration   prometheus.Histogram
	jobExecutions *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &Metrics{
		Registry: registry,
		jobRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "deletion_job",
			Name:      "runs_total",
			Help:      "Deletion job invocations by outcome.",
		}, []string{"outcome"}),
		jobDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: "deletion_job",
			Name:      "duration_seconds",
			Help:      "Wall time of deletion job runs that held the lock.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 12),
		}),
		jobExecutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "deletion_job",
			Name:      "executions_total",
			Help:      "Account deletions attempted by the job, by result.",
		}, []string{"result"}),
	}

	registry.MustRegister(m.jobRuns, m.jobDuration, m.jobExecutions)

	return m
}

func (m *Metrics) observeRun(summary *core.DeletionJobSummary, err error) {
	switch {
	case err != nil:
		m.jobRuns.WithLabelValues("error").Inc()
	case summary.Skipped:
		m.jobRuns.WithLabelValues("skipped").Inc()
	default:
		m.jobRuns.WithLabelValues("completed").Inc()
		m.jobDuration.Observe(summary.Duration.Seconds())
		m.jobExecutions.WithLabelValues("succeeded").Add(float64(summary.Succeeded))
		m.jobExecutions.WithLabelValues("failed").Add(float64(summary.Failed))
	}
}
