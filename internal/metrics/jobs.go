package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// JobRuns counts background job executions by job name and outcome
	// ("ok" or "error").
	JobRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "panel_job_runs_total",
		Help: "Background job executions by job and outcome.",
	}, []string{"job", "outcome"})

	JobDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "panel_job_duration_seconds",
		Help:    "Background job execution time.",
		Buckets: prometheus.DefBuckets,
	}, []string{"job"})

	// ScanThreats tracks the threat count of the most recent security scan.
	ScanThreats = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "panel_security_scan_threats",
		Help: "Threats reported by the most recent security scan.",
	})
)
