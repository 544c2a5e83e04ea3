// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	WorkerJobsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_completed_total",
			Help: "Total number of jobs completed by worker",
		},
		[]string{"task_type"},
	)

	WorkerJobsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_failed_total",
			Help: "Total number of jobs failed by worker",
		},
		[]string{"task_type", "error_code"},
	)

	WorkerJobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "worker_job_duration_seconds",
			Help: "Duration of job processing in seconds",
		},
		[]string{"task_type"},
	)

	WorkerJobsActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "worker_jobs_active",
			Help: "Number of active jobs per worker",
		},
		[]string{"task_type"},
	)
)

var (
	Translations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nlq_translations_total",
			Help: "Natural-language requests translated, by intent and query source",
		},
		[]string{"intent", "source"},
	)

	Introspections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nlq_introspections_total",
			Help: "Schema introspections by resulting status",
		},
		[]string{"status"},
	)

	LLMGenerations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nlq_llm_generations_total",
			Help: "LLM query generations by outcome",
		},
		[]string{"outcome"},
	)

	LLMLatency = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "nlq_llm_generation_seconds",
			Help:    "Latency of completion calls",
			Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10, 30, 60},
		},
	)

	QueriesRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nlq_queries_rejected_total",
			Help: "Candidate queries refused by the guard, by query source",
		},
		[]string{"source"},
	)

	QueryRows = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "nlq_query_rows",
			Help:    "Rows returned by executed queries",
			Buckets: prometheus.ExponentialBuckets(1, 2, 8),
		},
		[]string{"table"},
	)
)
