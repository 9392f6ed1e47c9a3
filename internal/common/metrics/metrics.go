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

	DatasetsUploaded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "datasets_uploaded_total",
			Help: "Dataset uploads, by format and outcome",
		},
		[]string{"format", "outcome"},
	)

	ConfigurationsValidated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "configurations_validated_total",
			Help: "Configurations validated, by template and outcome",
		},
		[]string{"template_id", "outcome"},
	)

	RulesetsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rulesets_published_total",
			Help: "Rulesets published into the catalog",
		},
		[]string{"category"},
	)

	ExecutionsRecorded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "executions_recorded_total",
			Help: "Execution results appended to history",
		},
		[]string{"template_id"},
	)

	ExecutionResultsRejected = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "execution_results_rejected_total",
			Help: "Execution results discarded for failing schema validation",
		},
	)
)
