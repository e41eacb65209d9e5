// Package metrics exposes Prometheus collectors and the metrics server
// for rufusd.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Scheduler metrics
	SchedulerUp = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "rufus_scheduler_up",
			Help: "Scheduler status (1=running, 0=stopped)",
		},
	)

	ScheduledJobs = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "rufus_scheduled_jobs",
			Help: "Number of scheduled jobs by kind",
		},
		[]string{"kind"}, // at, in, every, cron
	)

	RunningJobs = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "rufus_running_jobs",
			Help: "Number of jobs with an execution in flight",
		},
	)

	// Job metrics
	JobRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rufus_job_runs_total",
			Help: "Total job firings by result",
		},
		[]string{"job", "result"}, // result: success, failure, interrupted
	)

	JobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "rufus_job_run_duration_seconds",
			Help:    "Job execution duration in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1.0, 5.0, 30.0, 120.0},
		},
		[]string{"job"},
	)

	JobNextRun = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "rufus_job_next_run_timestamp_seconds",
			Help: "Unix timestamp of the job's next scheduled fire",
		},
		[]string{"job"},
	)

	JobLastExit = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "rufus_job_last_exit_code",
			Help: "Last exit code of a command job",
		},
		[]string{"job"},
	)

	// Daemon resource metrics
	SelfCPUPercent = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "rufus_self_cpu_percent",
			Help: "CPU usage of the rufusd process",
		},
	)

	SelfMemoryBytes = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "rufus_self_memory_bytes",
			Help: "Memory usage of the rufusd process",
		},
		[]string{"type"}, // rss, vms
	)

	SelfThreads = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "rufus_self_threads",
			Help: "Thread count of the rufusd process",
		},
	)

	SelfFileDescriptors = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "rufus_self_open_fds",
			Help: "Open file descriptors of the rufusd process",
		},
	)
)

// RecordRun records a completed job firing.
func RecordRun(job, result string, seconds float64) {
	JobRuns.WithLabelValues(job, result).Inc()
	JobDuration.WithLabelValues(job).Observe(seconds)
}
