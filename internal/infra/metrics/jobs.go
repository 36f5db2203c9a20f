package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(dubJobsTotal, stageLatencySeconds, jobsQueued) }

var dubJobsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "dub_jobs_total",
		Help: "Total number of dubbing jobs finished, labeled by status.",
	},
	[]string{"status"}, // 'completed', 'failed'
)

var stageLatencySeconds = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "dub_stage_latency_seconds",
		Help:    "Pipeline stage latency distribution in seconds.",
		Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300, 600},
	},
	[]string{"stage", "success"},
)

var jobsQueued = prometheus.NewGauge(
	prometheus.GaugeOpts{
		Name: "dub_jobs_queued",
		Help: "Number of jobs waiting for a worker slot.",
	},
)

func IncDubJob(status string) {
	dubJobsTotal.WithLabelValues(norm(status)).Inc()
}

func ObserveStage(stage string, seconds float64, success bool) {
	lbl := "false"
	if success {
		lbl = "true"
	}
	stageLatencySeconds.WithLabelValues(norm(stage), lbl).Observe(seconds)
}

func SetQueuedJobs(n int) {
	jobsQueued.Set(float64(n))
}
