package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(filesSweptTotal, sweepSkippedRunning) }

var filesSweptTotal = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "retention_files_swept_total",
		Help: "Files deleted by the retention sweeper.",
	},
)

var sweepSkippedRunning = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "retention_sweep_skipped_running_total",
		Help: "Expired files skipped because their job was still running.",
	},
)

func AddFilesSwept(n int) {
	filesSweptTotal.Add(float64(n))
}

func IncSweepSkippedRunning() {
	sweepSkippedRunning.Inc()
}
