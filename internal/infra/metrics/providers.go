package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(synthCallsTotal, synthLatencyMs, providerFallbacksTotal, providerAvailable) }

var synthCallsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "tts_synth_calls_total",
		Help: "Synthesis calls per provider and outcome.",
	},
	[]string{"provider", "success"},
)

var synthLatencyMs = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "tts_synth_latency_ms",
		Help:    "Synthesis call latency distribution in milliseconds.",
		Buckets: []float64{50, 100, 250, 500, 1000, 2500, 5000, 10000, 30000, 60000},
	},
	[]string{"provider"},
)

var providerFallbacksTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "tts_provider_fallbacks_total",
		Help: "Automatic fallbacks away from a failed provider.",
	},
	[]string{"from", "to"},
)

var providerAvailable = prometheus.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "tts_provider_available",
		Help: "Last availability probe result per provider (1 available, 0 not).",
	},
	[]string{"provider"},
)

func ObserveSynthCall(provider string, latencyMs int, success bool) {
	lbl := "false"
	if success {
		lbl = "true"
	}
	synthCallsTotal.WithLabelValues(norm(provider), lbl).Inc()
	synthLatencyMs.WithLabelValues(norm(provider)).Observe(float64(latencyMs))
}

func IncProviderFallback(from, to string) {
	providerFallbacksTotal.WithLabelValues(norm(from), norm(to)).Inc()
}

func SetProviderAvailable(provider string, available bool) {
	v := 0.0
	if available {
		v = 1.0
	}
	providerAvailable.WithLabelValues(norm(provider)).Set(v)
}
