package push

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	pushJobs        *prometheus.CounterVec
	pushJobDuration prometheus.Histogram
	pushQueueDepth  prometheus.Gauge
)

func newCollectors() (*prometheus.CounterVec, prometheus.Histogram, prometheus.Gauge) {
	jobs := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "push_jobs_total",
			Help: "Push jobs processed by the worker, by final status",
		},
		[]string{"status"},
	)
	dur := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "push_job_duration_seconds",
			Help:    "Time spent processing a push job",
			Buckets: prometheus.DefBuckets,
		},
	)
	depth := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "push_queue_depth",
			Help: "Job ids waiting in the dispatch queue",
		},
	)
	return jobs, dur, depth
}

func init() {
	pushJobs, pushJobDuration, pushQueueDepth = newCollectors()
	MustRegisterMetrics(nil)
}

// MustRegisterMetrics registers push metrics on the provided registry.
// If reg is nil, prometheus.DefaultRegisterer is used.
func MustRegisterMetrics(reg prometheus.Registerer) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(pushJobs, pushJobDuration, pushQueueDepth)
}

// ResetMetrics reinitializes metrics collectors for testing purposes and
// registers them on the provided registry if not nil.
func ResetMetrics(reg prometheus.Registerer) {
	pushJobs, pushJobDuration, pushQueueDepth = newCollectors()
	if reg != nil {
		MustRegisterMetrics(reg)
	}
}
