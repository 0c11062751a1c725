package metrics

import (
	"errors"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/kilianp07/orchestrator/core/metrics"
)

// PromSink records orchestration outcomes in Prometheus metrics.
type PromSink struct {
	jobs       *prometheus.CounterVec
	duration   *prometheus.HistogramVec
	deliveries *prometheus.CounterVec
	latency    *prometheus.HistogramVec
}

// NewPromSink registers the collectors on the default Prometheus registerer.
// The /metrics endpoint is served separately by StartPromServer.
func NewPromSink() (*PromSink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer. Collectors
// already registered by an earlier sink are reused.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	jobs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "orchestration_jobs_total",
		Help: "Finished orchestration jobs by type and final status",
	}, []string{"type", "status"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "orchestration_job_duration_seconds",
		Help:    "Time from job start to its terminal status",
		Buckets: prometheus.DefBuckets,
	}, []string{"type"})
	deliveries := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "push_deliveries_total",
		Help: "Push notification attempts by protocol and outcome",
	}, []string{"protocol", "delivered"})
	latency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "push_delivery_latency_seconds",
		Help:    "Time spent handing a result to a subscriber",
		Buckets: prometheus.DefBuckets,
	}, []string{"protocol"})

	var err error
	if jobs, err = register(reg, jobs); err != nil {
		return nil, err
	}
	if duration, err = register(reg, duration); err != nil {
		return nil, err
	}
	if deliveries, err = register(reg, deliveries); err != nil {
		return nil, err
	}
	if latency, err = register(reg, latency); err != nil {
		return nil, err
	}
	return &PromSink{jobs: jobs, duration: duration, deliveries: deliveries, latency: latency}, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// RecordJobOutcome counts the job and observes its duration.
func (s *PromSink) RecordJobOutcome(ev coremetrics.JobOutcome) error {
	s.jobs.WithLabelValues(string(ev.Type), string(ev.Status)).Inc()
	if ev.Duration > 0 {
		s.duration.WithLabelValues(string(ev.Type)).Observe(ev.Duration.Seconds())
	}
	return nil
}

// RecordDelivery counts a notification attempt and its latency.
func (s *PromSink) RecordDelivery(ev coremetrics.DeliveryOutcome) error {
	s.deliveries.WithLabelValues(string(ev.Protocol), strconv.FormatBool(ev.Delivered)).Inc()
	s.latency.WithLabelValues(string(ev.Protocol)).Observe(ev.Latency.Seconds())
	return nil
}
