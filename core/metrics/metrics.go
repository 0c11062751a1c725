package metrics

import (
	"time"

	"github.com/google/uuid"

	"github.com/kilianp07/orchestrator/core/model"
)

// JobOutcome is a finished orchestration job to be recorded.
type JobOutcome struct {
	JobID     uuid.UUID
	Type      model.JobType
	Status    model.JobStatus
	Requester string
	Service   string
	Duration  time.Duration
	Error     string
	Time      time.Time
}

// MetricsSink records job outcomes for observability purposes.
type MetricsSink interface {
	RecordJobOutcome(ev JobOutcome) error
}

// DeliveryOutcome is one push notification attempt.
type DeliveryOutcome struct {
	JobID          uuid.UUID
	SubscriptionID uuid.UUID
	Protocol       model.NotifyProtocol
	Delivered      bool
	Latency        time.Duration
	Error          string
	Time           time.Time
}

// DeliveryRecorder records push notification attempts.
type DeliveryRecorder interface {
	RecordDelivery(ev DeliveryOutcome) error
}

// NopSink implements every recorder with no-op methods.
type NopSink struct{}

func (NopSink) RecordJobOutcome(JobOutcome) error     { return nil }
func (NopSink) RecordDelivery(DeliveryOutcome) error { return nil }
