package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/kilianp07/orchestrator/core/model"
)

// JobEvent is published when an orchestration job finishes.
type JobEvent struct {
	Job      model.OrchestrationJob
	Duration time.Duration
	Err      error
}

// DeliveryEvent is published after each push notification attempt.
type DeliveryEvent struct {
	JobID          uuid.UUID
	SubscriptionID uuid.UUID
	Protocol       model.NotifyProtocol
	Latency        time.Duration
	Err            error
}
