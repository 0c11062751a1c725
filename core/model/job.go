package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// JobStatus is the lifecycle state of an orchestration job.
type JobStatus string

const (
	JobPending    JobStatus = "PENDING"
	JobInProgress JobStatus = "IN_PROGRESS"
	JobDone       JobStatus = "DONE"
	JobError      JobStatus = "ERROR"
)

// ParseJobStatus converts a stored or user supplied value into a JobStatus.
func ParseJobStatus(s string) (JobStatus, error) {
	switch st := JobStatus(strings.ToUpper(strings.TrimSpace(s))); st {
	case JobPending, JobInProgress, JobDone, JobError:
		return st, nil
	default:
		return "", fmt.Errorf("unknown job status %q", s)
	}
}

// Terminal reports whether no further work is expected for the status.
func (s JobStatus) Terminal() bool { return s == JobDone || s == JobError }

// JobType distinguishes synchronous from subscription driven executions.
type JobType string

const (
	JobPull JobType = "PULL"
	JobPush JobType = "PUSH"
)

// ParseJobType converts a stored or user supplied value into a JobType.
func ParseJobType(s string) (JobType, error) {
	switch t := JobType(strings.ToUpper(strings.TrimSpace(s))); t {
	case JobPull, JobPush:
		return t, nil
	default:
		return "", fmt.Errorf("unknown job type %q", s)
	}
}

// OrchestrationJob records one attempted orchestration execution.
type OrchestrationJob struct {
	ID                uuid.UUID  `json:"id"`
	Status            JobStatus  `json:"status"`
	Type              JobType    `json:"type"`
	RequesterSystem   string     `json:"requesterSystem"`
	TargetSystem      string     `json:"targetSystem"`
	ServiceDefinition string     `json:"serviceDefinition"`
	SubscriptionID    *uuid.UUID `json:"subscriptionId,omitempty"`
	Message           *string    `json:"message,omitempty"`
	CreatedAt         time.Time  `json:"createdAt"`
	StartedAt         *time.Time `json:"startedAt,omitempty"`
	FinishedAt        *time.Time `json:"finishedAt,omitempty"`
}
