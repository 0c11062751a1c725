package store

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/kilianp07/orchestrator/core/model"
)

type jobRecord struct {
	ID                uuid.UUID  `gorm:"type:uuid;primaryKey"`
	Status            string     `gorm:"size:16;not null;index"`
	Type              string     `gorm:"size:8;not null"`
	RequesterSystem   string     `gorm:"not null;index"`
	TargetSystem      string     `gorm:"not null;index"`
	ServiceDefinition string     `gorm:"not null;index"`
	SubscriptionID    *uuid.UUID `gorm:"type:uuid;index"`
	Message           *string    `gorm:"type:text"`
	CreatedAt         time.Time  `gorm:"not null"`
	StartedAt         *time.Time
	FinishedAt        *time.Time
}

func (jobRecord) TableName() string { return "orchestration_job" }

func newJobRecord(j model.OrchestrationJob) jobRecord {
	return jobRecord{
		ID:                j.ID,
		Status:            string(j.Status),
		Type:              string(j.Type),
		RequesterSystem:   j.RequesterSystem,
		TargetSystem:      j.TargetSystem,
		ServiceDefinition: j.ServiceDefinition,
		SubscriptionID:    j.SubscriptionID,
		Message:           j.Message,
		CreatedAt:         j.CreatedAt,
		StartedAt:         j.StartedAt,
		FinishedAt:        j.FinishedAt,
	}
}

func (r jobRecord) toModel() (model.OrchestrationJob, error) {
	status, err := model.ParseJobStatus(r.Status)
	if err != nil {
		return model.OrchestrationJob{}, fmt.Errorf("job %s: %w", r.ID, err)
	}
	typ, err := model.ParseJobType(r.Type)
	if err != nil {
		return model.OrchestrationJob{}, fmt.Errorf("job %s: %w", r.ID, err)
	}
	return model.OrchestrationJob{
		ID:                r.ID,
		Status:            status,
		Type:              typ,
		RequesterSystem:   r.RequesterSystem,
		TargetSystem:      r.TargetSystem,
		ServiceDefinition: r.ServiceDefinition,
		SubscriptionID:    r.SubscriptionID,
		Message:           r.Message,
		CreatedAt:         r.CreatedAt.UTC(),
		StartedAt:         utc(r.StartedAt),
		FinishedAt:        utc(r.FinishedAt),
	}, nil
}

type lockRecord struct {
	ID                 int64      `gorm:"primaryKey;autoIncrement"`
	OrchestrationJobID *uuid.UUID `gorm:"type:uuid;index"`
	ServiceInstanceID  string     `gorm:"not null;uniqueIndex:idx_lock_service_instance"`
	Owner              string     `gorm:"not null;index"`
	ExpiresAt          *time.Time `gorm:"index"`
	Temporary          bool       `gorm:"not null;default:false"`
}

func (lockRecord) TableName() string { return "orchestration_lock" }

func newLockRecord(l model.OrchestrationLock) lockRecord {
	return lockRecord{
		ID:                 l.ID,
		OrchestrationJobID: l.OrchestrationJobID,
		ServiceInstanceID:  l.ServiceInstanceID,
		Owner:              l.Owner,
		ExpiresAt:          l.ExpiresAt,
		Temporary:          l.Temporary,
	}
}

func (r lockRecord) toModel() model.OrchestrationLock {
	return model.OrchestrationLock{
		ID:                 r.ID,
		OrchestrationJobID: r.OrchestrationJobID,
		ServiceInstanceID:  r.ServiceInstanceID,
		Owner:              r.Owner,
		ExpiresAt:          utc(r.ExpiresAt),
		Temporary:          r.Temporary,
	}
}

type subscriptionRecord struct {
	ID                   uuid.UUID      `gorm:"type:uuid;primaryKey"`
	OwnerSystem          string         `gorm:"not null;uniqueIndex:idx_subscription_key,priority:1"`
	TargetSystem         string         `gorm:"not null;uniqueIndex:idx_subscription_key,priority:2;index"`
	ServiceDefinition    string         `gorm:"not null;uniqueIndex:idx_subscription_key,priority:3;index"`
	ExpiresAt            *time.Time     `gorm:"index"`
	NotifyProtocol       string         `gorm:"size:8;not null"`
	NotifyProperties     datatypes.JSON `gorm:"not null"`
	OrchestrationRequest datatypes.JSON `gorm:"not null"`
	CreatedAt            time.Time      `gorm:"not null"`
}

func (subscriptionRecord) TableName() string { return "subscription" }

func newSubscriptionRecord(s model.Subscription) subscriptionRecord {
	return subscriptionRecord{
		ID:                   s.ID,
		OwnerSystem:          s.OwnerSystem,
		TargetSystem:         s.TargetSystem,
		ServiceDefinition:    s.ServiceDefinition,
		ExpiresAt:            s.ExpiresAt,
		NotifyProtocol:       string(s.NotifyProtocol),
		NotifyProperties:     jsonOrEmpty(s.NotifyProperties),
		OrchestrationRequest: jsonOrEmpty(s.OrchestrationRequest),
		CreatedAt:            s.CreatedAt,
	}
}

func (r subscriptionRecord) toModel() (model.Subscription, error) {
	protocol, err := model.ParseNotifyProtocol(r.NotifyProtocol)
	if err != nil {
		return model.Subscription{}, fmt.Errorf("subscription %s: %w", r.ID, err)
	}
	return model.Subscription{
		ID:                   r.ID,
		OwnerSystem:          r.OwnerSystem,
		TargetSystem:         r.TargetSystem,
		ServiceDefinition:    r.ServiceDefinition,
		ExpiresAt:            utc(r.ExpiresAt),
		NotifyProtocol:       protocol,
		NotifyProperties:     json.RawMessage(r.NotifyProperties),
		OrchestrationRequest: json.RawMessage(r.OrchestrationRequest),
		CreatedAt:            r.CreatedAt.UTC(),
	}, nil
}

func jsonOrEmpty(raw json.RawMessage) datatypes.JSON {
	if len(raw) == 0 {
		return datatypes.JSON("{}")
	}
	return datatypes.JSON(raw)
}

func utc(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := t.UTC()
	return &v
}
