// Package api exposes the orchestration engine over HTTP with gin.
package api

import (
	"context"

	"github.com/google/uuid"

	"github.com/kilianp07/orchestrator/core/logger"
	"github.com/kilianp07/orchestrator/core/model"
)

// PullService runs synchronous orchestrations.
type PullService interface {
	Pull(ctx context.Context, form model.OrchestrationForm) (model.OrchestrationResponse, error)
}

// SubscriptionService manages push subscriptions.
type SubscriptionService interface {
	Create(ctx context.Context, requester string, reqs []*model.SubscriptionRequest) ([]model.Subscription, error)
	Get(ctx context.Context, id uuid.UUID) (*model.Subscription, error)
	Unsubscribe(ctx context.Context, owner, target, service string) (bool, error)
	Query(ctx context.Context, f model.SubscriptionFilter) (model.Page[model.Subscription], error)
}

// TriggerService queues push orchestrations.
type TriggerService interface {
	Trigger(ctx context.Context, req model.TriggerRequest) ([]uuid.UUID, error)
}

// LockService manages orchestration locks.
type LockService interface {
	Create(ctx context.Context, reqs []*model.LockRequest) ([]model.OrchestrationLock, error)
	Query(ctx context.Context, f model.LockFilter) (model.Page[model.OrchestrationLock], error)
	Remove(ctx context.Context, owner string, ids []int64) error
}

// JobService exposes recorded orchestration jobs.
type JobService interface {
	Query(ctx context.Context, f model.JobFilter) (model.Page[model.OrchestrationJob], error)
	DeleteInBatch(ctx context.Context, ids []uuid.UUID) error
}

// Controller holds the services behind the HTTP handlers.
type Controller struct {
	Pull          PullService
	Subscriptions SubscriptionService
	Trigger       TriggerService
	Locks         LockService
	Jobs          JobService
	Log           logger.Logger
}
