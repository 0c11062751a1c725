package api

import (
	"github.com/google/uuid"

	"github.com/kilianp07/orchestrator/core/model"
)

// SubscribeRequest registers subscriptions on behalf of a requester.
type SubscribeRequest struct {
	Requester     string                       `json:"requesterSystem"`
	Subscriptions []*model.SubscriptionRequest `json:"subscriptions"`
}

// SubscribeResponse lists the stored subscriptions.
type SubscribeResponse struct {
	Subscriptions []model.Subscription `json:"subscriptions"`
}

// UnsubscribeResponse reports whether a subscription was removed.
type UnsubscribeResponse struct {
	Removed bool `json:"removed"`
}

// TriggerResponse lists the queued push jobs.
type TriggerResponse struct {
	JobIDs []uuid.UUID `json:"jobIds"`
}

// LockCreateRequest lists the locks to create.
type LockCreateRequest struct {
	Locks []*model.LockRequest `json:"locks"`
}

// LockCreateResponse lists the created locks.
type LockCreateResponse struct {
	Locks []model.OrchestrationLock `json:"locks"`
}
