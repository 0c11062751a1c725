package model

import (
	"time"

	"github.com/google/uuid"
)

// Sort directions.
const (
	SortAsc  = "ASC"
	SortDesc = "DESC"
)

// PageRequest describes the requested page of a query.
type PageRequest struct {
	// Page is zero based.
	Page      int    `json:"page"`
	Size      int    `json:"size"`
	SortField string `json:"sortField,omitempty"`
	Direction string `json:"direction,omitempty"`
}

// Page is one page of query results.
type Page[T any] struct {
	Items []T `json:"data"`
	Count int `json:"count"`
	Total int `json:"total"`
}

// JobFilter selects orchestration jobs.
type JobFilter struct {
	PageRequest
	IDs             []uuid.UUID `json:"ids,omitempty"`
	Statuses        []JobStatus `json:"statuses,omitempty"`
	Requesters      []string    `json:"requesterSystems,omitempty"`
	Targets         []string    `json:"targetSystems,omitempty"`
	Services        []string    `json:"serviceDefinitions,omitempty"`
	SubscriptionIDs []uuid.UUID `json:"subscriptionIds,omitempty"`
}

// LockFilter selects orchestration locks.
type LockFilter struct {
	PageRequest
	IDs                []int64     `json:"ids,omitempty"`
	JobIDs             []uuid.UUID `json:"orchestrationJobIds,omitempty"`
	ServiceInstanceIDs []string    `json:"serviceInstanceIds,omitempty"`
	Owners             []string    `json:"owners,omitempty"`
	ExpiresBefore      *time.Time  `json:"expiresBefore,omitempty"`
	ExpiresAfter       *time.Time  `json:"expiresAfter,omitempty"`
}

// SubscriptionFilter selects push subscriptions.
type SubscriptionFilter struct {
	PageRequest
	IDs      []uuid.UUID `json:"ids,omitempty"`
	Owners   []string    `json:"ownerSystems,omitempty"`
	Targets  []string    `json:"targetSystems,omitempty"`
	Services []string    `json:"serviceDefinitions,omitempty"`
}

// TriggerRequest selects the subscriptions a push trigger applies to.
type TriggerRequest struct {
	Requester         string      `json:"requesterSystem"`
	TargetSystem      string      `json:"targetSystem,omitempty"`
	ServiceDefinition string      `json:"serviceDefinition,omitempty"`
	SubscriptionIDs   []uuid.UUID `json:"subscriptionIds,omitempty"`
}
