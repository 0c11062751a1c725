package model

import (
	"time"

	"github.com/google/uuid"
)

// OrchestrationLock is an exclusive, time-boxed reservation on a service instance.
type OrchestrationLock struct {
	ID                 int64      `json:"id"`
	OrchestrationJobID *uuid.UUID `json:"orchestrationJobId,omitempty"`
	ServiceInstanceID  string     `json:"serviceInstanceId"`
	Owner              string     `json:"owner"`
	ExpiresAt          *time.Time `json:"expiresAt,omitempty"`
	Temporary          bool       `json:"temporary"`
}

// Active reports whether the lock still holds at the given time. Locks
// without an expiry never lapse.
func (l OrchestrationLock) Active(now time.Time) bool {
	return l.ExpiresAt == nil || !l.ExpiresAt.Before(now)
}

// LockRequest is the inbound form of a lock to create.
type LockRequest struct {
	OrchestrationJobID *uuid.UUID `json:"orchestrationJobId,omitempty"`
	ServiceInstanceID  string     `json:"serviceInstanceId"`
	Owner              string     `json:"owner"`
	// ExpiresAt is an RFC 3339 timestamp. Empty means no time based expiry.
	ExpiresAt string `json:"expiresAt,omitempty"`
	Temporary bool   `json:"temporary"`
}
