package lock

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/kilianp07/orchestrator/core/model"
)

// Store persists orchestration locks.
type Store interface {
	// CreateLocks inserts locks in one transaction after removing rows for
	// the same service instances that expired before now. A lock held on an
	// instance that is still active yields orcherr.ErrConflict.
	CreateLocks(ctx context.Context, locks []model.OrchestrationLock, now time.Time) ([]model.OrchestrationLock, error)
	FindLocksByIDs(ctx context.Context, ids []int64) ([]model.OrchestrationLock, error)
	FindLocksByJobIDs(ctx context.Context, ids []uuid.UUID) ([]model.OrchestrationLock, error)
	FindLocksByServiceInstanceIDs(ctx context.Context, ids []string) ([]model.OrchestrationLock, error)
	FindLocksByOwners(ctx context.Context, owners []string) ([]model.OrchestrationLock, error)
	FindAllLocks(ctx context.Context) ([]model.OrchestrationLock, error)
	// DeleteLocks removes the ids held by owner. Unknown ids are ignored.
	DeleteLocks(ctx context.Context, owner string, ids []int64) error
}
