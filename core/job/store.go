package job

import (
	"context"

	"github.com/google/uuid"

	"github.com/kilianp07/orchestrator/core/model"
)

// Store persists orchestration jobs. The Find methods are the storage
// indexes a query may use as its base filter.
type Store interface {
	CreateJobs(ctx context.Context, jobs []model.OrchestrationJob) ([]model.OrchestrationJob, error)
	// GetJob returns nil without error when the job does not exist.
	GetJob(ctx context.Context, id uuid.UUID) (*model.OrchestrationJob, error)
	// UpdateJob loads the job, applies mutate and saves it in one
	// transaction. It returns orcherr.ErrNotFound for unknown ids.
	UpdateJob(ctx context.Context, id uuid.UUID, mutate func(*model.OrchestrationJob) error) (*model.OrchestrationJob, error)
	FindJobsByIDs(ctx context.Context, ids []uuid.UUID) ([]model.OrchestrationJob, error)
	FindJobsByStatuses(ctx context.Context, statuses []model.JobStatus) ([]model.OrchestrationJob, error)
	FindJobsByRequesters(ctx context.Context, systems []string) ([]model.OrchestrationJob, error)
	FindJobsByTargets(ctx context.Context, systems []string) ([]model.OrchestrationJob, error)
	FindJobsByServices(ctx context.Context, services []string) ([]model.OrchestrationJob, error)
	FindAllJobs(ctx context.Context) ([]model.OrchestrationJob, error)
	DeleteJobs(ctx context.Context, ids []uuid.UUID) error
}
