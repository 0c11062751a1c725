package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/kilianp07/orchestrator/core/job"
	"github.com/kilianp07/orchestrator/core/model"
)

// JobStore implements job.Store.
type JobStore struct {
	db *gorm.DB
}

var _ job.Store = (*JobStore)(nil)

// NewJobStore wraps an open gorm connection.
func NewJobStore(db *gorm.DB) *JobStore { return &JobStore{db: db} }

func (s *JobStore) CreateJobs(ctx context.Context, jobs []model.OrchestrationJob) ([]model.OrchestrationJob, error) {
	recs := make([]jobRecord, 0, len(jobs))
	for _, j := range jobs {
		recs = append(recs, newJobRecord(j))
	}
	if err := s.db.WithContext(ctx).Create(&recs).Error; err != nil {
		return nil, translate(err)
	}
	return toJobs(recs)
}

func (s *JobStore) GetJob(ctx context.Context, id uuid.UUID) (*model.OrchestrationJob, error) {
	var rec jobRecord
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	j, err := rec.toModel()
	if err != nil {
		return nil, err
	}
	return &j, nil
}

func (s *JobStore) UpdateJob(ctx context.Context, id uuid.UUID, mutate func(*model.OrchestrationJob) error) (*model.OrchestrationJob, error) {
	var out model.OrchestrationJob
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		q := tx
		if tx.Dialector.Name() == DriverPostgres {
			q = tx.Clauses(clause.Locking{Strength: "UPDATE"})
		}
		var rec jobRecord
		if err := q.Where("id = ?", id).First(&rec).Error; err != nil {
			return translate(err)
		}
		j, err := rec.toModel()
		if err != nil {
			return err
		}
		if err := mutate(&j); err != nil {
			return err
		}
		updated := newJobRecord(j)
		if err := tx.Save(&updated).Error; err != nil {
			return err
		}
		out = j
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *JobStore) FindJobsByIDs(ctx context.Context, ids []uuid.UUID) ([]model.OrchestrationJob, error) {
	return s.find(ctx, "id IN ?", ids)
}

func (s *JobStore) FindJobsByStatuses(ctx context.Context, statuses []model.JobStatus) ([]model.OrchestrationJob, error) {
	raw := make([]string, 0, len(statuses))
	for _, st := range statuses {
		raw = append(raw, string(st))
	}
	return s.find(ctx, "status IN ?", raw)
}

func (s *JobStore) FindJobsByRequesters(ctx context.Context, systems []string) ([]model.OrchestrationJob, error) {
	return s.find(ctx, "requester_system IN ?", systems)
}

func (s *JobStore) FindJobsByTargets(ctx context.Context, systems []string) ([]model.OrchestrationJob, error) {
	return s.find(ctx, "target_system IN ?", systems)
}

func (s *JobStore) FindJobsByServices(ctx context.Context, services []string) ([]model.OrchestrationJob, error) {
	return s.find(ctx, "service_definition IN ?", services)
}

func (s *JobStore) FindAllJobs(ctx context.Context) ([]model.OrchestrationJob, error) {
	var recs []jobRecord
	if err := s.db.WithContext(ctx).Find(&recs).Error; err != nil {
		return nil, err
	}
	return toJobs(recs)
}

func (s *JobStore) DeleteJobs(ctx context.Context, ids []uuid.UUID) error {
	return s.db.WithContext(ctx).Where("id IN ?", ids).Delete(&jobRecord{}).Error
}

func (s *JobStore) find(ctx context.Context, cond string, arg any) ([]model.OrchestrationJob, error) {
	var recs []jobRecord
	if err := s.db.WithContext(ctx).Where(cond, arg).Find(&recs).Error; err != nil {
		return nil, err
	}
	return toJobs(recs)
}

func toJobs(recs []jobRecord) ([]model.OrchestrationJob, error) {
	out := make([]model.OrchestrationJob, 0, len(recs))
	for _, r := range recs {
		j, err := r.toModel()
		if err != nil {
			return nil, err
		}
		out = append(out, j)
	}
	return out, nil
}
