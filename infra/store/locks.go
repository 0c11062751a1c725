package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/kilianp07/orchestrator/core/lock"
	"github.com/kilianp07/orchestrator/core/model"
)

// LockStore implements lock.Store. The unique index on service_instance_id
// decides concurrent reservations of the same instance.
type LockStore struct {
	db *gorm.DB
}

var _ lock.Store = (*LockStore)(nil)

// NewLockStore wraps an open gorm connection.
func NewLockStore(db *gorm.DB) *LockStore { return &LockStore{db: db} }

func (s *LockStore) CreateLocks(ctx context.Context, locks []model.OrchestrationLock, now time.Time) ([]model.OrchestrationLock, error) {
	instances := make([]string, 0, len(locks))
	recs := make([]lockRecord, 0, len(locks))
	for _, l := range locks {
		instances = append(instances, l.ServiceInstanceID)
		rec := newLockRecord(l)
		rec.ID = 0
		recs = append(recs, rec)
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("service_instance_id IN ? AND expires_at IS NOT NULL AND expires_at < ?", instances, now.UTC()).
			Delete(&lockRecord{}).Error; err != nil {
			return err
		}
		return tx.Create(&recs).Error
	})
	if err != nil {
		return nil, translate(err)
	}
	return toLocks(recs), nil
}

func (s *LockStore) FindLocksByIDs(ctx context.Context, ids []int64) ([]model.OrchestrationLock, error) {
	return s.find(ctx, "id IN ?", ids)
}

func (s *LockStore) FindLocksByJobIDs(ctx context.Context, ids []uuid.UUID) ([]model.OrchestrationLock, error) {
	return s.find(ctx, "orchestration_job_id IN ?", ids)
}

func (s *LockStore) FindLocksByServiceInstanceIDs(ctx context.Context, ids []string) ([]model.OrchestrationLock, error) {
	return s.find(ctx, "service_instance_id IN ?", ids)
}

func (s *LockStore) FindLocksByOwners(ctx context.Context, owners []string) ([]model.OrchestrationLock, error) {
	return s.find(ctx, "owner IN ?", owners)
}

func (s *LockStore) FindAllLocks(ctx context.Context) ([]model.OrchestrationLock, error) {
	var recs []lockRecord
	if err := s.db.WithContext(ctx).Find(&recs).Error; err != nil {
		return nil, err
	}
	return toLocks(recs), nil
}

func (s *LockStore) DeleteLocks(ctx context.Context, owner string, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).Where("owner = ? AND id IN ?", owner, ids).Delete(&lockRecord{}).Error
}

func (s *LockStore) find(ctx context.Context, cond string, arg any) ([]model.OrchestrationLock, error) {
	var recs []lockRecord
	if err := s.db.WithContext(ctx).Where(cond, arg).Find(&recs).Error; err != nil {
		return nil, err
	}
	return toLocks(recs), nil
}

func toLocks(recs []lockRecord) []model.OrchestrationLock {
	out := make([]model.OrchestrationLock, 0, len(recs))
	for _, r := range recs {
		out = append(out, r.toModel())
	}
	return out
}
