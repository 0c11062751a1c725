package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/kilianp07/orchestrator/core/model"
	"github.com/kilianp07/orchestrator/core/subscription"
)

// SubscriptionStore implements subscription.Store.
type SubscriptionStore struct {
	db *gorm.DB
}

var _ subscription.Store = (*SubscriptionStore)(nil)

// NewSubscriptionStore wraps an open gorm connection.
func NewSubscriptionStore(db *gorm.DB) *SubscriptionStore { return &SubscriptionStore{db: db} }

func (s *SubscriptionStore) ReplaceSubscriptions(ctx context.Context, deleteIDs []uuid.UUID, subs []model.Subscription) ([]model.Subscription, error) {
	recs := make([]subscriptionRecord, 0, len(subs))
	for _, sub := range subs {
		recs = append(recs, newSubscriptionRecord(sub))
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(deleteIDs) > 0 {
			if err := tx.Where("id IN ?", deleteIDs).Delete(&subscriptionRecord{}).Error; err != nil {
				return err
			}
		}
		if len(recs) == 0 {
			return nil
		}
		return tx.Create(&recs).Error
	})
	if err != nil {
		return nil, translate(err)
	}
	return toSubscriptions(recs)
}

func (s *SubscriptionStore) GetSubscription(ctx context.Context, id uuid.UUID) (*model.Subscription, error) {
	return s.first(s.db.WithContext(ctx).Where("id = ?", id))
}

func (s *SubscriptionStore) FindSubscriptionByKey(ctx context.Context, owner, target, service string) (*model.Subscription, error) {
	return s.first(s.db.WithContext(ctx).
		Where("owner_system = ? AND target_system = ? AND service_definition = ?", owner, target, service))
}

func (s *SubscriptionStore) FindSubscriptionsByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Subscription, error) {
	return s.find(ctx, "id IN ?", ids)
}

func (s *SubscriptionStore) FindSubscriptionsByOwners(ctx context.Context, owners []string) ([]model.Subscription, error) {
	return s.find(ctx, "owner_system IN ?", owners)
}

func (s *SubscriptionStore) FindSubscriptionsByTargets(ctx context.Context, targets []string) ([]model.Subscription, error) {
	return s.find(ctx, "target_system IN ?", targets)
}

func (s *SubscriptionStore) FindSubscriptionsByServices(ctx context.Context, services []string) ([]model.Subscription, error) {
	return s.find(ctx, "service_definition IN ?", services)
}

func (s *SubscriptionStore) FindAllSubscriptions(ctx context.Context) ([]model.Subscription, error) {
	var recs []subscriptionRecord
	if err := s.db.WithContext(ctx).Find(&recs).Error; err != nil {
		return nil, err
	}
	return toSubscriptions(recs)
}

func (s *SubscriptionStore) DeleteSubscriptionByKey(ctx context.Context, owner, target, service string) (bool, error) {
	res := s.db.WithContext(ctx).
		Where("owner_system = ? AND target_system = ? AND service_definition = ?", owner, target, service).
		Delete(&subscriptionRecord{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (s *SubscriptionStore) first(q *gorm.DB) (*model.Subscription, error) {
	var rec subscriptionRecord
	err := q.First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	sub, err := rec.toModel()
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

func (s *SubscriptionStore) find(ctx context.Context, cond string, arg any) ([]model.Subscription, error) {
	var recs []subscriptionRecord
	if err := s.db.WithContext(ctx).Where(cond, arg).Find(&recs).Error; err != nil {
		return nil, err
	}
	return toSubscriptions(recs)
}

func toSubscriptions(recs []subscriptionRecord) ([]model.Subscription, error) {
	out := make([]model.Subscription, 0, len(recs))
	for _, r := range recs {
		sub, err := r.toModel()
		if err != nil {
			return nil, err
		}
		out = append(out, sub)
	}
	return out, nil
}
