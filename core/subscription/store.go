package subscription

import (
	"context"

	"github.com/google/uuid"

	"github.com/kilianp07/orchestrator/core/model"
)

// Store persists push subscriptions. The (owner, target, service) triple is unique.
type Store interface {
	// ReplaceSubscriptions deletes the given ids and inserts subs in one
	// transaction, deletes first.
	ReplaceSubscriptions(ctx context.Context, deleteIDs []uuid.UUID, subs []model.Subscription) ([]model.Subscription, error)
	GetSubscription(ctx context.Context, id uuid.UUID) (*model.Subscription, error)
	FindSubscriptionByKey(ctx context.Context, owner, target, service string) (*model.Subscription, error)
	FindSubscriptionsByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Subscription, error)
	FindSubscriptionsByOwners(ctx context.Context, owners []string) ([]model.Subscription, error)
	FindSubscriptionsByTargets(ctx context.Context, targets []string) ([]model.Subscription, error)
	FindSubscriptionsByServices(ctx context.Context, services []string) ([]model.Subscription, error)
	FindAllSubscriptions(ctx context.Context) ([]model.Subscription, error)
	// DeleteSubscriptionByKey reports whether a row was removed.
	DeleteSubscriptionByKey(ctx context.Context, owner, target, service string) (bool, error)
}
