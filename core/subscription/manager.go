// Package subscription manages standing push orchestration requests.
package subscription

import (
	"cmp"
	"context"
	"encoding/json"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/kilianp07/orchestrator/core/logger"
	"github.com/kilianp07/orchestrator/core/model"
	"github.com/kilianp07/orchestrator/core/notify"
	"github.com/kilianp07/orchestrator/core/orcherr"
	"github.com/kilianp07/orchestrator/core/query"
)

// FormValidator checks an orchestration form before it is stored.
type FormValidator interface {
	Validate(form model.OrchestrationForm) error
}

// BaseFilter names the storage index a subscription query starts from.
type BaseFilter int

const (
	BaseNone BaseFilter = iota
	BaseID
	BaseOwner
	BaseTarget
	BaseService
)

// Manager implements subscribe, unsubscribe and lookup.
type Manager struct {
	store     Store
	validator FormValidator
	log       logger.Logger
	now       func() time.Time
}

// NewManager creates a subscription manager. validator may be nil.
func NewManager(store Store, validator FormValidator, log logger.Logger) *Manager {
	return &Manager{store: store, validator: validator, log: log, now: time.Now}
}

// SetClock replaces the time source.
func (m *Manager) SetClock(now func() time.Time) {
	if now != nil {
		m.now = now
	}
}

var subscriptionSorter = query.Sorter[model.Subscription]{
	Default: "createdAt",
	Fields: map[string]query.Comparator[model.Subscription]{
		"id":                func(a, b model.Subscription) int { return cmp.Compare(a.ID.String(), b.ID.String()) },
		"ownerSystem":       func(a, b model.Subscription) int { return cmp.Compare(a.OwnerSystem, b.OwnerSystem) },
		"targetSystem":      func(a, b model.Subscription) int { return cmp.Compare(a.TargetSystem, b.TargetSystem) },
		"serviceDefinition": func(a, b model.Subscription) int { return cmp.Compare(a.ServiceDefinition, b.ServiceDefinition) },
		"createdAt":         func(a, b model.Subscription) int { return a.CreatedAt.Compare(b.CreatedAt) },
		"expiresAt": func(a, b model.Subscription) int {
			switch {
			case a.ExpiresAt == nil && b.ExpiresAt == nil:
				return 0
			case a.ExpiresAt == nil:
				return 1
			case b.ExpiresAt == nil:
				return -1
			}
			return a.ExpiresAt.Compare(*b.ExpiresAt)
		},
	},
}

type key struct{ owner, target, service string }

// Create subscribes requester to every request. An existing subscription
// for the same (owner, target, service) triple is replaced.
func (m *Manager) Create(ctx context.Context, requester string, reqs []*model.SubscriptionRequest) ([]model.Subscription, error) {
	const origin = "subscription.Create"
	if requester == "" {
		return nil, orcherr.InvalidParameter(origin, "Requester system is empty")
	}
	if len(reqs) == 0 {
		return nil, orcherr.InvalidParameter(origin, "Subscription list is empty")
	}
	now := m.now()
	seen := make(map[key]struct{}, len(reqs))
	var remove []uuid.UUID
	subs := make([]model.Subscription, 0, len(reqs))
	for i, r := range reqs {
		if r == nil {
			return nil, orcherr.InvalidParameter(origin, "Subscription list contains null element at index %d", i)
		}
		sub, err := m.build(origin, requester, r, now)
		if err != nil {
			return nil, err
		}
		k := key{sub.OwnerSystem, sub.TargetSystem, sub.ServiceDefinition}
		if _, dup := seen[k]; dup {
			return nil, orcherr.InvalidParameter(origin, "Duplicate subscription for target %s and service %s", k.target, k.service)
		}
		seen[k] = struct{}{}

		existing, err := m.store.FindSubscriptionByKey(ctx, k.owner, k.target, k.service)
		if err != nil {
			m.log.Errorf("lookup subscription %v: %v", k, err)
			return nil, orcherr.Internal(origin, err)
		}
		if existing != nil {
			remove = append(remove, existing.ID)
		}
		subs = append(subs, sub)
	}

	saved, err := m.store.ReplaceSubscriptions(ctx, remove, subs)
	if err != nil {
		m.log.Errorf("replace %d subscriptions: %v", len(subs), err)
		return nil, orcherr.Internal(origin, err)
	}
	m.log.Infof("%s subscribed to %d services (%d replaced)", requester, len(saved), len(remove))
	return saved, nil
}

func (m *Manager) build(origin, requester string, r *model.SubscriptionRequest, now time.Time) (model.Subscription, error) {
	form := r.OrchestrationRequest
	form.RequesterSystem = requester
	if form.TargetSystem == "" {
		form.TargetSystem = requester
	}
	if m.validator != nil {
		if err := m.validator.Validate(form); err != nil {
			return model.Subscription{}, err
		}
	}
	if form.Service.ServiceDefinition == "" {
		return model.Subscription{}, orcherr.InvalidParameter(origin, "Service definition requirement is missing")
	}
	protocol, err := model.ParseNotifyProtocol(string(r.NotifyProtocol))
	if err != nil {
		return model.Subscription{}, orcherr.InvalidParameter(origin, "Invalid notify protocol: %s", r.NotifyProtocol)
	}
	if err := notify.CheckProperties(protocol, r.NotifyProperties); err != nil {
		return model.Subscription{}, orcherr.InvalidParameter(origin, "%v", err)
	}
	if r.Duration != nil && *r.Duration < 0 {
		return model.Subscription{}, orcherr.InvalidParameter(origin, "Duration must not be negative")
	}

	props, err := json.Marshal(r.NotifyProperties)
	if err != nil {
		return model.Subscription{}, orcherr.Internal(origin, err)
	}
	request, err := json.Marshal(form)
	if err != nil {
		return model.Subscription{}, orcherr.Internal(origin, err)
	}
	sub := model.Subscription{
		OwnerSystem:          requester,
		TargetSystem:         form.TargetSystem,
		ServiceDefinition:    form.Service.ServiceDefinition,
		NotifyProtocol:       protocol,
		NotifyProperties:     props,
		OrchestrationRequest: request,
	}
	sub.CreatedAt = model.StampCreated(&sub.ID, now)
	if r.Duration != nil && *r.Duration > 0 {
		sub.ExpiresAt = model.StampNow(now.Add(time.Duration(*r.Duration) * time.Minute))
	}
	return sub, nil
}

// Get returns the subscription with id, or nil.
func (m *Manager) Get(ctx context.Context, id uuid.UUID) (*model.Subscription, error) {
	sub, err := m.store.GetSubscription(ctx, id)
	if err != nil {
		m.log.Errorf("get subscription %s: %v", id, err)
		return nil, orcherr.Internal("subscription.Get", err)
	}
	return sub, nil
}

// GetByKey returns the subscription for the triple, or nil.
func (m *Manager) GetByKey(ctx context.Context, owner, target, service string) (*model.Subscription, error) {
	sub, err := m.store.FindSubscriptionByKey(ctx, owner, target, service)
	if err != nil {
		return nil, orcherr.Internal("subscription.GetByKey", err)
	}
	return sub, nil
}

// Unsubscribe removes the subscription for the triple. A missing row is
// not an error; the result reports whether one was removed.
func (m *Manager) Unsubscribe(ctx context.Context, owner, target, service string) (bool, error) {
	const origin = "subscription.Unsubscribe"
	if owner == "" || service == "" {
		return false, orcherr.InvalidParameter(origin, "Owner system and service definition are required")
	}
	if target == "" {
		target = owner
	}
	removed, err := m.store.DeleteSubscriptionByKey(ctx, owner, target, service)
	if err != nil {
		m.log.Errorf("unsubscribe %s/%s/%s: %v", owner, target, service, err)
		return false, orcherr.Internal(origin, err)
	}
	return removed, nil
}

// Base returns the base filter chosen for f: ID > OWNER > TARGET > SERVICE.
func Base(f model.SubscriptionFilter) BaseFilter {
	switch {
	case len(f.IDs) > 0:
		return BaseID
	case len(f.Owners) > 0:
		return BaseOwner
	case len(f.Targets) > 0:
		return BaseTarget
	case len(f.Services) > 0:
		return BaseService
	default:
		return BaseNone
	}
}

// Query returns the page of subscriptions matching f.
func (m *Manager) Query(ctx context.Context, f model.SubscriptionFilter) (model.Page[model.Subscription], error) {
	const origin = "subscription.Query"
	if err := subscriptionSorter.Check(origin, f.PageRequest); err != nil {
		return model.Page[model.Subscription]{}, err
	}
	var (
		base []model.Subscription
		err  error
	)
	switch Base(f) {
	case BaseID:
		base, err = m.store.FindSubscriptionsByIDs(ctx, f.IDs)
	case BaseOwner:
		base, err = m.store.FindSubscriptionsByOwners(ctx, f.Owners)
	case BaseTarget:
		base, err = m.store.FindSubscriptionsByTargets(ctx, f.Targets)
	case BaseService:
		base, err = m.store.FindSubscriptionsByServices(ctx, f.Services)
	default:
		base, err = m.store.FindAllSubscriptions(ctx)
	}
	if err != nil {
		m.log.Errorf("query subscriptions: %v", err)
		return model.Page[model.Subscription]{}, orcherr.Internal(origin, err)
	}

	ids := query.Set(f.IDs)
	owners := query.Set(f.Owners)
	targets := query.Set(f.Targets)
	services := query.Set(f.Services)
	matched := base[:0:0]
	for _, s := range base {
		if query.Match(ids, s.ID) && query.Match(owners, s.OwnerSystem) &&
			query.Match(targets, s.TargetSystem) && query.Match(services, s.ServiceDefinition) {
			matched = append(matched, s)
		}
	}
	return subscriptionSorter.Paginate(matched, f.PageRequest), nil
}

// Active returns the subscriptions of requester that have not expired,
// optionally narrowed by target, service and ids.
func (m *Manager) Active(ctx context.Context, requester, target, service string, ids []uuid.UUID) ([]model.Subscription, error) {
	f := model.SubscriptionFilter{IDs: ids, Owners: []string{requester}}
	if target != "" {
		f.Targets = []string{target}
	}
	if service != "" {
		f.Services = []string{service}
	}
	f.Size = math.MaxInt
	page, err := m.Query(ctx, f)
	if err != nil {
		return nil, err
	}
	now := m.now()
	active := page.Items[:0:0]
	for _, s := range page.Items {
		if s.Active(now) {
			active = append(active, s)
		}
	}
	return active, nil
}
