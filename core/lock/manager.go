// Package lock manages exclusive, time-boxed reservations of service
// instances. Expired locks are never reported as active; the store discards
// them lazily.
package lock

import (
	"cmp"
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/kilianp07/orchestrator/core/logger"
	"github.com/kilianp07/orchestrator/core/model"
	"github.com/kilianp07/orchestrator/core/orcherr"
	"github.com/kilianp07/orchestrator/core/query"
)

// BaseFilter names the storage index a lock query starts from.
type BaseFilter int

const (
	BaseNone BaseFilter = iota
	BaseID
	BaseJob
	BaseService
	BaseOwner
)

// Manager implements lock creation, lookup and removal.
type Manager struct {
	store Store
	log   logger.Logger
	now   func() time.Time
}

// NewManager creates a lock manager backed by store.
func NewManager(store Store, log logger.Logger) *Manager {
	return &Manager{store: store, log: log, now: time.Now}
}

// SetClock replaces the time source used for expiry checks.
func (m *Manager) SetClock(now func() time.Time) {
	if now != nil {
		m.now = now
	}
}

var lockSorter = query.Sorter[model.OrchestrationLock]{
	Default: "id",
	Fields: map[string]query.Comparator[model.OrchestrationLock]{
		"id": func(a, b model.OrchestrationLock) int { return cmp.Compare(a.ID, b.ID) },
		"serviceInstanceId": func(a, b model.OrchestrationLock) int {
			return cmp.Compare(a.ServiceInstanceID, b.ServiceInstanceID)
		},
		"owner": func(a, b model.OrchestrationLock) int { return cmp.Compare(a.Owner, b.Owner) },
		"expiresAt": func(a, b model.OrchestrationLock) int {
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

// Create validates and inserts the requested locks.
func (m *Manager) Create(ctx context.Context, reqs []*model.LockRequest) ([]model.OrchestrationLock, error) {
	const origin = "lock.Create"
	if len(reqs) == 0 {
		return nil, orcherr.InvalidParameter(origin, "Lock list is empty")
	}
	now := m.now()
	seen := make(map[string]struct{}, len(reqs))
	locks := make([]model.OrchestrationLock, 0, len(reqs))
	for i, r := range reqs {
		if r == nil {
			return nil, orcherr.InvalidParameter(origin, "Lock list contains null element at index %d", i)
		}
		if r.ServiceInstanceID == "" || r.Owner == "" {
			return nil, orcherr.InvalidParameter(origin, "Lock at index %d is incomplete: service instance id and owner are required", i)
		}
		if _, dup := seen[r.ServiceInstanceID]; dup {
			return nil, orcherr.InvalidParameter(origin, "Service instance is listed more than once: %s", r.ServiceInstanceID)
		}
		seen[r.ServiceInstanceID] = struct{}{}
		l := model.OrchestrationLock{
			OrchestrationJobID: r.OrchestrationJobID,
			ServiceInstanceID:  r.ServiceInstanceID,
			Owner:              r.Owner,
			Temporary:          r.Temporary,
		}
		if r.ExpiresAt != "" {
			exp, err := time.Parse(time.RFC3339, r.ExpiresAt)
			if err != nil {
				return nil, orcherr.InvalidParameter(origin, "Expires at has an invalid format: %s", r.ExpiresAt)
			}
			if exp.Before(now) {
				return nil, orcherr.InvalidParameter(origin, "Expires at is in the past: %s", r.ExpiresAt)
			}
			l.ExpiresAt = model.StampNow(exp)
		}
		locks = append(locks, l)
	}
	saved, err := m.store.CreateLocks(ctx, locks, now)
	if errors.Is(err, orcherr.ErrConflict) {
		return nil, orcherr.InvalidParameter(origin, "Service instance already locked")
	}
	if err != nil {
		m.log.Errorf("create %d locks: %v", len(locks), err)
		return nil, orcherr.Internal(origin, err)
	}
	return saved, nil
}

// Base returns the base filter chosen for f: ID > JOB > SERVICE > OWNER.
func Base(f model.LockFilter) BaseFilter {
	switch {
	case len(f.IDs) > 0:
		return BaseID
	case len(f.JobIDs) > 0:
		return BaseJob
	case len(f.ServiceInstanceIDs) > 0:
		return BaseService
	case len(f.Owners) > 0:
		return BaseOwner
	default:
		return BaseNone
	}
}

// Query returns the page of locks matching f. A lock without expiry never
// matches ExpiresBefore and always matches ExpiresAfter.
func (m *Manager) Query(ctx context.Context, f model.LockFilter) (model.Page[model.OrchestrationLock], error) {
	const origin = "lock.Query"
	if err := lockSorter.Check(origin, f.PageRequest); err != nil {
		return model.Page[model.OrchestrationLock]{}, err
	}
	var (
		base []model.OrchestrationLock
		err  error
	)
	switch Base(f) {
	case BaseID:
		base, err = m.store.FindLocksByIDs(ctx, f.IDs)
	case BaseJob:
		base, err = m.store.FindLocksByJobIDs(ctx, f.JobIDs)
	case BaseService:
		base, err = m.store.FindLocksByServiceInstanceIDs(ctx, f.ServiceInstanceIDs)
	case BaseOwner:
		base, err = m.store.FindLocksByOwners(ctx, f.Owners)
	default:
		base, err = m.store.FindAllLocks(ctx)
	}
	if err != nil {
		m.log.Errorf("query locks: %v", err)
		return model.Page[model.OrchestrationLock]{}, orcherr.Internal(origin, err)
	}

	ids := query.Set(f.IDs)
	jobs := query.Set(f.JobIDs)
	instances := query.Set(f.ServiceInstanceIDs)
	owners := query.Set(f.Owners)
	matched := base[:0:0]
	for _, l := range base {
		if !query.Match(ids, l.ID) || !query.Match(instances, l.ServiceInstanceID) || !query.Match(owners, l.Owner) {
			continue
		}
		if jobs != nil && (l.OrchestrationJobID == nil || !query.Match(jobs, *l.OrchestrationJobID)) {
			continue
		}
		if f.ExpiresBefore != nil && (l.ExpiresAt == nil || !l.ExpiresAt.Before(*f.ExpiresBefore)) {
			continue
		}
		if f.ExpiresAfter != nil && l.ExpiresAt != nil && !l.ExpiresAt.After(*f.ExpiresAfter) {
			continue
		}
		matched = append(matched, l)
	}
	return lockSorter.Paginate(matched, f.PageRequest), nil
}

// FindActive returns the unexpired locks on the given instances keyed by
// service instance id.
func (m *Manager) FindActive(ctx context.Context, instanceIDs []string) (map[string]model.OrchestrationLock, error) {
	if len(instanceIDs) == 0 {
		return map[string]model.OrchestrationLock{}, nil
	}
	locks, err := m.store.FindLocksByServiceInstanceIDs(ctx, instanceIDs)
	if err != nil {
		m.log.Errorf("find locks of %d instances: %v", len(instanceIDs), err)
		return nil, orcherr.Internal("lock.FindActive", err)
	}
	now := m.now()
	active := make(map[string]model.OrchestrationLock, len(locks))
	for _, l := range locks {
		if l.Active(now) {
			active[l.ServiceInstanceID] = l
		}
	}
	return active, nil
}

// Remove deletes the given lock ids held by owner. Ids that do not exist
// or belong to someone else are skipped without error.
func (m *Manager) Remove(ctx context.Context, owner string, ids []int64) error {
	const origin = "lock.Remove"
	if owner == "" {
		return orcherr.InvalidParameter(origin, "Owner is empty")
	}
	if len(ids) == 0 {
		return nil
	}
	if err := m.store.DeleteLocks(ctx, owner, ids); err != nil {
		m.log.Errorf("remove %d locks of %s: %v", len(ids), owner, err)
		return orcherr.Internal(origin, err)
	}
	return nil
}

// RemoveOne deletes a single lock held by owner.
func (m *Manager) RemoveOne(ctx context.Context, owner string, id int64) error {
	return m.Remove(ctx, owner, []int64{id})
}

// Grant creates a non temporary lock for an orchestration result. It is
// used when a consumer asked for exclusivity.
func (m *Manager) Grant(ctx context.Context, jobID *uuid.UUID, instanceID, owner string, d time.Duration) (*model.OrchestrationLock, error) {
	exp := m.now().Add(d).UTC().Format(time.RFC3339)
	locks, err := m.Create(ctx, []*model.LockRequest{{
		OrchestrationJobID: jobID,
		ServiceInstanceID:  instanceID,
		Owner:              owner,
		ExpiresAt:          exp,
	}})
	if err != nil {
		return nil, err
	}
	return &locks[0], nil
}
