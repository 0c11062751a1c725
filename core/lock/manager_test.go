package lock

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/orchestrator/core/model"
	"github.com/kilianp07/orchestrator/core/orcherr"
	"github.com/kilianp07/orchestrator/infra/logger"
)

type memStore struct {
	mu    sync.Mutex
	next  int64
	locks map[int64]model.OrchestrationLock
}

func newMemStore() *memStore { return &memStore{locks: map[int64]model.OrchestrationLock{}} }

func (s *memStore) CreateLocks(_ context.Context, locks []model.OrchestrationLock, now time.Time) ([]model.OrchestrationLock, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, l := range locks {
		for id, held := range s.locks {
			if held.ServiceInstanceID != l.ServiceInstanceID {
				continue
			}
			if held.Active(now) {
				return nil, orcherr.ErrConflict
			}
			delete(s.locks, id)
		}
	}
	out := make([]model.OrchestrationLock, 0, len(locks))
	for _, l := range locks {
		s.next++
		l.ID = s.next
		s.locks[l.ID] = l
		out = append(out, l)
	}
	return out, nil
}

func (s *memStore) filter(keep func(model.OrchestrationLock) bool) []model.OrchestrationLock {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.OrchestrationLock
	for _, l := range s.locks {
		if keep(l) {
			out = append(out, l)
		}
	}
	return out
}

func (s *memStore) FindLocksByIDs(_ context.Context, ids []int64) ([]model.OrchestrationLock, error) {
	set := map[int64]bool{}
	for _, id := range ids {
		set[id] = true
	}
	return s.filter(func(l model.OrchestrationLock) bool { return set[l.ID] }), nil
}

func (s *memStore) FindLocksByJobIDs(_ context.Context, ids []uuid.UUID) ([]model.OrchestrationLock, error) {
	set := map[uuid.UUID]bool{}
	for _, id := range ids {
		set[id] = true
	}
	return s.filter(func(l model.OrchestrationLock) bool {
		return l.OrchestrationJobID != nil && set[*l.OrchestrationJobID]
	}), nil
}

func (s *memStore) FindLocksByServiceInstanceIDs(_ context.Context, ids []string) ([]model.OrchestrationLock, error) {
	set := map[string]bool{}
	for _, id := range ids {
		set[id] = true
	}
	return s.filter(func(l model.OrchestrationLock) bool { return set[l.ServiceInstanceID] }), nil
}

func (s *memStore) FindLocksByOwners(_ context.Context, owners []string) ([]model.OrchestrationLock, error) {
	set := map[string]bool{}
	for _, o := range owners {
		set[o] = true
	}
	return s.filter(func(l model.OrchestrationLock) bool { return set[l.Owner] }), nil
}

func (s *memStore) FindAllLocks(context.Context) ([]model.OrchestrationLock, error) {
	return s.filter(func(model.OrchestrationLock) bool { return true }), nil
}

func (s *memStore) DeleteLocks(_ context.Context, owner string, ids []int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		if l, ok := s.locks[id]; ok && l.Owner == owner {
			delete(s.locks, id)
		}
	}
	return nil
}

type mockStore struct {
	mock.Mock
	*memStore
}

func (m *mockStore) FindLocksByJobIDs(ctx context.Context, ids []uuid.UUID) ([]model.OrchestrationLock, error) {
	m.Called(ids)
	return m.memStore.FindLocksByJobIDs(ctx, ids)
}

func (m *mockStore) FindLocksByOwners(ctx context.Context, owners []string) ([]model.OrchestrationLock, error) {
	m.Called(owners)
	return m.memStore.FindLocksByOwners(ctx, owners)
}

var t0 = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func newManager(s Store) *Manager {
	m := NewManager(s, logger.NopLogger{})
	m.SetClock(func() time.Time { return t0 })
	return m
}

func TestCreateRejectsPastExpiry(t *testing.T) {
	store := newMemStore()
	m := newManager(store)
	_, err := m.Create(context.Background(), []*model.LockRequest{{
		ServiceInstanceID: "svc-1",
		Owner:             "A",
		ExpiresAt:         "2020-01-01T00:00:00Z",
	}})
	require.Error(t, err)
	assert.True(t, orcherr.IsInvalidParameter(err))
	assert.Contains(t, err.Error(), "Expires at is in the past: 2020-01-01T00:00:00Z")
	all, _ := store.FindAllLocks(context.Background())
	assert.Empty(t, all)
}

func TestCreateValidation(t *testing.T) {
	m := newManager(newMemStore())
	ctx := context.Background()
	cases := map[string][]*model.LockRequest{
		"empty":      nil,
		"nil":        {nil},
		"no owner":   {{ServiceInstanceID: "svc-1"}},
		"bad format": {{ServiceInstanceID: "svc-1", Owner: "A", ExpiresAt: "tomorrow"}},
		"duplicate":  {{ServiceInstanceID: "svc-1", Owner: "A"}, {ServiceInstanceID: "svc-1", Owner: "B"}},
	}
	for name, reqs := range cases {
		_, err := m.Create(ctx, reqs)
		if !orcherr.IsInvalidParameter(err) {
			t.Fatalf("%s: expected invalid parameter, got %v", name, err)
		}
	}
}

func TestCreateConflictAndExpiredReplacement(t *testing.T) {
	store := newMemStore()
	m := newManager(store)
	ctx := context.Background()
	exp := t0.Add(time.Minute).Format(time.RFC3339)

	saved, err := m.Create(ctx, []*model.LockRequest{{ServiceInstanceID: "svc-1", Owner: "A", ExpiresAt: exp}})
	require.NoError(t, err)
	require.Len(t, saved, 1)
	assert.NotZero(t, saved[0].ID)

	_, err = m.Create(ctx, []*model.LockRequest{{ServiceInstanceID: "svc-1", Owner: "B", ExpiresAt: exp}})
	require.Error(t, err)
	assert.True(t, orcherr.IsInvalidParameter(err))
	assert.Contains(t, err.Error(), "Service instance already locked")

	// once the first lock lapses the instance can be locked again
	m.SetClock(func() time.Time { return t0.Add(2 * time.Minute) })
	later := t0.Add(10 * time.Minute).Format(time.RFC3339)
	saved, err = m.Create(ctx, []*model.LockRequest{{ServiceInstanceID: "svc-1", Owner: "B", ExpiresAt: later}})
	require.NoError(t, err)
	assert.Equal(t, "B", saved[0].Owner)
}

func TestFindActiveSkipsExpired(t *testing.T) {
	store := newMemStore()
	past := t0.Add(-time.Minute)
	future := t0.Add(time.Minute)
	store.locks[1] = model.OrchestrationLock{ID: 1, ServiceInstanceID: "old", Owner: "A", ExpiresAt: &past}
	store.locks[2] = model.OrchestrationLock{ID: 2, ServiceInstanceID: "new", Owner: "A", ExpiresAt: &future}
	store.locks[3] = model.OrchestrationLock{ID: 3, ServiceInstanceID: "forever", Owner: "A"}
	m := newManager(store)

	active, err := m.FindActive(context.Background(), []string{"old", "new", "forever", "none"})
	require.NoError(t, err)
	assert.Len(t, active, 2)
	assert.Contains(t, active, "new")
	assert.Contains(t, active, "forever")
}

func TestRemoveScopesByOwner(t *testing.T) {
	store := newMemStore()
	store.locks[1] = model.OrchestrationLock{ID: 1, ServiceInstanceID: "a", Owner: "A"}
	store.locks[2] = model.OrchestrationLock{ID: 2, ServiceInstanceID: "b", Owner: "B"}
	m := newManager(store)
	ctx := context.Background()

	require.NoError(t, m.Remove(ctx, "A", []int64{1, 2, 99}))
	all, _ := store.FindAllLocks(ctx)
	require.Len(t, all, 1)
	assert.Equal(t, int64(2), all[0].ID)

	require.NoError(t, m.RemoveOne(ctx, "B", 2))
	all, _ = store.FindAllLocks(ctx)
	assert.Empty(t, all)

	assert.True(t, orcherr.IsInvalidParameter(m.Remove(ctx, "", []int64{1})))
}

func TestQueryBaseFilterAndExpiryWindow(t *testing.T) {
	mem := newMemStore()
	job := uuid.New()
	soon := t0.Add(time.Minute)
	late := t0.Add(time.Hour)
	mem.locks[1] = model.OrchestrationLock{ID: 1, ServiceInstanceID: "a", Owner: "A", OrchestrationJobID: &job, ExpiresAt: &soon}
	mem.locks[2] = model.OrchestrationLock{ID: 2, ServiceInstanceID: "b", Owner: "A", OrchestrationJobID: &job, ExpiresAt: &late}
	mem.locks[3] = model.OrchestrationLock{ID: 3, ServiceInstanceID: "c", Owner: "A"}
	store := &mockStore{memStore: mem}
	store.On("FindLocksByJobIDs", mock.Anything).Return()
	m := newManager(store)

	cutoff := t0.Add(30 * time.Minute)
	page, err := m.Query(context.Background(), model.LockFilter{
		JobIDs:        []uuid.UUID{job},
		Owners:        []string{"A"},
		ExpiresBefore: &cutoff,
	})
	require.NoError(t, err)
	store.AssertCalled(t, "FindLocksByJobIDs", []uuid.UUID{job})
	store.AssertNotCalled(t, "FindLocksByOwners", mock.Anything)
	require.Len(t, page.Items, 1)
	assert.Equal(t, int64(1), page.Items[0].ID)

	page, err = m.Query(context.Background(), model.LockFilter{ExpiresAfter: &cutoff})
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.Equal(t, int64(2), page.Items[0].ID)
	assert.Equal(t, int64(3), page.Items[1].ID)
}

func TestQueryRejectsUnknownSortField(t *testing.T) {
	m := newManager(newMemStore())
	_, err := m.Query(context.Background(), model.LockFilter{PageRequest: model.PageRequest{SortField: "temporary"}})
	require.Error(t, err)
	assert.True(t, orcherr.IsInvalidParameter(err))
}

func TestBasePriority(t *testing.T) {
	assert.Equal(t, BaseID, Base(model.LockFilter{IDs: []int64{1}, Owners: []string{"A"}}))
	assert.Equal(t, BaseJob, Base(model.LockFilter{JobIDs: []uuid.UUID{uuid.New()}, ServiceInstanceIDs: []string{"a"}}))
	assert.Equal(t, BaseService, Base(model.LockFilter{ServiceInstanceIDs: []string{"a"}, Owners: []string{"A"}}))
	assert.Equal(t, BaseOwner, Base(model.LockFilter{Owners: []string{"A"}}))
	assert.Equal(t, BaseNone, Base(model.LockFilter{}))
}

func TestGrantSetsExpiry(t *testing.T) {
	m := newManager(newMemStore())
	job := uuid.New()
	l, err := m.Grant(context.Background(), &job, "svc-1", "consumer", 30*time.Second)
	require.NoError(t, err)
	require.NotNil(t, l.ExpiresAt)
	assert.True(t, l.ExpiresAt.Equal(t0.Add(30*time.Second)))
	assert.Equal(t, &job, l.OrchestrationJobID)
	assert.False(t, l.Temporary)
}
