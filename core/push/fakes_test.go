package push

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/orchestrator/core/job"
	"github.com/kilianp07/orchestrator/core/model"
	"github.com/kilianp07/orchestrator/core/orcherr"
)

type fakeJobs struct {
	mu      sync.Mutex
	jobs    map[uuid.UUID]model.OrchestrationJob
	history map[uuid.UUID][]model.JobStatus
}

func newFakeJobs() *fakeJobs {
	return &fakeJobs{jobs: map[uuid.UUID]model.OrchestrationJob{}, history: map[uuid.UUID][]model.JobStatus{}}
}

func (f *fakeJobs) Create(_ context.Context, jobs []*model.OrchestrationJob) ([]model.OrchestrationJob, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]model.OrchestrationJob, 0, len(jobs))
	for _, j := range jobs {
		cp := *j
		cp.ID = uuid.New()
		cp.Status = model.JobPending
		cp.CreatedAt = time.Now()
		f.jobs[cp.ID] = cp
		out = append(out, cp)
	}
	return out, nil
}

func (f *fakeJobs) Get(_ context.Context, id uuid.UUID) (*model.OrchestrationJob, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	j, ok := f.jobs[id]
	if !ok {
		return nil, nil
	}
	return &j, nil
}

func (f *fakeJobs) SetStatus(_ context.Context, id uuid.UUID, status model.JobStatus, message *string) (*model.OrchestrationJob, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	j, ok := f.jobs[id]
	if !ok {
		return nil, orcherr.InvalidParameter("job.SetStatus", "Orchestration job does not exist: %s", id)
	}
	job.Transition(&j, status, message, time.Now())
	f.jobs[id] = j
	f.history[id] = append(f.history[id], status)
	return &j, nil
}

func (f *fakeJobs) put(j model.OrchestrationJob) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.jobs[j.ID] = j
}

func (f *fakeJobs) get(id uuid.UUID) model.OrchestrationJob {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.jobs[id]
}

func (f *fakeJobs) all() []model.OrchestrationJob {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]model.OrchestrationJob, 0, len(f.jobs))
	for _, j := range f.jobs {
		out = append(out, j)
	}
	return out
}

func (f *fakeJobs) writes() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, h := range f.history {
		n += len(h)
	}
	return n
}

type fakeSubs struct {
	subs []model.Subscription
}

func (f *fakeSubs) Get(_ context.Context, id uuid.UUID) (*model.Subscription, error) {
	for _, s := range f.subs {
		if s.ID == id {
			cp := s
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeSubs) Active(_ context.Context, requester, target, service string, ids []uuid.UUID) ([]model.Subscription, error) {
	var out []model.Subscription
	for _, s := range f.subs {
		if s.OwnerSystem != requester || !s.Active(time.Now()) {
			continue
		}
		if target != "" && s.TargetSystem != target {
			continue
		}
		if service != "" && s.ServiceDefinition != service {
			continue
		}
		if len(ids) > 0 && !containsID(ids, s.ID) {
			continue
		}
		out = append(out, s)
	}
	return out, nil
}

func containsID(ids []uuid.UUID, id uuid.UUID) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

type fakeExecutor struct {
	mu    sync.Mutex
	forms []model.OrchestrationForm
	resp  model.OrchestrationResponse
	err   error
	panic any
}

func (f *fakeExecutor) Execute(_ context.Context, form model.OrchestrationForm, _ *uuid.UUID) (model.OrchestrationResponse, error) {
	if f.panic != nil {
		panic(f.panic)
	}
	f.mu.Lock()
	f.forms = append(f.forms, form)
	f.mu.Unlock()
	return f.resp, f.err
}

type fakeNotifier struct {
	mu   sync.Mutex
	subs []uuid.UUID
	err  error
}

func (f *fakeNotifier) Notify(_ context.Context, sub model.Subscription, _ model.OrchestrationResponse) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.subs = append(f.subs, sub.ID)
	return f.err
}

func (f *fakeNotifier) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subs)
}

func storedSubscription(t *testing.T, owner string, props map[string]string) model.Subscription {
	t.Helper()
	form, err := json.Marshal(model.OrchestrationForm{
		RequesterSystem: "someone-else",
		Service:         model.ServiceRequirement{ServiceDefinition: "temperature"},
	})
	require.NoError(t, err)
	raw, err := json.Marshal(props)
	require.NoError(t, err)
	return model.Subscription{
		ID:                   uuid.New(),
		OwnerSystem:          owner,
		TargetSystem:         owner,
		ServiceDefinition:    "temperature",
		NotifyProtocol:       model.NotifyHTTP,
		NotifyProperties:     raw,
		OrchestrationRequest: form,
		CreatedAt:            time.Now(),
	}
}

func pushJob(sub *model.Subscription, requester string) model.OrchestrationJob {
	j := model.OrchestrationJob{
		ID:                uuid.New(),
		Status:            model.JobPending,
		Type:              model.JobPush,
		RequesterSystem:   requester,
		TargetSystem:      requester,
		ServiceDefinition: "temperature",
		CreatedAt:         time.Now(),
	}
	if sub != nil {
		id := sub.ID
		j.SubscriptionID = &id
	}
	return j
}
