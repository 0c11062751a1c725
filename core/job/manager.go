// Package job implements the orchestration job state machine:
// PENDING -> IN_PROGRESS -> DONE | ERROR.
package job

import (
	"cmp"
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kilianp07/orchestrator/core/logger"
	"github.com/kilianp07/orchestrator/core/model"
	"github.com/kilianp07/orchestrator/core/orcherr"
	"github.com/kilianp07/orchestrator/core/query"
)

// BaseFilter names the storage index a job query starts from.
type BaseFilter int

const (
	BaseNone BaseFilter = iota
	BaseID
	BaseStatus
	BaseOwner
	BaseTarget
	BaseService
)

// Manager implements creation, status transitions, queries and cleanup of
// orchestration jobs.
type Manager struct {
	store Store
	log   logger.Logger
	now   func() time.Time
}

// NewManager creates a job manager on top of store.
func NewManager(store Store, log logger.Logger) *Manager {
	return &Manager{store: store, log: log, now: time.Now}
}

// SetClock replaces the time source used for timestamps.
func (m *Manager) SetClock(now func() time.Time) {
	if now != nil {
		m.now = now
	}
}

var jobSorter = query.Sorter[model.OrchestrationJob]{
	Default: "createdAt",
	Fields: map[string]query.Comparator[model.OrchestrationJob]{
		"id": func(a, b model.OrchestrationJob) int { return strings.Compare(a.ID.String(), b.ID.String()) },
		"status": func(a, b model.OrchestrationJob) int {
			return cmp.Compare(a.Status, b.Status)
		},
		"type": func(a, b model.OrchestrationJob) int { return cmp.Compare(a.Type, b.Type) },
		"requesterSystem": func(a, b model.OrchestrationJob) int {
			return cmp.Compare(a.RequesterSystem, b.RequesterSystem)
		},
		"targetSystem": func(a, b model.OrchestrationJob) int {
			return cmp.Compare(a.TargetSystem, b.TargetSystem)
		},
		"serviceDefinition": func(a, b model.OrchestrationJob) int {
			return cmp.Compare(a.ServiceDefinition, b.ServiceDefinition)
		},
		"createdAt":  func(a, b model.OrchestrationJob) int { return a.CreatedAt.Compare(b.CreatedAt) },
		"startedAt":  func(a, b model.OrchestrationJob) int { return compareTime(a.StartedAt, b.StartedAt) },
		"finishedAt": func(a, b model.OrchestrationJob) int { return compareTime(a.FinishedAt, b.FinishedAt) },
	},
}

func compareTime(a, b *time.Time) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}
	return a.Compare(*b)
}

// Create inserts the jobs in PENDING state and returns the persisted rows.
func (m *Manager) Create(ctx context.Context, jobs []*model.OrchestrationJob) ([]model.OrchestrationJob, error) {
	const origin = "job.Create"
	if len(jobs) == 0 {
		return nil, orcherr.InvalidParameter(origin, "Job list is empty")
	}
	now := m.now()
	rows := make([]model.OrchestrationJob, 0, len(jobs))
	for i, j := range jobs {
		if j == nil {
			return nil, orcherr.InvalidParameter(origin, "Job list contains null element at index %d", i)
		}
		if j.Type == "" {
			return nil, orcherr.InvalidParameter(origin, "Job type is missing at index %d", i)
		}
		row := *j
		row.Status = model.JobPending
		row.CreatedAt = model.StampCreated(&row.ID, now)
		row.StartedAt, row.FinishedAt = nil, nil
		rows = append(rows, row)
	}
	saved, err := m.store.CreateJobs(ctx, rows)
	if err != nil {
		m.log.Errorf("create %d jobs: %v", len(rows), err)
		return nil, orcherr.Internal(origin, err)
	}
	return saved, nil
}

// Get returns the job or nil when it does not exist.
func (m *Manager) Get(ctx context.Context, id uuid.UUID) (*model.OrchestrationJob, error) {
	j, err := m.store.GetJob(ctx, id)
	if err != nil {
		m.log.Errorf("get job %s: %v", id, err)
		return nil, orcherr.Internal("job.Get", err)
	}
	return j, nil
}

// SetStatus moves the job to status. PENDING can never be targeted.
// A non-nil message replaces the stored one.
func (m *Manager) SetStatus(ctx context.Context, id uuid.UUID, status model.JobStatus, message *string) (*model.OrchestrationJob, error) {
	const origin = "job.SetStatus"
	switch status {
	case model.JobPending:
		return nil, orcherr.InvalidParameter(origin, "Status PENDING can not be set explicitly")
	case model.JobInProgress, model.JobDone, model.JobError:
	default:
		return nil, orcherr.InvalidParameter(origin, "Unknown job status: %s", status)
	}
	now := m.now()
	updated, err := m.store.UpdateJob(ctx, id, func(j *model.OrchestrationJob) error {
		Transition(j, status, message, now)
		return nil
	})
	if errors.Is(err, orcherr.ErrNotFound) {
		return nil, orcherr.InvalidParameter(origin, "Orchestration job does not exist: %s", id)
	}
	if err != nil {
		m.log.Errorf("set status of job %s to %s: %v", id, status, err)
		return nil, orcherr.Internal(origin, err)
	}
	return updated, nil
}

// Transition applies the timestamp rules of a status change to j.
func Transition(j *model.OrchestrationJob, status model.JobStatus, message *string, now time.Time) {
	j.Status = status
	switch status {
	case model.JobInProgress:
		j.StartedAt = model.StampNow(now)
		j.FinishedAt = nil
	case model.JobDone, model.JobError:
		j.FinishedAt = model.StampNow(now)
	}
	if message != nil {
		msg := *message
		j.Message = &msg
	}
}

// Base returns the base filter chosen for f: ID > STATUS > OWNER > TARGET > SERVICE.
func Base(f model.JobFilter) BaseFilter {
	switch {
	case len(f.IDs) > 0:
		return BaseID
	case len(f.Statuses) > 0:
		return BaseStatus
	case len(f.Requesters) > 0:
		return BaseOwner
	case len(f.Targets) > 0:
		return BaseTarget
	case len(f.Services) > 0:
		return BaseService
	default:
		return BaseNone
	}
}

// Query returns the page of jobs matching f.
func (m *Manager) Query(ctx context.Context, f model.JobFilter) (model.Page[model.OrchestrationJob], error) {
	const origin = "job.Query"
	if err := jobSorter.Check(origin, f.PageRequest); err != nil {
		return model.Page[model.OrchestrationJob]{}, err
	}
	var (
		base []model.OrchestrationJob
		err  error
	)
	switch Base(f) {
	case BaseID:
		base, err = m.store.FindJobsByIDs(ctx, f.IDs)
	case BaseStatus:
		base, err = m.store.FindJobsByStatuses(ctx, f.Statuses)
	case BaseOwner:
		base, err = m.store.FindJobsByRequesters(ctx, f.Requesters)
	case BaseTarget:
		base, err = m.store.FindJobsByTargets(ctx, f.Targets)
	case BaseService:
		base, err = m.store.FindJobsByServices(ctx, f.Services)
	default:
		base, err = m.store.FindAllJobs(ctx)
	}
	if err != nil {
		m.log.Errorf("query jobs: %v", err)
		return model.Page[model.OrchestrationJob]{}, orcherr.Internal(origin, err)
	}

	ids := query.Set(f.IDs)
	statuses := query.Set(f.Statuses)
	requesters := query.Set(f.Requesters)
	targets := query.Set(f.Targets)
	services := query.Set(f.Services)
	subs := query.Set(f.SubscriptionIDs)
	matched := base[:0:0]
	for _, j := range base {
		if !query.Match(ids, j.ID) || !query.Match(statuses, j.Status) ||
			!query.Match(requesters, j.RequesterSystem) || !query.Match(targets, j.TargetSystem) ||
			!query.Match(services, j.ServiceDefinition) {
			continue
		}
		if subs != nil && (j.SubscriptionID == nil || !query.Match(subs, *j.SubscriptionID)) {
			continue
		}
		matched = append(matched, j)
	}
	return jobSorter.Paginate(matched, f.PageRequest), nil
}

// DeleteInBatch removes the given jobs.
func (m *Manager) DeleteInBatch(ctx context.Context, ids []uuid.UUID) error {
	const origin = "job.DeleteInBatch"
	if len(ids) == 0 {
		return orcherr.InvalidParameter(origin, "Job id list is empty")
	}
	for i, id := range ids {
		if id == uuid.Nil {
			return orcherr.InvalidParameter(origin, "Job id list contains null element at index %d", i)
		}
	}
	if err := m.store.DeleteJobs(ctx, ids); err != nil {
		m.log.Errorf("delete %d jobs: %v", len(ids), err)
		return orcherr.Internal(origin, err)
	}
	return nil
}

// Purge deletes jobs in one of statuses that finished before cutoff and
// returns how many were removed. Without statuses DONE and ERROR are used.
func (m *Manager) Purge(ctx context.Context, statuses []model.JobStatus, cutoff time.Time) (int, error) {
	const origin = "job.Purge"
	if len(statuses) == 0 {
		statuses = []model.JobStatus{model.JobDone, model.JobError}
	}
	jobs, err := m.store.FindJobsByStatuses(ctx, statuses)
	if err != nil {
		return 0, orcherr.Internal(origin, err)
	}
	var ids []uuid.UUID
	for _, j := range jobs {
		ref := j.FinishedAt
		if ref == nil {
			ref = &j.CreatedAt
		}
		if ref.Before(cutoff) {
			ids = append(ids, j.ID)
		}
	}
	if len(ids) == 0 {
		return 0, nil
	}
	if err := m.DeleteInBatch(ctx, ids); err != nil {
		return 0, err
	}
	m.log.Infof("purged %d jobs finished before %s", len(ids), cutoff.Format(time.RFC3339))
	return len(ids), nil
}
