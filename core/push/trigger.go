package push

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/kilianp07/orchestrator/core/logger"
	"github.com/kilianp07/orchestrator/core/model"
	"github.com/kilianp07/orchestrator/core/orcherr"
)

// ActiveSubscriptions lists the unexpired subscriptions of a requester.
type ActiveSubscriptions interface {
	Active(ctx context.Context, requester, target, service string, ids []uuid.UUID) ([]model.Subscription, error)
}

// JobCreator persists new orchestration jobs and fails the ones that
// could not be queued.
type JobCreator interface {
	Create(ctx context.Context, jobs []*model.OrchestrationJob) ([]model.OrchestrationJob, error)
	SetStatus(ctx context.Context, id uuid.UUID, status model.JobStatus, message *string) (*model.OrchestrationJob, error)
}

// Trigger turns a push trigger request into queued PUSH jobs.
type Trigger struct {
	subs  ActiveSubscriptions
	jobs  JobCreator
	queue *Queue
	log   logger.Logger
}

// NewTrigger creates a Trigger.
func NewTrigger(subs ActiveSubscriptions, jobs JobCreator, queue *Queue, log logger.Logger) *Trigger {
	return &Trigger{subs: subs, jobs: jobs, queue: queue, log: log}
}

// Trigger creates one PUSH job per matching active subscription and
// enqueues the job ids. It returns the ids that were enqueued.
func (t *Trigger) Trigger(ctx context.Context, req model.TriggerRequest) ([]uuid.UUID, error) {
	const origin = "push.Trigger"
	if req.Requester == "" {
		return nil, orcherr.InvalidParameter(origin, "Requester system is missing")
	}
	subs, err := t.subs.Active(ctx, req.Requester, req.TargetSystem, req.ServiceDefinition, req.SubscriptionIDs)
	if err != nil {
		return nil, err
	}
	if len(subs) == 0 {
		t.log.Debugf("no active subscription for %s", req.Requester)
		return []uuid.UUID{}, nil
	}

	pending := make([]*model.OrchestrationJob, 0, len(subs))
	for _, s := range subs {
		subID := s.ID
		pending = append(pending, &model.OrchestrationJob{
			Type:              model.JobPush,
			RequesterSystem:   s.OwnerSystem,
			TargetSystem:      s.TargetSystem,
			ServiceDefinition: s.ServiceDefinition,
			SubscriptionID:    &subID,
		})
	}
	created, err := t.jobs.Create(ctx, pending)
	if err != nil {
		return nil, err
	}

	ids := make([]uuid.UUID, 0, len(created))
	for i, j := range created {
		if err := t.queue.Enqueue(ctx, j.ID); err != nil {
			t.log.Errorf("enqueue job %s: %v", j.ID, err)
			t.failUnqueued(ctx, created[i:], err)
			return ids, orcherr.Internal(origin, err)
		}
		ids = append(ids, j.ID)
	}
	t.log.Infof("queued %d push jobs for %s", len(ids), req.Requester)
	return ids, nil
}

// failUnqueued marks jobs that never reached the queue as ERROR so they do
// not stay PENDING.
func (t *Trigger) failUnqueued(ctx context.Context, jobs []model.OrchestrationJob, cause error) {
	ctx = context.WithoutCancel(ctx)
	for _, j := range jobs {
		msg := fmt.Sprintf("Orchestration job %s could not be queued: %v", j.ID, cause)
		if _, err := t.jobs.SetStatus(ctx, j.ID, model.JobError, &msg); err != nil {
			t.log.Errorf("fail job %s: %v", j.ID, err)
		}
	}
}
