package push

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"

	"github.com/kilianp07/orchestrator/core/events"
	"github.com/kilianp07/orchestrator/core/logger"
	"github.com/kilianp07/orchestrator/core/model"
	"github.com/kilianp07/orchestrator/core/monitoring"
	"github.com/kilianp07/orchestrator/internal/eventbus"
)

// DefaultPoolSize bounds the number of jobs processed concurrently.
const DefaultPoolSize = 4

// JobStore is the part of the job manager used by the worker.
type JobStore interface {
	Get(ctx context.Context, id uuid.UUID) (*model.OrchestrationJob, error)
	SetStatus(ctx context.Context, id uuid.UUID, status model.JobStatus, message *string) (*model.OrchestrationJob, error)
}

// SubscriptionSource resolves the subscription a push job belongs to.
type SubscriptionSource interface {
	Get(ctx context.Context, id uuid.UUID) (*model.Subscription, error)
}

// Executor runs candidate selection for a replayed form.
type Executor interface {
	Execute(ctx context.Context, form model.OrchestrationForm, jobID *uuid.UUID) (model.OrchestrationResponse, error)
}

// Notifier delivers a result to a subscriber.
type Notifier interface {
	Notify(ctx context.Context, sub model.Subscription, resp model.OrchestrationResponse) error
}

// WorkerDeps groups the collaborators of a Worker.
type WorkerDeps struct {
	Queue         *Queue
	Jobs          JobStore
	Subscriptions SubscriptionSource
	Executor      Executor
	Notifier      Notifier
	// Bus receives a JobEvent per finished job and a DeliveryEvent per
	// notification attempt. Optional.
	Bus      eventbus.EventBus
	PoolSize int
	Log      logger.Logger
}

// Worker consumes the dispatch queue and processes push jobs on a bounded pool.
type Worker struct {
	queue    *Queue
	jobs     JobStore
	subs     SubscriptionSource
	exec     Executor
	notifier Notifier
	bus      eventbus.EventBus
	pool     *ants.Pool
	log      logger.Logger
	inflight sync.WaitGroup
	now      func() time.Time
}

// NewWorker validates deps and allocates the worker pool.
func NewWorker(d WorkerDeps) (*Worker, error) {
	if d.Queue == nil || d.Jobs == nil || d.Subscriptions == nil || d.Executor == nil || d.Notifier == nil {
		return nil, errors.New("push worker: queue, jobs, subscriptions, executor and notifier are required")
	}
	size := d.PoolSize
	if size <= 0 {
		size = DefaultPoolSize
	}
	pool, err := ants.NewPool(size, ants.WithNonblocking(false))
	if err != nil {
		return nil, fmt.Errorf("push worker pool: %w", err)
	}
	return &Worker{
		queue:    d.Queue,
		jobs:     d.Jobs,
		subs:     d.Subscriptions,
		exec:     d.Executor,
		notifier: d.Notifier,
		bus:      d.Bus,
		pool:     pool,
		log:      d.Log,
		now:      time.Now,
	}, nil
}

// Run reads job ids until ctx is canceled or the queue is closed. Jobs
// already submitted keep running on a context detached from ctx; Run waits
// for them before releasing the pool.
func (w *Worker) Run(ctx context.Context) error {
	defer w.pool.Release()
	jobCtx := context.WithoutCancel(ctx)
	w.log.Infof("push worker started with %d slots", w.pool.Cap())
	for {
		id, err := w.queue.Take(ctx)
		if err != nil {
			w.inflight.Wait()
			if errors.Is(err, ErrQueueClosed) || ctx.Err() != nil {
				w.log.Infof("push worker stopped")
				return nil
			}
			return err
		}
		w.inflight.Add(1)
		if err := w.pool.Submit(func() {
			defer w.inflight.Done()
			w.Process(jobCtx, id)
		}); err != nil {
			w.inflight.Done()
			w.log.Errorf("submit job %s: %v", id, err)
			msg := err.Error()
			if _, serr := w.jobs.SetStatus(jobCtx, id, model.JobError, &msg); serr != nil {
				w.log.Errorf("mark job %s as failed: %v", id, serr)
			}
		}
	}
}

// Process runs one push job. Failures end the job in ERROR and never escape.
func (w *Worker) Process(ctx context.Context, id uuid.UUID) {
	start := w.now()
	job, err := w.jobs.Get(ctx, id)
	if err != nil {
		w.log.Errorf("load job %s: %v", id, err)
		return
	}
	if job == nil {
		w.log.Warnf("orchestration job %s does not exist, dropping", id)
		return
	}

	runErr := w.guard(id, func() error { return w.run(ctx, job) })

	status := model.JobDone
	var msg *string
	if runErr != nil {
		status = model.JobError
		m := runErr.Error()
		msg = &m
		w.log.Warnf("push job %s failed: %v", id, runErr)
	}
	final, err := w.jobs.SetStatus(ctx, id, status, msg)
	if err != nil {
		w.log.Errorf("set job %s to %s: %v", id, status, err)
		return
	}
	elapsed := w.now().Sub(start)
	pushJobs.WithLabelValues(string(status)).Inc()
	pushJobDuration.Observe(elapsed.Seconds())
	w.publish(events.JobEvent{Job: *final, Duration: elapsed, Err: runErr})
}

// guard converts a panic inside fn into an error.
func (w *Worker) guard(id uuid.UUID, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			monitoring.CapturePanic(r, map[string]string{"module": "push", "job_id": id.String()})
			err = fmt.Errorf("Orchestration job %s panicked: %v", id, r)
		}
	}()
	return fn()
}

func (w *Worker) run(ctx context.Context, job *model.OrchestrationJob) error {
	if _, err := w.jobs.SetStatus(ctx, job.ID, model.JobInProgress, nil); err != nil {
		return err
	}
	if job.SubscriptionID == nil {
		return fmt.Errorf("Orchestration job %s has no subscription id", job.ID)
	}
	sub, err := w.subs.Get(ctx, *job.SubscriptionID)
	if err != nil {
		return err
	}
	if sub == nil {
		return fmt.Errorf("Orchestration job %s has no subscription with %s", job.ID, *job.SubscriptionID)
	}

	var form model.OrchestrationForm
	if err := json.Unmarshal(sub.OrchestrationRequest, &form); err != nil {
		return fmt.Errorf("decode orchestration request of subscription %s: %w", sub.ID, err)
	}
	form.RequesterSystem = job.RequesterSystem
	form.TargetSystem = job.TargetSystem

	resp, err := w.exec.Execute(ctx, form, &job.ID)
	if err != nil {
		return err
	}

	sent := w.now()
	err = w.notifier.Notify(ctx, *sub, resp)
	w.publish(events.DeliveryEvent{
		JobID:          job.ID,
		SubscriptionID: sub.ID,
		Protocol:       sub.NotifyProtocol,
		Latency:        w.now().Sub(sent),
		Err:            err,
	})
	if err != nil {
		monitoring.CaptureException(err, map[string]string{"module": "push", "subscription_id": sub.ID.String()})
		return err
	}
	w.log.Debugw("push result delivered", map[string]any{"job_id": job.ID.String(), "subscription_id": sub.ID.String()})
	return nil
}

func (w *Worker) publish(ev eventbus.Event) {
	if w.bus != nil {
		w.bus.Publish(ev)
	}
}
