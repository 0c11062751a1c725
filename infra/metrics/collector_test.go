package metrics

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/kilianp07/orchestrator/core/events"
	coremetrics "github.com/kilianp07/orchestrator/core/metrics"
	"github.com/kilianp07/orchestrator/core/model"
	"github.com/kilianp07/orchestrator/internal/eventbus"
)

type memorySink struct {
	mu         sync.Mutex
	jobs       []coremetrics.JobOutcome
	deliveries []coremetrics.DeliveryOutcome
}

func (m *memorySink) RecordJobOutcome(ev coremetrics.JobOutcome) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.jobs = append(m.jobs, ev)
	return nil
}

func (m *memorySink) RecordDelivery(ev coremetrics.DeliveryOutcome) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deliveries = append(m.deliveries, ev)
	return nil
}

func TestEventCollector(t *testing.T) {
	bus := eventbus.New()
	sink := &memorySink{}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := StartEventCollector(ctx, bus, sink)

	finished := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	job := model.OrchestrationJob{ID: uuid.New(), Type: model.JobPush, Status: model.JobError, FinishedAt: &finished}
	bus.Publish(events.JobEvent{Job: job, Duration: time.Second, Err: errors.New("unreachable")})
	bus.Publish(events.DeliveryEvent{JobID: job.ID, Protocol: model.NotifyHTTP, Err: errors.New("unreachable")})
	bus.Close()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("collector did not stop after bus close")
	}
	sink.mu.Lock()
	defer sink.mu.Unlock()
	if len(sink.jobs) != 1 || sink.jobs[0].Error != "unreachable" || !sink.jobs[0].Time.Equal(finished) {
		t.Fatalf("unexpected job outcomes %+v", sink.jobs)
	}
	if len(sink.deliveries) != 1 || sink.deliveries[0].Delivered {
		t.Fatalf("unexpected deliveries %+v", sink.deliveries)
	}
}
