package metrics

import (
	"context"
	"time"

	"github.com/kilianp07/orchestrator/core/events"
	coremetrics "github.com/kilianp07/orchestrator/core/metrics"
	"github.com/kilianp07/orchestrator/infra/logger"
	"github.com/kilianp07/orchestrator/internal/eventbus"
)

// StartEventCollector subscribes to the event bus and records metrics for events.
// It stops when the context is canceled or the bus is closed; the returned
// channel is closed at that point.
func StartEventCollector(ctx context.Context, bus eventbus.EventBus, sink coremetrics.MetricsSink) <-chan struct{} {
	done := make(chan struct{})
	if bus == nil || sink == nil {
		close(done)
		return done
	}
	log := logger.New("metrics-collector")
	sub := bus.Subscribe()
	go func() {
		defer close(done)
		defer bus.Unsubscribe(sub)
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-sub:
				if !ok {
					return
				}
				if err := record(sink, ev); err != nil {
					log.Warnf("record %T: %v", ev, err)
				}
			}
		}
	}()
	return done
}

func record(sink coremetrics.MetricsSink, ev eventbus.Event) error {
	switch e := ev.(type) {
	case events.JobEvent:
		out := coremetrics.JobOutcome{
			JobID:     e.Job.ID,
			Type:      e.Job.Type,
			Status:    e.Job.Status,
			Requester: e.Job.RequesterSystem,
			Service:   e.Job.ServiceDefinition,
			Duration:  e.Duration,
			Time:      time.Now(),
		}
		if e.Job.FinishedAt != nil {
			out.Time = *e.Job.FinishedAt
		}
		if e.Err != nil {
			out.Error = e.Err.Error()
		}
		return sink.RecordJobOutcome(out)
	case events.DeliveryEvent:
		r, ok := sink.(coremetrics.DeliveryRecorder)
		if !ok {
			return nil
		}
		out := coremetrics.DeliveryOutcome{
			JobID:          e.JobID,
			SubscriptionID: e.SubscriptionID,
			Protocol:       e.Protocol,
			Delivered:      e.Err == nil,
			Latency:        e.Latency,
			Time:           time.Now(),
		}
		if e.Err != nil {
			out.Error = e.Err.Error()
		}
		return r.RecordDelivery(out)
	}
	return nil
}
