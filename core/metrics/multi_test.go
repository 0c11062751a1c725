package metrics

import (
	"errors"
	"testing"
)

type recordSink struct {
	jobs       int
	deliveries int
	err        error
}

func (r *recordSink) RecordJobOutcome(JobOutcome) error {
	r.jobs++
	return r.err
}

func (r *recordSink) RecordDelivery(DeliveryOutcome) error {
	r.deliveries++
	return nil
}

type jobsOnly struct{ jobs int }

func (j *jobsOnly) RecordJobOutcome(JobOutcome) error {
	j.jobs++
	return nil
}

// TestMultiSink ensures events are forwarded to all sinks.
func TestMultiSink(t *testing.T) {
	s1 := &recordSink{}
	s2 := &jobsOnly{}
	m := NewMultiSink(s1, s2)
	if err := m.RecordJobOutcome(JobOutcome{}); err != nil {
		t.Fatalf("record job: %v", err)
	}
	if err := m.RecordDelivery(DeliveryOutcome{}); err != nil {
		t.Fatalf("record delivery: %v", err)
	}
	if s1.jobs != 1 || s2.jobs != 1 || s1.deliveries != 1 {
		t.Fatalf("records not forwarded")
	}
}

func TestMultiSinkContinuesAfterError(t *testing.T) {
	boom := errors.New("boom")
	s1 := &recordSink{err: boom}
	s2 := &jobsOnly{}
	err := NewMultiSink(s1, s2).RecordJobOutcome(JobOutcome{})
	if !errors.Is(err, boom) {
		t.Fatalf("expected joined error, got %v", err)
	}
	if s2.jobs != 1 {
		t.Fatalf("second sink skipped")
	}
}
