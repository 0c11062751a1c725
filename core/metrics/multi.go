package metrics

import "errors"

// MultiSink fans records out to multiple sinks.
type MultiSink struct {
	Sinks []MetricsSink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...MetricsSink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordJobOutcome forwards the record to all sinks and joins their errors.
func (m *MultiSink) RecordJobOutcome(ev JobOutcome) error {
	var errs []error
	for _, s := range m.Sinks {
		if err := s.RecordJobOutcome(ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// RecordDelivery forwards delivery records to the sinks supporting them.
func (m *MultiSink) RecordDelivery(ev DeliveryOutcome) error {
	var errs []error
	for _, s := range m.Sinks {
		if rec, ok := s.(DeliveryRecorder); ok {
			if err := rec.RecordDelivery(ev); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}
