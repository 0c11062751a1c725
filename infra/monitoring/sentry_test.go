package monitoring

import (
	"errors"
	"testing"
	"time"

	"github.com/kilianp07/orchestrator/config"
	coremon "github.com/kilianp07/orchestrator/core/monitoring"
)

func TestNewSentryMonitorWithoutDSN(t *testing.T) {
	m, err := NewSentryMonitor(config.SentryConfig{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := m.(coremon.NopMonitor); !ok {
		t.Fatalf("expected NopMonitor, got %T", m)
	}
}

func TestNewSentryMonitorInvalidDSN(t *testing.T) {
	if _, err := NewSentryMonitor(config.SentryConfig{DSN: "not a dsn"}); err == nil {
		t.Fatalf("expected error for malformed dsn")
	}
}

func TestSentryMonitorCapture(t *testing.T) {
	m, err := NewSentryMonitor(config.SentryConfig{DSN: "https://public@127.0.0.1:1/1", Environment: "test"})
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	m.CaptureException(nil, nil)
	m.CaptureException(errors.New("delivery failed"), map[string]string{"module": "push"})
	m.CapturePanic("boom", map[string]string{"job_id": "1"})
	m.Flush(10 * time.Millisecond)
}
