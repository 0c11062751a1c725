package metrics

import "github.com/kilianp07/orchestrator/core/factory"

// Config defines settings for metrics sinks.
type Config struct {
	Sinks []factory.ModuleConfig `json:"sinks"`
	// ListenAddr serves /metrics when set, e.g. ":9090".
	ListenAddr string `json:"listen_addr"`
}
