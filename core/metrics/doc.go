// Package metrics defines the sinks that record orchestration outcomes.
// Sinks like PromSink and InfluxSink live in infra/metrics and register
// themselves by type name; NewMetricsSink builds one sink per configured
// entry and combines several into a MultiSink.
package metrics
