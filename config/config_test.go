package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, name, data string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

//nolint:gocyclo
func TestLoad(t *testing.T) {
	path := writeConfig(t, "config.yaml", `server:
  address: ":9000"
  api_token: "secret"
store:
  driver: "postgres"
  dsn: "host=db user=orch dbname=orch"
mqtt:
  enabled: true
  broker: "tcp://localhost:1883"
  client_id: "cli"
  username: "user"
  password: "pass"
  use_tls: false
orchestrator:
  worker_pool_size: 8
notify:
  http_timeout_seconds: 3
registry:
  url: "http://registry:8443/serviceregistry"
authorization:
  url: "http://authorization:8445/authorization"
credentials:
  client_id: "orchestrator"
  client_secret: "s3cret"
  auth_url: "http://auth/token"
intercloud:
  enabled: true
  gatekeeper:
    url: "http://gatekeeper:8449/gatekeeper"
metrics:
  listen_addr: ":9100"
  sinks:
    - type: "nop"
logging:
  level: "debug"
sentry:
  dsn: "https://public@sentry.example/1"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	checks := []struct {
		name string
		got  any
		want any
	}{
		{"server.address", cfg.Server.Address, ":9000"},
		{"server.api_token", cfg.Server.APIToken, "secret"},
		{"server.mode", cfg.Server.Mode, "release"},
		{"store.driver", cfg.Store.Driver, "postgres"},
		{"broker", cfg.MQTT.Broker, "tcp://localhost:1883"},
		{"client_id", cfg.MQTT.ClientID, "cli"},
		{"mqtt.max_retries", cfg.MQTT.MaxRetries, 3},
		{"worker_pool_size", cfg.Orchestrator.WorkerPoolSize, 8},
		{"queue_capacity", cfg.Orchestrator.QueueCapacity, 256},
		{"http_timeout_seconds", cfg.Notify.HTTPTimeoutSeconds, 3},
		{"registry.url", cfg.Registry.URL, "http://registry:8443/serviceregistry"},
		{"registry.timeout", cfg.Registry.TimeoutSeconds, 10},
		{"authorization.url", cfg.Authorization.URL, "http://authorization:8445/authorization"},
		{"credentials", cfg.Credentials.Enabled(), true},
		{"intercloud", cfg.InterCloud.Enabled, true},
		{"gatekeeper", cfg.InterCloud.Gatekeeper.URL, "http://gatekeeper:8449/gatekeeper"},
		{"metrics_sink", len(cfg.Metrics.Sinks) == 1 && cfg.Metrics.Sinks[0].Type == "nop", true},
		{"metrics.listen_addr", cfg.Metrics.ListenAddr, ":9100"},
		{"logging.level", cfg.Logging.Level, "debug"},
		{"sentry.dsn", cfg.Sentry.DSN, "https://public@sentry.example/1"},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s: got %v want %v", c.name, c.got, c.want)
		}
	}
}

func TestLoadEnvOverride(t *testing.T) {
	path := writeConfig(t, "config.json", `{"registry":{"url":"http://registry"},"orchestrator":{"worker_pool_size":2}}`)
	t.Setenv("K_ORCHESTRATOR__WORKER_POOL_SIZE", "6")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	if cfg.Orchestrator.WorkerPoolSize != 6 {
		t.Fatalf("expected env override, got %d", cfg.Orchestrator.WorkerPoolSize)
	}
	if cfg.Store.Driver != "sqlite" {
		t.Fatalf("expected sqlite default, got %s", cfg.Store.Driver)
	}
}

func TestLoadValidation(t *testing.T) {
	path := writeConfig(t, "config.yaml", `mqtt:
  enabled: true
orchestrator:
  worker_pool_size: -1
`)
	_, err := Load(path)
	if err == nil {
		t.Fatal("expected validation error")
	}
	for _, want := range []string{"mqtt.broker", "worker_pool_size", "registry: url"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not mention %s", err, want)
		}
	}
}

func TestLoadUnsupportedFormat(t *testing.T) {
	if _, err := Load(writeConfig(t, "config.toml", "")); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}
