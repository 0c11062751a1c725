package test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/kilianp07/orchestrator/api"
	"github.com/kilianp07/orchestrator/app"
	"github.com/kilianp07/orchestrator/config"
	"github.com/kilianp07/orchestrator/core/factory"
	"github.com/kilianp07/orchestrator/core/model"
	"github.com/kilianp07/orchestrator/test/util"
)

var thermometer = model.ServiceInstance{
	InstanceID:        "thermometer|temperature|1",
	ServiceDefinition: "temperature",
	Provider:          model.System{SystemName: "thermometer", Address: "10.0.0.5", Port: 8080},
	ServiceURI:        "/temperature",
	Version:           1,
	Interfaces:        []string{"HTTP-INSECURE-JSON"},
}

// baseConfig returns a validated configuration backed by a temporary SQLite
// file, a stub registry and a Prometheus endpoint on metricsAddr.
func baseConfig(t *testing.T, metricsAddr string) *config.Config {
	t.Helper()
	reg := util.StartRegistry(thermometer)
	t.Cleanup(reg.Close)

	cfg := &config.Config{}
	cfg.Server.Address = "127.0.0.1:0"
	cfg.Server.Mode = "test"
	cfg.Store.DSN = filepath.Join(t.TempDir(), "orchestrator.db")
	cfg.Registry.URL = reg.URL
	cfg.Metrics.ListenAddr = metricsAddr
	cfg.Metrics.Sinks = []factory.ModuleConfig{{Type: "prometheus"}}
	return cfg
}

// startService builds and runs the service until the test ends.
func startService(t *testing.T, cfg *config.Config) *app.Service {
	t.Helper()
	cfg.SetDefaults()
	require.NoError(t, cfg.Validate())
	svc, err := app.New(cfg)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		select {
		case err := <-done:
			if err != nil {
				t.Errorf("service run: %v", err)
			}
		case <-time.After(5 * time.Second):
			t.Error("service did not stop")
		}
		_ = svc.Close()
	})
	return svc
}

func postJSON(t *testing.T, h http.Handler, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, json.NewEncoder(&buf).Encode(body))
	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

// subscribeAndTrigger registers one temperature subscription for consumer and
// triggers it, returning the queued job id.
func subscribeAndTrigger(t *testing.T, svc *app.Service, protocol model.NotifyProtocol, props map[string]string) string {
	t.Helper()
	rec := postJSON(t, svc.Router(), "/orchestrator/subscriptions", api.SubscribeRequest{
		Requester: "consumer",
		Subscriptions: []*model.SubscriptionRequest{{
			OrchestrationRequest: model.OrchestrationForm{
				Service: model.ServiceRequirement{ServiceDefinition: "temperature"},
			},
			NotifyProtocol:   protocol,
			NotifyProperties: props,
		}},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = postJSON(t, svc.Router(), "/orchestrator/push/trigger", model.TriggerRequest{Requester: "consumer"})
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())
	var trig api.TriggerResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &trig))
	require.Len(t, trig.JobIDs, 1)
	return trig.JobIDs[0].String()
}
