package registry

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/orchestrator/core/model"
	"github.com/kilianp07/orchestrator/core/orchestration"
	"github.com/kilianp07/orchestrator/internal/httpjson"
)

func TestClientLookup(t *testing.T) {
	var got orchestration.RegistryQuery
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/query", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_ = json.NewEncoder(w).Encode(lookupResponse{Instances: []model.ServiceInstance{
			{InstanceID: "svc-1", ServiceDefinition: "temperature", Provider: model.System{SystemName: "sensor"}},
		}})
	}))
	defer srv.Close()

	c := NewClient(Config{URL: srv.URL}, nil)
	out, err := c.Lookup(context.Background(), orchestration.RegistryQuery{
		Requester: "consumer",
		Service:   model.ServiceRequirement{ServiceDefinition: "temperature", Interfaces: []string{"HTTP-INSECURE-JSON"}},
	})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "svc-1", out[0].InstanceID)
	assert.Equal(t, "consumer", got.Requester)
	assert.Equal(t, []string{"HTTP-INSECURE-JSON"}, got.Service.Interfaces)
}

func TestClientLookupFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := NewClient(Config{URL: srv.URL}, nil).Lookup(context.Background(), orchestration.RegistryQuery{})
	var se *httpjson.StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusServiceUnavailable, se.Status)
}

func TestGatekeeperLookupTagsCloud(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/gsd", r.URL.Path)
		_ = json.NewEncoder(w).Encode(gsdResponse{Results: []gsdResult{
			{Cloud: model.Cloud{Operator: "acme", Name: "north"}, Instances: []model.ServiceInstance{{InstanceID: "n-1"}, {InstanceID: "n-2"}}},
			{Cloud: model.Cloud{Operator: "acme", Name: "south"}, Instances: []model.ServiceInstance{{InstanceID: "s-1"}}},
		}})
	}))
	defer srv.Close()

	c := NewGatekeeperClient(Config{URL: srv.URL + "/"}, nil)
	out, err := c.Lookup(context.Background(), model.OrchestrationForm{RequesterSystem: "consumer"})
	require.NoError(t, err)
	require.Len(t, out, 3)
	assert.Equal(t, "north", out[0].Cloud.Name)
	assert.Equal(t, "north", out[1].Cloud.Name)
	assert.Equal(t, "south", out[2].Cloud.Name)
}

func TestConfigValidate(t *testing.T) {
	cfg := Config{URL: "http://registry"}
	cfg.SetDefaults()
	assert.NoError(t, cfg.Validate())
	assert.Equal(t, 10, cfg.TimeoutSeconds)
	assert.Error(t, Config{}.Validate())
}
