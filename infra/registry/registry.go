// Package registry reaches the service registry and the gatekeeper of
// neighbour clouds over JSON/HTTP.
package registry

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/kilianp07/orchestrator/core/model"
	"github.com/kilianp07/orchestrator/core/orchestration"
	"github.com/kilianp07/orchestrator/infra/auth"
	"github.com/kilianp07/orchestrator/internal/httpjson"
)

// Config locates a peer system.
type Config struct {
	URL            string `json:"url"`
	TimeoutSeconds int    `json:"timeout_seconds"`
}

// SetDefaults fills unset fields.
func (c *Config) SetDefaults() {
	if c.TimeoutSeconds == 0 {
		c.TimeoutSeconds = 10
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.URL == "" {
		return errors.New("registry: url is required")
	}
	if c.TimeoutSeconds < 0 {
		return errors.New("registry: timeout_seconds must be positive")
	}
	return nil
}

type lookupResponse struct {
	Instances []model.ServiceInstance `json:"instances"`
}

// Client queries the local service registry with POST {url}/query.
type Client struct {
	url    string
	client *http.Client
}

var _ orchestration.Registry = (*Client)(nil)

// NewClient creates a registry client. cred may be nil.
func NewClient(cfg Config, cred *auth.ClientCred) *Client {
	cfg.SetDefaults()
	return &Client{
		url:    strings.TrimSuffix(cfg.URL, "/") + "/query",
		client: auth.HTTPClient(cred, time.Duration(cfg.TimeoutSeconds)*time.Second),
	}
}

// Lookup returns the instances offering the requested service.
func (c *Client) Lookup(ctx context.Context, q orchestration.RegistryQuery) ([]model.ServiceInstance, error) {
	var resp lookupResponse
	if err := httpjson.Post(ctx, c.client, c.url, q, &resp); err != nil {
		return nil, err
	}
	return resp.Instances, nil
}

// GatekeeperClient runs a global service discovery with POST {url}/gsd.
type GatekeeperClient struct {
	url    string
	client *http.Client
}

var _ orchestration.InterCloud = (*GatekeeperClient)(nil)

// NewGatekeeperClient creates an inter-cloud client. cred may be nil.
func NewGatekeeperClient(cfg Config, cred *auth.ClientCred) *GatekeeperClient {
	cfg.SetDefaults()
	return &GatekeeperClient{
		url:    strings.TrimSuffix(cfg.URL, "/") + "/gsd",
		client: auth.HTTPClient(cred, time.Duration(cfg.TimeoutSeconds)*time.Second),
	}
}

type gsdRequest struct {
	Requester          string                    `json:"requesterSystem"`
	Service            model.ServiceRequirement  `json:"requestedService"`
	PreferredProviders []model.PreferredProvider `json:"preferredProviders,omitempty"`
}

type gsdResult struct {
	Cloud     model.Cloud             `json:"cloud"`
	Instances []model.ServiceInstance `json:"instances"`
}

type gsdResponse struct {
	Results []gsdResult `json:"results"`
}

// Lookup returns the instances offered by neighbour clouds, each tagged
// with the cloud it came from.
func (c *GatekeeperClient) Lookup(ctx context.Context, form model.OrchestrationForm) ([]model.ServiceInstance, error) {
	var resp gsdResponse
	err := httpjson.Post(ctx, c.client, c.url, gsdRequest{
		Requester:          form.RequesterSystem,
		Service:            form.Service,
		PreferredProviders: form.PreferredProviders,
	}, &resp)
	if err != nil {
		return nil, err
	}
	var out []model.ServiceInstance
	for _, r := range resp.Results {
		cloud := r.Cloud
		for _, inst := range r.Instances {
			inst.Cloud = &cloud
			out = append(out, inst)
		}
	}
	return out, nil
}
