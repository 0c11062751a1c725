package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/kilianp07/orchestrator/core/model"
	"github.com/kilianp07/orchestrator/internal/httpjson"
)

// TokenConfig locates the authorization system issuing provider tokens.
type TokenConfig struct {
	URL            string `json:"url"`
	TimeoutSeconds int    `json:"timeout_seconds"`
}

// SetDefaults fills unset fields.
func (c *TokenConfig) SetDefaults() {
	if c.TimeoutSeconds == 0 {
		c.TimeoutSeconds = 10
	}
}

// Validate checks the configuration.
func (c TokenConfig) Validate() error {
	if c.TimeoutSeconds < 0 {
		return errors.New("authorization: timeout_seconds must be positive")
	}
	return nil
}

type tokenRequest struct {
	Consumer          string   `json:"consumer"`
	Provider          string   `json:"provider"`
	ServiceDefinition string   `json:"serviceDefinition"`
	ServiceInstanceID string   `json:"serviceInstanceId"`
	Interfaces        []string `json:"interfaces"`
}

type tokenResponse struct {
	// Tokens maps interface name to access token.
	Tokens map[string]string `json:"tokens"`
}

// TokenClient requests per interface access tokens from the authorization
// system with POST {url}/token.
type TokenClient struct {
	url    string
	client *http.Client
}

// NewTokenClient creates a client. cred may be nil.
func NewTokenClient(cfg TokenConfig, cred *ClientCred) *TokenClient {
	cfg.SetDefaults()
	return &TokenClient{
		url:    strings.TrimSuffix(cfg.URL, "/") + "/token",
		client: HTTPClient(cred, time.Duration(cfg.TimeoutSeconds)*time.Second),
	}
}

// Tokens implements orchestration.TokenIssuer.
func (c *TokenClient) Tokens(ctx context.Context, consumer string, inst model.ServiceInstance) (map[string]string, error) {
	var resp tokenResponse
	err := httpjson.Post(ctx, c.client, c.url, tokenRequest{
		Consumer:          consumer,
		Provider:          inst.Provider.SystemName,
		ServiceDefinition: inst.ServiceDefinition,
		ServiceInstanceID: inst.InstanceID,
		Interfaces:        inst.Interfaces,
	}, &resp)
	if err != nil {
		return nil, err
	}
	return resp.Tokens, nil
}
