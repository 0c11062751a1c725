package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/kilianp07/orchestrator/core/metrics"
	"github.com/kilianp07/orchestrator/infra/auth"
	"github.com/kilianp07/orchestrator/infra/logger"
	"github.com/kilianp07/orchestrator/infra/mqtt"
	"github.com/kilianp07/orchestrator/infra/registry"
	"github.com/kilianp07/orchestrator/infra/store"
)

type Config struct {
	Server        ServerConfig       `json:"server"`
	Store         store.Config       `json:"store"`
	MQTT          mqtt.Config        `json:"mqtt"`
	Orchestrator  OrchestratorConfig `json:"orchestrator"`
	Notify        NotifyConfig       `json:"notify"`
	Registry      registry.Config    `json:"registry"`
	Authorization auth.TokenConfig   `json:"authorization"`
	Credentials   auth.Conf          `json:"credentials"`
	InterCloud    InterCloudConfig   `json:"intercloud"`
	Metrics       metrics.Config     `json:"metrics"`
	Logging       logger.Config      `json:"logging"`
	Sentry        SentryConfig       `json:"sentry"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Address string `json:"address"`
	// APIToken, when set, is required as a bearer token on every
	// /orchestrator request.
	APIToken string `json:"api_token"`
	// Mode is the gin mode: debug, release or test.
	Mode string `json:"mode"`
}

func (c *ServerConfig) SetDefaults() {
	if c.Address == "" {
		c.Address = ":8441"
	}
	if c.Mode == "" {
		c.Mode = "release"
	}
}

func (c ServerConfig) Validate() error {
	switch c.Mode {
	case "debug", "release", "test":
		return nil
	default:
		return fmt.Errorf("server: unknown mode %s", c.Mode)
	}
}

// OrchestratorConfig sizes the push pipeline and toggles optional features.
type OrchestratorConfig struct {
	WorkerPoolSize int  `json:"worker_pool_size"`
	QueueCapacity  int  `json:"queue_capacity"`
	QoSEnabled     bool `json:"qos_enabled"`
}

func (c *OrchestratorConfig) SetDefaults() {
	if c.WorkerPoolSize == 0 {
		c.WorkerPoolSize = 4
	}
	if c.QueueCapacity == 0 {
		c.QueueCapacity = 256
	}
}

func (c OrchestratorConfig) Validate() error {
	if c.WorkerPoolSize < 1 {
		return errors.New("orchestrator: worker_pool_size must be at least 1")
	}
	if c.QueueCapacity < 1 {
		return errors.New("orchestrator: queue_capacity must be at least 1")
	}
	return nil
}

// NotifyConfig bounds push deliveries.
type NotifyConfig struct {
	HTTPTimeoutSeconds int `json:"http_timeout_seconds"`
}

func (c *NotifyConfig) SetDefaults() {
	if c.HTTPTimeoutSeconds == 0 {
		c.HTTPTimeoutSeconds = 10
	}
}

func (c NotifyConfig) Validate() error {
	if c.HTTPTimeoutSeconds < 0 {
		return errors.New("notify: http_timeout_seconds must be positive")
	}
	return nil
}

// InterCloudConfig enables lookups through the gatekeeper.
type InterCloudConfig struct {
	Enabled    bool            `json:"enabled"`
	Gatekeeper registry.Config `json:"gatekeeper"`
}

func (c InterCloudConfig) Validate() error {
	if !c.Enabled {
		return nil
	}
	return c.Gatekeeper.Validate()
}

type validator interface{ Validate() error }

func Load(path string) (*Config, error) {
	k := koanf.New(".")
	ext := strings.ToLower(filepath.Ext(path))
	var parser koanf.Parser
	switch ext {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		return nil, fmt.Errorf("unsupported config format: %s", ext)
	}
	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, err
	}
	// Optional environment overrides, e.g. K_ORCHESTRATOR__WORKER_POOL_SIZE.
	if err := k.Load(env.Provider("K_", ".", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), "k_")
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// SetDefaults applies the defaults of every section.
func (c *Config) SetDefaults() {
	c.Server.SetDefaults()
	c.Store.SetDefaults()
	c.MQTT.SetDefaults()
	c.Orchestrator.SetDefaults()
	c.Notify.SetDefaults()
	c.Registry.SetDefaults()
	c.Authorization.SetDefaults()
	c.InterCloud.Gatekeeper.SetDefaults()
	c.Logging.SetDefaults()
}

// Validate checks every section and reports all failures.
func (c Config) Validate() error {
	sections := []validator{
		c.Server, c.Store, c.MQTT, c.Orchestrator, c.Notify, c.Registry,
		c.Authorization, c.Credentials, c.InterCloud, c.Logging,
	}
	var errs []error
	for _, s := range sections {
		if err := s.Validate(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
