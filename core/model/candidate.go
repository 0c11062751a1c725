package model

import "time"

// ServiceInstance is a registry entry for one offered service.
type ServiceInstance struct {
	InstanceID        string            `json:"instanceId"`
	ServiceDefinition string            `json:"serviceDefinition"`
	Provider          System            `json:"provider"`
	ServiceURI        string            `json:"serviceUri"`
	Version           int               `json:"version"`
	Interfaces        []string          `json:"interfaces"`
	SecurityType      string            `json:"securityType,omitempty"`
	Metadata          map[string]string `json:"metadata,omitempty"`
	EndOfValidity     *time.Time        `json:"endOfValidity,omitempty"`
	// Cloud is set for instances discovered in a neighbour cloud.
	Cloud *Cloud `json:"cloud,omitempty"`
}

// OrchestrationCandidate is a matched service instance plus selection flags.
type OrchestrationCandidate struct {
	Instance          ServiceInstance
	IsLocal           bool
	IsLocked          bool
	CanBeExclusive    bool
	TranslationNeeded bool
	Tokens            map[string]string
}

// Orchestration warnings attached to results.
const (
	WarnFromOtherCloud    = "FROM_OTHER_CLOUD"
	WarnTranslationNeeded = "TRANSLATION_NEEDED"
	WarnExclusive         = "EXCLUSIVE"
	WarnTTLUnknown        = "TTL_UNKNOWN"
	WarnTTLExpiring       = "TTL_EXPIRING"
)

// OrchestrationResult is the provider description returned to consumers and
// pushed to subscribers.
type OrchestrationResult struct {
	InstanceID          string            `json:"instanceId"`
	Provider            System            `json:"provider"`
	Service             string            `json:"service"`
	ServiceURI          string            `json:"serviceUri"`
	Interfaces          []string          `json:"interfaces"`
	Version             int               `json:"version"`
	SecurityType        string            `json:"secure,omitempty"`
	Metadata            map[string]string `json:"metadata,omitempty"`
	AuthorizationTokens map[string]string `json:"authorizationTokens,omitempty"`
	Warnings            []string          `json:"warnings"`
	Cloud               *Cloud            `json:"cloud,omitempty"`
	ExclusiveUntil      *time.Time        `json:"exclusiveUntil,omitempty"`
}

// OrchestrationResponse wraps zero or more results.
type OrchestrationResponse struct {
	Response []OrchestrationResult `json:"response"`
}
