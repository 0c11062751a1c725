package model

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// NotifyProtocol selects how push results are delivered.
type NotifyProtocol string

const (
	NotifyHTTP  NotifyProtocol = "HTTP"
	NotifyHTTPS NotifyProtocol = "HTTPS"
	NotifyMQTT  NotifyProtocol = "MQTT"
	NotifyMQTTS NotifyProtocol = "MQTTS"
)

// ParseNotifyProtocol converts a stored or user supplied value into a NotifyProtocol.
func ParseNotifyProtocol(s string) (NotifyProtocol, error) {
	switch p := NotifyProtocol(strings.ToUpper(strings.TrimSpace(s))); p {
	case NotifyHTTP, NotifyHTTPS, NotifyMQTT, NotifyMQTTS:
		return p, nil
	default:
		return "", fmt.Errorf("unknown notify protocol %q", s)
	}
}

// IsMQTT reports whether the protocol is delivered through the broker.
func (p NotifyProtocol) IsMQTT() bool { return p == NotifyMQTT || p == NotifyMQTTS }

// Notify property keys.
const (
	PropAddress = "address"
	PropPort    = "port"
	PropMethod  = "method"
	PropPath    = "path"
	PropTopic   = "topic"
)

// Subscription is a standing request to re-run orchestration and push the result.
type Subscription struct {
	ID                uuid.UUID      `json:"id"`
	OwnerSystem       string         `json:"ownerSystem"`
	TargetSystem      string         `json:"targetSystem"`
	ServiceDefinition string         `json:"serviceDefinition"`
	ExpiresAt         *time.Time     `json:"expiresAt,omitempty"`
	NotifyProtocol    NotifyProtocol `json:"notifyProtocol"`
	// NotifyProperties holds the serialized key/value delivery settings.
	NotifyProperties json.RawMessage `json:"notifyProperties"`
	// OrchestrationRequest holds the serialized form replayed on each trigger.
	OrchestrationRequest json.RawMessage `json:"orchestrationRequest"`
	CreatedAt            time.Time       `json:"createdAt"`
}

// Active reports whether the subscription has not expired at now.
func (s Subscription) Active(now time.Time) bool {
	return s.ExpiresAt == nil || s.ExpiresAt.After(now)
}

// Properties decodes the notify properties.
func (s Subscription) Properties() (map[string]string, error) {
	props := map[string]string{}
	if len(s.NotifyProperties) == 0 {
		return props, nil
	}
	if err := json.Unmarshal(s.NotifyProperties, &props); err != nil {
		return nil, err
	}
	return props, nil
}

// SubscriptionRequest is one entry of a subscribe call.
type SubscriptionRequest struct {
	OrchestrationRequest OrchestrationForm `json:"orchestrationRequest"`
	NotifyProtocol       NotifyProtocol    `json:"notifyProtocol"`
	NotifyProperties     map[string]string `json:"notifyProperties"`
	// Duration in minutes; zero or absent means the subscription never expires.
	Duration *int `json:"duration,omitempty"`
}
