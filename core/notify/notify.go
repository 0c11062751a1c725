// Package notify delivers push orchestration results to subscribers.
package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/kilianp07/orchestrator/core/logger"
	"github.com/kilianp07/orchestrator/core/model"
)

var (
	// ErrDeliveryFailed wraps every failure to hand a result to a subscriber.
	ErrDeliveryFailed = errors.New("notification delivery failed")
	// ErrInvalidNotifyProperties is returned for missing or malformed notify properties.
	ErrInvalidNotifyProperties = errors.New("invalid notify properties")
)

// Sender delivers an encoded result for one protocol family.
type Sender interface {
	Send(ctx context.Context, sub model.Subscription, props map[string]string, body []byte) error
}

// Dispatcher selects the sender matching a subscription's notify protocol.
type Dispatcher struct {
	http Sender
	mqtt Sender
	log  logger.Logger
}

// NewDispatcher builds a dispatcher. mqtt may be nil when the broker
// transport is disabled.
func NewDispatcher(http, mqtt Sender, log logger.Logger) *Dispatcher {
	return &Dispatcher{http: http, mqtt: mqtt, log: log}
}

// Notify sends resp to the subscriber described by sub.
func (d *Dispatcher) Notify(ctx context.Context, sub model.Subscription, resp model.OrchestrationResponse) error {
	props, err := sub.Properties()
	if err != nil {
		return fmt.Errorf("%w: subscription %s: %v", ErrInvalidNotifyProperties, sub.ID, err)
	}
	if err := CheckProperties(sub.NotifyProtocol, props); err != nil {
		return fmt.Errorf("subscription %s: %w", sub.ID, err)
	}
	body, err := json.Marshal(resp)
	if err != nil {
		return fmt.Errorf("%w: subscription %s: encode result: %v", ErrDeliveryFailed, sub.ID, err)
	}

	var s Sender
	switch {
	case sub.NotifyProtocol.IsMQTT():
		if d.mqtt == nil {
			return fmt.Errorf("%w: subscription %s: MQTT notification is disabled", ErrDeliveryFailed, sub.ID)
		}
		s = d.mqtt
	default:
		s = d.http
	}
	if err := s.Send(ctx, sub, props, body); err != nil {
		return err
	}
	d.log.Debugf("notified subscription %s over %s", sub.ID, sub.NotifyProtocol)
	return nil
}

// CheckProperties validates the notify properties required by protocol.
func CheckProperties(protocol model.NotifyProtocol, props map[string]string) error {
	switch protocol {
	case model.NotifyHTTP, model.NotifyHTTPS:
		for _, k := range []string{model.PropAddress, model.PropPort, model.PropMethod, model.PropPath} {
			if strings.TrimSpace(props[k]) == "" {
				return fmt.Errorf("%w: missing %s", ErrInvalidNotifyProperties, k)
			}
		}
		port, err := strconv.Atoi(props[model.PropPort])
		if err != nil || port < 1 || port > 65535 {
			return fmt.Errorf("%w: invalid port %q", ErrInvalidNotifyProperties, props[model.PropPort])
		}
		switch strings.ToUpper(props[model.PropMethod]) {
		case "POST", "PUT", "PATCH":
		default:
			return fmt.Errorf("%w: unsupported method %q", ErrInvalidNotifyProperties, props[model.PropMethod])
		}
	case model.NotifyMQTT, model.NotifyMQTTS:
		topic := props[model.PropTopic]
		if strings.TrimSpace(topic) == "" {
			return fmt.Errorf("%w: missing %s", ErrInvalidNotifyProperties, model.PropTopic)
		}
		if strings.ContainsAny(topic, "+#") {
			return fmt.Errorf("%w: topic must not contain wildcards", ErrInvalidNotifyProperties)
		}
	default:
		return fmt.Errorf("%w: unknown protocol %q", ErrInvalidNotifyProperties, protocol)
	}
	return nil
}
