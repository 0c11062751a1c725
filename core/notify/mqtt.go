package notify

import (
	"context"
	"fmt"

	"github.com/kilianp07/orchestrator/core/model"
	coremqtt "github.com/kilianp07/orchestrator/core/mqtt"
)

// MQTTSender publishes results on the shared broker connection with
// exactly-once delivery.
type MQTTSender struct {
	pub coremqtt.Publisher
}

// NewMQTTSender wraps pub.
func NewMQTTSender(pub coremqtt.Publisher) *MQTTSender {
	return &MQTTSender{pub: pub}
}

// Send publishes body to the subscriber's topic.
func (m *MQTTSender) Send(ctx context.Context, sub model.Subscription, props map[string]string, body []byte) error {
	topic := props[model.PropTopic]
	if err := m.pub.Publish(ctx, topic, coremqtt.QoSExactlyOnce, body); err != nil {
		return fmt.Errorf("%w: subscription %s: publish to %s: %v", ErrDeliveryFailed, sub.ID, topic, err)
	}
	return nil
}
