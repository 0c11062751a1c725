// Package mqtt declares the outbound broker contract used by push
// notifications. The process keeps a single shared connection; subscribers
// only choose the topic.
package mqtt

import "context"

// QoS levels understood by the publisher.
const (
	QoSAtMostOnce  byte = 0
	QoSAtLeastOnce byte = 1
	QoSExactlyOnce byte = 2
)

// Publisher sends a payload to a topic on the shared broker connection.
type Publisher interface {
	// Publish blocks until the broker acknowledged the message at the given
	// QoS level or ctx is done.
	Publish(ctx context.Context, topic string, qos byte, payload []byte) error
}
