package mqtt

import "errors"

var (
	// ErrNotConnected is returned when publishing while the broker link is down.
	ErrNotConnected = errors.New("mqtt client not connected")
	// ErrPublishTimeout is returned when the broker did not acknowledge in time.
	ErrPublishTimeout = errors.New("timeout waiting for publish acknowledgment")
)
