// Package events defines the orchestration events emitted on the event bus.
//
// Available event types:
//   - JobEvent: an orchestration job reached a terminal status
//   - DeliveryEvent: a push notification attempt and its outcome
package events
