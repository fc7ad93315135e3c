package network

import (
	"context"

	"emberfall/server/logging"
)

const (
	// EventCommandRejected is emitted when a staged client command is refused.
	EventCommandRejected logging.EventType = "network.command_rejected"
	// EventSubscriberDropped is emitted when a broadcast write fails and the
	// subscriber is disconnected.
	EventSubscriberDropped logging.EventType = "network.subscriber_dropped"
)

// CommandRejectedPayload captures the refused command and reason.
type CommandRejectedPayload struct {
	Type   string `json:"type"`
	Reason string `json:"reason"`
}

// CommandRejected publishes a debug event for a refused command.
func CommandRejected(ctx context.Context, pub logging.Publisher, frame uint64, actor logging.EntityRef, payload CommandRejectedPayload, extra map[string]any) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventCommandRejected,
		Frame:    frame,
		Actor:    actor,
		Severity: logging.SeverityDebug,
		Category: logging.CategoryNetwork,
		Payload:  payload,
		Extra:    extra,
	})
}

// SubscriberDroppedPayload captures the write failure that evicted a client.
type SubscriberDroppedPayload struct {
	Error string `json:"error"`
}

// SubscriberDropped publishes a warning for an evicted subscriber.
func SubscriberDropped(ctx context.Context, pub logging.Publisher, frame uint64, actor logging.EntityRef, payload SubscriberDroppedPayload, extra map[string]any) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventSubscriberDropped,
		Frame:    frame,
		Actor:    actor,
		Severity: logging.SeverityWarn,
		Category: logging.CategoryNetwork,
		Payload:  payload,
		Extra:    extra,
	})
}
