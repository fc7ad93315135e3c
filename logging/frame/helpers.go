package frame

import (
	"context"

	"emberfall/server/logging"
)

const (
	// EventDeltaClamped is emitted when a frame delta exceeded the configured
	// maximum and was clamped before actors saw it.
	EventDeltaClamped logging.EventType = "frame.delta_clamped"
	// EventStateChanged is emitted on every frame-driver state transition.
	EventStateChanged logging.EventType = "frame.state_changed"
	// EventActorPanic is emitted when an actor update panics and the actor is
	// marked dead so the frame can continue.
	EventActorPanic logging.EventType = "frame.actor_panic"
)

// DeltaClampedPayload captures the raw and clamped frame deltas.
type DeltaClampedPayload struct {
	RawSeconds     float64 `json:"rawSeconds"`
	ClampedSeconds float64 `json:"clampedSeconds"`
}

// DeltaClamped publishes a warning when a frame delta was clamped.
func DeltaClamped(ctx context.Context, pub logging.Publisher, frame uint64, payload DeltaClampedPayload, extra map[string]any) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventDeltaClamped,
		Frame:    frame,
		Severity: logging.SeverityWarn,
		Category: logging.CategorySystem,
		Payload:  payload,
		Extra:    extra,
	})
}

// StateChangedPayload records a frame-driver transition.
type StateChangedPayload struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// StateChanged publishes a frame-driver state transition.
func StateChanged(ctx context.Context, pub logging.Publisher, frame uint64, payload StateChangedPayload, extra map[string]any) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventStateChanged,
		Frame:    frame,
		Severity: logging.SeverityInfo,
		Category: logging.CategorySystem,
		Payload:  payload,
		Extra:    extra,
	})
}

// ActorPanicPayload captures the recovered panic value.
type ActorPanicPayload struct {
	Recovered string `json:"recovered"`
}

// ActorPanic publishes an error when an actor update panicked.
func ActorPanic(ctx context.Context, pub logging.Publisher, frame uint64, actor logging.EntityRef, payload ActorPanicPayload, extra map[string]any) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventActorPanic,
		Frame:    frame,
		Actor:    actor,
		Severity: logging.SeverityError,
		Category: logging.CategorySystem,
		Payload:  payload,
		Extra:    extra,
	})
}
