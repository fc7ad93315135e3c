package lifecycle

import (
	"context"

	"emberfall/server/logging"
)

const (
	// EventPlayerJoined is emitted when a player joins the world.
	EventPlayerJoined logging.EventType = "lifecycle.player_joined"
	// EventPlayerDisconnected is emitted when a player leaves the world.
	EventPlayerDisconnected logging.EventType = "lifecycle.player_disconnected"
	// EventPlayerDefeated is emitted when the player dies and the driver
	// enters the game-over state.
	EventPlayerDefeated logging.EventType = "lifecycle.player_defeated"
	// EventActorSwept is emitted when the sweep removes an expired actor.
	EventActorSwept logging.EventType = "lifecycle.actor_swept"
)

// PlayerJoinedPayload captures spawn metadata for a new player.
type PlayerJoinedPayload struct {
	SpawnX float64 `json:"spawnX"`
	SpawnY float64 `json:"spawnY"`
	SpawnZ float64 `json:"spawnZ"`
}

// PlayerJoined publishes a player join event.
func PlayerJoined(ctx context.Context, pub logging.Publisher, frame uint64, actor logging.EntityRef, payload PlayerJoinedPayload, extra map[string]any) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventPlayerJoined,
		Frame:    frame,
		Actor:    actor,
		Severity: logging.SeverityInfo,
		Category: logging.CategoryLifecycle,
		Payload:  payload,
		Extra:    extra,
	})
}

// PlayerDisconnectedPayload captures the reason a player left.
type PlayerDisconnectedPayload struct {
	Reason string `json:"reason"`
}

// PlayerDisconnected publishes a player disconnect event.
func PlayerDisconnected(ctx context.Context, pub logging.Publisher, frame uint64, actor logging.EntityRef, payload PlayerDisconnectedPayload, extra map[string]any) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventPlayerDisconnected,
		Frame:    frame,
		Actor:    actor,
		Severity: logging.SeverityInfo,
		Category: logging.CategoryLifecycle,
		Payload:  payload,
		Extra:    extra,
	})
}

// PlayerDefeated publishes the death of a player.
func PlayerDefeated(ctx context.Context, pub logging.Publisher, frame uint64, actor logging.EntityRef, extra map[string]any) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventPlayerDefeated,
		Frame:    frame,
		Actor:    actor,
		Severity: logging.SeverityInfo,
		Category: logging.CategoryLifecycle,
		Extra:    extra,
	})
}

// ActorSweptPayload records why the sweep removed an actor.
type ActorSweptPayload struct {
	Kind string `json:"kind"`
}

// ActorSwept publishes a debug event for a sweep removal.
func ActorSwept(ctx context.Context, pub logging.Publisher, frame uint64, actor logging.EntityRef, payload ActorSweptPayload, extra map[string]any) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventActorSwept,
		Frame:    frame,
		Actor:    actor,
		Severity: logging.SeverityDebug,
		Category: logging.CategoryLifecycle,
		Payload:  payload,
		Extra:    extra,
	})
}
