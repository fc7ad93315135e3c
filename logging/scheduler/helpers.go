package scheduler

import (
	"context"

	"emberfall/server/logging"
)

const (
	// EventPresetFallback is emitted when an unknown quality preset name falls
	// back to the lowest-capability profile.
	EventPresetFallback logging.EventType = "scheduler.preset_fallback"
	// EventPresetChanged is emitted when a preset swap takes effect.
	EventPresetChanged logging.EventType = "scheduler.preset_changed"
	// EventSpawnCapped is emitted when a spawn request is rejected by the
	// active profile's population cap.
	EventSpawnCapped logging.EventType = "scheduler.spawn_capped"
)

// PresetFallbackPayload names the requested and substituted presets.
type PresetFallbackPayload struct {
	Requested string `json:"requested"`
	Fallback  string `json:"fallback"`
}

// PresetFallback publishes a warning about an unknown preset name.
func PresetFallback(ctx context.Context, pub logging.Publisher, frame uint64, payload PresetFallbackPayload, extra map[string]any) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventPresetFallback,
		Frame:    frame,
		Severity: logging.SeverityWarn,
		Category: logging.CategoryScheduler,
		Payload:  payload,
		Extra:    extra,
	})
}

// PresetChangedPayload names the profiles before and after a swap.
type PresetChangedPayload struct {
	Previous string `json:"previous"`
	Active   string `json:"active"`
}

// PresetChanged publishes the activation of a new quality profile.
func PresetChanged(ctx context.Context, pub logging.Publisher, frame uint64, payload PresetChangedPayload, extra map[string]any) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventPresetChanged,
		Frame:    frame,
		Severity: logging.SeverityInfo,
		Category: logging.CategoryScheduler,
		Payload:  payload,
		Extra:    extra,
	})
}

// SpawnCappedPayload records a spawn rejected by a population cap.
type SpawnCappedPayload struct {
	Kind  string `json:"kind"`
	Cap   int    `json:"cap"`
	Count int    `json:"count"`
}

// SpawnCapped publishes a debug event for a cap-rejected spawn.
func SpawnCapped(ctx context.Context, pub logging.Publisher, frame uint64, payload SpawnCappedPayload, extra map[string]any) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventSpawnCapped,
		Frame:    frame,
		Severity: logging.SeverityDebug,
		Category: logging.CategoryScheduler,
		Payload:  payload,
		Extra:    extra,
	})
}
