package sim

import "time"

// CommandType enumerates the intents staged for the next frame boundary.
type CommandType string

const (
	CommandInput     CommandType = "Input"
	CommandAction    CommandType = "Action"
	CommandPause     CommandType = "Pause"
	CommandResume    CommandType = "Resume"
	CommandSetPreset CommandType = "SetPreset"
	CommandSpawn     CommandType = "Spawn"
	CommandRespawn   CommandType = "Respawn"
	CommandHeartbeat CommandType = "Heartbeat"
)

// InputCommand carries the desired movement vector.
type InputCommand struct {
	DX float64 `json:"dx"`
	DY float64 `json:"dy"`
	DZ float64 `json:"dz"`
}

// ActionCommand identifies an ability trigger.
type ActionCommand struct {
	Name string `json:"name"`
}

// PresetCommand requests a quality preset swap, effective next frame.
type PresetCommand struct {
	Name string `json:"name"`
}

// SpawnCommand requests enemies of an archetype, subject to population caps.
type SpawnCommand struct {
	Archetype string `json:"archetype"`
	Count     int    `json:"count"`
}

// HeartbeatCommand updates connectivity metadata for an actor.
type HeartbeatCommand struct {
	ReceivedAt time.Time     `json:"receivedAt"`
	ClientSent int64         `json:"clientSent"`
	RTT        time.Duration `json:"rtt"`
}

// Command represents an intent captured for processing at the next frame
// boundary. Collaborators never mutate the registry or driver directly.
type Command struct {
	OriginFrame uint64            `json:"originFrame"`
	ActorID     string            `json:"actorId"`
	Type        CommandType       `json:"type"`
	IssuedAt    time.Time         `json:"issuedAt"`
	Input       *InputCommand     `json:"input,omitempty"`
	Action      *ActionCommand    `json:"action,omitempty"`
	Preset      *PresetCommand    `json:"preset,omitempty"`
	Spawn       *SpawnCommand     `json:"spawn,omitempty"`
	Heartbeat   *HeartbeatCommand `json:"heartbeat,omitempty"`
}
