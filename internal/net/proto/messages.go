// Package proto defines the websocket wire format shared by the hub and the
// connection handlers.
package proto

import (
	"emberfall/server/internal/sim"
	"emberfall/server/internal/world"
)

// Version tracks the wire-protocol revision expected by clients.
const Version = 1

// Client message type identifiers.
const (
	TypeInput     = "input"
	TypeAction    = "action"
	TypePause     = "pause"
	TypeResume    = "resume"
	TypePreset    = "preset"
	TypeSpawn     = "spawn"
	TypeHeartbeat = "heartbeat"
)

// Server message type identifiers.
const (
	TypeJoined        = "joined"
	TypeState         = "state"
	TypeCommandAck    = "commandAck"
	TypeCommandReject = "commandReject"
)

// ClientMessage captures an inbound websocket message from the client.
type ClientMessage struct {
	Ver       int     `json:"ver,omitempty"`
	Type      string  `json:"type"`
	DX        float64 `json:"dx"`
	DY        float64 `json:"dy"`
	DZ        float64 `json:"dz"`
	Action    string  `json:"action"`
	Preset    string  `json:"preset"`
	Archetype string  `json:"archetype"`
	Count     int     `json:"count"`
	SentAt    int64   `json:"sentAt"`
	Seq       *uint64 `json:"seq,omitempty"`
}

// ClientCommand maps a client message onto a staged simulation command.
// Validation beyond shape (known actions, live actors) is the intake layer's
// job.
func ClientCommand(msg ClientMessage) (sim.Command, bool) {
	switch msg.Type {
	case TypeInput:
		return sim.Command{
			Type:  sim.CommandInput,
			Input: &sim.InputCommand{DX: msg.DX, DY: msg.DY, DZ: msg.DZ},
		}, true
	case TypeAction:
		if msg.Action == "" {
			return sim.Command{}, false
		}
		return sim.Command{
			Type:   sim.CommandAction,
			Action: &sim.ActionCommand{Name: msg.Action},
		}, true
	case TypePause:
		return sim.Command{Type: sim.CommandPause}, true
	case TypeResume:
		return sim.Command{Type: sim.CommandResume}, true
	case TypePreset:
		if msg.Preset == "" {
			return sim.Command{}, false
		}
		return sim.Command{
			Type:   sim.CommandSetPreset,
			Preset: &sim.PresetCommand{Name: msg.Preset},
		}, true
	case TypeSpawn:
		if msg.Archetype == "" || msg.Count <= 0 {
			return sim.Command{}, false
		}
		return sim.Command{
			Type:  sim.CommandSpawn,
			Spawn: &sim.SpawnCommand{Archetype: msg.Archetype, Count: msg.Count},
		}, true
	case TypeHeartbeat:
		return sim.Command{
			Type:      sim.CommandHeartbeat,
			Heartbeat: &sim.HeartbeatCommand{ClientSent: msg.SentAt},
		}, true
	default:
		return sim.Command{}, false
	}
}

// JoinedMessage acknowledges a join request over HTTP.
type JoinedMessage struct {
	Ver          int      `json:"ver"`
	Type         string   `json:"type"`
	PlayerID     string   `json:"playerId"`
	ActivePreset string   `json:"activePreset"`
	Presets      []string `json:"presets"`
}

// StateMessage is the per-frame broadcast payload.
type StateMessage struct {
	Ver     int            `json:"ver"`
	Type    string         `json:"type"`
	Frame   uint64         `json:"frame"`
	Elapsed float64        `json:"elapsed"`
	State   string         `json:"state"`
	Preset  string         `json:"preset"`
	World   world.Snapshot `json:"world"`
	Barks   []world.Bark   `json:"barks,omitempty"`
	HUD     *world.HUDView `json:"hud,omitempty"`
}

// HeartbeatMessage echoes a client heartbeat with server timing.
type HeartbeatMessage struct {
	Ver        int    `json:"ver"`
	Type       string `json:"type"`
	ServerTime int64  `json:"serverTime"`
	ClientTime int64  `json:"clientTime"`
	RTTMillis  int64  `json:"rtt"`
}

// CommandAckMessage confirms a sequenced command was staged.
type CommandAckMessage struct {
	Ver   int    `json:"ver"`
	Type  string `json:"type"`
	Seq   uint64 `json:"seq"`
	Frame uint64 `json:"frame,omitempty"`
}

// CommandRejectMessage reports a refused sequenced command.
type CommandRejectMessage struct {
	Ver    int    `json:"ver"`
	Type   string `json:"type"`
	Seq    uint64 `json:"seq"`
	Reason string `json:"reason"`
	Retry  bool   `json:"retry,omitempty"`
}
