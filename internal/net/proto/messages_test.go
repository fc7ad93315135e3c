package proto

import (
	"encoding/json"
	"testing"

	"emberfall/server/internal/sim"
)

func TestClientCommandMapping(t *testing.T) {
	tests := []struct {
		name     string
		msg      ClientMessage
		wantType sim.CommandType
		wantOK   bool
	}{
		{name: "input", msg: ClientMessage{Type: TypeInput, DX: 1, DZ: -1}, wantType: sim.CommandInput, wantOK: true},
		{name: "action", msg: ClientMessage{Type: TypeAction, Action: "attack"}, wantType: sim.CommandAction, wantOK: true},
		{name: "action without name", msg: ClientMessage{Type: TypeAction}, wantOK: false},
		{name: "pause", msg: ClientMessage{Type: TypePause}, wantType: sim.CommandPause, wantOK: true},
		{name: "resume", msg: ClientMessage{Type: TypeResume}, wantType: sim.CommandResume, wantOK: true},
		{name: "preset", msg: ClientMessage{Type: TypePreset, Preset: "low"}, wantType: sim.CommandSetPreset, wantOK: true},
		{name: "preset without name", msg: ClientMessage{Type: TypePreset}, wantOK: false},
		{name: "spawn", msg: ClientMessage{Type: TypeSpawn, Archetype: "ghoul", Count: 2}, wantType: sim.CommandSpawn, wantOK: true},
		{name: "spawn without count", msg: ClientMessage{Type: TypeSpawn, Archetype: "ghoul"}, wantOK: false},
		{name: "heartbeat", msg: ClientMessage{Type: TypeHeartbeat, SentAt: 123}, wantType: sim.CommandHeartbeat, wantOK: true},
		{name: "unknown", msg: ClientMessage{Type: "teleport"}, wantOK: false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cmd, ok := ClientCommand(tc.msg)
			if ok != tc.wantOK {
				t.Fatalf("ok=%v, want %v", ok, tc.wantOK)
			}
			if !ok {
				return
			}
			if cmd.Type != tc.wantType {
				t.Fatalf("type %s, want %s", cmd.Type, tc.wantType)
			}
		})
	}
}

func TestClientCommandCarriesPayloads(t *testing.T) {
	cmd, ok := ClientCommand(ClientMessage{Type: TypeInput, DX: 0.5, DY: 0, DZ: -0.5})
	if !ok || cmd.Input == nil {
		t.Fatalf("input command not staged: %+v", cmd)
	}
	if cmd.Input.DX != 0.5 || cmd.Input.DZ != -0.5 {
		t.Fatalf("input payload %+v", cmd.Input)
	}

	cmd, ok = ClientCommand(ClientMessage{Type: TypeSpawn, Archetype: "wisp", Count: 3})
	if !ok || cmd.Spawn == nil || cmd.Spawn.Archetype != "wisp" || cmd.Spawn.Count != 3 {
		t.Fatalf("spawn payload %+v", cmd.Spawn)
	}
}

func TestStateMessageRoundTrip(t *testing.T) {
	msg := StateMessage{
		Ver:    Version,
		Type:   TypeState,
		Frame:  7,
		State:  "running",
		Preset: "medium",
	}
	data, err := json.Marshal(msg)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded["type"] != TypeState {
		t.Fatalf("type %v, want %q", decoded["type"], TypeState)
	}
	if _, present := decoded["barks"]; present {
		t.Fatal("empty barks should be omitted")
	}
}
