package savestate

import (
	"testing"
	"time"

	"emberfall/server/internal/world"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	original := Snapshot{
		SavedAt:   time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
		Frame:     4200,
		Elapsed:   140.0,
		Preset:    "medium",
		WorldSeed: "emberfall",
		State: world.Snapshot{
			Players: []world.PlayerView{{ID: "p1", X: 3, Z: -2, Health: 80, MaxHealth: 100, Alive: true}},
			Enemies: []world.EnemyView{{ID: "enemy-1", Archetype: "ghoul", Health: 40, Alive: true, Renderable: true}},
		},
	}

	data, err := Encode(original)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	decoded, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if decoded.Version != FormatVersion {
		t.Fatalf("version %d, want %d", decoded.Version, FormatVersion)
	}
	if decoded.Frame != original.Frame || decoded.Preset != original.Preset {
		t.Fatalf("header mismatch: %+v", decoded)
	}
	if len(decoded.State.Players) != 1 || decoded.State.Players[0].ID != "p1" {
		t.Fatalf("player state mismatch: %+v", decoded.State.Players)
	}
	if len(decoded.State.Enemies) != 1 || !decoded.State.Enemies[0].Renderable {
		t.Fatalf("enemy state mismatch: %+v", decoded.State.Enemies)
	}
}

func TestDecodeRejectsUnknownVersion(t *testing.T) {
	data, err := Encode(Snapshot{Frame: 1})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	var tampered Snapshot
	tampered.Version = FormatVersion + 1
	bad, err := encodeRaw(tampered)
	if err != nil {
		t.Fatalf("encodeRaw: %v", err)
	}
	if _, err := Decode(bad); err == nil {
		t.Fatal("expected version error")
	}
	if _, err := Decode(data); err != nil {
		t.Fatalf("valid snapshot rejected: %v", err)
	}
}

func TestDecodeGarbage(t *testing.T) {
	if _, err := Decode([]byte{0xff, 0x00, 0x13}); err == nil {
		t.Fatal("expected decode error for garbage input")
	}
}
