package savestate

import (
	"testing"

	"emberfall/server/internal/actor"
	"emberfall/server/internal/quality"
	"emberfall/server/internal/world"
)

func testWorld(t *testing.T) *world.World {
	t.Helper()
	profile := quality.Profile{Name: "test", MaxEnemies: 4, MaxBosses: 1, MaxParticles: 8}.Normalized()
	registry := actor.NewRegistry()
	w := world.New(world.Config{Seed: "test", SaveInterval: 1}, registry, nil, profile)
	if _, err := w.SpawnPlayer("p1"); err != nil {
		t.Fatalf("SpawnPlayer: %v", err)
	}
	registry.ApplyPending()
	return w
}

func TestSaverWritesCheckpointAtInterval(t *testing.T) {
	w := testWorld(t)
	store := &MemoryStore{}
	meta := Meta{Frame: 99, Elapsed: 3.3, Preset: "medium"}
	saver := NewSaver(w, store, func() Meta { return meta }, nil)

	saver.Update(0.6)
	if store.Latest() != nil {
		t.Fatal("checkpoint written before the interval elapsed")
	}
	saver.Update(0.6)
	data := store.Latest()
	if data == nil {
		t.Fatal("no checkpoint written after the interval elapsed")
	}

	snapshot, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if snapshot.Frame != 99 || snapshot.Preset != "medium" {
		t.Fatalf("header %+v, want meta frame 99 preset medium", snapshot)
	}
	if snapshot.WorldSeed != "test" {
		t.Fatalf("seed %q, want test", snapshot.WorldSeed)
	}
	if len(snapshot.State.Players) != 1 {
		t.Fatalf("players %d in checkpoint, want 1", len(snapshot.State.Players))
	}
}

func TestSaverAccumulatorResets(t *testing.T) {
	w := testWorld(t)
	store := &MemoryStore{}
	saver := NewSaver(w, store, nil, nil)
	if saver.CadenceDivisor() != saverDivisor {
		t.Fatalf("divisor %d, want %d", saver.CadenceDivisor(), saverDivisor)
	}

	saver.Update(1.0)
	first := store.Latest()
	if first == nil {
		t.Fatal("no checkpoint after a full interval")
	}
	saver.Update(0.2)
	second := store.Latest()
	if string(first) != string(second) {
		t.Fatal("saver wrote again before a fresh interval elapsed")
	}
}

func TestSaverDeadStopsSaving(t *testing.T) {
	w := testWorld(t)
	store := &MemoryStore{}
	saver := NewSaver(w, store, nil, nil)
	saver.MarkDead()
	saver.Update(100)
	if store.Latest() != nil {
		t.Fatal("dead saver still wrote a checkpoint")
	}
}

var _ actor.Subsystem = (*Saver)(nil)
