package server

import (
	"context"
	"testing"
	"time"

	"emberfall/server/internal/actor"
	"emberfall/server/internal/quality"
	"emberfall/server/internal/sim"
	"emberfall/server/logging"
)

func newTestHub(t *testing.T) *Hub {
	t.Helper()
	cfg := DefaultHubConfig()
	cfg.World.EnemyCount = 2
	cfg.World.BossCount = 1
	cfg.RespawnDelay = 10 * time.Millisecond
	hub := NewHub(cfg, sim.Deps{})
	t.Cleanup(hub.Stop)
	return hub
}

func (h *Hub) stepFrame(delta float64) sim.LoopStepResult {
	result := h.loop.Advance(sim.LoopTickContext{Now: time.Now(), Delta: delta})
	h.afterStep(result)
	return result
}

func TestHubJoinCreatesPlayers(t *testing.T) {
	hub := newTestHub(t)

	first, err := hub.Join()
	if err != nil {
		t.Fatalf("Join: %v", err)
	}
	second, err := hub.Join()
	if err != nil {
		t.Fatalf("second Join: %v", err)
	}
	if first.ID == second.ID {
		t.Fatalf("duplicate player id %q", first.ID)
	}
	if !hub.HasPlayer(first.ID) || !hub.HasPlayer(second.ID) {
		t.Fatal("joined players not tracked")
	}
	if first.ActivePreset != "medium" {
		t.Fatalf("active preset %q, want medium", first.ActivePreset)
	}
	if len(first.Presets) == 0 {
		t.Fatal("preset list empty")
	}
}

func TestHubBootPopulatesWorld(t *testing.T) {
	hub := newTestHub(t)
	if got := hub.registry.CountAlive(actor.KindEnemy); got != 2 {
		t.Fatalf("alive enemies %d, want 2", got)
	}
	if got := hub.registry.CountAlive(actor.KindBoss); got != 1 {
		t.Fatalf("alive bosses %d, want 1", got)
	}
	if got := hub.registry.CountAlive(actor.KindSubsystem); got == 0 {
		t.Fatal("no subsystems registered")
	}
}

func TestHubPresetCommandAppliesNextFrame(t *testing.T) {
	hub := newTestHub(t)
	if err := hub.driver.FinishBoot(); err != nil {
		t.Fatalf("FinishBoot: %v", err)
	}
	join, err := hub.Join()
	if err != nil {
		t.Fatalf("Join: %v", err)
	}

	if ok, reason := hub.EnqueueCommand(sim.Command{
		ActorID: join.ID,
		Type:    sim.CommandSetPreset,
		Preset:  &sim.PresetCommand{Name: "potato"},
	}); !ok {
		t.Fatalf("enqueue rejected: %s", reason)
	}

	hub.stepFrame(0.02)
	if got := hub.ActivePreset(); got != "potato" {
		t.Fatalf("active preset %q after swap frame, want potato", got)
	}
	if got := hub.world.Profile().Name; got != "potato" {
		t.Fatalf("world profile %q, want retuned to potato", got)
	}
}

func TestHubPauseAndResume(t *testing.T) {
	hub := newTestHub(t)
	if err := hub.driver.FinishBoot(); err != nil {
		t.Fatalf("FinishBoot: %v", err)
	}

	hub.stepFrame(0.02)
	frameBefore := hub.CurrentFrame()

	hub.EnqueueCommand(sim.Command{Type: sim.CommandPause})
	hub.stepFrame(0.02)
	if hub.driver.State() != sim.StatePaused {
		t.Fatalf("state %s, want paused", hub.driver.State())
	}

	hub.stepFrame(0.02)
	if hub.CurrentFrame() != frameBefore {
		t.Fatal("frame counter advanced while paused")
	}

	hub.EnqueueCommand(sim.Command{Type: sim.CommandResume})
	hub.stepFrame(0.02)
	hub.stepFrame(0.02)
	if hub.CurrentFrame() <= frameBefore {
		t.Fatal("frame counter did not advance after resume")
	}
}

func TestHubSpawnCommand(t *testing.T) {
	hub := newTestHub(t)
	if err := hub.driver.FinishBoot(); err != nil {
		t.Fatalf("FinishBoot: %v", err)
	}
	before := hub.registry.CountAlive(actor.KindEnemy)

	hub.EnqueueCommand(sim.Command{Type: sim.CommandSpawn, Spawn: &sim.SpawnCommand{Archetype: "wisp", Count: 2}})
	hub.stepFrame(0.02)
	hub.stepFrame(0.02)

	after := hub.registry.CountAlive(actor.KindEnemy)
	if after != before+2 {
		t.Fatalf("alive enemies %d, want %d", after, before+2)
	}
}

func TestHubGameOverAndRespawn(t *testing.T) {
	hub := newTestHub(t)
	if err := hub.driver.FinishBoot(); err != nil {
		t.Fatalf("FinishBoot: %v", err)
	}
	join, err := hub.Join()
	if err != nil {
		t.Fatalf("Join: %v", err)
	}
	hub.stepFrame(0.02)

	player, ok := hub.world.Player(join.ID)
	if !ok {
		t.Fatal("player missing")
	}
	player.ApplyDamage(10000)

	hub.stepFrame(0.02)
	if hub.driver.State() != sim.StateGameOver {
		t.Fatalf("state %s after last player died, want gameover", hub.driver.State())
	}

	deadline := time.Now().Add(time.Second)
	for hub.loop.Pending() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if hub.loop.Pending() == 0 {
		t.Fatal("respawn command never enqueued")
	}

	hub.stepFrame(0.02)
	if hub.driver.State() != sim.StateRunning {
		t.Fatalf("state %s after respawn, want running", hub.driver.State())
	}
	if !player.Alive() {
		t.Fatal("player not revived")
	}
}

func TestHubDiagnostics(t *testing.T) {
	hub := newTestHub(t)
	if err := hub.driver.FinishBoot(); err != nil {
		t.Fatalf("FinishBoot: %v", err)
	}
	if _, err := hub.Join(); err != nil {
		t.Fatalf("Join: %v", err)
	}
	hub.stepFrame(0.02)

	diag := hub.Diagnostics()
	if diag.State != "running" {
		t.Fatalf("diagnostics state %q, want running", diag.State)
	}
	if diag.Players != 1 {
		t.Fatalf("diagnostics players %d, want 1", diag.Players)
	}
	if diag.Enemies != 2 {
		t.Fatalf("diagnostics enemies %d, want 2", diag.Enemies)
	}
	if diag.Preset != "medium" {
		t.Fatalf("diagnostics preset %q, want medium", diag.Preset)
	}
}

func TestHubAppliesPresetDocument(t *testing.T) {
	cfg := DefaultHubConfig()
	cfg.Presets = &quality.Document{
		Presets: []quality.ProfileDocument{
			{
				Name:                     "cinematic",
				Rank:                     5,
				EnemyUpdateDivisor:       1,
				EnvironmentUpdateDivisor: 1,
				ParticleUpdateDivisor:    1,
				HUDUpdateDivisor:         1,
				RenderDistance:           200,
				MaxEnemies:               128,
				MaxBosses:                4,
				MaxParticles:             4096,
			},
			{Name: "medium", Rank: 2, EnemyUpdateDivisor: 3, RenderDistance: 90, MaxEnemies: 48},
		},
	}
	cfg.Preset = "cinematic"
	hub := NewHub(cfg, sim.Deps{})
	t.Cleanup(hub.Stop)

	if got := hub.world.Profile().Name; got != "cinematic" {
		t.Fatalf("world profile %q, want the document preset", got)
	}
	if got := hub.qualities.Resolve("medium").MaxEnemies; got != 48 {
		t.Fatalf("overridden medium MaxEnemies %d, want 48", got)
	}
	join, err := hub.Join()
	if err != nil {
		t.Fatalf("Join: %v", err)
	}
	found := false
	for _, name := range join.Presets {
		if name == "cinematic" {
			found = true
		}
	}
	if !found {
		t.Fatalf("preset list %v missing the document preset", join.Presets)
	}
}

type statsPublisher struct {
	stats logging.RouterStats
}

func (p *statsPublisher) Publish(context.Context, logging.Event) {}

func (p *statsPublisher) Stats() logging.RouterStats { return p.stats }

func TestHubDiagnosticsReportRouterStats(t *testing.T) {
	cfg := DefaultHubConfig()
	pub := &statsPublisher{stats: logging.RouterStats{EventsTotal: 42, DroppedTotal: 3}}
	hub := NewHub(cfg, sim.Deps{Publisher: pub})
	t.Cleanup(hub.Stop)

	diag := hub.Diagnostics()
	if diag.EventsPublished != 42 {
		t.Fatalf("events published %d, want 42", diag.EventsPublished)
	}
	if diag.EventsDropped != 3 {
		t.Fatalf("events dropped %d, want 3", diag.EventsDropped)
	}
}

func TestHubSaverWritesCheckpoints(t *testing.T) {
	cfg := DefaultHubConfig()
	cfg.World.SaveInterval = 1
	hub := NewHub(cfg, sim.Deps{})
	t.Cleanup(hub.Stop)
	if err := hub.driver.FinishBoot(); err != nil {
		t.Fatalf("FinishBoot: %v", err)
	}

	// Saver runs every 10th frame with a compensated delta, so 20 frames of
	// 0.1s cover two seconds of simulated time against a one second interval.
	for i := 0; i < 20; i++ {
		hub.stepFrame(0.1)
	}
	if hub.LatestSave() == nil {
		t.Fatal("no checkpoint written")
	}
}
