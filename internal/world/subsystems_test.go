package world

import (
	"testing"

	"emberfall/server/internal/actor"
)

func TestParticleFieldRespectsCap(t *testing.T) {
	profile := testProfile()
	profile.MaxParticles = 8
	field := NewParticleField(Config{Seed: "test"}, profile)

	for i := 0; i < 20; i++ {
		field.Update(0.5)
	}
	if field.Count() > 8 {
		t.Fatalf("particle count %d exceeds cap 8", field.Count())
	}
	if field.Count() == 0 {
		t.Fatal("no particles spawned")
	}
}

func TestParticleFieldRetuneTrims(t *testing.T) {
	profile := testProfile()
	profile.MaxParticles = 16
	field := NewParticleField(Config{Seed: "test"}, profile)
	for i := 0; i < 20; i++ {
		field.Update(0.5)
	}
	if field.Count() <= 4 {
		t.Fatalf("need more than 4 particles before retune, have %d", field.Count())
	}

	lower := profile
	lower.MaxParticles = 4
	lower.ParticleUpdateDivisor = 3
	field.Retune(lower)
	if field.Count() != 4 {
		t.Fatalf("count %d after retune, want trimmed to 4", field.Count())
	}
	if field.CadenceDivisor() != 3 {
		t.Fatalf("divisor %d after retune, want 3", field.CadenceDivisor())
	}
}

func TestEnvironmentClockAdvances(t *testing.T) {
	env := NewEnvironment(Config{Seed: "test"}, testProfile())
	env.Update(dayLength / 4)
	if got := env.TimeOfDay(); got != 0.25 {
		t.Fatalf("time of day %v, want 0.25", got)
	}
	env.Update(dayLength)
	if got := env.TimeOfDay(); got != 0.25 {
		t.Fatalf("time of day %v after a full day, want wraparound to 0.25", got)
	}
}

func TestEnvironmentWeatherDeterministic(t *testing.T) {
	run := func() []Weather {
		env := NewEnvironment(Config{Seed: "test"}, testProfile())
		var seen []Weather
		for i := 0; i < 40; i++ {
			env.Update(10)
			seen = append(seen, env.Weather())
		}
		return seen
	}
	first, second := run(), run()
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("weather diverged at step %d: %s vs %s", i, first[i], second[i])
		}
	}
}

func TestMagicRegenAndSpend(t *testing.T) {
	w, _, _ := newTestWorld(t)
	w.SpawnPlayer("p1")
	magic := NewMagicSystem(w, nil)

	magic.Update(0.1)
	if got := magic.Mana("p1"); got != manaMax {
		t.Fatalf("initial mana %v, want full %v", got, manaMax)
	}
	if !magic.SpendMana("p1", 40) {
		t.Fatal("spend with full mana failed")
	}
	if got := magic.Mana("p1"); got != manaMax-40 {
		t.Fatalf("mana %v after spend, want %v", got, manaMax-40)
	}
	magic.Update(5)
	if got := magic.Mana("p1"); got != manaMax-40+manaRegenRate*5 {
		t.Fatalf("mana %v after regen, want %v", got, manaMax-40+manaRegenRate*5)
	}
	if magic.SpendMana("p1", manaMax*2) {
		t.Fatal("overspend succeeded")
	}
}

func TestMagicStormBoostsRegen(t *testing.T) {
	w, _, _ := newTestWorld(t)
	w.SpawnPlayer("p1")
	env := NewEnvironment(Config{Seed: "test"}, testProfile())
	env.weather = WeatherStorm
	magic := NewMagicSystem(w, env)

	magic.Update(0.1)
	magic.SpendMana("p1", 60)
	magic.Update(2)
	want := manaMax - 60 + manaRegenRate*stormRegenMult*2
	if got := magic.Mana("p1"); got != want {
		t.Fatalf("storm regen mana %v, want %v", got, want)
	}
}

func TestProgressionLevelsUp(t *testing.T) {
	w, _, _ := newTestWorld(t)
	player, _ := w.SpawnPlayer("p1")
	prog := NewProgression(w)

	prog.Update(0)
	if prog.Level("p1") != 1 {
		t.Fatalf("starting level %d, want 1", prog.Level("p1"))
	}

	player.RecordKill(xpForLevel(2))
	prog.Update(0)
	if prog.Level("p1") != 2 {
		t.Fatalf("level %d after enough xp, want 2", prog.Level("p1"))
	}

	player.RecordKill(xpForLevel(4) - player.Experience())
	prog.Update(0)
	if prog.Level("p1") != 4 {
		t.Fatalf("level %d after big xp jump, want 4", prog.Level("p1"))
	}
}

func TestCheckpointTracksSafePositions(t *testing.T) {
	w, registry, _ := newTestWorld(t)
	player, _ := w.SpawnPlayer("p1")
	tracker := NewCheckpointTracker(w)

	player.pos = actor.Vec3{X: 20}
	tracker.Update(0)
	point, ok := tracker.Checkpoint("p1")
	if !ok || point.X != 20 {
		t.Fatalf("checkpoint %v ok=%v, want recorded at X=20", point, ok)
	}

	if _, err := w.SpawnEnemies(ArchetypeGhoul, 1); err != nil {
		t.Fatalf("SpawnEnemies: %v", err)
	}
	registry.ApplyPending()
	enemy := firstEnemy(t, w)
	player.pos = actor.Vec3{X: -20}
	enemy.pos = actor.Vec3{X: -22}

	tracker.Update(0)
	point, _ = tracker.Checkpoint("p1")
	if point.X != 20 {
		t.Fatalf("checkpoint moved to %v with an enemy nearby, want kept at X=20", point)
	}
}

func TestLootDecayAndPickup(t *testing.T) {
	w, _, _ := newTestWorld(t)
	player, _ := w.SpawnPlayer("p1")
	loot := NewLootSystem(w)

	player.pos = actor.Vec3{X: 50}
	loot.drops = append(loot.drops,
		groundLoot{id: "loot-a", kind: LootEmberShard, pos: actor.Vec3{X: -50}, ttl: 1.0},
		groundLoot{id: "loot-b", kind: LootHealthDraught, pos: actor.Vec3{X: 50.5}, ttl: 10.0},
	)
	player.ApplyDamage(30)

	loot.Update(0.5)
	if loot.DropCount() != 1 {
		t.Fatalf("drop count %d after pickup, want 1 remaining", loot.DropCount())
	}
	bag := loot.Bag("p1")
	if bag[LootHealthDraught] != 1 {
		t.Fatalf("bag %v, want one health draught", bag)
	}
	if player.Health() != playerMaxHealth-30+25 {
		t.Fatalf("health %v after draught, want %v", player.Health(), playerMaxHealth-30+25)
	}

	loot.Update(2.0)
	if loot.DropCount() != 0 {
		t.Fatalf("drop count %d after decay, want 0", loot.DropCount())
	}
}

func TestLootMarksDeadEnemiesOnce(t *testing.T) {
	w, registry, _ := newTestWorld(t)
	if _, err := w.SpawnEnemies(ArchetypeGhoul, 1); err != nil {
		t.Fatalf("SpawnEnemies: %v", err)
	}
	registry.ApplyPending()
	enemy := firstEnemy(t, w)
	loot := NewLootSystem(w)

	enemy.MarkDead()
	loot.Update(0.1)
	firstCount := loot.DropCount()
	loot.Update(0.1)
	if loot.DropCount() > firstCount {
		t.Fatal("same corpse dropped loot twice")
	}
	if !loot.dropped[enemy.ID()] {
		t.Fatal("corpse not marked as processed")
	}
}

func TestDialogueBossBarks(t *testing.T) {
	dialogue := NewDialogue(Config{Seed: "test"})
	dialogue.OnBossPhase("boss-1", BossPhaseFrenzy)
	dialogue.OnBossPhase("boss-1", BossPhaseOpening)

	barks := dialogue.DrainBarks()
	if len(barks) != 1 {
		t.Fatalf("barks %v, want only the frenzy line", barks)
	}
	if barks[0].Source != "boss-1" {
		t.Fatalf("bark source %q, want boss-1", barks[0].Source)
	}
	if dialogue.DrainBarks() != nil {
		t.Fatal("drain did not clear the queue")
	}
}

func TestDialogueAmbientBarkInterval(t *testing.T) {
	dialogue := NewDialogue(Config{Seed: "test"})
	dialogue.Update(ambientBarkInterval / 2)
	if barks := dialogue.DrainBarks(); barks != nil {
		t.Fatalf("bark before interval elapsed: %v", barks)
	}
	dialogue.Update(ambientBarkInterval / 2)
	if barks := dialogue.DrainBarks(); len(barks) != 1 {
		t.Fatalf("barks %v, want one ambient line", barks)
	}
}

func TestHUDFeedBuildsViews(t *testing.T) {
	w, _, _ := newTestWorld(t)
	player, _ := w.SpawnPlayer("p1")
	env := NewEnvironment(Config{Seed: "test"}, testProfile())
	prog := NewProgression(w)
	hud := NewHUDFeed(w, env, prog, testProfile())

	player.ApplyDamage(25)
	env.Update(dayLength / 2)
	prog.Update(0)
	hud.Update(0)

	view, ok := hud.View("p1")
	if !ok {
		t.Fatal("no HUD view for p1")
	}
	if view.Health != playerMaxHealth-25 {
		t.Fatalf("view health %v, want %v", view.Health, playerMaxHealth-25)
	}
	if view.Level != 1 {
		t.Fatalf("view level %d, want 1", view.Level)
	}
	if view.TimeOfDay != 0.5 {
		t.Fatalf("view time of day %v, want 0.5", view.TimeOfDay)
	}
}

func TestSubsystemRetuneDivisors(t *testing.T) {
	profile := testProfile()
	lower := profile
	lower.EnvironmentUpdateDivisor = 4
	lower.HUDUpdateDivisor = 6

	env := NewEnvironment(Config{Seed: "test"}, profile)
	hud := NewHUDFeed(nil, env, nil, profile)

	env.Retune(lower)
	hud.Retune(lower)
	if env.CadenceDivisor() != 4 {
		t.Fatalf("environment divisor %d, want 4", env.CadenceDivisor())
	}
	if hud.CadenceDivisor() != 6 {
		t.Fatalf("hud divisor %d, want 6", hud.CadenceDivisor())
	}
}

var _ actor.Subsystem = (*ParticleField)(nil)
var _ actor.Subsystem = (*Environment)(nil)
var _ actor.Subsystem = (*MagicSystem)(nil)
var _ actor.Subsystem = (*HUDFeed)(nil)
var _ actor.Subsystem = (*Progression)(nil)
var _ actor.Subsystem = (*CheckpointTracker)(nil)
var _ actor.Subsystem = (*LootSystem)(nil)
var _ actor.Subsystem = (*Dialogue)(nil)
