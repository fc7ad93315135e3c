package world

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sync"
	"time"

	"emberfall/server/internal/actor"
	"emberfall/server/internal/quality"
	"emberfall/server/logging"
	lifecyclelog "emberfall/server/logging/lifecycle"
	schedlog "emberfall/server/logging/scheduler"
)

// World owns the game entities and the spawn bookkeeping around them. The
// actor registry stays the single source of truth for iteration order and
// indices; the world only holds typed references so gameplay code does not
// type-assert on every hit.
type World struct {
	cfg      Config
	registry *actor.Registry
	pub      logging.Publisher
	now      func() time.Time

	spawnRNG *rand.Rand

	// playersMu guards the players map: joins and disconnects arrive from
	// connection goroutines while the simulation reads it every frame. The
	// enemy and boss maps are touched only on the simulation goroutine.
	playersMu sync.RWMutex
	players   map[string]*Player

	enemies  map[string]*Enemy
	bosses   map[string]*Boss
	profile  quality.Profile
	enemySeq int
	bossSeq  int

	frameHint   func() uint64
	onBossPhase func(bossID string, phase BossPhase)
}

func New(cfg Config, registry *actor.Registry, pub logging.Publisher, profile quality.Profile) *World {
	cfg = cfg.normalized()
	if pub == nil {
		pub = logging.NopPublisher()
	}
	return &World{
		cfg:      cfg,
		registry: registry,
		pub:      pub,
		now:      time.Now,
		spawnRNG: NewDeterministicRNG(cfg.Seed, "spawns"),
		players:  make(map[string]*Player),
		enemies:  make(map[string]*Enemy),
		bosses:   make(map[string]*Boss),
		profile:  profile,
	}
}

// SetFrameHint wires the driver's frame counter so world events carry the
// frame they happened on.
func (w *World) SetFrameHint(hint func() uint64) {
	if w != nil {
		w.frameHint = hint
	}
}

// SetBossPhaseListener registers the callback fired when any boss changes
// phase. Wired to the dialogue subsystem by the hub.
func (w *World) SetBossPhaseListener(fn func(bossID string, phase BossPhase)) {
	if w != nil {
		w.onBossPhase = fn
	}
}

func (w *World) frame() uint64 {
	if w == nil || w.frameHint == nil {
		return 0
	}
	return w.frameHint()
}

func (w *World) Config() Config { return w.cfg }

// Retune records the profile whose population caps gate future spawns.
// Already-spawned actors are never despawned by a downgrade.
func (w *World) Retune(profile quality.Profile) {
	if w == nil {
		return
	}
	w.profile = profile
}

func (w *World) Profile() quality.Profile { return w.profile }

// SpawnPlayer stages a player for registration at the next frame boundary.
// Safe to call from connection goroutines.
func (w *World) SpawnPlayer(id string) (*Player, error) {
	if w == nil {
		return nil, fmt.Errorf("world: not initialized")
	}
	w.playersMu.Lock()
	if _, exists := w.players[id]; exists {
		w.playersMu.Unlock()
		return nil, fmt.Errorf("world: player %q already present", id)
	}
	spawn := w.playerSpawnPoint()
	player := NewPlayer(id, spawn, w.cfg)
	w.players[id] = player
	w.playersMu.Unlock()
	w.registry.QueueAdd(player)
	lifecyclelog.PlayerJoined(context.Background(), w.pub, w.frame(),
		logging.EntityRef{ID: id, Kind: logging.EntityKindPlayer},
		lifecyclelog.PlayerJoinedPayload{SpawnX: spawn.X, SpawnY: spawn.Y, SpawnZ: spawn.Z}, nil)
	return player, nil
}

// RemovePlayer stages removal of a disconnected player.
func (w *World) RemovePlayer(id, reason string) {
	if w == nil {
		return
	}
	w.playersMu.Lock()
	if _, ok := w.players[id]; !ok {
		w.playersMu.Unlock()
		return
	}
	delete(w.players, id)
	w.playersMu.Unlock()
	w.registry.QueueRemove(id)
	lifecyclelog.PlayerDisconnected(context.Background(), w.pub, w.frame(),
		logging.EntityRef{ID: id, Kind: logging.EntityKindPlayer},
		lifecyclelog.PlayerDisconnectedPayload{Reason: reason}, nil)
}

func (w *World) Player(id string) (*Player, bool) {
	if w == nil {
		return nil, false
	}
	w.playersMu.RLock()
	p, ok := w.players[id]
	w.playersMu.RUnlock()
	return p, ok
}

// ForEachPlayer visits every tracked player, dead or alive.
func (w *World) ForEachPlayer(visit func(p *Player)) {
	if w == nil || visit == nil {
		return
	}
	w.playersMu.RLock()
	defer w.playersMu.RUnlock()
	for _, p := range w.players {
		visit(p)
	}
}

func (w *World) playerSpawnPoint() actor.Vec3 {
	angle := randomAngle(w.spawnRNG)
	radius := randomRange(w.spawnRNG, 0, 3)
	return actor.Vec3{X: radius * math.Cos(angle), Z: radius * math.Sin(angle)}
}

// SpawnEnemies queues up to count enemies of the archetype, respecting the
// active profile's enemy cap. Returns how many were actually queued.
func (w *World) SpawnEnemies(archetype EnemyArchetype, count int) (int, error) {
	if w == nil {
		return 0, fmt.Errorf("world: not initialized")
	}
	if !KnownArchetype(archetype) {
		return 0, fmt.Errorf("world: unknown enemy archetype %q", archetype)
	}
	if count <= 0 {
		return 0, nil
	}
	alive := w.registry.CountAlive(actor.KindEnemy) + w.pendingEnemies()
	budget := w.profile.MaxEnemies - alive
	if budget < count {
		over := count
		if budget > 0 {
			over = count - budget
		}
		schedlog.SpawnCapped(context.Background(), w.pub, w.frame(),
			schedlog.SpawnCappedPayload{Kind: actor.KindEnemy.String(), Cap: w.profile.MaxEnemies, Count: over}, nil)
	}
	if budget <= 0 {
		return 0, nil
	}
	spawned := min(count, budget)
	for i := 0; i < spawned; i++ {
		enemy := w.newEnemy(archetype)
		w.registry.QueueAdd(enemy)
		w.enemies[enemy.id] = enemy
	}
	return spawned, nil
}

// pendingEnemies counts enemies queued but not yet registered, so a burst of
// spawn commands inside one frame cannot overshoot the cap.
func (w *World) pendingEnemies() int {
	pending := 0
	for id, e := range w.enemies {
		if _, registered := w.registry.Get(id); !registered && e.Alive() {
			pending++
		}
	}
	return pending
}

func (w *World) newEnemy(archetype EnemyArchetype) *Enemy {
	w.enemySeq++
	id := fmt.Sprintf("enemy-%d", w.enemySeq)
	stats := enemyArchetypes[archetype]
	enemy := &Enemy{
		id:        id,
		archetype: archetype,
		stats:     stats,
		pos:       w.enemySpawnPoint(),
		health:    stats.maxHealth,
		rng:       NewDeterministicRNG(w.cfg.Seed, id),
		bounds:    w.cfg,
		now:       w.now,
	}
	enemy.target = func() (actor.Vec3, bool) {
		return w.NearestAlivePlayer(enemy.pos)
	}
	enemy.onHit = func(damage float64) {
		w.damageNearestPlayer(enemy.pos, enemy.stats.strikeRange*1.5, damage, enemy.id)
	}
	return enemy
}

func (w *World) enemySpawnPoint() actor.Vec3 {
	angle := randomAngle(w.spawnRNG)
	radius := randomRange(w.spawnRNG, w.cfg.Width/8, w.cfg.Width/2)
	return actor.Vec3{X: radius * math.Cos(angle), Z: radius * math.Sin(angle)}
}

// SpawnBoss queues a boss if the profile's boss cap allows another.
func (w *World) SpawnBoss() (*Boss, error) {
	if w == nil {
		return nil, fmt.Errorf("world: not initialized")
	}
	alive := w.registry.CountAlive(actor.KindBoss)
	if alive >= w.profile.MaxBosses {
		schedlog.SpawnCapped(context.Background(), w.pub, w.frame(),
			schedlog.SpawnCappedPayload{Kind: actor.KindBoss.String(), Cap: w.profile.MaxBosses, Count: 1}, nil)
		return nil, nil
	}
	w.bossSeq++
	boss := &Boss{
		id:     fmt.Sprintf("boss-%d", w.bossSeq),
		pos:    actor.Vec3{X: w.cfg.Width / 4, Z: w.cfg.Depth / 4},
		health: bossMaxHealth,
		phase:  BossPhaseOpening,
		bounds: w.cfg,
		now:    w.now,
	}
	boss.target = func() (actor.Vec3, bool) {
		return w.NearestAlivePlayer(boss.pos)
	}
	boss.onHit = func(damage float64) {
		w.damageNearestPlayer(boss.pos, bossStrikeRange*1.5, damage, boss.id)
	}
	boss.onPhaseChange = func(phase BossPhase) {
		if w.onBossPhase != nil {
			w.onBossPhase(boss.id, phase)
		}
	}
	w.registry.QueueAdd(boss)
	w.bosses[boss.id] = boss
	return boss, nil
}

// Populate seeds the initial enemy and boss population from the config.
func (w *World) Populate() error {
	if w == nil {
		return fmt.Errorf("world: not initialized")
	}
	archetypes := []EnemyArchetype{ArchetypeGhoul, ArchetypeSentinel, ArchetypeWisp}
	for i := 0; i < w.cfg.EnemyCount; i++ {
		if _, err := w.SpawnEnemies(archetypes[i%len(archetypes)], 1); err != nil {
			return err
		}
	}
	for i := 0; i < w.cfg.BossCount; i++ {
		if _, err := w.SpawnBoss(); err != nil {
			return err
		}
	}
	return nil
}

// NearestAlivePlayer returns the alive player position closest to from.
func (w *World) NearestAlivePlayer(from actor.Vec3) (actor.Vec3, bool) {
	if w == nil {
		return actor.Vec3{}, false
	}
	w.playersMu.RLock()
	defer w.playersMu.RUnlock()
	best := actor.Vec3{}
	bestDist := -1.0
	for _, p := range w.players {
		if !p.Alive() {
			continue
		}
		pos, _ := p.Position()
		d := from.DistanceTo(pos)
		if bestDist < 0 || d < bestDist {
			best = pos
			bestDist = d
		}
	}
	return best, bestDist >= 0
}

func (w *World) damageNearestPlayer(from actor.Vec3, reach, damage float64, attackerID string) {
	var target *Player
	bestDist := -1.0
	w.playersMu.RLock()
	for _, p := range w.players {
		if !p.Alive() {
			continue
		}
		pos, _ := p.Position()
		d := from.DistanceTo(pos)
		if d > reach {
			continue
		}
		if bestDist < 0 || d < bestDist {
			target = p
			bestDist = d
		}
	}
	w.playersMu.RUnlock()
	if target == nil {
		return
	}
	if target.ApplyDamage(damage) {
		lifecyclelog.PlayerDefeated(context.Background(), w.pub, w.frame(),
			logging.EntityRef{ID: target.ID(), Kind: logging.EntityKindPlayer},
			map[string]any{"attacker": attackerID})
	}
}

// PlayerAttack swings the player's weapon at every enemy and boss within arc.
// Kills award experience to the attacker.
func (w *World) PlayerAttack(playerID string) (hits, kills int) {
	if w == nil {
		return 0, 0
	}
	player, ok := w.Player(playerID)
	if !ok || !player.Alive() {
		return 0, 0
	}
	origin, _ := player.Position()
	for _, e := range w.enemies {
		if !e.Alive() || origin.DistanceTo(e.pos) > playerAttackArc {
			continue
		}
		hits++
		if e.ApplyDamage(playerBaseDamage) {
			kills++
			player.RecordKill(e.Experience())
		}
	}
	for _, b := range w.bosses {
		if !b.Alive() || origin.DistanceTo(b.pos) > playerAttackArc {
			continue
		}
		hits++
		if b.ApplyDamage(playerBaseDamage) {
			kills++
			player.RecordKill(b.Experience())
		}
	}
	return hits, kills
}

// CastFirebolt strikes the nearest living enemy or boss within maxRange of
// the caster. The mana cost is the magic subsystem's concern; this only
// resolves the hit.
func (w *World) CastFirebolt(playerID string, damage, maxRange float64) bool {
	if w == nil {
		return false
	}
	caster, ok := w.Player(playerID)
	if !ok || !caster.Alive() {
		return false
	}
	origin, _ := caster.Position()

	var targetEnemy *Enemy
	var targetBoss *Boss
	bestDist := maxRange
	for _, e := range w.enemies {
		if !e.Alive() {
			continue
		}
		if d := origin.DistanceTo(e.pos); d <= bestDist {
			targetEnemy, targetBoss = e, nil
			bestDist = d
		}
	}
	for _, b := range w.bosses {
		if !b.Alive() {
			continue
		}
		if d := origin.DistanceTo(b.pos); d <= bestDist {
			targetEnemy, targetBoss = nil, b
			bestDist = d
		}
	}
	switch {
	case targetEnemy != nil:
		if targetEnemy.ApplyDamage(damage) {
			caster.RecordKill(targetEnemy.Experience())
		}
	case targetBoss != nil:
		if targetBoss.ApplyDamage(damage) {
			caster.RecordKill(targetBoss.Experience())
		}
	default:
		return false
	}
	return true
}

// AnyPlayerAlive reports whether at least one player is still standing.
func (w *World) AnyPlayerAlive() bool {
	if w == nil {
		return false
	}
	w.playersMu.RLock()
	defer w.playersMu.RUnlock()
	for _, p := range w.players {
		if p.Alive() {
			return true
		}
	}
	return false
}

// HasPlayers reports whether any player has joined at all.
func (w *World) HasPlayers() bool {
	if w == nil {
		return false
	}
	w.playersMu.RLock()
	defer w.playersMu.RUnlock()
	return len(w.players) > 0
}

// RevivePlayers restores every player at a fresh spawn point.
func (w *World) RevivePlayers() {
	if w == nil {
		return
	}
	w.playersMu.RLock()
	defer w.playersMu.RUnlock()
	for _, p := range w.players {
		p.Revive(w.playerSpawnPoint())
	}
}

// Forget drops the typed reference to a swept actor so snapshots stop
// including it. The registry entry is already gone by the time this runs.
func (w *World) Forget(id string) {
	if w == nil {
		return
	}
	delete(w.enemies, id)
	delete(w.bosses, id)
}
