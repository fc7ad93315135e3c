package world

import (
	"math"
	"math/rand"
	"time"

	"emberfall/server/internal/actor"
)

type EnemyArchetype string

const (
	ArchetypeGhoul    EnemyArchetype = "ghoul"
	ArchetypeSentinel EnemyArchetype = "sentinel"
	ArchetypeWisp     EnemyArchetype = "wisp"
)

type enemyStats struct {
	maxHealth   float64
	moveSpeed   float64
	aggroRange  float64
	strikeRange float64
	damage      float64
	experience  int
}

var enemyArchetypes = map[EnemyArchetype]enemyStats{
	ArchetypeGhoul:    {maxHealth: 40, moveSpeed: 5.0, aggroRange: 18, strikeRange: 1.8, damage: 8, experience: 12},
	ArchetypeSentinel: {maxHealth: 90, moveSpeed: 3.0, aggroRange: 14, strikeRange: 2.4, damage: 14, experience: 25},
	ArchetypeWisp:     {maxHealth: 20, moveSpeed: 7.5, aggroRange: 24, strikeRange: 1.2, damage: 4, experience: 8},
}

func KnownArchetype(archetype EnemyArchetype) bool {
	_, ok := enemyArchetypes[archetype]
	return ok
}

type enemyState int

const (
	enemyWandering enemyState = iota
	enemyChasing
	enemyStriking
)

const (
	enemyStrikeCooldown = 1.2
	enemyWanderInterval = 3.5
	// How long a defeated enemy keeps its death animation on screen before
	// the sweep is allowed to reclaim it. Wall clock, because dead actors
	// no longer receive updates.
	enemyDeathLinger = 2 * time.Second
)

// Enemy is a tiered actor: the scheduler decides each frame whether it
// updates, and culled enemies freeze in place until a player comes back
// into range. Update always receives the real frame delta.
type Enemy struct {
	id        string
	archetype EnemyArchetype
	stats     enemyStats
	pos       actor.Vec3
	heading   actor.Vec3
	health    float64

	state       enemyState
	strikeTimer float64
	wanderTimer float64

	renderable bool
	dead       bool
	diedAt     time.Time

	target func() (actor.Vec3, bool)
	onHit  func(damage float64)
	rng    *rand.Rand
	bounds Config
	now    func() time.Time
}

func (e *Enemy) ID() string       { return e.id }
func (e *Enemy) Kind() actor.Kind { return actor.KindEnemy }
func (e *Enemy) Alive() bool      { return e != nil && !e.dead }

func (e *Enemy) MarkDead() {
	if e == nil || e.dead {
		return
	}
	e.dead = true
	e.health = 0
	e.diedAt = e.now()
}

func (e *Enemy) Position() (actor.Vec3, bool) {
	if e == nil {
		return actor.Vec3{}, false
	}
	return e.pos, true
}

func (e *Enemy) Renderable() bool { return e != nil && e.renderable }
func (e *Enemy) SetRenderable(on bool) {
	if e != nil {
		e.renderable = on
	}
}

// Expired reports whether the death linger has elapsed and the corpse can be
// swept.
func (e *Enemy) Expired() bool {
	if e == nil || !e.dead {
		return false
	}
	return e.now().Sub(e.diedAt) >= enemyDeathLinger
}

func (e *Enemy) Archetype() EnemyArchetype { return e.archetype }
func (e *Enemy) Health() float64           { return e.health }
func (e *Enemy) Experience() int           { return e.stats.experience }

func (e *Enemy) ApplyDamage(amount float64) bool {
	if e == nil || e.dead || amount <= 0 {
		return false
	}
	e.health -= amount
	if e.health <= 0 {
		e.MarkDead()
		return true
	}
	return false
}

func (e *Enemy) Update(dt float64) {
	if e == nil || e.dead {
		return
	}
	if e.strikeTimer > 0 {
		e.strikeTimer -= dt
	}

	target, ok := e.target()
	if !ok {
		e.wander(dt)
		e.clampToBounds()
		return
	}

	distance := e.pos.DistanceTo(target)
	switch {
	case distance <= e.stats.strikeRange:
		e.state = enemyStriking
		e.strike()
	case distance <= e.stats.aggroRange:
		e.state = enemyChasing
		e.chase(target, dt)
	default:
		e.state = enemyWandering
		e.wander(dt)
	}
	e.clampToBounds()
}

func (e *Enemy) chase(target actor.Vec3, dt float64) {
	direction := target.Sub(e.pos)
	if direction.Length() == 0 {
		return
	}
	e.heading = direction.Normalized()
	e.pos = e.pos.Add(e.heading.Scale(e.stats.moveSpeed * dt))
}

func (e *Enemy) strike() {
	if e.strikeTimer > 0 {
		return
	}
	e.strikeTimer = enemyStrikeCooldown
	if e.onHit != nil {
		e.onHit(e.stats.damage)
	}
}

func (e *Enemy) wander(dt float64) {
	e.wanderTimer -= dt
	if e.wanderTimer <= 0 {
		angle := randomAngle(e.rng)
		e.heading = actor.Vec3{X: math.Cos(angle), Z: math.Sin(angle)}
		e.wanderTimer = randomRange(e.rng, enemyWanderInterval/2, enemyWanderInterval)
	}
	e.pos = e.pos.Add(e.heading.Scale(e.stats.moveSpeed * 0.4 * dt))
}

func (e *Enemy) clampToBounds() {
	half := actor.Vec3{X: e.bounds.Width / 2, Y: e.bounds.Height / 2, Z: e.bounds.Depth / 2}
	e.pos.X = math.Max(-half.X, math.Min(half.X, e.pos.X))
	e.pos.Y = math.Max(-half.Y, math.Min(half.Y, e.pos.Y))
	e.pos.Z = math.Max(-half.Z, math.Min(half.Z, e.pos.Z))
}
