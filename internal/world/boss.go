package world

import (
	"math"
	"time"

	"emberfall/server/internal/actor"
)

const (
	bossMaxHealth      = 600.0
	bossBaseSpeed      = 2.5
	bossBaseDamage     = 22.0
	bossStrikeRange    = 3.2
	bossStrikeCooldown = 2.0
	bossExperience     = 250
	bossDeathLinger    = 4 * time.Second
)

// BossPhase escalates as the boss loses health. Bosses never participate in
// distance tiering: the fight must stay correct even when the player runs to
// the far side of the arena.
type BossPhase int

const (
	BossPhaseOpening BossPhase = iota + 1
	BossPhaseFrenzy
	BossPhaseDesperate
)

func (p BossPhase) String() string {
	switch p {
	case BossPhaseOpening:
		return "opening"
	case BossPhaseFrenzy:
		return "frenzy"
	case BossPhaseDesperate:
		return "desperate"
	default:
		return "unknown"
	}
}

type Boss struct {
	id          string
	pos         actor.Vec3
	health      float64
	phase       BossPhase
	strikeTimer float64
	renderable  bool
	dead        bool
	diedAt      time.Time

	target        func() (actor.Vec3, bool)
	onHit         func(damage float64)
	onPhaseChange func(phase BossPhase)
	bounds        Config
	now           func() time.Time
}

func (b *Boss) ID() string       { return b.id }
func (b *Boss) Kind() actor.Kind { return actor.KindBoss }
func (b *Boss) Alive() bool      { return b != nil && !b.dead }

func (b *Boss) MarkDead() {
	if b == nil || b.dead {
		return
	}
	b.dead = true
	b.health = 0
	b.diedAt = b.now()
}

func (b *Boss) Position() (actor.Vec3, bool) {
	if b == nil {
		return actor.Vec3{}, false
	}
	return b.pos, true
}

func (b *Boss) Renderable() bool { return b != nil && b.renderable }
func (b *Boss) SetRenderable(on bool) {
	if b != nil {
		b.renderable = on
	}
}

func (b *Boss) Expired() bool {
	if b == nil || !b.dead {
		return false
	}
	return b.now().Sub(b.diedAt) >= bossDeathLinger
}

func (b *Boss) Health() float64  { return b.health }
func (b *Boss) Phase() BossPhase { return b.phase }
func (b *Boss) Experience() int  { return bossExperience }

func (b *Boss) ApplyDamage(amount float64) bool {
	if b == nil || b.dead || amount <= 0 {
		return false
	}
	b.health -= amount
	if b.health <= 0 {
		b.MarkDead()
		return true
	}
	b.refreshPhase()
	return false
}

func (b *Boss) refreshPhase() {
	fraction := b.health / bossMaxHealth
	next := BossPhaseOpening
	switch {
	case fraction <= 1.0/3.0:
		next = BossPhaseDesperate
	case fraction <= 2.0/3.0:
		next = BossPhaseFrenzy
	}
	if next != b.phase {
		b.phase = next
		if b.onPhaseChange != nil {
			b.onPhaseChange(next)
		}
	}
}

func (b *Boss) speed() float64 {
	switch b.phase {
	case BossPhaseFrenzy:
		return bossBaseSpeed * 1.5
	case BossPhaseDesperate:
		return bossBaseSpeed * 2.2
	default:
		return bossBaseSpeed
	}
}

func (b *Boss) damage() float64 {
	switch b.phase {
	case BossPhaseFrenzy:
		return bossBaseDamage * 1.25
	case BossPhaseDesperate:
		return bossBaseDamage * 1.6
	default:
		return bossBaseDamage
	}
}

func (b *Boss) Update(dt float64) {
	if b == nil || b.dead {
		return
	}
	if b.strikeTimer > 0 {
		b.strikeTimer -= dt
	}
	target, ok := b.target()
	if !ok {
		return
	}
	distance := b.pos.DistanceTo(target)
	if distance <= bossStrikeRange {
		if b.strikeTimer <= 0 {
			b.strikeTimer = bossStrikeCooldown
			if b.onHit != nil {
				b.onHit(b.damage())
			}
		}
		return
	}
	direction := target.Sub(b.pos)
	if direction.Length() == 0 {
		return
	}
	b.pos = b.pos.Add(direction.Normalized().Scale(b.speed() * dt))
	b.clampToBounds()
}

func (b *Boss) clampToBounds() {
	half := actor.Vec3{X: b.bounds.Width / 2, Y: b.bounds.Height / 2, Z: b.bounds.Depth / 2}
	b.pos.X = math.Max(-half.X, math.Min(half.X, b.pos.X))
	b.pos.Y = math.Max(-half.Y, math.Min(half.Y, b.pos.Y))
	b.pos.Z = math.Max(-half.Z, math.Min(half.Z, b.pos.Z))
}
