package world

import (
	"math"

	"emberfall/server/internal/actor"
)

const (
	playerMoveSpeed  = 8.0
	playerMaxHealth  = 100.0
	playerAttackArc  = 4.5
	playerBaseDamage = 18.0
)

// Player is an always-on actor: it runs every frame regardless of quality
// profile or distance tiering.
type Player struct {
	id         string
	pos        actor.Vec3
	intent     actor.Vec3
	health     float64
	maxHealth  float64
	experience int
	kills      int
	renderable bool
	dead       bool

	bounds Config
}

func NewPlayer(id string, spawn actor.Vec3, bounds Config) *Player {
	return &Player{
		id:         id,
		pos:        spawn,
		health:     playerMaxHealth,
		maxHealth:  playerMaxHealth,
		renderable: true,
		bounds:     bounds.normalized(),
	}
}

func (p *Player) ID() string       { return p.id }
func (p *Player) Kind() actor.Kind { return actor.KindPlayer }
func (p *Player) Alive() bool      { return p != nil && !p.dead }
func (p *Player) MarkDead() {
	if p == nil {
		return
	}
	p.dead = true
	p.health = 0
}

func (p *Player) Position() (actor.Vec3, bool) {
	if p == nil {
		return actor.Vec3{}, false
	}
	return p.pos, true
}

func (p *Player) Renderable() bool { return p != nil && p.renderable }
func (p *Player) SetRenderable(on bool) {
	if p != nil {
		p.renderable = on
	}
}

// SetIntent records the latest movement input. The vector is normalized so
// diagonal input does not move faster than cardinal input.
func (p *Player) SetIntent(dx, dy, dz float64) {
	if p == nil {
		return
	}
	intent := actor.Vec3{X: dx, Y: dy, Z: dz}
	if intent.Length() > 1 {
		intent = intent.Normalized()
	}
	p.intent = intent
}

func (p *Player) Update(dt float64) {
	if p == nil || p.dead {
		return
	}
	p.pos = p.pos.Add(p.intent.Scale(playerMoveSpeed * dt))
	p.clampToBounds()
}

func (p *Player) clampToBounds() {
	half := actor.Vec3{X: p.bounds.Width / 2, Y: p.bounds.Height / 2, Z: p.bounds.Depth / 2}
	p.pos.X = math.Max(-half.X, math.Min(half.X, p.pos.X))
	p.pos.Y = math.Max(-half.Y, math.Min(half.Y, p.pos.Y))
	p.pos.Z = math.Max(-half.Z, math.Min(half.Z, p.pos.Z))
}

func (p *Player) Health() float64    { return p.health }
func (p *Player) MaxHealth() float64 { return p.maxHealth }
func (p *Player) Experience() int    { return p.experience }
func (p *Player) Kills() int         { return p.kills }

// ApplyDamage reduces health and reports whether the hit was lethal.
func (p *Player) ApplyDamage(amount float64) bool {
	if p == nil || p.dead || amount <= 0 {
		return false
	}
	p.health -= amount
	if p.health <= 0 {
		p.MarkDead()
		return true
	}
	return false
}

func (p *Player) Heal(amount float64) {
	if p == nil || p.dead || amount <= 0 {
		return
	}
	p.health = math.Min(p.maxHealth, p.health+amount)
}

func (p *Player) RecordKill(experience int) {
	if p == nil {
		return
	}
	p.kills++
	if experience > 0 {
		p.experience += experience
	}
}

// Revive restores the player at the given spawn point after a game over.
func (p *Player) Revive(spawn actor.Vec3) {
	if p == nil {
		return
	}
	p.dead = false
	p.health = p.maxHealth
	p.pos = spawn
	p.intent = actor.Vec3{}
	p.renderable = true
}
