package world

import (
	"math/rand"

	"emberfall/server/internal/actor"
	"emberfall/server/internal/quality"
)

const (
	particleBaseLifetime = 2.5
	particleSpawnRate    = 12.0
)

type particle struct {
	pos actor.Vec3
	vel actor.Vec3
	ttl float64
}

// ParticleField simulates ambient world particles. It runs on the profile's
// particle divisor and trims its pool when a downgrade lowers the cap.
type ParticleField struct {
	subsystemBase
	particles []particle
	maxCount  int
	spawnAcc  float64
	rng       *rand.Rand
	bounds    Config
}

func NewParticleField(cfg Config, profile quality.Profile) *ParticleField {
	return &ParticleField{
		subsystemBase: subsystemBase{id: "subsystem-particles", divisor: profile.ParticleUpdateDivisor},
		maxCount:      profile.MaxParticles,
		rng:           NewDeterministicRNG(cfg.Seed, "particles"),
		bounds:        cfg.normalized(),
	}
}

// Retune applies a new profile's divisor and cap. The divisor change takes
// effect on the next cadence check; excess particles die immediately.
func (f *ParticleField) Retune(profile quality.Profile) {
	if f == nil {
		return
	}
	f.divisor = profile.ParticleUpdateDivisor
	f.maxCount = profile.MaxParticles
	if len(f.particles) > f.maxCount {
		f.particles = f.particles[:f.maxCount]
	}
}

func (f *ParticleField) Update(dt float64) {
	if f == nil || f.dead {
		return
	}
	kept := f.particles[:0]
	for _, p := range f.particles {
		p.ttl -= dt
		if p.ttl <= 0 {
			continue
		}
		p.pos = p.pos.Add(p.vel.Scale(dt))
		kept = append(kept, p)
	}
	f.particles = kept

	f.spawnAcc += particleSpawnRate * dt
	for f.spawnAcc >= 1 && len(f.particles) < f.maxCount {
		f.spawnAcc--
		f.particles = append(f.particles, f.spawnOne())
	}
	if f.spawnAcc > 1 {
		f.spawnAcc = 1
	}
}

func (f *ParticleField) spawnOne() particle {
	return particle{
		pos: actor.Vec3{
			X: randomRange(f.rng, -f.bounds.Width/2, f.bounds.Width/2),
			Y: randomRange(f.rng, 0, f.bounds.Height/2),
			Z: randomRange(f.rng, -f.bounds.Depth/2, f.bounds.Depth/2),
		},
		vel: actor.Vec3{Y: randomRange(f.rng, 0.2, 1.2)},
		ttl: randomRange(f.rng, particleBaseLifetime/2, particleBaseLifetime),
	}
}

func (f *ParticleField) Count() int {
	if f == nil {
		return 0
	}
	return len(f.particles)
}
