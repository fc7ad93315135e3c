package sched

import (
	"emberfall/server/internal/actor"
	"emberfall/server/internal/quality"
)

// Tier is the distance bucket an enemy falls into for one frame.
type Tier uint8

const (
	TierNear Tier = iota
	TierMid
	TierFar
	TierCulled
)

func (t Tier) String() string {
	switch t {
	case TierNear:
		return "near"
	case TierMid:
		return "mid"
	case TierFar:
		return "far"
	case TierCulled:
		return "culled"
	default:
		return "invalid"
	}
}

const (
	// CullMargin widens the render distance before an enemy is culled, so
	// actors sitting on the boundary don't flicker in and out.
	CullMargin = 1.2
	// nearFraction of the render distance bounds the near tier.
	nearFraction = 0.5
)

// Decision is the per-enemy, per-frame verdict of the tiered scheduler. When
// RunUpdate is set the actor receives the unscaled frame delta; skipped
// frames trade temporal resolution for CPU, they are not compensated.
type Decision struct {
	Renderable bool
	RunUpdate  bool
	Tier       Tier
	Divisor    int
	Distance   float64
}

// Decide applies the distance-tier policy for a single enemy.
//
// hasPos=false means the actor carries no spatial anchor: it is never culled
// and runs at the near-tier base rate, because a missing visual proxy must
// not silently disable gameplay logic. exempt marks boss-class actors, which
// always get near-tier treatment regardless of distance.
func Decide(frame uint64, index int, pos actor.Vec3, hasPos bool, playerPos actor.Vec3, exempt bool, profile quality.Profile) Decision {
	base := profile.EnemyUpdateDivisor
	if base < 1 {
		base = 1
	}

	if !hasPos || exempt {
		return Decision{
			Renderable: true,
			RunUpdate:  eligible(frame, index, base),
			Tier:       TierNear,
			Divisor:    base,
		}
	}

	distance := pos.DistanceTo(playerPos)
	renderDistance := profile.RenderDistance

	if distance > renderDistance*CullMargin {
		return Decision{
			Renderable: false,
			RunUpdate:  false,
			Tier:       TierCulled,
			Distance:   distance,
		}
	}

	tier := TierFar
	divisor := base * 4
	switch {
	case distance < renderDistance*nearFraction:
		tier = TierNear
		divisor = base
	case distance < renderDistance:
		tier = TierMid
		divisor = base * 2
	}

	return Decision{
		Renderable: true,
		RunUpdate:  eligible(frame, index, divisor),
		Tier:       tier,
		Divisor:    divisor,
		Distance:   distance,
	}
}

// eligible spreads the actors sharing a divisor across distinct frames. The
// index term is the phase offset: N actors with the same divisor pay their
// update cost on N different frames instead of piling onto one.
func eligible(frame uint64, index int, divisor int) bool {
	if divisor <= 1 {
		return true
	}
	return (frame+uint64(index))%uint64(divisor) == 0
}
