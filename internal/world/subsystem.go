package world

import "emberfall/server/internal/actor"

// subsystemBase carries the pieces every fixed-cadence subsystem shares.
// Update deltas arrive pre-scaled by the cadence divisor, so subsystems
// accumulate wall-accurate time without knowing how often they run.
type subsystemBase struct {
	id      string
	divisor int
	dead    bool
}

func (s *subsystemBase) ID() string       { return s.id }
func (s *subsystemBase) Kind() actor.Kind { return actor.KindSubsystem }
func (s *subsystemBase) Alive() bool      { return s != nil && !s.dead }

func (s *subsystemBase) MarkDead() {
	if s != nil {
		s.dead = true
	}
}

func (s *subsystemBase) CadenceDivisor() int {
	if s == nil || s.divisor < 1 {
		return 1
	}
	return s.divisor
}
