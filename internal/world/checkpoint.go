package world

import "emberfall/server/internal/actor"

const (
	checkpointDivisor  = 8
	checkpointSafeDist = 12.0
)

// CheckpointTracker remembers the last position where each player stood with
// no enemy nearby. Respawns return players there instead of the world origin.
type CheckpointTracker struct {
	subsystemBase
	world  *World
	points map[string]actor.Vec3
}

func NewCheckpointTracker(w *World) *CheckpointTracker {
	return &CheckpointTracker{
		subsystemBase: subsystemBase{id: "subsystem-checkpoint", divisor: checkpointDivisor},
		world:         w,
		points:        make(map[string]actor.Vec3),
	}
}

func (c *CheckpointTracker) Update(float64) {
	if c == nil || c.dead || c.world == nil {
		return
	}
	c.world.ForEachPlayer(func(player *Player) {
		if !player.Alive() {
			return
		}
		pos, _ := player.Position()
		if c.isSafe(pos) {
			c.points[player.ID()] = pos
		}
	})
}

func (c *CheckpointTracker) isSafe(pos actor.Vec3) bool {
	for _, e := range c.world.enemies {
		if !e.Alive() {
			continue
		}
		if pos.DistanceTo(e.pos) < checkpointSafeDist {
			return false
		}
	}
	for _, b := range c.world.bosses {
		if !b.Alive() {
			continue
		}
		if pos.DistanceTo(b.pos) < checkpointSafeDist {
			return false
		}
	}
	return true
}

// Checkpoint returns the last safe position recorded for a player.
func (c *CheckpointTracker) Checkpoint(playerID string) (actor.Vec3, bool) {
	if c == nil {
		return actor.Vec3{}, false
	}
	point, ok := c.points[playerID]
	return point, ok
}
