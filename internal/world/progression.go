package world

// Progression tracks player levels from accumulated experience. It runs on a
// fixed divisor rather than a profile one: level-ups are not cosmetic, but a
// few frames of latency on them is invisible.
type Progression struct {
	subsystemBase
	world  *World
	levels map[string]int
}

const progressionDivisor = 6

// xpForLevel is the total experience needed to reach a level.
func xpForLevel(level int) int {
	return 50 * level * level
}

func NewProgression(w *World) *Progression {
	return &Progression{
		subsystemBase: subsystemBase{id: "subsystem-progression", divisor: progressionDivisor},
		world:         w,
		levels:        make(map[string]int),
	}
}

func (p *Progression) Update(float64) {
	if p == nil || p.dead || p.world == nil {
		return
	}
	p.world.ForEachPlayer(func(player *Player) {
		id := player.ID()
		level := p.levels[id]
		if level == 0 {
			level = 1
		}
		for player.Experience() >= xpForLevel(level+1) {
			level++
			player.Heal(player.MaxHealth() * 0.25)
		}
		p.levels[id] = level
	})
}

func (p *Progression) Level(playerID string) int {
	if p == nil {
		return 1
	}
	if level, ok := p.levels[playerID]; ok {
		return level
	}
	return 1
}
