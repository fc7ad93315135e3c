package world

import "math"

const (
	magicDivisor   = 2
	manaMax        = 100.0
	manaRegenRate  = 6.0
	stormRegenMult = 1.5
)

// MagicSystem regenerates per-player mana. Regen is time-based, so the
// compensated delta keeps the fill rate identical across quality presets.
// Storms charge the air and speed regeneration up.
type MagicSystem struct {
	subsystemBase
	world       *World
	environment *Environment
	mana        map[string]float64
}

func NewMagicSystem(w *World, env *Environment) *MagicSystem {
	return &MagicSystem{
		subsystemBase: subsystemBase{id: "subsystem-magic", divisor: magicDivisor},
		world:         w,
		environment:   env,
		mana:          make(map[string]float64),
	}
}

func (m *MagicSystem) Update(dt float64) {
	if m == nil || m.dead || m.world == nil {
		return
	}
	rate := manaRegenRate
	if m.environment != nil && m.environment.Weather() == WeatherStorm {
		rate *= stormRegenMult
	}
	m.world.ForEachPlayer(func(player *Player) {
		id := player.ID()
		if !player.Alive() {
			delete(m.mana, id)
			return
		}
		current, ok := m.mana[id]
		if !ok {
			current = manaMax
		}
		m.mana[id] = math.Min(manaMax, current+rate*dt)
	})
}

// SpendMana deducts cost if the player has it, reporting success.
func (m *MagicSystem) SpendMana(playerID string, cost float64) bool {
	if m == nil || cost <= 0 {
		return false
	}
	current, ok := m.mana[playerID]
	if !ok || current < cost {
		return false
	}
	m.mana[playerID] = current - cost
	return true
}

func (m *MagicSystem) Mana(playerID string) float64 {
	if m == nil {
		return 0
	}
	return m.mana[playerID]
}
