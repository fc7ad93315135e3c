package world

import "emberfall/server/internal/quality"

// HUDView is the per-player heads-up display payload refreshed on the HUD
// cadence rather than every frame.
type HUDView struct {
	PlayerID   string  `json:"playerId"`
	Health     float64 `json:"health"`
	MaxHealth  float64 `json:"maxHealth"`
	Experience int     `json:"experience"`
	Level      int     `json:"level"`
	Kills      int     `json:"kills"`
	TimeOfDay  float64 `json:"timeOfDay"`
	Weather    string  `json:"weather"`
}

// HUDFeed rebuilds the HUD payloads for every player. The feed is allowed to
// lag by up to divisor-1 frames; clients interpolate.
type HUDFeed struct {
	subsystemBase
	world       *World
	environment *Environment
	progression *Progression
	views       map[string]HUDView
}

func NewHUDFeed(w *World, env *Environment, prog *Progression, profile quality.Profile) *HUDFeed {
	return &HUDFeed{
		subsystemBase: subsystemBase{id: "subsystem-hud", divisor: profile.HUDUpdateDivisor},
		world:         w,
		environment:   env,
		progression:   prog,
		views:         make(map[string]HUDView),
	}
}

func (h *HUDFeed) Retune(profile quality.Profile) {
	if h != nil {
		h.divisor = profile.HUDUpdateDivisor
	}
}

func (h *HUDFeed) Update(float64) {
	if h == nil || h.dead || h.world == nil {
		return
	}
	clear(h.views)
	h.world.ForEachPlayer(func(p *Player) {
		id := p.ID()
		view := HUDView{
			PlayerID:   id,
			Health:     p.Health(),
			MaxHealth:  p.MaxHealth(),
			Experience: p.Experience(),
			Kills:      p.Kills(),
		}
		if h.progression != nil {
			view.Level = h.progression.Level(id)
		}
		if h.environment != nil {
			view.TimeOfDay = h.environment.TimeOfDay()
			view.Weather = string(h.environment.Weather())
		}
		h.views[id] = view
	})
}

// Views returns a copy of every player's latest HUD payload.
func (h *HUDFeed) Views() map[string]HUDView {
	if h == nil || len(h.views) == 0 {
		return nil
	}
	copied := make(map[string]HUDView, len(h.views))
	for id, view := range h.views {
		copied[id] = view
	}
	return copied
}

// View returns the most recently built HUD payload for a player.
func (h *HUDFeed) View(playerID string) (HUDView, bool) {
	if h == nil {
		return HUDView{}, false
	}
	view, ok := h.views[playerID]
	return view, ok
}
