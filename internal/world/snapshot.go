package world

import "sort"

// PlayerView is the broadcast-facing projection of a player.
type PlayerView struct {
	ID         string  `json:"id" msgpack:"id"`
	X          float64 `json:"x" msgpack:"x"`
	Y          float64 `json:"y" msgpack:"y"`
	Z          float64 `json:"z" msgpack:"z"`
	Health     float64 `json:"health" msgpack:"health"`
	MaxHealth  float64 `json:"maxHealth" msgpack:"maxHealth"`
	Experience int     `json:"experience" msgpack:"experience"`
	Kills      int     `json:"kills" msgpack:"kills"`
	Alive      bool    `json:"alive" msgpack:"alive"`
}

// EnemyView is the broadcast-facing projection of an enemy. Renderable
// reflects the scheduler's most recent tiering decision.
type EnemyView struct {
	ID         string  `json:"id" msgpack:"id"`
	Archetype  string  `json:"archetype" msgpack:"archetype"`
	X          float64 `json:"x" msgpack:"x"`
	Y          float64 `json:"y" msgpack:"y"`
	Z          float64 `json:"z" msgpack:"z"`
	Health     float64 `json:"health" msgpack:"health"`
	Alive      bool    `json:"alive" msgpack:"alive"`
	Renderable bool    `json:"renderable" msgpack:"renderable"`
}

// BossView is the broadcast-facing projection of a boss.
type BossView struct {
	ID     string  `json:"id" msgpack:"id"`
	X      float64 `json:"x" msgpack:"x"`
	Y      float64 `json:"y" msgpack:"y"`
	Z      float64 `json:"z" msgpack:"z"`
	Health float64 `json:"health" msgpack:"health"`
	Phase  string  `json:"phase" msgpack:"phase"`
	Alive  bool    `json:"alive" msgpack:"alive"`
}

// Snapshot is a stable-ordered copy of the visible world state.
type Snapshot struct {
	Players []PlayerView `json:"players" msgpack:"players"`
	Enemies []EnemyView  `json:"enemies" msgpack:"enemies"`
	Bosses  []BossView   `json:"bosses" msgpack:"bosses"`
}

// SnapshotState copies the current entity state. IDs are sorted so two
// snapshots of the same state serialize identically.
func (w *World) SnapshotState() Snapshot {
	if w == nil {
		return Snapshot{}
	}
	snapshot := Snapshot{
		Players: make([]PlayerView, 0, len(w.players)),
		Enemies: make([]EnemyView, 0, len(w.enemies)),
		Bosses:  make([]BossView, 0, len(w.bosses)),
	}
	w.playersMu.RLock()
	for _, p := range w.players {
		pos, _ := p.Position()
		snapshot.Players = append(snapshot.Players, PlayerView{
			ID:         p.ID(),
			X:          pos.X,
			Y:          pos.Y,
			Z:          pos.Z,
			Health:     p.Health(),
			MaxHealth:  p.MaxHealth(),
			Experience: p.Experience(),
			Kills:      p.Kills(),
			Alive:      p.Alive(),
		})
	}
	w.playersMu.RUnlock()
	for _, e := range w.enemies {
		pos, _ := e.Position()
		snapshot.Enemies = append(snapshot.Enemies, EnemyView{
			ID:         e.ID(),
			Archetype:  string(e.Archetype()),
			X:          pos.X,
			Y:          pos.Y,
			Z:          pos.Z,
			Health:     e.Health(),
			Alive:      e.Alive(),
			Renderable: e.Renderable(),
		})
	}
	for _, b := range w.bosses {
		pos, _ := b.Position()
		snapshot.Bosses = append(snapshot.Bosses, BossView{
			ID:     b.ID(),
			X:      pos.X,
			Y:      pos.Y,
			Z:      pos.Z,
			Health: b.Health(),
			Phase:  b.Phase().String(),
			Alive:  b.Alive(),
		})
	}
	sort.Slice(snapshot.Players, func(i, j int) bool { return snapshot.Players[i].ID < snapshot.Players[j].ID })
	sort.Slice(snapshot.Enemies, func(i, j int) bool { return snapshot.Enemies[i].ID < snapshot.Enemies[j].ID })
	sort.Slice(snapshot.Bosses, func(i, j int) bool { return snapshot.Bosses[i].ID < snapshot.Bosses[j].ID })
	return snapshot
}
