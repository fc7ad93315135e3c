package world

import (
	"fmt"
	"math/rand"

	"emberfall/server/internal/actor"
)

const (
	inventoryDivisor = 4
	lootPickupRadius = 2.5
	lootDecayTime    = 30.0
	lootDropChance   = 0.65
)

type LootKind string

const (
	LootEmberShard    LootKind = "ember_shard"
	LootHealthDraught LootKind = "health_draught"
)

type groundLoot struct {
	id   string
	kind LootKind
	pos  actor.Vec3
	ttl  float64
}

// LootSystem drops loot where enemies fall and hands it to players who walk
// over it. It polls for deaths instead of hooking them, so a dropped frame
// never loses a drop: the corpse lingers long past the poll cadence.
type LootSystem struct {
	subsystemBase
	world   *World
	drops   []groundLoot
	dropped map[string]bool
	bags    map[string]map[LootKind]int
	rng     *rand.Rand
	lootSeq int
}

func NewLootSystem(w *World) *LootSystem {
	seed := DefaultSeed
	if w != nil {
		seed = w.cfg.Seed
	}
	return &LootSystem{
		subsystemBase: subsystemBase{id: "subsystem-loot", divisor: inventoryDivisor},
		world:         w,
		dropped:       make(map[string]bool),
		bags:          make(map[string]map[LootKind]int),
		rng:           NewDeterministicRNG(seed, "loot"),
	}
}

func (l *LootSystem) Update(dt float64) {
	if l == nil || l.dead || l.world == nil {
		return
	}
	l.rollDrops()
	l.decay(dt)
	l.collect()
}

func (l *LootSystem) rollDrops() {
	for id, e := range l.world.enemies {
		if e.Alive() || l.dropped[id] {
			continue
		}
		l.dropped[id] = true
		if l.rng.Float64() > lootDropChance {
			continue
		}
		kind := LootEmberShard
		if l.rng.Float64() < 0.3 {
			kind = LootHealthDraught
		}
		l.lootSeq++
		pos, _ := e.Position()
		l.drops = append(l.drops, groundLoot{
			id:   fmt.Sprintf("loot-%d", l.lootSeq),
			kind: kind,
			pos:  pos,
			ttl:  lootDecayTime,
		})
	}
}

func (l *LootSystem) decay(dt float64) {
	kept := l.drops[:0]
	for _, drop := range l.drops {
		drop.ttl -= dt
		if drop.ttl <= 0 {
			continue
		}
		kept = append(kept, drop)
	}
	l.drops = kept
}

func (l *LootSystem) collect() {
	kept := l.drops[:0]
	for _, drop := range l.drops {
		collector := l.playerNear(drop.pos)
		if collector == nil {
			kept = append(kept, drop)
			continue
		}
		bag := l.bags[collector.ID()]
		if bag == nil {
			bag = make(map[LootKind]int)
			l.bags[collector.ID()] = bag
		}
		bag[drop.kind]++
		if drop.kind == LootHealthDraught {
			collector.Heal(25)
		}
	}
	l.drops = kept
}

func (l *LootSystem) playerNear(pos actor.Vec3) *Player {
	var found *Player
	l.world.ForEachPlayer(func(p *Player) {
		if found != nil || !p.Alive() {
			return
		}
		playerPos, _ := p.Position()
		if pos.DistanceTo(playerPos) <= lootPickupRadius {
			found = p
		}
	})
	return found
}

// Bag returns a copy of a player's collected loot counts.
func (l *LootSystem) Bag(playerID string) map[LootKind]int {
	if l == nil {
		return nil
	}
	bag := l.bags[playerID]
	if bag == nil {
		return nil
	}
	copied := make(map[LootKind]int, len(bag))
	for kind, count := range bag {
		copied[kind] = count
	}
	return copied
}

// DropCount reports how many uncollected drops sit on the ground.
func (l *LootSystem) DropCount() int {
	if l == nil {
		return 0
	}
	return len(l.drops)
}
