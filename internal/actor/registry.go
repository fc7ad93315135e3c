package actor

import (
	"fmt"
	"sync"

	"github.com/zyedidia/generic/mapset"
)

// Registry owns every registered actor. It is mutated only by the simulation
// goroutine; external collaborators stage adds and removals through the
// queue methods and the driver applies them between frames.
//
// Indices are assigned uniquely and monotonically at registration and are
// never reused, so two actors can never share a phase offset.
type Registry struct {
	entries   []entry
	byID      map[string]int
	nextIndex int

	pendingMu       sync.Mutex
	pendingAdds     []Actor
	pendingRemovals mapset.Set[string]
}

type entry struct {
	actor Actor
	index int
}

func NewRegistry() *Registry {
	return &Registry{
		byID:            make(map[string]int),
		pendingRemovals: mapset.New[string](),
	}
}

// Add registers an actor immediately and returns its stable index. Adding an
// ID twice is a caller error; the registry asserts against it because index
// uniqueness underpins the phase-offset contract.
func (r *Registry) Add(a Actor) int {
	if r == nil || a == nil {
		return -1
	}
	id := a.ID()
	if _, exists := r.byID[id]; exists {
		panic(fmt.Sprintf("actor: duplicate registration of %q", id))
	}
	index := r.nextIndex
	r.nextIndex++
	r.byID[id] = len(r.entries)
	r.entries = append(r.entries, entry{actor: a, index: index})
	return index
}

// QueueAdd stages an actor for registration at the next frame boundary. Safe
// to call from any goroutine.
func (r *Registry) QueueAdd(a Actor) {
	if r == nil || a == nil {
		return
	}
	r.pendingMu.Lock()
	r.pendingAdds = append(r.pendingAdds, a)
	r.pendingMu.Unlock()
}

// QueueRemove stages a removal for the next frame boundary. Safe to call from
// any goroutine.
func (r *Registry) QueueRemove(id string) {
	if r == nil || id == "" {
		return
	}
	r.pendingMu.Lock()
	r.pendingRemovals.Put(id)
	r.pendingMu.Unlock()
}

// ApplyPending drains the staged adds and removals. Called by the frame
// driver between frames, never mid-iteration.
func (r *Registry) ApplyPending() (added, removed int) {
	if r == nil {
		return 0, 0
	}
	r.pendingMu.Lock()
	adds := r.pendingAdds
	r.pendingAdds = nil
	removals := r.pendingRemovals
	r.pendingRemovals = mapset.New[string]()
	r.pendingMu.Unlock()

	removals.Each(func(id string) {
		if r.removeByID(id) {
			removed++
		}
	})
	for _, a := range adds {
		if removals.Has(a.ID()) {
			continue
		}
		r.Add(a)
		added++
	}
	return added, removed
}

// ForEachAlive visits every actor alive at call time, in registration order,
// with its stable index. The visitor must not mutate the registry; removals
// belong to the sweep. Returning false stops the iteration.
func (r *Registry) ForEachAlive(visit func(a Actor, index int) bool) {
	if r == nil || visit == nil {
		return
	}
	for _, e := range r.entries {
		if !e.actor.Alive() {
			continue
		}
		if !visit(e.actor, e.index) {
			return
		}
	}
}

// ForEachAliveKind is ForEachAlive filtered to one kind.
func (r *Registry) ForEachAliveKind(kind Kind, visit func(a Actor, index int) bool) {
	if r == nil || visit == nil {
		return
	}
	for _, e := range r.entries {
		if e.actor.Kind() != kind || !e.actor.Alive() {
			continue
		}
		if !visit(e.actor, e.index) {
			return
		}
	}
}

// SweepDead removes every actor the predicate matches and returns them. It
// compacts storage, so it must run outside the per-frame iteration; the
// driver gives it a cadence of its own.
func (r *Registry) SweepDead(pred func(a Actor) bool) []Actor {
	if r == nil || pred == nil {
		return nil
	}
	var swept []Actor
	kept := r.entries[:0]
	for _, e := range r.entries {
		if pred(e.actor) {
			swept = append(swept, e.actor)
			continue
		}
		kept = append(kept, e)
	}
	if len(swept) == 0 {
		return nil
	}
	r.entries = kept
	clear(r.byID)
	for pos, e := range r.entries {
		r.byID[e.actor.ID()] = pos
	}
	return swept
}

// Get returns the actor registered under id.
func (r *Registry) Get(id string) (Actor, bool) {
	if r == nil {
		return nil, false
	}
	pos, ok := r.byID[id]
	if !ok {
		return nil, false
	}
	return r.entries[pos].actor, true
}

// IndexOf returns the stable index assigned to id.
func (r *Registry) IndexOf(id string) (int, bool) {
	if r == nil {
		return 0, false
	}
	pos, ok := r.byID[id]
	if !ok {
		return 0, false
	}
	return r.entries[pos].index, true
}

// CountAlive reports the number of alive actors of one kind, used to enforce
// population caps.
func (r *Registry) CountAlive(kind Kind) int {
	if r == nil {
		return 0
	}
	count := 0
	for _, e := range r.entries {
		if e.actor.Kind() == kind && e.actor.Alive() {
			count++
		}
	}
	return count
}

// Len reports the number of registered actors, dead or alive.
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.entries)
}

func (r *Registry) removeByID(id string) bool {
	pos, ok := r.byID[id]
	if !ok {
		return false
	}
	r.entries = append(r.entries[:pos], r.entries[pos+1:]...)
	delete(r.byID, id)
	for p := pos; p < len(r.entries); p++ {
		r.byID[r.entries[p].actor.ID()] = p
	}
	return true
}
