package sim

import (
	"context"
	"fmt"

	"emberfall/server/internal/actor"
	"emberfall/server/internal/quality"
	"emberfall/server/internal/sched"
	"emberfall/server/internal/telemetry"
	"emberfall/server/logging"
	framelog "emberfall/server/logging/frame"
	schedlog "emberfall/server/logging/scheduler"
)

// State is the frame-driver lifecycle state.
type State uint8

const (
	StateBooting State = iota
	StateRunning
	StatePaused
	StateGameOver
)

func (s State) String() string {
	switch s {
	case StateBooting:
		return "booting"
	case StateRunning:
		return "running"
	case StatePaused:
		return "paused"
	case StateGameOver:
		return "gameover"
	default:
		return "invalid"
	}
}

const (
	metricFramesTotal       = "sim_frames_total"
	metricEnemyUpdatesTotal = "sched_enemy_updates_total"
	metricEnemiesCulled     = "sched_enemies_culled"
	metricSubsystemRuns     = "sched_subsystem_runs_total"
	metricActorPanicsTotal  = "sim_actor_panics_total"
	metricSweptTotal        = "sim_swept_total"
	metricDeltaClampsTotal  = "sim_delta_clamps_total"
)

// Driver owns the per-frame protocol: clamp the delta, update always-on
// actors, run the tiered scheduler over enemies, run fixed-cadence
// subsystems, sweep on its own cadence, then trigger a render. It is the
// only mutator of the registry and the frame counter.
type Driver struct {
	cfg      DriverConfig
	registry *actor.Registry
	store    *quality.Store

	profile       quality.Profile
	pendingPreset *quality.Profile

	state   State
	frame   uint64
	elapsed float64

	publisher logging.Publisher
	metrics   telemetry.Metrics
	logger    telemetry.Logger

	renderFn       func(FrameContext)
	profileChanged func(quality.Profile)
	onSwept        func(FrameContext, []actor.Actor)
}

// NewDriver builds a driver in the Booting state with the named preset
// active. Unknown preset names resolve to the safety fallback.
func NewDriver(cfg DriverConfig, registry *actor.Registry, store *quality.Store, preset string, deps Deps) *Driver {
	deps = deps.normalized()
	if registry == nil {
		registry = actor.NewRegistry()
	}
	if store == nil {
		store = quality.NewStore(deps.Publisher)
	}
	return &Driver{
		cfg:       cfg.normalized(),
		registry:  registry,
		store:     store,
		profile:   store.Resolve(preset),
		state:     StateBooting,
		publisher: deps.Publisher,
		metrics:   deps.Metrics,
		logger:    deps.Logger,
	}
}

// Registry exposes the actor registry the driver owns.
func (d *Driver) Registry() *actor.Registry {
	if d == nil {
		return nil
	}
	return d.registry
}

// State reports the current lifecycle state.
func (d *Driver) State() State {
	if d == nil {
		return StateBooting
	}
	return d.state
}

// Frame reports the next frame counter value.
func (d *Driver) Frame() uint64 {
	if d == nil {
		return 0
	}
	return d.frame
}

// Elapsed reports the accumulated simulated seconds.
func (d *Driver) Elapsed() float64 {
	if d == nil {
		return 0
	}
	return d.elapsed
}

// Profile returns the profile active for the current frame.
func (d *Driver) Profile() quality.Profile {
	if d == nil {
		return quality.Profile{}
	}
	return d.profile
}

// SetRenderFunc installs the render trigger invoked once per frame after all
// updates.
func (d *Driver) SetRenderFunc(fn func(FrameContext)) {
	if d == nil {
		return
	}
	d.renderFn = fn
}

// SetProfileChanged installs a callback fired when a preset swap takes
// effect, so profile-tuned subsystems can pick up new divisors.
func (d *Driver) SetProfileChanged(fn func(quality.Profile)) {
	if d == nil {
		return
	}
	d.profileChanged = fn
}

// SetSweptFunc installs a callback receiving the actors each sweep removed,
// so owners can drop their references.
func (d *Driver) SetSweptFunc(fn func(FrameContext, []actor.Actor)) {
	if d == nil {
		return
	}
	d.onSwept = fn
}

// RequestPreset stages a preset swap. The resolved profile becomes active at
// the start of the next frame, never retroactively.
func (d *Driver) RequestPreset(name string) {
	if d == nil {
		return
	}
	resolved := d.store.Resolve(name)
	d.pendingPreset = &resolved
}

// FinishBoot transitions Booting to Running once world initialization
// completes.
func (d *Driver) FinishBoot() error {
	return d.transition(StateBooting, StateRunning)
}

// Pause suspends simulation; frames are still presented from the last state.
func (d *Driver) Pause() error {
	return d.transition(StateRunning, StatePaused)
}

// Resume returns from pause to running.
func (d *Driver) Resume() error {
	return d.transition(StatePaused, StateRunning)
}

// GameOver stops the schedulers after a player death.
func (d *Driver) GameOver() error {
	return d.transition(StateRunning, StateGameOver)
}

// Respawn returns from game over to running after the externally timed
// respawn delay.
func (d *Driver) Respawn() error {
	return d.transition(StateGameOver, StateRunning)
}

func (d *Driver) transition(from, to State) error {
	if d == nil {
		return fmt.Errorf("sim: nil driver")
	}
	if d.state != from {
		return fmt.Errorf("sim: invalid transition %s -> %s (current %s)", from, to, d.state)
	}
	d.state = to
	framelog.StateChanged(context.Background(), d.publisher, d.frame, framelog.StateChangedPayload{
		From: from.String(),
		To:   to.String(),
	}, nil)
	return nil
}

// Advance runs one frame. Outside Running it only applies staged registry
// mutations and presents the last state; no scheduler logic executes.
func (d *Driver) Advance(rawDelta float64) FrameContext {
	if d == nil {
		return FrameContext{}
	}

	d.registry.ApplyPending()

	if d.state != StateRunning {
		fc := FrameContext{Frame: d.frame, Delta: 0, Elapsed: d.elapsed}
		if d.state != StateBooting {
			d.render(fc)
		}
		return fc
	}

	dt := rawDelta
	if dt < 0 {
		dt = 0
	}
	if dt > d.cfg.MaxDelta {
		framelog.DeltaClamped(context.Background(), d.publisher, d.frame, framelog.DeltaClampedPayload{
			RawSeconds:     dt,
			ClampedSeconds: d.cfg.MaxDelta,
		}, nil)
		d.addMetric(metricDeltaClampsTotal, 1)
		dt = d.cfg.MaxDelta
	}

	d.applyPendingPreset()

	fc := FrameContext{Frame: d.frame, Delta: dt, Elapsed: d.elapsed + dt}

	d.updateAlwaysOn(fc)
	d.updateEnemies(fc)
	d.updateSubsystems(fc)
	d.sweep(fc)
	d.render(fc)

	d.frame++
	d.elapsed = fc.Elapsed
	d.addMetric(metricFramesTotal, 1)
	return fc
}

func (d *Driver) applyPendingPreset() {
	if d.pendingPreset == nil {
		return
	}
	previous := d.profile
	d.profile = *d.pendingPreset
	d.pendingPreset = nil
	if d.profileChanged != nil {
		d.profileChanged(d.profile)
	}
	schedPresetChanged(d.publisher, d.frame, previous.Name, d.profile.Name)
}

// updateAlwaysOn runs players and bosses unconditionally, before any tiered
// work, so later phases read positions written this frame.
func (d *Driver) updateAlwaysOn(fc FrameContext) {
	d.registry.ForEachAliveKind(actor.KindPlayer, func(a actor.Actor, _ int) bool {
		d.safeUpdate(a, fc)
		return true
	})
	d.registry.ForEachAliveKind(actor.KindBoss, func(a actor.Actor, _ int) bool {
		if renderable, ok := a.(actor.Renderable); ok {
			renderable.SetRenderable(true)
		}
		d.safeUpdate(a, fc)
		return true
	})
}

func (d *Driver) updateEnemies(fc FrameContext) {
	playerPositions := d.alivePlayerPositions()

	d.registry.ForEachAliveKind(actor.KindEnemy, func(a actor.Actor, index int) bool {
		pos, hasPos := actor.Vec3{}, false
		if positioned, ok := a.(actor.Positioned); ok {
			pos, hasPos = positioned.Position()
		}

		anchor, anchored := nearestOf(playerPositions, pos)
		// Without a player anchor distance is undefined; fail open to the
		// base rate rather than freezing the world.
		decision := sched.Decide(fc.Frame, index, pos, hasPos && anchored, anchor, false, d.profile)

		if renderable, ok := a.(actor.Renderable); ok {
			renderable.SetRenderable(decision.Renderable)
		}
		if decision.Tier == sched.TierCulled {
			d.addMetric(metricEnemiesCulled, 1)
		}
		if decision.RunUpdate {
			// Unscaled delta: skipped frames mean less frequent but still
			// delta-accurate simulation steps.
			d.safeUpdate(a, fc)
			d.addMetric(metricEnemyUpdatesTotal, 1)
		}
		return true
	})
}

func (d *Driver) updateSubsystems(fc FrameContext) {
	d.registry.ForEachAliveKind(actor.KindSubsystem, func(a actor.Actor, _ int) bool {
		divisor := 1
		if sub, ok := a.(actor.Subsystem); ok {
			divisor = sub.CadenceDivisor()
		}
		if !sched.ShouldRun(divisor, fc.Frame) {
			return true
		}
		compensated := fc
		compensated.Delta = sched.CompensatedDelta(fc.Delta, divisor)
		d.safeUpdate(a, compensated)
		d.addMetric(metricSubsystemRuns, 1)
		return true
	})
}

func (d *Driver) sweep(fc FrameContext) {
	if !sched.ShouldRun(d.cfg.SweepDivisor, fc.Frame) {
		return
	}
	swept := d.registry.SweepDead(func(a actor.Actor) bool {
		if a.Alive() {
			return false
		}
		if expiring, ok := a.(actor.Expiring); ok {
			return expiring.Expired()
		}
		return true
	})
	if len(swept) > 0 {
		d.addMetric(metricSweptTotal, uint64(len(swept)))
		if d.onSwept != nil {
			d.onSwept(fc, swept)
		}
	}
}

func (d *Driver) render(fc FrameContext) {
	if d.renderFn == nil {
		return
	}
	d.renderFn(fc)
}

// safeUpdate shields the frame loop from a single bad actor: a panicking
// update is logged and the actor marked dead instead of stalling the game.
func (d *Driver) safeUpdate(a actor.Actor, fc FrameContext) {
	defer func() {
		if recovered := recover(); recovered != nil {
			framelog.ActorPanic(context.Background(), d.publisher, fc.Frame, logging.EntityRef{
				ID:   a.ID(),
				Kind: entityKind(a.Kind()),
			}, framelog.ActorPanicPayload{
				Recovered: fmt.Sprint(recovered),
			}, nil)
			d.addMetric(metricActorPanicsTotal, 1)
			d.logger.Printf("actor %s panicked during update: %v", a.ID(), recovered)
			a.MarkDead()
		}
	}()
	a.Update(fc.Delta)
}

func (d *Driver) alivePlayerPositions() []actor.Vec3 {
	var positions []actor.Vec3
	d.registry.ForEachAliveKind(actor.KindPlayer, func(a actor.Actor, _ int) bool {
		if positioned, ok := a.(actor.Positioned); ok {
			if pos, hasPos := positioned.Position(); hasPos {
				positions = append(positions, pos)
			}
		}
		return true
	})
	return positions
}

func nearestOf(candidates []actor.Vec3, from actor.Vec3) (actor.Vec3, bool) {
	if len(candidates) == 0 {
		return actor.Vec3{}, false
	}
	nearest := candidates[0]
	best := from.DistanceTo(nearest)
	for _, candidate := range candidates[1:] {
		if distance := from.DistanceTo(candidate); distance < best {
			nearest = candidate
			best = distance
		}
	}
	return nearest, true
}

func (d *Driver) addMetric(key string, delta uint64) {
	if d.metrics == nil {
		return
	}
	d.metrics.Add(key, delta)
}

func schedPresetChanged(pub logging.Publisher, frame uint64, previous, active string) {
	schedlog.PresetChanged(context.Background(), pub, frame, schedlog.PresetChangedPayload{
		Previous: previous,
		Active:   active,
	}, nil)
}

func entityKind(kind actor.Kind) logging.EntityKind {
	switch kind {
	case actor.KindPlayer:
		return logging.EntityKindPlayer
	case actor.KindEnemy:
		return logging.EntityKindEnemy
	case actor.KindBoss:
		return logging.EntityKindBoss
	case actor.KindSubsystem:
		return logging.EntityKindSubsystem
	default:
		return logging.EntityKindUnknown
	}
}
