package server

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"emberfall/server/internal/actor"
	"emberfall/server/internal/net/proto"
	"emberfall/server/internal/quality"
	"emberfall/server/internal/savestate"
	"emberfall/server/internal/sim"
	"emberfall/server/internal/telemetry"
	"emberfall/server/internal/world"
	"emberfall/server/logging"
	lifecyclelog "emberfall/server/logging/lifecycle"
	networklog "emberfall/server/logging/network"
)

// ProtocolVersion is the wire protocol revision served to clients.
const ProtocolVersion = proto.Version

// Command rejection reasons shared with the intake layer.
const (
	CommandRejectUnknownActor  = "unknown_actor"
	CommandRejectInvalidAction = "invalid_action"
)

// Player action identifiers.
const (
	ActionAttack   = "attack"
	ActionFirebolt = "firebolt"
)

const (
	fireboltManaCost = 30.0
	fireboltDamage   = 35.0
	fireboltRange    = 18.0
)

// HubConfig bundles everything the hub needs to assemble a simulation.
type HubConfig struct {
	World        world.Config
	Driver       sim.DriverConfig
	Loop         sim.LoopConfig
	Preset       string
	Presets      *quality.Document
	RespawnDelay time.Duration
	SaveStore    savestate.Store
}

func DefaultHubConfig() HubConfig {
	return HubConfig{
		World:        world.DefaultConfig(),
		Driver:       sim.DefaultDriverConfig(),
		Loop:         sim.DefaultLoopConfig(),
		Preset:       quality.DefaultPresetName,
		RespawnDelay: 5 * time.Second,
	}
}

// JoinResponse is returned to a client that joined over HTTP.
type JoinResponse struct {
	ID           string
	ActivePreset string
	Presets      []string
}

// Diagnostics summarizes the last completed frame for the HTTP endpoint.
type Diagnostics struct {
	Frame       uint64  `json:"frame"`
	Elapsed     float64 `json:"elapsed"`
	State       string  `json:"state"`
	Preset      string  `json:"preset"`
	Players     int     `json:"players"`
	Enemies     int     `json:"enemies"`
	Bosses      int     `json:"bosses"`
	Subscribers int     `json:"subscribers"`
	Pending     int     `json:"pendingCommands"`
	// Router throughput, present when the hub publishes through a Router.
	EventsPublished uint64 `json:"eventsPublished"`
	EventsDropped   uint64 `json:"eventsDropped"`
}

// renderState is the immutable copy of the world captured by the render
// phase. Everything the connection goroutines read comes from here, never
// from live simulation state.
type renderState struct {
	frame    uint64
	elapsed  float64
	state    string
	preset   string
	snapshot world.Snapshot
	hud      map[string]world.HUDView
	barks    []world.Bark
}

// Hub wires the frame loop, the world, and the websocket subscribers
// together. It owns the lifecycle decisions the driver exposes: game over
// when the last player falls, respawn after the configured delay.
type Hub struct {
	cfg  HubConfig
	deps sim.Deps

	registry  *actor.Registry
	qualities *quality.Store
	driver    *sim.Driver
	loop      *sim.Loop
	world     *world.World

	environment *world.Environment
	particles   *world.ParticleField
	magic       *world.MagicSystem
	progression *world.Progression
	hud         *world.HUDFeed
	checkpoints *world.CheckpointTracker
	loot        *world.LootSystem
	dialogue    *world.Dialogue
	saver       *savestate.Saver
	saves       *savestate.MemoryStore

	pub    logging.Publisher
	logger telemetry.Logger

	mu           sync.Mutex
	subscribers  map[string]*Subscriber
	respawnTimer *time.Timer

	renderMu   sync.RWMutex
	lastRender renderState

	lastFrame atomic.Uint64
	playerSeq atomic.Uint64

	stopOnce sync.Once
	stop     chan struct{}
}

func NewHub(cfg HubConfig, deps sim.Deps) *Hub {
	pub := deps.Publisher
	if pub == nil {
		pub = logging.NopPublisher()
	}
	logger := deps.Logger
	if logger == nil {
		logger = telemetry.LoggerFunc(func(string, ...any) {})
	}

	h := &Hub{
		cfg:         cfg,
		deps:        deps,
		pub:         pub,
		logger:      logger,
		subscribers: make(map[string]*Subscriber),
		stop:        make(chan struct{}),
	}

	h.registry = actor.NewRegistry()
	h.qualities = quality.NewStore(pub)
	if cfg.Presets != nil {
		h.qualities.ApplyDocument(*cfg.Presets)
	}
	profile := h.qualities.Resolve(cfg.Preset)
	h.world = world.New(cfg.World, h.registry, pub, profile)
	h.world.SetFrameHint(h.lastFrame.Load)

	h.driver = sim.NewDriver(cfg.Driver, h.registry, h.qualities, cfg.Preset, deps)

	h.environment = world.NewEnvironment(cfg.World, profile)
	h.particles = world.NewParticleField(cfg.World, profile)
	h.magic = world.NewMagicSystem(h.world, h.environment)
	h.progression = world.NewProgression(h.world)
	h.hud = world.NewHUDFeed(h.world, h.environment, h.progression, profile)
	h.checkpoints = world.NewCheckpointTracker(h.world)
	h.loot = world.NewLootSystem(h.world)
	h.dialogue = world.NewDialogue(cfg.World)
	h.world.SetBossPhaseListener(h.dialogue.OnBossPhase)

	h.saves = &savestate.MemoryStore{}
	saveStore := cfg.SaveStore
	if saveStore == nil {
		saveStore = h.saves
	}
	h.saver = savestate.NewSaver(h.world, saveStore, func() savestate.Meta {
		return savestate.Meta{
			Frame:   h.driver.Frame(),
			Elapsed: h.driver.Elapsed(),
			Preset:  h.driver.Profile().Name,
		}
	}, logger)

	for _, sub := range []actor.Actor{
		h.environment, h.particles, h.magic, h.progression,
		h.hud, h.checkpoints, h.loot, h.dialogue, h.saver,
	} {
		h.registry.Add(sub)
	}

	h.driver.SetProfileChanged(func(p quality.Profile) {
		h.world.Retune(p)
		h.environment.Retune(p)
		h.particles.Retune(p)
		h.hud.Retune(p)
	})
	h.driver.SetSweptFunc(h.onSwept)
	h.driver.SetRenderFunc(h.render)

	h.loop = sim.NewLoop(h.driver, cfg.Loop, sim.LoopHooks{
		Prepare:   h.applyCommands,
		AfterStep: h.afterStep,
		OnCommandDrop: func(reason string, cmd sim.Command) {
			networklog.CommandRejected(context.Background(), h.pub, h.lastFrame.Load(),
				logging.EntityRef{ID: cmd.ActorID, Kind: logging.EntityKindPlayer},
				networklog.CommandRejectedPayload{Type: string(cmd.Type), Reason: reason}, nil)
		},
		OnQueueWarning: func(length int) {
			h.logger.Printf("[backpressure] command queue depth %d", length)
		},
	}, deps)

	if err := h.world.Populate(); err != nil {
		h.logger.Printf("world population failed: %v", err)
	}
	h.registry.ApplyPending()
	h.render(sim.FrameContext{})

	return h
}

// RunSimulation finishes boot and drives the loop until Stop. Blocks; callers
// run it on its own goroutine.
func (h *Hub) RunSimulation() error {
	if h == nil {
		return fmt.Errorf("server: nil hub")
	}
	if err := h.driver.FinishBoot(); err != nil {
		return err
	}
	h.loop.Run(h.stop)
	return nil
}

// Stop halts the frame loop and cancels any pending respawn.
func (h *Hub) Stop() {
	if h == nil {
		return
	}
	h.stopOnce.Do(func() {
		close(h.stop)
		h.mu.Lock()
		if h.respawnTimer != nil {
			h.respawnTimer.Stop()
			h.respawnTimer = nil
		}
		h.mu.Unlock()
	})
}

// Join creates a player and stages it for the next frame.
func (h *Hub) Join() (JoinResponse, error) {
	if h == nil {
		return JoinResponse{}, fmt.Errorf("server: nil hub")
	}
	id := fmt.Sprintf("player-%d", h.playerSeq.Add(1))
	if _, err := h.world.SpawnPlayer(id); err != nil {
		return JoinResponse{}, err
	}
	return JoinResponse{
		ID:           id,
		ActivePreset: h.ActivePreset(),
		Presets:      h.qualities.Names(),
	}, nil
}

// HasPlayer reports whether the world tracks the given player.
func (h *Hub) HasPlayer(id string) bool {
	if h == nil {
		return false
	}
	_, ok := h.world.Player(id)
	return ok
}

// ActivePreset names the profile active as of the last rendered frame.
func (h *Hub) ActivePreset() string {
	if h == nil {
		return ""
	}
	h.renderMu.RLock()
	defer h.renderMu.RUnlock()
	return h.lastRender.preset
}

// CurrentFrame reports the last rendered frame counter.
func (h *Hub) CurrentFrame() uint64 {
	if h == nil {
		return 0
	}
	return h.lastFrame.Load()
}

// EnqueueCommand stages a command for the next frame boundary.
func (h *Hub) EnqueueCommand(cmd sim.Command) (bool, string) {
	if h == nil {
		return false, sim.CommandRejectQueueFull
	}
	return h.loop.Enqueue(cmd)
}

// Subscribe attaches a websocket connection to a joined player and returns
// the initial state payload. Replaces any previous subscription for the same
// player.
func (h *Hub) Subscribe(playerID string, conn *websocket.Conn) (*Subscriber, []byte, bool) {
	if h == nil || conn == nil {
		return nil, nil, false
	}
	if !h.HasPlayer(playerID) {
		return nil, nil, false
	}
	sub := newSubscriber(playerID, conn)

	h.mu.Lock()
	if previous, ok := h.subscribers[playerID]; ok {
		previous.Close()
	}
	h.subscribers[playerID] = sub
	h.mu.Unlock()

	data, err := h.statePayloadFor(playerID)
	if err != nil {
		h.logger.Printf("initial state marshal failed for %s: %v", playerID, err)
		return sub, nil, true
	}
	return sub, data, true
}

// Disconnect removes the player's subscription and stages the player's
// removal from the world.
func (h *Hub) Disconnect(playerID string) {
	if h == nil {
		return
	}
	h.mu.Lock()
	sub, ok := h.subscribers[playerID]
	if ok {
		delete(h.subscribers, playerID)
	}
	h.mu.Unlock()
	if ok {
		sub.Close()
	}
	h.world.RemovePlayer(playerID, "connection closed")
}

// UpdateHeartbeat records connectivity metadata and returns the estimated
// round trip time.
func (h *Hub) UpdateHeartbeat(playerID string, now time.Time, clientSent int64) (time.Duration, bool) {
	if h == nil {
		return 0, false
	}
	h.mu.Lock()
	sub, ok := h.subscribers[playerID]
	h.mu.Unlock()
	if !ok {
		return 0, false
	}
	rtt := now.Sub(time.UnixMilli(clientSent))
	if rtt < 0 {
		rtt = 0
	}
	sub.recordHeartbeat(now, rtt)
	return rtt, true
}

// LatestSave returns the most recent in-memory checkpoint, if any.
func (h *Hub) LatestSave() []byte {
	if h == nil {
		return nil
	}
	return h.saves.Latest()
}

// Diagnostics summarizes the last rendered frame.
func (h *Hub) Diagnostics() Diagnostics {
	if h == nil {
		return Diagnostics{}
	}
	h.renderMu.RLock()
	render := h.lastRender
	h.renderMu.RUnlock()
	h.mu.Lock()
	subscribers := len(h.subscribers)
	h.mu.Unlock()
	diag := Diagnostics{
		Frame:       render.frame,
		Elapsed:     render.elapsed,
		State:       render.state,
		Preset:      render.preset,
		Players:     len(render.snapshot.Players),
		Enemies:     len(render.snapshot.Enemies),
		Bosses:      len(render.snapshot.Bosses),
		Subscribers: subscribers,
		Pending:     h.loop.Pending(),
	}
	if statser, ok := h.pub.(interface{ Stats() logging.RouterStats }); ok {
		stats := statser.Stats()
		diag.EventsPublished = stats.EventsTotal
		diag.EventsDropped = stats.DroppedTotal
	}
	return diag
}

// applyCommands interprets the frame's drained commands on the simulation
// goroutine, before the driver advances.
func (h *Hub) applyCommands(_ sim.LoopTickContext, commands []sim.Command) {
	for _, cmd := range commands {
		switch cmd.Type {
		case sim.CommandInput:
			if cmd.Input == nil {
				continue
			}
			if player, ok := h.world.Player(cmd.ActorID); ok {
				player.SetIntent(cmd.Input.DX, cmd.Input.DY, cmd.Input.DZ)
			}
		case sim.CommandAction:
			if cmd.Action == nil {
				continue
			}
			h.applyAction(cmd.ActorID, cmd.Action.Name)
		case sim.CommandPause:
			if err := h.driver.Pause(); err != nil {
				h.logger.Printf("pause rejected: %v", err)
			}
		case sim.CommandResume:
			if err := h.driver.Resume(); err != nil {
				h.logger.Printf("resume rejected: %v", err)
			}
		case sim.CommandSetPreset:
			if cmd.Preset != nil {
				h.driver.RequestPreset(cmd.Preset.Name)
			}
		case sim.CommandSpawn:
			if cmd.Spawn == nil {
				continue
			}
			if _, err := h.world.SpawnEnemies(world.EnemyArchetype(cmd.Spawn.Archetype), cmd.Spawn.Count); err != nil {
				h.logger.Printf("spawn rejected: %v", err)
			}
		case sim.CommandRespawn:
			h.world.RevivePlayers()
			if err := h.driver.Respawn(); err != nil {
				h.logger.Printf("respawn rejected: %v", err)
			}
		case sim.CommandHeartbeat:
			// Handled at the connection layer.
		}
	}
}

func (h *Hub) applyAction(playerID, name string) {
	switch name {
	case ActionAttack:
		h.world.PlayerAttack(playerID)
	case ActionFirebolt:
		if !h.magic.SpendMana(playerID, fireboltManaCost) {
			return
		}
		h.world.CastFirebolt(playerID, fireboltDamage, fireboltRange)
	default:
		h.logger.Printf("unknown action %q from %s", name, playerID)
	}
}

// render captures the post-frame world state for subscribers and the
// diagnostics endpoint. Runs on the simulation goroutine.
func (h *Hub) render(fc sim.FrameContext) {
	views := h.hud.Views()
	state := renderState{
		frame:    fc.Frame,
		elapsed:  fc.Elapsed,
		state:    h.driver.State().String(),
		preset:   h.driver.Profile().Name,
		snapshot: h.world.SnapshotState(),
		hud:      views,
		barks:    h.dialogue.DrainBarks(),
	}
	h.renderMu.Lock()
	h.lastRender = state
	h.renderMu.Unlock()
	h.lastFrame.Store(fc.Frame)
}

// afterStep runs lifecycle checks and broadcasts. Runs on the simulation
// goroutine once the frame completed.
func (h *Hub) afterStep(result sim.LoopStepResult) {
	if result.State == sim.StateRunning && h.world.HasPlayers() && !h.world.AnyPlayerAlive() {
		if err := h.driver.GameOver(); err == nil {
			h.scheduleRespawn()
		}
	}
	h.broadcast()
}

func (h *Hub) scheduleRespawn() {
	delay := h.cfg.RespawnDelay
	if delay <= 0 {
		delay = DefaultHubConfig().RespawnDelay
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.respawnTimer != nil {
		return
	}
	h.respawnTimer = time.AfterFunc(delay, func() {
		h.mu.Lock()
		h.respawnTimer = nil
		h.mu.Unlock()
		h.loop.Enqueue(sim.Command{Type: sim.CommandRespawn, IssuedAt: time.Now()})
	})
}

func (h *Hub) onSwept(fc sim.FrameContext, swept []actor.Actor) {
	for _, a := range swept {
		h.world.Forget(a.ID())
		lifecyclelog.ActorSwept(context.Background(), h.pub, fc.Frame,
			logging.EntityRef{ID: a.ID(), Kind: logging.EntityKindEnemy},
			lifecyclelog.ActorSweptPayload{Kind: a.Kind().String()}, nil)
	}
}

func (h *Hub) statePayloadFor(playerID string) ([]byte, error) {
	h.renderMu.RLock()
	render := h.lastRender
	h.renderMu.RUnlock()
	return marshalState(render, playerID)
}

func marshalState(render renderState, playerID string) ([]byte, error) {
	msg := proto.StateMessage{
		Ver:     ProtocolVersion,
		Type:    proto.TypeState,
		Frame:   render.frame,
		Elapsed: render.elapsed,
		State:   render.state,
		Preset:  render.preset,
		World:   render.snapshot,
		Barks:   render.barks,
	}
	if view, ok := render.hud[playerID]; ok {
		msg.HUD = &view
	}
	return json.Marshal(msg)
}

// broadcast fans the rendered frame out to every subscriber, evicting the
// ones whose connections fail.
func (h *Hub) broadcast() {
	h.renderMu.RLock()
	render := h.lastRender
	h.renderMu.RUnlock()

	h.mu.Lock()
	subs := make([]*Subscriber, 0, len(h.subscribers))
	for _, sub := range h.subscribers {
		subs = append(subs, sub)
	}
	h.mu.Unlock()

	for _, sub := range subs {
		data, err := marshalState(render, sub.PlayerID())
		if err != nil {
			h.logger.Printf("state marshal failed for %s: %v", sub.PlayerID(), err)
			continue
		}
		if err := sub.WriteMessage(websocket.TextMessage, data); err != nil {
			networklog.SubscriberDropped(context.Background(), h.pub, render.frame,
				logging.EntityRef{ID: sub.PlayerID(), Kind: logging.EntityKindPlayer},
				networklog.SubscriberDroppedPayload{Error: err.Error()}, nil)
			h.Disconnect(sub.PlayerID())
		}
	}
}
