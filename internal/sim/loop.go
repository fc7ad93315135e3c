package sim

import (
	"sync"
	"time"
)

const (
	// CommandRejectQueueLimit indicates a command was dropped due to per-actor
	// queue throttling.
	CommandRejectQueueLimit = "queue_limit"
	// CommandRejectQueueFull indicates the global command buffer is saturated.
	CommandRejectQueueFull = "queue_full"
)

// LoopConfig tunes the command buffer and frame loop orchestration.
type LoopConfig struct {
	TickRate        int
	CommandCapacity int
	PerActorLimit   int
	WarningStep     int
}

func DefaultLoopConfig() LoopConfig {
	return LoopConfig{
		TickRate:        30,
		CommandCapacity: 256,
		PerActorLimit:   8,
		WarningStep:     64,
	}
}

// LoopTickContext describes one pass of the outer loop before the driver has
// advanced.
type LoopTickContext struct {
	Frame uint64
	Now   time.Time
	Delta float64
}

// LoopStepResult captures the outcome of one frame for the AfterStep hook.
type LoopStepResult struct {
	Context  FrameContext
	State    State
	Now      time.Time
	Duration time.Duration
	Budget   time.Duration
	Commands []Command
}

// LoopHooks let the hub observe and steer the loop without owning it.
// Prepare interprets the drained commands before the frame advances;
// AfterStep runs once the frame completed, typically to broadcast state.
type LoopHooks struct {
	Prepare        func(LoopTickContext, []Command)
	AfterStep      func(LoopStepResult)
	OnCommandDrop  func(reason string, cmd Command)
	OnQueueWarning func(length int)
}

// Loop drives the frame driver at a fixed tick rate and owns command
// ingestion. Commands are drained once per frame, at the frame boundary.
type Loop struct {
	driver *Driver
	buffer *CommandBuffer
	hooks  LoopHooks
	config LoopConfig
	deps   Deps

	queueMu    sync.Mutex
	dropCounts map[string]uint64
}

// NewLoop wraps the driver with a ring-buffer command queue and a ticker.
func NewLoop(driver *Driver, cfg LoopConfig, hooks LoopHooks, deps Deps) *Loop {
	if driver == nil {
		return nil
	}
	if cfg.TickRate <= 0 {
		cfg.TickRate = DefaultLoopConfig().TickRate
	}
	if cfg.CommandCapacity <= 0 {
		cfg.CommandCapacity = DefaultLoopConfig().CommandCapacity
	}
	deps = deps.normalized()
	return &Loop{
		driver:     driver,
		buffer:     NewCommandBuffer(cfg.CommandCapacity, cfg.PerActorLimit, deps.Metrics),
		hooks:      hooks,
		config:     cfg,
		deps:       deps,
		dropCounts: make(map[string]uint64),
	}
}

// Driver exposes the wrapped frame driver.
func (l *Loop) Driver() *Driver {
	if l == nil {
		return nil
	}
	return l.driver
}

// Pending reports the number of staged commands.
func (l *Loop) Pending() int {
	if l == nil {
		return 0
	}
	return l.buffer.Len()
}

// Enqueue stages a command. The buffer decides admission; the loop only
// accounts for drops and queue-depth warnings. Safe to call from any
// goroutine.
func (l *Loop) Enqueue(cmd Command) (bool, string) {
	if l == nil {
		return false, CommandRejectQueueFull
	}
	ok, reason := l.buffer.Push(cmd)
	if !ok {
		l.queueMu.Lock()
		dropCount := l.incrementDropLocked(cmd.ActorID)
		l.queueMu.Unlock()
		l.reportDrop(reason, cmd, dropCount)
		return false, reason
	}
	if l.config.WarningStep > 0 {
		length := l.buffer.Len()
		if length >= l.config.WarningStep && length%l.config.WarningStep == 0 {
			l.warnQueue(length)
		}
	}
	return true, ""
}

// Advance executes a single frame using the staged commands.
func (l *Loop) Advance(ctx LoopTickContext) LoopStepResult {
	if l == nil {
		return LoopStepResult{}
	}
	commands := l.drainCommands()
	if l.hooks.Prepare != nil {
		l.hooks.Prepare(ctx, commands)
	}
	fc := l.driver.Advance(ctx.Delta)
	return LoopStepResult{
		Context:  fc,
		State:    l.driver.State(),
		Now:      ctx.Now,
		Commands: commands,
	}
}

// Run drives the frame loop until the stop channel closes. This is the Go
// rendition of the host's per-frame callback: one pass per tick, all
// suspension at the frame boundary.
func (l *Loop) Run(stop <-chan struct{}) {
	if l == nil {
		return
	}
	tickRate := l.config.TickRate
	ticker := time.NewTicker(time.Second / time.Duration(tickRate))
	defer ticker.Stop()

	clock := l.deps.Clock
	last := clock.Now()
	budget := time.Second / time.Duration(tickRate)

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			now := clock.Now()
			dt := now.Sub(last).Seconds()
			if dt <= 0 {
				dt = budget.Seconds()
			}
			last = now

			start := clock.Now()
			result := l.Advance(LoopTickContext{Frame: l.driver.Frame(), Now: now, Delta: dt})
			result.Duration = clock.Now().Sub(start)
			result.Budget = budget

			if l.hooks.AfterStep != nil {
				l.hooks.AfterStep(result)
			}
		}
	}
}

func (l *Loop) drainCommands() []Command {
	return l.buffer.Drain()
}

func (l *Loop) incrementDropLocked(actorID string) uint64 {
	if actorID == "" {
		return 0
	}
	count := l.dropCounts[actorID] + 1
	l.dropCounts[actorID] = count
	return count
}

func (l *Loop) warnQueue(length int) {
	if l.hooks.OnQueueWarning != nil {
		l.hooks.OnQueueWarning(length)
	}
}

func (l *Loop) reportDrop(reason string, cmd Command, count uint64) {
	if l.hooks.OnCommandDrop != nil {
		l.hooks.OnCommandDrop(reason, cmd)
	}
	if reason == CommandRejectQueueLimit && count > 0 && count&(count-1) == 0 {
		l.deps.Logger.Printf(
			"[backpressure] dropping command actor=%s type=%s count=%d limit=%d",
			cmd.ActorID,
			cmd.Type,
			count,
			l.config.PerActorLimit,
		)
	}
}
