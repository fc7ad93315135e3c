package sim

import "sync"

const (
	metricCommandQueueDepth   = "sim_command_queue_depth"
	metricCommandQueueRejects = "sim_command_queue_rejects_total"
)

// CommandBuffer is the frame-boundary staging queue: a fixed ring of commands
// guarded by a per-actor admission cap. Producers are the connection
// goroutines and the respawn timer; the sole consumer is the frame loop,
// which drains once per frame. Admission is a single decision under one lock,
// so a command is either fully staged or refused with a reason; a refused
// command never holds a per-actor reservation.
type CommandBuffer struct {
	mu    sync.Mutex
	ring  []Command
	head  int
	count int

	perActor      map[string]int
	perActorLimit int

	metrics telemetryMetrics
}

type telemetryMetrics interface {
	Add(string, uint64)
	Store(string, uint64)
}

// NewCommandBuffer sizes the ring and the per-actor cap. A perActorLimit of
// zero or less disables throttling.
func NewCommandBuffer(capacity, perActorLimit int, metrics telemetryMetrics) *CommandBuffer {
	if capacity < 1 {
		capacity = 1
	}
	return &CommandBuffer{
		ring:          make([]Command, capacity),
		perActor:      make(map[string]int),
		perActorLimit: perActorLimit,
		metrics:       metrics,
	}
}

// Capacity reports the ring size.
func (b *CommandBuffer) Capacity() int {
	if b == nil {
		return 0
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.ring)
}

// Push stages a command or reports why it was refused. The per-actor cap is
// checked first so a flooding client exhausts its own allowance before it can
// fill the shared ring.
func (b *CommandBuffer) Push(cmd Command) (bool, string) {
	if b == nil {
		return false, CommandRejectQueueFull
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.perActorLimit > 0 && cmd.ActorID != "" && b.perActor[cmd.ActorID] >= b.perActorLimit {
		b.addMetricLocked(metricCommandQueueRejects, 1)
		return false, CommandRejectQueueLimit
	}
	if b.count == len(b.ring) {
		b.addMetricLocked(metricCommandQueueRejects, 1)
		return false, CommandRejectQueueFull
	}
	b.ring[(b.head+b.count)%len(b.ring)] = cmd
	b.count++
	if cmd.ActorID != "" {
		b.perActor[cmd.ActorID]++
	}
	b.storeDepthLocked()
	return true, ""
}

// Drain hands back the staged commands in arrival order and opens a fresh
// per-actor window for the next frame.
func (b *CommandBuffer) Drain() []Command {
	if b == nil {
		return nil
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.count == 0 {
		return nil
	}
	commands := make([]Command, b.count)
	for i := range commands {
		commands[i] = b.ring[(b.head+i)%len(b.ring)]
	}
	b.head = 0
	b.count = 0
	clear(b.perActor)
	b.storeDepthLocked()
	return commands
}

// Len reports the number of staged commands.
func (b *CommandBuffer) Len() int {
	if b == nil {
		return 0
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.count
}

func (b *CommandBuffer) addMetricLocked(key string, delta uint64) {
	if b.metrics == nil {
		return
	}
	b.metrics.Add(key, delta)
}

func (b *CommandBuffer) storeDepthLocked() {
	if b.metrics == nil {
		return
	}
	b.metrics.Store(metricCommandQueueDepth, uint64(b.count))
}
