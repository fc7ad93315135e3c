// Package intake validates client messages and stages them as simulation
// commands.
package intake

import (
	"time"

	"emberfall/server"
	"emberfall/server/internal/net/proto"
	"emberfall/server/internal/sim"
	"emberfall/server/internal/world"
)

// CommandContext carries the hub capabilities the intake layer needs without
// binding it to the hub type.
type CommandContext struct {
	Enqueue   func(sim.Command) (bool, string)
	HasPlayer func(string) bool
	Frame     func() uint64
	Now       func() time.Time
}

// StageClientCommand validates a client message, stamps it, and stages it for
// the next frame. Returns the staged command, or a rejection reason.
func StageClientCommand(ctx CommandContext, playerID string, msg proto.ClientMessage) (sim.Command, bool, string) {
	var zero sim.Command

	command, ok := proto.ClientCommand(msg)
	if !ok {
		return zero, false, server.CommandRejectInvalidAction
	}

	switch command.Type {
	case sim.CommandInput:
		if command.Input == nil {
			return zero, false, server.CommandRejectInvalidAction
		}
	case sim.CommandAction:
		if command.Action == nil {
			return zero, false, server.CommandRejectInvalidAction
		}
		switch command.Action.Name {
		case server.ActionAttack, server.ActionFirebolt:
		default:
			return zero, false, server.CommandRejectInvalidAction
		}
	case sim.CommandSpawn:
		if command.Spawn == nil || !world.KnownArchetype(world.EnemyArchetype(command.Spawn.Archetype)) {
			return zero, false, server.CommandRejectInvalidAction
		}
	case sim.CommandPause, sim.CommandResume, sim.CommandSetPreset, sim.CommandHeartbeat:
	default:
		return zero, false, server.CommandRejectInvalidAction
	}

	if ctx.HasPlayer != nil && !ctx.HasPlayer(playerID) {
		return zero, false, server.CommandRejectUnknownActor
	}

	command.ActorID = playerID
	if ctx.Frame != nil {
		command.OriginFrame = ctx.Frame()
	}
	if ctx.Now != nil {
		command.IssuedAt = ctx.Now()
	} else {
		command.IssuedAt = time.Now()
	}

	if ctx.Enqueue == nil {
		return zero, false, sim.CommandRejectQueueFull
	}
	if ok, reason := ctx.Enqueue(command); !ok {
		return zero, false, reason
	}

	return command, true, ""
}
