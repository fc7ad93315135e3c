package intake

import (
	"testing"
	"time"

	"emberfall/server"
	"emberfall/server/internal/net/proto"
	"emberfall/server/internal/sim"
)

func acceptingContext(staged *[]sim.Command) CommandContext {
	return CommandContext{
		Enqueue: func(cmd sim.Command) (bool, string) {
			*staged = append(*staged, cmd)
			return true, ""
		},
		HasPlayer: func(string) bool { return true },
		Frame:     func() uint64 { return 42 },
		Now:       func() time.Time { return time.Unix(1000, 0) },
	}
}

func TestStageClientCommandStampsMetadata(t *testing.T) {
	var staged []sim.Command
	ctx := acceptingContext(&staged)

	cmd, ok, reason := StageClientCommand(ctx, "p1", proto.ClientMessage{Type: proto.TypeInput, DX: 1})
	if !ok {
		t.Fatalf("rejected: %s", reason)
	}
	if cmd.ActorID != "p1" {
		t.Fatalf("actor %q, want p1", cmd.ActorID)
	}
	if cmd.OriginFrame != 42 {
		t.Fatalf("origin frame %d, want 42", cmd.OriginFrame)
	}
	if !cmd.IssuedAt.Equal(time.Unix(1000, 0)) {
		t.Fatalf("issued at %v", cmd.IssuedAt)
	}
	if len(staged) != 1 {
		t.Fatalf("staged %d commands, want 1", len(staged))
	}
}

func TestStageClientCommandValidation(t *testing.T) {
	tests := []struct {
		name       string
		msg        proto.ClientMessage
		wantReason string
	}{
		{name: "unknown type", msg: proto.ClientMessage{Type: "fly"}, wantReason: server.CommandRejectInvalidAction},
		{name: "unknown action", msg: proto.ClientMessage{Type: proto.TypeAction, Action: "dance"}, wantReason: server.CommandRejectInvalidAction},
		{name: "unknown archetype", msg: proto.ClientMessage{Type: proto.TypeSpawn, Archetype: "dragon", Count: 1}, wantReason: server.CommandRejectInvalidAction},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var staged []sim.Command
			_, ok, reason := StageClientCommand(acceptingContext(&staged), "p1", tc.msg)
			if ok {
				t.Fatal("expected rejection")
			}
			if reason != tc.wantReason {
				t.Fatalf("reason %q, want %q", reason, tc.wantReason)
			}
			if len(staged) != 0 {
				t.Fatal("rejected command was staged")
			}
		})
	}
}

func TestStageClientCommandUnknownPlayer(t *testing.T) {
	ctx := CommandContext{
		Enqueue:   func(sim.Command) (bool, string) { return true, "" },
		HasPlayer: func(string) bool { return false },
	}
	_, ok, reason := StageClientCommand(ctx, "ghost", proto.ClientMessage{Type: proto.TypeInput})
	if ok || reason != server.CommandRejectUnknownActor {
		t.Fatalf("ok=%v reason=%q, want unknown actor rejection", ok, reason)
	}
}

func TestStageClientCommandQueueRejection(t *testing.T) {
	ctx := CommandContext{
		Enqueue:   func(sim.Command) (bool, string) { return false, sim.CommandRejectQueueLimit },
		HasPlayer: func(string) bool { return true },
	}
	_, ok, reason := StageClientCommand(ctx, "p1", proto.ClientMessage{Type: proto.TypeInput})
	if ok || reason != sim.CommandRejectQueueLimit {
		t.Fatalf("ok=%v reason=%q, want queue limit rejection", ok, reason)
	}
}
