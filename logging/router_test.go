package logging_test

import (
	"context"
	"testing"
	"time"

	"emberfall/server/logging"
	"emberfall/server/logging/sinks"
)

func fixedClock(at time.Time) logging.ClockFunc {
	return func() time.Time { return at }
}

func TestRouterDeliversToSinks(t *testing.T) {
	memory := sinks.NewMemorySink()
	now := time.Unix(1700, 0)
	router, err := logging.NewRouter(fixedClock(now), logging.DefaultConfig(), []logging.NamedSink{
		{Name: "memory", Sink: memory},
	})
	if err != nil {
		t.Fatalf("NewRouter: %v", err)
	}

	router.Publish(context.Background(), logging.Event{
		Type:     "frame.state_changed",
		Frame:    3,
		Severity: logging.SeverityInfo,
	})
	if err := router.Close(context.Background()); err != nil {
		t.Fatalf("Close: %v", err)
	}

	events := memory.Events()
	if len(events) != 1 {
		t.Fatalf("delivered %d events, want 1", len(events))
	}
	if events[0].Type != "frame.state_changed" || events[0].Frame != 3 {
		t.Fatalf("unexpected event %+v", events[0])
	}
	if !events[0].Time.Equal(now) {
		t.Fatalf("event time %v, want stamped from the router clock", events[0].Time)
	}
	if stats := router.Stats(); stats.EventsTotal != 1 || stats.DroppedTotal != 0 {
		t.Fatalf("stats %+v, want 1 event and no drops", stats)
	}
}

func TestRouterFiltersBelowMinimumSeverity(t *testing.T) {
	memory := sinks.NewMemorySink()
	cfg := logging.DefaultConfig()
	cfg.MinimumSeverity = logging.SeverityWarn
	router, err := logging.NewRouter(logging.SystemClock{}, cfg, []logging.NamedSink{
		{Name: "memory", Sink: memory},
	})
	if err != nil {
		t.Fatalf("NewRouter: %v", err)
	}

	router.Publish(context.Background(), logging.Event{Type: "debug.noise", Severity: logging.SeverityDebug})
	router.Publish(context.Background(), logging.Event{Type: "network.subscriber_dropped", Severity: logging.SeverityWarn})
	if err := router.Close(context.Background()); err != nil {
		t.Fatalf("Close: %v", err)
	}

	events := memory.Events()
	if len(events) != 1 {
		t.Fatalf("delivered %d events, want only the warning", len(events))
	}
	if events[0].Type != "network.subscriber_dropped" {
		t.Fatalf("delivered %q, want the warning event", events[0].Type)
	}
}

func TestRouterIgnoresUntypedEvents(t *testing.T) {
	memory := sinks.NewMemorySink()
	router, err := logging.NewRouter(logging.SystemClock{}, logging.DefaultConfig(), []logging.NamedSink{
		{Name: "memory", Sink: memory},
	})
	if err != nil {
		t.Fatalf("NewRouter: %v", err)
	}

	router.Publish(context.Background(), logging.Event{Frame: 9})
	if err := router.Close(context.Background()); err != nil {
		t.Fatalf("Close: %v", err)
	}

	if events := memory.Events(); len(events) != 0 {
		t.Fatalf("delivered %d events, want none for an untyped event", len(events))
	}
}

func TestWithFieldsDecoratesEvents(t *testing.T) {
	var captured []logging.Event
	base := logging.PublisherFunc(func(_ context.Context, event logging.Event) {
		captured = append(captured, event)
	})
	pub := logging.WithFields(base, map[string]any{"region": "emberfall"})

	pub.Publish(context.Background(), logging.Event{Type: "lifecycle.player_joined"})
	pub.Publish(context.Background(), logging.Event{
		Type:  "lifecycle.player_joined",
		Extra: map[string]any{"region": "override"},
	})

	if len(captured) != 2 {
		t.Fatalf("captured %d events, want 2", len(captured))
	}
	if captured[0].Extra["region"] != "emberfall" {
		t.Fatalf("extra %v, want decorated region", captured[0].Extra)
	}
	if captured[1].Extra["region"] != "override" {
		t.Fatal("event-supplied fields must not be overwritten")
	}
}
