package quality

import (
	"context"
	"strings"
	"sync"
	"testing"

	"emberfall/server/logging"
	schedlog "emberfall/server/logging/scheduler"
)

type capturePublisher struct {
	mu     sync.Mutex
	events []logging.Event
}

func (p *capturePublisher) Publish(_ context.Context, event logging.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
}

func (p *capturePublisher) all() []logging.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]logging.Event(nil), p.events...)
}

func TestResolveKnownPresets(t *testing.T) {
	store := NewStore(nil)
	for _, name := range []string{"potato", "low", "medium", "high"} {
		profile := store.Resolve(name)
		if profile.Name != name {
			t.Fatalf("Resolve(%q) returned profile %q", name, profile.Name)
		}
		if profile.EnemyUpdateDivisor < 1 {
			t.Fatalf("profile %q has divisor %d", name, profile.EnemyUpdateDivisor)
		}
	}
}

func TestResolveUnknownFallsBackToLowest(t *testing.T) {
	pub := &capturePublisher{}
	store := NewStore(pub)

	profile := store.Resolve("ultra-mega")
	if profile.Name != "potato" {
		t.Fatalf("expected fallback to potato, got %q", profile.Name)
	}

	events := pub.all()
	if len(events) != 1 {
		t.Fatalf("expected one warning event, got %d", len(events))
	}
	if events[0].Type != schedlog.EventPresetFallback {
		t.Fatalf("unexpected event type %q", events[0].Type)
	}
	if events[0].Severity != logging.SeverityWarn {
		t.Fatalf("expected warn severity, got %d", events[0].Severity)
	}
}

func TestResolveNeverFallsBackUpward(t *testing.T) {
	store := NewStore(nil)
	fallback := store.Resolve("nonsense")
	for _, name := range store.Names() {
		if store.Resolve(name).Rank < fallback.Rank {
			t.Fatalf("fallback %q is not the lowest-capability preset", fallback.Name)
		}
	}
}

func TestNormalizedClampsDivisors(t *testing.T) {
	profile := Profile{Name: "broken", EnemyUpdateDivisor: 0, RenderDistance: -3}.Normalized()
	if profile.EnemyUpdateDivisor != 1 {
		t.Fatalf("expected divisor clamp to 1, got %d", profile.EnemyUpdateDivisor)
	}
	if profile.RenderDistance != DefaultRenderDistance {
		t.Fatalf("expected default render distance, got %v", profile.RenderDistance)
	}
}

func TestInstallOverridesPreset(t *testing.T) {
	store := NewStore(nil)
	store.Install(Profile{Name: "medium", Rank: 2, EnemyUpdateDivisor: 7, RenderDistance: 10})
	if got := store.Resolve("medium").EnemyUpdateDivisor; got != 7 {
		t.Fatalf("expected overridden divisor 7, got %d", got)
	}
}

func TestLoadDocument(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		raw := `{"presets":[{"name":"cinema","rank":4,"enemyUpdateDivisor":1,"environmentUpdateDivisor":1,"particleUpdateDivisor":1,"hudUpdateDivisor":1,"renderDistance":80,"maxEnemies":64,"maxBosses":3,"maxParticles":1024}]}`
		doc, err := LoadDocument(strings.NewReader(raw))
		if err != nil {
			t.Fatalf("LoadDocument: %v", err)
		}
		store := NewStore(nil)
		store.ApplyDocument(doc)
		if got := store.Resolve("cinema").RenderDistance; got != 80 {
			t.Fatalf("expected render distance 80, got %v", got)
		}
	})

	t.Run("duplicate name", func(t *testing.T) {
		raw := `{"presets":[{"name":"a","rank":0},{"name":"a","rank":1}]}`
		if _, err := LoadDocument(strings.NewReader(raw)); err == nil {
			t.Fatal("expected error for duplicate preset name")
		}
	})

	t.Run("unknown field", func(t *testing.T) {
		raw := `{"presets":[{"name":"a","rank":0,"bogus":1}]}`
		if _, err := LoadDocument(strings.NewReader(raw)); err == nil {
			t.Fatal("expected error for unknown field")
		}
	})
}
