package savestate

import (
	"os"
	"sync"
	"time"

	"emberfall/server/internal/actor"
	"emberfall/server/internal/telemetry"
	"emberfall/server/internal/world"
)

// Store receives encoded checkpoints. Implementations must tolerate being
// called from the simulation goroutine, so writes should be cheap or
// buffered.
type Store interface {
	Put(data []byte) error
}

// MemoryStore keeps only the latest checkpoint. The diagnostics endpoint
// serves it back for inspection.
type MemoryStore struct {
	mu   sync.Mutex
	data []byte
}

func (s *MemoryStore) Put(data []byte) error {
	s.mu.Lock()
	s.data = append(s.data[:0], data...)
	s.mu.Unlock()
	return nil
}

// Latest returns a copy of the most recent checkpoint, or nil.
func (s *MemoryStore) Latest() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.data) == 0 {
		return nil
	}
	return append([]byte(nil), s.data...)
}

// FileStore overwrites a single checkpoint file on each save.
type FileStore struct {
	Path string
}

func (s *FileStore) Put(data []byte) error {
	return os.WriteFile(s.Path, data, 0o644)
}

// Meta supplies the frame header fields for each checkpoint.
type Meta struct {
	Frame   uint64
	Elapsed float64
	Preset  string
}

// Saver is the fixed-cadence subsystem that writes periodic checkpoints.
// Compensated deltas keep the save interval wall-accurate at any divisor.
type Saver struct {
	id       string
	divisor  int
	dead     bool
	interval float64
	acc      float64

	world  *world.World
	store  Store
	meta   func() Meta
	logger telemetry.Logger
	now    func() time.Time
}

const saverDivisor = 10

func NewSaver(w *world.World, store Store, meta func() Meta, logger telemetry.Logger) *Saver {
	interval := float64(world.DefaultConfig().SaveInterval)
	if w != nil {
		interval = float64(w.Config().SaveInterval)
	}
	if store == nil {
		store = &MemoryStore{}
	}
	return &Saver{
		id:       "subsystem-save",
		divisor:  saverDivisor,
		interval: interval,
		world:    w,
		store:    store,
		meta:     meta,
		logger:   logger,
		now:      time.Now,
	}
}

func (s *Saver) ID() string       { return s.id }
func (s *Saver) Kind() actor.Kind { return actor.KindSubsystem }
func (s *Saver) Alive() bool      { return s != nil && !s.dead }

func (s *Saver) MarkDead() {
	if s != nil {
		s.dead = true
	}
}

func (s *Saver) CadenceDivisor() int {
	if s == nil || s.divisor < 1 {
		return 1
	}
	return s.divisor
}

func (s *Saver) Update(dt float64) {
	if s == nil || s.dead || s.world == nil {
		return
	}
	s.acc += dt
	if s.acc < s.interval {
		return
	}
	s.acc = 0
	if err := s.save(); err != nil && s.logger != nil {
		s.logger.Printf("savestate: checkpoint failed: %v", err)
	}
}

func (s *Saver) save() error {
	snapshot := Snapshot{
		SavedAt:   s.now(),
		WorldSeed: s.world.Config().Seed,
		State:     s.world.SnapshotState(),
	}
	if s.meta != nil {
		meta := s.meta()
		snapshot.Frame = meta.Frame
		snapshot.Elapsed = meta.Elapsed
		snapshot.Preset = meta.Preset
	}
	data, err := Encode(snapshot)
	if err != nil {
		return err
	}
	return s.store.Put(data)
}
