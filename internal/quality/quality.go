package quality

import (
	"context"
	"sort"

	"emberfall/server/logging"
	schedlog "emberfall/server/logging/scheduler"
)

// Profile bundles the scheduling and fidelity parameters for one hardware
// class. A profile is immutable once handed to the frame driver; preset swaps
// install a new value between frames.
type Profile struct {
	Name                     string  `json:"name"`
	Rank                     int     `json:"rank"`
	EnemyUpdateDivisor       int     `json:"enemyUpdateDivisor"`
	EnvironmentUpdateDivisor int     `json:"environmentUpdateDivisor"`
	ParticleUpdateDivisor    int     `json:"particleUpdateDivisor"`
	HUDUpdateDivisor         int     `json:"hudUpdateDivisor"`
	RenderDistance           float64 `json:"renderDistance"`
	MaxEnemies               int     `json:"maxEnemies"`
	MaxBosses                int     `json:"maxBosses"`
	MaxParticles             int     `json:"maxParticles"`
}

// Normalized clamps every divisor to at least 1 and the render distance to a
// positive value. A divisor of 1 means "every frame".
func (p Profile) Normalized() Profile {
	normalized := p
	if normalized.EnemyUpdateDivisor < 1 {
		normalized.EnemyUpdateDivisor = 1
	}
	if normalized.EnvironmentUpdateDivisor < 1 {
		normalized.EnvironmentUpdateDivisor = 1
	}
	if normalized.ParticleUpdateDivisor < 1 {
		normalized.ParticleUpdateDivisor = 1
	}
	if normalized.HUDUpdateDivisor < 1 {
		normalized.HUDUpdateDivisor = 1
	}
	if normalized.RenderDistance <= 0 {
		normalized.RenderDistance = DefaultRenderDistance
	}
	if normalized.MaxEnemies < 0 {
		normalized.MaxEnemies = 0
	}
	if normalized.MaxBosses < 0 {
		normalized.MaxBosses = 0
	}
	if normalized.MaxParticles < 0 {
		normalized.MaxParticles = 0
	}
	return normalized
}

const DefaultRenderDistance = 40.0

// Store resolves preset names to profiles. Unknown names fall back to the
// lowest-capability profile: on unknown hardware "slow but runs" beats "fast
// but stutters".
type Store struct {
	profiles  map[string]Profile
	publisher logging.Publisher
}

func NewStore(publisher logging.Publisher) *Store {
	if publisher == nil {
		publisher = logging.NopPublisher()
	}
	store := &Store{
		profiles:  make(map[string]Profile, len(builtinPresets)),
		publisher: publisher,
	}
	for _, preset := range builtinPresets {
		store.profiles[preset.Name] = preset.Normalized()
	}
	return store
}

// Install adds or replaces a preset. The profile is normalized on the way in.
func (s *Store) Install(profile Profile) {
	if s == nil || profile.Name == "" {
		return
	}
	s.profiles[profile.Name] = profile.Normalized()
}

// Resolve returns the named profile, or the lowest-capability profile with a
// warning event when the name is unknown. It never fails.
func (s *Store) Resolve(name string) Profile {
	if s == nil {
		return lowestOf(builtinPresets)
	}
	if profile, ok := s.profiles[name]; ok {
		return profile
	}
	fallback := s.Lowest()
	schedlog.PresetFallback(context.Background(), s.publisher, 0, schedlog.PresetFallbackPayload{
		Requested: name,
		Fallback:  fallback.Name,
	}, nil)
	return fallback
}

// Lowest returns the lowest-capability installed profile.
func (s *Store) Lowest() Profile {
	if s == nil || len(s.profiles) == 0 {
		return lowestOf(builtinPresets)
	}
	profiles := make([]Profile, 0, len(s.profiles))
	for _, profile := range s.profiles {
		profiles = append(profiles, profile)
	}
	return lowestOf(profiles)
}

// Names lists installed preset names ordered by capability rank.
func (s *Store) Names() []string {
	if s == nil {
		return nil
	}
	profiles := make([]Profile, 0, len(s.profiles))
	for _, profile := range s.profiles {
		profiles = append(profiles, profile)
	}
	sort.Slice(profiles, func(i, j int) bool {
		if profiles[i].Rank != profiles[j].Rank {
			return profiles[i].Rank < profiles[j].Rank
		}
		return profiles[i].Name < profiles[j].Name
	})
	names := make([]string, len(profiles))
	for i, profile := range profiles {
		names[i] = profile.Name
	}
	return names
}

func lowestOf(profiles []Profile) Profile {
	lowest := profiles[0]
	for _, profile := range profiles[1:] {
		if profile.Rank < lowest.Rank {
			lowest = profile
		}
	}
	return lowest.Normalized()
}
