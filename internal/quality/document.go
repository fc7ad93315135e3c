package quality

import (
	"encoding/json"
	"fmt"
	"io"
)

// Document is the designer-authored preset override file. The JSON schema for
// this shape is generated by cmd/qualityschema.
type Document struct {
	Presets []ProfileDocument `json:"presets" jsonschema:"required,description=Quality presets ordered from lowest to highest capability."`
}

// ProfileDocument mirrors Profile with authoring constraints attached.
type ProfileDocument struct {
	Name                     string  `json:"name" jsonschema:"required,description=Unique preset name."`
	Rank                     int     `json:"rank" jsonschema:"required,description=Capability rank; the lowest rank is the fallback preset."`
	EnemyUpdateDivisor       int     `json:"enemyUpdateDivisor" jsonschema:"minimum=1"`
	EnvironmentUpdateDivisor int     `json:"environmentUpdateDivisor" jsonschema:"minimum=1"`
	ParticleUpdateDivisor    int     `json:"particleUpdateDivisor" jsonschema:"minimum=1"`
	HUDUpdateDivisor         int     `json:"hudUpdateDivisor" jsonschema:"minimum=1"`
	RenderDistance           float64 `json:"renderDistance" jsonschema:"minimum=1"`
	MaxEnemies               int     `json:"maxEnemies" jsonschema:"minimum=0"`
	MaxBosses                int     `json:"maxBosses" jsonschema:"minimum=0"`
	MaxParticles             int     `json:"maxParticles" jsonschema:"minimum=0"`
}

// LoadDocument parses a preset document.
func LoadDocument(r io.Reader) (Document, error) {
	var doc Document
	decoder := json.NewDecoder(r)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&doc); err != nil {
		return Document{}, fmt.Errorf("decode preset document: %w", err)
	}
	seen := make(map[string]struct{}, len(doc.Presets))
	for _, preset := range doc.Presets {
		if preset.Name == "" {
			return Document{}, fmt.Errorf("preset document: empty preset name")
		}
		if _, dup := seen[preset.Name]; dup {
			return Document{}, fmt.Errorf("preset document: duplicate preset %q", preset.Name)
		}
		seen[preset.Name] = struct{}{}
	}
	return doc, nil
}

// ApplyDocument installs every preset in the document over the built-ins.
func (s *Store) ApplyDocument(doc Document) {
	if s == nil {
		return
	}
	for _, preset := range doc.Presets {
		s.Install(Profile{
			Name:                     preset.Name,
			Rank:                     preset.Rank,
			EnemyUpdateDivisor:       preset.EnemyUpdateDivisor,
			EnvironmentUpdateDivisor: preset.EnvironmentUpdateDivisor,
			ParticleUpdateDivisor:    preset.ParticleUpdateDivisor,
			HUDUpdateDivisor:         preset.HUDUpdateDivisor,
			RenderDistance:           preset.RenderDistance,
			MaxEnemies:               preset.MaxEnemies,
			MaxBosses:                preset.MaxBosses,
			MaxParticles:             preset.MaxParticles,
		})
	}
}
