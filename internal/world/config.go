package world

import "strings"

const (
	DefaultSeed   = "emberfall"
	DefaultWidth  = 160.0
	DefaultHeight = 40.0
	DefaultDepth  = 160.0
)

type Config struct {
	Seed         string  `json:"seed"`
	Width        float64 `json:"width"`
	Height       float64 `json:"height"`
	Depth        float64 `json:"depth"`
	EnemyCount   int     `json:"enemyCount"`
	BossCount    int     `json:"bossCount"`
	SaveInterval int     `json:"saveInterval"`
}

func (cfg Config) normalized() Config {
	normalized := cfg
	normalized.Seed = strings.TrimSpace(normalized.Seed)
	if normalized.Seed == "" {
		normalized.Seed = DefaultSeed
	}
	if normalized.Width <= 0 {
		normalized.Width = DefaultWidth
	}
	if normalized.Height <= 0 {
		normalized.Height = DefaultHeight
	}
	if normalized.Depth <= 0 {
		normalized.Depth = DefaultDepth
	}
	if normalized.EnemyCount < 0 {
		normalized.EnemyCount = 0
	}
	if normalized.BossCount < 0 {
		normalized.BossCount = 0
	}
	if normalized.SaveInterval < 1 {
		normalized.SaveInterval = 10
	}
	return normalized
}

func (cfg Config) Normalized() Config {
	return cfg.normalized()
}

func DefaultConfig() Config {
	return Config{
		Seed:         DefaultSeed,
		Width:        DefaultWidth,
		Height:       DefaultHeight,
		Depth:        DefaultDepth,
		EnemyCount:   8,
		BossCount:    1,
		SaveInterval: 10,
	}
}
