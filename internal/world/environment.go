package world

import (
	"math"
	"math/rand"

	"emberfall/server/internal/quality"
)

const dayLength = 600.0

type Weather string

const (
	WeatherClear Weather = "clear"
	WeatherFog   Weather = "fog"
	WeatherStorm Weather = "storm"
)

// Environment advances the day/night cycle and rolls weather transitions.
// Compensated deltas keep the clock wall-accurate at every divisor, so a
// lower quality profile never shortens the day.
type Environment struct {
	subsystemBase
	clock        float64
	weather      Weather
	weatherTimer float64
	rng          *rand.Rand
}

func NewEnvironment(cfg Config, profile quality.Profile) *Environment {
	return &Environment{
		subsystemBase: subsystemBase{id: "subsystem-environment", divisor: profile.EnvironmentUpdateDivisor},
		weather:       WeatherClear,
		weatherTimer:  45,
		rng:           NewDeterministicRNG(cfg.Seed, "environment"),
	}
}

func (e *Environment) Retune(profile quality.Profile) {
	if e != nil {
		e.divisor = profile.EnvironmentUpdateDivisor
	}
}

func (e *Environment) Update(dt float64) {
	if e == nil || e.dead {
		return
	}
	e.clock = math.Mod(e.clock+dt, dayLength)
	e.weatherTimer -= dt
	if e.weatherTimer <= 0 {
		e.rollWeather()
	}
}

func (e *Environment) rollWeather() {
	roll := e.rng.Float64()
	switch {
	case roll < 0.6:
		e.weather = WeatherClear
	case roll < 0.85:
		e.weather = WeatherFog
	default:
		e.weather = WeatherStorm
	}
	e.weatherTimer = randomRange(e.rng, 30, 90)
}

// TimeOfDay reports cycle progress in [0, 1).
func (e *Environment) TimeOfDay() float64 {
	if e == nil {
		return 0
	}
	return e.clock / dayLength
}

func (e *Environment) Weather() Weather {
	if e == nil {
		return WeatherClear
	}
	return e.weather
}
