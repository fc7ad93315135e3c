package sim

import (
	"emberfall/server/internal/telemetry"
	"emberfall/server/logging"
)

// Deps carries shared infrastructure dependencies for the simulation.
type Deps struct {
	Logger    telemetry.Logger
	Metrics   telemetry.Metrics
	Publisher logging.Publisher
	Clock     logging.Clock
}

func (d Deps) normalized() Deps {
	normalized := d
	if normalized.Logger == nil {
		normalized.Logger = telemetry.LoggerFunc(func(string, ...any) {})
	}
	if normalized.Publisher == nil {
		normalized.Publisher = logging.NopPublisher()
	}
	if normalized.Clock == nil {
		normalized.Clock = logging.SystemClock{}
	}
	return normalized
}
