package sim

// FrameContext is the per-frame ephemeral record handed to schedulers and the
// render trigger. Frame starts at 0 and increments by one per simulated
// frame; the counter is treated as unbounded.
type FrameContext struct {
	Frame   uint64  `json:"frame"`
	Delta   float64 `json:"delta"`
	Elapsed float64 `json:"elapsed"`
}

// DriverConfig tunes the frame driver.
type DriverConfig struct {
	// MaxDelta clamps the per-frame delta in seconds so a stalled host (tab
	// in background, debugger pause) cannot cause a simulation jump.
	MaxDelta float64
	// SweepDivisor is the cadence of the dead-actor sweep.
	SweepDivisor int
}

func DefaultDriverConfig() DriverConfig {
	return DriverConfig{
		MaxDelta:     0.1,
		SweepDivisor: 10,
	}
}

func (cfg DriverConfig) normalized() DriverConfig {
	normalized := cfg
	if normalized.MaxDelta <= 0 {
		normalized.MaxDelta = 0.1
	}
	if normalized.SweepDivisor < 1 {
		normalized.SweepDivisor = 1
	}
	return normalized
}
