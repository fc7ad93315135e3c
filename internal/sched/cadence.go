package sched

// ShouldRun reports whether a fixed-cadence subsystem runs this frame. The
// test is keyed only to the frame counter, never to any spatial input.
func ShouldRun(divisor int, frame uint64) bool {
	if divisor <= 1 {
		return true
	}
	return frame%uint64(divisor) == 0
}

// CompensatedDelta scales the frame delta by the cadence divisor so a
// subsystem running every Nth frame still observes wall-clock time. This is
// deliberately the opposite of the enemy scheduler: coarse timers tolerate
// large discrete steps, physics and AI do not.
func CompensatedDelta(dt float64, divisor int) float64 {
	if divisor <= 1 {
		return dt
	}
	return dt * float64(divisor)
}
