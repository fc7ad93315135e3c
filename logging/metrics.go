package logging

import "sync"

// Metrics is a process-wide counter and gauge registry. Writers are the
// simulation goroutine and the network handlers; readers are the diagnostics
// endpoint and tests.
type Metrics struct {
	mu       sync.RWMutex
	counters map[string]uint64
	gauges   map[string]uint64
}

func NewMetrics() *Metrics {
	return &Metrics{
		counters: make(map[string]uint64),
		gauges:   make(map[string]uint64),
	}
}

// TelemetryAdd increments the named counter.
func (m *Metrics) TelemetryAdd(key string, delta uint64) {
	if m == nil || key == "" {
		return
	}
	m.mu.Lock()
	m.counters[key] += delta
	m.mu.Unlock()
}

// TelemetryStore sets the named gauge to the provided value.
func (m *Metrics) TelemetryStore(key string, value uint64) {
	if m == nil || key == "" {
		return
	}
	m.mu.Lock()
	m.gauges[key] = value
	m.mu.Unlock()
}

// Counter reads the named counter, zero when absent.
func (m *Metrics) Counter(key string) uint64 {
	if m == nil {
		return 0
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.counters[key]
}

// Gauge reads the named gauge, zero when absent.
func (m *Metrics) Gauge(key string) uint64 {
	if m == nil {
		return 0
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.gauges[key]
}

// Snapshot copies every counter and gauge for diagnostics output.
func (m *Metrics) Snapshot() (counters, gauges map[string]uint64) {
	if m == nil {
		return nil, nil
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	counters = make(map[string]uint64, len(m.counters))
	for k, v := range m.counters {
		counters[k] = v
	}
	gauges = make(map[string]uint64, len(m.gauges))
	for k, v := range m.gauges {
		gauges[k] = v
	}
	return counters, gauges
}
