package logging

import "time"

// Config tunes the event router and its sinks. The zero value is unusable;
// start from DefaultConfig.
type Config struct {
	// EnabledSinks names the sinks the router should fan out to.
	EnabledSinks []string
	// BufferSize is the router's pending-event channel depth. When the
	// channel is full events are counted as dropped, never blocked on.
	BufferSize int
	// MinimumSeverity filters events before they reach any sink.
	MinimumSeverity Severity
	// Fields is stamped onto every event that does not already carry the key.
	Fields  map[string]any
	JSON    JSONConfig
	Console ConsoleConfig
	// DropWarnInterval rate-limits the drop warning the router emits to its
	// fallback logger.
	DropWarnInterval time.Duration
}

// JSONConfig tunes the append-only JSON event log.
type JSONConfig struct {
	FilePath      string
	FlushInterval time.Duration
}

// ConsoleConfig tunes the human-facing console sink.
type ConsoleConfig struct {
	// UseColor wraps the severity token in ANSI color codes.
	UseColor bool
}

// DefaultConfig sizes the router for a 30Hz frame loop: a shallow buffer,
// info-and-up, console only.
func DefaultConfig() Config {
	return Config{
		EnabledSinks:     []string{"console"},
		BufferSize:       256,
		MinimumSeverity:  SeverityInfo,
		DropWarnInterval: 10 * time.Second,
		JSON: JSONConfig{
			FlushInterval: 2 * time.Second,
		},
	}
}

func (c Config) HasSink(name string) bool {
	for _, s := range c.EnabledSinks {
		if s == name {
			return true
		}
	}
	return false
}

// CloneFields copies the ambient field set so decorated events never share
// the config's map.
func (c Config) CloneFields() map[string]any {
	if len(c.Fields) == 0 {
		return nil
	}
	cloned := make(map[string]any, len(c.Fields))
	for k, v := range c.Fields {
		cloned[k] = v
	}
	return cloned
}
