// Package savestate serializes periodic world checkpoints. Snapshots are
// written with msgpack so saves stay compact even with large enemy counts.
package savestate

import (
	"fmt"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"emberfall/server/internal/world"
)

const FormatVersion = 1

// Snapshot is one saved checkpoint of the simulation.
type Snapshot struct {
	Version   int            `msgpack:"version"`
	SavedAt   time.Time      `msgpack:"savedAt"`
	Frame     uint64         `msgpack:"frame"`
	Elapsed   float64        `msgpack:"elapsed"`
	Preset    string         `msgpack:"preset"`
	WorldSeed string         `msgpack:"worldSeed"`
	State     world.Snapshot `msgpack:"state"`
}

// Encode serializes a snapshot, stamping the current format version.
func Encode(snapshot Snapshot) ([]byte, error) {
	snapshot.Version = FormatVersion
	data, err := msgpack.Marshal(snapshot)
	if err != nil {
		return nil, fmt.Errorf("savestate: encode: %w", err)
	}
	return data, nil
}

// encodeRaw serializes without stamping the version. Tests use it to build
// snapshots with deliberately wrong headers.
func encodeRaw(snapshot Snapshot) ([]byte, error) {
	return msgpack.Marshal(snapshot)
}

// Decode deserializes a snapshot and rejects unknown format versions.
func Decode(data []byte) (Snapshot, error) {
	var snapshot Snapshot
	if err := msgpack.Unmarshal(data, &snapshot); err != nil {
		return Snapshot{}, fmt.Errorf("savestate: decode: %w", err)
	}
	if snapshot.Version != FormatVersion {
		return Snapshot{}, fmt.Errorf("savestate: unsupported format version %d", snapshot.Version)
	}
	return snapshot, nil
}
