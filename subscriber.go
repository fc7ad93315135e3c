package server

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Subscriber is one websocket attachment to a player. Writes are serialized
// so the broadcast goroutine and the session goroutine never interleave
// frames on the wire.
type Subscriber struct {
	playerID string
	conn     *websocket.Conn

	writeMu sync.Mutex

	mu            sync.Mutex
	lastSeq       uint64
	lastHeartbeat time.Time
	rtt           time.Duration
}

func newSubscriber(playerID string, conn *websocket.Conn) *Subscriber {
	return &Subscriber{playerID: playerID, conn: conn}
}

func (s *Subscriber) PlayerID() string {
	if s == nil {
		return ""
	}
	return s.playerID
}

// WriteMessage writes a frame to the connection. Safe for concurrent use.
func (s *Subscriber) WriteMessage(messageType int, data []byte) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.conn.WriteMessage(messageType, data)
}

// Close tears the connection down.
func (s *Subscriber) Close() {
	if s == nil || s.conn == nil {
		return
	}
	s.conn.Close()
}

// LastCommandSeq returns the highest acknowledged command sequence.
func (s *Subscriber) LastCommandSeq() uint64 {
	if s == nil {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeq
}

// StoreLastCommandSeq records a processed command sequence for duplicate
// detection.
func (s *Subscriber) StoreLastCommandSeq(seq uint64) {
	if s == nil {
		return
	}
	s.mu.Lock()
	if seq > s.lastSeq {
		s.lastSeq = seq
	}
	s.mu.Unlock()
}

func (s *Subscriber) recordHeartbeat(at time.Time, rtt time.Duration) {
	if s == nil {
		return
	}
	s.mu.Lock()
	s.lastHeartbeat = at
	s.rtt = rtt
	s.mu.Unlock()
}

// Heartbeat reports the last heartbeat time and round trip estimate.
func (s *Subscriber) Heartbeat() (time.Time, time.Duration) {
	if s == nil {
		return time.Time{}, 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastHeartbeat, s.rtt
}
