// Package ws serves websocket sessions against the hub.
package ws

import (
	"encoding/json"
	"log"
	nethttp "net/http"
	"time"

	"github.com/gorilla/websocket"

	"emberfall/server"
	"emberfall/server/internal/net/intake"
	"emberfall/server/internal/net/proto"
	"emberfall/server/internal/sim"
)

type HandlerConfig struct {
	Logger *log.Logger
}

// Handler upgrades connections and runs the per-player session loop.
type Handler struct {
	hub      *server.Hub
	logger   *log.Logger
	upgrader websocket.Upgrader
}

func NewHandler(hub *server.Hub, cfg HandlerConfig) *Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *nethttp.Request) bool {
			return true
		},
	}
	return &Handler{hub: hub, logger: logger, upgrader: upgrader}
}

func (h *Handler) Handle(w nethttp.ResponseWriter, r *nethttp.Request) {
	playerID := r.URL.Query().Get("id")
	if playerID == "" {
		nethttp.Error(w, "missing id", nethttp.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Printf("upgrade failed for %s: %v", playerID, err)
		return
	}

	sub, initial, ok := h.hub.Subscribe(playerID, conn)
	if !ok {
		message := websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "unknown player")
		conn.WriteMessage(websocket.CloseMessage, message)
		conn.Close()
		return
	}

	if initial != nil {
		if err := sub.WriteMessage(websocket.TextMessage, initial); err != nil {
			h.hub.Disconnect(playerID)
			return
		}
	}

	intakeCtx := intake.CommandContext{
		Enqueue:   h.hub.EnqueueCommand,
		HasPlayer: h.hub.HasPlayer,
		Frame:     h.hub.CurrentFrame,
		Now:       time.Now,
	}

	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			h.hub.Disconnect(playerID)
			return
		}

		var msg proto.ClientMessage
		if err := json.Unmarshal(payload, &msg); err != nil {
			h.logger.Printf("discarding malformed message from %s: %v", playerID, err)
			continue
		}

		normalizedSeq := uint64(0)
		if msg.Seq != nil && *msg.Seq > 0 {
			normalizedSeq = *msg.Seq
		}

		writeJSON := func(payload any) bool {
			data, err := json.Marshal(payload)
			if err != nil {
				h.logger.Printf("failed to marshal response for %s: %v", playerID, err)
				return true
			}
			if err := sub.WriteMessage(websocket.TextMessage, data); err != nil {
				h.hub.Disconnect(playerID)
				return false
			}
			return true
		}

		if msg.Type == proto.TypeHeartbeat {
			now := time.Now()
			rtt, ok := h.hub.UpdateHeartbeat(playerID, now, msg.SentAt)
			if !ok {
				continue
			}
			ack := proto.HeartbeatMessage{
				Ver:        server.ProtocolVersion,
				Type:       proto.TypeHeartbeat,
				ServerTime: now.UnixMilli(),
				ClientTime: msg.SentAt,
				RTTMillis:  rtt.Milliseconds(),
			}
			if !writeJSON(ack) {
				return
			}
			continue
		}

		// Duplicate sequenced commands are acknowledged but not re-staged.
		if normalizedSeq > 0 {
			if last := sub.LastCommandSeq(); last > 0 && normalizedSeq <= last {
				ack := proto.CommandAckMessage{Ver: server.ProtocolVersion, Type: proto.TypeCommandAck, Seq: normalizedSeq}
				if !writeJSON(ack) {
					return
				}
				continue
			}
		}

		cmd, staged, reason := intake.StageClientCommand(intakeCtx, playerID, msg)
		if normalizedSeq > 0 {
			if staged {
				ack := proto.CommandAckMessage{
					Ver:   server.ProtocolVersion,
					Type:  proto.TypeCommandAck,
					Seq:   normalizedSeq,
					Frame: cmd.OriginFrame,
				}
				if !writeJSON(ack) {
					return
				}
				sub.StoreLastCommandSeq(normalizedSeq)
			} else {
				reject := proto.CommandRejectMessage{
					Ver:    server.ProtocolVersion,
					Type:   proto.TypeCommandReject,
					Seq:    normalizedSeq,
					Reason: reason,
					Retry:  reason == sim.CommandRejectQueueLimit,
				}
				if !writeJSON(reject) {
					return
				}
			}
		}
		if !staged && reason == server.CommandRejectUnknownActor {
			h.logger.Printf("command ignored for unknown player %s", playerID)
		}
	}
}
