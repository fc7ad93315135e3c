package ws

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/gorilla/websocket"

	"emberfall/server"
	"emberfall/server/internal/net/proto"
	"emberfall/server/internal/sim"
)

func TestHandleSendsInitialState(t *testing.T) {
	hub := server.NewHub(server.DefaultHubConfig(), sim.Deps{})
	t.Cleanup(hub.Stop)
	join, err := hub.Join()
	if err != nil {
		t.Fatalf("Join: %v", err)
	}

	handler := NewHandler(hub, HandlerConfig{})
	srv := httptest.NewServer(http.HandlerFunc(handler.Handle))
	t.Cleanup(srv.Close)

	conn, resp, err := websocket.DefaultDialer.Dial(websocketURL(t, srv.URL, join.ID), nil)
	if resp != nil {
		t.Cleanup(func() { resp.Body.Close() })
	}
	if err != nil {
		t.Fatalf("failed to open websocket connection: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	_, payload, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("failed to read initial state: %v", err)
	}
	var frame map[string]any
	if err := json.Unmarshal(payload, &frame); err != nil {
		t.Fatalf("failed to decode payload: %v", err)
	}
	if frame["type"] != proto.TypeState {
		t.Fatalf("payload type %v, want %q", frame["type"], proto.TypeState)
	}
	if frame["state"] != "booting" {
		t.Fatalf("sim state %v, want booting before the loop starts", frame["state"])
	}
}

func TestHandleRejectsUnknownPlayer(t *testing.T) {
	hub := server.NewHub(server.DefaultHubConfig(), sim.Deps{})
	t.Cleanup(hub.Stop)

	handler := NewHandler(hub, HandlerConfig{})
	srv := httptest.NewServer(http.HandlerFunc(handler.Handle))
	t.Cleanup(srv.Close)

	conn, resp, err := websocket.DefaultDialer.Dial(websocketURL(t, srv.URL, "ghost"), nil)
	if resp != nil {
		t.Cleanup(func() { resp.Body.Close() })
	}
	if err != nil {
		t.Fatalf("failed to open websocket connection: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	if _, _, err := conn.ReadMessage(); err == nil {
		t.Fatal("expected close for unknown player")
	}
}

func TestHandleAcksSequencedCommands(t *testing.T) {
	hub := server.NewHub(server.DefaultHubConfig(), sim.Deps{})
	t.Cleanup(hub.Stop)
	join, err := hub.Join()
	if err != nil {
		t.Fatalf("Join: %v", err)
	}

	handler := NewHandler(hub, HandlerConfig{})
	srv := httptest.NewServer(http.HandlerFunc(handler.Handle))
	t.Cleanup(srv.Close)

	conn, resp, err := websocket.DefaultDialer.Dial(websocketURL(t, srv.URL, join.ID), nil)
	if resp != nil {
		t.Cleanup(func() { resp.Body.Close() })
	}
	if err != nil {
		t.Fatalf("failed to open websocket connection: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	if _, _, err := conn.ReadMessage(); err != nil {
		t.Fatalf("failed to read initial state: %v", err)
	}

	seq := uint64(1)
	input := proto.ClientMessage{Type: proto.TypeInput, DX: 1, Seq: &seq}
	if err := conn.WriteJSON(input); err != nil {
		t.Fatalf("failed to send input: %v", err)
	}
	var ack proto.CommandAckMessage
	if err := conn.ReadJSON(&ack); err != nil {
		t.Fatalf("failed to read ack: %v", err)
	}
	if ack.Type != proto.TypeCommandAck || ack.Seq != 1 {
		t.Fatalf("ack %+v, want commandAck seq 1", ack)
	}

	// Replaying the same sequence acknowledges without re-staging.
	if err := conn.WriteJSON(input); err != nil {
		t.Fatalf("failed to resend input: %v", err)
	}
	if err := conn.ReadJSON(&ack); err != nil {
		t.Fatalf("failed to read duplicate ack: %v", err)
	}
	if ack.Seq != 1 {
		t.Fatalf("duplicate ack seq %d, want 1", ack.Seq)
	}
}

func TestHandleRejectsUnknownAction(t *testing.T) {
	hub := server.NewHub(server.DefaultHubConfig(), sim.Deps{})
	t.Cleanup(hub.Stop)
	join, err := hub.Join()
	if err != nil {
		t.Fatalf("Join: %v", err)
	}

	handler := NewHandler(hub, HandlerConfig{})
	srv := httptest.NewServer(http.HandlerFunc(handler.Handle))
	t.Cleanup(srv.Close)

	conn, resp, err := websocket.DefaultDialer.Dial(websocketURL(t, srv.URL, join.ID), nil)
	if resp != nil {
		t.Cleanup(func() { resp.Body.Close() })
	}
	if err != nil {
		t.Fatalf("failed to open websocket connection: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	if _, _, err := conn.ReadMessage(); err != nil {
		t.Fatalf("failed to read initial state: %v", err)
	}

	seq := uint64(5)
	if err := conn.WriteJSON(proto.ClientMessage{Type: proto.TypeAction, Action: "dance", Seq: &seq}); err != nil {
		t.Fatalf("failed to send action: %v", err)
	}
	var reject proto.CommandRejectMessage
	if err := conn.ReadJSON(&reject); err != nil {
		t.Fatalf("failed to read reject: %v", err)
	}
	if reject.Type != proto.TypeCommandReject || reject.Reason != server.CommandRejectInvalidAction {
		t.Fatalf("reject %+v, want invalid action", reject)
	}
}

func websocketURL(t *testing.T, baseURL, playerID string) string {
	t.Helper()
	parsed, err := url.Parse(baseURL)
	if err != nil {
		t.Fatalf("failed to parse test server url: %v", err)
	}
	parsed.Scheme = "ws"
	parsed.Path = "/"
	query := parsed.Query()
	query.Set("id", playerID)
	parsed.RawQuery = query.Encode()
	return parsed.String()
}
