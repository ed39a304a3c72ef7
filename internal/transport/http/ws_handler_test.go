package http

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/courtlive/courtroom-server/internal/proto"
)

type wsEnvelope struct {
	Type  string          `json:"type"`
	Room  string          `json:"room"`
	Data  json.RawMessage `json:"data"`
	Error *proto.Error    `json:"error"`
}

func dialWS(t *testing.T, ctx context.Context, tsURL string) *websocket.Conn {
	t.Helper()

	wsURL := strings.Replace(tsURL, "http", "ws", 1) + "/ws"
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close(websocket.StatusNormalClosure, "done") })
	return conn
}

func send(t *testing.T, ctx context.Context, conn *websocket.Conn, typ string, data any) {
	t.Helper()

	payload, err := json.Marshal(data)
	if err != nil {
		t.Fatalf("marshal %s payload: %v", typ, err)
	}
	if err := wsjson.Write(ctx, conn, proto.Inbound{Type: typ, Data: payload}); err != nil {
		t.Fatalf("send %s: %v", typ, err)
	}
}

// readUntil discards envelopes until one of the given type arrives.
func readUntil(t *testing.T, ctx context.Context, conn *websocket.Conn, typ string) wsEnvelope {
	t.Helper()

	for i := 0; i < 32; i++ {
		var env wsEnvelope
		if err := wsjson.Read(ctx, conn, &env); err != nil {
			t.Fatalf("read while waiting for %q: %v", typ, err)
		}
		if env.Type == typ {
			return env
		}
	}
	t.Fatalf("did not receive %q", typ)
	return wsEnvelope{}
}

func TestHealthEndpoint(t *testing.T) {
	ts, _, _ := startTestServer(t)

	resp, err := ts.Client().Get(ts.URL + "/health")
	if err != nil {
		t.Fatalf("health request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		t.Fatalf("unexpected status: %d", resp.StatusCode)
	}
}

func TestWebSocketSessionFlow(t *testing.T) {
	ts, _, _ := startTestServer(t)

	ctx, closeCtx := context.WithTimeout(context.Background(), 5*time.Second)
	defer closeCtx()

	connA := dialWS(t, ctx, ts.URL)
	connB := dialWS(t, ctx, ts.URL)

	send(t, ctx, connA, proto.InboundCreateRoom, proto.CreateRoomData{Room: "court", Name: "alice"})
	created := readUntil(t, ctx, connA, proto.OutboundRoomCreated)
	if created.Room != "court" {
		t.Fatalf("unexpected room on create ack: %+v", created)
	}

	send(t, ctx, connB, proto.InboundJoinRoom, proto.JoinRoomData{Room: "court", Name: "bob"})
	readUntil(t, ctx, connB, proto.OutboundRoomJoined)
	readUntil(t, ctx, connA, proto.OutboundPlayerJoined)

	send(t, ctx, connA, proto.InboundChatMessage, proto.ChatMessageData{Message: "the defence is ready"})

	env := readUntil(t, ctx, connB, proto.OutboundChatMessage)
	var entry struct {
		User    string `json:"user"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(env.Data, &entry); err != nil {
		t.Fatalf("unmarshal chat entry: %v", err)
	}
	if entry.User != "alice" || entry.Message != "the defence is ready" {
		t.Fatalf("unexpected chat entry: %+v", entry)
	}
}

func TestWebSocketRejectsInvalidEnvelope(t *testing.T) {
	ts, _, _ := startTestServer(t)

	ctx, closeCtx := context.WithTimeout(context.Background(), 5*time.Second)
	defer closeCtx()

	conn := dialWS(t, ctx, ts.URL)

	// Unknown type keeps the connection up and reports a protocol error.
	send(t, ctx, conn, "teleport", struct{}{})
	env := readUntil(t, ctx, conn, proto.OutboundError)
	if env.Error == nil || env.Error.Code != "invalid_message" {
		t.Fatalf("expected invalid_message error, got %+v", env)
	}

	// So does a structurally valid but empty payload.
	send(t, ctx, conn, proto.InboundChatMessage, proto.ChatMessageData{})
	env = readUntil(t, ctx, conn, proto.OutboundError)
	if env.Error == nil || env.Error.Code != "bad_request" {
		t.Fatalf("expected bad_request error, got %+v", env)
	}

	// The connection still works afterwards.
	send(t, ctx, conn, proto.InboundCreateRoom, proto.CreateRoomData{Room: "court", Name: "alice"})
	readUntil(t, ctx, conn, proto.OutboundRoomCreated)
}
