package ai

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestStreamYieldsTextDeltas(t *testing.T) {
	body := strings.Join([]string{
		`event: message_start`,
		`data: {"type":"message_start"}`,
		``,
		`data: {"type":"content_block_delta","delta":{"type":"text_delta","text":"Hold "}}`,
		``,
		`data: {"type":"content_block_delta","delta":{"type":"text_delta","text":"it!"}}`,
		``,
		`data: {"type":"content_block_stop"}`,
		``,
		`data: {"type":"message_stop"}`,
		``,
	}, "\n")

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/messages" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if r.Header.Get("x-api-key") != "test-key" {
			t.Errorf("missing api key header")
		}
		var req apiRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if !req.Stream {
			t.Errorf("expected a streaming request")
		}
		w.Header().Set("Content-Type", "text/event-stream")
		io.WriteString(w, body)
	}))
	defer ts.Close()

	client := NewClient(Config{APIKey: "test-key", BaseURL: ts.URL})
	stream, err := client.Stream(context.Background(), "be brief", []Message{{Role: RoleUser, Content: "go"}})
	if err != nil {
		t.Fatalf("stream: %v", err)
	}
	defer stream.Close()

	var sb strings.Builder
	for {
		delta, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			t.Fatalf("recv: %v", err)
		}
		sb.WriteString(delta)
	}
	if sb.String() != "Hold it!" {
		t.Fatalf("unexpected streamed text: %q", sb.String())
	}
}

func TestStreamSurfacesAPIErrors(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		io.WriteString(w, `data: {"type":"error","error":{"message":"overloaded"}}`+"\n")
	}))
	defer ts.Close()

	client := NewClient(Config{APIKey: "test-key", BaseURL: ts.URL})
	stream, err := client.Stream(context.Background(), "", nil)
	if err != nil {
		t.Fatalf("stream: %v", err)
	}
	defer stream.Close()

	if _, err := stream.Recv(); err == nil || !strings.Contains(err.Error(), "overloaded") {
		t.Fatalf("expected stream error, got %v", err)
	}
}

func TestCompleteConcatenatesTextBlocks(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"content":[{"type":"text","text":"Objection! "},{"type":"tool_use"},{"type":"text","text":"Overruled."}]}`)
	}))
	defer ts.Close()

	client := NewClient(Config{APIKey: "test-key", BaseURL: ts.URL})
	text, err := client.Complete(context.Background(), "", []Message{{Role: RoleUser, Content: "go"}})
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if text != "Objection! Overruled." {
		t.Fatalf("unexpected completion: %q", text)
	}
}

func TestNon200IsAnError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"invalid api key"}}`, http.StatusUnauthorized)
	}))
	defer ts.Close()

	client := NewClient(Config{APIKey: "bad-key", BaseURL: ts.URL})
	if _, err := client.Complete(context.Background(), "", nil); err == nil || !strings.Contains(err.Error(), "401") {
		t.Fatalf("expected status error, got %v", err)
	}
}
