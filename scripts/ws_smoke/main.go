// Smoke test: dial the server, create a room, set a topic, send one chat
// line and print whatever comes back.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/courtlive/courtroom-server/internal/proto"
)

func main() {
	addr := flag.String("addr", "ws://localhost:8080/ws", "WebSocket address")
	name := flag.String("name", "tester", "display name")
	room := flag.String("room", "smoke-court", "room name")
	topic := flag.String("topic", "cats are better than dogs", "debate topic")
	text := flag.String("text", "I rest my case.", "chat line to send")
	timeout := flag.Duration("timeout", 5*time.Second, "total timeout for the run")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, *addr, nil)
	if err != nil {
		log.Fatalf("dial: %v", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "bye")

	mustSend := func(typ string, data any) {
		payload, err := json.Marshal(data)
		if err != nil {
			log.Fatalf("marshal %s: %v", typ, err)
		}
		if err := wsjson.Write(ctx, conn, proto.Inbound{Type: typ, Data: payload}); err != nil {
			log.Fatalf("send %s: %v", typ, err)
		}
	}

	mustSend(proto.InboundCreateRoom, proto.CreateRoomData{Room: *room, Name: *name})
	mustSend(proto.InboundSetTopic, proto.TopicData{Topic: *topic})
	mustSend(proto.InboundChatMessage, proto.ChatMessageData{Message: *text})

	for i := 0; i < 6; i++ {
		var outbound struct {
			Type  string          `json:"type"`
			Room  string          `json:"room"`
			Data  json.RawMessage `json:"data"`
			Error *proto.Error    `json:"error"`
		}
		if err := wsjson.Read(ctx, conn, &outbound); err != nil {
			log.Fatalf("read: %v", err)
		}

		fmt.Printf("received: type=%s room=%s\n", outbound.Type, outbound.Room)
		if outbound.Error != nil {
			fmt.Printf("  error: %s (%s)\n", outbound.Error.Msg, outbound.Error.Code)
		}
		if len(outbound.Data) > 0 {
			fmt.Printf("  data: %s\n", string(outbound.Data))
		}
	}
}
