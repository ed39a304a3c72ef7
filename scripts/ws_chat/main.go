// Interactive debate client. Plain lines are sent as chat; slash commands
// drive the rest of the protocol:
//
//	/create <room>     create a room
//	/join <room>       take the second seat
//	/watch <room>      spectate
//	/topic <text>      set the topic
//	/side <side>       pick defence or prosecution
//	/holdit            interrupt the speaker
//	/objection <id>    flag a chat line by id
//	/switch            hand over the floor
//	/pose <animation>  change avatar pose
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/courtlive/courtroom-server/internal/proto"
)

func main() {
	if err := run(); err != nil {
		log.Printf("ws_chat: %v", err)
		os.Exit(1)
	}
}

func run() error {
	addr := flag.String("addr", "ws://localhost:8080/ws", "WebSocket address")
	name := flag.String("name", "cli-user", "display name")
	flag.Parse()

	baseCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(baseCtx)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, *addr, nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "bye")

	fmt.Printf("Connected to %s as %s\n", *addr, *name)
	fmt.Println("Start with /create <room> or /join <room>. Ctrl+C to exit.")

	go func() {
		defer cancel()
		readLoop(ctx, conn)
	}()

	writeLoop(ctx, conn, *name)

	stop()
	cancel()
	_ = conn.Close(websocket.StatusNormalClosure, "bye")
	return nil
}

func readLoop(ctx context.Context, conn *websocket.Conn) {
	for {
		var outbound struct {
			Type  string          `json:"type"`
			Room  string          `json:"room"`
			Data  json.RawMessage `json:"data"`
			Error *proto.Error    `json:"error"`
		}
		if err := wsjson.Read(ctx, conn, &outbound); err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			switch websocket.CloseStatus(err) {
			case websocket.StatusNormalClosure, websocket.StatusGoingAway:
				return
			}
			log.Printf("read error: %v", err)
			return
		}

		switch outbound.Type {
		case proto.OutboundChatMessage:
			var entry struct {
				ID      int64  `json:"id"`
				User    string `json:"user"`
				Message string `json:"message"`
			}
			if err := json.Unmarshal(outbound.Data, &entry); err == nil {
				fmt.Printf("[%s] #%d %s: %s\n", outbound.Room, entry.ID, entry.User, entry.Message)
				continue
			}
			fmt.Printf("[%s] chat: %s\n", outbound.Room, string(outbound.Data))
		case proto.OutboundError:
			fmt.Printf("error: %s (%s)\n", outbound.Error.Msg, outbound.Error.Code)
		default:
			fmt.Printf("[%s] %s %s\n", outbound.Room, outbound.Type, string(outbound.Data))
		}
	}
}

func writeLoop(ctx context.Context, conn *websocket.Conn, name string) {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	send := func(typ string, data any) {
		payload, err := json.Marshal(data)
		if err != nil {
			log.Printf("marshal %s: %v", typ, err)
			return
		}
		if err := wsjson.Write(ctx, conn, proto.Inbound{Type: typ, Data: payload}); err != nil {
			log.Printf("send error: %v", err)
		}
	}

	for {
		select {
		case <-ctx.Done():
			return
		case line, ok := <-lines:
			if !ok {
				return
			}
			text := strings.TrimSpace(line)
			if text == "" {
				continue
			}

			if !strings.HasPrefix(text, "/") {
				send(proto.InboundChatMessage, proto.ChatMessageData{Message: text})
				continue
			}

			cmd, arg, _ := strings.Cut(text[1:], " ")
			arg = strings.TrimSpace(arg)
			switch cmd {
			case "create":
				send(proto.InboundCreateRoom, proto.CreateRoomData{Room: arg, Name: name})
			case "join":
				send(proto.InboundJoinRoom, proto.JoinRoomData{Room: arg, Name: name})
			case "watch":
				send(proto.InboundWatchRoom, proto.RoomRef{Room: arg})
			case "topic":
				send(proto.InboundSetTopic, proto.TopicData{Topic: arg})
			case "side":
				send(proto.InboundSelectSide, proto.SelectSideData{Side: arg})
			case "holdit":
				send(proto.InboundHoldIt, struct{}{})
			case "objection":
				id, err := strconv.ParseInt(arg, 10, 64)
				if err != nil {
					fmt.Println("usage: /objection <message id>")
					continue
				}
				send(proto.InboundObjection, proto.ObjectionData{MessageID: id})
			case "switch":
				send(proto.InboundSwitchSpeaker, struct{}{})
			case "pose":
				send(proto.InboundChangePose, proto.ChangePoseData{Animation: arg})
			default:
				fmt.Printf("unknown command: /%s\n", cmd)
			}
		}
	}
}
