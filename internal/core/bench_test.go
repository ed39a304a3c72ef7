package core

import (
	"context"
	"fmt"
	"testing"
)

func benchmarkRoomBroadcast(b *testing.B, spectators int) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	st := newFakeStore()
	hub := NewHub(st, nil, nil)
	go hub.Run(ctx)

	speaker := NewClient("speaker", "")
	hub.RegisterClient(speaker)
	speaker.Commands <- &Command{Kind: CommandCreateRoom, Room: "bench", Name: "speaker"}

	target := NewClient("target", "target")
	hub.RegisterClient(target)
	target.Commands <- &Command{Kind: CommandWatchRoom, Room: "bench"}

	for i := 0; i < spectators; i++ {
		c := NewClient(fmt.Sprintf("w%d", i), "watcher")
		hub.RegisterClient(c)
		c.Commands <- &Command{Kind: CommandWatchRoom, Room: "bench"}
		go func(cl *Client) {
			for range cl.Events {
			}
		}(c)
	}

	// Wait for the target's join ack before timing.
	for ev := range target.Events {
		if ev.Kind == EventRoomJoined {
			break
		}
	}

	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		speaker.Commands <- &Command{Kind: CommandChatMessage, Text: "payload"}
		for ev := range target.Events {
			if ev.Kind == EventChatMessage {
				break
			}
		}
	}
}

func BenchmarkRoomBroadcast_10(b *testing.B)  { benchmarkRoomBroadcast(b, 10) }
func BenchmarkRoomBroadcast_100(b *testing.B) { benchmarkRoomBroadcast(b, 100) }
func BenchmarkRoomBroadcast_500(b *testing.B) { benchmarkRoomBroadcast(b, 500) }
