package core

import (
	"context"
	"testing"
	"time"
)

func TestReplayReemitsHistory(t *testing.T) {
	ctx := context.Background()
	hub, st := newTestHub(t)
	hub.ReplayDelay = 5 * time.Millisecond

	alice, _ := st.CreateGuestUser(ctx, "alice")
	bob, _ := st.CreateGuestUser(ctx, "bob")
	rec, _ := st.CreateRoom(ctx, "old-court")
	_ = st.LinkUserToRoom(ctx, alice.ID, rec.ID)
	_ = st.LinkUserToRoom(ctx, bob.ID, rec.ID)

	_, _ = st.AppendChatMessage(ctx, rec.ID, alice.ID, "opening statement", time.Now())
	_, _ = st.AppendChatMessage(ctx, rec.ID, bob.ID, "counterpoint", time.Now())
	_, _ = st.AppendUserAction(ctx, rec.ID, alice.ID, "switch_speaker", []byte(`{"newSpeakerId":2}`))

	viewer := NewClient("v", "viewer")
	hub.RegisterClient(viewer)
	viewer.Commands <- &Command{Kind: CommandReplay, RoomID: rec.ID}

	joined := mustEvent(t, viewer.Events, EventRoomJoined)
	if joined.RoomInfo == nil || len(joined.RoomInfo.Users) != 2 {
		t.Fatalf("replay should reconstruct both seats, got %+v", joined.RoomInfo)
	}

	first := mustEvent(t, viewer.Events, EventChatMessage)
	entry := first.Data.(ChatEntry)
	if entry.User != "alice" || entry.Message != "opening statement" {
		t.Fatalf("unexpected first replayed line: %+v", entry)
	}
	if first.RoomInfo == nil || len(first.RoomInfo.ChatInfo.ChatLog) != 1 {
		t.Fatalf("replayed snapshot should grow with the log, got %+v", first.RoomInfo)
	}

	second := mustEvent(t, viewer.Events, EventChatMessage)
	if second.Data.(ChatEntry).User != "bob" {
		t.Fatalf("unexpected second replayed line: %+v", second.Data)
	}

	mustEvent(t, viewer.Events, EventSpeakerSwitched)
	mustEvent(t, viewer.Events, EventPlaybackComplete)

	hub.ListJoinable() // loop barrier so teardown has run
	if hub.registry.Lookup("old-court") != nil {
		t.Fatal("transient replay room was not torn down")
	}
}

func TestReplayUnknownRoom(t *testing.T) {
	hub, _ := newTestHub(t)

	viewer := NewClient("v", "viewer")
	hub.RegisterClient(viewer)
	viewer.Commands <- &Command{Kind: CommandReplay, RoomID: 404}

	ev := mustEvent(t, viewer.Events, EventError)
	if ev.Error == nil || ev.Error.Code != ErrCodeRoomNotFound {
		t.Fatalf("expected room_not_found error, got %+v", ev)
	}
}

func TestReplayWritesNothingBack(t *testing.T) {
	ctx := context.Background()
	hub, st := newTestHub(t)
	hub.ReplayDelay = time.Millisecond

	alice, _ := st.CreateGuestUser(ctx, "alice")
	rec, _ := st.CreateRoom(ctx, "old-court")
	_ = st.LinkUserToRoom(ctx, alice.ID, rec.ID)
	_, _ = st.AppendChatMessage(ctx, rec.ID, alice.ID, "only line", time.Now())

	viewer := NewClient("v", "viewer")
	hub.RegisterClient(viewer)
	viewer.Commands <- &Command{Kind: CommandReplay, RoomID: rec.ID}

	mustEvent(t, viewer.Events, EventPlaybackComplete)

	st.mu.Lock()
	messages, actions := len(st.messages), len(st.actions)
	st.mu.Unlock()
	if messages != 1 || actions != 0 {
		t.Fatalf("playback must not write history, got %d messages %d actions", messages, actions)
	}
}
