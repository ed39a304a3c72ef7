package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/courtlive/courtroom-server/internal/store"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	s, err := New(":memory:")
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestGuestDisplayNamesAreNotUnique(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first, err := s.CreateGuestUser(ctx, "phoenix")
	if err != nil {
		t.Fatalf("create first guest: %v", err)
	}
	second, err := s.CreateGuestUser(ctx, "phoenix")
	if err != nil {
		t.Fatalf("create second guest: %v", err)
	}

	if first.ID == second.ID {
		t.Fatal("guests must get fresh ids")
	}
	if !first.IsGuest || !second.IsGuest {
		t.Fatalf("expected guest flags, got %+v %+v", first, second)
	}
}

func TestRegisteredUsernameIsUnique(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if _, err := s.CreateUser(ctx, "edgeworth", "hash"); err != nil {
		t.Fatalf("create user: %v", err)
	}
	if _, err := s.CreateUser(ctx, "edgeworth", "hash"); err == nil {
		t.Fatal("duplicate registered username must fail")
	}

	// A guest may still reuse the name.
	if _, err := s.CreateGuestUser(ctx, "edgeworth"); err != nil {
		t.Fatalf("guest with registered name: %v", err)
	}
}

func TestFindOrCreateBotIsSingleton(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first, err := s.FindOrCreateBot(ctx)
	if err != nil {
		t.Fatalf("first bot lookup: %v", err)
	}
	second, err := s.FindOrCreateBot(ctx)
	if err != nil {
		t.Fatalf("second bot lookup: %v", err)
	}

	if first.ID != second.ID {
		t.Fatalf("bot must be a singleton, got ids %d and %d", first.ID, second.ID)
	}
	if !first.IsBot || first.Username != "AI Assistant" {
		t.Fatalf("unexpected bot identity: %+v", first)
	}
}

func TestRoomLifecycle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	room, err := s.CreateRoom(ctx, "court-1")
	if err != nil {
		t.Fatalf("create room: %v", err)
	}

	if err := s.UpdateRoomMeta(ctx, room.ID, "cats vs dogs", "text"); err != nil {
		t.Fatalf("update room meta: %v", err)
	}

	got, err := s.GetRoomByID(ctx, room.ID)
	if err != nil {
		t.Fatalf("get room: %v", err)
	}
	if got.Topic != "cats vs dogs" || got.Mode != "text" {
		t.Fatalf("meta not persisted: %+v", got)
	}

	alice, _ := s.CreateGuestUser(ctx, "alice")
	bob, _ := s.CreateGuestUser(ctx, "bob")
	if err := s.LinkUserToRoom(ctx, alice.ID, room.ID); err != nil {
		t.Fatalf("link alice: %v", err)
	}
	if err := s.LinkUserToRoom(ctx, bob.ID, room.ID); err != nil {
		t.Fatalf("link bob: %v", err)
	}
	// Relinking is a no-op.
	if err := s.LinkUserToRoom(ctx, alice.ID, room.ID); err != nil {
		t.Fatalf("relink alice: %v", err)
	}

	users, err := s.ListRoomUsers(ctx, room.ID)
	if err != nil {
		t.Fatalf("list room users: %v", err)
	}
	if len(users) != 2 || users[0].Username != "alice" || users[1].Username != "bob" {
		t.Fatalf("unexpected participants: %+v", users)
	}
}

func TestFetchRoomHistoryMergesAndOrders(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	room, _ := s.CreateRoom(ctx, "court-1")
	alice, _ := s.CreateGuestUser(ctx, "alice")

	base := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	if _, err := s.AppendChatMessage(ctx, room.ID, alice.ID, "first", base); err != nil {
		t.Fatalf("append first message: %v", err)
	}
	if _, err := s.AppendUserAction(ctx, room.ID, alice.ID, store.ActionHoldIt, nil); err != nil {
		t.Fatalf("append action: %v", err)
	}
	if _, err := s.AppendChatMessage(ctx, room.ID, alice.ID, "from the past", base.Add(-time.Hour)); err != nil {
		t.Fatalf("append backdated message: %v", err)
	}

	items, err := s.FetchRoomHistory(ctx, room.ID)
	if err != nil {
		t.Fatalf("fetch history: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("expected 3 history items, got %d", len(items))
	}
	for i := 1; i < len(items); i++ {
		if items[i].Time().Before(items[i-1].Time()) {
			t.Fatalf("history not time-ordered at %d: %v before %v", i, items[i].Time(), items[i-1].Time())
		}
	}
	if items[0].Message == nil || items[0].Message.Text != "from the past" {
		t.Fatalf("backdated message must sort first, got %+v", items[0])
	}
	if items[0].Message.Username != "alice" {
		t.Fatalf("history must carry usernames, got %+v", items[0].Message)
	}
}

func TestAIChatBoxRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	room, _ := s.CreateRoom(ctx, "court-1")
	alice, _ := s.CreateGuestUser(ctx, "alice")
	bot, _ := s.FindOrCreateBot(ctx)

	box, err := s.GetOrCreateAIChatBox(ctx, room.ID, alice.ID)
	if err != nil {
		t.Fatalf("create box: %v", err)
	}
	again, err := s.GetOrCreateAIChatBox(ctx, room.ID, alice.ID)
	if err != nil {
		t.Fatalf("reopen box: %v", err)
	}
	if box.ID != again.ID {
		t.Fatalf("box must be unique per (room, user), got %d and %d", box.ID, again.ID)
	}

	if _, err := s.AppendAIChatMessage(ctx, box.ID, alice.ID, "help me argue"); err != nil {
		t.Fatalf("append user turn: %v", err)
	}
	placeholderID, err := s.AppendAIChatMessage(ctx, box.ID, bot.ID, "")
	if err != nil {
		t.Fatalf("append placeholder: %v", err)
	}
	if err := s.UpdateAIChatMessage(ctx, placeholderID, "Objection!"); err != nil {
		t.Fatalf("commit placeholder: %v", err)
	}

	msgs, err := s.GetAIChatLog(ctx, box.ID)
	if err != nil {
		t.Fatalf("get log: %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(msgs))
	}
	if msgs[0].IsBot || msgs[0].Text != "help me argue" {
		t.Fatalf("unexpected first entry: %+v", msgs[0])
	}
	if !msgs[1].IsBot || msgs[1].Text != "Objection!" {
		t.Fatalf("unexpected second entry: %+v", msgs[1])
	}
}

func TestUpdateMissingAIChatMessage(t *testing.T) {
	s := newTestStore(t)

	if err := s.UpdateAIChatMessage(context.Background(), 424242, "ghost"); err == nil {
		t.Fatal("updating a missing entry must fail")
	}
}
