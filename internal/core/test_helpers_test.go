package core

import (
	"context"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/courtlive/courtroom-server/internal/ai"
	"github.com/courtlive/courtroom-server/internal/store"
)

func mustEvent(t *testing.T, ch <-chan *Event, kind EventKind) *Event {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		select {
		case ev := <-ch:
			if ev == nil {
				continue
			}
			if ev.Kind == kind {
				return ev
			}
		default:
			time.Sleep(10 * time.Millisecond)
		}
	}
	t.Fatalf("expected event kind %v not received", kind)
	return nil
}

func noEvent(t *testing.T, ch <-chan *Event, kind EventKind) {
	t.Helper()

	deadline := time.Now().Add(200 * time.Millisecond)
	for time.Now().Before(deadline) {
		select {
		case ev := <-ch:
			if ev != nil && ev.Kind == kind {
				t.Fatalf("unexpected event kind %v: %+v", kind, ev)
			}
		default:
			time.Sleep(10 * time.Millisecond)
		}
	}
}

// newTestDeadline returns a poll step that reports expiry after 2s.
func newTestDeadline() func() bool {
	deadline := time.Now().Add(2 * time.Second)
	return func() bool {
		time.Sleep(10 * time.Millisecond)
		return time.Now().After(deadline)
	}
}

func drainEvents(c *Client) {
	for {
		select {
		case <-c.Events:
		default:
			return
		}
	}
}

// fakeStore is an in-memory store with per-table failure injection.
type fakeStore struct {
	mu     sync.Mutex
	nextID int64

	users       map[int64]*store.User
	rooms       map[int64]*store.Room
	links       map[int64][]int64
	messages    []*store.ChatMessage
	actions     []*store.UserAction
	boxes       map[[2]int64]*store.AIChatBox
	boxMessages map[int64][]*store.AIChatMessage

	failChat    bool
	failActions bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:       make(map[int64]*store.User),
		rooms:       make(map[int64]*store.Room),
		links:       make(map[int64][]int64),
		boxes:       make(map[[2]int64]*store.AIChatBox),
		boxMessages: make(map[int64][]*store.AIChatMessage),
	}
}

func (f *fakeStore) id() int64 {
	f.nextID++
	return f.nextID
}

func (f *fakeStore) CreateUser(_ context.Context, username, passwordHash string) (*store.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u := &store.User{ID: f.id(), Username: username, PasswordHash: passwordHash, CreatedAt: time.Now()}
	f.users[u.ID] = u
	return u, nil
}

func (f *fakeStore) CreateGuestUser(_ context.Context, displayName string) (*store.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u := &store.User{ID: f.id(), Username: displayName, IsGuest: true, CreatedAt: time.Now()}
	f.users[u.ID] = u
	return u, nil
}

func (f *fakeStore) GetUserByID(_ context.Context, id int64) (*store.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, fmt.Errorf("user %d not found", id)
	}
	return u, nil
}

func (f *fakeStore) GetUserByUsername(_ context.Context, username string) (*store.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Username == username && !u.IsGuest {
			return u, nil
		}
	}
	return nil, fmt.Errorf("user %q not found", username)
}

func (f *fakeStore) FindOrCreateBot(_ context.Context) (*store.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.IsBot {
			return u, nil
		}
	}
	u := &store.User{ID: f.id(), Username: "AI Assistant", IsBot: true, CreatedAt: time.Now()}
	f.users[u.ID] = u
	return u, nil
}

func (f *fakeStore) CreateRoom(_ context.Context, name string) (*store.Room, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r := &store.Room{ID: f.id(), Name: name, CreatedAt: time.Now()}
	f.rooms[r.ID] = r
	return r, nil
}

func (f *fakeStore) GetRoomByID(_ context.Context, id int64) (*store.Room, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.rooms[id]
	if !ok {
		return nil, fmt.Errorf("room %d not found", id)
	}
	return r, nil
}

func (f *fakeStore) UpdateRoomMeta(_ context.Context, roomID int64, topic, mode string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if r, ok := f.rooms[roomID]; ok {
		r.Topic = topic
		r.Mode = mode
	}
	return nil
}

func (f *fakeStore) LinkUserToRoom(_ context.Context, userID, roomID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.links[roomID] = append(f.links[roomID], userID)
	return nil
}

func (f *fakeStore) ListRoomUsers(_ context.Context, roomID int64) ([]*store.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	users := make([]*store.User, 0, len(f.links[roomID]))
	for _, uid := range f.links[roomID] {
		if u, ok := f.users[uid]; ok {
			users = append(users, u)
		}
	}
	return users, nil
}

func (f *fakeStore) AppendChatMessage(_ context.Context, roomID, userID int64, text string, ts time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failChat {
		return 0, fmt.Errorf("injected chat failure")
	}
	username := ""
	if u, ok := f.users[userID]; ok {
		username = u.Username
	}
	m := &store.ChatMessage{ID: f.id(), RoomID: roomID, UserID: userID, Username: username, Text: text, Timestamp: ts}
	f.messages = append(f.messages, m)
	return m.ID, nil
}

func (f *fakeStore) AppendUserAction(_ context.Context, roomID, userID int64, kind store.ActionKind, payload []byte) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failActions {
		return 0, fmt.Errorf("injected action failure")
	}
	username := ""
	if u, ok := f.users[userID]; ok {
		username = u.Username
	}
	a := &store.UserAction{ID: f.id(), RoomID: roomID, UserID: userID, Username: username, Kind: kind, Payload: payload, CreatedAt: time.Now()}
	f.actions = append(f.actions, a)
	return a.ID, nil
}

func (f *fakeStore) FetchRoomHistory(_ context.Context, roomID int64) ([]store.HistoryItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var items []store.HistoryItem
	for _, m := range f.messages {
		if m.RoomID == roomID {
			items = append(items, store.HistoryItem{Message: m})
		}
	}
	for _, a := range f.actions {
		if a.RoomID == roomID {
			items = append(items, store.HistoryItem{Action: a})
		}
	}
	return items, nil
}

func (f *fakeStore) GetOrCreateAIChatBox(_ context.Context, roomID, userID int64) (*store.AIChatBox, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := [2]int64{roomID, userID}
	if box, ok := f.boxes[key]; ok {
		return box, nil
	}
	box := &store.AIChatBox{ID: f.id(), RoomID: roomID, UserID: userID, CreatedAt: time.Now()}
	f.boxes[key] = box
	return box, nil
}

func (f *fakeStore) GetAIChatLog(_ context.Context, boxID int64) ([]*store.AIChatMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*store.AIChatMessage(nil), f.boxMessages[boxID]...), nil
}

func (f *fakeStore) AppendAIChatMessage(_ context.Context, boxID, userID int64, text string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u := f.users[userID]
	m := &store.AIChatMessage{ID: f.id(), BoxID: boxID, UserID: userID, Text: text, Timestamp: time.Now()}
	if u != nil {
		m.Username = u.Username
		m.IsBot = u.IsBot
	}
	f.boxMessages[boxID] = append(f.boxMessages[boxID], m)
	return m.ID, nil
}

func (f *fakeStore) UpdateAIChatMessage(_ context.Context, messageID int64, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, msgs := range f.boxMessages {
		for _, m := range msgs {
			if m.ID == messageID {
				m.Text = text
				return nil
			}
		}
	}
	return fmt.Errorf("ai message %d not found", messageID)
}

func (f *fakeStore) Close() error { return nil }

// fakeGen scripts the text-generation collaborator: Stream yields deltas,
// Complete returns scripted texts in order. An optional gate blocks Recv
// until released.
type fakeGen struct {
	mu          sync.Mutex
	deltas      []string
	completions []string
	calls       int
	gate        chan struct{}
}

func (g *fakeGen) Stream(_ context.Context, _ string, _ []ai.Message) (ai.Stream, error) {
	return &fakeStream{deltas: g.deltas, gate: g.gate}, nil
}

func (g *fakeGen) Complete(_ context.Context, _ string, _ []ai.Message) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.calls >= len(g.completions) {
		return "", fmt.Errorf("no scripted completion left")
	}
	text := g.completions[g.calls]
	g.calls++
	return text, nil
}

type fakeStream struct {
	deltas []string
	i      int
	gate   chan struct{}
}

func (s *fakeStream) Recv() (string, error) {
	if s.gate != nil {
		<-s.gate
	}
	if s.i >= len(s.deltas) {
		return "", io.EOF
	}
	d := s.deltas[s.i]
	s.i++
	return d, nil
}

func (s *fakeStream) Close() error { return nil }

// newTestHub starts a hub over a fresh fake store.
func newTestHub(t *testing.T) (*Hub, *fakeStore) {
	t.Helper()
	return newTestHubWithGen(t, nil)
}

func newTestHubWithGen(t *testing.T, gen ai.Generator) (*Hub, *fakeStore) {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	st := newFakeStore()
	hub := NewHub(st, gen, nil)
	go hub.Run(ctx)
	return hub, st
}

// seatPair creates a room with two seated clients and drains the setup
// events.
func seatPair(t *testing.T, hub *Hub, room string) (creator, joiner *Client) {
	t.Helper()

	creator = NewClient("c-"+room, "")
	joiner = NewClient("j-"+room, "")
	hub.RegisterClient(creator)
	hub.RegisterClient(joiner)

	creator.Commands <- &Command{Kind: CommandCreateRoom, Room: room, Name: "alice"}
	mustEvent(t, creator.Events, EventRoomCreated)

	joiner.Commands <- &Command{Kind: CommandJoinRoom, Room: room, Name: "bob"}
	mustEvent(t, joiner.Events, EventRoomJoined)
	mustEvent(t, creator.Events, EventPlayerJoined)

	drainEvents(creator)
	drainEvents(joiner)
	return creator, joiner
}
