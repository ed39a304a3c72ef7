package store

import (
	"context"
	"time"
)

// User represents an identity issued by the store. Guests are created on the
// fly from a display name when a connection first creates or joins a room.
type User struct {
	ID           int64
	Username     string
	PasswordHash string
	IsGuest      bool
	IsBot        bool
	CreatedAt    time.Time
}

// Room is the persisted record of a session. The in-memory aggregate lives in
// the core package; this row exists so history can outlive the live room.
type Room struct {
	ID        int64
	Name      string
	Topic     string
	Mode      string
	CreatedAt time.Time
}

// ChatMessage is a persisted line of room dialogue.
type ChatMessage struct {
	ID        int64
	RoomID    int64
	UserID    int64
	Username  string
	Text      string
	Timestamp time.Time
}

// ActionKind enumerates the non-chat events recorded in the action log.
type ActionKind string

const (
	ActionObjection     ActionKind = "objection"
	ActionHoldIt        ActionKind = "holdit"
	ActionSwitchSpeaker ActionKind = "switch_speaker"
	ActionChangePose    ActionKind = "change_pose"
	ActionSelectSide    ActionKind = "select_side"
	ActionGenerate      ActionKind = "generate"
)

// UserAction is a durable record of a non-chat state transition.
type UserAction struct {
	ID        int64
	RoomID    int64
	UserID    int64
	Username  string
	Kind      ActionKind
	Payload   []byte // free-form JSON
	CreatedAt time.Time
}

// HistoryItem is one entry of a room's merged history. Exactly one of Message
// and Action is set.
type HistoryItem struct {
	Message *ChatMessage
	Action  *UserAction
}

// Time returns the ordering timestamp of the item.
func (h HistoryItem) Time() time.Time {
	if h.Message != nil {
		return h.Message.Timestamp
	}
	return h.Action.CreatedAt
}

// AIChatBox is the private side-channel conversation between one participant
// and the assistant, scoped to a (room, user) pair.
type AIChatBox struct {
	ID        int64
	RoomID    int64
	UserID    int64
	CreatedAt time.Time
}

// AIChatMessage is one entry of an AI chat box log.
type AIChatMessage struct {
	ID        int64
	BoxID     int64
	UserID    int64
	Username  string
	Text      string
	IsBot     bool
	Timestamp time.Time
}

// UserStore handles identity persistence.
type UserStore interface {
	// CreateUser creates a registered user with hashed password.
	CreateUser(ctx context.Context, username, passwordHash string) (*User, error)

	// CreateGuestUser creates a guest identity for a display name. Display
	// names are not unique; every call issues a fresh id.
	CreateGuestUser(ctx context.Context, displayName string) (*User, error)

	// GetUserByID retrieves a user by id.
	GetUserByID(ctx context.Context, id int64) (*User, error)

	// GetUserByUsername retrieves a registered user by username.
	GetUserByUsername(ctx context.Context, username string) (*User, error)

	// FindOrCreateBot returns the singleton bot identity, creating it on
	// first use.
	FindOrCreateBot(ctx context.Context) (*User, error)
}

// RoomStore handles room persistence.
type RoomStore interface {
	// CreateRoom persists a new room record and returns it with its id.
	CreateRoom(ctx context.Context, name string) (*Room, error)

	// GetRoomByID retrieves a room record by id.
	GetRoomByID(ctx context.Context, id int64) (*Room, error)

	// UpdateRoomMeta stores the room's topic and mode.
	UpdateRoomMeta(ctx context.Context, roomID int64, topic, mode string) error

	// LinkUserToRoom records that a user participated in a room.
	LinkUserToRoom(ctx context.Context, userID, roomID int64) error

	// ListRoomUsers returns the users ever linked to a room, join order first.
	ListRoomUsers(ctx context.Context, roomID int64) ([]*User, error)
}

// LogStore handles the chat log and the action log.
type LogStore interface {
	// AppendChatMessage persists a chat message and returns its id.
	AppendChatMessage(ctx context.Context, roomID, userID int64, text string, ts time.Time) (int64, error)

	// AppendUserAction persists a user action and returns its id.
	AppendUserAction(ctx context.Context, roomID, userID int64, kind ActionKind, payload []byte) (int64, error)

	// FetchRoomHistory returns the merged chat and action history of a room,
	// sorted by timestamp ascending.
	FetchRoomHistory(ctx context.Context, roomID int64) ([]HistoryItem, error)
}

// AIBoxStore handles AI chat box persistence.
type AIBoxStore interface {
	// GetOrCreateAIChatBox returns the box for a (room, user) pair, creating
	// it lazily on first use.
	GetOrCreateAIChatBox(ctx context.Context, roomID, userID int64) (*AIChatBox, error)

	// GetAIChatLog returns the box's messages, oldest first.
	GetAIChatLog(ctx context.Context, boxID int64) ([]*AIChatMessage, error)

	// AppendAIChatMessage persists one entry and returns its id.
	AppendAIChatMessage(ctx context.Context, boxID, userID int64, text string) (int64, error)

	// UpdateAIChatMessage replaces the text of an existing entry. Used to
	// commit the streamed assistant turn into its placeholder row.
	UpdateAIChatMessage(ctx context.Context, messageID int64, text string) error
}

// Store aggregates all storage interfaces.
type Store interface {
	UserStore
	RoomStore
	LogStore
	AIBoxStore

	// Close closes the underlying database connection.
	Close() error
}
