package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/courtlive/courtroom-server/internal/store"
)

// botUsername is the reserved identity authoring assistant turns.
const botUsername = "AI Assistant"

// SQLiteStore implements store.Store for SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// New creates a new SQLite store and applies the schema.
// dbPath is the path to the SQLite database file.
func New(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// SQLite works best with a single connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// NewWithSetup creates a new SQLite store and runs a setup function instead of
// the built-in schema. Useful for tests.
func NewWithSetup(dbPath string, setup func(*sql.DB) error) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if setup != nil {
		if err := setup(db); err != nil {
			db.Close()
			return nil, fmt.Errorf("setup: %w", err)
		}
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// ==== UserStore implementation ====

// CreateUser creates a registered user with hashed password.
func (s *SQLiteStore) CreateUser(ctx context.Context, username, passwordHash string) (*store.User, error) {
	query := `
		INSERT INTO users (username, password_hash, is_guest, is_bot)
		VALUES (?, ?, 0, 0)
	`
	result, err := s.db.ExecContext(ctx, query, username, passwordHash)
	if err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("get last insert id: %w", err)
	}

	return s.GetUserByID(ctx, id)
}

// CreateGuestUser creates a guest identity for a display name.
func (s *SQLiteStore) CreateGuestUser(ctx context.Context, displayName string) (*store.User, error) {
	query := `
		INSERT INTO users (username, password_hash, is_guest, is_bot)
		VALUES (?, '', 1, 0)
	`
	result, err := s.db.ExecContext(ctx, query, displayName)
	if err != nil {
		return nil, fmt.Errorf("insert guest user: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("get last insert id: %w", err)
	}

	return s.GetUserByID(ctx, id)
}

// GetUserByID retrieves a user by ID.
func (s *SQLiteStore) GetUserByID(ctx context.Context, id int64) (*store.User, error) {
	query := `
		SELECT id, username, password_hash, is_guest, is_bot, created_at
		FROM users
		WHERE id = ?
	`
	var user store.User
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&user.ID,
		&user.Username,
		&user.PasswordHash,
		&user.IsGuest,
		&user.IsBot,
		&user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user not found: %w", err)
		}
		return nil, fmt.Errorf("query user: %w", err)
	}

	return &user, nil
}

// GetUserByUsername retrieves a registered user by username.
func (s *SQLiteStore) GetUserByUsername(ctx context.Context, username string) (*store.User, error) {
	query := `
		SELECT id, username, password_hash, is_guest, is_bot, created_at
		FROM users
		WHERE username = ? AND is_guest = 0 AND is_bot = 0
	`
	var user store.User
	err := s.db.QueryRowContext(ctx, query, username).Scan(
		&user.ID,
		&user.Username,
		&user.PasswordHash,
		&user.IsGuest,
		&user.IsBot,
		&user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user not found: %w", err)
		}
		return nil, fmt.Errorf("query user: %w", err)
	}

	return &user, nil
}

// FindOrCreateBot returns the singleton bot identity.
func (s *SQLiteStore) FindOrCreateBot(ctx context.Context) (*store.User, error) {
	query := `
		SELECT id, username, password_hash, is_guest, is_bot, created_at
		FROM users
		WHERE is_bot = 1
		LIMIT 1
	`
	var user store.User
	err := s.db.QueryRowContext(ctx, query).Scan(
		&user.ID,
		&user.Username,
		&user.PasswordHash,
		&user.IsGuest,
		&user.IsBot,
		&user.CreatedAt,
	)
	if err == nil {
		return &user, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("query bot user: %w", err)
	}

	insert := `
		INSERT INTO users (username, password_hash, is_guest, is_bot)
		VALUES (?, '', 0, 1)
	`
	result, err := s.db.ExecContext(ctx, insert, botUsername)
	if err != nil {
		return nil, fmt.Errorf("insert bot user: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("get last insert id: %w", err)
	}

	return s.GetUserByID(ctx, id)
}

// ==== RoomStore implementation ====

// CreateRoom persists a new room record.
func (s *SQLiteStore) CreateRoom(ctx context.Context, name string) (*store.Room, error) {
	query := `
		INSERT INTO rooms (name, topic, mode)
		VALUES (?, '', '')
	`
	result, err := s.db.ExecContext(ctx, query, name)
	if err != nil {
		return nil, fmt.Errorf("insert room: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("get last insert id: %w", err)
	}

	return s.GetRoomByID(ctx, id)
}

// GetRoomByID retrieves a room record by ID.
func (s *SQLiteStore) GetRoomByID(ctx context.Context, id int64) (*store.Room, error) {
	query := `
		SELECT id, name, topic, mode, created_at
		FROM rooms
		WHERE id = ?
	`
	var room store.Room
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&room.ID,
		&room.Name,
		&room.Topic,
		&room.Mode,
		&room.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("room not found: %w", err)
		}
		return nil, fmt.Errorf("query room: %w", err)
	}

	return &room, nil
}

// UpdateRoomMeta stores the room's topic and mode.
func (s *SQLiteStore) UpdateRoomMeta(ctx context.Context, roomID int64, topic, mode string) error {
	query := `
		UPDATE rooms SET topic = ?, mode = ?
		WHERE id = ?
	`
	if _, err := s.db.ExecContext(ctx, query, topic, mode, roomID); err != nil {
		return fmt.Errorf("update room meta: %w", err)
	}
	return nil
}

// LinkUserToRoom records that a user participated in a room.
func (s *SQLiteStore) LinkUserToRoom(ctx context.Context, userID, roomID int64) error {
	query := `
		INSERT OR IGNORE INTO user_room_association (user_id, room_id)
		VALUES (?, ?)
	`
	if _, err := s.db.ExecContext(ctx, query, userID, roomID); err != nil {
		return fmt.Errorf("link user to room: %w", err)
	}
	return nil
}

// ListRoomUsers returns the users ever linked to a room, join order first.
func (s *SQLiteStore) ListRoomUsers(ctx context.Context, roomID int64) ([]*store.User, error) {
	query := `
		SELECT u.id, u.username, u.password_hash, u.is_guest, u.is_bot, u.created_at
		FROM user_room_association a
		JOIN users u ON u.id = a.user_id
		WHERE a.room_id = ?
		ORDER BY a.joined_at ASC, u.id ASC
	`
	rows, err := s.db.QueryContext(ctx, query, roomID)
	if err != nil {
		return nil, fmt.Errorf("query room users: %w", err)
	}
	defer rows.Close()

	var users []*store.User
	for rows.Next() {
		var user store.User
		if err := rows.Scan(
			&user.ID,
			&user.Username,
			&user.PasswordHash,
			&user.IsGuest,
			&user.IsBot,
			&user.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan room user: %w", err)
		}
		users = append(users, &user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate room users: %w", err)
	}

	return users, nil
}

// ==== LogStore implementation ====

// AppendChatMessage persists a chat message and returns its id.
func (s *SQLiteStore) AppendChatMessage(ctx context.Context, roomID, userID int64, text string, ts time.Time) (int64, error) {
	query := `
		INSERT INTO chat_messages (room_id, user_id, message, timestamp)
		VALUES (?, ?, ?, ?)
	`
	result, err := s.db.ExecContext(ctx, query, roomID, userID, text, ts)
	if err != nil {
		return 0, fmt.Errorf("insert chat message: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("get last insert id: %w", err)
	}

	return id, nil
}

// AppendUserAction persists a user action and returns its id.
func (s *SQLiteStore) AppendUserAction(ctx context.Context, roomID, userID int64, kind store.ActionKind, payload []byte) (int64, error) {
	if payload == nil {
		payload = []byte("{}")
	}
	query := `
		INSERT INTO user_actions (room_id, user_id, action, data)
		VALUES (?, ?, ?, ?)
	`
	result, err := s.db.ExecContext(ctx, query, roomID, userID, string(kind), string(payload))
	if err != nil {
		return 0, fmt.Errorf("insert user action: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("get last insert id: %w", err)
	}

	return id, nil
}

// FetchRoomHistory returns the merged chat and action history of a room,
// sorted by timestamp ascending.
func (s *SQLiteStore) FetchRoomHistory(ctx context.Context, roomID int64) ([]store.HistoryItem, error) {
	messages, err := s.fetchChatMessages(ctx, roomID)
	if err != nil {
		return nil, err
	}

	actions, err := s.fetchUserActions(ctx, roomID)
	if err != nil {
		return nil, err
	}

	items := make([]store.HistoryItem, 0, len(messages)+len(actions))
	for _, m := range messages {
		items = append(items, store.HistoryItem{Message: m})
	}
	for _, a := range actions {
		items = append(items, store.HistoryItem{Action: a})
	}

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Time().Before(items[j].Time())
	})

	return items, nil
}

func (s *SQLiteStore) fetchChatMessages(ctx context.Context, roomID int64) ([]*store.ChatMessage, error) {
	query := `
		SELECT m.id, m.room_id, m.user_id, u.username, m.message, m.timestamp
		FROM chat_messages m
		JOIN users u ON u.id = m.user_id
		WHERE m.room_id = ?
		ORDER BY m.timestamp ASC, m.id ASC
	`
	rows, err := s.db.QueryContext(ctx, query, roomID)
	if err != nil {
		return nil, fmt.Errorf("query chat messages: %w", err)
	}
	defer rows.Close()

	var messages []*store.ChatMessage
	for rows.Next() {
		var m store.ChatMessage
		if err := rows.Scan(&m.ID, &m.RoomID, &m.UserID, &m.Username, &m.Text, &m.Timestamp); err != nil {
			return nil, fmt.Errorf("scan chat message: %w", err)
		}
		messages = append(messages, &m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate chat messages: %w", err)
	}

	return messages, nil
}

func (s *SQLiteStore) fetchUserActions(ctx context.Context, roomID int64) ([]*store.UserAction, error) {
	query := `
		SELECT a.id, a.room_id, a.user_id, u.username, a.action, a.data, a.created_at
		FROM user_actions a
		JOIN users u ON u.id = a.user_id
		WHERE a.room_id = ?
		ORDER BY a.created_at ASC, a.id ASC
	`
	rows, err := s.db.QueryContext(ctx, query, roomID)
	if err != nil {
		return nil, fmt.Errorf("query user actions: %w", err)
	}
	defer rows.Close()

	var actions []*store.UserAction
	for rows.Next() {
		var a store.UserAction
		var kind, data string
		if err := rows.Scan(&a.ID, &a.RoomID, &a.UserID, &a.Username, &kind, &data, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan user action: %w", err)
		}
		a.Kind = store.ActionKind(kind)
		a.Payload = []byte(data)
		actions = append(actions, &a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate user actions: %w", err)
	}

	return actions, nil
}

// ==== AIBoxStore implementation ====

// GetOrCreateAIChatBox returns the box for a (room, user) pair.
func (s *SQLiteStore) GetOrCreateAIChatBox(ctx context.Context, roomID, userID int64) (*store.AIChatBox, error) {
	query := `
		SELECT id, room_id, user_id, created_at
		FROM ai_chat_boxes
		WHERE room_id = ? AND user_id = ?
	`
	var box store.AIChatBox
	err := s.db.QueryRowContext(ctx, query, roomID, userID).Scan(
		&box.ID,
		&box.RoomID,
		&box.UserID,
		&box.CreatedAt,
	)
	if err == nil {
		return &box, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("query ai chat box: %w", err)
	}

	insert := `
		INSERT INTO ai_chat_boxes (room_id, user_id)
		VALUES (?, ?)
	`
	result, err := s.db.ExecContext(ctx, insert, roomID, userID)
	if err != nil {
		return nil, fmt.Errorf("insert ai chat box: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("get last insert id: %w", err)
	}

	err = s.db.QueryRowContext(ctx, query, roomID, userID).Scan(
		&box.ID,
		&box.RoomID,
		&box.UserID,
		&box.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("reread ai chat box %d: %w", id, err)
	}

	return &box, nil
}

// GetAIChatLog returns the box's messages, oldest first.
func (s *SQLiteStore) GetAIChatLog(ctx context.Context, boxID int64) ([]*store.AIChatMessage, error) {
	query := `
		SELECT m.id, m.box_id, m.user_id, u.username, u.is_bot, m.message, m.timestamp
		FROM ai_chat_messages m
		JOIN users u ON u.id = m.user_id
		WHERE m.box_id = ?
		ORDER BY m.id ASC
	`
	rows, err := s.db.QueryContext(ctx, query, boxID)
	if err != nil {
		return nil, fmt.Errorf("query ai chat log: %w", err)
	}
	defer rows.Close()

	var messages []*store.AIChatMessage
	for rows.Next() {
		var m store.AIChatMessage
		if err := rows.Scan(&m.ID, &m.BoxID, &m.UserID, &m.Username, &m.IsBot, &m.Text, &m.Timestamp); err != nil {
			return nil, fmt.Errorf("scan ai chat message: %w", err)
		}
		messages = append(messages, &m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ai chat log: %w", err)
	}

	return messages, nil
}

// AppendAIChatMessage persists one box entry and returns its id.
func (s *SQLiteStore) AppendAIChatMessage(ctx context.Context, boxID, userID int64, text string) (int64, error) {
	query := `
		INSERT INTO ai_chat_messages (box_id, user_id, message)
		VALUES (?, ?, ?)
	`
	result, err := s.db.ExecContext(ctx, query, boxID, userID, text)
	if err != nil {
		return 0, fmt.Errorf("insert ai chat message: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("get last insert id: %w", err)
	}

	return id, nil
}

// UpdateAIChatMessage replaces the text of an existing box entry.
func (s *SQLiteStore) UpdateAIChatMessage(ctx context.Context, messageID int64, text string) error {
	query := `
		UPDATE ai_chat_messages SET message = ?
		WHERE id = ?
	`
	result, err := s.db.ExecContext(ctx, query, text, messageID)
	if err != nil {
		return fmt.Errorf("update ai chat message: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("ai chat message %d not found", messageID)
	}

	return nil
}
