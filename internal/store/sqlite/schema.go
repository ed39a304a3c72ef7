package sqlite

// schema is applied on every startup; statements are idempotent.
const schema = `
CREATE TABLE IF NOT EXISTS users (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	username      TEXT NOT NULL,
	password_hash TEXT NOT NULL DEFAULT '',
	is_guest      BOOLEAN NOT NULL DEFAULT 0,
	is_bot        BOOLEAN NOT NULL DEFAULT 0,
	created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_users_registered_name
	ON users (username) WHERE is_guest = 0 AND is_bot = 0;

CREATE TABLE IF NOT EXISTS rooms (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	name       TEXT NOT NULL,
	topic      TEXT NOT NULL DEFAULT '',
	mode       TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS user_room_association (
	user_id   INTEGER NOT NULL REFERENCES users(id),
	room_id   INTEGER NOT NULL REFERENCES rooms(id),
	joined_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	PRIMARY KEY (user_id, room_id)
);

CREATE TABLE IF NOT EXISTS chat_messages (
	id        INTEGER PRIMARY KEY AUTOINCREMENT,
	room_id   INTEGER NOT NULL REFERENCES rooms(id),
	user_id   INTEGER NOT NULL REFERENCES users(id),
	message   TEXT NOT NULL,
	timestamp DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_chat_messages_room ON chat_messages (room_id, timestamp);

CREATE TABLE IF NOT EXISTS user_actions (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	room_id    INTEGER NOT NULL REFERENCES rooms(id),
	user_id    INTEGER NOT NULL REFERENCES users(id),
	action     TEXT NOT NULL,
	data       TEXT NOT NULL DEFAULT '{}',
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_user_actions_room ON user_actions (room_id, created_at);

CREATE TABLE IF NOT EXISTS ai_chat_boxes (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	room_id    INTEGER NOT NULL REFERENCES rooms(id),
	user_id    INTEGER NOT NULL REFERENCES users(id),
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	UNIQUE (room_id, user_id)
);

CREATE TABLE IF NOT EXISTS ai_chat_messages (
	id        INTEGER PRIMARY KEY AUTOINCREMENT,
	box_id    INTEGER NOT NULL REFERENCES ai_chat_boxes(id),
	user_id   INTEGER NOT NULL REFERENCES users(id),
	message   TEXT NOT NULL,
	timestamp DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`
