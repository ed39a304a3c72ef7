package core

import "time"

const defaultAudioURL = "/assets/audio/courtroom.mp3"

// Room is one debate session. All mutation happens on the hub loop; the
// struct itself is not safe for concurrent use.
//
// The connection set holds every live socket in the room, spectators
// included. Seats are tracked separately: turn and interruption logic only
// ever resolves over seat-holders, never over the full set.
type Room struct {
	Name string
	ID   int64 // store-issued, 0 until persisted

	Topic string
	Mode  string
	Side  Side // mirrors the speaker's side

	clients  map[*Client]struct{}
	seats    [2]*Client
	speaker  *Client
	listener *Client

	chat ChatInfo

	previousObjectionIndex int
	objectionIndex         int
	inObjection            bool

	AudioURL  string
	EffectURL string

	isActive    bool
	isBotBattle bool

	// transient rooms exist only to host a playback; the hub skips store
	// writes for them and deletes them when playback completes.
	transient bool
}

// newRoom constructs an unseated room.
func newRoom(name string) *Room {
	return &Room{
		Name:     name,
		clients:  make(map[*Client]struct{}),
		AudioURL: defaultAudioURL,
	}
}

// addClient inserts a connection into the room. Returns true if newly added.
func (r *Room) addClient(c *Client) bool {
	if _, exists := r.clients[c]; exists {
		return false
	}
	r.clients[c] = struct{}{}
	return true
}

// removeClient deletes a connection and vacates its seat if it held one.
func (r *Room) removeClient(c *Client) {
	delete(r.clients, c)
	for i, seat := range r.seats {
		if seat == c {
			r.seats[i] = nil
		}
	}
	if r.speaker == c {
		r.speaker = nil
	}
	if r.listener == c {
		r.listener = nil
	}
}

// seat places a client into the first vacant seat. Returns false when both
// seats are taken.
func (r *Room) seat(c *Client) bool {
	for i, seat := range r.seats {
		if seat == nil {
			r.seats[i] = c
			return true
		}
	}
	return false
}

// seatCount returns the number of occupied seats.
func (r *Room) seatCount() int {
	n := 0
	for _, seat := range r.seats {
		if seat != nil {
			n++
		}
	}
	return n
}

// hasSeat reports whether c holds one of the two seats.
func (r *Room) hasSeat(c *Client) bool {
	return r.seats[0] == c || r.seats[1] == c
}

// seatByUserID resolves a seat-holder by its persisted user id.
func (r *Room) seatByUserID(userID int64) *Client {
	for _, seat := range r.seats {
		if seat != nil && seat.UserID == userID {
			return seat
		}
	}
	return nil
}

// otherSeat returns the seat-holder that is not c, or nil.
func (r *Room) otherSeat(c *Client) *Client {
	for _, seat := range r.seats {
		if seat != nil && seat != c {
			return seat
		}
	}
	return nil
}

// empty reports whether no live connections remain. Synthetic seats have no
// socket behind them and never keep a room alive.
func (r *Room) empty() bool {
	for c := range r.clients {
		if !c.Synthetic {
			return false
		}
	}
	return true
}

// appendChat appends one entry to the shared chat log. Entries are never
// reordered or removed.
func (r *Room) appendChat(entry ChatEntry, at time.Time) {
	r.chat.ChatLog = append(r.chat.ChatLog, entry)
	t := at
	r.chat.LastMessageTime = &t
}

// findChatEntry resolves a chat log entry by its persisted id.
func (r *Room) findChatEntry(id int64) *ChatEntry {
	for i := range r.chat.ChatLog {
		if r.chat.ChatLog[i].ID == id {
			return &r.chat.ChatLog[i]
		}
	}
	return nil
}

// broadcast sends an event to all connections in the room, skipping slow or
// closed consumers.
func (r *Room) broadcast(ev *Event) {
	for client := range r.clients {
		client.send(ev)
	}
}

// snapshot captures the room state for attachment to an outgoing event. The
// chat log backing array is append-only, so sharing the slice is safe.
func (r *Room) snapshot() *RoomInfo {
	users := make([]UserInfo, 0, len(r.clients))
	for _, seat := range r.seats {
		if seat == nil {
			continue
		}
		users = append(users, UserInfo{
			UserID:    seat.UserID,
			Name:      seat.Name,
			SpriteKey: seat.SpriteKey,
			Side:      seat.Side,
			IsSpeaker: seat == r.speaker,
		})
	}

	info := &RoomInfo{
		Name:      r.Name,
		Users:     users,
		ChatInfo:  r.chat,
		AudioURL:  r.AudioURL,
		EffectURL: r.EffectURL,
	}
	if r.speaker != nil {
		info.Speaker = r.speaker.Name
		info.SpeakerSide = r.speaker.Side
	}
	return info
}
