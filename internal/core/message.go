package core

import "time"

// Side is one of the two courtroom positions a seat can hold.
type Side string

const (
	SideDefence     Side = "defence"
	SideProsecution Side = "prosecution"
)

// Opposite returns the complementary side. The zero value maps to
// prosecution so a defaulted first seat always yields opposite pairs.
func (s Side) Opposite() Side {
	if s == SideProsecution {
		return SideDefence
	}
	return SideProsecution
}

// Default avatar keys bound to each side.
const (
	SpriteDefence     = "character-phoenixwright"
	SpriteProsecution = "character-milesedgeworth"
)

func defaultSprite(side Side) string {
	if side == SideProsecution {
		return SpriteProsecution
	}
	return SpriteDefence
}

// ChatEntry is one line of the room's shared dialogue, or of an AI chat box
// log. Timestamps are minute-granularity wall clock in unix milliseconds,
// matching what clients render.
type ChatEntry struct {
	ID        int64  `json:"id"`
	UserID    int64  `json:"user_id"`
	User      string `json:"user"`
	Message   string `json:"message"`
	Timestamp int64  `json:"timestamp"`
	IsBot     bool   `json:"bot,omitempty"`
}

// ChatInfo is the chat portion of a room snapshot.
type ChatInfo struct {
	ChatLog         []ChatEntry `json:"chatLog"`
	LastMessageTime *time.Time  `json:"lastMessageTime"`
}

// minuteStamp truncates a wall-clock time to minute granularity and returns
// unix milliseconds.
func minuteStamp(t time.Time) int64 {
	return t.Truncate(time.Minute).UnixMilli()
}
