package core

// Client is one participant connection as seen by the core layer. A client
// becomes a real identity only after the hub resolves a user id for it
// through the store on create/join.
type Client struct {
	ID        string
	UserID    int64
	Name      string
	Side      Side
	SpriteKey string

	// Synthetic marks a seat driven by the automated opponent. It has no
	// socket behind it, so deliveries to it are discarded.
	Synthetic bool

	Commands chan *Command
	Events   chan *Event
}

// NewClient constructs a client with initialized channels.
func NewClient(id, name string) *Client {
	if name == "" {
		name = id
	}
	return &Client{
		ID:       id,
		Name:     name,
		Commands: make(chan *Command, 8),
		Events:   make(chan *Event, 32),
	}
}

// newSyntheticClient builds the automated opponent's seat.
func newSyntheticClient(id string, userID int64, name string, side Side) *Client {
	return &Client{
		ID:        id,
		UserID:    userID,
		Name:      name,
		Side:      side,
		SpriteKey: defaultSprite(side),
		Synthetic: true,
	}
}

// send delivers an event without ever blocking the hub loop. Slow or closed
// consumers are skipped; synthetic seats discard everything.
func (c *Client) send(ev *Event) {
	if c.Synthetic {
		return
	}
	select {
	case c.Events <- ev:
	default:
		// Drop if slow consumer.
	}
}
