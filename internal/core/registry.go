package core

// Registry owns the canonical name→room mapping. It is confined to the hub
// loop and carries no locking of its own; every component that needs room
// resolution goes through the hub.
type Registry struct {
	rooms map[string]*Room
}

// NewRegistry constructs an empty registry.
func NewRegistry() *Registry {
	return &Registry{rooms: make(map[string]*Room)}
}

// Lookup returns the room registered under name, or nil.
func (g *Registry) Lookup(name string) *Room {
	return g.rooms[name]
}

// Register adds a room under its name. Returns false if the name is taken.
func (g *Registry) Register(room *Room) bool {
	if _, exists := g.rooms[room.Name]; exists {
		return false
	}
	g.rooms[room.Name] = room
	return true
}

// Delete removes a room by name.
func (g *Registry) Delete(name string) {
	delete(g.rooms, name)
}

// roomOf finds the room holding a given connection.
func (g *Registry) roomOf(c *Client) *Room {
	for _, room := range g.rooms {
		if _, ok := room.clients[c]; ok {
			return room
		}
	}
	return nil
}

// OpenRoom is one lobby listing entry.
type OpenRoom struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// ListJoinable returns rooms waiting on a second seat. Transient playback
// rooms are never joinable.
func (g *Registry) ListJoinable() []OpenRoom {
	open := make([]OpenRoom, 0)
	for name, room := range g.rooms {
		if room.transient {
			continue
		}
		if room.seatCount() == 1 {
			open = append(open, OpenRoom{Name: name, Count: room.seatCount()})
		}
	}
	return open
}
