package realtime

import "sync"

// Registry owns the set of live connections per user together with the
// bidirectional room subscription index. Both live under one lock because
// Unregister must atomically remove a connection from its user set and from
// every room it subscribes to.
//
// Connections are keyed by their generated id, never by pointer identity.
// All read methods used for fan-out return point-in-time copies so a
// concurrent teardown cannot mutate a set a caller is iterating. The lock
// is held only for the duration of a single map operation, never across a
// network send.
type Registry struct {
	mu sync.RWMutex

	// userConns maps user id -> connection id -> client
	userConns map[uint]map[string]*Client

	// roomConns maps chat id -> connection id -> client. A room entry
	// exists only while at least one connection subscribes to it.
	roomConns map[uint]map[string]*Client

	// connRooms is the reverse index: connection id -> subscribed chat ids.
	connRooms map[string]map[uint]struct{}
}

func NewRegistry() *Registry {
	return &Registry{
		userConns: make(map[uint]map[string]*Client),
		roomConns: make(map[uint]map[string]*Client),
		connRooms: make(map[string]map[uint]struct{}),
	}
}

// Register adds the connection to its user's set and initializes an empty
// room set for it in the reverse index.
func (r *Registry) Register(c *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.userConns[c.userID] == nil {
		r.userConns[c.userID] = make(map[string]*Client)
	}
	r.userConns[c.userID][c.id] = c
	r.connRooms[c.id] = make(map[uint]struct{})
}

// Unregister removes the connection from its user's set and from every room
// in its reverse-index set, shrinking empty entries as it goes. It is the
// single teardown entry point; unregistering an unknown connection is a
// safe no-op. Returns true if the connection was registered.
func (r *Registry) Unregister(c *Client) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	rooms, known := r.connRooms[c.id]
	if !known {
		return false
	}
	for chatID := range rooms {
		r.removeFromRoomLocked(c, chatID)
	}
	delete(r.connRooms, c.id)

	if conns, ok := r.userConns[c.userID]; ok {
		delete(conns, c.id)
		if len(conns) == 0 {
			delete(r.userConns, c.userID)
		}
	}
	return true
}

// Subscribe adds the connection to the room's set and the room to the
// connection's reverse set. Subscribing to a room the connection is already
// in is a no-op, as is subscribing an unregistered connection.
func (r *Registry) Subscribe(c *Client, chatID uint) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rooms, known := r.connRooms[c.id]
	if !known {
		return
	}
	if r.roomConns[chatID] == nil {
		r.roomConns[chatID] = make(map[string]*Client)
	}
	r.roomConns[chatID][c.id] = c
	rooms[chatID] = struct{}{}
}

// Unsubscribe removes the connection from the room, deleting the room entry
// if it becomes empty. Unsubscribing from a room the connection is not in
// is a no-op.
func (r *Registry) Unsubscribe(c *Client, chatID uint) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.removeFromRoomLocked(c, chatID)
	if rooms, ok := r.connRooms[c.id]; ok {
		delete(rooms, chatID)
	}
}

func (r *Registry) removeFromRoomLocked(c *Client, chatID uint) {
	conns, ok := r.roomConns[chatID]
	if !ok {
		return
	}
	delete(conns, c.id)
	if len(conns) == 0 {
		delete(r.roomConns, chatID)
	}
}

// SubscribersOf returns a point-in-time copy of the room's connection set,
// empty if the room is unknown.
func (r *Registry) SubscribersOf(chatID uint) []*Client {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conns := r.roomConns[chatID]
	out := make([]*Client, 0, len(conns))
	for _, c := range conns {
		out = append(out, c)
	}
	return out
}

// ConnectionsFor returns a point-in-time copy of the user's connection set.
func (r *Registry) ConnectionsFor(userID uint) []*Client {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conns := r.userConns[userID]
	out := make([]*Client, 0, len(conns))
	for _, c := range conns {
		out = append(out, c)
	}
	return out
}

// AllConnections returns a point-in-time copy of every registered
// connection across all users.
func (r *Registry) AllConnections() []*Client {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Client, 0, len(r.connRooms))
	for _, conns := range r.userConns {
		for _, c := range conns {
			out = append(out, c)
		}
	}
	return out
}

// RoomsOf returns a copy of the chat ids the connection subscribes to.
func (r *Registry) RoomsOf(c *Client) []uint {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rooms := r.connRooms[c.id]
	out := make([]uint, 0, len(rooms))
	for chatID := range rooms {
		out = append(out, chatID)
	}
	return out
}

// IsSubscribed reports whether the connection currently subscribes to the room.
func (r *Registry) IsSubscribed(c *Client, chatID uint) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.roomConns[chatID][c.id]
	return ok
}
