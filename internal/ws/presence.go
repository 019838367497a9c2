package ws

import "sync"

// entry binds one user to their live connection and joined room set.
// A user holds at most one entry per process.
type entry struct {
	client *Client
	rooms  map[string]bool
}

// Registry is the in-process presence table. It is the source of truth
// for which connections are in which rooms; clients themselves carry no
// room state. Mutated only by the hub's run loop and disconnect path.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*entry
}

// NewRegistry creates an empty presence registry
func NewRegistry() *Registry {
	return &Registry{
		entries: make(map[string]*entry),
	}
}

// Register inserts or overwrites the entry for the client's user.
// On reconnect the previous entry is replaced and its connection
// returned so the caller can close it; returns nil otherwise.
func (r *Registry) Register(userID string, c *Client) *Client {
	r.mu.Lock()
	defer r.mu.Unlock()

	var displaced *Client
	if prev, ok := r.entries[userID]; ok {
		displaced = prev.client
	}

	r.entries[userID] = &entry{
		client: c,
		rooms:  make(map[string]bool),
	}
	return displaced
}

// RemoveClient removes the entry for the client's user, but only when
// that client is still the registered one. A stale connection that was
// displaced by a reconnect must not tear down the new entry. Returns
// the rooms the entry held and whether anything was removed.
func (r *Registry) RemoveClient(c *Client) ([]string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[c.userID]
	if !ok || e.client != c {
		return nil, false
	}

	rooms := make([]string, 0, len(e.rooms))
	for roomID := range e.rooms {
		rooms = append(rooms, roomID)
	}
	delete(r.entries, c.userID)
	return rooms, true
}

// AddRoom records that the user's connection is in a room. Idempotent;
// a no-op when the user has no entry.
func (r *Registry) AddRoom(userID, roomID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if e, ok := r.entries[userID]; ok {
		e.rooms[roomID] = true
	}
}

// RemoveRoom removes a room from the user's entry. Idempotent.
func (r *Registry) RemoveRoom(userID, roomID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if e, ok := r.entries[userID]; ok {
		delete(e.rooms, roomID)
	}
}

// InRoom reports whether the user's live connection is in a room
func (r *Registry) InRoom(userID, roomID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.entries[userID]
	return ok && e.rooms[roomID]
}

// MembersOf returns a snapshot of the live connections in a room.
// The returned slice is a copy; callers may iterate it without holding
// any lock while the registry keeps changing.
func (r *Registry) MembersOf(roomID string) []*Client {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var clients []*Client
	for _, e := range r.entries {
		if e.rooms[roomID] {
			clients = append(clients, e.client)
		}
	}
	return clients
}

// Get returns the live connection for a user, or nil
func (r *Registry) Get(userID string) *Client {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if e, ok := r.entries[userID]; ok {
		return e.client
	}
	return nil
}

// Rooms returns the rooms the user's connection is in
func (r *Registry) Rooms(userID string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.entries[userID]
	if !ok {
		return nil
	}

	rooms := make([]string, 0, len(e.rooms))
	for roomID := range e.rooms {
		rooms = append(rooms, roomID)
	}
	return rooms
}

// IsOnline checks if a user has a live connection
func (r *Registry) IsOnline(userID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.entries[userID]
	return ok
}

// OnlineInRoom returns the number of live connections in a room
func (r *Registry) OnlineInRoom(roomID string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n := 0
	for _, e := range r.entries {
		if e.rooms[roomID] {
			n++
		}
	}
	return n
}

// OnlineUsers returns all online user IDs
func (r *Registry) OnlineUsers() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	userIDs := make([]string, 0, len(r.entries))
	for userID := range r.entries {
		userIDs = append(userIDs, userID)
	}
	return userIDs
}

// Len returns the number of live connections
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}
