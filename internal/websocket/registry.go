package websocket

import (
	"sync"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

// Registry maps rooms to the sessions currently in them. A session is in at
// most one room; a room exists only while it has members.
type Registry struct {
	mu     sync.RWMutex
	rooms  map[string]map[uuid.UUID]*Client
	roomOf map[uuid.UUID]string
}

func NewRegistry() *Registry {
	return &Registry{
		rooms:  make(map[string]map[uuid.UUID]*Client),
		roomOf: make(map[uuid.UUID]string),
	}
}

// Join puts client in room, leaving its previous room first. It returns the
// room that was left, if any.
func (r *Registry) Join(client *Client, room string) (previous string, moved bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if current, ok := r.roomOf[client.ID]; ok {
		if current == room {
			return "", false
		}
		r.removeUnsafe(client.ID, current)
		previous, moved = current, true
	}

	members, ok := r.rooms[room]
	if !ok {
		members = make(map[uuid.UUID]*Client)
		r.rooms[room] = members
	}
	members[client.ID] = client
	r.roomOf[client.ID] = room

	return previous, moved
}

// Leave removes client from whichever room it is in.
func (r *Registry) Leave(client *Client) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	room, ok := r.roomOf[client.ID]
	if !ok {
		return "", false
	}
	r.removeUnsafe(client.ID, room)
	return room, true
}

func (r *Registry) removeUnsafe(id uuid.UUID, room string) {
	delete(r.roomOf, id)
	if members, ok := r.rooms[room]; ok {
		delete(members, id)
		if len(members) == 0 {
			delete(r.rooms, room)
		}
	}
}

// MembersOf returns a snapshot of the sessions in room.
func (r *Registry) MembersOf(room string) []*Client {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return lo.Values(r.rooms[room])
}

func (r *Registry) RoomOf(client *Client) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	room, ok := r.roomOf[client.ID]
	return room, ok
}

// Rooms returns the member count of every non-empty room.
func (r *Registry) Rooms() map[string]int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return lo.MapValues(r.rooms, func(members map[uuid.UUID]*Client, _ string) int {
		return len(members)
	})
}
