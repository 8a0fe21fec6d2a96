// Package draft implements the Draft Room Coordinator: a process-wide,
// lock-guarded registry of pool rooms, each fanning out to its connected
// sockets over a bounded broadcast channel.
package draft

import "sync"

// broadcastCapacity bounds each room's fan-out channel. A slow subscriber
// that cannot keep up is dropped rather than allowed to back-pressure the
// room.
const broadcastCapacity = 64

// RoomUser is a draft-room participant's live presentation state, kept
// independent from the pool's persisted PoolUser.
type RoomUser struct {
	ID      string
	Name    string
	Email   *string
	IsReady bool
}

// Room owns one pool's connected sockets and their fan-out channel.
type Room struct {
	PoolName string

	mu      sync.RWMutex
	users   map[string]*RoomUser
	sockets map[string]chan []byte
}

func newRoom(poolName string) *Room {
	return &Room{
		PoolName: poolName,
		users:    map[string]*RoomUser{},
		sockets:  map[string]chan []byte{},
	}
}

// Join registers socketID's broadcast receiver and ensures userID has a
// presence entry, returning a snapshot of the room's users.
func (r *Room) Join(socketID, userID, name string, email *string) ([]RoomUser, <-chan []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ch := make(chan []byte, broadcastCapacity)
	r.sockets[socketID] = ch
	if u, ok := r.users[userID]; ok {
		u.Name = name
		u.Email = email
	} else {
		r.users[userID] = &RoomUser{ID: userID, Name: name, Email: email}
	}
	return r.snapshotLocked(), ch
}

// Leave removes socketID's receiver and userID's presence, returning the
// new user list and whether the room is now empty.
func (r *Room) Leave(socketID, userID string) ([]RoomUser, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if ch, ok := r.sockets[socketID]; ok {
		close(ch)
		delete(r.sockets, socketID)
	}
	delete(r.users, userID)
	return r.snapshotLocked(), len(r.sockets) == 0
}

// SetReady toggles is_ready for userID, returning the new user list.
func (r *Room) SetReady(userID string) []RoomUser {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[userID]; ok {
		u.IsReady = !u.IsReady
	}
	return r.snapshotLocked()
}

// Users returns a snapshot of the room's current presence list.
func (r *Room) Users() []RoomUser {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.snapshotLocked()
}

func (r *Room) snapshotLocked() []RoomUser {
	out := make([]RoomUser, 0, len(r.users))
	for _, u := range r.users {
		out = append(out, *u)
	}
	return out
}

// Broadcast fans payload out to every connected socket. A socket whose
// channel is full is dropped and disconnected rather than allowed to stall
// the broadcast.
func (r *Room) Broadcast(payload []byte) (dropped []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for socketID, ch := range r.sockets {
		select {
		case ch <- payload:
		default:
			close(ch)
			delete(r.sockets, socketID)
			dropped = append(dropped, socketID)
		}
	}
	return dropped
}

// channelFor returns socketID's current broadcast receiver, if connected.
func (r *Room) channelFor(socketID string) (<-chan []byte, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ch, ok := r.sockets[socketID]
	return ch, ok
}

// Empty reports whether the room currently has no connected sockets.
func (r *Room) Empty() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sockets) == 0
}
