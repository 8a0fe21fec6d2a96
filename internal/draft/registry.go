package draft

import (
	"fmt"
	"sync"
)

// UserClaims is the minimal identity a validated token yields.
type UserClaims struct {
	UserID string
	Name   string
	Email  *string
}

// TokenValidator is the port the coordinator uses to authenticate a socket;
// internal/auth supplies the production (JWKS) and local (HS256) implementations.
type TokenValidator interface {
	Validate(token string) (UserClaims, error)
}

// Registry is the process-wide Draft Room Coordinator: one map of rooms
// keyed by pool name, one map of authenticated sockets keyed by socket id,
// each guarded by its own reader/writer lock so writer-side critical
// sections stay short and never span I/O.
type Registry struct {
	validator TokenValidator

	roomsMu sync.RWMutex
	rooms   map[string]*Room

	socketsMu sync.RWMutex
	sockets   map[string]UserClaims
}

// NewRegistry constructs an empty coordinator. One instance is created at
// process start and shared via dependency injection, never as a package
// global.
func NewRegistry(validator TokenValidator) *Registry {
	return &Registry{
		validator: validator,
		rooms:     map[string]*Room{},
		sockets:   map[string]UserClaims{},
	}
}

// AuthenticateSocket validates token against the configured validator and,
// on success, records socketID's identity.
func (reg *Registry) AuthenticateSocket(socketID, token string) (UserClaims, error) {
	claims, err := reg.validator.Validate(token)
	if err != nil {
		return UserClaims{}, err
	}
	reg.socketsMu.Lock()
	reg.sockets[socketID] = claims
	reg.socketsMu.Unlock()
	return claims, nil
}

// UnauthenticateSocket drops socketID's recorded identity, if any.
func (reg *Registry) UnauthenticateSocket(socketID string) {
	reg.socketsMu.Lock()
	delete(reg.sockets, socketID)
	reg.socketsMu.Unlock()
}

func (reg *Registry) claimsFor(socketID string) (UserClaims, bool) {
	reg.socketsMu.RLock()
	defer reg.socketsMu.RUnlock()
	claims, ok := reg.sockets[socketID]
	return claims, ok
}

// ClaimsFor exposes a socket's authenticated identity, if any.
func (reg *Registry) ClaimsFor(socketID string) (UserClaims, bool) {
	return reg.claimsFor(socketID)
}

func (reg *Registry) roomFor(poolName string, create bool) *Room {
	reg.roomsMu.RLock()
	room, ok := reg.rooms[poolName]
	reg.roomsMu.RUnlock()
	if ok || !create {
		return room
	}

	reg.roomsMu.Lock()
	defer reg.roomsMu.Unlock()
	if room, ok = reg.rooms[poolName]; ok {
		return room
	}
	room = newRoom(poolName)
	reg.rooms[poolName] = room
	return room
}

// JoinRoom registers socketID into poolName's room. Authenticated sockets
// add/refresh their presence entry; unauthenticated sockets may still
// subscribe read-only (no presence entry, receive-only channel).
func (reg *Registry) JoinRoom(poolName, socketID string) ([]RoomUser, <-chan []byte, error) {
	room := reg.roomFor(poolName, true)
	claims, authenticated := reg.claimsFor(socketID)
	if !authenticated {
		users, ch := room.Join(socketID, "", "", nil)
		return users, ch, nil
	}
	users, ch := room.Join(socketID, claims.UserID, claims.Name, claims.Email)
	return users, ch, nil
}

// LeaveRoom removes socketID from poolName's room, deleting the room entry
// if it is now empty, and returns the refreshed user list.
func (reg *Registry) LeaveRoom(poolName, socketID string) []RoomUser {
	room := reg.roomFor(poolName, false)
	if room == nil {
		return nil
	}
	claims, _ := reg.claimsFor(socketID)
	users, empty := room.Leave(socketID, claims.UserID)
	if empty {
		reg.roomsMu.Lock()
		if reg.rooms[poolName] == room {
			delete(reg.rooms, poolName)
		}
		reg.roomsMu.Unlock()
	}
	return users
}

// OnReady toggles the authenticated socket's ready flag within poolName's
// room.
func (reg *Registry) OnReady(poolName, socketID string) ([]RoomUser, error) {
	claims, ok := reg.claimsFor(socketID)
	if !ok {
		return nil, fmt.Errorf("socket %s is not authenticated", socketID)
	}
	room := reg.roomFor(poolName, false)
	if room == nil {
		return nil, fmt.Errorf("room %s does not exist", poolName)
	}
	return room.SetReady(claims.UserID), nil
}

// Broadcast fans payload out to every socket currently in poolName's room.
func (reg *Registry) Broadcast(poolName string, payload []byte) {
	room := reg.roomFor(poolName, false)
	if room == nil {
		return
	}
	room.Broadcast(payload)
}

// RoomChannel returns socketID's broadcast receiver within poolName's room,
// if the socket is currently connected there.
func (reg *Registry) RoomChannel(poolName, socketID string) (<-chan []byte, bool) {
	room := reg.roomFor(poolName, false)
	if room == nil {
		return nil, false
	}
	return room.channelFor(socketID)
}

// ListRooms returns every currently live pool name.
func (reg *Registry) ListRooms() []string {
	reg.roomsMu.RLock()
	defer reg.roomsMu.RUnlock()
	out := make([]string, 0, len(reg.rooms))
	for name := range reg.rooms {
		out = append(out, name)
	}
	return out
}

// ListRoomUsers returns poolName's current presence snapshot.
func (reg *Registry) ListRoomUsers(poolName string) []RoomUser {
	room := reg.roomFor(poolName, false)
	if room == nil {
		return nil
	}
	return room.Users()
}

// ListAuthenticatedSockets returns every socket id currently authenticated.
func (reg *Registry) ListAuthenticatedSockets() []string {
	reg.socketsMu.RLock()
	defer reg.socketsMu.RUnlock()
	out := make([]string, 0, len(reg.sockets))
	for id := range reg.sockets {
		out = append(out, id)
	}
	return out
}
