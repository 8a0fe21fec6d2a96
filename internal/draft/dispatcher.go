package draft

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/jcorriveau23/backend-pool-nhl/internal/pool"
	"github.com/jcorriveau23/backend-pool-nhl/internal/store"
)

// Dispatcher resolves each socket's inbound command stream against the
// engine via the store, and fans the resulting snapshot back out to the
// room. One Dispatcher is shared process-wide, just like the Registry it
// wraps.
type Dispatcher struct {
	registry *Registry
	store    store.PoolStore

	mu      sync.RWMutex
	joined  map[string]string // socket id -> pool name, set only after JoinRoom
}

// NewDispatcher builds a dispatcher over a coordinator and a store.
func NewDispatcher(registry *Registry, poolStore store.PoolStore) *Dispatcher {
	return &Dispatcher{
		registry: registry,
		store:    poolStore,
		joined:   map[string]string{},
	}
}

func (d *Dispatcher) poolNameFor(socketID string) (string, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	name, ok := d.joined[socketID]
	return name, ok
}

// PoolNameFor exposes the pool a socket has joined, if any. The WebSocket
// transport uses this right after dispatching a JoinRoom frame to fetch the
// room's broadcast channel for that socket.
func (d *Dispatcher) PoolNameFor(socketID string) (string, bool) {
	return d.poolNameFor(socketID)
}

func (d *Dispatcher) setPoolName(socketID, poolName string) {
	d.mu.Lock()
	d.joined[socketID] = poolName
	d.mu.Unlock()
}

func (d *Dispatcher) clearSocket(socketID string) {
	d.mu.Lock()
	delete(d.joined, socketID)
	d.mu.Unlock()
}

// Dispatch handles one inbound frame from socketID and returns the frame to
// send back to that socket only (nil if nothing needs to be said directly).
// Successful pool mutations are broadcast to the room as a side effect.
func (d *Dispatcher) Dispatch(ctx context.Context, socketID string, raw []byte) []byte {
	var frame CommandFrame
	if err := json.Unmarshal(raw, &frame); err != nil {
		return marshalFrame(ErrorFrame("malformed command"))
	}

	poolName, joined := d.poolNameFor(socketID)
	if !joined && frame.Type != CmdJoinRoom {
		return marshalFrame(ErrorFrame("must JoinRoom before sending other commands"))
	}

	switch frame.Type {
	case CmdJoinRoom:
		return d.handleJoinRoom(socketID, frame.Data)
	case CmdLeaveRoom:
		return d.handleLeaveRoom(socketID, poolName)
	case CmdOnReady:
		return d.handleOnReady(socketID, poolName)
	case CmdOnPoolSettingChanges:
		return d.handleMutation(ctx, socketID, poolName, func(p *pool.Pool, userID string) *pool.Error {
			var data OnPoolSettingChangesData
			if err := json.Unmarshal(frame.Data, &data); err != nil {
				return &pool.Error{Kind: pool.KindInvariantViolated, Message: "malformed settings payload"}
			}
			if !p.HasPrivileges(userID) {
				return &pool.Error{Kind: pool.KindNotAuthorized, Message: "admin rights required"}
			}
			p.Settings = data.Settings
			return nil
		})
	case CmdStartDraft:
		return d.handleMutation(ctx, socketID, poolName, func(p *pool.Pool, userID string) *pool.Error {
			room := d.registry.roomFor(poolName, false)
			var roomUsers []RoomUser
			if room != nil {
				roomUsers = room.Users()
			}
			users := make([]pool.RoomUser, len(roomUsers))
			for i, u := range roomUsers {
				users[i] = pool.RoomUser{ID: u.ID, Name: u.Name, Email: u.Email, IsReady: u.IsReady}
			}
			return p.StartDraft(userID, users)
		})
	case CmdUndoDraftPlayer:
		return d.handleMutation(ctx, socketID, poolName, func(p *pool.Pool, userID string) *pool.Error {
			return p.UndoDraftPlayer(userID)
		})
	case CmdDraftPlayer:
		return d.handleMutation(ctx, socketID, poolName, func(p *pool.Pool, userID string) *pool.Error {
			var data DraftPlayerData
			if err := json.Unmarshal(frame.Data, &data); err != nil {
				return &pool.Error{Kind: pool.KindInvariantViolated, Message: "malformed player payload"}
			}
			return p.DraftPlayer(userID, data.Player)
		})
	default:
		return marshalFrame(ErrorFrame(fmt.Sprintf("unknown command %q", frame.Type)))
	}
}

func (d *Dispatcher) handleJoinRoom(socketID string, rawData json.RawMessage) []byte {
	var data JoinRoomData
	if err := json.Unmarshal(rawData, &data); err != nil {
		return marshalFrame(ErrorFrame("malformed JoinRoom payload"))
	}
	users, _, err := d.registry.JoinRoom(data.PoolName, socketID)
	if err != nil {
		return marshalFrame(ErrorFrame(err.Error()))
	}
	d.setPoolName(socketID, data.PoolName)
	d.registry.Broadcast(data.PoolName, marshalFrame(UsersFrame(users)))
	return marshalFrame(UsersFrame(users))
}

func (d *Dispatcher) handleLeaveRoom(socketID, poolName string) []byte {
	users := d.registry.LeaveRoom(poolName, socketID)
	d.clearSocket(socketID)
	d.registry.Broadcast(poolName, marshalFrame(UsersFrame(users)))
	return nil
}

func (d *Dispatcher) handleOnReady(socketID, poolName string) []byte {
	users, err := d.registry.OnReady(poolName, socketID)
	if err != nil {
		return marshalFrame(ErrorFrame(err.Error()))
	}
	d.registry.Broadcast(poolName, marshalFrame(UsersFrame(users)))
	return nil
}

// handleMutation implements §4.4 step 2: resolve (pool_name, user_id) from
// socket state, load → mutate → persist, broadcast the projected snapshot
// on success, or send Error only to the originating socket on failure.
func (d *Dispatcher) handleMutation(ctx context.Context, socketID, poolName string, mutate func(*pool.Pool, string) *pool.Error) []byte {
	claims, ok := d.registry.ClaimsFor(socketID)
	if !ok {
		return marshalFrame(ErrorFrame("socket is not authenticated"))
	}

	p, err := d.store.GetShortPool(ctx, poolName)
	if err != nil {
		return marshalFrame(ErrorFrame(err.Error()))
	}
	if engineErr := mutate(p, claims.UserID); engineErr != nil {
		return marshalFrame(ErrorFrame(engineErr.Error()))
	}

	updated, storeErr := d.store.UpdatePool(ctx, poolName, store.FullDiff(p))
	if storeErr != nil {
		return marshalFrame(ErrorFrame(storeErr.Error()))
	}

	d.registry.Broadcast(poolName, marshalFrame(PoolFrame(projectOutScoreByDay(updated))))
	return nil
}

// projectOutScoreByDay clears score_by_day before a pool is broadcast to a
// room, per §4.4 step 2 ("score_by_day projected out").
func projectOutScoreByDay(p *pool.Pool) *pool.Pool {
	if p.Context == nil {
		return p
	}
	cp := *p
	ctxCopy := *p.Context
	ctxCopy.ScoreByDay = map[string]map[string]pool.DailyRosterPoints{}
	cp.Context = &ctxCopy
	return &cp
}

// OnSocketClosed runs the §4.2/§4.4 teardown: leave_room and
// unauthenticate_socket, then broadcasts the updated user list.
func (d *Dispatcher) OnSocketClosed(socketID string) {
	if poolName, ok := d.poolNameFor(socketID); ok {
		users := d.registry.LeaveRoom(poolName, socketID)
		d.registry.Broadcast(poolName, marshalFrame(UsersFrame(users)))
		d.clearSocket(socketID)
	}
	d.registry.UnauthenticateSocket(socketID)
}
