package draft

import (
	"encoding/json"
	"fmt"

	"github.com/jcorriveau23/backend-pool-nhl/internal/pool"
)

// CommandFrame is the tagged-union envelope every inbound WebSocket frame
// arrives as: {"type": "...", "data": {...}}.
type CommandFrame struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// Command tag names, matching spec.md §4.4's command set verbatim.
const (
	CmdJoinRoom             = "JoinRoom"
	CmdLeaveRoom            = "LeaveRoom"
	CmdOnReady              = "OnReady"
	CmdOnPoolSettingChanges = "OnPoolSettingChanges"
	CmdStartDraft           = "StartDraft"
	CmdUndoDraftPlayer      = "UndoDraftPlayer"
	CmdDraftPlayer          = "DraftPlayer"
)

// JoinRoomData is CmdJoinRoom's payload.
type JoinRoomData struct {
	PoolName string `json:"pool_name"`
}

// OnPoolSettingChangesData is CmdOnPoolSettingChanges's payload.
type OnPoolSettingChangesData struct {
	Settings pool.PoolSettings `json:"settings"`
}

// DraftPlayerData is CmdDraftPlayer's payload.
type DraftPlayerData struct {
	Player pool.Player `json:"player"`
}

// ServerFrame is the tagged-union envelope every outbound frame uses.
type ServerFrame struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// PoolFrame wraps a projected Pool snapshot (score_by_day always stripped,
// per §4.4 step 2).
func PoolFrame(p *pool.Pool) ServerFrame {
	return ServerFrame{Type: "Pool", Data: p}
}

// UsersFrame wraps a room's current presence list.
func UsersFrame(users []RoomUser) ServerFrame {
	return ServerFrame{Type: "Users", Data: users}
}

// ErrorFrame wraps a single error message, sent only to the originating
// socket.
func ErrorFrame(message string) ServerFrame {
	return ServerFrame{Type: "Error", Data: map[string]string{"message": message}}
}

func marshalFrame(f ServerFrame) []byte {
	raw, err := json.Marshal(f)
	if err != nil {
		panic(fmt.Sprintf("draft: frame %q failed to marshal: %v", f.Type, err))
	}
	return raw
}
