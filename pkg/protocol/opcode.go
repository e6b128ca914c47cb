package protocol

import "fmt"

// Opcode is the first byte of every frame. Inbound and outbound opcodes
// share one byte space and some values mean different things per direction.
type Opcode uint8

// Server → client opcodes.
const (
	OpUpdate            Opcode = 0x10 // kill pairs + cell updates + disappear ids
	OpCameraPush        Opcode = 0x11 // authoritative camera target
	OpClearAll          Opcode = 0x12 // drop every entity
	OpClearMine         Opcode = 0x14 // drop local ownership only
	OpDrawLine          Opcode = 0x15 // legacy, ignored
	OpOwnCell           Opcode = 0x20 // newly owned entity id
	OpLeaderboardText   Opcode = 0x30
	OpLeaderboardRanked Opcode = 0x31
	OpLeaderboardTeam   Opcode = 0x32
	OpBorder            Opcode = 0x40
	OpIdentityEcho      Opcode = 0x46
	OpMinimap           Opcode = 0x50 // custom roster extension
	OpChat              Opcode = 0x63
	OpServerStats       Opcode = 0xFE
)

// Client → server opcodes.
const (
	OutSpawn          Opcode = 0x00
	OutSpectate       Opcode = 0x01
	OutMouse          Opcode = 0x10
	OutSplit          Opcode = 0x11
	OutQ              Opcode = 0x12
	OutEject          Opcode = 0x15
	OutMinionSplit    Opcode = 0x16
	OutMinionEject    Opcode = 0x17
	OutMinionFreeze   Opcode = 0x18
	OutMinionCollect  Opcode = 0x19
	OutRespawn        Opcode = 0x1B
	OutTeleportFollow Opcode = 0x44
	OutIdentity       Opcode = 0x46
	OutForceSplit     Opcode = 0x47
	OutDirectionLock  Opcode = 0x60
	OutBurst          Opcode = 0x61
	OutStatRequest    Opcode = 0xFE
	OutHandshakeKey   Opcode = 0xFF
)

// String returns the inbound name of the opcode, or its hex form when the
// value has no inbound meaning.
func (op Opcode) String() string {
	switch op {
	case OpUpdate:
		return "Update"
	case OpCameraPush:
		return "CameraPush"
	case OpClearAll:
		return "ClearAll"
	case OpClearMine:
		return "ClearMine"
	case OpDrawLine:
		return "DrawLine"
	case OpOwnCell:
		return "OwnCell"
	case OpLeaderboardText:
		return "LeaderboardText"
	case OpLeaderboardRanked:
		return "LeaderboardRanked"
	case OpLeaderboardTeam:
		return "LeaderboardTeam"
	case OpBorder:
		return "Border"
	case OpIdentityEcho:
		return "IdentityEcho"
	case OpMinimap:
		return "Minimap"
	case OpChat:
		return "Chat"
	case OpServerStats:
		return "ServerStats"
	default:
		return op.Hex()
	}
}

// Hex returns the opcode as "0xNN".
func (op Opcode) Hex() string {
	return fmt.Sprintf("0x%02X", uint8(op))
}

// Action is a user intent encoded as a single-byte frame.
type Action uint8

const (
	ActionSpectate Action = iota
	ActionSplit
	ActionQ
	ActionEject
	ActionMinionSplit
	ActionMinionEject
	ActionMinionFreeze
	ActionMinionCollect
	ActionRespawn
	ActionStatRequest
	actionCount
)

var actionOpcodes = [actionCount]Opcode{
	ActionSpectate:      OutSpectate,
	ActionSplit:         OutSplit,
	ActionQ:             OutQ,
	ActionEject:         OutEject,
	ActionMinionSplit:   OutMinionSplit,
	ActionMinionEject:   OutMinionEject,
	ActionMinionFreeze:  OutMinionFreeze,
	ActionMinionCollect: OutMinionCollect,
	ActionRespawn:       OutRespawn,
	ActionStatRequest:   OutStatRequest,
}

var actionNames = [actionCount]string{
	ActionSpectate:      "spectate",
	ActionSplit:         "split",
	ActionQ:             "q",
	ActionEject:         "eject",
	ActionMinionSplit:   "minion-split",
	ActionMinionEject:   "minion-eject",
	ActionMinionFreeze:  "minion-freeze",
	ActionMinionCollect: "minion-collect",
	ActionRespawn:       "respawn",
	ActionStatRequest:   "stat-request",
}

// Opcode returns the wire opcode for the action.
func (a Action) Opcode() (Opcode, bool) {
	if a >= actionCount {
		return 0, false
	}
	return actionOpcodes[a], true
}

// String returns the action name.
func (a Action) String() string {
	if a >= actionCount {
		return "unknown"
	}
	return actionNames[a]
}

// ParseAction returns the action with the given name.
func ParseAction(name string) (Action, bool) {
	for i, n := range actionNames {
		if n == name {
			return Action(i), true
		}
	}
	return 0, false
}
