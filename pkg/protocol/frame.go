package protocol

import "encoding/json"

// Frame is one decoded inbound message. The concrete type is one of the
// variants below; Decode never returns any other type.
type Frame interface {
	Opcode() Opcode
}

// Cell update flag bits.
const (
	CellSpiked   uint8 = 0x01 // virus shape
	CellHasColor uint8 = 0x02
	CellHasSkin  uint8 = 0x04
	CellHasName  uint8 = 0x08
	CellAgitated uint8 = 0x10
	CellEjected  uint8 = 0x20
	CellFood     uint8 = 0x80
)

// Kill records that Killer consumed Killed.
type Kill struct {
	Killer uint32
	Killed uint32
}

// CellRecord is one entry of the update stream. Optional fields are only
// meaningful when the matching Has* flag is set.
type CellRecord struct {
	ID    uint32
	X     int32
	Y     int32
	Size  uint16
	Flags uint8
	Color Color
	Skin  string
	Name  string
}

// HasColor reports whether the record carries a color.
func (c *CellRecord) HasColor() bool { return c.Flags&CellHasColor != 0 }

// HasSkin reports whether the record carries a skin name.
func (c *CellRecord) HasSkin() bool { return c.Flags&CellHasSkin != 0 }

// HasName reports whether the record carries a display name.
func (c *CellRecord) HasName() bool { return c.Flags&CellHasName != 0 }

// Update is the batch entity update (0x10).
type Update struct {
	Kills   []Kill
	Cells   []CellRecord
	Removed []uint32
}

// CameraPush is an authoritative camera target (0x11).
type CameraPush struct {
	X, Y, Zoom float32
}

// ClearAll drops every entity (0x12).
type ClearAll struct{}

// ClearMine drops local ownership only (0x14).
type ClearMine struct{}

// DrawLine is the unsupported legacy line frame (0x15). Its payload is kept
// but never interpreted.
type DrawLine struct {
	Payload []byte
}

// OwnCell grants ownership of a newly spawned entity (0x20).
type OwnCell struct {
	ID uint32
}

// LeaderboardText is the plain text leaderboard (0x30).
type LeaderboardText struct {
	Lines []string
}

// RankedEntry is one row of a ranked leaderboard.
type RankedEntry struct {
	Self bool
	Name string
}

// LeaderboardRanked is the ranked player leaderboard (0x31).
type LeaderboardRanked struct {
	Entries []RankedEntry
}

// LeaderboardTeam carries team pie-chart fractions (0x32).
type LeaderboardTeam struct {
	Fractions []float32
}

// Border sets the world border (0x40). Extended is true for the long form
// that also carries a game mode and server name.
type Border struct {
	Left, Top, Right, Bottom float64
	Extended                 bool
	GameMode                 uint32
	ServerName               string
}

// IdentityEcho is the server's echo of an identity update (0x46).
type IdentityEcho struct {
	Raw      string
	Identity Identity
}

// MinimapEntry is one row of the minimap roster.
type MinimapEntry struct {
	ID    uint32
	X, Y  float32
	Self  bool
	Color Color
	Name  string
}

// Minimap replaces the minimap roster (0x50).
type Minimap struct {
	Entries []MinimapEntry
}

// Chat flag bits.
const (
	ChatServer uint8 = 0x80
	ChatAdmin  uint8 = 0x40
	ChatMod    uint8 = 0x20
)

// Chat is a chat message (0x63).
type Chat struct {
	Flags   uint8
	Color   Color
	Sender  string
	Message string
}

// ServerStats is the known subset of the 0xFE status object.
type ServerStats struct {
	Name         string  `json:"name,omitempty"`
	Mode         string  `json:"mode,omitempty"`
	Uptime       float64 `json:"uptime,omitempty"`
	Update       float64 `json:"update,omitempty"`
	PlayersTotal int     `json:"playersTotal,omitempty"`
	PlayersAlive int     `json:"playersAlive,omitempty"`
	PlayersSpect int     `json:"playersSpect,omitempty"`
	PlayersLimit int     `json:"playersLimit,omitempty"`
}

// Stats is the JSON status frame (0xFE).
type Stats struct {
	Raw   json.RawMessage
	Stats ServerStats
}

func (*Update) Opcode() Opcode            { return OpUpdate }
func (*CameraPush) Opcode() Opcode        { return OpCameraPush }
func (ClearAll) Opcode() Opcode           { return OpClearAll }
func (ClearMine) Opcode() Opcode          { return OpClearMine }
func (*DrawLine) Opcode() Opcode          { return OpDrawLine }
func (*OwnCell) Opcode() Opcode           { return OpOwnCell }
func (*LeaderboardText) Opcode() Opcode   { return OpLeaderboardText }
func (*LeaderboardRanked) Opcode() Opcode { return OpLeaderboardRanked }
func (*LeaderboardTeam) Opcode() Opcode   { return OpLeaderboardTeam }
func (*Border) Opcode() Opcode            { return OpBorder }
func (*IdentityEcho) Opcode() Opcode      { return OpIdentityEcho }
func (*Minimap) Opcode() Opcode           { return OpMinimap }
func (*Chat) Opcode() Opcode              { return OpChat }
func (*Stats) Opcode() Opcode             { return OpServerStats }
