package session

import (
	"time"

	"github.com/vango-dev/cellclient/pkg/protocol"
	"github.com/vango-dev/cellclient/pkg/world"
)

// CellView is a read-only copy of one cell.
type CellView struct {
	ID        uint32         `json:"id"`
	X         float64        `json:"x"`
	Y         float64        `json:"y"`
	Size      float64        `json:"size"`
	Name      string         `json:"name,omitempty"`
	Skin      string         `json:"skin,omitempty"`
	Hat       string         `json:"hat,omitempty"`
	Color     protocol.Color `json:"color"`
	Flags     uint8          `json:"flags"`
	Mine      bool           `json:"mine,omitempty"`
	Destroyed bool           `json:"destroyed,omitempty"`
}

// CameraView is a read-only copy of the camera.
type CameraView struct {
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Zoom     float64 `json:"zoom"`
	ViewMult float64 `json:"viewMult"`
}

// Snapshot is a deep copy of a State for renderers and inspection.
type Snapshot struct {
	Role           string                `json:"role"`
	Active         bool                  `json:"active"`
	URL            string                `json:"url"`
	Connected      bool                  `json:"connected"`
	Identity       protocol.Identity     `json:"identity"`
	ServerIdentity protocol.Identity     `json:"serverIdentity"`
	HasSpawned     bool                  `json:"hasSpawned"`
	AutoRespawn    bool                  `json:"autoRespawn"`
	PendingPlay    bool                  `json:"pendingPlay"`
	RespawnOverlay bool                  `json:"respawnOverlay"`
	Cells          []CellView            `json:"cells"`
	Mine           []uint32              `json:"mine"`
	Border         world.Border          `json:"border"`
	Leaderboard    world.Leaderboard     `json:"leaderboard"`
	Chat           []world.ChatMessage   `json:"chat"`
	ChatVisible    bool                  `json:"chatVisible"`
	Camera         CameraView            `json:"camera"`
	Minimap        []world.MinimapPlayer `json:"minimap"`
	Ghosts         []world.Ghost         `json:"ghosts"`
	Stats          Stats                 `json:"stats"`
	TakenAt        time.Time             `json:"takenAt"`
}

// Snapshot copies the state at now. Nothing in the result aliases the
// live state.
func (s *State) Snapshot(now time.Time) Snapshot {
	cells := s.Cells.Cells()
	views := make([]CellView, 0, len(cells))
	for _, c := range cells {
		views = append(views, CellView{
			ID: c.ID, X: c.RX, Y: c.RY, Size: c.RS,
			Name: c.Name, Skin: c.Skin, Hat: c.Hat,
			Color: c.Color, Flags: c.Flags,
			Mine:      s.Cells.IsMine(c.ID),
			Destroyed: c.Destroyed,
		})
	}

	lb := s.Leaderboard
	lb.Lines = append([]string(nil), lb.Lines...)
	lb.Rows = append([]world.RankedRow(nil), lb.Rows...)
	lb.Fractions = append([]float64(nil), lb.Fractions...)

	stats := s.Stats
	stats.ServerRaw = append([]byte(nil), stats.ServerRaw...)

	return Snapshot{
		Role:           s.Role.String(),
		URL:            s.URL,
		Connected:      s.Connected,
		Identity:       s.Identity,
		ServerIdentity: s.ServerIdentity,
		HasSpawned:     s.HasSpawned,
		AutoRespawn:    s.AutoRespawn,
		PendingPlay:    s.PendingPlay,
		RespawnOverlay: s.RespawnOverlay,
		Cells:          views,
		Mine:           s.Cells.Mine(),
		Border:         s.Border,
		Leaderboard:    lb,
		Chat:           s.Chat.Messages(),
		ChatVisible:    s.Chat.Visible(now),
		Camera: CameraView{
			X: s.Camera.X, Y: s.Camera.Y,
			Zoom: s.Camera.Zoom, ViewMult: s.Camera.ViewMult,
		},
		Minimap: s.Minimap.Players(),
		Ghosts:  s.Ghosts.List(),
		Stats:   stats,
		TakenAt: now,
	}
}
