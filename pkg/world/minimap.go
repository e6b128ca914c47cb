package world

import "github.com/vango-dev/cellclient/pkg/protocol"

// MinimapPlayer is one roster entry.
type MinimapPlayer struct {
	ID    uint32         `json:"id"`
	X     float64        `json:"x"`
	Y     float64        `json:"y"`
	Self  bool           `json:"self"`
	Color protocol.Color `json:"color"`
	Name  string         `json:"name"`
}

// Point is a smoothed minimap position.
type Point struct {
	X, Y float64
}

// Minimap holds the latest roster and the smoothed position of every
// player in it.
type Minimap struct {
	players []MinimapPlayer
	smooth  map[uint32]Point
}

// NewMinimap returns an empty roster.
func NewMinimap() *Minimap {
	return &Minimap{smooth: make(map[uint32]Point)}
}

// Replace installs a new roster and purges smoothing entries for ids that
// are no longer present. It returns the purged ids.
func (m *Minimap) Replace(f *protocol.Minimap) []uint32 {
	present := make(map[uint32]struct{}, len(f.Entries))
	players := make([]MinimapPlayer, len(f.Entries))
	for i, e := range f.Entries {
		players[i] = MinimapPlayer{
			ID: e.ID, X: float64(e.X), Y: float64(e.Y),
			Self: e.Self, Color: e.Color, Name: e.Name,
		}
		present[e.ID] = struct{}{}
		if _, ok := m.smooth[e.ID]; !ok {
			m.smooth[e.ID] = Point{X: players[i].X, Y: players[i].Y}
		}
	}

	var purged []uint32
	for id := range m.smooth {
		if _, ok := present[id]; !ok {
			delete(m.smooth, id)
			purged = append(purged, id)
		}
	}
	m.players = players
	return purged
}

// Smooth moves every cached position a fraction f toward the roster.
func (m *Minimap) Smooth(f float64) {
	for _, p := range m.players {
		cur := m.smooth[p.ID]
		cur.X += (p.X - cur.X) * f
		cur.Y += (p.Y - cur.Y) * f
		m.smooth[p.ID] = cur
	}
}

// Position returns the smoothed position of id.
func (m *Minimap) Position(id uint32) (Point, bool) {
	p, ok := m.smooth[id]
	return p, ok
}

// Cached returns the number of smoothing entries.
func (m *Minimap) Cached() int { return len(m.smooth) }

// Players returns a copy of the roster.
func (m *Minimap) Players() []MinimapPlayer {
	out := make([]MinimapPlayer, len(m.players))
	copy(out, m.players)
	return out
}

// Reset drops the roster and the smoothing cache.
func (m *Minimap) Reset() {
	m.players = nil
	m.smooth = make(map[uint32]Point)
}
