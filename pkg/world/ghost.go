package world

import "time"

// Ghost is the last seen state of a cell that left view.
type Ghost struct {
	ID   uint32    `json:"id"`
	X    float64   `json:"x"`
	Y    float64   `json:"y"`
	Size float64   `json:"size"`
	Seen time.Time `json:"seen"`
}

// Ghosts remembers recently removed cells until they expire.
type Ghosts struct {
	ttl  time.Duration
	byID map[uint32]Ghost
}

// NewGhosts returns an empty set whose entries live for ttl.
func NewGhosts(ttl time.Duration) *Ghosts {
	return &Ghosts{ttl: ttl, byID: make(map[uint32]Ghost)}
}

// Record stores c as a ghost seen at now.
func (g *Ghosts) Record(c *Cell, now time.Time) {
	g.byID[c.ID] = Ghost{ID: c.ID, X: c.RX, Y: c.RY, Size: c.RS, Seen: now}
}

// Forget drops the ghost for id, if any.
func (g *Ghosts) Forget(id uint32) {
	delete(g.byID, id)
}

// Expire drops ghosts older than the ttl and returns how many went.
func (g *Ghosts) Expire(now time.Time) int {
	n := 0
	for id, gh := range g.byID {
		if now.Sub(gh.Seen) >= g.ttl {
			delete(g.byID, id)
			n++
		}
	}
	return n
}

// Get returns the ghost for id.
func (g *Ghosts) Get(id uint32) (Ghost, bool) {
	gh, ok := g.byID[id]
	return gh, ok
}

// Len returns the number of ghosts.
func (g *Ghosts) Len() int { return len(g.byID) }

// List returns every ghost in no particular order.
func (g *Ghosts) List() []Ghost {
	out := make([]Ghost, 0, len(g.byID))
	for _, gh := range g.byID {
		out = append(out, gh)
	}
	return out
}

// Reset drops every ghost.
func (g *Ghosts) Reset() {
	g.byID = make(map[uint32]Ghost)
}
