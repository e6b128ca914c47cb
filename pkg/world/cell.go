package world

import (
	"time"

	"github.com/vango-dev/cellclient/pkg/protocol"
)

// Cell is one simulated blob. Position and size are tracked three ways:
// N* is the latest authoritative value, O* the value rendering started
// from when it arrived, and R* the render-smoothed current value.
type Cell struct {
	ID uint32

	NX, NY float64
	OX, OY float64
	RX, RY float64

	NS, OS, RS float64

	Name  string
	Skin  string
	Hat   string
	Color protocol.Color
	Flags uint8

	Born    time.Time
	Updated time.Time

	Destroyed   bool
	DestroyedAt time.Time
	Killer      uint32 // 0 when removed without a killer

	placeholder bool
}

// IsVirus reports whether the cell is drawn with spikes.
func (c *Cell) IsVirus() bool { return c.Flags&protocol.CellSpiked != 0 }

// IsEjected reports whether the cell is ejected mass.
func (c *Cell) IsEjected() bool { return c.Flags&protocol.CellEjected != 0 }

// IsFood reports whether the cell is a pellet.
func (c *Cell) IsFood() bool { return c.Flags&protocol.CellFood != 0 }

// Mass is the conventional size-to-mass conversion.
func (c *Cell) Mass() float64 { return c.NS * c.NS / 100 }

// Age is how long the cell has existed at now.
func (c *Cell) Age(now time.Time) time.Duration { return now.Sub(c.Born) }

func (c *Cell) applyName(raw string) error {
	id, err := protocol.ParseDisplayName(raw)
	c.Name = id.Name
	c.Hat = id.Hat
	if id.Skin != "" {
		c.Skin = id.Skin
	}
	if id.Color != "" {
		if col, cerr := protocol.ParseColor(id.Color); cerr == nil {
			c.Color = col
		}
	}
	return err
}

// Table is the per-session entity collection: a by-id index, the
// insertion-ordered live list, and the ids this session owns.
//
// A destroyed cell stays in the table until Sweep removes it after the
// grace window.
type Table struct {
	byID map[uint32]*Cell
	list []*Cell
	mine []uint32
}

// NewTable creates an empty table.
func NewTable() *Table {
	return &Table{byID: make(map[uint32]*Cell)}
}

// Len returns the number of cells, destroyed ones included.
func (t *Table) Len() int { return len(t.list) }

// Get returns the cell with the given id.
func (t *Table) Get(id uint32) (*Cell, bool) {
	c, ok := t.byID[id]
	return c, ok
}

// Cells returns the live list in insertion order. The slice is shared;
// callers must not modify it.
func (t *Table) Cells() []*Cell { return t.list }

// Mine returns a copy of the owned ids.
func (t *Table) Mine() []uint32 {
	out := make([]uint32, len(t.mine))
	copy(out, t.mine)
	return out
}

// MineCount returns the number of owned ids.
func (t *Table) MineCount() int { return len(t.mine) }

// IsMine reports whether id is owned by this table's session.
func (t *Table) IsMine(id uint32) bool {
	for _, m := range t.mine {
		if m == id {
			return true
		}
	}
	return false
}

// Upsert applies one update record. An unknown id creates a cell; a known
// id rotates its previous and target values so rendering can interpolate.
// Absent optional fields keep their prior value. A destroyed cell whose
// id is reused is revived in place.
//
// The returned error only reports a malformed display name; the record is
// applied regardless.
func (t *Table) Upsert(rec *protocol.CellRecord, now time.Time) (*Cell, bool, error) {
	x, y, size := float64(rec.X), float64(rec.Y), float64(rec.Size)

	c, ok := t.byID[rec.ID]
	created := !ok
	switch {
	case !ok:
		c = &Cell{
			ID: rec.ID,
			NX: x, NY: y, OX: x, OY: y, RX: x, RY: y,
			NS: size, OS: size, RS: size,
			Born: now,
		}
		t.byID[rec.ID] = c
		t.list = append(t.list, c)
	case c.Destroyed || c.placeholder:
		*c = Cell{
			ID: rec.ID,
			NX: x, NY: y, OX: x, OY: y, RX: x, RY: y,
			NS: size, OS: size, RS: size,
			Name: c.Name, Skin: c.Skin, Hat: c.Hat, Color: c.Color,
			Born: now,
		}
	default:
		c.OX, c.OY, c.OS = c.RX, c.RY, c.RS
		c.NX, c.NY, c.NS = x, y, size
	}
	c.Flags = rec.Flags
	c.Updated = now

	if rec.HasColor() {
		c.Color = rec.Color
	}
	if rec.HasSkin() {
		c.Skin = rec.Skin
	}
	var err error
	if rec.HasName() {
		err = c.applyName(rec.Name)
	}
	return c, created, err
}

// Destroy marks the cell destroyed with killer as the cause (0 for
// none) and drops it from the owned set. It reports whether a live cell
// was found.
func (t *Table) Destroy(id, killer uint32, now time.Time) bool {
	c, ok := t.byID[id]
	if !ok || c.Destroyed {
		return false
	}
	c.Destroyed = true
	c.DestroyedAt = now
	c.Killer = killer
	t.RemoveMine(id)
	return true
}

// Sweep removes destroyed cells whose grace window has elapsed and
// returns their ids.
func (t *Table) Sweep(now time.Time, grace time.Duration) []uint32 {
	var removed []uint32
	kept := t.list[:0]
	for _, c := range t.list {
		if c.Destroyed && now.Sub(c.DestroyedAt) >= grace {
			delete(t.byID, c.ID)
			removed = append(removed, c.ID)
			continue
		}
		kept = append(kept, c)
	}
	for i := len(kept); i < len(t.list); i++ {
		t.list[i] = nil
	}
	t.list = kept
	return removed
}

// Clear drops every cell and every owned id immediately.
func (t *Table) Clear() {
	t.byID = make(map[uint32]*Cell)
	t.list = nil
	t.mine = nil
}

// ClearMine drops ownership without touching the cells.
func (t *Table) ClearMine() {
	t.mine = nil
}

// AddMine claims id for this session. An id the table has not seen yet
// gets a placeholder cell so every owned id is queryable; it is filled
// in by the next update. AddMine reports whether the id was newly added.
func (t *Table) AddMine(id uint32, now time.Time) bool {
	if c, ok := t.byID[id]; !ok {
		c = &Cell{ID: id, Born: now, Updated: now, placeholder: true}
		t.byID[id] = c
		t.list = append(t.list, c)
	} else if c.Destroyed {
		c.Destroyed = false
		c.DestroyedAt = time.Time{}
		c.Killer = 0
		c.Born = now
	}
	if t.IsMine(id) {
		return false
	}
	t.mine = append(t.mine, id)
	return true
}

// RemoveMine releases id. It reports whether the id was owned.
func (t *Table) RemoveMine(id uint32) bool {
	for i, m := range t.mine {
		if m == id {
			t.mine = append(t.mine[:i], t.mine[i+1:]...)
			return true
		}
	}
	return false
}

// Interpolate advances every cell's rendered values toward its target.
// A cell reaches its target window after its last update. Destroyed
// cells with a known killer slide toward the killer instead.
func (t *Table) Interpolate(now time.Time, window time.Duration) {
	for _, c := range t.list {
		if c.Destroyed {
			if k, ok := t.byID[c.Killer]; ok && c.Killer != 0 {
				f := progress(now.Sub(c.DestroyedAt), window)
				c.RX += (k.RX - c.RX) * f
				c.RY += (k.RY - c.RY) * f
			}
			continue
		}
		f := progress(now.Sub(c.Updated), window)
		c.RX = c.OX + (c.NX-c.OX)*f
		c.RY = c.OY + (c.NY-c.OY)*f
		c.RS = c.OS + (c.NS-c.OS)*f
	}
}

// Centroid returns the size-weighted center of the owned live cells.
func (t *Table) Centroid() (x, y float64, ok bool) {
	var sx, sy, n float64
	for _, id := range t.mine {
		c, found := t.byID[id]
		if !found || c.Destroyed || c.placeholder {
			continue
		}
		w := c.RS
		if w <= 0 {
			w = 1
		}
		sx += c.RX * w
		sy += c.RY * w
		n += w
	}
	if n == 0 {
		return 0, 0, false
	}
	return sx / n, sy / n, true
}

// Score is floor(sum(size^2)/100) over the owned live cells.
func (t *Table) Score() int {
	var sum float64
	for _, id := range t.mine {
		if c, ok := t.byID[id]; ok && !c.Destroyed {
			sum += c.NS * c.NS
		}
	}
	return int(sum / 100)
}

func progress(elapsed, window time.Duration) float64 {
	if window <= 0 || elapsed >= window {
		return 1
	}
	if elapsed <= 0 {
		return 0
	}
	return float64(elapsed) / float64(window)
}
