package world

import (
	"testing"
	"time"

	"github.com/vango-dev/cellclient/pkg/protocol"
)

var t0 = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func rec(id uint32, x, y int32, size uint16) *protocol.CellRecord {
	return &protocol.CellRecord{ID: id, X: x, Y: y, Size: size}
}

func TestTableUpsertCreatesOnce(t *testing.T) {
	tbl := NewTable()
	ids := []uint32{1, 2, 1, 3, 2, 2, 4, 1}
	created := 0
	for i, id := range ids {
		_, isNew, err := tbl.Upsert(rec(id, int32(i), int32(i), 10), t0)
		if err != nil {
			t.Fatalf("Upsert() error: %v", err)
		}
		if isNew {
			created++
		}
	}
	if created != 4 {
		t.Errorf("created = %d, want 4", created)
	}
	if tbl.Len() != 4 {
		t.Errorf("Len() = %d, want 4", tbl.Len())
	}
	seen := map[uint32]bool{}
	for _, c := range tbl.Cells() {
		if seen[c.ID] {
			t.Fatalf("duplicate id %d in live list", c.ID)
		}
		seen[c.ID] = true
	}
	if got := tbl.Cells()[0].ID; got != 1 {
		t.Errorf("insertion order broken: first id %d", got)
	}
}

func TestTableUpsertRotatesTargets(t *testing.T) {
	tbl := NewTable()
	tbl.Upsert(rec(1, 0, 0, 10), t0)
	c, _, _ := tbl.Upsert(rec(1, 100, 50, 20), t0.Add(10*time.Millisecond))

	if c.OX != 0 || c.OY != 0 || c.OS != 10 {
		t.Errorf("previous = (%v, %v, %v), want (0, 0, 10)", c.OX, c.OY, c.OS)
	}
	if c.NX != 100 || c.NY != 50 || c.NS != 20 {
		t.Errorf("target = (%v, %v, %v), want (100, 50, 20)", c.NX, c.NY, c.NS)
	}

	tbl.Interpolate(t0.Add(60*time.Millisecond), 100*time.Millisecond)
	if c.RX != 50 || c.RY != 25 || c.RS != 15 {
		t.Errorf("rendered = (%v, %v, %v), want halfway", c.RX, c.RY, c.RS)
	}
	tbl.Interpolate(t0.Add(time.Second), 100*time.Millisecond)
	if c.RX != 100 || c.RS != 20 {
		t.Errorf("rendered after window = (%v, %v)", c.RX, c.RS)
	}
}

func TestTableUpsertKeepsAbsentFields(t *testing.T) {
	tbl := NewTable()
	first := rec(1, 0, 0, 10)
	first.Flags = protocol.CellHasColor | protocol.CellHasSkin | protocol.CellHasName
	first.Color = protocol.Color{R: 1, G: 2, B: 3}
	first.Skin = "doge"
	first.Name = "bob$crown#ff0000"
	c, _, err := tbl.Upsert(first, t0)
	if err != nil {
		t.Fatalf("Upsert() error: %v", err)
	}
	if c.Name != "bob" || c.Hat != "crown" || c.Color != (protocol.Color{R: 0xff}) {
		t.Errorf("name not parsed: %+v", c)
	}

	c, _, _ = tbl.Upsert(rec(1, 5, 5, 10), t0)
	if c.Name != "bob" || c.Skin != "doge" || c.Color != (protocol.Color{R: 0xff}) {
		t.Errorf("absent fields were reset: %+v", c)
	}
}

func TestTableUpsertMalformedName(t *testing.T) {
	tbl := NewTable()
	r := rec(1, 0, 0, 10)
	r.Flags = protocol.CellHasName
	r.Name = "{broken"
	c, _, err := tbl.Upsert(r, t0)
	if err == nil {
		t.Fatal("Upsert() error = nil, want grammar error")
	}
	if c.Name != "{broken" {
		t.Errorf("Name = %q, want raw string", c.Name)
	}
}

func TestTableDestroyGracePeriod(t *testing.T) {
	const grace = 200 * time.Millisecond
	tbl := NewTable()
	tbl.Upsert(rec(1, 0, 0, 10), t0)
	tbl.Upsert(rec(2, 0, 0, 10), t0)

	if !tbl.Destroy(1, 0, t0) {
		t.Fatal("Destroy() = false")
	}
	if tbl.Destroy(1, 0, t0) {
		t.Error("second Destroy() = true")
	}

	if removed := tbl.Sweep(t0.Add(grace-time.Millisecond), grace); len(removed) != 0 {
		t.Errorf("swept before grace: %v", removed)
	}
	if c, ok := tbl.Get(1); !ok || !c.Destroyed {
		t.Fatal("destroyed cell not queryable during grace")
	}

	removed := tbl.Sweep(t0.Add(grace), grace)
	if len(removed) != 1 || removed[0] != 1 {
		t.Fatalf("Sweep() = %v, want [1]", removed)
	}
	if again := tbl.Sweep(t0.Add(2*grace), grace); len(again) != 0 {
		t.Errorf("cell removed twice: %v", again)
	}
	if _, ok := tbl.Get(1); ok {
		t.Error("swept cell still indexed")
	}
	if tbl.Len() != 1 {
		t.Errorf("Len() = %d, want 1", tbl.Len())
	}
}

func TestTableDestroyedSlidesToKiller(t *testing.T) {
	tbl := NewTable()
	tbl.Upsert(rec(1, 0, 0, 10), t0)
	tbl.Upsert(rec(2, 100, 0, 50), t0)
	tbl.Interpolate(t0, time.Millisecond)
	tbl.Destroy(1, 2, t0)

	tbl.Interpolate(t0.Add(50*time.Millisecond), 100*time.Millisecond)
	c, _ := tbl.Get(1)
	if c.RX <= 0 || c.RX >= 100 {
		t.Errorf("RX = %v, want between victim and killer", c.RX)
	}
}

func TestTableMine(t *testing.T) {
	tbl := NewTable()
	tbl.Upsert(rec(5, 0, 0, 10), t0)

	if !tbl.AddMine(5, t0) {
		t.Error("AddMine() = false for new claim")
	}
	if tbl.AddMine(5, t0) {
		t.Error("AddMine() = true for repeat claim")
	}

	if !tbl.AddMine(9, t0) {
		t.Error("AddMine(unknown) = false")
	}
	if _, ok := tbl.Get(9); !ok {
		t.Error("owned id 9 not present in table")
	}

	tbl.Destroy(5, 0, t0)
	if tbl.IsMine(5) {
		t.Error("destroyed cell still owned")
	}

	tbl.ClearMine()
	if tbl.MineCount() != 0 {
		t.Errorf("MineCount() = %d after ClearMine", tbl.MineCount())
	}
	if tbl.Len() != 2 {
		t.Errorf("ClearMine removed cells: Len() = %d", tbl.Len())
	}

	tbl.Clear()
	if tbl.Len() != 0 {
		t.Errorf("Len() = %d after Clear", tbl.Len())
	}
}

func TestTablePlaceholderFilledByUpdate(t *testing.T) {
	tbl := NewTable()
	tbl.AddMine(3, t0)
	if _, _, ok := tbl.Centroid(); ok {
		t.Error("placeholder counted in centroid")
	}

	c, created, _ := tbl.Upsert(rec(3, 40, 60, 30), t0.Add(time.Millisecond))
	if created {
		t.Error("placeholder update reported as created")
	}
	if c.RX != 40 || c.RY != 60 || c.RS != 30 {
		t.Errorf("placeholder did not snap to first update: %+v", c)
	}
	if x, y, ok := tbl.Centroid(); !ok || x != 40 || y != 60 {
		t.Errorf("Centroid() = (%v, %v, %v)", x, y, ok)
	}
	if !tbl.IsMine(3) {
		t.Error("ownership lost after update")
	}
}

func TestTableScore(t *testing.T) {
	tbl := NewTable()
	tbl.Upsert(rec(1, 0, 0, 100), t0)
	tbl.Upsert(rec(2, 0, 0, 50), t0)
	tbl.Upsert(rec(3, 0, 0, 999), t0)
	tbl.AddMine(1, t0)
	tbl.AddMine(2, t0)

	if got := tbl.Score(); got != 125 {
		t.Errorf("Score() = %d, want 125", got)
	}
}
