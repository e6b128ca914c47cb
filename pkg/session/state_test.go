package session

import (
	"testing"
	"time"

	"github.com/vango-dev/cellclient/pkg/protocol"
	"github.com/vango-dev/cellclient/pkg/world"
)

var t0 = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// TestBackoffMonotonic tests that delays never shrink until Reset.
func TestBackoffMonotonic(t *testing.T) {
	b := NewBackoff(BackoffConfig{Initial: 100 * time.Millisecond, Max: time.Second, Factor: 2})

	var prev time.Duration
	for i := 0; i < 10; i++ {
		d := b.Next()
		if d < prev {
			t.Fatalf("attempt %d: delay %v < previous %v", i, d, prev)
		}
		if d > time.Second {
			t.Fatalf("attempt %d: delay %v above cap", i, d)
		}
		prev = d
	}
	if prev != time.Second {
		t.Errorf("delay did not reach cap: %v", prev)
	}

	b.Reset()
	if d := b.Next(); d != 100*time.Millisecond {
		t.Errorf("after Reset Next() = %v, want floor", d)
	}
}

// TestBackoffDefaults tests that bad settings are repaired.
func TestBackoffDefaults(t *testing.T) {
	b := NewBackoff(BackoffConfig{Initial: time.Second, Factor: 0.5})
	if a, c := b.Next(), b.Next(); a != time.Second || c != time.Second {
		t.Errorf("factor below one: %v then %v", a, c)
	}
	if b.Peek() != time.Second {
		t.Errorf("Peek() = %v", b.Peek())
	}
}

func TestStateResetView(t *testing.T) {
	s := NewState(world.RolePrimary, DefaultConfig(), nil)
	s.Cells.Upsert(&protocol.CellRecord{ID: 1, Size: 10}, t0)
	s.MarkOwner(1, t0)
	s.Border.Apply(&protocol.Border{Right: 10, Bottom: 10, Extended: true})
	s.Leaderboard = world.TextLeaderboard(&protocol.LeaderboardText{Lines: []string{"x"}})
	s.Minimap.Replace(&protocol.Minimap{Entries: []protocol.MinimapEntry{{ID: 3}}})
	s.Ghosts.Record(&world.Cell{ID: 4}, t0)
	s.Chat.Add(world.ChatMessage{Text: "kept"}, t0)
	s.Keepalive = true

	s.ResetView()

	if s.Cells.Len() != 0 || s.Alive() {
		t.Error("cells survived ResetView")
	}
	if s.Border.Set || s.Leaderboard.Kind != world.LeaderboardNone {
		t.Error("border or leaderboard survived ResetView")
	}
	if s.Minimap.Cached() != 0 || s.Ghosts.Len() != 0 {
		t.Error("caches survived ResetView")
	}
	if s.Keepalive {
		t.Error("keepalive flag survived ResetView")
	}
	if s.Chat.Len() != 1 {
		t.Error("chat history was dropped")
	}
}

func TestStateTick(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Grace = 100 * time.Millisecond
	cfg.Interpolation = 100 * time.Millisecond
	cfg.CameraLerp = 1
	s := NewState(world.RolePrimary, cfg, nil)

	s.Cells.Upsert(&protocol.CellRecord{ID: 1, X: 100, Y: 200, Size: 100}, t0)
	s.MarkOwner(1, t0)
	s.Cells.Upsert(&protocol.CellRecord{ID: 2, Size: 5}, t0)
	s.Cells.Destroy(2, 0, t0)

	s.Tick(t0.Add(50 * time.Millisecond))
	if s.Camera.X != 100 || s.Camera.Y != 200 {
		t.Errorf("camera = (%v, %v), want own centroid", s.Camera.X, s.Camera.Y)
	}
	if s.Stats.Score != 100 {
		t.Errorf("Score = %d, want 100", s.Stats.Score)
	}

	swept := s.Tick(t0.Add(100 * time.Millisecond))
	if len(swept) != 1 || swept[0] != 2 {
		t.Errorf("swept = %v, want [2]", swept)
	}
	if s.Stats.FPS <= 0 {
		t.Errorf("FPS = %v", s.Stats.FPS)
	}

	s.Cells.Destroy(1, 0, t0.Add(time.Second))
	s.Tick(t0.Add(time.Second))
	if s.Stats.Score != 0 || s.Stats.BestScore != 100 {
		t.Errorf("score = %d best = %d", s.Stats.Score, s.Stats.BestScore)
	}
}

func TestStateSnapshotIsDeepCopy(t *testing.T) {
	s := NewState(world.RolePrimary, DefaultConfig(), nil)
	s.Cells.Upsert(&protocol.CellRecord{ID: 7, X: 1, Y: 2, Size: 3}, t0)
	s.MarkOwner(7, t0)
	s.Leaderboard = world.TextLeaderboard(&protocol.LeaderboardText{Lines: []string{"a"}})

	snap := s.Snapshot(t0)
	if snap.Role != "primary" || len(snap.Cells) != 1 || !snap.Cells[0].Mine {
		t.Fatalf("snapshot = %+v", snap)
	}

	snap.Leaderboard.Lines[0] = "changed"
	snap.Mine[0] = 99
	if s.Leaderboard.Lines[0] != "a" || !s.Cells.IsMine(7) {
		t.Error("snapshot aliases live state")
	}
}
