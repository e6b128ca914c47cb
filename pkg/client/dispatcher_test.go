package client

import (
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/vango-dev/cellclient/pkg/protocol"
	"github.com/vango-dev/cellclient/pkg/session"
	"github.com/vango-dev/cellclient/pkg/world"
)

var t0 = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// recordingListener captures listener signals.
type recordingListener struct {
	mu         sync.Mutex
	sounds     []Sound
	overlays   []bool
	connecting []bool
	chats      []world.ChatMessage
}

func (l *recordingListener) Sound(_ world.Role, s Sound) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.sounds = append(l.sounds, s)
}

func (l *recordingListener) Overlay(_ world.Role, visible bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.overlays = append(l.overlays, visible)
}

func (l *recordingListener) Connecting(_ world.Role, connecting bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.connecting = append(l.connecting, connecting)
}

func (l *recordingListener) Chat(_ world.Role, msg world.ChatMessage) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.chats = append(l.chats, msg)
}

func (l *recordingListener) chatCopy() []world.ChatMessage {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]world.ChatMessage(nil), l.chats...)
}

func (l *recordingListener) lastOverlay() (bool, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.overlays) == 0 {
		return false, false
	}
	return l.overlays[len(l.overlays)-1], true
}

// recordingEffects counts effect requests.
type recordingEffects struct {
	keepalive, armed, cancelled int
}

func (e *recordingEffects) StartKeepalive(*session.State) { e.keepalive++ }
func (e *recordingEffects) ArmRespawn(*session.State)     { e.armed++ }
func (e *recordingEffects) CancelRespawn(*session.State)  { e.cancelled++ }

func newTestDispatcher() (*Dispatcher, *recordingListener, *recordingEffects) {
	cfg := DefaultConfig()
	cfg.Logger = discardLogger()
	l := &recordingListener{}
	cfg.Listener = l
	e := &recordingEffects{}
	return NewDispatcher(cfg, e), l, e
}

func newTestState() *session.State {
	return session.NewState(world.RolePrimary, session.DefaultConfig(), world.NewOwnership())
}

type bogusFrame struct{}

func (bogusFrame) Opcode() protocol.Opcode { return 0x99 }

// TestDispatchUnhandled tests that unknown frame variants are reported.
func TestDispatchUnhandled(t *testing.T) {
	d, _, _ := newTestDispatcher()
	err := d.Dispatch(newTestState(), bogusFrame{}, t0)
	if !errors.Is(err, ErrUnhandledFrame) {
		t.Fatalf("Dispatch() error = %v, want ErrUnhandledFrame", err)
	}
}

// TestDispatchKillSound tests which kills of owned cells play a sound.
func TestDispatchKillSound(t *testing.T) {
	tests := []struct {
		name string
		size uint16
		age  time.Duration
		mine bool
		want []Sound
	}{
		{"pellet", 10, time.Second, true, []Sound{SoundPelletEaten}},
		{"cell", 60, time.Second, true, []Sound{SoundCellEaten}},
		{"too young", 60, 100 * time.Millisecond, true, nil},
		{"foreign", 60, time.Second, false, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, l, _ := newTestDispatcher()
			st := newTestState()
			d.Dispatch(st, &protocol.Update{Cells: []protocol.CellRecord{{ID: 5, Size: tt.size}}}, t0)
			if tt.mine {
				st.MarkOwner(5, t0)
			}

			d.Dispatch(st, &protocol.Update{Kills: []protocol.Kill{{Killer: 9, Killed: 5}}}, t0.Add(tt.age))

			if len(l.sounds) != len(tt.want) {
				t.Fatalf("sounds = %v, want %v", l.sounds, tt.want)
			}
			for i := range tt.want {
				if l.sounds[i] != tt.want[i] {
					t.Errorf("sounds[%d] = %v, want %v", i, l.sounds[i], tt.want[i])
				}
			}
			c, ok := st.Cells.Get(5)
			if !ok || !c.Destroyed || c.Killer != 9 {
				t.Errorf("killed cell = %+v, want destroyed by 9", c)
			}
		})
	}
}

// TestDispatchDeathArmsRespawn tests that losing the last owned cell shows
// the overlay and arms the respawn only after a spawn.
func TestDispatchDeathArmsRespawn(t *testing.T) {
	d, l, e := newTestDispatcher()
	st := newTestState()

	d.Dispatch(st, &protocol.OwnCell{ID: 5}, t0)
	if st.RespawnOverlay {
		t.Fatal("overlay still shown after OwnCell")
	}
	if e.cancelled != 1 {
		t.Errorf("cancelled = %d, want 1", e.cancelled)
	}
	d.Dispatch(st, &protocol.Update{Cells: []protocol.CellRecord{{ID: 5, Size: 40}}}, t0)
	d.Dispatch(st, &protocol.Update{Removed: []uint32{5}}, t0.Add(time.Second))

	if !st.RespawnOverlay {
		t.Error("overlay hidden after death")
	}
	if v, ok := l.lastOverlay(); !ok || !v {
		t.Error("listener not told to show overlay")
	}
	if e.armed != 1 {
		t.Errorf("armed = %d, want 1", e.armed)
	}
	if _, ok := st.Ghosts.Get(5); !ok {
		t.Error("owned cell left no ghost")
	}

	fresh := newTestState()
	d.Dispatch(fresh, protocol.ClearAll{}, t0)
	if e.armed != 1 {
		t.Errorf("ClearAll before any spawn armed a respawn")
	}
}

// TestDispatchAutoRespawnOff tests that the respawn is not armed when
// auto-respawn is disabled.
func TestDispatchAutoRespawnOff(t *testing.T) {
	d, _, e := newTestDispatcher()
	st := newTestState()
	st.AutoRespawn = false

	d.Dispatch(st, &protocol.OwnCell{ID: 5}, t0)
	d.Dispatch(st, protocol.ClearMine{}, t0)

	if e.armed != 0 {
		t.Errorf("armed = %d, want 0", e.armed)
	}
	if !st.RespawnOverlay {
		t.Error("overlay not shown")
	}
}

// TestDispatchGhosts tests which removed cells are remembered.
func TestDispatchGhosts(t *testing.T) {
	d, _, _ := newTestDispatcher()
	st := newTestState()
	d.Dispatch(st, &protocol.Update{Cells: []protocol.CellRecord{
		{ID: 1, Size: 150},
		{ID: 2, Size: 30},
	}}, t0)
	d.Dispatch(st, &protocol.Update{Removed: []uint32{1, 2}}, t0)

	if _, ok := st.Ghosts.Get(1); !ok {
		t.Error("large cell left no ghost")
	}
	if _, ok := st.Ghosts.Get(2); ok {
		t.Error("small foreign cell left a ghost")
	}

	d.Dispatch(st, &protocol.Update{Cells: []protocol.CellRecord{{ID: 1, Size: 150}}}, t0)
	if _, ok := st.Ghosts.Get(1); ok {
		t.Error("ghost kept after the cell reappeared")
	}
}

// TestDispatchBorderKeepalive tests camera snapping and legacy detection.
func TestDispatchBorderKeepalive(t *testing.T) {
	tests := []struct {
		name      string
		border    *protocol.Border
		snap      bool
		keepalive bool
	}{
		{
			name:   "short form",
			border: &protocol.Border{Left: 0, Top: 0, Right: 100, Bottom: 100},
		},
		{
			name:   "extended modern",
			border: &protocol.Border{Left: 0, Top: 0, Right: 100, Bottom: 200, Extended: true, ServerName: "CustomServer"},
			snap:   true,
		},
		{
			name:      "extended legacy",
			border:    &protocol.Border{Left: 0, Top: 0, Right: 100, Bottom: 200, Extended: true, ServerName: "MultiOgar-Edited 1.6.1"},
			snap:      true,
			keepalive: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, _, e := newTestDispatcher()
			st := newTestState()
			d.Dispatch(st, tt.border, t0)

			snapped := st.Camera.X == 50 && st.Camera.Y == 100
			if snapped != tt.snap {
				t.Errorf("camera = (%v, %v), snapped = %v, want %v", st.Camera.X, st.Camera.Y, snapped, tt.snap)
			}
			if st.Keepalive != tt.keepalive {
				t.Errorf("Keepalive = %v, want %v", st.Keepalive, tt.keepalive)
			}
			want := 0
			if tt.keepalive {
				want = 1
			}
			if e.keepalive != want {
				t.Errorf("StartKeepalive calls = %d, want %d", e.keepalive, want)
			}

			// A second extended border never restarts anything.
			d.Dispatch(st, tt.border, t0)
			if e.keepalive != want {
				t.Errorf("StartKeepalive calls after repeat = %d, want %d", e.keepalive, want)
			}
		})
	}
}

// TestDispatchChat tests labels and listener delivery.
func TestDispatchChat(t *testing.T) {
	d, l, _ := newTestDispatcher()
	st := newTestState()

	d.Dispatch(st, &protocol.Chat{Flags: protocol.ChatServer, Sender: "server", Message: "restarting"}, t0)
	d.Dispatch(st, &protocol.Chat{Flags: protocol.ChatAdmin, Sender: "ann", Message: "hi"}, t0)

	chats := l.chatCopy()
	if len(chats) != 2 {
		t.Fatalf("chats = %d, want 2", len(chats))
	}
	if got := chats[0].String(); got != "restarting" {
		t.Errorf("server message = %q, want %q", got, "restarting")
	}
	if got := chats[1].String(); got != "[ADMIN] ann: hi" {
		t.Errorf("admin message = %q, want %q", got, "[ADMIN] ann: hi")
	}
	if st.Chat.Len() != 2 {
		t.Errorf("history = %d, want 2", st.Chat.Len())
	}
}

// TestDispatchStatsLatency tests latency measurement from the last ping.
func TestDispatchStatsLatency(t *testing.T) {
	d, _, _ := newTestDispatcher()
	st := newTestState()

	d.Dispatch(st, &protocol.Stats{Stats: protocol.ServerStats{Name: "x"}}, t0)
	if st.Stats.Latency != 0 {
		t.Errorf("latency without ping = %v, want 0", st.Stats.Latency)
	}

	st.LastPing = t0
	d.Dispatch(st, &protocol.Stats{Stats: protocol.ServerStats{Name: "x", PlayersAlive: 3}}, t0.Add(40*time.Millisecond))
	if st.Stats.Latency != 40*time.Millisecond {
		t.Errorf("latency = %v, want 40ms", st.Stats.Latency)
	}
	if st.Stats.Server.PlayersAlive != 3 {
		t.Errorf("players alive = %d, want 3", st.Stats.Server.PlayersAlive)
	}
}

// TestDispatchReplacesLeaderboard tests that each leaderboard frame
// replaces the previous one.
func TestDispatchReplacesLeaderboard(t *testing.T) {
	d, _, _ := newTestDispatcher()
	st := newTestState()

	d.Dispatch(st, &protocol.LeaderboardText{Lines: []string{"a", "b"}}, t0)
	if st.Leaderboard.Kind != world.LeaderboardText {
		t.Fatalf("kind = %v, want text", st.Leaderboard.Kind)
	}
	d.Dispatch(st, &protocol.LeaderboardTeam{Fractions: []float32{0.5, 0.5}}, t0)
	if st.Leaderboard.Kind != world.LeaderboardTeam || len(st.Leaderboard.Lines) != 0 {
		t.Errorf("leaderboard = %+v, want team only", st.Leaderboard)
	}
}
