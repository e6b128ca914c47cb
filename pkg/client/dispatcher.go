package client

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/vango-dev/cellclient/pkg/protocol"
	"github.com/vango-dev/cellclient/pkg/session"
	"github.com/vango-dev/cellclient/pkg/world"
)

// Effects are the side effects a frame can ask of the connection layer.
type Effects interface {
	// StartKeepalive starts the legacy ping loop for st.
	StartKeepalive(st *session.State)

	// ArmRespawn schedules an automatic spawn for st.
	ArmRespawn(st *session.State)

	// CancelRespawn drops a pending automatic spawn for st.
	CancelRespawn(st *session.State)
}

// Dispatcher applies decoded frames to the session they arrived on. It
// keeps no state of its own between frames.
type Dispatcher struct {
	Logger   *slog.Logger
	Listener Listener
	Effects  Effects
	Metrics  *Metrics

	// KillSoundAge and PelletSize shape kill sounds.
	KillSoundAge time.Duration
	PelletSize   float64

	// KeepaliveSignatures select servers that need the ping loop.
	KeepaliveSignatures []string

	// GhostSize is the size above which a removed foreign cell leaves
	// a ghost. Owned cells always do.
	GhostSize float64
}

// NewDispatcher returns a dispatcher wired from cfg. effects may be nil
// for offline use, in which case timers are never scheduled.
func NewDispatcher(cfg *Config, effects Effects) *Dispatcher {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	listener := cfg.Listener
	if listener == nil {
		listener = NopListener{}
	}
	return &Dispatcher{
		Logger:              logger,
		Listener:            listener,
		Effects:             effects,
		Metrics:             cfg.Metrics,
		KillSoundAge:        cfg.KillSoundAge,
		PelletSize:          cfg.PelletSize,
		KeepaliveSignatures: cfg.KeepaliveSignatures,
		GhostSize:           100,
	}
}

// Dispatch applies f to st. The only error is ErrUnhandledFrame.
func (d *Dispatcher) Dispatch(st *session.State, f protocol.Frame, now time.Time) error {
	switch f := f.(type) {
	case *protocol.Update:
		d.handleUpdate(st, f, now)
	case *protocol.CameraPush:
		st.Camera.Push(float64(f.X), float64(f.Y), float64(f.Zoom))
	case protocol.ClearAll:
		wasAlive := st.Alive()
		st.Cells.Clear()
		d.showOverlay(st, wasAlive)
	case protocol.ClearMine:
		wasAlive := st.Alive()
		st.Cells.ClearMine()
		d.showOverlay(st, wasAlive)
	case *protocol.DrawLine:
		d.Logger.Debug("ignoring draw line", "session", st.Role.String(), "bytes", len(f.Payload))
	case *protocol.OwnCell:
		d.handleOwnCell(st, f, now)
	case *protocol.LeaderboardText:
		st.Leaderboard = world.TextLeaderboard(f)
	case *protocol.LeaderboardRanked:
		st.Leaderboard = world.RankedLeaderboard(f)
	case *protocol.LeaderboardTeam:
		st.Leaderboard = world.TeamLeaderboard(f)
	case *protocol.Border:
		d.handleBorder(st, f)
	case *protocol.IdentityEcho:
		st.ServerIdentity = f.Identity
	case *protocol.Minimap:
		if purged := st.Minimap.Replace(f); len(purged) > 0 {
			d.Logger.Debug("minimap purged", "session", st.Role.String(), "ids", len(purged))
		}
	case *protocol.Chat:
		d.handleChat(st, f, now)
	case *protocol.Stats:
		d.handleStats(st, f, now)
	default:
		return fmt.Errorf("%w: %T", ErrUnhandledFrame, f)
	}
	return nil
}

func (d *Dispatcher) handleUpdate(st *session.State, f *protocol.Update, now time.Time) {
	wasAlive := st.Alive()

	for _, k := range f.Kills {
		if c, ok := st.Cells.Get(k.Killed); ok && st.Cells.IsMine(k.Killed) && c.Age(now) > d.KillSoundAge {
			if c.NS < d.PelletSize {
				d.Listener.Sound(st.Role, SoundPelletEaten)
			} else {
				d.Listener.Sound(st.Role, SoundCellEaten)
			}
		}
		st.Cells.Destroy(k.Killed, k.Killer, now)
	}

	for i := range f.Cells {
		rec := &f.Cells[i]
		if _, _, err := st.Cells.Upsert(rec, now); err != nil {
			d.Logger.Debug("malformed cell name", "session", st.Role.String(), "id", rec.ID, "name", rec.Name, "error", err)
		}
		st.Ghosts.Forget(rec.ID)
	}

	for _, id := range f.Removed {
		if c, ok := st.Cells.Get(id); ok && !c.Destroyed && (st.Cells.IsMine(id) || c.NS >= d.GhostSize) {
			st.Ghosts.Record(c, now)
		}
		st.Cells.Destroy(id, 0, now)
	}

	if wasAlive && !st.Alive() {
		d.showOverlay(st, true)
	}
}

// showOverlay raises the respawn overlay and, for a session that died
// after spawning, arms the automatic respawn.
func (d *Dispatcher) showOverlay(st *session.State, died bool) {
	if !st.RespawnOverlay {
		st.RespawnOverlay = true
		d.Listener.Overlay(st.Role, true)
	}
	if died && st.HasSpawned && st.AutoRespawn && d.Effects != nil {
		d.Effects.ArmRespawn(st)
	}
}

func (d *Dispatcher) handleOwnCell(st *session.State, f *protocol.OwnCell, now time.Time) {
	st.MarkOwner(f.ID, now)
	st.HasSpawned = true
	if d.Effects != nil {
		d.Effects.CancelRespawn(st)
	}
	if st.RespawnOverlay {
		st.RespawnOverlay = false
		d.Listener.Overlay(st.Role, false)
	}
}

func (d *Dispatcher) handleBorder(st *session.State, f *protocol.Border) {
	if !st.Border.Apply(f) {
		return
	}
	st.Camera.SnapTo(st.Border.CenterX, st.Border.CenterY)
	if st.Keepalive || !d.isLegacyServer(f.ServerName) {
		return
	}
	st.Keepalive = true
	d.Logger.Info("legacy server detected, starting keepalive",
		"session", st.Role.String(),
		"server", f.ServerName)
	if d.Effects != nil {
		d.Effects.StartKeepalive(st)
	}
}

func (d *Dispatcher) isLegacyServer(name string) bool {
	for _, sig := range d.KeepaliveSignatures {
		if sig != "" && strings.Contains(name, sig) {
			return true
		}
	}
	return false
}

func (d *Dispatcher) handleChat(st *session.State, f *protocol.Chat, now time.Time) {
	msg, err := world.NewChatMessage(f, now)
	if err != nil {
		d.Logger.Debug("malformed chat sender", "session", st.Role.String(), "sender", f.Sender, "error", err)
	}
	st.Chat.Add(msg, now)
	d.Listener.Chat(st.Role, msg)
}

func (d *Dispatcher) handleStats(st *session.State, f *protocol.Stats, now time.Time) {
	st.Stats.Server = f.Stats
	st.Stats.ServerRaw = f.Raw
	st.Stats.Updated = now
	if !st.LastPing.IsZero() {
		st.Stats.Latency = now.Sub(st.LastPing)
		d.Metrics.observeLatency(st.Role.String(), st.Stats.Latency.Seconds())
	}
}
