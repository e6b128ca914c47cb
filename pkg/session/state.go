package session

import (
	"encoding/json"
	"time"

	"github.com/vango-dev/cellclient/pkg/protocol"
	"github.com/vango-dev/cellclient/pkg/world"
)

// Config holds the per-session tunables.
type Config struct {
	// Grace is how long a destroyed cell stays in the table.
	Grace time.Duration

	// Interpolation is the render-smoothing window after each update.
	Interpolation time.Duration

	// GhostTTL is how long a removed cell is remembered.
	GhostTTL time.Duration

	// CameraDelay holds the camera behind its target.
	CameraDelay time.Duration

	// CameraLerp and MinimapLerp are per-tick smoothing fractions.
	CameraLerp  float64
	MinimapLerp float64

	Chat    world.ChatConfig
	Backoff BackoffConfig
}

// DefaultConfig returns the default session settings.
func DefaultConfig() Config {
	return Config{
		Grace:         300 * time.Millisecond,
		Interpolation: 120 * time.Millisecond,
		GhostTTL:      10 * time.Second,
		CameraDelay:   0,
		CameraLerp:    0.2,
		MinimapLerp:   0.3,
		Chat:          world.DefaultChatConfig(),
		Backoff:       DefaultBackoffConfig(),
	}
}

// Stats is the transient HUD data of a session.
type Stats struct {
	FPS       float64              `json:"fps"`
	Latency   time.Duration        `json:"latency"`
	Score     int                  `json:"score"`
	BestScore int                  `json:"bestScore"`
	Server    protocol.ServerStats `json:"server"`
	ServerRaw json.RawMessage      `json:"serverRaw,omitempty"`
	Updated   time.Time            `json:"updated"`
}

// State is everything one logical session derives from its connection.
// It is owned by the client event loop and must not be touched from any
// other goroutine; use Snapshot for a copy.
type State struct {
	Role world.Role
	cfg  Config

	Cells       *world.Table
	Border      world.Border
	Leaderboard world.Leaderboard
	Chat        *world.Chat
	Camera      *world.Camera
	Minimap     *world.Minimap
	Ghosts      *world.Ghosts
	Stats       Stats

	// Identity is sent on every open and spawn. ServerIdentity is the
	// last identity the server echoed back.
	Identity       protocol.Identity
	ServerIdentity protocol.Identity

	URL           string
	Connected     bool
	Connecting    bool
	EverConnected bool
	Backoff       Backoff

	HasSpawned     bool
	AutoRespawn    bool
	PendingPlay    bool
	RespawnOverlay bool

	// Keepalive is set once a legacy server signature started the ping
	// loop; LastPing is when the last ping went out.
	Keepalive bool
	LastPing  time.Time

	owners   *world.Ownership
	lastTick time.Time
}

// NewState creates an empty session and links its table into owners.
func NewState(role world.Role, cfg Config, owners *world.Ownership) *State {
	s := &State{
		Role:           role,
		cfg:            cfg,
		Cells:          world.NewTable(),
		Chat:           world.NewChat(cfg.Chat),
		Camera:         world.NewCamera(cfg.CameraDelay),
		Minimap:        world.NewMinimap(),
		Ghosts:         world.NewGhosts(cfg.GhostTTL),
		Backoff:        NewBackoff(cfg.Backoff),
		AutoRespawn:    true,
		RespawnOverlay: true,
		owners:         owners,
	}
	if owners != nil {
		owners.Attach(role, s.Cells)
	}
	return s
}

// Config returns the settings the session was created with.
func (s *State) Config() Config { return s.cfg }

// MarkOwner claims id for this session, revoking any claim the other
// session holds on it.
func (s *State) MarkOwner(id uint32, now time.Time) {
	if s.owners != nil {
		s.owners.MarkOwner(id, s.Role, now)
		return
	}
	s.Cells.AddMine(id, now)
}

// Alive reports whether the session owns any cell.
func (s *State) Alive() bool { return s.Cells.MineCount() > 0 }

// ResetView wipes everything derived from the current connection: cells,
// ownership, border, leaderboard, roster and every smoothing cache. Chat
// history and identity survive.
func (s *State) ResetView() {
	s.Cells.Clear()
	s.Border.Reset()
	s.Leaderboard = world.Leaderboard{}
	s.Minimap.Reset()
	s.Ghosts.Reset()
	s.Camera.Reset()
	s.Stats.Score = 0
	s.Stats.Latency = 0
	s.Keepalive = false
	s.LastPing = time.Time{}
}

// Detach unlinks the session from the shared ownership registry.
func (s *State) Detach() {
	if s.owners != nil {
		s.owners.Detach(s.Role)
	}
}

// Tick advances render smoothing to now: cell interpolation, the grace
// sweep, ghost expiry, minimap smoothing, camera follow and score. It
// returns the ids swept this tick.
func (s *State) Tick(now time.Time) []uint32 {
	if !s.lastTick.IsZero() {
		if dt := now.Sub(s.lastTick); dt > 0 {
			fps := float64(time.Second) / float64(dt)
			if s.Stats.FPS == 0 {
				s.Stats.FPS = fps
			} else {
				s.Stats.FPS += (fps - s.Stats.FPS) * 0.1
			}
		}
	}
	s.lastTick = now

	s.Cells.Interpolate(now, s.cfg.Interpolation)
	swept := s.Cells.Sweep(now, s.cfg.Grace)
	s.Ghosts.Expire(now)
	s.Minimap.Smooth(s.cfg.MinimapLerp)

	if x, y, ok := s.Cells.Centroid(); ok {
		s.Camera.TargetX, s.Camera.TargetY = x, y
	}
	s.Camera.Step(now, s.cfg.CameraLerp)

	s.Stats.Score = s.Cells.Score()
	if s.Stats.Score > s.Stats.BestScore {
		s.Stats.BestScore = s.Stats.Score
	}
	return swept
}
