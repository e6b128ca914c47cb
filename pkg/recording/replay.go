package recording

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sort"
	"time"

	"github.com/vango-dev/cellclient/pkg/client"
	"github.com/vango-dev/cellclient/pkg/protocol"
	"github.com/vango-dev/cellclient/pkg/session"
	"github.com/vango-dev/cellclient/pkg/world"
)

// maxTickGap caps the render ticks replayed across a silent stretch.
const maxTickGap = 256

// OpcodeCount is a per-opcode frame count in a Summary.
type OpcodeCount struct {
	Opcode string `json:"opcode"`
	Frames int    `json:"frames"`
}

// Summary describes a replayed recording.
type Summary struct {
	Frames       int                `json:"frames"`
	Bytes        int64              `json:"bytes"`
	DecodeErrors int                `json:"decodeErrors"`
	Start        time.Time          `json:"start"`
	End          time.Time          `json:"end"`
	Opcodes      []OpcodeCount      `json:"opcodes"`
	Sessions     []session.Snapshot `json:"sessions"`
}

// Duration is the time between the first and last entry.
func (s *Summary) Duration() time.Duration {
	if s.Start.IsZero() {
		return 0
	}
	return s.End.Sub(s.Start)
}

// Replayer feeds a recording through a dispatcher offline. No connection
// is opened and no timers are scheduled; each entry is applied at its
// recorded time and render ticks run on the recorded clock.
type Replayer struct {
	cfg        *client.Config
	logger     *slog.Logger
	dispatcher *client.Dispatcher
	owners     *world.Ownership
	states     [len(world.Roles)]*session.State
}

// NewReplayer creates a replayer with fresh sessions built from cfg.
func NewReplayer(cfg *client.Config) *Replayer {
	if cfg == nil {
		cfg = client.DefaultConfig()
	} else {
		cfg = cfg.Clone()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Replayer{
		cfg:        cfg,
		logger:     cfg.Logger.With("component", "replay"),
		dispatcher: client.NewDispatcher(cfg, nil),
		owners:     world.NewOwnership(),
	}
}

func (p *Replayer) state(role world.Role) *session.State {
	if p.states[role] == nil {
		st := session.NewState(role, p.cfg.Session, p.owners)
		st.Connected = true
		st.EverConnected = true
		p.states[role] = st
	}
	return p.states[role]
}

// Replay reads every entry from r. A frame that fails to decode resets
// its session's view, as a live connection drop would, and replay goes on.
func (p *Replayer) Replay(ctx context.Context, r *Reader) (*Summary, error) {
	sum := &Summary{}
	counts := make(map[string]int)
	tick := p.cfg.RenderInterval
	if tick <= 0 {
		tick = client.DefaultConfig().RenderInterval
	}
	var nextTick time.Time

	for {
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		e, err := r.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return sum, err
		}

		if sum.Start.IsZero() {
			sum.Start = e.At
			nextTick = e.At
		}
		sum.End = e.At
		sum.Frames++
		sum.Bytes += int64(len(e.Payload))

		if e.At.Sub(nextTick) > maxTickGap*tick {
			nextTick = e.At
		}
		for !nextTick.After(e.At) {
			p.tick(nextTick)
			nextTick = nextTick.Add(tick)
		}

		st := p.state(e.Role)
		f, err := protocol.Decode(e.Payload)
		if err != nil {
			sum.DecodeErrors++
			p.logger.Warn("replay decode error", "session", e.Role.String(), "bytes", len(e.Payload), "error", err)
			st.ResetView()
			continue
		}
		counts[f.Opcode().String()]++
		if err := p.dispatcher.Dispatch(st, f, e.At); err != nil {
			p.logger.Warn("replay dispatch failed", "session", e.Role.String(), "error", err)
		}
	}

	if !sum.End.IsZero() {
		p.tick(sum.End)
	}
	for op, n := range counts {
		sum.Opcodes = append(sum.Opcodes, OpcodeCount{Opcode: op, Frames: n})
	}
	sort.Slice(sum.Opcodes, func(i, j int) bool {
		if sum.Opcodes[i].Frames != sum.Opcodes[j].Frames {
			return sum.Opcodes[i].Frames > sum.Opcodes[j].Frames
		}
		return sum.Opcodes[i].Opcode < sum.Opcodes[j].Opcode
	})
	for _, st := range p.states {
		if st != nil {
			sum.Sessions = append(sum.Sessions, st.Snapshot(sum.End))
		}
	}
	return sum, nil
}

func (p *Replayer) tick(now time.Time) {
	for _, st := range p.states {
		if st != nil {
			st.Tick(now)
		}
	}
}

// State returns the replayed session for role, or nil if the recording
// had no frames for it.
func (p *Replayer) State(role world.Role) *session.State {
	if int(role) >= len(p.states) {
		return nil
	}
	return p.states[role]
}
