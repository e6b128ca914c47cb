package client

import (
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"github.com/vango-dev/cellclient/pkg/protocol"
	"github.com/vango-dev/cellclient/pkg/session"
)

// Stopper is a scheduled callback that can be cancelled. *time.Timer
// satisfies it.
type Stopper interface {
	Stop() bool
}

// FrameSink receives every inbound message before it is decoded.
type FrameSink interface {
	Record(role string, at time.Time, msg []byte) error
}

// Config configures a Client.
type Config struct {
	// Session holds the per-session tunables.
	Session session.Config

	// Dialer opens connections (default: a WebSocketDialer).
	Dialer Dialer

	// Logger is the structured logger (default: slog.Default()).
	Logger *slog.Logger

	// Listener receives sound, overlay, banner and chat signals.
	Listener Listener

	// Metrics records Prometheus metrics when non-nil.
	Metrics *Metrics

	// Tracer creates connect and dispatch spans (default: the global
	// provider's "cellclient" tracer).
	Tracer trace.Tracer

	// Recorder receives every inbound message when non-nil.
	Recorder FrameSink

	// Now and AfterFunc are the clock. Tests replace them.
	Now       func() time.Time
	AfterFunc func(d time.Duration, f func()) Stopper

	// RenderInterval is the render tick period.
	RenderInterval time.Duration

	// MouseInterval is the mouse poll period. A mouse frame is sent only
	// when the target moved since the last one.
	MouseInterval time.Duration

	// RespawnDelay is how long after death an auto-respawn fires.
	RespawnDelay time.Duration

	// KeepaliveInterval is the legacy-server ping period.
	KeepaliveInterval time.Duration

	// KeepaliveSignatures are substrings of the extended border's server
	// name that identify servers needing the ping loop.
	KeepaliveSignatures []string

	// KillSoundAge is how old an owned cell must be before its death
	// plays a sound.
	KillSoundAge time.Duration

	// PelletSize separates "pellet" from "cell" kill sounds.
	PelletSize float64

	// ActionRate and ActionBurst throttle single-byte actions.
	ActionRate  rate.Limit
	ActionBurst int

	// SecondaryIdentity is used by the multibox session. The zero value
	// reuses the primary identity.
	SecondaryIdentity protocol.Identity

	// MaxDispatchQueue bounds the loop's inbound queue.
	MaxDispatchQueue int
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		Session:             session.DefaultConfig(),
		RenderInterval:      16 * time.Millisecond,
		MouseInterval:       40 * time.Millisecond,
		RespawnDelay:        2 * time.Second,
		KeepaliveInterval:   18 * time.Second,
		KeepaliveSignatures: []string{"MultiOgar", "Ogar"},
		KillSoundAge:        500 * time.Millisecond,
		PelletSize:          20,
		ActionRate:          25,
		ActionBurst:         10,
		MaxDispatchQueue:    1024,
	}
}

// Clone returns a copy of the config.
func (c *Config) Clone() *Config {
	if c == nil {
		return nil
	}
	clone := *c
	if c.KeepaliveSignatures != nil {
		clone.KeepaliveSignatures = append([]string(nil), c.KeepaliveSignatures...)
	}
	return &clone
}

// WithDialer sets the dialer.
func (c *Config) WithDialer(d Dialer) *Config {
	c.Dialer = d
	return c
}

// WithLogger sets the logger.
func (c *Config) WithLogger(l *slog.Logger) *Config {
	c.Logger = l
	return c
}

// WithListener sets the listener.
func (c *Config) WithListener(l Listener) *Config {
	c.Listener = l
	return c
}

// WithMetrics enables metrics.
func (c *Config) WithMetrics(m *Metrics) *Config {
	c.Metrics = m
	return c
}

// WithRecorder sets the inbound frame sink.
func (c *Config) WithRecorder(r FrameSink) *Config {
	c.Recorder = r
	return c
}

func (c *Config) applyDefaults() {
	def := DefaultConfig()
	if c.Dialer == nil {
		c.Dialer = &WebSocketDialer{}
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	if c.Listener == nil {
		c.Listener = NopListener{}
	}
	if c.Now == nil {
		c.Now = time.Now
	}
	if c.AfterFunc == nil {
		c.AfterFunc = func(d time.Duration, f func()) Stopper { return time.AfterFunc(d, f) }
	}
	if c.RenderInterval <= 0 {
		c.RenderInterval = def.RenderInterval
	}
	if c.MouseInterval <= 0 {
		c.MouseInterval = def.MouseInterval
	}
	if c.KeepaliveInterval <= 0 {
		c.KeepaliveInterval = def.KeepaliveInterval
	}
	if c.ActionRate <= 0 {
		c.ActionRate = def.ActionRate
	}
	if c.ActionBurst <= 0 {
		c.ActionBurst = def.ActionBurst
	}
	if c.MaxDispatchQueue <= 0 {
		c.MaxDispatchQueue = def.MaxDispatchQueue
	}
}
