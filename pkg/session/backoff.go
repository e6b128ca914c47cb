package session

import "time"

// BackoffConfig shapes reconnect delays.
type BackoffConfig struct {
	// Initial is the floor delay used after a successful open.
	Initial time.Duration

	// Max caps the delay.
	Max time.Duration

	// Factor multiplies the delay after every attempt. Values below 1
	// are treated as 1.
	Factor float64
}

// DefaultBackoffConfig returns 1s growing by 1.5x up to 30s.
func DefaultBackoffConfig() BackoffConfig {
	return BackoffConfig{
		Initial: time.Second,
		Max:     30 * time.Second,
		Factor:  1.5,
	}
}

// Backoff yields non-decreasing reconnect delays until Reset.
type Backoff struct {
	cfg     BackoffConfig
	current time.Duration
}

// NewBackoff returns a backoff at its floor.
func NewBackoff(cfg BackoffConfig) Backoff {
	if cfg.Initial <= 0 {
		cfg.Initial = DefaultBackoffConfig().Initial
	}
	if cfg.Max < cfg.Initial {
		cfg.Max = cfg.Initial
	}
	if cfg.Factor < 1 {
		cfg.Factor = 1
	}
	return Backoff{cfg: cfg, current: cfg.Initial}
}

// Next returns the delay for this attempt and grows the next one.
func (b *Backoff) Next() time.Duration {
	if b.current <= 0 {
		b.current = b.cfg.Initial
	}
	d := b.current
	grown := time.Duration(float64(b.current) * b.cfg.Factor)
	if grown > b.cfg.Max || grown < b.current {
		grown = b.cfg.Max
	}
	b.current = grown
	return d
}

// Peek returns the delay Next would return without advancing.
func (b *Backoff) Peek() time.Duration {
	if b.current <= 0 {
		return b.cfg.Initial
	}
	return b.current
}

// Reset returns the delay to its floor.
func (b *Backoff) Reset() {
	b.current = b.cfg.Initial
}
