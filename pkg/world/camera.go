package world

import "time"

// maxCameraSamples bounds the delay buffer regardless of tick rate.
const maxCameraSamples = 256

// CameraSample is one recorded camera target.
type CameraSample struct {
	At   time.Time
	X, Y float64
}

// Camera is the view position and zoom. ViewMult scales the visible area
// and is shared across sessions when switching.
type Camera struct {
	X, Y     float64
	Zoom     float64
	ViewMult float64

	TargetX, TargetY float64
	TargetZoom       float64

	// Delay holds the view behind the live target by this much.
	Delay time.Duration

	samples []CameraSample
}

// NewCamera returns a camera at the origin with unit zoom.
func NewCamera(delay time.Duration) *Camera {
	return &Camera{Zoom: 1, TargetZoom: 1, ViewMult: 1, Delay: delay}
}

// Push sets an authoritative target, as sent by the server.
func (c *Camera) Push(x, y, zoom float64) {
	c.TargetX, c.TargetY = x, y
	if zoom > 0 {
		c.TargetZoom = zoom
	}
}

// SnapTo moves the camera and its target to (x, y) immediately.
func (c *Camera) SnapTo(x, y float64) {
	c.X, c.Y = x, y
	c.TargetX, c.TargetY = x, y
	c.samples = c.samples[:0]
}

// Record appends the current target to the delay buffer and drops samples
// older than needed.
func (c *Camera) Record(now time.Time) {
	c.samples = append(c.samples, CameraSample{At: now, X: c.TargetX, Y: c.TargetY})
	cutoff := now.Add(-c.Delay)
	drop := 0
	// Keep the newest sample at or before the cutoff.
	for drop+1 < len(c.samples) && !c.samples[drop+1].At.After(cutoff) {
		drop++
	}
	if n := len(c.samples) - maxCameraSamples; n > drop {
		drop = n
	}
	if drop > 0 {
		c.samples = append(c.samples[:0], c.samples[drop:]...)
	}
}

// Delayed returns the target the camera should be heading for at now:
// the newest sample at least Delay old, or the oldest one available.
func (c *Camera) Delayed(now time.Time) (x, y float64) {
	if c.Delay <= 0 || len(c.samples) == 0 {
		return c.TargetX, c.TargetY
	}
	cutoff := now.Add(-c.Delay)
	s := c.samples[0]
	for _, v := range c.samples[1:] {
		if v.At.After(cutoff) {
			break
		}
		s = v
	}
	return s.X, s.Y
}

// Samples returns the number of buffered targets.
func (c *Camera) Samples() int { return len(c.samples) }

// Step records the target and moves position and zoom a fraction f of
// the way toward the (delayed) target.
func (c *Camera) Step(now time.Time, f float64) {
	c.Record(now)
	tx, ty := c.Delayed(now)
	c.X += (tx - c.X) * f
	c.Y += (ty - c.Y) * f
	c.Zoom += (c.TargetZoom - c.Zoom) * f
}

// Reset drops the delay buffer, keeping position, zoom and ViewMult.
func (c *Camera) Reset() {
	c.samples = c.samples[:0]
}
