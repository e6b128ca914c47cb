package session

import (
	"github.com/vango-dev/cellclient/pkg/protocol"
	"github.com/vango-dev/cellclient/pkg/world"
)

// Coordinator owns the primary session, at most one secondary session,
// and which of them is active. Switching the active session never closes
// a connection; both keep receiving frames.
//
// Like State, a Coordinator belongs to the client event loop.
type Coordinator struct {
	cfg    Config
	owners *world.Ownership
	states [len(world.Roles)]*State
	active world.Role

	// SecondaryIdentity is given to the secondary session when it is
	// created. The zero value copies the primary identity.
	SecondaryIdentity protocol.Identity
}

// NewCoordinator creates the primary session for url.
func NewCoordinator(cfg Config, url string, id protocol.Identity) *Coordinator {
	c := &Coordinator{cfg: cfg, owners: world.NewOwnership()}
	p := NewState(world.RolePrimary, cfg, c.owners)
	p.URL = url
	p.Identity = id
	c.states[world.RolePrimary] = p
	return c
}

// Ownership returns the registry shared by both sessions.
func (c *Coordinator) Ownership() *world.Ownership { return c.owners }

// Primary returns the primary session.
func (c *Coordinator) Primary() *State { return c.states[world.RolePrimary] }

// Secondary returns the secondary session, or nil if none exists.
func (c *Coordinator) Secondary() *State { return c.states[world.RoleSecondary] }

// State returns the session for role, or nil.
func (c *Coordinator) State(role world.Role) *State {
	if int(role) >= len(c.states) {
		return nil
	}
	return c.states[role]
}

// Active returns the session bound to rendering and input.
func (c *Coordinator) Active() *State { return c.states[c.active] }

// ActiveRole returns the role of the active session.
func (c *Coordinator) ActiveRole() world.Role { return c.active }

// Sessions returns the existing sessions, primary first.
func (c *Coordinator) Sessions() []*State {
	out := make([]*State, 0, len(c.states))
	for _, s := range c.states {
		if s != nil {
			out = append(out, s)
		}
	}
	return out
}

// ToggleActive makes the other session active, creating the secondary on
// first use. The incoming session inherits the outgoing zoom and view
// multiplier. When the incoming session has never connected it is
// flagged to play as soon as it opens and needConnect is true; the
// caller opens the connection.
func (c *Coordinator) ToggleActive() (incoming *State, needConnect bool) {
	out := c.Active()
	role := c.active.Other()

	in := c.states[role]
	if in == nil {
		in = NewState(role, c.cfg, c.owners)
		in.URL = c.Primary().URL
		in.Identity = c.SecondaryIdentity
		if in.Identity == (protocol.Identity{}) {
			in.Identity = c.Primary().Identity
		}
		c.states[role] = in
	}

	in.Camera.Zoom = out.Camera.Zoom
	in.Camera.TargetZoom = out.Camera.TargetZoom
	in.Camera.ViewMult = out.Camera.ViewMult
	c.active = role

	if role == world.RoleSecondary && !in.EverConnected && !in.Connecting && !in.Connected {
		in.PendingPlay = true
		needConnect = true
	}
	return in, needConnect
}

// SelectServer points the primary session at url and discards the
// secondary session. The discarded session is returned so the caller can
// close its connection; it is nil when there was none.
func (c *Coordinator) SelectServer(url string) (discarded *State) {
	c.Primary().URL = url
	discarded = c.states[world.RoleSecondary]
	if discarded != nil {
		discarded.Detach()
		c.states[world.RoleSecondary] = nil
	}
	c.active = world.RolePrimary
	return discarded
}
