package session

import (
	"testing"

	"github.com/vango-dev/cellclient/pkg/protocol"
	"github.com/vango-dev/cellclient/pkg/world"
)

// TestCoordinatorToggle tests lazy secondary creation and setting carry-over.
func TestCoordinatorToggle(t *testing.T) {
	c := NewCoordinator(DefaultConfig(), "ws://a", protocol.Identity{Name: "p1"})
	if c.Secondary() != nil {
		t.Fatal("secondary exists before first toggle")
	}
	p := c.Primary()
	p.Connected = true
	p.EverConnected = true
	p.Camera.Zoom = 0.4
	p.Camera.ViewMult = 1.7

	in, needConnect := c.ToggleActive()
	if in != c.Secondary() || c.Active() != in {
		t.Fatal("secondary not active after toggle")
	}
	if !needConnect || !in.PendingPlay {
		t.Error("unconnected secondary not flagged to connect and play")
	}
	if in.URL != "ws://a" || in.Identity.Name != "p1" {
		t.Errorf("secondary url/identity = %q/%+v", in.URL, in.Identity)
	}
	if in.Camera.Zoom != 0.4 || in.Camera.ViewMult != 1.7 {
		t.Errorf("camera not carried over: %+v", in.Camera)
	}

	in.Connecting = true
	in.Camera.Zoom = 2
	back, needConnect := c.ToggleActive()
	if back != p || c.ActiveRole() != world.RolePrimary {
		t.Fatal("toggle did not return to primary")
	}
	if needConnect {
		t.Error("primary asked to connect")
	}
	if !p.Connected {
		t.Error("toggle touched primary connection state")
	}
	if p.Camera.Zoom != 2 {
		t.Errorf("primary zoom = %v, want 2", p.Camera.Zoom)
	}

	again, needConnect := c.ToggleActive()
	if again != in || needConnect {
		t.Error("second toggle recreated or reconnected the secondary")
	}
}

func TestCoordinatorSecondaryIdentity(t *testing.T) {
	c := NewCoordinator(DefaultConfig(), "ws://a", protocol.Identity{Name: "main"})
	c.SecondaryIdentity = protocol.Identity{Name: "alt"}
	in, _ := c.ToggleActive()
	if in.Identity.Name != "alt" {
		t.Errorf("Identity = %+v, want alt", in.Identity)
	}
}

func TestCoordinatorSharedOwnership(t *testing.T) {
	c := NewCoordinator(DefaultConfig(), "ws://a", protocol.Identity{})
	sec, _ := c.ToggleActive()

	c.Primary().MarkOwner(5, t0)
	sec.MarkOwner(5, t0)
	if c.Primary().Cells.IsMine(5) || !sec.Cells.IsMine(5) {
		t.Error("claim not moved to secondary")
	}
}

func TestCoordinatorSelectServer(t *testing.T) {
	c := NewCoordinator(DefaultConfig(), "ws://a", protocol.Identity{})
	if d := c.SelectServer("ws://b"); d != nil {
		t.Errorf("discarded = %v without secondary", d)
	}

	sec, _ := c.ToggleActive()
	sec.MarkOwner(9, t0)

	discarded := c.SelectServer("ws://c")
	if discarded != sec {
		t.Fatal("secondary not returned as discarded")
	}
	if c.Secondary() != nil || c.ActiveRole() != world.RolePrimary {
		t.Error("secondary survived server selection")
	}
	if c.Primary().URL != "ws://c" {
		t.Errorf("primary URL = %q", c.Primary().URL)
	}
	if _, ok := c.Ownership().Owner(9); ok {
		t.Error("discarded session still owns ids")
	}
	if len(c.Sessions()) != 1 {
		t.Errorf("Sessions() = %d", len(c.Sessions()))
	}

	fresh, needConnect := c.ToggleActive()
	if fresh == sec || !needConnect {
		t.Error("toggle after server change reused the old secondary")
	}
	if fresh.URL != "ws://c" {
		t.Errorf("new secondary URL = %q", fresh.URL)
	}
}
