package client

import "github.com/vango-dev/cellclient/pkg/world"

// Sound is a sound cue requested by a frame.
type Sound uint8

const (
	SoundPelletEaten Sound = iota + 1
	SoundCellEaten
)

// String returns the cue name.
func (s Sound) String() string {
	switch s {
	case SoundPelletEaten:
		return "pellet-eaten"
	case SoundCellEaten:
		return "cell-eaten"
	default:
		return "none"
	}
}

// Listener receives user-facing signals. Methods run on the client loop
// and must not block; failures inside them (a sound that cannot play)
// are the listener's to swallow.
type Listener interface {
	// Sound plays a cue.
	Sound(role world.Role, s Sound)

	// Overlay shows or hides the respawn overlay.
	Overlay(role world.Role, visible bool)

	// Connecting shows or hides the connecting banner.
	Connecting(role world.Role, connecting bool)

	// Chat announces a new chat message.
	Chat(role world.Role, msg world.ChatMessage)
}

// NopListener ignores every signal.
type NopListener struct{}

func (NopListener) Sound(world.Role, Sound) {}
func (NopListener) Overlay(world.Role, bool) {}
func (NopListener) Connecting(world.Role, bool) {}
func (NopListener) Chat(world.Role, world.ChatMessage) {}
