package world

import (
	"time"

	"github.com/vango-dev/cellclient/pkg/protocol"
)

// ChatConfig bounds chat history and its display timer.
type ChatConfig struct {
	// Capacity is the number of messages kept.
	Capacity int

	// MinLifetime is the shortest time a message keeps the chat visible.
	MinLifetime time.Duration

	// PerChar is added per character of message text.
	PerChar time.Duration

	// ExtendWindow is how soon after the previous message a new one
	// extends the visibility timer instead of restarting it.
	ExtendWindow time.Duration
}

// DefaultChatConfig returns the default chat settings.
func DefaultChatConfig() ChatConfig {
	return ChatConfig{
		Capacity:     50,
		MinLifetime:  5 * time.Second,
		PerChar:      80 * time.Millisecond,
		ExtendWindow: 3 * time.Second,
	}
}

// ChatMessage is one message ready for display.
type ChatMessage struct {
	At     time.Time      `json:"at"`
	Sender string         `json:"sender,omitempty"`
	Tag    string         `json:"tag,omitempty"`
	Color  protocol.Color `json:"color"`
	Text   string         `json:"text"`
	Server bool           `json:"server,omitempty"`
}

// NewChatMessage converts a chat frame. Server messages carry no sender;
// admin and moderator messages carry a tag. The sender's skin tag and
// color suffix are stripped; the returned error reports a malformed
// sender, which is then shown without its skin tag but otherwise verbatim.
func NewChatMessage(f *protocol.Chat, now time.Time) (ChatMessage, error) {
	m := ChatMessage{At: now, Color: f.Color, Text: f.Message}
	if f.Flags&protocol.ChatServer != 0 {
		m.Server = true
		return m, nil
	}
	switch {
	case f.Flags&protocol.ChatAdmin != 0:
		m.Tag = "ADMIN"
	case f.Flags&protocol.ChatMod != 0:
		m.Tag = "MOD"
	}
	id, err := protocol.ParseDisplayName(f.Sender)
	m.Sender = id.Name
	return m, err
}

// Label is the prefix shown before the text: "", "name" or "[TAG] name".
func (m ChatMessage) Label() string {
	if m.Server {
		return ""
	}
	if m.Tag != "" {
		return "[" + m.Tag + "] " + m.Sender
	}
	return m.Sender
}

// String renders the message as one line.
func (m ChatMessage) String() string {
	if l := m.Label(); l != "" {
		return l + ": " + m.Text
	}
	return m.Text
}

// Chat is the capped message history plus its visibility timer.
type Chat struct {
	cfg          ChatConfig
	msgs         []ChatMessage
	lastAt       time.Time
	visibleUntil time.Time
}

// NewChat creates an empty history.
func NewChat(cfg ChatConfig) *Chat {
	if cfg.Capacity <= 0 {
		cfg.Capacity = DefaultChatConfig().Capacity
	}
	return &Chat{cfg: cfg}
}

// Lifetime is how long a message of the given text keeps chat visible.
func (c *Chat) Lifetime(text string) time.Duration {
	d := time.Duration(len([]rune(text))) * c.cfg.PerChar
	if d < c.cfg.MinLifetime {
		d = c.cfg.MinLifetime
	}
	return d
}

// Add appends m, evicting the oldest message when full, and updates the
// visibility timer.
func (c *Chat) Add(m ChatMessage, now time.Time) {
	if len(c.msgs) == c.cfg.Capacity {
		copy(c.msgs, c.msgs[1:])
		c.msgs = c.msgs[:len(c.msgs)-1]
	}
	c.msgs = append(c.msgs, m)

	life := c.Lifetime(m.Text)
	if !c.lastAt.IsZero() && now.Sub(c.lastAt) <= c.cfg.ExtendWindow && c.visibleUntil.After(now) {
		c.visibleUntil = c.visibleUntil.Add(life)
	} else {
		c.visibleUntil = now.Add(life)
	}
	c.lastAt = now
}

// Messages returns a copy of the history, oldest first.
func (c *Chat) Messages() []ChatMessage {
	out := make([]ChatMessage, len(c.msgs))
	copy(out, c.msgs)
	return out
}

// Len returns the number of stored messages.
func (c *Chat) Len() int { return len(c.msgs) }

// Visible reports whether the chat should be shown at now.
func (c *Chat) Visible(now time.Time) bool { return now.Before(c.visibleUntil) }

// VisibleUntil returns when the visibility timer runs out.
func (c *Chat) VisibleUntil() time.Time { return c.visibleUntil }
