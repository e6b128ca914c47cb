package protocol

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidIdentity is returned when an identity string does not follow
// the identity grammar.
var ErrInvalidIdentity = errors.New("protocol: invalid identity")

// Identity is the name/skin/hat/color a player presents to the server.
//
// On the wire it is a single string:
//
//	identity := ["{" skin "}"] name ["$" hat] ["#" color]
//
// name, skin and hat are text where a backslash escapes any of \ { } $ #.
// color is 3 or 6 hex digits; it is always stored as lowercase 6-hex.
type Identity struct {
	Name  string `json:"name"`
	Skin  string `json:"skin,omitempty"`
	Hat   string `json:"hat,omitempty"`
	Color string `json:"color,omitempty"`
}

const identitySpecials = `\{}$#`

func escapeField(s string) string {
	if !strings.ContainsAny(s, identitySpecials) {
		return s
	}
	var b strings.Builder
	b.Grow(len(s) + 4)
	for i := 0; i < len(s); i++ {
		if strings.IndexByte(identitySpecials, s[i]) >= 0 {
			b.WriteByte('\\')
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

// FormatIdentity encodes id as an identity string.
func FormatIdentity(id Identity) (string, error) {
	for _, f := range []string{id.Name, id.Skin, id.Hat} {
		if err := checkText(f); err != nil {
			return "", err
		}
	}
	var b strings.Builder
	if id.Skin != "" {
		b.WriteByte('{')
		b.WriteString(escapeField(id.Skin))
		b.WriteByte('}')
	}
	b.WriteString(escapeField(id.Name))
	if id.Hat != "" {
		b.WriteByte('$')
		b.WriteString(escapeField(id.Hat))
	}
	if id.Color != "" {
		c, err := NormalizeColor(id.Color)
		if err != nil {
			return "", err
		}
		b.WriteByte('#')
		b.WriteString(c)
	}
	return b.String(), nil
}

func checkText(s string) error {
	for _, r := range s {
		switch {
		case r == 0:
			return ErrEmbeddedZero
		case r < 0x20 || r == 0x7f:
			return fmt.Errorf("%w: control character %U", ErrInvalidIdentity, r)
		}
	}
	return nil
}

// ParseIdentity decodes an identity string strictly.
func ParseIdentity(s string) (Identity, error) {
	if err := checkText(s); err != nil {
		return Identity{}, err
	}
	var id Identity
	p := identityParser{s: s}

	if p.peek() == '{' {
		p.pos++
		skin, stop, err := p.field("}")
		if err != nil {
			return Identity{}, err
		}
		if stop != '}' {
			return Identity{}, fmt.Errorf("%w: unterminated skin", ErrInvalidIdentity)
		}
		p.pos++
		id.Skin = skin
	}

	name, stop, err := p.field("$#{}")
	if err != nil {
		return Identity{}, err
	}
	if stop == '{' || stop == '}' {
		return Identity{}, fmt.Errorf("%w: unexpected %q in name", ErrInvalidIdentity, stop)
	}
	id.Name = name

	if stop == '$' {
		p.pos++
		hat, hstop, err := p.field("#${}")
		if err != nil {
			return Identity{}, err
		}
		if hstop != 0 && hstop != '#' {
			return Identity{}, fmt.Errorf("%w: unexpected %q in hat", ErrInvalidIdentity, hstop)
		}
		id.Hat = hat
		stop = hstop
	}

	if stop == '#' {
		p.pos++
		c, err := normalizeHex(s[p.pos:])
		if err != nil {
			return Identity{}, err
		}
		id.Color = c
	}
	return id, nil
}

// ParseDisplayName parses a server-supplied name leniently: when the
// string is not a valid identity a leading well-formed skin tag is still
// split off, the rest becomes the name verbatim, and the grammar error is
// returned alongside it.
func ParseDisplayName(s string) (Identity, error) {
	id, err := ParseIdentity(s)
	if err == nil {
		return id, nil
	}
	fallback := Identity{Name: s}
	if checkText(s) == nil && strings.HasPrefix(s, "{") {
		p := identityParser{s: s, pos: 1}
		if skin, stop, serr := p.field("}"); serr == nil && stop == '}' {
			fallback.Skin = skin
			fallback.Name = s[p.pos+1:]
		}
	}
	return fallback, err
}

type identityParser struct {
	s   string
	pos int
}

func (p *identityParser) peek() byte {
	if p.pos >= len(p.s) {
		return 0
	}
	return p.s[p.pos]
}

// field reads escaped text up to the first unescaped byte in stops, which
// is returned without being consumed. stop is 0 at end of input.
func (p *identityParser) field(stops string) (string, byte, error) {
	var b strings.Builder
	for p.pos < len(p.s) {
		c := p.s[p.pos]
		if c == '\\' {
			if p.pos+1 >= len(p.s) {
				return "", 0, fmt.Errorf("%w: dangling escape", ErrInvalidIdentity)
			}
			next := p.s[p.pos+1]
			if strings.IndexByte(identitySpecials, next) < 0 {
				return "", 0, fmt.Errorf("%w: invalid escape \\%c", ErrInvalidIdentity, next)
			}
			b.WriteByte(next)
			p.pos += 2
			continue
		}
		if strings.IndexByte(stops, c) >= 0 {
			return b.String(), c, nil
		}
		b.WriteByte(c)
		p.pos++
	}
	return b.String(), 0, nil
}

// NormalizeColor accepts "rgb", "rrggbb", "#rgb" or "#rrggbb" in any case
// and returns lowercase "rrggbb".
func NormalizeColor(s string) (string, error) {
	return normalizeHex(strings.TrimPrefix(s, "#"))
}

func normalizeHex(s string) (string, error) {
	for i := 0; i < len(s); i++ {
		if !isHex(s[i]) {
			return "", fmt.Errorf("%w: color %q is not hex", ErrInvalidIdentity, s)
		}
	}
	s = strings.ToLower(s)
	switch len(s) {
	case 6:
		return s, nil
	case 3:
		return string([]byte{s[0], s[0], s[1], s[1], s[2], s[2]}), nil
	default:
		return "", fmt.Errorf("%w: color %q must have 3 or 6 digits", ErrInvalidIdentity, s)
	}
}

func isHex(c byte) bool {
	return ('0' <= c && c <= '9') || ('a' <= c && c <= 'f') || ('A' <= c && c <= 'F')
}

// ParseColor converts a normalized or raw hex color to RGB.
func ParseColor(s string) (Color, error) {
	n, err := NormalizeColor(s)
	if err != nil {
		return Color{}, err
	}
	return Color{R: hexByte(n[0:2]), G: hexByte(n[2:4]), B: hexByte(n[4:6])}, nil
}

func hexByte(s string) uint8 {
	return hexNibble(s[0])<<4 | hexNibble(s[1])
}

func hexNibble(c byte) uint8 {
	switch {
	case c >= 'a':
		return c - 'a' + 10
	case c >= 'A':
		return c - 'A' + 10
	default:
		return c - '0'
	}
}

// Color is an RGB triple as carried on the wire.
type Color struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
}

// Hex returns the color as lowercase "rrggbb".
func (c Color) Hex() string {
	return fmt.Sprintf("%02x%02x%02x", c.R, c.G, c.B)
}
