package world

import "github.com/vango-dev/cellclient/pkg/protocol"

// Border is the map rectangle with its derived dimensions.
type Border struct {
	Left, Top, Right, Bottom float64

	Width, Height    float64
	CenterX, CenterY float64

	// Set is false until the first border frame.
	Set bool

	// Extended fields, present only on the long form.
	Extended   bool
	GameMode   uint32
	ServerName string
}

// Apply replaces the rectangle from a border frame and recomputes the
// derived values. It reports whether this is the first extended border
// seen since the last Reset.
func (b *Border) Apply(f *protocol.Border) (firstExtended bool) {
	firstExtended = f.Extended && !b.Extended
	b.Left, b.Top, b.Right, b.Bottom = f.Left, f.Top, f.Right, f.Bottom
	b.Width = f.Right - f.Left
	b.Height = f.Bottom - f.Top
	b.CenterX = (f.Left + f.Right) / 2
	b.CenterY = (f.Top + f.Bottom) / 2
	b.Set = true
	if f.Extended {
		b.Extended = true
		b.GameMode = f.GameMode
		b.ServerName = f.ServerName
	}
	return firstExtended
}

// Contains reports whether (x, y) lies inside the rectangle.
func (b *Border) Contains(x, y float64) bool {
	return b.Set && x >= b.Left && x <= b.Right && y >= b.Top && y <= b.Bottom
}

// Reset forgets the border.
func (b *Border) Reset() {
	*b = Border{}
}
