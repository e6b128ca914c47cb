package protocol

import (
	"encoding/json"
	"fmt"
)

// EncodeFrame serializes an inbound frame variant back into its wire form.
// It is the inverse of Decode and is used by recordings, replays and
// loopback servers.
func EncodeFrame(f Frame) ([]byte, error) {
	w := NewWriter(Order)
	w.WriteUint8(uint8(f.Opcode()))

	switch v := f.(type) {
	case *Update:
		w.WriteUint16(uint16(len(v.Kills)))
		for _, k := range v.Kills {
			w.WriteUint32(k.Killer)
			w.WriteUint32(k.Killed)
		}
		for i := range v.Cells {
			c := &v.Cells[i]
			if c.ID == 0 {
				return nil, fmt.Errorf("protocol: cell id 0 is reserved")
			}
			w.WriteUint32(c.ID)
			w.WriteInt32(c.X)
			w.WriteInt32(c.Y)
			w.WriteUint16(c.Size)
			w.WriteUint8(c.Flags)
			if c.HasColor() {
				writeColor(w, c.Color)
			}
			if c.HasSkin() {
				if err := w.WriteString(c.Skin); err != nil {
					return nil, err
				}
			}
			if c.HasName() {
				if err := w.WriteString(c.Name); err != nil {
					return nil, err
				}
			}
		}
		w.WriteUint32(0)
		w.WriteUint16(uint16(len(v.Removed)))
		for _, id := range v.Removed {
			w.WriteUint32(id)
		}

	case *CameraPush:
		w.WriteFloat32(v.X)
		w.WriteFloat32(v.Y)
		w.WriteFloat32(v.Zoom)

	case ClearAll, ClearMine:

	case *DrawLine:
		w.WriteBytes(v.Payload)

	case *OwnCell:
		w.WriteUint32(v.ID)

	case *LeaderboardText:
		w.WriteUint32(uint32(len(v.Lines)))
		for _, l := range v.Lines {
			if err := w.WriteString(l); err != nil {
				return nil, err
			}
		}

	case *LeaderboardRanked:
		w.WriteUint32(uint32(len(v.Entries)))
		for _, e := range v.Entries {
			if e.Self {
				w.WriteUint32(1)
			} else {
				w.WriteUint32(0)
			}
			if err := w.WriteString(e.Name); err != nil {
				return nil, err
			}
		}

	case *LeaderboardTeam:
		w.WriteUint32(uint32(len(v.Fractions)))
		for _, f := range v.Fractions {
			w.WriteFloat32(f)
		}

	case *Border:
		w.WriteFloat64(v.Left)
		w.WriteFloat64(v.Top)
		w.WriteFloat64(v.Right)
		w.WriteFloat64(v.Bottom)
		if v.Extended {
			w.WriteUint32(v.GameMode)
			if err := w.WriteString(v.ServerName); err != nil {
				return nil, err
			}
		}

	case *IdentityEcho:
		s := v.Raw
		if s == "" {
			var err error
			if s, err = FormatIdentity(v.Identity); err != nil {
				return nil, err
			}
		}
		if err := w.WriteString(s); err != nil {
			return nil, err
		}

	case *Minimap:
		w.WriteUint16(uint16(len(v.Entries)))
		for _, e := range v.Entries {
			w.WriteUint32(e.ID)
			w.WriteFloat32(e.X)
			w.WriteFloat32(e.Y)
			if e.Self {
				w.WriteUint8(1)
			} else {
				w.WriteUint8(0)
			}
			writeColor(w, e.Color)
			if err := w.WriteString(e.Name); err != nil {
				return nil, err
			}
		}

	case *Chat:
		w.WriteUint8(v.Flags)
		writeColor(w, v.Color)
		if err := w.WriteString(v.Sender); err != nil {
			return nil, err
		}
		if err := w.WriteString(v.Message); err != nil {
			return nil, err
		}

	case *Stats:
		raw := v.Raw
		if len(raw) == 0 {
			var err error
			if raw, err = json.Marshal(v.Stats); err != nil {
				return nil, err
			}
		}
		if err := w.WriteString(string(raw)); err != nil {
			return nil, err
		}

	default:
		return nil, fmt.Errorf("protocol: cannot encode %T", f)
	}
	return w.Build(), nil
}

func writeColor(w *Writer, c Color) {
	w.WriteUint8(c.R)
	w.WriteUint8(c.G)
	w.WriteUint8(c.B)
}
