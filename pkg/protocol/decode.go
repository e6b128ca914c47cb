package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
)

// ErrTrailingBytes is returned when a frame decodes cleanly but leaves
// unread bytes behind, which means the payload shape did not match.
var ErrTrailingBytes = errors.New("protocol: trailing bytes after frame")

// Decode decodes one complete inbound message. Each message carries exactly
// one frame; there is no resynchronization, so any error means the rest of
// the stream cannot be trusted.
func Decode(msg []byte) (Frame, error) {
	if len(msg) == 0 {
		return nil, ErrEmptyMessage
	}
	op := Opcode(msg[0])
	r := NewReader(msg, 1, Order)

	f, err := decodeBody(op, r)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", op, err)
	}
	if !r.EOF() {
		return nil, fmt.Errorf("decode %s: %w (%d left)", op, ErrTrailingBytes, r.Remaining())
	}
	return f, nil
}

func decodeBody(op Opcode, r *Reader) (Frame, error) {
	switch op {
	case OpUpdate:
		return decodeUpdate(r)
	case OpCameraPush:
		return decodeCameraPush(r)
	case OpClearAll:
		return ClearAll{}, nil
	case OpClearMine:
		return ClearMine{}, nil
	case OpDrawLine:
		payload := make([]byte, r.Remaining())
		copy(payload, r.buf[r.pos:])
		r.pos = len(r.buf)
		return &DrawLine{Payload: payload}, nil
	case OpOwnCell:
		id, err := r.ReadUint32()
		if err != nil {
			return nil, err
		}
		return &OwnCell{ID: id}, nil
	case OpLeaderboardText:
		return decodeLeaderboardText(r)
	case OpLeaderboardRanked:
		return decodeLeaderboardRanked(r)
	case OpLeaderboardTeam:
		return decodeLeaderboardTeam(r)
	case OpBorder:
		return decodeBorder(r)
	case OpIdentityEcho:
		return decodeIdentityEcho(r)
	case OpMinimap:
		return decodeMinimap(r)
	case OpChat:
		return decodeChat(r)
	case OpServerStats:
		return decodeStats(r)
	default:
		return nil, ErrUnknownOpcode
	}
}

func decodeUpdate(r *Reader) (*Update, error) {
	u := &Update{}

	n, err := r.ReadCount16(8)
	if err != nil {
		return nil, err
	}
	if n > 0 {
		u.Kills = make([]Kill, n)
	}
	for i := range u.Kills {
		if u.Kills[i].Killer, err = r.ReadUint32(); err != nil {
			return nil, err
		}
		if u.Kills[i].Killed, err = r.ReadUint32(); err != nil {
			return nil, err
		}
	}

	for {
		id, err := r.ReadUint32()
		if err != nil {
			return nil, err
		}
		if id == 0 {
			break
		}
		if len(u.Cells) >= MaxCollectionCount {
			return nil, ErrCollectionTooLarge
		}
		rec := CellRecord{ID: id}
		if rec.X, err = r.ReadInt32(); err != nil {
			return nil, err
		}
		if rec.Y, err = r.ReadInt32(); err != nil {
			return nil, err
		}
		if rec.Size, err = r.ReadUint16(); err != nil {
			return nil, err
		}
		if rec.Flags, err = r.ReadUint8(); err != nil {
			return nil, err
		}
		if rec.HasColor() {
			if rec.Color, err = readColor(r); err != nil {
				return nil, err
			}
		}
		if rec.HasSkin() {
			if rec.Skin, err = r.ReadString(); err != nil {
				return nil, err
			}
		}
		if rec.HasName() {
			if rec.Name, err = r.ReadString(); err != nil {
				return nil, err
			}
		}
		u.Cells = append(u.Cells, rec)
	}

	n, err = r.ReadCount16(4)
	if err != nil {
		return nil, err
	}
	if n > 0 {
		u.Removed = make([]uint32, n)
	}
	for i := range u.Removed {
		if u.Removed[i], err = r.ReadUint32(); err != nil {
			return nil, err
		}
	}
	return u, nil
}

func readColor(r *Reader) (Color, error) {
	b, err := r.take(3)
	if err != nil {
		return Color{}, err
	}
	return Color{R: b[0], G: b[1], B: b[2]}, nil
}

func decodeCameraPush(r *Reader) (*CameraPush, error) {
	var c CameraPush
	var err error
	if c.X, err = r.ReadFloat32(); err != nil {
		return nil, err
	}
	if c.Y, err = r.ReadFloat32(); err != nil {
		return nil, err
	}
	if c.Zoom, err = r.ReadFloat32(); err != nil {
		return nil, err
	}
	return &c, nil
}

func decodeLeaderboardText(r *Reader) (*LeaderboardText, error) {
	n, err := r.ReadCount32(1)
	if err != nil {
		return nil, err
	}
	lb := &LeaderboardText{Lines: make([]string, n)}
	for i := range lb.Lines {
		if lb.Lines[i], err = r.ReadString(); err != nil {
			return nil, err
		}
	}
	return lb, nil
}

func decodeLeaderboardRanked(r *Reader) (*LeaderboardRanked, error) {
	n, err := r.ReadCount32(5)
	if err != nil {
		return nil, err
	}
	lb := &LeaderboardRanked{Entries: make([]RankedEntry, n)}
	for i := range lb.Entries {
		self, err := r.ReadUint32()
		if err != nil {
			return nil, err
		}
		lb.Entries[i].Self = self != 0
		if lb.Entries[i].Name, err = r.ReadString(); err != nil {
			return nil, err
		}
	}
	return lb, nil
}

func decodeLeaderboardTeam(r *Reader) (*LeaderboardTeam, error) {
	n, err := r.ReadCount32(4)
	if err != nil {
		return nil, err
	}
	lb := &LeaderboardTeam{Fractions: make([]float32, n)}
	for i := range lb.Fractions {
		if lb.Fractions[i], err = r.ReadFloat32(); err != nil {
			return nil, err
		}
	}
	return lb, nil
}

func decodeBorder(r *Reader) (*Border, error) {
	var b Border
	var err error
	for _, dst := range []*float64{&b.Left, &b.Top, &b.Right, &b.Bottom} {
		if *dst, err = r.ReadFloat64(); err != nil {
			return nil, err
		}
		if math.IsNaN(*dst) || math.IsInf(*dst, 0) {
			return nil, fmt.Errorf("protocol: border value %v is not finite", *dst)
		}
	}
	if r.EOF() {
		return &b, nil
	}
	b.Extended = true
	if b.GameMode, err = r.ReadUint32(); err != nil {
		return nil, err
	}
	if b.ServerName, err = r.ReadString(); err != nil {
		return nil, err
	}
	return &b, nil
}

func decodeIdentityEcho(r *Reader) (*IdentityEcho, error) {
	raw, err := r.ReadString()
	if err != nil {
		return nil, err
	}
	id, err := ParseIdentity(raw)
	if err != nil {
		return nil, err
	}
	return &IdentityEcho{Raw: raw, Identity: id}, nil
}

func decodeMinimap(r *Reader) (*Minimap, error) {
	n, err := r.ReadCount16(17)
	if err != nil {
		return nil, err
	}
	m := &Minimap{Entries: make([]MinimapEntry, n)}
	for i := range m.Entries {
		e := &m.Entries[i]
		if e.ID, err = r.ReadUint32(); err != nil {
			return nil, err
		}
		if e.X, err = r.ReadFloat32(); err != nil {
			return nil, err
		}
		if e.Y, err = r.ReadFloat32(); err != nil {
			return nil, err
		}
		self, err := r.ReadUint8()
		if err != nil {
			return nil, err
		}
		e.Self = self != 0
		if e.Color, err = readColor(r); err != nil {
			return nil, err
		}
		if e.Name, err = r.ReadString(); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func decodeChat(r *Reader) (*Chat, error) {
	var c Chat
	var err error
	if c.Flags, err = r.ReadUint8(); err != nil {
		return nil, err
	}
	if c.Color, err = readColor(r); err != nil {
		return nil, err
	}
	if c.Sender, err = r.ReadString(); err != nil {
		return nil, err
	}
	if c.Message, err = r.ReadString(); err != nil {
		return nil, err
	}
	return &c, nil
}

func decodeStats(r *Reader) (*Stats, error) {
	raw, err := r.ReadString()
	if err != nil {
		return nil, err
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &fields); err != nil {
		return nil, fmt.Errorf("protocol: status payload: %w", err)
	}
	s := &Stats{Raw: json.RawMessage(raw)}
	// Servers disagree on field types; a mistyped field is left at zero.
	pick := func(key string, dst any) {
		if v, ok := fields[key]; ok {
			_ = json.Unmarshal(v, dst)
		}
	}
	pick("name", &s.Stats.Name)
	pick("mode", &s.Stats.Mode)
	pick("uptime", &s.Stats.Uptime)
	pick("update", &s.Stats.Update)
	pick("playersTotal", &s.Stats.PlayersTotal)
	pick("playersAlive", &s.Stats.PlayersAlive)
	pick("playersSpect", &s.Stats.PlayersSpect)
	pick("playersLimit", &s.Stats.PlayersLimit)
	return s, nil
}
