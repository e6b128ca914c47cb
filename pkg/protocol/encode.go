package protocol

import (
	"fmt"
	"math"
)

// Handshake protocol constants sent on every successful open.
const (
	HandshakeVersion uint32 = 6
	HandshakeKey     uint32 = 1
)

// EncodeHandshake returns the two fixed frames sent right after a
// connection opens.
func EncodeHandshake() [][]byte {
	version := NewWriterWithCap(Order, 5)
	version.WriteUint8(uint8(OutStatRequest))
	version.WriteUint32(HandshakeVersion)

	key := NewWriterWithCap(Order, 5)
	key.WriteUint8(uint8(OutHandshakeKey))
	key.WriteUint32(HandshakeKey)

	return [][]byte{version.Build(), key.Build()}
}

func encodeIdentity(op Opcode, id Identity) ([]byte, error) {
	s, err := FormatIdentity(id)
	if err != nil {
		return nil, err
	}
	w := NewWriterWithCap(Order, len(s)+2)
	w.WriteUint8(uint8(op))
	if err := w.WriteString(s); err != nil {
		return nil, err
	}
	return w.Build(), nil
}

// EncodeSpawn encodes a spawn request carrying the player identity (0x00).
func EncodeSpawn(id Identity) ([]byte, error) {
	return encodeIdentity(OutSpawn, id)
}

// EncodeIdentityUpdate encodes a mid-session identity update (0x46).
func EncodeIdentityUpdate(id Identity) ([]byte, error) {
	return encodeIdentity(OutIdentity, id)
}

// EncodeMouse encodes the world-space mouse target (0x10).
func EncodeMouse(x, y int32) []byte {
	w := NewWriterWithCap(Order, 13)
	w.WriteUint8(uint8(OutMouse))
	w.WriteInt32(x)
	w.WriteInt32(y)
	w.WriteUint32(0)
	return w.Build()
}

// EncodeAction encodes a single-byte action frame.
func EncodeAction(a Action) ([]byte, error) {
	op, ok := a.Opcode()
	if !ok {
		return nil, fmt.Errorf("protocol: unknown action %d", a)
	}
	return []byte{byte(op)}, nil
}

// EncodeTeleportFollow starts or stops following target (0x44).
func EncodeTeleportFollow(target uint32, start bool) []byte {
	w := NewWriterWithCap(Order, 6)
	w.WriteUint8(uint8(OutTeleportFollow))
	w.WriteUint32(target)
	if start {
		w.WriteUint8(1)
	} else {
		w.WriteUint8(0)
	}
	return w.Build()
}

// EncodeForceSplit asks the server to split target (0x47).
func EncodeForceSplit(target uint32) []byte {
	w := NewWriterWithCap(Order, 5)
	w.WriteUint8(uint8(OutForceSplit))
	w.WriteUint32(target)
	return w.Build()
}

// EncodeDirectionLock locks movement along (dx, dy); the zero vector
// clears the lock (0x60).
func EncodeDirectionLock(dx, dy float64) ([]byte, error) {
	if !finite(dx) || !finite(dy) {
		return nil, fmt.Errorf("protocol: direction (%v, %v) is not finite", dx, dy)
	}
	w := NewWriterWithCap(Order, 17)
	w.WriteUint8(uint8(OutDirectionLock))
	w.WriteFloat64(dx)
	w.WriteFloat64(dy)
	return w.Build(), nil
}

// EncodeBurst asks the server to repeat a move along (dx, dy) count times (0x61).
func EncodeBurst(dx, dy float64, count uint8) ([]byte, error) {
	if !finite(dx) || !finite(dy) {
		return nil, fmt.Errorf("protocol: direction (%v, %v) is not finite", dx, dy)
	}
	w := NewWriterWithCap(Order, 18)
	w.WriteUint8(uint8(OutBurst))
	w.WriteFloat64(dx)
	w.WriteFloat64(dy)
	w.WriteUint8(count)
	return w.Build(), nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
