package protocol

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"math"
	"strings"
	"unicode/utf8"
)

// MaxCollectionCount bounds every count prefix read from the wire so a
// corrupt count cannot force a huge allocation.
const MaxCollectionCount = 100_000

// Common decoding errors. Reads past the end of the buffer return
// io.ErrUnexpectedEOF.
var (
	ErrEmbeddedZero       = errors.New("protocol: string contains a zero byte")
	ErrCollectionTooLarge = errors.New("protocol: collection count exceeds limit")
	ErrUnknownOpcode      = errors.New("protocol: unknown opcode")
	ErrEmptyMessage       = errors.New("protocol: empty message")
)

// Reader is a sequential binary deserializer over an existing buffer.
// Each read advances the cursor by the width of the value read.
type Reader struct {
	order binary.ByteOrder
	buf   []byte
	pos   int
}

// NewReader creates a reader over buf starting at offset.
func NewReader(buf []byte, offset int, order binary.ByteOrder) *Reader {
	if offset < 0 {
		offset = 0
	}
	if offset > len(buf) {
		offset = len(buf)
	}
	return &Reader{order: order, buf: buf, pos: offset}
}

// Offset returns the current cursor position.
func (r *Reader) Offset() int {
	return r.pos
}

// Remaining returns the number of unread bytes.
func (r *Reader) Remaining() int {
	return len(r.buf) - r.pos
}

// EOF reports whether every byte has been consumed.
func (r *Reader) EOF() bool {
	return r.pos >= len(r.buf)
}

// Skip advances the cursor by n bytes.
func (r *Reader) Skip(n int) error {
	if n < 0 || n > r.Remaining() {
		return io.ErrUnexpectedEOF
	}
	r.pos += n
	return nil
}

func (r *Reader) take(n int) ([]byte, error) {
	if n > r.Remaining() {
		return nil, io.ErrUnexpectedEOF
	}
	b := r.buf[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}

// ReadUint8 reads a single byte.
func (r *Reader) ReadUint8() (uint8, error) {
	if r.pos >= len(r.buf) {
		return 0, io.ErrUnexpectedEOF
	}
	b := r.buf[r.pos]
	r.pos++
	return b, nil
}

// ReadInt8 reads a signed byte.
func (r *Reader) ReadInt8() (int8, error) {
	v, err := r.ReadUint8()
	return int8(v), err
}

// ReadUint16 reads a uint16.
func (r *Reader) ReadUint16() (uint16, error) {
	b, err := r.take(2)
	if err != nil {
		return 0, err
	}
	return r.order.Uint16(b), nil
}

// ReadInt16 reads an int16.
func (r *Reader) ReadInt16() (int16, error) {
	v, err := r.ReadUint16()
	return int16(v), err
}

// ReadUint32 reads a uint32.
func (r *Reader) ReadUint32() (uint32, error) {
	b, err := r.take(4)
	if err != nil {
		return 0, err
	}
	return r.order.Uint32(b), nil
}

// ReadInt32 reads an int32.
func (r *Reader) ReadInt32() (int32, error) {
	v, err := r.ReadUint32()
	return int32(v), err
}

// ReadUint64 reads a uint64.
func (r *Reader) ReadUint64() (uint64, error) {
	b, err := r.take(8)
	if err != nil {
		return 0, err
	}
	return r.order.Uint64(b), nil
}

// ReadFloat32 reads an IEEE 754 float32.
func (r *Reader) ReadFloat32() (float32, error) {
	v, err := r.ReadUint32()
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(v), nil
}

// ReadFloat64 reads an IEEE 754 float64.
func (r *Reader) ReadFloat64() (float64, error) {
	b, err := r.take(8)
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(r.order.Uint64(b)), nil
}

// ReadString reads a zero-terminated UTF-8 string and leaves the cursor
// just past the terminator. Invalid UTF-8 sequences are replaced with
// U+FFFD. A missing terminator is an out-of-bounds read.
func (r *Reader) ReadString() (string, error) {
	end := bytes.IndexByte(r.buf[r.pos:], 0)
	if end < 0 {
		return "", io.ErrUnexpectedEOF
	}
	raw := r.buf[r.pos : r.pos+end]
	r.pos += end + 1
	if utf8.Valid(raw) {
		return string(raw), nil
	}
	return strings.ToValidUTF8(string(raw), "�"), nil
}

// ReadCount16 reads a uint16 count prefix and validates it against the
// remaining bytes, given the minimum encoded size of one item.
func (r *Reader) ReadCount16(minItem int) (int, error) {
	n, err := r.ReadUint16()
	if err != nil {
		return 0, err
	}
	return r.checkCount(uint64(n), minItem)
}

// ReadCount32 reads a uint32 count prefix and validates it like ReadCount16.
func (r *Reader) ReadCount32(minItem int) (int, error) {
	n, err := r.ReadUint32()
	if err != nil {
		return 0, err
	}
	return r.checkCount(uint64(n), minItem)
}

func (r *Reader) checkCount(n uint64, minItem int) (int, error) {
	if n > MaxCollectionCount {
		return 0, ErrCollectionTooLarge
	}
	if minItem < 1 {
		minItem = 1
	}
	if n*uint64(minItem) > uint64(r.Remaining()) {
		return 0, io.ErrUnexpectedEOF
	}
	return int(n), nil
}
