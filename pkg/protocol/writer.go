package protocol

import (
	"encoding/binary"
	"math"
	"strings"
)

// ByteOrder is satisfied by binary.LittleEndian and binary.BigEndian.
type ByteOrder interface {
	binary.ByteOrder
	binary.AppendByteOrder
}

// Order is the byte order of the game protocol.
var Order ByteOrder = binary.LittleEndian

// Writer is a sequential binary serializer that appends to an owned buffer.
// Every call to NewWriter gets its own buffer; nothing is shared between writers.
type Writer struct {
	order ByteOrder
	buf   []byte
}

// NewWriter creates a writer with the given byte order and a default capacity.
func NewWriter(order ByteOrder) *Writer {
	return NewWriterWithCap(order, 64)
}

// NewWriterWithCap creates a writer with the specified initial capacity.
func NewWriterWithCap(order ByteOrder, cap int) *Writer {
	return &Writer{
		order: order,
		buf:   make([]byte, 0, cap),
	}
}

// Reset empties the writer, reusing the underlying buffer.
func (w *Writer) Reset() {
	w.buf = w.buf[:0]
}

// Len returns the number of bytes written since construction or the last Reset.
func (w *Writer) Len() int {
	return len(w.buf)
}

// Bytes returns the written bytes. The slice is only valid until the next
// write or Reset; use Build for a copy that can be retained.
func (w *Writer) Bytes() []byte {
	return w.buf
}

// Build returns a copy of everything written since construction or the last Reset.
func (w *Writer) Build() []byte {
	out := make([]byte, len(w.buf))
	copy(out, w.buf)
	return out
}

// WriteUint8 appends a single byte.
func (w *Writer) WriteUint8(v uint8) {
	w.buf = append(w.buf, v)
}

// WriteInt8 appends a signed byte.
func (w *Writer) WriteInt8(v int8) {
	w.buf = append(w.buf, byte(v))
}

// WriteBytes appends raw bytes.
func (w *Writer) WriteBytes(b []byte) {
	w.buf = append(w.buf, b...)
}

// WriteUint16 appends a uint16.
func (w *Writer) WriteUint16(v uint16) {
	w.buf = w.order.AppendUint16(w.buf, v)
}

// WriteInt16 appends an int16.
func (w *Writer) WriteInt16(v int16) {
	w.WriteUint16(uint16(v))
}

// WriteUint32 appends a uint32.
func (w *Writer) WriteUint32(v uint32) {
	w.buf = w.order.AppendUint32(w.buf, v)
}

// WriteInt32 appends an int32.
func (w *Writer) WriteInt32(v int32) {
	w.WriteUint32(uint32(v))
}

// WriteUint64 appends a uint64.
func (w *Writer) WriteUint64(v uint64) {
	w.buf = w.order.AppendUint64(w.buf, v)
}

// WriteFloat32 appends an IEEE 754 float32.
func (w *Writer) WriteFloat32(v float32) {
	w.WriteUint32(math.Float32bits(v))
}

// WriteFloat64 appends an IEEE 754 float64.
func (w *Writer) WriteFloat64(v float64) {
	w.buf = w.order.AppendUint64(w.buf, math.Float64bits(v))
}

// WriteString appends s as raw UTF-8 followed by a single zero byte.
// Strings containing a zero byte would be truncated by the reader, so they
// are rejected with ErrEmbeddedZero and nothing is written.
func (w *Writer) WriteString(s string) error {
	if strings.IndexByte(s, 0) >= 0 {
		return ErrEmbeddedZero
	}
	w.buf = append(w.buf, s...)
	w.buf = append(w.buf, 0)
	return nil
}
