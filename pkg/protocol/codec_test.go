package protocol

import (
	"encoding/binary"
	"errors"
	"io"
	"math"
	"testing"
)

func TestWriterReader(t *testing.T) {
	w := NewWriter(binary.LittleEndian)

	w.WriteUint8(0x42)
	w.WriteInt8(-5)
	w.WriteUint16(0x1234)
	w.WriteInt16(-1234)
	w.WriteUint32(0x12345678)
	w.WriteInt32(-12345678)
	w.WriteFloat32(3.14159)
	w.WriteFloat64(2.718281828459045)
	if err := w.WriteString("hello world"); err != nil {
		t.Fatalf("WriteString() error: %v", err)
	}
	if err := w.WriteString(""); err != nil {
		t.Fatalf("WriteString(empty) error: %v", err)
	}

	r := NewReader(w.Build(), 0, binary.LittleEndian)

	if v, err := r.ReadUint8(); err != nil || v != 0x42 {
		t.Errorf("ReadUint8() = %x, %v; want 0x42, nil", v, err)
	}
	if v, err := r.ReadInt8(); err != nil || v != -5 {
		t.Errorf("ReadInt8() = %d, %v; want -5, nil", v, err)
	}
	if v, err := r.ReadUint16(); err != nil || v != 0x1234 {
		t.Errorf("ReadUint16() = %x, %v; want 0x1234, nil", v, err)
	}
	if v, err := r.ReadInt16(); err != nil || v != -1234 {
		t.Errorf("ReadInt16() = %d, %v; want -1234, nil", v, err)
	}
	if v, err := r.ReadUint32(); err != nil || v != 0x12345678 {
		t.Errorf("ReadUint32() = %x, %v; want 0x12345678, nil", v, err)
	}
	if v, err := r.ReadInt32(); err != nil || v != -12345678 {
		t.Errorf("ReadInt32() = %d, %v; want -12345678, nil", v, err)
	}
	if v, err := r.ReadFloat32(); err != nil || math.Abs(float64(v)-3.14159) > 0.00001 {
		t.Errorf("ReadFloat32() = %v, %v; want ~3.14159, nil", v, err)
	}
	if v, err := r.ReadFloat64(); err != nil || v != 2.718281828459045 {
		t.Errorf("ReadFloat64() = %v, %v; want 2.718281828459045, nil", v, err)
	}
	if v, err := r.ReadString(); err != nil || v != "hello world" {
		t.Errorf("ReadString() = %q, %v; want \"hello world\", nil", v, err)
	}
	if v, err := r.ReadString(); err != nil || v != "" {
		t.Errorf("ReadString() = %q, %v; want empty, nil", v, err)
	}

	if !r.EOF() {
		t.Errorf("expected EOF, %d bytes remaining", r.Remaining())
	}
}

func TestWriterByteOrder(t *testing.T) {
	le := NewWriter(binary.LittleEndian)
	le.WriteUint32(0x01020304)
	if got := le.Bytes(); got[0] != 0x04 || got[3] != 0x01 {
		t.Errorf("little-endian bytes = % x", got)
	}

	be := NewWriter(binary.BigEndian)
	be.WriteUint32(0x01020304)
	if got := be.Bytes(); got[0] != 0x01 || got[3] != 0x04 {
		t.Errorf("big-endian bytes = % x", got)
	}
}

func TestWriterBuildIsIndependent(t *testing.T) {
	w := NewWriter(Order)
	w.WriteUint8(1)
	built := w.Build()

	w.Reset()
	w.WriteUint8(2)

	if built[0] != 1 {
		t.Errorf("Build() result changed after Reset: %v", built)
	}
	if w.Len() != 1 {
		t.Errorf("Len() = %d after Reset+write, want 1", w.Len())
	}
}

func TestWriterRejectsEmbeddedZero(t *testing.T) {
	w := NewWriter(Order)
	if err := w.WriteString("a\x00b"); !errors.Is(err, ErrEmbeddedZero) {
		t.Fatalf("WriteString() = %v, want ErrEmbeddedZero", err)
	}
	if w.Len() != 0 {
		t.Errorf("rejected string left %d bytes in buffer", w.Len())
	}
}

func TestReaderOffset(t *testing.T) {
	r := NewReader([]byte{0xAA, 0x01, 0x00}, 1, Order)
	v, err := r.ReadUint16()
	if err != nil || v != 1 {
		t.Fatalf("ReadUint16() = %d, %v; want 1, nil", v, err)
	}
	if r.Offset() != 3 {
		t.Errorf("Offset() = %d, want 3", r.Offset())
	}
}

func TestReaderOutOfBounds(t *testing.T) {
	tests := []struct {
		name string
		read func(r *Reader) error
	}{
		{"uint8", func(r *Reader) error { _, err := r.ReadUint8(); return err }},
		{"uint16", func(r *Reader) error { _, err := r.ReadUint16(); return err }},
		{"uint32", func(r *Reader) error { _, err := r.ReadUint32(); return err }},
		{"float32", func(r *Reader) error { _, err := r.ReadFloat32(); return err }},
		{"float64", func(r *Reader) error { _, err := r.ReadFloat64(); return err }},
		{"string", func(r *Reader) error { _, err := r.ReadString(); return err }},
		{"skip", func(r *Reader) error { return r.Skip(1) }},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r := NewReader([]byte{}, 0, Order)
			if err := tc.read(r); err != io.ErrUnexpectedEOF {
				t.Errorf("read on empty = %v, want io.ErrUnexpectedEOF", err)
			}
		})
	}
}

func TestReaderUnterminatedString(t *testing.T) {
	r := NewReader([]byte("abc"), 0, Order)
	if _, err := r.ReadString(); err != io.ErrUnexpectedEOF {
		t.Fatalf("ReadString() = %v, want io.ErrUnexpectedEOF", err)
	}
	if r.Offset() != 0 {
		t.Errorf("failed read moved cursor to %d", r.Offset())
	}
}

func TestReaderInvalidUTF8(t *testing.T) {
	r := NewReader([]byte{'a', 0xff, 'b', 0}, 0, Order)
	s, err := r.ReadString()
	if err != nil {
		t.Fatalf("ReadString() error: %v", err)
	}
	if s != "a�b" {
		t.Errorf("ReadString() = %q, want %q", s, "a�b")
	}
}

func TestReaderCountLimits(t *testing.T) {
	w := NewWriter(Order)
	w.WriteUint32(MaxCollectionCount + 1)
	r := NewReader(w.Build(), 0, Order)
	if _, err := r.ReadCount32(1); !errors.Is(err, ErrCollectionTooLarge) {
		t.Errorf("ReadCount32() = %v, want ErrCollectionTooLarge", err)
	}

	w.Reset()
	w.WriteUint16(3)
	w.WriteUint32(1)
	r = NewReader(w.Build(), 0, Order)
	if _, err := r.ReadCount16(4); err != io.ErrUnexpectedEOF {
		t.Errorf("ReadCount16() = %v, want io.ErrUnexpectedEOF", err)
	}
}
