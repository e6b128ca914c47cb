package protocol

import (
	"testing"
)

func mustEncode(f *testing.F, fr Frame) []byte {
	data, err := EncodeFrame(fr)
	if err != nil {
		f.Fatalf("EncodeFrame() error: %v", err)
	}
	return data
}

// FuzzDecode tests that decoding arbitrary bytes doesn't panic and that
// every accepted message survives a re-encode.
func FuzzDecode(f *testing.F) {
	f.Add(mustEncode(f, &Update{
		Kills:   []Kill{{Killer: 1, Killed: 2}},
		Cells:   []CellRecord{{ID: 1, X: 3, Y: 4, Size: 50, Flags: CellHasName | CellHasSkin, Name: "a", Skin: "b"}},
		Removed: []uint32{7},
	}))
	f.Add(mustEncode(f, &Border{Right: 10, Bottom: 10, Extended: true, ServerName: "Ogar"}))
	f.Add(mustEncode(f, &Chat{Sender: "s", Message: "m"}))
	f.Add(mustEncode(f, &LeaderboardTeam{Fractions: []float32{1}}))
	f.Add([]byte{byte(OpServerStats), '{', '}', 0})
	f.Add([]byte{0x10, 0xFF, 0xFF, 0xFF, 0x7F})

	f.Fuzz(func(t *testing.T, data []byte) {
		fr, err := Decode(data)
		if err != nil {
			return
		}
		again, err := EncodeFrame(fr)
		if err != nil {
			t.Fatalf("EncodeFrame(Decode(%x)) error: %v", data, err)
		}
		fr2, err := Decode(again)
		if err != nil {
			t.Fatalf("Decode(%x) of a re-encoded frame: %v", again, err)
		}
		if fr2.Opcode() != fr.Opcode() {
			t.Fatalf("opcode changed from %v to %v", fr.Opcode(), fr2.Opcode())
		}
	})
}

// FuzzParseIdentity tests that every identity accepted by ParseIdentity
// formats back to an equivalent identity.
func FuzzParseIdentity(f *testing.F) {
	f.Add("{doge}bob$crown#f80")
	f.Add(`a\#b`)
	f.Add("{unterminated")
	f.Add("")

	f.Fuzz(func(t *testing.T, s string) {
		id, err := ParseIdentity(s)
		if err != nil {
			return
		}
		out, err := FormatIdentity(id)
		if err != nil {
			t.Fatalf("FormatIdentity(%+v) error: %v", id, err)
		}
		back, err := ParseIdentity(out)
		if err != nil || back != id {
			t.Fatalf("ParseIdentity(%q) = %+v, %v; want %+v", out, back, err, id)
		}
	})
}

func BenchmarkDecodeUpdate(b *testing.B) {
	u := &Update{}
	for i := 0; i < 200; i++ {
		u.Cells = append(u.Cells, CellRecord{ID: uint32(i + 1), X: int32(i), Y: int32(-i), Size: 40, Flags: CellHasName, Name: "cell"})
	}
	data, err := EncodeFrame(u)
	if err != nil {
		b.Fatal(err)
	}
	b.SetBytes(int64(len(data)))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := Decode(data); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkEncodeMouse(b *testing.B) {
	for i := 0; i < b.N; i++ {
		EncodeMouse(int32(i), int32(-i))
	}
}
