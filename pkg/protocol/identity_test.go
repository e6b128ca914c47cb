package protocol

import (
	"errors"
	"testing"
)

func TestIdentityRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		in   Identity
		want Identity
	}{
		{"name only", Identity{Name: "bob"}, Identity{Name: "bob"}},
		{"all parts", Identity{Name: "bob", Skin: "doge", Hat: "crown", Color: "FF8800"}, Identity{Name: "bob", Skin: "doge", Hat: "crown", Color: "ff8800"}},
		{"short color", Identity{Name: "x", Color: "#AbC"}, Identity{Name: "x", Color: "aabbcc"}},
		{"empty name with skin", Identity{Skin: "s"}, Identity{Skin: "s"}},
		{"reserved characters", Identity{Name: `a{b}c$d#e\f`, Skin: "}{", Hat: "$#"}, Identity{Name: `a{b}c$d#e\f`, Skin: "}{", Hat: "$#"}},
		{"spaces and punctuation", Identity{Name: " ~!@%^&*()_+ ", Hat: "-"}, Identity{Name: " ~!@%^&*()_+ ", Hat: "-"}},
		{"utf8", Identity{Name: "Ωmega ☃"}, Identity{Name: "Ωmega ☃"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s, err := FormatIdentity(tc.in)
			if err != nil {
				t.Fatalf("FormatIdentity() error: %v", err)
			}
			got, err := ParseIdentity(s)
			if err != nil {
				t.Fatalf("ParseIdentity(%q) error: %v", s, err)
			}
			if got != tc.want {
				t.Errorf("ParseIdentity(%q) = %+v, want %+v", s, got, tc.want)
			}
		})
	}
}

func TestIdentityRoundTripPrintableASCII(t *testing.T) {
	var all []byte
	for c := byte(0x20); c < 0x7f; c++ {
		all = append(all, c)
	}
	for i := 0; i < len(all); i++ {
		in := Identity{
			Name: string(all[i:]),
			Skin: string(all[:i]),
			Hat:  string(all[len(all)-1-i:]),
		}
		s, err := FormatIdentity(in)
		if err != nil {
			t.Fatalf("FormatIdentity(%+v) error: %v", in, err)
		}
		got, err := ParseIdentity(s)
		if err != nil {
			t.Fatalf("ParseIdentity(%q) error: %v", s, err)
		}
		if got != in {
			t.Fatalf("round trip %+v -> %q -> %+v", in, s, got)
		}
	}
}

func TestParseIdentityErrors(t *testing.T) {
	tests := []struct {
		in   string
		want error
	}{
		{"{skin", ErrInvalidIdentity},
		{"name}", ErrInvalidIdentity},
		{"na{me", ErrInvalidIdentity},
		{`dangling\`, ErrInvalidIdentity},
		{`bad\escape`, ErrInvalidIdentity},
		{"name#12", ErrInvalidIdentity},
		{"bob##fff", ErrInvalidIdentity},
		{"name#zzzzzz", ErrInvalidIdentity},
		{"name$hat$again", ErrInvalidIdentity},
		{"tab\there", ErrInvalidIdentity},
		{"zero\x00byte", ErrEmbeddedZero},
	}

	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			if _, err := ParseIdentity(tc.in); !errors.Is(err, tc.want) {
				t.Errorf("ParseIdentity(%q) = %v, want %v", tc.in, err, tc.want)
			}
		})
	}
}

func TestFormatIdentityRejectsZeroByte(t *testing.T) {
	if _, err := FormatIdentity(Identity{Name: "a\x00"}); !errors.Is(err, ErrEmbeddedZero) {
		t.Errorf("FormatIdentity() = %v, want ErrEmbeddedZero", err)
	}
	if _, err := FormatIdentity(Identity{Name: "a", Color: "red"}); !errors.Is(err, ErrInvalidIdentity) {
		t.Errorf("FormatIdentity(bad color) = %v, want ErrInvalidIdentity", err)
	}
}

func TestParseDisplayName(t *testing.T) {
	id, err := ParseDisplayName("{doge}Player#00ff00")
	if err != nil {
		t.Fatalf("ParseDisplayName() error: %v", err)
	}
	if id.Name != "Player" || id.Skin != "doge" || id.Color != "00ff00" {
		t.Errorf("ParseDisplayName() = %+v", id)
	}

	id, err = ParseDisplayName("#1 in the world")
	if err == nil {
		t.Fatal("expected grammar error for non-hex suffix")
	}
	if id.Name != "#1 in the world" {
		t.Errorf("fallback name = %q", id.Name)
	}

	id, err = ParseDisplayName("{doge}Bob#12")
	if err == nil {
		t.Fatal("expected grammar error for short color")
	}
	if id.Skin != "doge" || id.Name != "Bob#12" {
		t.Errorf("fallback = %+v, want skin doge and name Bob#12", id)
	}

	id, _ = ParseDisplayName("{broken")
	if id.Skin != "" || id.Name != "{broken" {
		t.Errorf("fallback for unterminated skin = %+v", id)
	}
}

func TestParseColor(t *testing.T) {
	c, err := ParseColor("#FF8000")
	if err != nil {
		t.Fatalf("ParseColor() error: %v", err)
	}
	if c != (Color{R: 0xff, G: 0x80, B: 0x00}) {
		t.Errorf("ParseColor() = %+v", c)
	}
	if c.Hex() != "ff8000" {
		t.Errorf("Hex() = %q", c.Hex())
	}
}
