package binreader

import (
	"strings"
	"testing"
	"unicode/utf16"
)

func TestMUTF8RoundTrip(t *testing.T) {
	cases := []string{
		"",
		"hello",
		"h\x00i",     // embedded NUL mid-string
		"café",       // 2-byte sequence
		"中文",       // 3-byte sequences
		"\U0001F600", // supplementary code point, surrogate pair
		"a\U0001F600b",
	}
	for _, s := range cases {
		enc := EncodeMUTF8(s)
		got, err := DecodeMUTF8(enc)
		if err != nil {
			t.Fatalf("DecodeMUTF8(%q): %v", s, err)
		}
		if got != s {
			t.Errorf("round trip %q: got %q", s, got)
		}
	}
}

func TestEncodeMUTF8ZeroIsOverlong(t *testing.T) {
	enc := EncodeMUTF8("\x00")
	if !strings.HasPrefix(string(enc), "\xc0\x80") {
		t.Fatalf("expected 0xC0 0x80 overlong encoding, got % x", enc)
	}
}

func TestEncodeMUTF8SupplementaryUsesTwoThreeByteSequences(t *testing.T) {
	enc := EncodeMUTF8("\U0001F600")
	units := utf16.Encode([]rune("\U0001F600"))
	if len(units) != 2 {
		t.Fatalf("expected a surrogate pair, got %d units", len(units))
	}
	if len(enc) != 6 {
		t.Fatalf("expected two 3-byte MUTF-8 sequences (6 bytes), got %d: % x", len(enc), enc)
	}
}

func TestBufferReadMUTF8ConsumesTerminator(t *testing.T) {
	data := append(EncodeMUTF8("hi"), 0x00, 0xFF)
	b := New(data)
	s, err := b.ReadMUTF8(2)
	if err != nil {
		t.Fatalf("ReadMUTF8: %v", err)
	}
	if s != "hi" {
		t.Errorf("got %q", s)
	}
	if b.Pos() != len(data)-1 {
		t.Errorf("expected cursor just past terminator, got pos=%d", b.Pos())
	}
}
