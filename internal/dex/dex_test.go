package dex

import (
	"encoding/binary"
	"testing"

	"github.com/deploymenttheory/garlic/internal/binreader"
)

// buildEmptyDexHeader returns a syntactically valid, otherwise empty
// DEX file: a header_item (0x70 bytes) sized exactly to itself, with
// every section size set to 0 so the bounds-check invariants trivially
// hold, and no class-defs.
func buildEmptyDexHeader() []byte {
	buf := make([]byte, HeaderSize)
	copy(buf[0:8], []byte("dex\n035\x00"))
	binary.LittleEndian.PutUint32(buf[32:], uint32(HeaderSize)) // file_size
	binary.LittleEndian.PutUint32(buf[36:], HeaderSize)         // header_size
	binary.LittleEndian.PutUint32(buf[40:], endianConstant)     // endian_tag
	return buf
}

func TestParseEmptyDex(t *testing.T) {
	data := buildEmptyDexHeader()
	img, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(img.ClassDefs) != 0 {
		t.Fatalf("expected no class-defs, got %d", len(img.ClassDefs))
	}
}

func TestParseRejectsBigEndianTag(t *testing.T) {
	data := buildEmptyDexHeader()
	binary.LittleEndian.PutUint32(data[40:], reverseEndianConstant)
	if _, err := Parse(data); err == nil {
		t.Fatal("expected a FormatError for a big-endian tag")
	}
}

func TestParseRejectsBadMagic(t *testing.T) {
	data := buildEmptyDexHeader()
	data[0] = 'X'
	if _, err := Parse(data); err == nil {
		t.Fatal("expected a FormatError for a bad magic prefix")
	}
}

func TestParseRejectsTruncatedHeader(t *testing.T) {
	data := buildEmptyDexHeader()[:HeaderSize-4]
	if _, err := Parse(data); err == nil {
		t.Fatal("expected an error for a truncated header")
	}
}

func TestParseRejectsSectionOutOfBounds(t *testing.T) {
	data := buildEmptyDexHeader()
	// Claim one string id exists, but point it past the file's end.
	binary.LittleEndian.PutUint32(data[56:], 1)               // string_ids.size
	binary.LittleEndian.PutUint32(data[60:], uint32(len(data))) // string_ids.offset == EOF
	if _, err := Parse(data); err == nil {
		t.Fatal("expected a FormatError for an out-of-bounds section")
	}
}

func TestMethodDeltaAccumulation(t *testing.T) {
	var raw []byte
	raw = appendULEB(raw, 5)
	raw = appendULEB(raw, 0) // access flags
	raw = appendULEB(raw, 0) // code_off
	raw = appendULEB(raw, 3)
	raw = appendULEB(raw, 0)
	raw = appendULEB(raw, 0)
	raw = appendULEB(raw, 2)
	raw = appendULEB(raw, 0)
	raw = appendULEB(raw, 0)

	img := &Image{}
	methods, err := img.readEncodedMethods(binreader.New(raw), 3)
	if err != nil {
		t.Fatalf("readEncodedMethods: %v", err)
	}
	want := []uint32{5, 8, 10}
	for i, m := range methods {
		if m.MethodIdx != want[i] {
			t.Errorf("method %d: got idx %d, want %d", i, m.MethodIdx, want[i])
		}
	}
}

func appendULEB(dst []byte, v uint64) []byte {
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if v != 0 {
			dst = append(dst, b|0x80)
		} else {
			dst = append(dst, b)
			return dst
		}
	}
}
