package jvmclass

import (
	"testing"

	"github.com/deploymenttheory/garlic/internal/arena"
)

// buildMinimalClassFile builds a syntactically valid class file
// declaring class "p/A" with no superclass, fields, or methods: magic,
// version 52.0, a two-entry constant pool (Utf8 "p/A", Class ->
// that Utf8), and empty interface/field/method/attribute tables.
func buildMinimalClassFile() []byte {
	var b []byte
	put16 := func(v uint16) { b = append(b, byte(v>>8), byte(v)) }
	put32 := func(v uint32) {
		b = append(b, byte(v>>24), byte(v>>16), byte(v>>8), byte(v))
	}

	put32(magic)
	put16(0)  // minor_version
	put16(52) // major_version

	put16(3) // constant_pool_count (indices 1, 2 valid)
	// cp[1]: Utf8 "p/A"
	b = append(b, byte(tagUtf8))
	put16(3)
	b = append(b, 'p', '/', 'A')
	// cp[2]: Class -> cp[1]
	b = append(b, byte(tagClass))
	put16(1)

	put16(0x0001) // access_flags: public
	put16(2)      // this_class
	put16(0)      // super_class
	put16(0)      // interfaces_count
	put16(0)      // fields_count
	put16(0)      // methods_count
	put16(0)      // attributes_count
	return b
}

func TestParseAndDump(t *testing.T) {
	cf, err := Parse(buildMinimalClassFile(), arena.New())
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cf.MajorVersion != 52 || cf.MinorVersion != 0 {
		t.Fatalf("got major=%d minor=%d, want 52.0", cf.MajorVersion, cf.MinorVersion)
	}
	got, err := cf.Dump()
	if err != nil {
		t.Fatalf("Dump: %v", err)
	}
	want := "major_version=52, minor_version=0, this_class=p/A"
	if got != want {
		t.Fatalf("Dump() = %q, want %q", got, want)
	}
}

func TestParseRejectsBadMagic(t *testing.T) {
	data := buildMinimalClassFile()
	data[0] = 0x00
	if _, err := Parse(data, arena.New()); err == nil {
		t.Fatal("expected an error for a bad magic number")
	}
}

func TestParseRejectsTruncated(t *testing.T) {
	data := buildMinimalClassFile()
	if _, err := Parse(data[:len(data)-2], arena.New()); err == nil {
		t.Fatal("expected an error for a truncated class file")
	}
}
