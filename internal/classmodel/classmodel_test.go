package classmodel

import (
	"encoding/binary"
	"testing"

	"github.com/deploymenttheory/garlic/internal/dex"
)

func TestSimpleName(t *testing.T) {
	cases := []struct{ desc, want string }{
		{"La/b/Outer;", "Outer"},
		{"La/b/Outer$Inner;", "Inner"},
		{"La/b/Outer$1;", "1"},
		{"LTopLevel;", "TopLevel"},
	}
	for _, c := range cases {
		rc := &ResolvedClass{Descriptor: c.desc}
		if got := rc.SimpleName(); got != c.want {
			t.Errorf("SimpleName(%q) = %q, want %q", c.desc, got, c.want)
		}
	}
}

func TestIsInnerAndAnonymous(t *testing.T) {
	cases := []struct {
		desc          string
		srcFile       string
		wantInner     bool
		wantAnonymous bool
	}{
		{"La/b/Outer;", "", false, false},
		{"La/b/Outer;", "Outer.java", false, false},
		{"La/b/Outer$Inner;", "", true, false},
		{"La/b/Outer$1;", "", true, true},
		{"La/b/Weird;", "Other.java", true, false}, // source-file mismatch, no '$'
	}
	for _, c := range cases {
		rc := &ResolvedClass{Descriptor: c.desc, SourceFile: c.srcFile}
		if got := rc.IsInner(); got != c.wantInner {
			t.Errorf("IsInner(%q, src=%q) = %v, want %v", c.desc, c.srcFile, got, c.wantInner)
		}
		if got := rc.IsAnonymous(); got != c.wantAnonymous {
			t.Errorf("IsAnonymous(%q) = %v, want %v", c.desc, got, c.wantAnonymous)
		}
	}
}

func TestEnclosingDescriptor(t *testing.T) {
	rc := &ResolvedClass{Descriptor: "La/b/Outer$Inner;"}
	if got := rc.EnclosingDescriptor(); got != "La/b/Outer;" {
		t.Errorf("EnclosingDescriptor = %q, want La/b/Outer;", got)
	}
	top := &ResolvedClass{Descriptor: "La/b/Outer;"}
	if got := top.EnclosingDescriptor(); got != "" {
		t.Errorf("EnclosingDescriptor of a top-level class = %q, want \"\"", got)
	}
}

// buildTestDex builds a minimal 3-class DEX image: "La/Outer;",
// "La/Outer$Inner;", "La/Outer$1;", with no string pool entries beyond
// their descriptors and no source-file strings, to exercise
// BuildForest's grouping without relying on every DEX section.
func buildTestDex(t *testing.T) *dex.Image {
	t.Helper()
	strs := []string{"La/Outer;", "La/Outer$Inner;", "La/Outer$1;"}

	const (
		headerSize    = dex.HeaderSize
		stringIDsOff  = headerSize
		typeIDsOff    = stringIDsOff + 3*4
		classDefsOff  = typeIDsOff + 3*4
		stringDataOff = classDefsOff + 3*32
	)

	var stringData []byte
	stringOffsets := make([]uint32, len(strs))
	for i, s := range strs {
		stringOffsets[i] = uint32(stringDataOff + len(stringData))
		stringData = append(stringData, byte(len(s))) // ULEB128 of a <128 length is one byte
		stringData = append(stringData, []byte(s)...)
		stringData = append(stringData, 0x00)
	}
	fileSize := stringDataOff + len(stringData)

	buf := make([]byte, fileSize)
	copy(buf[0:8], []byte("dex\n035\x00"))
	le := binary.LittleEndian
	le.PutUint32(buf[32:], uint32(fileSize))
	le.PutUint32(buf[36:], headerSize)
	le.PutUint32(buf[40:], 0x12345678)
	le.PutUint32(buf[56:], 3) // string_ids.size
	le.PutUint32(buf[60:], stringIDsOff)
	le.PutUint32(buf[64:], 3) // type_ids.size
	le.PutUint32(buf[68:], typeIDsOff)
	le.PutUint32(buf[96:], 3) // class_defs.size
	le.PutUint32(buf[100:], classDefsOff)

	for i, off := range stringOffsets {
		le.PutUint32(buf[stringIDsOff+i*4:], off)
	}
	for i := 0; i < 3; i++ {
		le.PutUint32(buf[typeIDsOff+i*4:], uint32(i)) // type i -> string id i
	}
	for i := 0; i < 3; i++ {
		base := classDefsOff + i*32
		le.PutUint32(buf[base:], uint32(i))    // class_idx
		le.PutUint32(buf[base+8:], 0xffffffff)  // superclass_idx = NO_INDEX
		le.PutUint32(buf[base+16:], 0xffffffff) // source_file_idx = NO_INDEX
	}
	copy(buf[stringDataOff:], stringData)

	img, err := dex.Parse(buf)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return img
}

func TestBuildForestGroupsInnerClasses(t *testing.T) {
	img := buildTestDex(t)
	forest, err := BuildForest(img)
	if err != nil {
		t.Fatalf("BuildForest: %v", err)
	}
	if len(forest) != 1 {
		t.Fatalf("expected 1 top-level source file, got %d", len(forest))
	}
	sf := forest[0]
	if sf.TopLevel.Descriptor != "La/Outer;" {
		t.Fatalf("top-level descriptor = %q, want La/Outer;", sf.TopLevel.Descriptor)
	}
	if len(sf.Inner) != 2 {
		t.Fatalf("expected 2 inner classes, got %d", len(sf.Inner))
	}
	var sawInner, sawAnon bool
	for _, inner := range sf.Inner {
		switch inner.Descriptor {
		case "La/Outer$Inner;":
			sawInner = true
			if inner.IsAnonymous() {
				t.Error("Outer$Inner should not be classified anonymous")
			}
		case "La/Outer$1;":
			sawAnon = true
			if !inner.IsAnonymous() {
				t.Error("Outer$1 should be classified anonymous")
			}
		default:
			t.Errorf("unexpected inner descriptor %q", inner.Descriptor)
		}
	}
	if !sawInner || !sawAnon {
		t.Fatal("did not see both expected inner classes")
	}
}
