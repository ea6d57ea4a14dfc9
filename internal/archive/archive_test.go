package archive

import (
	"archive/zip"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/deploymenttheory/garlic/internal/logger"
)

func TestMain(m *testing.M) {
	if err := logger.InitLogger(logger.DefaultConfig()); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

// buildEmptyDex builds a minimal, structurally valid DEX file with
// zero entries in every id table and zero class-defs: enough for
// dex.Parse to succeed without ever needing real string/type data.
func buildEmptyDex() []byte {
	const headerSize = 0x70
	b := make([]byte, headerSize)

	put32 := func(off int, v uint32) {
		b[off] = byte(v)
		b[off+1] = byte(v >> 8)
		b[off+2] = byte(v >> 16)
		b[off+3] = byte(v >> 24)
	}

	copy(b[0:8], []byte("dex\n035\x00"))
	put32(32, uint32(headerSize))  // file_size
	put32(36, uint32(headerSize))  // header_size
	put32(40, 0x12345678)          // endian_tag
	// link, map_off, string/type/proto/field/method/class-def/data
	// sections all default to zero size/offset, which is valid: each
	// table has zero entries.
	return b
}

func writeZip(t *testing.T, entries map[string][]byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "archive.zip")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create zip: %v", err)
	}
	defer f.Close()

	zw := zip.NewWriter(f)
	for name, data := range entries {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("zip create %s: %v", name, err)
		}
		if _, err := w.Write(data); err != nil {
			t.Fatalf("zip write %s: %v", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("zip close: %v", err)
	}
	return path
}

func TestWalkAPKEmptyDexYieldsNoClasses(t *testing.T) {
	path := writeZip(t, map[string][]byte{"classes.dex": buildEmptyDex()})

	var got []DexClassJob
	if err := WalkAPK(path, KindDecompile, func(j DexClassJob) {
		got = append(got, j)
	}); err != nil {
		t.Fatalf("WalkAPK: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected zero class jobs from an empty dex, got %d", len(got))
	}
}

// buildDexWithOneClass builds a minimal, structurally valid DEX file
// declaring a single top-level class "La/Good;", adapted from
// classmodel_test.go's buildTestDex fixture down to one class-def.
func buildDexWithOneClass() []byte {
	const (
		headerSize    = 0x70
		stringIDsOff  = headerSize
		typeIDsOff    = stringIDsOff + 1*4
		classDefsOff  = typeIDsOff + 1*4
		stringDataOff = classDefsOff + 1*32
	)

	s := "La/Good;"
	var stringData []byte
	stringData = append(stringData, byte(len(s)))
	stringData = append(stringData, []byte(s)...)
	stringData = append(stringData, 0x00)
	fileSize := stringDataOff + len(stringData)

	buf := make([]byte, fileSize)
	le := binary.LittleEndian
	copy(buf[0:8], []byte("dex\n035\x00"))
	le.PutUint32(buf[32:], uint32(fileSize))
	le.PutUint32(buf[36:], headerSize)
	le.PutUint32(buf[40:], 0x12345678)
	le.PutUint32(buf[56:], 1) // string_ids.size
	le.PutUint32(buf[60:], stringIDsOff)
	le.PutUint32(buf[64:], 1) // type_ids.size
	le.PutUint32(buf[68:], typeIDsOff)
	le.PutUint32(buf[96:], 1) // class_defs.size
	le.PutUint32(buf[100:], classDefsOff)

	le.PutUint32(buf[stringIDsOff:], uint32(stringDataOff))
	le.PutUint32(buf[typeIDsOff:], 0) // type 0 -> string id 0

	le.PutUint32(buf[classDefsOff:], 0)             // class_idx
	le.PutUint32(buf[classDefsOff+8:], 0xffffffff)  // superclass_idx = NO_INDEX
	le.PutUint32(buf[classDefsOff+16:], 0xffffffff) // source_file_idx = NO_INDEX

	copy(buf[stringDataOff:], stringData)
	return buf
}

// TestWalkAPKContinuesAfterMalformedEntry covers spec.md §7's FormatError
// containment policy: a malformed .dex entry is fatal only for that one
// entry, and the rest of the APK's entries still get scanned.
func TestWalkAPKContinuesAfterMalformedEntry(t *testing.T) {
	path := writeZip(t, map[string][]byte{
		"classes.dex":  []byte("dex\n035\x00truncated"),
		"classes2.dex": buildDexWithOneClass(),
	})

	var got []DexClassJob
	if err := WalkAPK(path, KindDecompile, func(j DexClassJob) {
		got = append(got, j)
	}); err != nil {
		t.Fatalf("WalkAPK: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 class job from the good entry, got %d", len(got))
	}
	if got[0].Class.Descriptor != "La/Good;" {
		t.Fatalf("got class %q, want La/Good;", got[0].Class.Descriptor)
	}
}

func TestWalkAPKSkipsNonDexEntries(t *testing.T) {
	path := writeZip(t, map[string][]byte{
		"AndroidManifest.xml": []byte("not a dex"),
		"res/layout.xml":      []byte("also not a dex"),
	})

	var calls int
	if err := WalkAPK(path, KindDecompile, func(j DexClassJob) { calls++ }); err != nil {
		t.Fatalf("WalkAPK: %v", err)
	}
	if calls != 0 {
		t.Fatalf("expected non-.dex entries to be skipped, got %d calls", calls)
	}
}

func TestWalkJARCollectsClassEntries(t *testing.T) {
	path := writeZip(t, map[string][]byte{
		"p/A.class": {0xCA, 0xFE, 0xBA, 0xBE},
		"p/B.class": {0xCA, 0xFE, 0xBA, 0xBE},
		"META-INF/MANIFEST.MF": []byte("Manifest-Version: 1.0\n"),
	})

	var got []ClassFileJob
	if err := WalkJAR(path, func(j ClassFileJob) {
		got = append(got, j)
	}); err != nil {
		t.Fatalf("WalkJAR: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 .class entries, got %d", len(got))
	}
	for _, j := range got {
		if len(j.Data) != 4 {
			t.Errorf("entry %s: expected 4 bytes of data, got %d", j.EntryName, len(j.Data))
		}
	}
}
