// Package decompile implements spec.md §6/§9's top-level
// orchestration: classify an input file by its magic bytes, prepare
// its output directory, and dispatch to the class/jar/dex/apk path.
//
// Grounded on original_source/src/garlic.c's magic_of_file and
// run_for_jvm_class/run_for_jvm_jar/run_for_dex/run_for_apk: the
// big-endian reinterpretation of a little-endian-read magic word, the
// `.apk`-suffix tie-break between JAR and APK, and the exact dispatch
// shape (dump-mode runs inline with no pool; decompile/smali modes
// prepare an output dir, clamp worker count, and join a pool).
package decompile

import (
	"fmt"
	"os"
	"strings"

	"github.com/deploymenttheory/garlic/internal/errs"
)

// Kind is the classified input file type.
type Kind int

const (
	KindUnknown Kind = iota
	KindJavaClass
	KindJAR
	KindDEX
	KindAPK
)

const (
	javaClassMagic = 0xcafebabe
	zipMagic       = 0x504b0304
	dexMagic       = 0x6465780a
)

// Classify reads path's first four bytes and returns the file type per
// spec.md §6's table. A `50 4B 03 04` prefix is APK when path ends in
// ".apk", JAR otherwise.
func Classify(path string) (Kind, error) {
	f, err := os.Open(path)
	if err != nil {
		return KindUnknown, fmt.Errorf("%w: opening %s: %v", errs.ErrInput, path, err)
	}
	defer f.Close()

	var raw [4]byte
	if _, err := f.Read(raw[:]); err != nil {
		return KindUnknown, fmt.Errorf("%w: reading %s: %v", errs.ErrInput, path, err)
	}
	magic := uint32(raw[0])<<24 | uint32(raw[1])<<16 | uint32(raw[2])<<8 | uint32(raw[3])

	switch magic {
	case javaClassMagic:
		return KindJavaClass, nil
	case zipMagic:
		if strings.HasSuffix(strings.ToLower(path), ".apk") {
			return KindAPK, nil
		}
		return KindJAR, nil
	case dexMagic:
		return KindDEX, nil
	default:
		return KindUnknown, fmt.Errorf("%w: %s is not a valid Java class/JAR/DEX file", errs.ErrInput, path)
	}
}
