// Package archive implements the APK/JAR fan-out of spec.md §4.7: walk
// a zip-based container, and for each eligible entry enqueue one task
// onto a worker.Pool.
//
// Grounded on original_source/src/apk/apk.c's apk_decompile_task_start
// (open archive, iterate entries, read bytes, enqueue one task per
// eligible class) and the teacher's
// internal/utils/compressionutil/zip.go's ExtractZIP iteration
// pattern, reworked from "extract to disk" into "read entry into
// memory and parse directly" since garlic never needs the archive's
// own files on disk.
package archive

import (
	"archive/zip"
	"fmt"
	"io"
	"strings"

	"github.com/deploymenttheory/garlic/internal/classmodel"
	"github.com/deploymenttheory/garlic/internal/dex"
	"github.com/deploymenttheory/garlic/internal/errs"
	"github.com/deploymenttheory/garlic/internal/logger"
)

// Kind selects the task shape a fanned-out entry produces, mirroring
// spec.md §3's Task.kind.
type Kind int

const (
	KindDecompile Kind = iota
	KindSmali
)

// DexClassJob is one class-def ready for a worker, already carrying
// its resolved descriptor.
type DexClassJob struct {
	Image *dex.Image
	Class *classmodel.ResolvedClass
}

// ClassFileJob is one standalone .class entry from a JAR.
type ClassFileJob struct {
	EntryName string
	Data      []byte
}

// WalkAPK opens path as a zip archive, reads every ".dex" entry, parses
// it, and calls onClass once per eligible class-def (inner/anonymous
// classes are skipped when kind == KindDecompile, matching
// apk_decompile_task_start's dex_class_is_inner_class/
// dex_class_is_anonymous_class guard). Entries that are not ".dex" are
// silently skipped, per spec.md §9's documented Open Question.
func WalkAPK(path string, kind Kind, onClass func(DexClassJob)) error {
	r, err := zip.OpenReader(path)
	if err != nil {
		return fmt.Errorf("%w: opening apk: %v", errs.ErrInput, err)
	}
	defer r.Close()

	for _, f := range r.File {
		if !strings.HasSuffix(f.Name, ".dex") {
			continue
		}
		data, err := readZipEntry(f)
		if err != nil {
			logger.LogError("skipping unreadable dex entry", err, map[string]interface{}{"entry": f.Name})
			continue
		}
		img, err := dex.Parse(data)
		if err != nil {
			logger.LogError("skipping malformed dex entry", err, map[string]interface{}{"entry": f.Name})
			continue
		}
		enqueueDexClasses(img, kind, onClass)
	}
	return nil
}

// WalkJAR opens path as a zip archive and calls onClass once per
// ".class" entry. A JAR's class table has no DEX-style inner/anonymous
// suppression: javac already emits inner classes as their own
// top-level .class entries, so every entry becomes its own task
// regardless of kind (see SPEC_FULL's supplemented JAR behavior).
func WalkJAR(path string, onClass func(ClassFileJob)) error {
	r, err := zip.OpenReader(path)
	if err != nil {
		return fmt.Errorf("%w: opening jar: %v", errs.ErrInput, err)
	}
	defer r.Close()

	for _, f := range r.File {
		if !strings.HasSuffix(f.Name, ".class") {
			continue
		}
		data, err := readZipEntry(f)
		if err != nil {
			return fmt.Errorf("%w: reading %s: %v", errs.ErrIO, f.Name, err)
		}
		onClass(ClassFileJob{EntryName: f.Name, Data: data})
	}
	return nil
}

// enqueueDexClasses resolves and enqueues every eligible class-def in
// img. A class-def that fails to resolve is a FormatError local to
// that one class (spec.md §7): it is logged and skipped, and the rest
// of img's class-defs still get scheduled.
func enqueueDexClasses(img *dex.Image, kind Kind, onClass func(DexClassJob)) {
	for _, cd := range img.ClassDefs {
		rc, err := classmodel.Resolve(img, cd)
		if err != nil {
			logger.LogError("skipping unresolvable class-def", err, map[string]interface{}{"class_type_id": cd.ClassIdx})
			continue
		}
		if kind == KindDecompile && (rc.IsInner() || rc.IsAnonymous()) {
			continue
		}
		onClass(DexClassJob{Image: img, Class: rc})
	}
}

func readZipEntry(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

