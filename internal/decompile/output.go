package decompile

import (
	"os"
	"path/filepath"
	"strings"
)

// classOutputPath builds "<out>/<pkg-as-dirs>/<SimpleName>.<ext>" from
// a type descriptor, per spec.md §6's output layout. Inner classes are
// never given their own path under Decompile mode (they're inlined
// into their declaring class's file); Smali mode calls this for every
// class-def, inner or not.
func classOutputPath(out, descriptor, ext string) string {
	pkg := javaPackageName(descriptor)
	simple := javaSimpleName(descriptor)
	dir := out
	if pkg != "" {
		dir = filepath.Join(out, filepath.Join(strings.Split(pkg, ".")...))
	}
	return filepath.Join(dir, simple+"."+ext)
}

// writeOutputFile creates content's parent directory and writes it.
func writeOutputFile(path, content string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(content), 0o644)
}

// DefaultOutputDir reproduces prepare_opt_output's literal behavior
// when -o is omitted: take the input's base filename, replace every
// '.' with '_', and place the result next to the input. "foo.apk" ->
// "<dir>/foo_apk", not a name derived only from the extension.
func DefaultOutputDir(path string) string {
	dir := filepath.Dir(path)
	base := filepath.Base(path)
	name := strings.ReplaceAll(base, ".", "_")
	return filepath.Join(dir, name)
}

// PrepareOutputDir resolves out (using DefaultOutputDir(path) when out
// is empty) and creates it, mirroring prepare_opt_output's
// mkdir_p(out) call.
func PrepareOutputDir(path, out string) (string, error) {
	if out == "" {
		out = DefaultOutputDir(path)
	}
	if err := os.MkdirAll(out, 0o755); err != nil {
		return "", err
	}
	return out, nil
}
