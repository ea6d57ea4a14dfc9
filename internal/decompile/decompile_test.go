package decompile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/deploymenttheory/garlic/internal/lift"
)

func writeTestFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("writing %s: %v", path, err)
	}
	return path
}

func TestClassify(t *testing.T) {
	cases := []struct {
		name string
		data []byte
		want Kind
	}{
		{"A.class", []byte{0xca, 0xfe, 0xba, 0xbe, 0, 0, 0, 0}, KindJavaClass},
		{"app.apk", []byte{0x50, 0x4b, 0x03, 0x04, 0, 0, 0, 0}, KindAPK},
		{"lib.jar", []byte{0x50, 0x4b, 0x03, 0x04, 0, 0, 0, 0}, KindJAR},
		{"classes.dex", []byte{0x64, 0x65, 0x78, 0x0a, '0', '3', '5', 0}, KindDEX},
		{"data.bin", []byte{0, 0, 0, 0}, KindUnknown},
	}
	for _, c := range cases {
		path := writeTestFile(t, c.name, c.data)
		got, err := Classify(path)
		if c.want == KindUnknown {
			if err == nil {
				t.Errorf("Classify(%s): expected an error, got none", c.name)
			}
			continue
		}
		if err != nil {
			t.Fatalf("Classify(%s): %v", c.name, err)
		}
		if got != c.want {
			t.Errorf("Classify(%s) = %v, want %v", c.name, got, c.want)
		}
	}
}

func TestDefaultOutputDir(t *testing.T) {
	got := DefaultOutputDir("/tmp/foo.apk")
	want := filepath.Join("/tmp", "foo_apk")
	if got != want {
		t.Fatalf("DefaultOutputDir = %q, want %q", got, want)
	}
}

func TestClassOutputPath(t *testing.T) {
	got := classOutputPath("/out", "La/b/Outer$Inner;", "java")
	want := filepath.Join("/out", "a", "b", "Inner.java")
	if got != want {
		t.Fatalf("classOutputPath = %q, want %q", got, want)
	}
}

func TestClassOutputPathDefaultPackage(t *testing.T) {
	got := classOutputPath("/out", "LA;", "smali")
	want := filepath.Join("/out", "A.smali")
	if got != want {
		t.Fatalf("classOutputPath = %q, want %q", got, want)
	}
}

func TestJavaTypeName(t *testing.T) {
	cases := map[string]string{
		"V":                    "void",
		"I":                    "int",
		"[I":                   "int[]",
		"[[Ljava/lang/String;": "java.lang.String[][]",
		"La/b/C;":              "a.b.C",
	}
	for desc, want := range cases {
		if got := javaTypeName(desc); got != want {
			t.Errorf("javaTypeName(%q) = %q, want %q", desc, got, want)
		}
	}
}

func TestRenderBodyElidesTrailingVoidReturn(t *testing.T) {
	got := renderBody([]lift.Stmt{lift.Return{Value: nil}}, 0)
	if got != "{ }" {
		t.Fatalf("renderBody = %q, want %q", got, "{ }")
	}
}

func TestRenderBodyKeepsValueReturn(t *testing.T) {
	got := renderBody([]lift.Stmt{lift.Return{Value: lift.Const{Value: int64(1), Type: "int"}}}, 0)
	want := "{\n    return 1;\n}"
	if got != want {
		t.Fatalf("renderBody = %q, want %q", got, want)
	}
}

// TestRenderBodyMergeLocalCrossesBlocks covers the shape method.go's
// hoisting pass produces for a value defined in two arms of an if/else
// and read only after they reconverge: one hoisted Decl up front, a
// plain reassignment (no redeclaration) in each arm.
func TestRenderBodyMergeLocalCrossesBlocks(t *testing.T) {
	v0 := lift.Local{Name: "v0", Reg: 0, Type: "int"}
	stmts := []lift.Stmt{
		lift.Decl{Local: v0},
		lift.If{
			Cond: lift.Compare{Op: "eq", L: v0, R: lift.Const{Value: int64(0), Type: "int"}},
			Then: []lift.Stmt{lift.Assign{Dst: v0, Src: lift.Const{Value: int64(2), Type: "int"}, Reassign: true}},
			Else: []lift.Stmt{lift.Assign{Dst: v0, Src: lift.Const{Value: int64(3), Type: "int"}, Reassign: true}},
		},
		lift.Return{Value: v0},
	}
	got := renderBody(stmts, 0)
	want := "{\n" +
		"    int v0;\n" +
		"    if (v0 eq 0) {\n" +
		"        v0 = 2;\n" +
		"    } else {\n" +
		"        v0 = 3;\n" +
		"    }\n" +
		"    return v0;\n" +
		"}"
	if got != want {
		t.Fatalf("renderBody =\n%s\nwant\n%s", got, want)
	}
}
