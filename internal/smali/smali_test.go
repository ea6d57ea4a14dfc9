package smali

import (
	"testing"

	"github.com/deploymenttheory/garlic/internal/arena"
	"github.com/deploymenttheory/garlic/internal/dex"
)

type fakeResolver struct{}

func (fakeResolver) String(uint32) (string, error)       { return "", nil }
func (fakeResolver) Type(uint32) (string, error)          { return "", nil }
func (fakeResolver) Proto(uint32) (dex.ProtoID, error)    { return dex.ProtoID{}, nil }
func (fakeResolver) Field(uint32) (dex.FieldID, error)    { return dex.FieldID{}, nil }
func (fakeResolver) Method(uint32) (dex.MethodID, error)  { return dex.MethodID{}, nil }

func TestEmitMethodReturnVoid(t *testing.T) {
	code := &dex.CodeItem{
		RegistersSize: 1,
		Insns:         []uint16{0x000e}, // return-void
	}
	got, err := EmitMethod(code, fakeResolver{}, arena.New())
	if err != nil {
		t.Fatalf("EmitMethod: %v", err)
	}
	want := "    .registers 1\n    return-void\n"
	if got != want {
		t.Fatalf("EmitMethod output mismatch:\ngot:  %q\nwant: %q", got, want)
	}
}

func TestEmitMethodNilCode(t *testing.T) {
	got, err := EmitMethod(nil, fakeResolver{}, arena.New())
	if err != nil {
		t.Fatalf("EmitMethod(nil): %v", err)
	}
	if got != "" {
		t.Fatalf("expected empty output for a nil code item, got %q", got)
	}
}
