package lift

import (
	"testing"

	"github.com/deploymenttheory/garlic/internal/arena"
	"github.com/deploymenttheory/garlic/internal/dex"
)

// fakeResolver satisfies Resolver for methods whose instructions never
// touch a pool index (e.g. a bare return-void).
type fakeResolver struct{}

func (fakeResolver) String(uint32) (string, error)                { return "", nil }
func (fakeResolver) Type(uint32) (string, error)                  { return "", nil }
func (fakeResolver) Proto(uint32) (dex.ProtoID, error)            { return dex.ProtoID{}, nil }
func (fakeResolver) Field(uint32) (dex.FieldID, error)            { return dex.FieldID{}, nil }
func (fakeResolver) Method(uint32) (dex.MethodID, error)          { return dex.MethodID{}, nil }
func (fakeResolver) ProtoParamTypes(dex.ProtoID) ([]string, error) { return nil, nil }

func TestLiftMethodReturnVoid(t *testing.T) {
	code := &dex.CodeItem{
		RegistersSize: 1,
		Insns:         []uint16{0x000e}, // return-void, format 10x
	}
	stmts, err := LiftMethod(code, 0, fakeResolver{}, arena.New())
	if err != nil {
		t.Fatalf("LiftMethod: %v", err)
	}
	if len(stmts) != 1 {
		t.Fatalf("expected a single Return statement, got %d: %#v", len(stmts), stmts)
	}
	ret, ok := stmts[0].(Return)
	if !ok {
		t.Fatalf("expected Return, got %T", stmts[0])
	}
	if ret.Value != nil {
		t.Fatalf("expected return-void to carry a nil Value, got %v", ret.Value)
	}
}

// TestLiftMethodJoinsValueAcrossBlocks builds:
//
//	const/4 v0, #1
//	if-eqz v0, :else
//	const/4 v0, #2
//	goto :merge
//	:else
//	const/4 v0, #3
//	:merge
//	return v0
//
// v0 is defined in two different blocks (the if's then and else arms)
// and read only after they reconverge, exactly the predecessor-join
// spec.md §4.5 stage 2 requires. LiftMethod must hoist one Decl for
// v0 and have both arms reassign it (Reassign: true) rather than
// each redeclaring "int v0 = ...", which javac would reject.
func TestLiftMethodJoinsValueAcrossBlocks(t *testing.T) {
	code := &dex.CodeItem{
		RegistersSize: 1,
		Insns: []uint16{
			0x1012, // 0: const/4 v0, #1
			0x0038, // 1: if-eqz v0, +4
			4,      // 2: branch operand
			0x2012, // 3: const/4 v0, #2
			0x0228, // 4: goto +2
			0x3012, // 5: const/4 v0, #3
			0x000f, // 6: return v0
		},
	}
	stmts, err := LiftMethod(code, 0, fakeResolver{}, arena.New())
	if err != nil {
		t.Fatalf("LiftMethod: %v", err)
	}
	if len(stmts) == 0 {
		t.Fatalf("expected a non-empty statement list")
	}
	decl, ok := stmts[0].(Decl)
	if !ok {
		t.Fatalf("expected the hoisted Decl first, got %T: %#v", stmts[0], stmts)
	}
	if decl.Local.Reg != 0 {
		t.Fatalf("expected the hoisted Decl for v0, got %+v", decl.Local)
	}

	var ifStmt If
	found := false
	for _, s := range stmts[1:] {
		if v, ok := s.(If); ok {
			ifStmt = v
			found = true
			break
		}
	}
	if !found {
		t.Fatalf("expected a structured If among %#v", stmts)
	}

	assertReassign := func(t *testing.T, arm []Stmt) {
		t.Helper()
		if len(arm) != 1 {
			t.Fatalf("expected exactly one statement in the arm, got %d: %#v", len(arm), arm)
		}
		a, ok := arm[0].(Assign)
		if !ok {
			t.Fatalf("expected an Assign, got %T", arm[0])
		}
		if !a.Reassign {
			t.Fatalf("expected Reassign: true for a hoisted merge local, got %+v", a)
		}
		if a.Dst.Reg != 0 {
			t.Fatalf("expected the assign to target v0, got %+v", a.Dst)
		}
	}
	assertReassign(t, ifStmt.Then)
	assertReassign(t, ifStmt.Else)
}

func TestLiftMethodNilCode(t *testing.T) {
	stmts, err := LiftMethod(nil, 0, fakeResolver{}, arena.New())
	if err != nil {
		t.Fatalf("LiftMethod(nil): %v", err)
	}
	if stmts != nil {
		t.Fatalf("expected nil statements for an abstract/native method, got %v", stmts)
	}
}
