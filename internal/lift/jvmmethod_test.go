package lift

import (
	"testing"

	"github.com/deploymenttheory/garlic/internal/jvmclass"
)

// fakeJVMResolver satisfies JVMResolver for methods whose instructions
// never touch a constant pool index (loads/stores/branches/returns).
type fakeJVMResolver struct{}

func (fakeJVMResolver) MemberRef(uint16) (string, string, string, error) { return "", "", "", nil }
func (fakeJVMResolver) ClassRef(uint16) (string, error)                  { return "", nil }
func (fakeJVMResolver) LdcValue(uint16) (interface{}, string, error)     { return nil, "", nil }
func (fakeJVMResolver) InvokeDynamicNameAndType(uint16) (string, string, error) {
	return "", "", nil
}

func TestLiftJVMMethodReturnVoid(t *testing.T) {
	ca := &jvmclass.CodeAttribute{Code: []byte{0xb1}} // return
	stmts, err := LiftJVMMethod(ca, 0, fakeJVMResolver{})
	if err != nil {
		t.Fatalf("LiftJVMMethod: %v", err)
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

// TestLiftJVMMethodJoinsLocalAcrossBlocks builds:
//
//	 0: iconst_1
//	 1: ifeq +9      (-> 10)
//	 4: iconst_2
//	 5: istore 0
//	 7: goto +6      (-> 13)
//	10: iconst_3
//	11: istore 0
//	13: iload 0
//	15: ireturn
//
// local slot 0 is written in both the if's then and else arms and read
// only after they reconverge, the stack-machine analog of
// TestLiftMethodJoinsValueAcrossBlocks. LiftJVMMethod must hoist one
// Decl for l0 and have both arms reassign it.
func TestLiftJVMMethodJoinsLocalAcrossBlocks(t *testing.T) {
	code := []byte{
		0x04,             // 0: iconst_1
		0x99, 0x00, 0x09, // 1: ifeq +9
		0x05,       // 4: iconst_2
		0x36, 0x00, // 5: istore 0
		0xa7, 0x00, 0x06, // 7: goto +6
		0x06,       // 10: iconst_3
		0x36, 0x00, // 11: istore 0
		0x15, 0x00, // 13: iload 0
		0xac, // 15: ireturn
	}
	ca := &jvmclass.CodeAttribute{Code: code}
	stmts, err := LiftJVMMethod(ca, 0, fakeJVMResolver{})
	if err != nil {
		t.Fatalf("LiftJVMMethod: %v", err)
	}
	if len(stmts) == 0 {
		t.Fatalf("expected a non-empty statement list")
	}
	decl, ok := stmts[0].(Decl)
	if !ok {
		t.Fatalf("expected the hoisted Decl first, got %T: %#v", stmts[0], stmts)
	}
	if decl.Local.Reg != 0 {
		t.Fatalf("expected the hoisted Decl for l0, got %+v", decl.Local)
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
			t.Fatalf("expected the assign to target l0, got %+v", a.Dst)
		}
	}
	assertReassign(t, ifStmt.Then)
	assertReassign(t, ifStmt.Else)
}

func TestLiftJVMMethodNilCode(t *testing.T) {
	stmts, err := LiftJVMMethod(nil, 0, fakeJVMResolver{})
	if err != nil {
		t.Fatalf("LiftJVMMethod(nil): %v", err)
	}
	if stmts != nil {
		t.Fatalf("expected nil statements for an abstract/native method, got %v", stmts)
	}
}
