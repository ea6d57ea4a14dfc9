package lift

import "fmt"

// Expr is a lifted expression node. The concrete types below cover
// every operand shape spec.md §4.5 stage 2 names.
type Expr interface {
	isExpr()
	String() string
}

// Const is a literal value materialized from a const* instruction.
type Const struct {
	Value interface{} // int64, float64, string (also const-class's type descriptor), uint32 pool index for method handles/types, or nil for null
	Type  string       // "int", "long", "float", "double", "string", "class", "methodhandle", "null"
}

func (Const) isExpr() {}
func (c Const) String() string { return fmt.Sprintf("%v", c.Value) }

// Local is a named local variable: a direct register alias (rendered
// inline at its point of use within one block) or, when a register's
// value is read from more than one basic block, the hoisted merge
// local method.go's join pass declares once via Decl and every
// defining block assigns via Assign (see stmt.go).
type Local struct {
	Name string
	Reg  uint16
	Type string
}

func (Local) isExpr() {}
func (l Local) String() string { return l.Name }

// BinOp is a two-operand arithmetic/logical/comparison node.
// Op is the Dalvik mnemonic stem (e.g. "add-int", "cmpl-float").
type BinOp struct {
	Op   string
	L, R Expr
}

func (BinOp) isExpr() {}
func (b BinOp) String() string { return fmt.Sprintf("(%s %s %s)", b.L, b.Op, b.R) }

// UnOp is a single-operand arithmetic/conversion node.
type UnOp struct {
	Op string
	X  Expr
}

func (UnOp) isExpr() {}
func (u UnOp) String() string { return fmt.Sprintf("%s(%s)", u.Op, u.X) }

// FieldAccess reads an instance ("iget") or static ("sget") field.
// Target is nil for static access.
type FieldAccess struct {
	Target     Expr
	Owner      string
	Name       string
	FieldType  string
}

func (FieldAccess) isExpr() {}
func (f FieldAccess) String() string {
	if f.Target == nil {
		return fmt.Sprintf("%s.%s", f.Owner, f.Name)
	}
	return fmt.Sprintf("%s.%s", f.Target, f.Name)
}

// ArrayAccess reads arr[index].
type ArrayAccess struct {
	Array Expr
	Index Expr
}

func (ArrayAccess) isExpr() {}
func (a ArrayAccess) String() string { return fmt.Sprintf("%s[%s]", a.Array, a.Index) }

// ArrayLength is the array-length instruction's result.
type ArrayLength struct{ X Expr }

func (ArrayLength) isExpr() {}
func (a ArrayLength) String() string { return fmt.Sprintf("%s.length", a.X) }

// Invoke is a method-call expression. Kind is one of "virtual",
// "super", "direct", "static", "interface", "polymorphic", "custom".
type Invoke struct {
	Kind   string
	Owner  string
	Name   string
	Desc   string
	Args   []Expr
	Static bool
}

func (Invoke) isExpr() {}
func (i Invoke) String() string { return fmt.Sprintf("%s.%s(%v)", i.Owner, i.Name, i.Args) }

// NewInstance is a new-instance expression, collapsed with its
// following invoke-direct <init> into a constructor call where the
// lifter recognizes the pattern (see oplift.go's liftInvoke).
type NewInstance struct {
	Type string
	Args []Expr // populated once collapsed with <init>; nil until then
}

func (NewInstance) isExpr() {}
func (n NewInstance) String() string { return fmt.Sprintf("new %s(%v)", n.Type, n.Args) }

// NewArray is a new-array expression; Init is attached later by a
// fill-array-data instruction targeting the same register, if any.
type NewArray struct {
	ElemType string
	Size     Expr
	Init     *ArrayInit
}

func (NewArray) isExpr() {}
func (n NewArray) String() string { return fmt.Sprintf("new %s[%s]", n.ElemType, n.Size) }

// ArrayInit is a materialized array initializer from fill-array-data.
type ArrayInit struct {
	ElementWidth uint16
	Data         []byte
}

// FilledNewArray is a filled-new-array/filled-new-array-range result.
type FilledNewArray struct {
	ElemType string
	Elems    []Expr
}

func (FilledNewArray) isExpr() {}
func (f FilledNewArray) String() string { return fmt.Sprintf("new %s{%v}", f.ElemType, f.Elems) }

// CheckCast is a checked cast expression.
type CheckCast struct {
	Type string
	X    Expr
}

func (CheckCast) isExpr() {}
func (c CheckCast) String() string { return fmt.Sprintf("(%s)%s", c.Type, c.X) }

// InstanceOf tests x instanceof Type.
type InstanceOf struct {
	Type string
	X    Expr
}

func (InstanceOf) isExpr() {}
func (i InstanceOf) String() string { return fmt.Sprintf("%s instanceof %s", i.X, i.Type) }

// Compare is a register-to-register relation used by an if-* statement
// condition.
type Compare struct {
	Op   string // "eq","ne","lt","ge","gt","le"
	L, R Expr
}

func (Compare) isExpr() {}
func (c Compare) String() string { return fmt.Sprintf("%s %s %s", c.L, c.Op, c.R) }
