package lift

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/deploymenttheory/garlic/internal/errs"
	"github.com/deploymenttheory/garlic/internal/jvmbc"
)

// jvmLocal names a JVM local variable slot, the stack-machine analog of
// reg(): a direct alias within one block, or (once hoisted by
// method.go's join pass, reused unchanged by jvmmethod.go) the merge
// local declared once via Decl and reassigned from every defining
// block.
func jvmLocal(slot uint16) Local { return Local{Name: fmt.Sprintf("l%d", slot), Reg: slot} }

// jvmPendingNew is an internal-only stack placeholder standing in for a
// `new` instruction's result while its constructor call is still being
// assembled. javac always emits `new; dup; <args>; invokespecial
// <init>`: dup duplicates this same pointer, so whichever copy
// invokespecial <init> pops gets to populate Args, and every other
// copy still on the stack resolves (via jvmBlockState.pop) to the same,
// now-populated NewInstance. Never appears in a rendered Stmt/Expr tree;
// resolveRef unwraps it before a value leaves the stack for real use.
type jvmPendingNew struct{ ptr *NewInstance }

func (jvmPendingNew) isExpr()          {}
func (p jvmPendingNew) String() string { return p.ptr.String() }

// jvmBlockState is oplift.go's blockState adapted to a stack machine:
// bind/used/defined/hoist mean exactly what they mean there, but reads
// and writes go through an explicit operand stack instead of named
// register operands, since JVM instructions address their operands
// positionally.
type jvmBlockState struct {
	resolver JVMResolver
	stack    []Expr
	bind     map[uint16]Expr
	used     map[uint16]bool
	defined  map[uint16]bool
	hoist    map[uint16]bool
}

func (s *jvmBlockState) push(e Expr) { s.stack = append(s.stack, e) }

// popRaw pops without resolving a pending `new`, for dup/swap's own
// bookkeeping: they must duplicate the placeholder itself, not a
// premature snapshot of it.
func (s *jvmBlockState) popRaw() Expr {
	n := len(s.stack)
	if n == 0 {
		// verified bytecode never underflows its own stack; a bare
		// null keeps lifting the rest of the method instead of panicking
		// on a block we've otherwise partitioned correctly.
		return Const{Value: nil, Type: "null"}
	}
	e := s.stack[n-1]
	s.stack = s.stack[:n-1]
	return e
}

func (s *jvmBlockState) peekRaw() Expr {
	if len(s.stack) == 0 {
		return Const{Value: nil, Type: "null"}
	}
	return s.stack[len(s.stack)-1]
}

func (s *jvmBlockState) resolveRef(e Expr) Expr {
	if p, ok := e.(jvmPendingNew); ok {
		return *p.ptr
	}
	return e
}

func (s *jvmBlockState) pop() Expr { return s.resolveRef(s.popRaw()) }

func (s *jvmBlockState) popN(n int) []Expr {
	out := make([]Expr, n)
	for i := n - 1; i >= 0; i-- {
		out[i] = s.pop()
	}
	return out
}

func (s *jvmBlockState) readLocal(slot uint16) Expr {
	if e, ok := s.bind[slot]; ok {
		return e
	}
	if !s.defined[slot] {
		s.used[slot] = true
	}
	return jvmLocal(slot)
}

func (s *jvmBlockState) writeLocal(slot uint16, e Expr) {
	s.bind[slot] = e
	s.defined[slot] = true
}

// defineLocal is blockState.define adapted to local-variable slots: see
// its doc comment for the hoist/reassign mechanics, shared unchanged
// between the DEX and JVM lifters.
func (s *jvmBlockState) defineLocal(slot uint16, e Expr) Stmt {
	if s.hoist != nil && s.hoist[slot] {
		s.bind[slot] = jvmLocal(slot)
		s.defined[slot] = true
		return Assign{Dst: jvmLocal(slot), Src: e, Reassign: true}
	}
	s.writeLocal(slot, e)
	return nil
}

// hasSideEffect reports whether discarding e (an explicit pop/pop2 of
// its stack slot) would silently drop an observable effect: a method
// call or a cast that can throw ClassCastException. Every other Expr
// this lifter produces is pure, so dropping it is safe.
func hasSideEffect(e Expr) bool {
	switch e.(type) {
	case Invoke, CheckCast:
		return true
	}
	return false
}

// liftJVMBlock lifts one JVM basic block's instructions into a
// BlockIR, mirroring liftBlock's two-pass contract: hoist is nil on
// the liveness-gathering pass and the real hoist set on the second.
func liftJVMBlock(b *JVMBlock, resolver JVMResolver, hoist map[uint16]bool) (BlockIR, map[uint16]bool, map[uint16]bool, error) {
	st := &jvmBlockState{
		resolver: resolver,
		bind:     map[uint16]Expr{},
		used:     map[uint16]bool{},
		defined:  map[uint16]bool{},
		hoist:    hoist,
	}
	var ir BlockIR
	for _, ins := range b.Insns {
		stmt, err := liftJVMInstruction(st, ins, &ir)
		if err != nil {
			return ir, st.used, st.defined, err
		}
		if stmt != nil {
			ir.Stmts = append(ir.Stmts, stmt)
		}
	}
	return ir, st.used, st.defined, nil
}

func liftJVMInstruction(st *jvmBlockState, ins jvmbc.Instruction, ir *BlockIR) (Stmt, error) {
	m := ins.Mnemonic
	switch {
	case m == "nop":
		return nil, nil

	case m == "aconst_null":
		st.push(Const{Value: nil, Type: "null"})
		return nil, nil

	case m == "iconst_m1":
		st.push(Const{Value: int64(-1), Type: "int"})
		return nil, nil
	case strings.HasPrefix(m, "iconst_"):
		n, _ := strconv.Atoi(strings.TrimPrefix(m, "iconst_"))
		st.push(Const{Value: int64(n), Type: "int"})
		return nil, nil
	case m == "lconst_0" || m == "lconst_1":
		v := int64(0)
		if m == "lconst_1" {
			v = 1
		}
		st.push(Const{Value: v, Type: "long"})
		return nil, nil
	case m == "fconst_0" || m == "fconst_1" || m == "fconst_2":
		v, _ := strconv.ParseFloat(strings.TrimPrefix(m, "fconst_"), 64)
		st.push(Const{Value: v, Type: "float"})
		return nil, nil
	case m == "dconst_0" || m == "dconst_1":
		v, _ := strconv.ParseFloat(strings.TrimPrefix(m, "dconst_"), 64)
		st.push(Const{Value: v, Type: "double"})
		return nil, nil

	case m == "bipush" || m == "sipush":
		st.push(Const{Value: ins.Literal, Type: "int"})
		return nil, nil

	case m == "ldc" || m == "ldc_w" || m == "ldc2_w":
		v, typ, err := st.resolver.LdcValue(ins.Index)
		if err != nil {
			return nil, err
		}
		st.push(Const{Value: v, Type: typ})
		return nil, nil

	case isJVMLoad(m):
		st.push(st.readLocal(jvmLocalSlot(m, ins.Slot)))
		return nil, nil
	case isJVMStore(m):
		slot := jvmLocalSlot(m, ins.Slot)
		return st.defineLocal(slot, st.pop()), nil

	case m == "iinc":
		v := foldBinop("add-int", st.readLocal(ins.Slot), Const{Value: ins.Literal, Type: "int"})
		return st.defineLocal(ins.Slot, v), nil

	case isJVMArrayLoad(m):
		idx, arr := st.pop(), st.pop()
		st.push(ArrayAccess{Array: arr, Index: idx})
		return nil, nil
	case isJVMArrayStore(m):
		v, idx, arr := st.pop(), st.pop(), st.pop()
		return ArrayWrite{Array: arr, Index: idx, Value: v}, nil

	case m == "pop":
		if v := st.resolveRef(st.popRaw()); hasSideEffect(v) {
			return ExprStmt{X: v}, nil
		}
		return nil, nil
	case m == "pop2":
		var stmts []Stmt
		for i := 0; i < 2; i++ {
			if v := st.resolveRef(st.popRaw()); hasSideEffect(v) {
				stmts = append(stmts, ExprStmt{X: v})
			}
		}
		return firstStmt(stmts), nil

	case m == "dup":
		v := st.peekRaw()
		st.push(v)
		return nil, nil
	case m == "dup_x1":
		v1, v2 := st.popRaw(), st.popRaw()
		st.push(v1)
		st.push(v2)
		st.push(v1)
		return nil, nil
	case m == "dup_x2":
		v1, v2, v3 := st.popRaw(), st.popRaw(), st.popRaw()
		st.push(v1)
		st.push(v3)
		st.push(v2)
		st.push(v1)
		return nil, nil
	case m == "dup2":
		v1, v2 := st.popRaw(), st.popRaw()
		st.push(v2)
		st.push(v1)
		st.push(v2)
		st.push(v1)
		return nil, nil
	case m == "dup2_x1":
		v1, v2, v3 := st.popRaw(), st.popRaw(), st.popRaw()
		st.push(v2)
		st.push(v1)
		st.push(v3)
		st.push(v2)
		st.push(v1)
		return nil, nil
	case m == "dup2_x2":
		v1, v2, v3, v4 := st.popRaw(), st.popRaw(), st.popRaw(), st.popRaw()
		st.push(v2)
		st.push(v1)
		st.push(v4)
		st.push(v3)
		st.push(v2)
		st.push(v1)
		return nil, nil
	case m == "swap":
		v1, v2 := st.popRaw(), st.popRaw()
		st.push(v1)
		st.push(v2)
		return nil, nil

	case jvmBinopStem[m] != "":
		r, l := st.pop(), st.pop()
		st.push(foldBinop(jvmBinopStem[m], l, r))
		return nil, nil
	case jvmNegStem[m] != "":
		st.push(UnOp{Op: jvmNegStem[m], X: st.pop()})
		return nil, nil
	case jvmConvertStem[m] != "":
		st.push(UnOp{Op: jvmConvertStem[m], X: st.pop()})
		return nil, nil
	case jvmCompareStem[m] != "":
		r, l := st.pop(), st.pop()
		st.push(BinOp{Op: jvmCompareStem[m], L: l, R: r})
		return nil, nil

	case jvmIfZeroRelation[m] != "":
		ir.Cond = Compare{Op: jvmIfZeroRelation[m], L: st.pop(), R: Const{Value: int64(0), Type: "int"}}
		return nil, nil
	case jvmIfCmpRelation[m] != "":
		r, l := st.pop(), st.pop()
		ir.Cond = Compare{Op: jvmIfCmpRelation[m], L: l, R: r}
		return nil, nil
	case m == "ifnull" || m == "ifnonnull":
		op := "eq"
		if m == "ifnonnull" {
			op = "ne"
		}
		ir.Cond = Compare{Op: op, L: st.pop(), R: Const{Value: nil, Type: "null"}}
		return nil, nil

	case m == "goto" || m == "goto_w":
		return nil, nil // consumed by the CFG edge; jvmstructure.go rebuilds control flow

	case m == "jsr" || m == "jsr_w" || m == "ret":
		return nil, fmt.Errorf("%w: jsr/ret subroutine bytecode not supported (javac hasn't emitted it since Java 6)", errs.ErrLift)

	case m == "tableswitch" || m == "lookupswitch":
		ir.SwitchValue = st.pop()
		return nil, nil

	case m == "ireturn" || m == "lreturn" || m == "freturn" || m == "dreturn" || m == "areturn":
		return Return{Value: st.pop()}, nil
	case m == "return":
		return Return{}, nil

	case m == "getstatic":
		owner, name, desc, err := st.resolver.MemberRef(ins.Index)
		if err != nil {
			return nil, err
		}
		st.push(FieldAccess{Owner: owner, Name: name, FieldType: desc})
		return nil, nil
	case m == "putstatic":
		owner, name, _, err := st.resolver.MemberRef(ins.Index)
		if err != nil {
			return nil, err
		}
		return FieldWrite{Owner: owner, Name: name, Value: st.pop()}, nil
	case m == "getfield":
		owner, name, desc, err := st.resolver.MemberRef(ins.Index)
		if err != nil {
			return nil, err
		}
		target := st.pop()
		st.push(FieldAccess{Target: target, Owner: owner, Name: name, FieldType: desc})
		return nil, nil
	case m == "putfield":
		owner, name, _, err := st.resolver.MemberRef(ins.Index)
		if err != nil {
			return nil, err
		}
		v, target := st.pop(), st.pop()
		return FieldWrite{Target: target, Owner: owner, Name: name, Value: v}, nil

	case m == "invokevirtual" || m == "invokespecial" || m == "invokestatic" || m == "invokeinterface":
		return liftJVMInvoke(st, ins)
	case m == "invokedynamic":
		return liftJVMInvokeDynamic(st, ins)

	case m == "new":
		t, err := st.resolver.ClassRef(ins.Index)
		if err != nil {
			return nil, err
		}
		st.push(jvmPendingNew{ptr: &NewInstance{Type: t}})
		return nil, nil
	case m == "newarray":
		st.push(NewArray{ElemType: jvmPrimArrayType(ins.ArrayType), Size: st.pop()})
		return nil, nil
	case m == "anewarray":
		t, err := st.resolver.ClassRef(ins.Index)
		if err != nil {
			return nil, err
		}
		st.push(NewArray{ElemType: t, Size: st.pop()})
		return nil, nil
	case m == "multianewarray":
		t, err := st.resolver.ClassRef(ins.Index)
		if err != nil {
			return nil, err
		}
		dims := st.popN(int(ins.Dims))
		// only the outer dimension's size expression survives; a true
		// multi-dimensional new would need an Expr shape this lifter's
		// NewArray doesn't carry.
		var size Expr
		if len(dims) > 0 {
			size = dims[0]
		}
		st.push(NewArray{ElemType: t + strings.Repeat("[]", len(dims)-1), Size: size})
		return nil, nil
	case m == "arraylength":
		st.push(ArrayLength{X: st.pop()})
		return nil, nil
	case m == "athrow":
		return Throw{Value: st.pop()}, nil
	case m == "checkcast":
		t, err := st.resolver.ClassRef(ins.Index)
		if err != nil {
			return nil, err
		}
		st.push(CheckCast{Type: t, X: st.pop()})
		return nil, nil
	case m == "instanceof":
		t, err := st.resolver.ClassRef(ins.Index)
		if err != nil {
			return nil, err
		}
		st.push(InstanceOf{Type: t, X: st.pop()})
		return nil, nil
	case m == "monitorenter":
		return MonitorEnter{X: st.pop()}, nil
	case m == "monitorexit":
		return MonitorExit{X: st.pop()}, nil

	default:
		return nil, fmt.Errorf("%w: unhandled JVM mnemonic %q at offset %d", errs.ErrLift, m, ins.Offset)
	}
}

func firstStmt(stmts []Stmt) Stmt {
	if len(stmts) == 0 {
		return nil
	}
	return stmts[0]
}

// liftJVMInvoke lifts invokevirtual/invokespecial/invokestatic/
// invokeinterface. A void call is emitted as an ExprStmt immediately,
// since nothing can legally consume its (non-existent) result; a
// value-returning call is pushed for whatever's next (a store, an
// operand of another expression, or an explicit pop, which recovers
// the call as a statement itself if the result goes unused).
func liftJVMInvoke(st *jvmBlockState, ins jvmbc.Instruction) (Stmt, error) {
	owner, name, desc, err := st.resolver.MemberRef(ins.Index)
	if err != nil {
		return nil, err
	}
	kind, static := jvmInvokeKind(ins.Mnemonic)
	args := st.popN(jvmParamCount(desc))

	if !static && ins.Mnemonic == "invokespecial" && name == "<init>" {
		target := st.popRaw()
		if p, ok := target.(jvmPendingNew); ok {
			p.ptr.Args = args
			return nil, nil
		}
		// super(...)/this(...) delegating to an already-live receiver,
		// not a fresh `new` this lifter can collapse.
		inv := Invoke{Kind: "special", Owner: owner, Name: name, Desc: desc, Args: append([]Expr{st.resolveRef(target)}, args...)}
		return ExprStmt{X: inv}, nil
	}

	if !static {
		args = append([]Expr{st.pop()}, args...)
	}
	inv := Invoke{Kind: kind, Owner: owner, Name: name, Desc: desc, Args: args, Static: static}
	if jvmReturnsVoid(desc) {
		return ExprStmt{X: inv}, nil
	}
	st.push(inv)
	return nil, nil
}

// liftJVMInvokeDynamic lifts invokedynamic to the same Invoke shape as
// a static call, since it addresses no receiver on the operand stack.
// Owner is left blank: this lifter doesn't parse the BootstrapMethods
// attribute a full callsite name would need.
func liftJVMInvokeDynamic(st *jvmBlockState, ins jvmbc.Instruction) (Stmt, error) {
	name, desc, err := st.resolver.InvokeDynamicNameAndType(ins.Index)
	if err != nil {
		return nil, err
	}
	inv := Invoke{Kind: "dynamic", Name: name, Desc: desc, Args: st.popN(jvmParamCount(desc)), Static: true}
	if jvmReturnsVoid(desc) {
		return ExprStmt{X: inv}, nil
	}
	st.push(inv)
	return nil, nil
}

func jvmInvokeKind(m string) (kind string, static bool) {
	switch m {
	case "invokevirtual":
		return "virtual", false
	case "invokespecial":
		return "special", false
	case "invokestatic":
		return "static", true
	case "invokeinterface":
		return "interface", false
	}
	return "virtual", false
}

// jvmParamCount counts a method descriptor's parameters (JVM spec
// §4.3.3), one operand-stack value per parameter regardless of its
// category (long/double params are still a single symbolic Expr in
// this lifter's model, unlike the raw two-word slots the real stack
// machine uses).
func jvmParamCount(desc string) int {
	if len(desc) < 2 || desc[0] != '(' {
		return 0
	}
	n := 0
	for i := 1; i < len(desc) && desc[i] != ')'; i++ {
		for i < len(desc) && desc[i] == '[' {
			i++
		}
		if i < len(desc) && desc[i] == 'L' {
			for i < len(desc) && desc[i] != ';' {
				i++
			}
		}
		n++
	}
	return n
}

func jvmReturnsVoid(desc string) bool {
	i := strings.IndexByte(desc, ')')
	return i >= 0 && i+1 < len(desc) && desc[i+1] == 'V'
}

func jvmPrimArrayType(atype byte) string {
	switch atype {
	case 4:
		return "boolean"
	case 5:
		return "char"
	case 6:
		return "float"
	case 7:
		return "double"
	case 8:
		return "byte"
	case 9:
		return "short"
	case 10:
		return "int"
	case 11:
		return "long"
	}
	return "int"
}

// jvmLoadStoreBase strips a *load/*store mnemonic's _0.._3 suffix
// (iload_0, astore_3, ...), leaving the general form's own base
// mnemonic so isJVMLoad/isJVMStore/jvmLocalSlot only need to match one
// name per type.
func jvmLoadStoreBase(m string) string {
	if i := strings.LastIndexByte(m, '_'); i >= 0 {
		if suf := m[i+1:]; len(suf) == 1 && suf[0] >= '0' && suf[0] <= '3' {
			return m[:i]
		}
	}
	return m
}

func isJVMLoad(m string) bool {
	switch jvmLoadStoreBase(m) {
	case "iload", "lload", "fload", "dload", "aload":
		return true
	}
	return false
}

func isJVMStore(m string) bool {
	switch jvmLoadStoreBase(m) {
	case "istore", "lstore", "fstore", "dstore", "astore":
		return true
	}
	return false
}

// jvmLocalSlot resolves a *load/*store instruction's slot: the general
// form decodes it into ins.Slot, the _0.._3 forms encode it in the
// mnemonic itself (opcodes.go gives them fmtNone, so decode.go never
// populates ins.Slot for them).
func jvmLocalSlot(m string, decoded uint16) uint16 {
	if i := strings.LastIndexByte(m, '_'); i >= 0 {
		if suf := m[i+1:]; len(suf) == 1 && suf[0] >= '0' && suf[0] <= '3' {
			return uint16(suf[0] - '0')
		}
	}
	return decoded
}

func isJVMArrayLoad(m string) bool {
	switch m {
	case "iaload", "laload", "faload", "daload", "aaload", "baload", "caload", "saload":
		return true
	}
	return false
}

func isJVMArrayStore(m string) bool {
	switch m {
	case "iastore", "lastore", "fastore", "dastore", "aastore", "bastore", "castore", "sastore":
		return true
	}
	return false
}

// jvmBinopStem/jvmNegStem/jvmConvertStem/jvmCompareStem map a JVM
// arithmetic mnemonic onto the same Dalvik-mnemonic-shaped stem
// oplift.go's binops/unops use (fold.go's foldBinop switches on these
// stems), so both lifters share one constant-folding pass.
var jvmBinopStem = map[string]string{
	"iadd": "add-int", "ladd": "add-long", "fadd": "add-float", "dadd": "add-double",
	"isub": "sub-int", "lsub": "sub-long", "fsub": "sub-float", "dsub": "sub-double",
	"imul": "mul-int", "lmul": "mul-long", "fmul": "mul-float", "dmul": "mul-double",
	"idiv": "div-int", "ldiv": "div-long", "fdiv": "div-float", "ddiv": "div-double",
	"irem": "rem-int", "lrem": "rem-long", "frem": "rem-float", "drem": "rem-double",
	"iand": "and-int", "land": "and-long",
	"ior": "or-int", "lor": "or-long",
	"ixor": "xor-int", "lxor": "xor-long",
	"ishl": "shl-int", "lshl": "shl-long",
	"ishr": "shr-int", "lshr": "shr-long",
	"iushr": "ushr-int", "lushr": "ushr-long",
}

var jvmNegStem = map[string]string{
	"ineg": "neg-int", "lneg": "neg-long", "fneg": "neg-float", "dneg": "neg-double",
}

var jvmConvertStem = map[string]string{
	"i2l": "int-to-long", "i2f": "int-to-float", "i2d": "int-to-double",
	"l2i": "long-to-int", "l2f": "long-to-float", "l2d": "long-to-double",
	"f2i": "float-to-int", "f2l": "float-to-long", "f2d": "float-to-double",
	"d2i": "double-to-int", "d2l": "double-to-long", "d2f": "double-to-float",
	"i2b": "int-to-byte", "i2c": "int-to-char", "i2s": "int-to-short",
}

var jvmCompareStem = map[string]string{
	"lcmp": "cmp-long", "fcmpl": "cmpl-float", "fcmpg": "cmpg-float", "dcmpl": "cmpl-double", "dcmpg": "cmpg-double",
}

var jvmIfZeroRelation = map[string]string{
	"ifeq": "eq", "ifne": "ne", "iflt": "lt", "ifge": "ge", "ifgt": "gt", "ifle": "le",
}

var jvmIfCmpRelation = map[string]string{
	"if_icmpeq": "eq", "if_icmpne": "ne", "if_icmplt": "lt", "if_icmpge": "ge", "if_icmpgt": "gt", "if_icmple": "le",
	"if_acmpeq": "eq", "if_acmpne": "ne",
}
