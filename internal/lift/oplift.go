package lift

import (
	"fmt"
	"strings"

	"github.com/deploymenttheory/garlic/internal/dalvik"
	"github.com/deploymenttheory/garlic/internal/errs"
)

// BlockIR is the result of lifting one basic block's instructions,
// per spec.md §4.5 stages 2-3. Cond/SwitchValue hold the operand the
// structurer needs to rebuild the block's outgoing control flow; the
// block's own Stmt list never contains the terminating branch itself.
type BlockIR struct {
	Stmts       []Stmt
	Cond        Expr // set when the block ends in an if-*
	SwitchValue Expr // set when the block ends in a packed/sparse-switch
}

// blockState is the per-block folding cache used both to recognize the
// spec-mandated collapses (move-result fusion, new-instance + <init>,
// fill-array-data attachment) and, via used/defined, to report which
// registers this block reads before writing and which it writes at
// all — method.go's first liftBlock pass uses exactly those two sets
// to compute cross-block liveness. hoist is nil on that first,
// liveness-gathering pass; on the second, real pass it names every
// register whose value must be visible under its register name from
// another block (method.go's join pass), so define() materializes an
// Assign for those instead of only folding into bind.
type blockState struct {
	resolver Resolver
	bind     map[uint16]Expr // last-known expr bound to a register, this block only
	used     map[uint16]bool // read here before ever being written here (upward-exposed)
	defined  map[uint16]bool // written at least once in this block
	hoist    map[uint16]bool // registers requiring a materialized cross-block Assign; nil during the liveness pass
}

func reg(n uint16) Local { return Local{Name: fmt.Sprintf("v%d", n), Reg: n} }

func (s *blockState) read(r uint16) Expr {
	if e, ok := s.bind[r]; ok {
		return e
	}
	if !s.defined[r] {
		s.used[r] = true
	}
	return reg(r)
}

func (s *blockState) write(r uint16, e Expr) {
	s.bind[r] = e
	s.defined[r] = true
}

// define records the value produced for register r by whichever
// instruction just computed it. When r is in hoist (its value crosses
// a block boundary), the value must be visible under its register name
// to whichever block reads it, so this returns a materialized Assign
// instead of only updating bind; the caller emits it as the
// instruction's Stmt. Returns nil when r doesn't escape this block,
// preserving the original fold-into-bind behavior with no statement.
func (s *blockState) define(r uint16, e Expr) Stmt {
	if s.hoist != nil && s.hoist[r] {
		s.bind[r] = reg(r)
		s.defined[r] = true
		return Assign{Dst: reg(r), Src: e, Reassign: true}
	}
	s.write(r, e)
	return nil
}

// liftBlock lifts one basic block's instructions into a BlockIR, plus
// the used/defined register sets method.go needs for its liveness
// pass. hoist is nil on that first pass and the real hoist set
// (blockState's doc comment) on the second.
func liftBlock(b *Block, resolver Resolver, hoist map[uint16]bool) (BlockIR, map[uint16]bool, map[uint16]bool, error) {
	st := &blockState{
		resolver: resolver,
		bind:     map[uint16]Expr{},
		used:     map[uint16]bool{},
		defined:  map[uint16]bool{},
		hoist:    hoist,
	}
	var ir BlockIR

	for _, ins := range b.Insns {
		stmt, err := liftInstruction(st, ins, &ir)
		if err != nil {
			return ir, st.used, st.defined, err
		}
		if stmt != nil {
			ir.Stmts = append(ir.Stmts, stmt)
		}
	}
	return ir, st.used, st.defined, nil
}

func liftInstruction(st *blockState, ins dalvik.Instruction, ir *BlockIR) (Stmt, error) {
	m := ins.Mnemonic
	switch {
	case m == "nop":
		return nil, nil

	case strings.HasPrefix(m, "move-result"):
		// move-result* fused: the preceding invoke already produced an
		// Invoke expr bound nowhere (invokes are emitted as ExprStmt);
		// rewrite the last statement into an Assign when possible.
		dstReg := ins.Regs[0]
		if n := len(ir.Stmts); n > 0 {
			if es, ok := ir.Stmts[n-1].(ExprStmt); ok {
				if _, isInvoke := es.X.(Invoke); isInvoke {
					hoisted := st.hoist != nil && st.hoist[dstReg]
					ir.Stmts[n-1] = Assign{Dst: reg(dstReg), Src: es.X, Reassign: hoisted}
					if hoisted {
						st.bind[dstReg] = reg(dstReg)
					} else {
						st.bind[dstReg] = es.X
					}
					st.defined[dstReg] = true
					return nil, nil
				}
			}
		}
		if stmt := st.define(dstReg, reg(dstReg)); stmt != nil {
			return stmt, nil
		}
		return nil, nil

	case m == "move" || m == "move/from16" || m == "move/16" ||
		m == "move-wide" || m == "move-wide/from16" || m == "move-wide/16" ||
		m == "move-object" || m == "move-object/from16" || m == "move-object/16":
		src := moveSrcReg(ins)
		dst := ins.Regs[0]
		v := st.read(src)
		if stmt := st.define(dst, v); stmt != nil {
			return stmt, nil
		}
		return nil, nil // register copy, no emission unless the value escapes the block

	case m == "move-exception":
		// bound implicitly to the enclosing catch clause's variable by
		// the smali emitter / catch-clause construction. Deliberately
		// kept out of the hoist mechanism: there is no real expression
		// to reassign it from, so it stays a plain within-block bind
		// even when the exception register is read from a later block
		// in the same handler (internal/lift/trycatch.go's catch
		// variable, not a synthesized merge local).
		st.bind[ins.Regs[0]] = reg(ins.Regs[0])
		return nil, nil

	case strings.HasPrefix(m, "const"):
		return liftConst(st, ins)

	case m == "monitor-enter":
		return MonitorEnter{X: st.read(ins.Regs[0])}, nil
	case m == "monitor-exit":
		return MonitorExit{X: st.read(ins.Regs[0])}, nil

	case m == "check-cast":
		t, err := st.resolver.Type(ins.Index)
		if err != nil {
			return nil, err
		}
		v := CheckCast{Type: t, X: st.read(ins.Regs[0])}
		if stmt := st.define(ins.Regs[0], v); stmt != nil {
			return stmt, nil
		}
		return ExprStmt{X: v}, nil

	case m == "instance-of":
		t, err := st.resolver.Type(ins.Index)
		if err != nil {
			return nil, err
		}
		v := InstanceOf{Type: t, X: st.read(ins.Regs[1])}
		if stmt := st.define(ins.Regs[0], v); stmt != nil {
			return stmt, nil
		}
		return nil, nil

	case m == "array-length":
		v := ArrayLength{X: st.read(ins.Regs[1])}
		if stmt := st.define(ins.Regs[0], v); stmt != nil {
			return stmt, nil
		}
		return nil, nil

	case m == "new-instance":
		t, err := st.resolver.Type(ins.Index)
		if err != nil {
			return nil, err
		}
		if stmt := st.define(ins.Regs[0], NewInstance{Type: t}); stmt != nil {
			return stmt, nil
		}
		return nil, nil

	case m == "new-array":
		t, err := st.resolver.Type(ins.Index)
		if err != nil {
			return nil, err
		}
		v := NewArray{ElemType: t, Size: st.read(ins.Regs[1])}
		if stmt := st.define(ins.Regs[0], v); stmt != nil {
			return stmt, nil
		}
		return nil, nil

	case m == "filled-new-array" || m == "filled-new-array/range":
		t, err := st.resolver.Type(ins.Index)
		if err != nil {
			return nil, err
		}
		elems := make([]Expr, len(ins.Regs))
		for i, r := range ins.Regs {
			elems[i] = st.read(r)
		}
		// the result lands in the next move-result-object, handled
		// generically by the move-result fusion case above once this
		// is wrapped as an ExprStmt.
		return ExprStmt{X: FilledNewArray{ElemType: t, Elems: elems}}, nil

	case m == "fill-array-data":
		return liftFillArrayData(st, ins)

	case m == "throw":
		return Throw{Value: st.read(ins.Regs[0])}, nil

	case m == "return-void":
		return Return{}, nil
	case m == "return" || m == "return-wide" || m == "return-object":
		return Return{Value: st.read(ins.Regs[0])}, nil

	case m == "goto" || m == "goto/16" || m == "goto/32":
		return nil, nil // consumed by the CFG edge; structure.go rebuilds control flow

	case m == "packed-switch" || m == "sparse-switch":
		ir.SwitchValue = st.read(ins.Regs[0])
		return nil, nil

	case isIf(m):
		ir.Cond = liftCondition(st, ins)
		return nil, nil

	case strings.HasPrefix(m, "aget"):
		v := ArrayAccess{Array: st.read(ins.Regs[1]), Index: st.read(ins.Regs[2])}
		if stmt := st.define(ins.Regs[0], v); stmt != nil {
			return stmt, nil
		}
		return nil, nil
	case strings.HasPrefix(m, "aput"):
		return ArrayWrite{Array: st.read(ins.Regs[1]), Index: st.read(ins.Regs[2]), Value: st.read(ins.Regs[0])}, nil

	case strings.HasPrefix(m, "iget"):
		fa, err := liftFieldAccess(st, ins, true)
		if err != nil {
			return nil, err
		}
		if stmt := st.define(ins.Regs[0], fa); stmt != nil {
			return stmt, nil
		}
		return nil, nil
	case strings.HasPrefix(m, "iput"):
		fa, err := liftFieldAccess(st, ins, true)
		if err != nil {
			return nil, err
		}
		fieldAccess := fa.(FieldAccess)
		return FieldWrite{Target: fieldAccess.Target, Owner: fieldAccess.Owner, Name: fieldAccess.Name, Value: st.read(ins.Regs[0])}, nil

	case strings.HasPrefix(m, "sget"):
		fa, err := liftFieldAccess(st, ins, false)
		if err != nil {
			return nil, err
		}
		if stmt := st.define(ins.Regs[0], fa); stmt != nil {
			return stmt, nil
		}
		return nil, nil
	case strings.HasPrefix(m, "sput"):
		fa, err := liftFieldAccess(st, ins, false)
		if err != nil {
			return nil, err
		}
		fieldAccess := fa.(FieldAccess)
		return FieldWrite{Owner: fieldAccess.Owner, Name: fieldAccess.Name, Value: st.read(ins.Regs[0])}, nil

	case strings.HasPrefix(m, "invoke"):
		return liftInvoke(st, ins)

	case strings.HasPrefix(m, "neg-") || strings.HasPrefix(m, "not-") || strings.Contains(m, "-to-"):
		v := UnOp{Op: m, X: st.read(ins.Regs[1])}
		if stmt := st.define(ins.Regs[0], v); stmt != nil {
			return stmt, nil
		}
		return nil, nil

	case isBinop(m):
		return liftBinop(st, ins), nil

	default:
		return nil, fmt.Errorf("%w: unhandled mnemonic %q at offset 0x%x", errs.ErrLift, m, ins.Offset)
	}
}

func moveSrcReg(ins dalvik.Instruction) uint16 {
	if len(ins.Regs) >= 2 {
		return ins.Regs[1]
	}
	// */from16 and /16 variants pack the source register into Index
	// (format 22x/32x never carry a pool reference for move*).
	return uint16(ins.Index)
}

func liftConst(st *blockState, ins dalvik.Instruction) (Stmt, error) {
	dst := ins.Regs[0]
	var val Expr
	switch ins.Mnemonic {
	case "const/4", "const/16", "const", "const/high16":
		val = Const{Value: ins.Literal, Type: "int"}
	case "const-wide/16", "const-wide/32", "const-wide", "const-wide/high16":
		val = Const{Value: ins.Literal, Type: "long"}
	case "const-string", "const-string/jumbo":
		s, err := st.resolver.String(ins.Index)
		if err != nil {
			return nil, err
		}
		val = Const{Value: s, Type: "string"}
	case "const-class":
		t, err := st.resolver.Type(ins.Index)
		if err != nil {
			return nil, err
		}
		val = Const{Value: t, Type: "class"}
	case "const-method-handle", "const-method-type":
		val = Const{Value: ins.Index, Type: "methodhandle"}
	default:
		return nil, nil
	}
	return st.define(dst, val), nil
}

func liftFillArrayData(st *blockState, ins dalvik.Instruction) (Stmt, error) {
	arr := st.read(ins.Regs[0])
	na, ok := arr.(NewArray)
	if !ok {
		// the register no longer holds the new-array result this
		// payload is meant for (block-boundary case, see blockState's
		// doc comment); emit a plain statement instead of failing the
		// whole method.
		return ExprStmt{X: arr}, nil
	}
	if ins.Payload == nil {
		return nil, fmt.Errorf("%w: fill-array-data missing its payload at offset 0x%x", errs.ErrLift, ins.Offset)
	}
	na.Init = &ArrayInit{ElementWidth: ins.Payload.ElementWidth, Data: ins.Payload.Data}
	if stmt := st.define(ins.Regs[0], na); stmt != nil {
		return stmt, nil
	}
	return nil, nil
}

func liftCondition(st *blockState, ins dalvik.Instruction) Expr {
	op := ifRelation(ins.Mnemonic)
	if len(ins.Regs) == 2 {
		return Compare{Op: op, L: st.read(ins.Regs[0]), R: st.read(ins.Regs[1])}
	}
	// *z forms compare against the implicit literal 0.
	return Compare{Op: op, L: st.read(ins.Regs[0]), R: Const{Value: int64(0), Type: "int"}}
}

func ifRelation(m string) string {
	switch m {
	case "if-eq", "if-eqz":
		return "eq"
	case "if-ne", "if-nez":
		return "ne"
	case "if-lt", "if-ltz":
		return "lt"
	case "if-ge", "if-gez":
		return "ge"
	case "if-gt", "if-gtz":
		return "gt"
	case "if-le", "if-lez":
		return "le"
	}
	return "eq"
}

func liftFieldAccess(st *blockState, ins dalvik.Instruction, instance bool) (Expr, error) {
	fid, err := st.resolver.Field(ins.Index)
	if err != nil {
		return nil, err
	}
	owner, err := st.resolver.Type(uint32(fid.ClassIdx))
	if err != nil {
		return nil, err
	}
	name, err := st.resolver.String(fid.NameIdx)
	if err != nil {
		return nil, err
	}
	fieldType, err := st.resolver.Type(uint32(fid.TypeIdx))
	if err != nil {
		return nil, err
	}
	fa := FieldAccess{Owner: owner, Name: name, FieldType: fieldType}
	if instance {
		fa.Target = st.read(ins.Regs[1])
	}
	return fa, nil
}

func liftInvoke(st *blockState, ins dalvik.Instruction) (Stmt, error) {
	mid, err := st.resolver.Method(ins.Index)
	if err != nil {
		return nil, err
	}
	owner, err := st.resolver.Type(uint32(mid.ClassIdx))
	if err != nil {
		return nil, err
	}
	name, err := st.resolver.String(mid.NameIdx)
	if err != nil {
		return nil, err
	}
	proto, err := st.resolver.Proto(uint32(mid.ProtoIdx))
	if err != nil {
		return nil, err
	}
	params, err := st.resolver.ProtoParamTypes(proto)
	if err != nil {
		return nil, err
	}
	retType, err := st.resolver.Type(proto.ReturnTyIdx)
	if err != nil {
		return nil, err
	}
	desc := fmt.Sprintf("(%s)%s", strings.Join(params, ""), retType)

	kind, static := invokeKind(ins.Mnemonic)
	args := make([]Expr, len(ins.Regs))
	for i, r := range ins.Regs {
		args[i] = st.read(r)
	}

	// new-instance + invoke-direct <init> collapses into the
	// constructor call (spec.md §4.5 stage 3); the intermediate
	// register binding is dropped.
	if kind == "direct" && name == "<init>" && len(args) > 0 {
		if target, ok := args[0].(NewInstance); ok {
			target.Args = args[1:]
			if stmt := st.define(ins.Regs[0], target); stmt != nil {
				return stmt, nil
			}
			return ExprStmt{X: target}, nil
		}
	}

	inv := Invoke{Kind: kind, Owner: owner, Name: name, Desc: desc, Args: args, Static: static}
	return ExprStmt{X: inv}, nil
}

func invokeKind(m string) (kind string, static bool) {
	switch {
	case strings.HasPrefix(m, "invoke-virtual"):
		return "virtual", false
	case strings.HasPrefix(m, "invoke-super"):
		return "super", false
	case strings.HasPrefix(m, "invoke-direct"):
		return "direct", false
	case strings.HasPrefix(m, "invoke-static"):
		return "static", true
	case strings.HasPrefix(m, "invoke-interface"):
		return "interface", false
	case strings.HasPrefix(m, "invoke-polymorphic"):
		return "polymorphic", false
	case strings.HasPrefix(m, "invoke-custom"):
		return "custom", false
	}
	return "virtual", false
}

func isBinop(m string) bool {
	stem := binopStem(m)
	switch stem {
	case "add-int", "sub-int", "mul-int", "div-int", "rem-int", "and-int", "or-int", "xor-int",
		"shl-int", "shr-int", "ushr-int", "rsub-int",
		"add-long", "sub-long", "mul-long", "div-long", "rem-long", "and-long", "or-long", "xor-long",
		"shl-long", "shr-long", "ushr-long",
		"add-float", "sub-float", "mul-float", "div-float", "rem-float",
		"add-double", "sub-double", "mul-double", "div-double", "rem-double",
		"cmpl-float", "cmpg-float", "cmpl-double", "cmpg-double", "cmp-long":
		return true
	}
	return false
}

func binopStem(m string) string {
	m = strings.TrimSuffix(m, "/2addr")
	if i := strings.Index(m, "/lit"); i >= 0 {
		m = m[:i]
	}
	return m
}

func liftBinop(st *blockState, ins dalvik.Instruction) Stmt {
	stem := binopStem(ins.Mnemonic)
	var dst uint16
	var l, r Expr

	switch {
	case strings.HasSuffix(ins.Mnemonic, "/2addr"):
		dst = ins.Regs[0]
		l = st.read(ins.Regs[0])
		r = st.read(ins.Regs[1])
	case strings.Contains(ins.Mnemonic, "/lit"):
		dst = ins.Regs[0]
		l = st.read(ins.Regs[1])
		r = Const{Value: ins.Literal, Type: "int"}
		if strings.HasPrefix(stem, "rsub") {
			l, r = r, l
			stem = "sub-int"
		}
	default: // 23x
		dst = ins.Regs[0]
		l = st.read(ins.Regs[1])
		r = st.read(ins.Regs[2])
	}

	v := foldBinop(stem, l, r)
	return st.define(dst, v)
}
