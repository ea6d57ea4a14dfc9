package lift

import (
	"fmt"
	"sort"

	"github.com/deploymenttheory/garlic/internal/errs"
	"github.com/deploymenttheory/garlic/internal/jvmclass"
)

// findJVMLoops is loops.go's findLoops adapted to JVMBlock: same
// single-back-edge-dominates-source rule, same body-collection walk,
// duplicated rather than generalized because a shared version would
// need either an interface over Block/JVMBlock's Preds/Succs or a
// slice-of-ids indirection neither existing caller wants to pay for.
func findJVMLoops(blocks []*JVMBlock, dom *dominance) map[int]*loop {
	loops := make(map[int]*loop)
	for _, b := range blocks {
		for _, s := range b.Succs {
			if !dom.dominates(s, b.ID) {
				continue
			}
			header := s
			l, ok := loops[header]
			if !ok {
				l = &loop{Header: header, Tail: b.ID, Body: map[int]bool{header: true}}
				loops[header] = l
			}
			l.Body[b.ID] = true
			collectJVMLoopBody(blocks, header, b.ID, l.Body)
		}
	}
	return loops
}

func collectJVMLoopBody(blocks []*JVMBlock, header, tail int, body map[int]bool) {
	if body[tail] {
		return
	}
	stack := []int{tail}
	seen := map[int]bool{tail: true, header: true}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		body[n] = true
		for _, p := range blocks[n].Preds {
			if seen[p] {
				continue
			}
			seen[p] = true
			stack = append(stack, p)
		}
	}
}

func buildJVMGraph(blocks []*JVMBlock) *graph {
	g := &graph{succ: make([][]int, len(blocks)), pred: make([][]int, len(blocks))}
	for _, b := range blocks {
		g.succ[b.ID] = append([]int(nil), b.Succs...)
		g.pred[b.ID] = append([]int(nil), b.Preds...)
	}
	return g
}

// buildJVMReverseGraphWithExit is buildReverseGraphWithExit adapted to
// JVMBlock, for computing post-dominance over a JVM method's CFG.
func buildJVMReverseGraphWithExit(blocks []*JVMBlock) (*graph, int) {
	exit := len(blocks)
	g := &graph{succ: make([][]int, len(blocks)+1), pred: make([][]int, len(blocks)+1)}
	for _, b := range blocks {
		for _, s := range b.Succs {
			g.succ[s] = append(g.succ[s], b.ID)
			g.pred[b.ID] = append(g.pred[b.ID], s)
		}
		if len(b.Succs) == 0 {
			g.succ[exit] = append(g.succ[exit], b.ID)
			g.pred[b.ID] = append(g.pred[b.ID], exit)
		}
	}
	return g, exit
}

// BuildJVMTryRegions resolves a Code attribute's exception table
// against cfg's basic blocks. Unlike Dalvik's shared-handler-list
// encoding (trycatch.go), the class file format already lists one
// flat entry per try-range/catch-type pair, so entries are grouped by
// their (StartPC, EndPC) span to recover the catch clauses a single
// try covers.
func BuildJVMTryRegions(cfg *JVMCFG, exceptions []jvmclass.ExceptionEntry, resolver JVMResolver) ([]TryRegion, error) {
	if len(exceptions) == 0 {
		return nil, nil
	}
	type span struct{ start, end uint16 }
	var order []span
	seen := map[span]bool{}
	byRange := map[span][]jvmclass.ExceptionEntry{}
	for _, e := range exceptions {
		k := span{e.StartPC, e.EndPC}
		if !seen[k] {
			seen[k] = true
			order = append(order, k)
		}
		byRange[k] = append(byRange[k], e)
	}

	regions := make([]TryRegion, 0, len(order))
	for _, k := range order {
		startBlock := cfg.BlockAt(uint32(k.start))
		if startBlock < 0 {
			return nil, fmt.Errorf("%w: try start %d has no block", errs.ErrLift, k.start)
		}
		endBlock := cfg.BlockAt(uint32(k.end)) // -1 if the try runs to method end, same convention as trycatch.go

		clauses := make([]CaughtType, 0, len(byRange[k]))
		for _, e := range byRange[k] {
			blockID := cfg.BlockAt(uint32(e.HandlerPC))
			if blockID < 0 {
				return nil, fmt.Errorf("%w: catch handler at %d has no block", errs.ErrLift, e.HandlerPC)
			}
			if e.CatchType == 0 {
				clauses = append(clauses, CaughtType{Type: "", BlockID: blockID})
				continue
			}
			typeName, err := resolver.ClassRef(e.CatchType)
			if err != nil {
				return nil, fmt.Errorf("%w: catch type: %v", errs.ErrLift, err)
			}
			clauses = append(clauses, CaughtType{Type: typeName, BlockID: blockID})
		}
		regions = append(regions, TryRegion{StartBlock: startBlock, EndBlock: endBlock, Handlers: clauses})
	}
	return regions, nil
}

// jvmStructurer is structure.go's structurer adapted to JVMBlock/
// JVMCFG. The recovery shape (walk in reverse-post-order, recognize
// loop/if-else/switch/try at each decision point, fall back to
// goto/label) is identical; only the block/CFG accessors differ, so
// this is kept as its own type rather than folded into structurer,
// which would need an interface over Block vs JVMBlock's Succs/Preds/
// Insns for no behavioral gain.
type jvmStructurer struct {
	cfg   *JVMCFG
	irs   map[int]BlockIR
	dom   *dominance
	pdom  *dominance
	loops map[int]*loop
	tries []TryRegion

	rendered   map[int]bool
	needsLabel map[int]bool
}

// StructureJVM is Structure adapted to a JVM method's CFG; see
// Structure's doc comment for the algorithm.
func StructureJVM(cfg *JVMCFG, irs map[int]BlockIR, dom, pdom *dominance, loops map[int]*loop, tries []TryRegion) []Stmt {
	if len(cfg.Blocks) == 0 {
		return nil
	}
	sorted := append([]TryRegion(nil), tries...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].StartBlock < sorted[j].StartBlock })

	s := &jvmStructurer{
		cfg: cfg, irs: irs, dom: dom, pdom: pdom, loops: loops, tries: sorted,
		rendered:   map[int]bool{},
		needsLabel: map[int]bool{},
	}
	body := s.renderRange(0, -1)

	for _, b := range cfg.Blocks {
		if !s.rendered[b.ID] {
			body = append(body, s.renderStray(b.ID)...)
		}
	}
	return pairMonitors(body)
}

func (s *jvmStructurer) renderRange(start, stop int) []Stmt {
	var out []Stmt
	cur := start
	for cur >= 0 && cur != stop && !s.rendered[cur] {
		if r, ok := s.tryStartingAt(cur); ok {
			stmt, next := s.renderTry(r)
			out = append(out, stmt)
			cur = next
			continue
		}
		if l, ok := s.loops[cur]; ok && l.Header == cur {
			stmt, next := s.renderLoop(l)
			out = append(out, stmt)
			cur = next
			continue
		}
		stmts, next := s.renderBlock(cur)
		out = append(out, stmts...)
		cur = next
	}
	return out
}

func (s *jvmStructurer) tryStartingAt(id int) (TryRegion, bool) {
	for _, r := range s.tries {
		if r.StartBlock == id {
			return r, true
		}
	}
	return TryRegion{}, false
}

func (s *jvmStructurer) renderTry(r TryRegion) (Stmt, int) {
	body := s.renderRange(r.StartBlock, r.EndBlock)

	tc := TryCatch{Body: body}
	for _, h := range r.Handlers {
		if s.rendered[h.BlockID] {
			continue
		}
		clauseBody := s.renderRange(h.BlockID, r.EndBlock)
		if h.Type == "" {
			tc.CatchAll = clauseBody
		} else {
			tc.Handlers = append(tc.Handlers, CatchClause{Type: h.Type, Body: clauseBody})
		}
	}
	return tc, r.EndBlock
}

func (s *jvmStructurer) renderBlock(id int) ([]Stmt, int) {
	s.rendered[id] = true
	b := s.cfg.Blocks[id]
	ir := s.irs[id]
	out := append([]Stmt(nil), ir.Stmts...)
	if s.needsLabel[id] {
		out = append([]Stmt{Label{Name: blockLabel(id)}}, out...)
	}

	switch {
	case ir.Cond != nil && len(b.Succs) == 2:
		thenID, elseID := b.Succs[0], b.Succs[1]
		merge := s.mergePoint(id)
		thenBody := s.renderRange(thenID, merge)
		var elseBody []Stmt
		if elseID != merge {
			elseBody = s.renderRange(elseID, merge)
		}
		out = append(out, If{Cond: ir.Cond, Then: thenBody, Else: elseBody})
		return out, merge

	case ir.SwitchValue != nil:
		merge := s.mergePoint(id)
		cases, def := s.renderSwitchCases(b, merge)
		out = append(out, Switch{Value: ir.SwitchValue, Cases: cases, Default: def})
		return out, merge

	case len(b.Succs) == 1:
		return out, b.Succs[0]

	default:
		return out, -1
	}
}

// renderSwitchCases renders one tableswitch/lookupswitch block's arms
// straight from its decoded jvmbc.SwitchPayload: table cases are keyed
// by Low+index, lookup cases by the parallel Keys slice. Targets/
// Default are offsets relative to the switch instruction itself (JVM
// spec §6.5), so they're resolved against last.Offset before looking
// up the block.
func (s *jvmStructurer) renderSwitchCases(b *JVMBlock, merge int) ([]SwitchCase, []Stmt) {
	last := b.Insns[len(b.Insns)-1]
	payload := last.Switch
	if payload == nil {
		return nil, nil
	}
	cases := make([]SwitchCase, 0, len(payload.Targets))
	for i, target := range payload.Targets {
		var key int32
		if payload.Kind == "lookup" && i < len(payload.Keys) {
			key = payload.Keys[i]
		} else {
			key = payload.Low + int32(i)
		}
		abs := uint32(int64(last.Offset) + int64(target))
		blockID := s.cfg.BlockAt(abs)
		if blockID < 0 {
			continue
		}
		cases = append(cases, SwitchCase{Key: key, Body: s.renderRange(blockID, merge)})
	}
	var def []Stmt
	defAbs := uint32(int64(last.Offset) + int64(payload.Default))
	if defBlock := s.cfg.BlockAt(defAbs); defBlock >= 0 && defBlock != merge {
		def = s.renderRange(defBlock, merge)
	}
	return cases, def
}

func (s *jvmStructurer) mergePoint(id int) int {
	if id >= len(s.pdom.idom) {
		return -1
	}
	m := s.pdom.idom[id]
	if m == len(s.cfg.Blocks) {
		return -1
	}
	return m
}

func (s *jvmStructurer) renderLoop(l *loop) (Stmt, int) {
	s.rendered[l.Header] = true
	headerBlock := s.cfg.Blocks[l.Header]
	headerIR := s.irs[l.Header]
	merge := s.mergePoint(l.Header)

	if headerIR.Cond != nil && len(headerBlock.Succs) == 2 {
		var bodyEntry int
		if l.Body[headerBlock.Succs[0]] {
			bodyEntry = headerBlock.Succs[0]
		} else {
			bodyEntry = headerBlock.Succs[1]
		}
		body := s.renderLoopBody(bodyEntry, l)
		return While{Cond: headerIR.Cond, Body: append(append([]Stmt(nil), headerIR.Stmts...), body...)}, merge
	}

	body := append([]Stmt(nil), headerIR.Stmts...)
	body = append(body, s.renderLoopBody(firstJVMSucc(headerBlock), l)...)
	tailIR := s.irs[l.Tail]
	if tailIR.Cond != nil {
		return DoWhile{Cond: tailIR.Cond, Body: body}, merge
	}
	return While{Cond: Const{Value: int64(1), Type: "int"}, Body: body}, merge
}

func firstJVMSucc(b *JVMBlock) int {
	if len(b.Succs) == 0 {
		return -1
	}
	return b.Succs[0]
}

func (s *jvmStructurer) renderLoopBody(entry int, l *loop) []Stmt {
	var out []Stmt
	cur := entry
	for cur >= 0 && cur != l.Header && !s.rendered[cur] {
		if !l.Body[cur] {
			s.needsLabel[cur] = true
			out = append(out, Goto{Label: blockLabel(cur)})
			return out
		}
		if inner, ok := s.loops[cur]; ok && inner.Header == cur && inner != l {
			stmt, next := s.renderLoop(inner)
			out = append(out, stmt)
			cur = next
			continue
		}
		stmts, next := s.renderBlock(cur)
		out = append(out, stmts...)
		if next == l.Header {
			return out
		}
		cur = next
	}
	return out
}

func (s *jvmStructurer) renderStray(id int) []Stmt {
	if s.rendered[id] {
		return nil
	}
	stmts, next := s.renderBlock(id)
	out := append([]Stmt{Label{Name: blockLabel(id)}}, stmts...)
	if next >= 0 && !s.rendered[next] {
		out = append(out, s.renderStray(next)...)
	}
	return out
}
