package lift

import (
	"sort"

	"github.com/deploymenttheory/garlic/internal/dalvik"
)

// structurer recovers nested control flow from a CFG by walking blocks
// in reverse-post-order and recognizing loop, if/else, and switch
// shapes at each decision point, per spec.md §4.5 stage 4. Anything it
// can't place safely falls back to a synthesized goto/label pair
// rather than risk misrendering the method.
type structurer struct {
	cfg   *CFG
	irs   map[int]BlockIR
	dom   *dominance
	pdom  *dominance
	loops map[int]*loop
	tries []TryRegion

	rendered   map[int]bool // blocks already emitted somewhere
	needsLabel map[int]bool
}

// Structure renders cfg's blocks into a nested statement tree. loops
// and tries are findLoops/BuildTryRegions' output; dom/pdom are
// computed over cfg.Blocks by computeDominance and
// buildReverseGraphWithExit respectively.
func Structure(cfg *CFG, irs map[int]BlockIR, dom, pdom *dominance, loops map[int]*loop, tries []TryRegion) []Stmt {
	if len(cfg.Blocks) == 0 {
		return nil
	}
	sorted := append([]TryRegion(nil), tries...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].StartBlock < sorted[j].StartBlock })

	s := &structurer{
		cfg: cfg, irs: irs, dom: dom, pdom: pdom, loops: loops, tries: sorted,
		rendered:   map[int]bool{},
		needsLabel: map[int]bool{},
	}
	body := s.renderRange(0, -1)

	// Any block the walk never reached (an irreducible or
	// cross-jumped-into block) still has to appear somewhere; append
	// it as a labeled tail so no instruction is silently dropped.
	for _, b := range cfg.Blocks {
		if !s.rendered[b.ID] {
			body = append(body, s.renderStray(b.ID)...)
		}
	}
	return pairMonitors(body)
}

// renderRange renders blocks starting at start, following fall-through/
// structured-successor order, stopping before reaching stop (stop ==
// -1 means render until there is nothing left to follow). A block that
// opens a try region renders the region's whole span as one TryCatch
// before continuing past it.
func (s *structurer) renderRange(start, stop int) []Stmt {
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

func (s *structurer) tryStartingAt(id int) (TryRegion, bool) {
	for _, r := range s.tries {
		if r.StartBlock == id {
			return r, true
		}
	}
	return TryRegion{}, false
}

// renderTry renders a try region's body (stopping at EndBlock) plus
// its catch clauses (each handler's own blocks, stopping at the same
// merge point as the try body since javac routes both paths back to
// one continuation).
func (s *structurer) renderTry(r TryRegion) (Stmt, int) {
	body := s.renderRange(r.StartBlock, r.EndBlock)

	tc := TryCatch{Body: body}
	for _, h := range r.Handlers {
		if s.rendered[h.BlockID] {
			continue // shared handler block already rendered for an earlier region
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

// renderBlock emits one block's own statements plus, if it ends in a
// branch, the structured form of that branch (If/Switch). It returns
// the block id execution should continue from after the structured
// construct (-1 if none, i.e. the block was terminal).
func (s *structurer) renderBlock(id int) ([]Stmt, int) {
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

// renderSwitchCases renders each packed/sparse-switch arm from its
// decoded payload: packed-switch keys are FirstKey+index, sparse-switch
// keys come straight from Payload.Keys. The fall-through successor
// (present whenever no case matches) becomes Default.
func (s *structurer) renderSwitchCases(b *Block, merge int) ([]SwitchCase, []Stmt) {
	last := b.Insns[len(b.Insns)-1]
	payload := s.cfg.SwitchPayload(last.Offset)
	if payload == nil {
		return nil, nil
	}
	cases := make([]SwitchCase, 0, len(payload.Targets))
	for i, target := range payload.Targets {
		key := payloadKey(payload, i)
		abs := uint32(int64(last.Offset) + int64(target))
		blockID := s.cfg.BlockAt(abs)
		if blockID < 0 {
			continue
		}
		cases = append(cases, SwitchCase{Key: key, Body: s.renderRange(blockID, merge)})
	}
	var def []Stmt
	if fallthrough_ := s.cfg.BlockAt(b.End); fallthrough_ >= 0 && fallthrough_ != merge {
		def = s.renderRange(fallthrough_, merge)
	}
	return cases, def
}

func payloadKey(p *dalvik.Payload, i int) int32 {
	if p.Kind == "sparse-switch" && i < len(p.Keys) {
		return p.Keys[i]
	}
	return p.FirstKey + int32(i)
}

// mergePoint picks the block where id's two or more structured
// branches reconverge: its immediate post-dominator. -1 (the synthetic
// exit) means the branches never reconverge within the method (every
// arm returns/throws).
func (s *structurer) mergePoint(id int) int {
	if id >= len(s.pdom.idom) {
		return -1
	}
	m := s.pdom.idom[id]
	if m == len(s.cfg.Blocks) { // synthetic exit node
		return -1
	}
	return m
}

// renderLoop classifies header's loop as while (condition tested at
// the header, before the body) or do-while (condition tested at the
// tail, after the body) per whether the header itself ends in the
// loop's controlling if, and renders its body.
func (s *structurer) renderLoop(l *loop) (Stmt, int) {
	s.rendered[l.Header] = true
	headerBlock := s.cfg.Blocks[l.Header]
	headerIR := s.irs[l.Header]
	merge := s.mergePoint(l.Header)

	if headerIR.Cond != nil && len(headerBlock.Succs) == 2 {
		// while: header tests the condition; one successor re-enters
		// the loop body, the other leaves it.
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
	body = append(body, s.renderLoopBody(firstSucc(headerBlock), l)...)
	tailIR := s.irs[l.Tail]
	if tailIR.Cond != nil {
		return DoWhile{Cond: tailIR.Cond, Body: body}, merge
	}
	// no recoverable condition (e.g. an infinite loop with an internal
	// break): model as while(true).
	return While{Cond: Const{Value: int64(1), Type: "int"}, Body: body}, merge
}

func firstSucc(b *Block) int {
	if len(b.Succs) == 0 {
		return -1
	}
	return b.Succs[0]
}

// renderLoopBody renders every block in l.Body reachable from entry,
// stopping at the header (back edge) or at a block outside the loop
// (an exit edge is left as a goto since spec.md doesn't ask for
// break/continue recovery).
func (s *structurer) renderLoopBody(entry int, l *loop) []Stmt {
	var out []Stmt
	cur := entry
	for cur >= 0 && cur != l.Header && !s.rendered[cur] {
		if !l.Body[cur] {
			// branches out of the loop entirely; represent as a goto
			// to a label rendered at its natural place in the outer walk.
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

func blockLabel(id int) string {
	return "block_" + itoa(id)
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

// renderStray emits a block the main walk never reached, labeled so
// any goto referring to it still resolves.
func (s *structurer) renderStray(id int) []Stmt {
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
