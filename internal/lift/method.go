package lift

import (
	"fmt"
	"sort"

	"github.com/deploymenttheory/garlic/internal/arena"
	"github.com/deploymenttheory/garlic/internal/dalvik"
	"github.com/deploymenttheory/garlic/internal/dex"
)

// LiftError is returned by LiftMethod when decoding, CFG construction,
// or operation lifting fails anywhere in the method. Per spec.md §4.5
// ("Failure"), the caller responds by emitting a Stub carrying the raw
// Smali text instead of aborting the whole class.
type LiftError struct {
	MethodIdx uint32
	Offset    uint32
	Err       error
}

func (e *LiftError) Error() string {
	return fmt.Sprintf("lift method %d at offset 0x%x: %v", e.MethodIdx, e.Offset, e.Err)
}

func (e *LiftError) Unwrap() error { return e.Err }

// LiftMethod decodes code's instruction stream and recovers a
// structured statement tree for it: CFG partitioning, dominance and
// post-dominance, natural-loop detection, per-block operation lifting,
// try/catch region resolution, and finally structured recovery
// (stage 4). Any failure along the way is wrapped in a *LiftError so
// the caller can fall back to a Smali-backed Stub instead of dropping
// the method.
//
// Register values crossing a block boundary need a real join per
// spec.md §4.5 stage 2: Dalvik's register numbering gives every value
// slot one stable name, but Java still requires that name declared
// exactly once, in a scope that dominates every block that reads it.
// LiftMethod lifts each block twice. The first, "dry" pass (hoist nil)
// runs purely to collect each block's used/defined register sets;
// computeLiveOut/hoistRegisters turn those into the set of registers
// whose value is defined in one block and still live when it ends —
// exactly the registers a predecessor-join would otherwise need a phi
// for. The second, real pass re-lifts every block with that hoist set,
// so blockState.define emits a plain reassignment instead of folding
// silently into its per-block bind cache wherever a register escapes.
// hoistDecls then prepends one Decl per hoisted register to the
// method's structured body, giving every merge local its single
// declaration site.
func LiftMethod(code *dex.CodeItem, methodIdx uint32, resolver Resolver, a *arena.Arena) ([]Stmt, error) {
	if code == nil {
		return nil, nil // abstract/native: no code_item at all
	}

	insns, err := dalvik.Decode(code.Insns, a)
	if err != nil {
		return nil, &LiftError{MethodIdx: methodIdx, Err: err}
	}

	cfg, err := BuildCFG(insns, code.Tries, code.Handlers)
	if err != nil {
		return nil, &LiftError{MethodIdx: methodIdx, Err: err}
	}
	if len(cfg.Blocks) == 0 {
		return nil, nil
	}

	tries, err := BuildTryRegions(cfg, code, resolver)
	if err != nil {
		return nil, &LiftError{MethodIdx: methodIdx, Err: err}
	}

	use := make(map[int]map[uint16]bool, len(cfg.Blocks))
	def := make(map[int]map[uint16]bool, len(cfg.Blocks))
	for _, b := range cfg.Blocks {
		_, u, d, err := liftBlock(b, resolver, nil)
		if err != nil {
			return nil, &LiftError{MethodIdx: methodIdx, Offset: b.Start, Err: err}
		}
		use[b.ID] = u
		def[b.ID] = d
	}
	blockIDs := make([]int, len(cfg.Blocks))
	succs := make(map[int][]int, len(cfg.Blocks))
	for i, b := range cfg.Blocks {
		blockIDs[i] = b.ID
		succs[b.ID] = b.Succs
	}
	liveOut := computeLiveOut(blockIDs, succs, use, def)
	hoist := hoistRegisters(blockIDs, def, liveOut)

	irs := make(map[int]BlockIR, len(cfg.Blocks))
	for _, b := range cfg.Blocks {
		ir, _, _, err := liftBlock(b, resolver, hoist)
		if err != nil {
			return nil, &LiftError{MethodIdx: methodIdx, Offset: b.Start, Err: err}
		}
		irs[b.ID] = ir
	}

	dom := computeDominance(buildGraph(cfg.Blocks), 0)
	revGraph, exit := buildReverseGraphWithExit(cfg.Blocks)
	pdom := computeDominance(revGraph, exit)
	loops := findLoops(cfg.Blocks, dom)

	body := Structure(cfg, irs, dom, pdom, loops, tries)
	return append(hoistDecls(hoist), body...), nil
}

// hoistDecls returns one Decl per hoisted register, in ascending
// register order for deterministic output.
func hoistDecls(hoist map[uint16]bool) []Stmt {
	if len(hoist) == 0 {
		return nil
	}
	regs := make([]uint16, 0, len(hoist))
	for r := range hoist {
		regs = append(regs, r)
	}
	sort.Slice(regs, func(i, j int) bool { return regs[i] < regs[j] })

	decls := make([]Stmt, 0, len(regs))
	for _, r := range regs {
		decls = append(decls, Decl{Local: reg(r)})
	}
	return decls
}
