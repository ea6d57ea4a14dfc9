package lift

import (
	"github.com/deploymenttheory/garlic/internal/jvmbc"
	"github.com/deploymenttheory/garlic/internal/jvmclass"
)

// LiftJVMMethod is LiftMethod's JVM-bytecode counterpart: decode ->
// CFG partitioning -> dominance/post-dominance -> natural-loop
// detection -> two-pass operand lifting with cross-block local-slot
// join -> structured recovery, over a Code attribute's stack-machine
// bytecode instead of a Dalvik register-machine code_item. Returns the
// same []Stmt shape LiftMethod does, so internal/decompile/render.go's
// renderBody renders either lifter's output unchanged.
func LiftJVMMethod(ca *jvmclass.CodeAttribute, methodIdx int, resolver JVMResolver) ([]Stmt, error) {
	if ca == nil {
		return nil, nil // abstract/native: no Code attribute at all
	}

	insns, err := jvmbc.Decode(ca.Code)
	if err != nil {
		return nil, &LiftError{MethodIdx: uint32(methodIdx), Err: err}
	}

	cfg, err := BuildJVMCFG(insns, ca.ExceptionTbl)
	if err != nil {
		return nil, &LiftError{MethodIdx: uint32(methodIdx), Err: err}
	}
	if len(cfg.Blocks) == 0 {
		return nil, nil
	}

	tries, err := BuildJVMTryRegions(cfg, ca.ExceptionTbl, resolver)
	if err != nil {
		return nil, &LiftError{MethodIdx: uint32(methodIdx), Err: err}
	}

	use := make(map[int]map[uint16]bool, len(cfg.Blocks))
	def := make(map[int]map[uint16]bool, len(cfg.Blocks))
	for _, b := range cfg.Blocks {
		_, u, d, err := liftJVMBlock(b, resolver, nil)
		if err != nil {
			return nil, &LiftError{MethodIdx: uint32(methodIdx), Offset: b.Start, Err: err}
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
		ir, _, _, err := liftJVMBlock(b, resolver, hoist)
		if err != nil {
			return nil, &LiftError{MethodIdx: uint32(methodIdx), Offset: b.Start, Err: err}
		}
		irs[b.ID] = ir
	}

	dom := computeDominance(buildJVMGraph(cfg.Blocks), 0)
	revGraph, exit := buildJVMReverseGraphWithExit(cfg.Blocks)
	pdom := computeDominance(revGraph, exit)
	loops := findJVMLoops(cfg.Blocks, dom)

	body := StructureJVM(cfg, irs, dom, pdom, loops, tries)
	return append(hoistDecls(hoist), body...), nil
}
