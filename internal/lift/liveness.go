package lift

// computeLiveOut runs backward register liveness over a CFG: for each
// block, the set of registers some successor reads before it
// redefines them. blockIDs is every block id, succs its outgoing-edge
// table, and use/def are gathered per block by a dry per-block lift
// pass (method.go's Dalvik pass, jvmmethod.go's JVM local-slot pass),
// grounded on spec.md §4.5 stage 2's "walk basic blocks in reverse
// post-order, joining register state from predecessors" — implemented
// here as the standard backward dataflow fixpoint, since a forward
// walk alone can't tell a block that a register it defines is still
// needed by a not-yet-visited successor. Deliberately free of the
// Dalvik-specific *CFG/*Block types so the DEX and JVM lifters (both
// components spec.md §2 marks as shared) can run the identical pass
// over their own block shapes.
func computeLiveOut(blockIDs []int, succs map[int][]int, use, def map[int]map[uint16]bool) map[int]map[uint16]bool {
	liveOut := make(map[int]map[uint16]bool, len(blockIDs))
	for _, id := range blockIDs {
		liveOut[id] = map[uint16]bool{}
	}
	if len(blockIDs) == 0 {
		return liveOut
	}

	g := &graph{succ: make([][]int, len(blockIDs)), pred: make([][]int, len(blockIDs))}
	idIndex := make(map[int]int, len(blockIDs))
	for i, id := range blockIDs {
		idIndex[id] = i
	}
	for _, id := range blockIDs {
		for _, s := range succs[id] {
			g.succ[idIndex[id]] = append(g.succ[idIndex[id]], idIndex[s])
			g.pred[idIndex[s]] = append(g.pred[idIndex[s]], idIndex[id])
		}
	}
	rpo := reversePostOrder(g, 0)
	order := make([]int, len(rpo))
	for i, n := range rpo {
		order[i] = blockIDs[n]
	}

	changed := true
	for changed {
		changed = false
		for i := len(order) - 1; i >= 0; i-- {
			id := order[i]
			next := map[uint16]bool{}
			for _, s := range succs[id] {
				for r := range use[s] {
					next[r] = true
				}
				for r := range liveOut[s] {
					if !def[s][r] {
						next[r] = true
					}
				}
			}
			if !sameRegSet(next, liveOut[id]) {
				liveOut[id] = next
				changed = true
			}
		}
	}
	return liveOut
}

func sameRegSet(a, b map[uint16]bool) bool {
	if len(a) != len(b) {
		return false
	}
	for r := range a {
		if !b[r] {
			return false
		}
	}
	return true
}

// hoistRegisters picks every register that is both defined by some
// block and still live when that block ends: its value has to be
// visible under one shared name past that block's own boundary. Those
// registers get one Decl hoisted to the top of the method (method.go)
// rather than an inline declaration at their first definition, since
// more than one block can define the same register (each arm of an
// if/else, a loop counter) and Java doesn't allow redeclaring a name
// in a shared successor scope.
func hoistRegisters(blockIDs []int, def, liveOut map[int]map[uint16]bool) map[uint16]bool {
	hoist := map[uint16]bool{}
	for _, id := range blockIDs {
		for r := range def[id] {
			if liveOut[id][r] {
				hoist[r] = true
			}
		}
	}
	return hoist
}
