package lift

import (
	"fmt"
	"sort"

	"github.com/deploymenttheory/garlic/internal/errs"
	"github.com/deploymenttheory/garlic/internal/jvmbc"
	"github.com/deploymenttheory/garlic/internal/jvmclass"
)

// JVMBlock is one basic block of a JVM method's bytecode, the
// stack-machine counterpart to Block. Offsets are bytes from the
// start of the Code attribute, matching jvmbc.Instruction.Offset and
// jvmclass.ExceptionEntry's own addressing.
type JVMBlock struct {
	ID    int
	Start uint32
	End   uint32
	Insns []jvmbc.Instruction

	Succs []int
	Preds []int

	TryStart     bool
	HandlerStart bool
}

// JVMCFG is a JVM method's control-flow graph, mirroring CFG.
type JVMCFG struct {
	Blocks    []*JVMBlock
	leaderIdx map[uint32]int
}

// BlockAt returns the block starting at offset, or -1 if none begins
// there.
func (c *JVMCFG) BlockAt(offset uint32) int {
	id, ok := c.leaderIdx[offset]
	if !ok {
		return -1
	}
	return id
}

// BuildJVMCFG partitions insns into basic blocks and links
// fall-through/branch/switch edges, the JVM-bytecode analog of
// BuildCFG. exceptions marks additional leaders at each try range's
// start/end and each handler's start, so BuildJVMTryRegions can attach
// exception coverage per block exactly like trycatch.go does for DEX.
func BuildJVMCFG(insns []jvmbc.Instruction, exceptions []jvmclass.ExceptionEntry) (*JVMCFG, error) {
	if len(insns) == 0 {
		return &JVMCFG{leaderIdx: map[uint32]int{}}, nil
	}

	idxByOffset := make(map[uint32]int, len(insns))
	for i, ins := range insns {
		idxByOffset[ins.Offset] = i
	}

	leaders := map[uint32]bool{insns[0].Offset: true}
	markLeader := func(off uint32) { leaders[off] = true }

	for i, ins := range insns {
		switch {
		case ins.Mnemonic == "goto" || ins.Mnemonic == "goto_w":
			markLeader(uint32(int64(ins.Offset) + int64(ins.Branch)))
			if i+1 < len(insns) {
				markLeader(insns[i+1].Offset)
			}
		case isJVMIf(ins.Mnemonic):
			markLeader(uint32(int64(ins.Offset) + int64(ins.Branch)))
			if i+1 < len(insns) {
				markLeader(insns[i+1].Offset)
			}
		case ins.Mnemonic == "tableswitch" || ins.Mnemonic == "lookupswitch":
			for _, target := range switchTargets(ins) {
				markLeader(uint32(int64(ins.Offset) + int64(target)))
			}
		case isJVMTerminal(ins.Mnemonic):
			if i+1 < len(insns) {
				markLeader(insns[i+1].Offset)
			}
		}
	}
	for _, e := range exceptions {
		markLeader(uint32(e.StartPC))
		if idx, ok := idxByOffset[uint32(e.EndPC)]; ok {
			markLeader(insns[idx].Offset)
		}
		markLeader(uint32(e.HandlerPC))
	}

	offsets := make([]uint32, 0, len(leaders))
	for off := range leaders {
		if _, ok := idxByOffset[off]; ok {
			offsets = append(offsets, off)
		}
	}
	sort.Slice(offsets, func(i, j int) bool { return offsets[i] < offsets[j] })

	cfg := &JVMCFG{leaderIdx: map[uint32]int{}}
	for bi, off := range offsets {
		start := idxByOffset[off]
		end := len(insns)
		if bi+1 < len(offsets) {
			end = idxByOffset[offsets[bi+1]]
		}
		blk := &JVMBlock{ID: bi, Start: off, Insns: append([]jvmbc.Instruction(nil), insns[start:end]...)}
		if end > start {
			last := insns[end-1]
			blk.End = last.Offset + last.Width
		} else {
			blk.End = off
		}
		cfg.Blocks = append(cfg.Blocks, blk)
		cfg.leaderIdx[off] = bi
	}
	for _, e := range exceptions {
		if id := cfg.BlockAt(uint32(e.StartPC)); id >= 0 {
			cfg.Blocks[id].TryStart = true
		}
		if id := cfg.BlockAt(uint32(e.HandlerPC)); id >= 0 {
			cfg.Blocks[id].HandlerStart = true
		}
	}

	if err := cfg.linkEdges(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *JVMCFG) linkEdges() error {
	addEdge := func(from, to int) {
		c.Blocks[from].Succs = append(c.Blocks[from].Succs, to)
		c.Blocks[to].Preds = append(c.Blocks[to].Preds, from)
	}
	for _, b := range c.Blocks {
		if len(b.Insns) == 0 {
			continue
		}
		last := b.Insns[len(b.Insns)-1]
		switch {
		case isJVMTerminal(last.Mnemonic):
			// terminal, no successors
		case last.Mnemonic == "goto" || last.Mnemonic == "goto_w":
			target := uint32(int64(last.Offset) + int64(last.Branch))
			id := c.BlockAt(target)
			if id < 0 {
				return fmt.Errorf("%w: goto target %d has no block", errs.ErrLift, target)
			}
			addEdge(b.ID, id)
		case isJVMIf(last.Mnemonic):
			target := uint32(int64(last.Offset) + int64(last.Branch))
			id := c.BlockAt(target)
			if id < 0 {
				return fmt.Errorf("%w: branch target %d has no block", errs.ErrLift, target)
			}
			addEdge(b.ID, id)
			if next := c.BlockAt(b.End); next >= 0 {
				addEdge(b.ID, next)
			}
		case last.Mnemonic == "tableswitch" || last.Mnemonic == "lookupswitch":
			for _, target := range switchTargets(last) {
				abs := uint32(int64(last.Offset) + int64(target))
				if id := c.BlockAt(abs); id >= 0 {
					addEdge(b.ID, id)
				}
			}
		default:
			if next := c.BlockAt(b.End); next >= 0 {
				addEdge(b.ID, next)
			}
		}
	}
	return nil
}

func switchTargets(ins jvmbc.Instruction) []int32 {
	if ins.Switch == nil {
		return nil
	}
	out := append([]int32{ins.Switch.Default}, ins.Switch.Targets...)
	return out
}

func isJVMTerminal(m string) bool {
	switch m {
	case "ireturn", "lreturn", "freturn", "dreturn", "areturn", "return", "athrow":
		return true
	}
	return false
}

func isJVMIf(m string) bool {
	switch m {
	case "ifeq", "ifne", "iflt", "ifge", "ifgt", "ifle",
		"if_icmpeq", "if_icmpne", "if_icmplt", "if_icmpge", "if_icmpgt", "if_icmple",
		"if_acmpeq", "if_acmpne", "ifnull", "ifnonnull":
		return true
	}
	return false
}
