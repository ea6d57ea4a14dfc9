// Package lift implements the expression lifter of spec.md §4.5: basic
// block partitioning, reverse-post-order register symbolic execution,
// per-instruction operation lifting, try/catch reconstruction, and
// structured control-flow recovery over a decoded Dalvik instruction
// sequence.
//
// Grounded on zboralski-unflutter/internal/cluster and
// internal/callgraph's general shape ("linear decode -> typed
// mid-level model -> structure recovery"); the Dalvik-specific
// semantics (register symbolic execution, monitor pairing, try/catch
// mapping) have no examples-pack analog and are grounded on spec.md
// §4.5 directly.
package lift

import (
	"fmt"
	"sort"

	"github.com/deploymenttheory/garlic/internal/dalvik"
	"github.com/deploymenttheory/garlic/internal/dex"
	"github.com/deploymenttheory/garlic/internal/errs"
)

// Block is one basic block: a maximal straight-line run of
// instructions with a single entry and a single exit.
type Block struct {
	ID    int
	Start uint32 // code-unit offset of the first instruction
	End   uint32 // code-unit offset one past the last instruction
	Insns []dalvik.Instruction

	Succs []int
	Preds []int

	TryStart     bool
	HandlerStart bool
}

// CFG is a method's control-flow graph plus the index needed to map a
// branch-target offset back to the block that begins there.
type CFG struct {
	Blocks    []*Block
	leaderIdx map[uint32]int // leader offset -> block id

	// switches maps a packed-switch/sparse-switch instruction's own
	// offset to the absolute code-unit offsets of its case targets,
	// resolved once while the full instruction list (payloads
	// included) is still at hand.
	switches map[uint32][]uint32

	// payloads maps the same switch instruction offset to its decoded
	// payload, so structure.go can recover each case's key.
	payloads map[uint32]*dalvik.Payload
}

// BlockAt returns the block starting at the given code-unit offset, or
// -1 if no block begins there.
func (c *CFG) BlockAt(offset uint32) int {
	id, ok := c.leaderIdx[offset]
	if !ok {
		return -1
	}
	return id
}

// SwitchPayload returns the decoded packed-switch/sparse-switch payload
// for the switch instruction at the given offset, or nil if none.
func (c *CFG) SwitchPayload(switchOffset uint32) *dalvik.Payload {
	return c.payloads[switchOffset]
}

// BuildCFG partitions insns into basic blocks per spec.md §4.5 stage 1
// and links fall-through/branch/switch edges. tries/handlers mark
// additional leaders at try and handler starts so reconstruction in
// trycatch.go can attach coverage per block. insns is Decode's full
// output, including payload pseudo-instructions.
func BuildCFG(insns []dalvik.Instruction, tries []dex.TryItem, handlers []dex.EncodedCatchHandler) (*CFG, error) {
	if len(insns) == 0 {
		return &CFG{leaderIdx: map[uint32]int{}, switches: map[uint32][]uint32{}, payloads: map[uint32]*dalvik.Payload{}}, nil
	}

	idxByOffset := make(map[uint32]int, len(insns)) // instruction offset -> index into insns
	for i, ins := range insns {
		idxByOffset[ins.Offset] = i
	}

	switches := make(map[uint32][]uint32)
	payloads := make(map[uint32]*dalvik.Payload)
	for _, ins := range insns {
		if ins.Mnemonic != "packed-switch" && ins.Mnemonic != "sparse-switch" {
			continue
		}
		payloadOff := uint32(int64(ins.Offset) + int64(ins.Branch))
		idx, ok := idxByOffset[payloadOff]
		if !ok || insns[idx].Payload == nil {
			continue
		}
		targets := make([]uint32, 0, len(insns[idx].Payload.Targets))
		for _, t := range insns[idx].Payload.Targets {
			targets = append(targets, uint32(int64(ins.Offset)+int64(t)))
		}
		switches[ins.Offset] = targets
		payloads[ins.Offset] = insns[idx].Payload
	}

	leaders := map[uint32]bool{insns[0].Offset: true}
	markLeader := func(target uint32) { leaders[target] = true }

	for i, ins := range insns {
		switch {
		case ins.Mnemonic == "goto" || ins.Mnemonic == "goto/16" || ins.Mnemonic == "goto/32":
			markLeader(uint32(int64(ins.Offset) + int64(ins.Branch)))
			if i+1 < len(insns) {
				markLeader(insns[i+1].Offset)
			}
		case ins.Mnemonic == "packed-switch" || ins.Mnemonic == "sparse-switch":
			for _, target := range switches[ins.Offset] {
				markLeader(target)
			}
			if i+1 < len(insns) {
				markLeader(insns[i+1].Offset)
			}
		case ins.Mnemonic == "return-void" || ins.Mnemonic == "return" ||
			ins.Mnemonic == "return-wide" || ins.Mnemonic == "return-object" || ins.Mnemonic == "throw":
			if i+1 < len(insns) {
				markLeader(insns[i+1].Offset)
			}
		case isIf(ins.Mnemonic):
			markLeader(uint32(int64(ins.Offset) + int64(ins.Branch)))
			if i+1 < len(insns) {
				markLeader(insns[i+1].Offset)
			}
		}
	}
	for _, t := range tries {
		leaders[t.StartAddr] = true
		endAddr := t.StartAddr + uint32(t.InsnCount)
		if idx, ok := idxByOffset[endAddr]; ok {
			leaders[insns[idx].Offset] = true
		}
	}
	for _, h := range handlers {
		for _, c := range h.Handlers {
			leaders[c.Addr] = true
		}
		if h.HasCatchAll() {
			leaders[h.CatchAll] = true
		}
	}

	offsets := make([]uint32, 0, len(leaders))
	for off := range leaders {
		if _, ok := idxByOffset[off]; ok {
			offsets = append(offsets, off)
		}
	}
	sort.Slice(offsets, func(i, j int) bool { return offsets[i] < offsets[j] })

	cfg := &CFG{leaderIdx: map[uint32]int{}, switches: switches, payloads: payloads}
	for bi, off := range offsets {
		start := idxByOffset[off]
		end := len(insns)
		if bi+1 < len(offsets) {
			end = idxByOffset[offsets[bi+1]]
		}
		blk := &Block{ID: bi, Start: off, Insns: append([]dalvik.Instruction(nil), insns[start:end]...)}
		if end > start {
			last := insns[end-1]
			blk.End = last.Offset + uint32(last.Width)
		} else {
			blk.End = off
		}
		cfg.Blocks = append(cfg.Blocks, blk)
		cfg.leaderIdx[off] = bi
	}
	for _, t := range tries {
		if id := cfg.BlockAt(t.StartAddr); id >= 0 {
			cfg.Blocks[id].TryStart = true
		}
	}
	for _, h := range handlers {
		for _, c := range h.Handlers {
			if id := cfg.BlockAt(c.Addr); id >= 0 {
				cfg.Blocks[id].HandlerStart = true
			}
		}
		if h.HasCatchAll() {
			if id := cfg.BlockAt(h.CatchAll); id >= 0 {
				cfg.Blocks[id].HandlerStart = true
			}
		}
	}

	if err := cfg.linkEdges(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *CFG) linkEdges() error {
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
		case last.Mnemonic == "return-void" || last.Mnemonic == "return" ||
			last.Mnemonic == "return-wide" || last.Mnemonic == "return-object" ||
			last.Mnemonic == "throw":
			// terminal, no successors
		case last.Mnemonic == "goto" || last.Mnemonic == "goto/16" || last.Mnemonic == "goto/32":
			target := uint32(int64(last.Offset) + int64(last.Branch))
			id := c.BlockAt(target)
			if id < 0 {
				return fmt.Errorf("%w: goto target 0x%x has no block", errs.ErrLift, target)
			}
			addEdge(b.ID, id)
		case isIf(last.Mnemonic):
			target := uint32(int64(last.Offset) + int64(last.Branch))
			id := c.BlockAt(target)
			if id < 0 {
				return fmt.Errorf("%w: branch target 0x%x has no block", errs.ErrLift, target)
			}
			addEdge(b.ID, id)
			if next := c.BlockAt(b.End); next >= 0 {
				addEdge(b.ID, next)
			}
		case last.Mnemonic == "packed-switch" || last.Mnemonic == "sparse-switch":
			for _, target := range c.switches[last.Offset] {
				if id := c.BlockAt(target); id >= 0 {
					addEdge(b.ID, id)
				}
			}
			if next := c.BlockAt(b.End); next >= 0 {
				addEdge(b.ID, next)
			}
		default:
			if next := c.BlockAt(b.End); next >= 0 {
				addEdge(b.ID, next)
			}
		}
	}
	return nil
}

func isIf(mnemonic string) bool {
	switch mnemonic {
	case "if-eq", "if-ne", "if-lt", "if-ge", "if-gt", "if-le",
		"if-eqz", "if-nez", "if-ltz", "if-gez", "if-gtz", "if-lez":
		return true
	}
	return false
}
