package lift

import (
	"fmt"

	"github.com/deploymenttheory/garlic/internal/dex"
	"github.com/deploymenttheory/garlic/internal/errs"
)

// CaughtType is one catch clause's exception type and the block where
// its handler begins. Type == "" marks a catch-all.
type CaughtType struct {
	Type    string
	BlockID int
}

// TryRegion is one try block's covered span and its ordered list of
// catch clauses, per spec.md §4.5 ("try/catch reconstruction").
type TryRegion struct {
	StartBlock int
	EndBlock   int // exclusive; -1 if the try extends to method end
	Handlers   []CaughtType
}

// BuildTryRegions resolves code's try/catch table against cfg's basic
// blocks, turning byte-offset ranges and handler-list offsets into
// block ids. Every TryItem.HandlerOff is resolved through
// code.HandlerFor, since a handler offset is a byte offset into the
// shared encoded_catch_handler_list, not a parallel index into Tries.
func BuildTryRegions(cfg *CFG, code *dex.CodeItem, resolver Resolver) ([]TryRegion, error) {
	if code == nil || len(code.Tries) == 0 {
		return nil, nil
	}

	regions := make([]TryRegion, 0, len(code.Tries))
	for _, t := range code.Tries {
		startBlock := cfg.BlockAt(t.StartAddr)
		if startBlock < 0 {
			return nil, fmt.Errorf("%w: try start 0x%x has no block", errs.ErrLift, t.StartAddr)
		}
		endOffset := t.StartAddr + uint32(t.InsnCount)
		endBlock := cfg.BlockAt(endOffset)

		handler, ok := code.HandlerFor(t)
		if !ok {
			return nil, fmt.Errorf("%w: try at 0x%x references unresolved handler offset %d", errs.ErrLift, t.StartAddr, t.HandlerOff)
		}

		clauses := make([]CaughtType, 0, len(handler.Handlers)+1)
		for _, h := range handler.Handlers {
			typeName, err := resolver.Type(h.TypeIdx)
			if err != nil {
				return nil, fmt.Errorf("%w: catch type: %v", errs.ErrLift, err)
			}
			blockID := cfg.BlockAt(h.Addr)
			if blockID < 0 {
				return nil, fmt.Errorf("%w: catch handler at 0x%x has no block", errs.ErrLift, h.Addr)
			}
			clauses = append(clauses, CaughtType{Type: typeName, BlockID: blockID})
		}
		if handler.HasCatchAll() {
			blockID := cfg.BlockAt(handler.CatchAll)
			if blockID < 0 {
				return nil, fmt.Errorf("%w: catch-all handler at 0x%x has no block", errs.ErrLift, handler.CatchAll)
			}
			clauses = append(clauses, CaughtType{Type: "", BlockID: blockID})
		}

		regions = append(regions, TryRegion{StartBlock: startBlock, EndBlock: endBlock, Handlers: clauses})
	}
	return regions, nil
}

// Covers reports whether block id lies within r's span.
func (r TryRegion) Covers(blockID int) bool {
	if blockID < r.StartBlock {
		return false
	}
	if r.EndBlock < 0 {
		return true
	}
	return blockID < r.EndBlock
}
