package lift

import "sort"

// loop is a natural loop: a single back edge tail->header where header
// dominates tail, per spec.md §4.5 stage 4 ("single back-edge target
// dominates back-edge source").
type loop struct {
	Header int
	Tail   int
	Body   map[int]bool // includes Header and Tail
}

// findLoops returns every natural loop in blocks, keyed by header id.
// Headers with more than one back edge (rare, irreducible without
// further splitting) are merged into one loop covering every tail's
// body; the structurer in structure.go treats that the same as a
// single-entry loop and falls back to goto for any edge it still
// can't place.
func findLoops(blocks []*Block, dom *dominance) map[int]*loop {
	loops := make(map[int]*loop)
	for _, b := range blocks {
		for _, s := range b.Succs {
			if !dom.dominates(s, b.ID) {
				continue // not a back edge
			}
			header := s
			l, ok := loops[header]
			if !ok {
				l = &loop{Header: header, Tail: b.ID, Body: map[int]bool{header: true}}
				loops[header] = l
			}
			l.Body[b.ID] = true
			collectLoopBody(blocks, header, b.ID, l.Body)
		}
	}
	return loops
}

// collectLoopBody walks predecessors backward from tail until header,
// adding every block reached into body.
func collectLoopBody(blocks []*Block, header, tail int, body map[int]bool) {
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

// sortedLoopHeaders returns loop headers in ascending block-id order,
// for deterministic structuring.
func sortedLoopHeaders(loops map[int]*loop) []int {
	out := make([]int, 0, len(loops))
	for h := range loops {
		out = append(out, h)
	}
	sort.Ints(out)
	return out
}
