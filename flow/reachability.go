package flow

import (
	"github.com/termfx/nova/diag"
	"github.com/termfx/nova/internal/intern"
)

// Reachability reports every statement unreachable from g's ENTRY block
// as a warning. if(false)/while(true) dead branches are
// already absent from the graph (Build never wires their dead edge), so
// this pass only has to find blocks no edge from ENTRY reaches — no
// extra special-casing needed here beyond that construction-time choice.
func Reachability(g *CFG, file intern.FileId) []diag.Diagnostic {
	reached := reachableBlocks(g)

	var out []diag.Diagnostic
	for _, blk := range g.Blocks {
		if blk.ID == g.Entry || blk.ID == g.Exit {
			continue
		}
		if reached[blk.ID] || len(blk.Stmts) == 0 {
			continue
		}
		first := blk.Stmts[0]
		last := blk.Stmts[len(blk.Stmts)-1]
		start, _ := first.Range()
		_, end := last.Range()
		out = append(out, diag.Diagnostic{
			File:     file,
			Range:    diag.Range{Start: start, End: end},
			Severity: diag.SeverityWarning,
			Code:     diag.CodeUnreachable,
			Message:  "unreachable statement",
		})
	}
	return out
}

func reachableBlocks(g *CFG) map[NodeId]bool {
	seen := map[NodeId]bool{g.Entry: true}
	stack := []NodeId{g.Entry}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, e := range g.Blocks[id].Succs {
			if !seen[e.To] {
				seen[e.To] = true
				stack = append(stack, e.To)
			}
		}
	}
	return seen
}
