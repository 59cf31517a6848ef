package flow

import (
	"github.com/termfx/nova/diag"
	"github.com/termfx/nova/internal/intern"
	"github.com/termfx/nova/lexer"
	"github.com/termfx/nova/syntax"
)

// nameSet is a definite-assignment lattice element: the set of local
// names assigned along the path(s) reaching some program point. The
// meet operator for merging two incoming paths is set intersection.
type nameSet map[string]bool

func (s nameSet) clone() nameSet {
	out := make(nameSet, len(s))
	for k := range s {
		out[k] = true
	}
	return out
}

func intersect(a, b nameSet) nameSet {
	out := make(nameSet, len(a))
	for k := range a {
		if b[k] {
			out[k] = true
		}
	}
	return out
}

// Locals collects the names of every local variable declared anywhere
// in body (excluding parameters, which the caller supplies separately
// since they are definitely assigned from ENTRY).
func Locals(body *syntax.Red) map[string]bool {
	out := map[string]bool{}
	for _, decl := range syntax.FindAll(body, syntax.LocalVarDecl) {
		for _, v := range syntax.FindAll(decl, syntax.VariableDeclarator) {
			if name := declaratorName(v); name != "" {
				out[name] = true
			}
		}
	}
	return out
}

func declaratorName(v *syntax.Red) string {
	for _, rc := range v.Children() {
		if rc.Token != nil && rc.Token.Kind == syntax.TokenKind(lexer.Identifier) {
			return rc.Token.Text
		}
	}
	return ""
}

// hasInitializer reports whether a VariableDeclarator has an `= expr`
// initializer (anything past its name/bracket tokens is the initializer
// expression, represented as a node child).
func hasInitializer(v *syntax.Red) bool {
	return len(v.NodeChildren()) > 0
}

// DefiniteAssignment runs a forward must-assign dataflow over g,
// flagging reads of a local not yet assigned along every path from
// ENTRY. initiallyAssigned holds names assigned before the body even
// starts (method parameters, caught-exception variables are handled
// per catch clause by the CFG's catch entry blocks in the general case,
// but this pass is driven per top-level body so callers pass parameter
// names here).
func DefiniteAssignment(g *CFG, file intern.FileId, initiallyAssigned []string) []diag.Diagnostic {
	locals := allLocalsInGraph(g)
	universal := make(nameSet, len(locals))
	for n := range locals {
		universal[n] = true
	}
	for _, n := range initiallyAssigned {
		universal[n] = true
	}

	entryState := make(map[NodeId]nameSet, len(g.Blocks))
	for _, b := range g.Blocks {
		entryState[b.ID] = universal.clone()
	}
	start := nameSet{}
	for _, n := range initiallyAssigned {
		start[n] = true
	}
	entryState[g.Entry] = start

	preds := predecessors(g)

	// Fixpoint iteration: entry[b] = intersection over preds' exit state.
	// Bounded by the square of the block count plus 4; Java method bodies are
	// not large enough for this to matter in practice, and a CFG has no
	// more distinct fixpoint-relevant states than it has blocks.
	limit := len(g.Blocks)*len(g.Blocks) + 4
	for iter := 0; iter < limit; iter++ {
		changed := false
		for _, b := range g.Blocks {
			if b.ID == g.Entry {
				continue
			}
			ps := preds[b.ID]
			if len(ps) == 0 {
				continue // unreachable; Reachability already flags it
			}
			merged := entryState[ps[0]]
			merged = transferSilently(g.Block(ps[0]), merged, locals)
			for _, p := range ps[1:] {
				out := transferSilently(g.Block(p), entryState[p], locals)
				merged = intersect(merged, out)
			}
			if !equalSets(merged, entryState[b.ID]) {
				entryState[b.ID] = merged
				changed = true
			}
		}
		if !changed {
			break
		}
	}

	var out []diag.Diagnostic
	for _, b := range g.Blocks {
		assigned := entryState[b.ID].clone()
		for _, stmt := range b.Stmts {
			out = append(out, checkReads(stmt, assigned, locals, file)...)
			applyWrites(stmt, assigned, locals)
		}
	}
	return out
}

func equalSets(a, b nameSet) bool {
	if len(a) != len(b) {
		return false
	}
	for k := range a {
		if !b[k] {
			return false
		}
	}
	return true
}

func predecessors(g *CFG) map[NodeId][]NodeId {
	out := make(map[NodeId][]NodeId, len(g.Blocks))
	for _, b := range g.Blocks {
		for _, e := range b.Succs {
			out[e.To] = append(out[e.To], b.ID)
		}
	}
	return out
}

func allLocalsInGraph(g *CFG) map[string]bool {
	out := map[string]bool{}
	for _, b := range g.Blocks {
		for _, s := range b.Stmts {
			if s.Kind() == syntax.LocalVarDecl {
				for _, v := range syntax.FindAll(s, syntax.VariableDeclarator) {
					if name := declaratorName(v); name != "" {
						out[name] = true
					}
				}
			}
		}
	}
	return out
}

// transferSilently computes a block's exit assigned-set from its entry
// set without emitting diagnostics, used while iterating to a fixpoint
// (diagnostics are only emitted once, from the converged state).
func transferSilently(b *Block, in nameSet, locals map[string]bool) nameSet {
	cur := in.clone()
	for _, s := range b.Stmts {
		applyWrites(s, cur, locals)
	}
	return cur
}

// applyWrites updates assigned to reflect every local declared-with-
// initializer or plain-assigned by stmt.
func applyWrites(stmt *syntax.Red, assigned nameSet, locals map[string]bool) {
	switch stmt.Kind() {
	case syntax.LocalVarDecl:
		for _, v := range syntax.FindAll(stmt, syntax.VariableDeclarator) {
			name := declaratorName(v)
			if name == "" {
				continue
			}
			if hasInitializer(v) {
				assigned[name] = true
			}
		}
	default:
		for _, assign := range syntax.FindAll(stmt, syntax.AssignExpr) {
			if name, ok := simpleAssignTarget(assign); ok && locals[name] {
				assigned[name] = true
			}
		}
	}
}

// simpleAssignTarget returns the plain local name an AssignExpr writes
// to, when its left-hand side is a bare NameExpr (not a field access or
// array element, which this pass does not track).
func simpleAssignTarget(assign *syntax.Red) (string, bool) {
	children := assign.NodeChildren()
	if len(children) == 0 || children[0].Kind() != syntax.NameExpr {
		return "", false
	}
	return identifierText(children[0]), true
}

func identifierText(n *syntax.Red) string {
	for _, rc := range n.Children() {
		if rc.Token != nil && rc.Token.Kind == syntax.TokenKind(lexer.Identifier) {
			return rc.Token.Text
		}
	}
	return ""
}

// checkReads walks every NameExpr in stmt that is read (not the target
// of a plain assignment) and flags it if its name is a known local not
// yet in assigned.
func checkReads(stmt *syntax.Red, assigned nameSet, locals map[string]bool, file intern.FileId) []diag.Diagnostic {
	var out []diag.Diagnostic
	assignTargets := map[*syntax.Red]bool{}
	for _, assign := range syntax.FindAll(stmt, syntax.AssignExpr) {
		children := assign.NodeChildren()
		if len(children) > 0 && children[0].Kind() == syntax.NameExpr {
			assignTargets[children[0]] = true
		}
	}
	syntax.Walk(stmt, func(n *syntax.Red) bool {
		if n.Kind() != syntax.NameExpr {
			return true
		}
		if assignTargets[n] {
			return true
		}
		name := identifierText(n)
		if name == "" || !locals[name] || assigned[name] {
			return true
		}
		start, end := n.Range()
		out = append(out, diag.Diagnostic{
			File:     file,
			Range:    diag.Range{Start: start, End: end},
			Severity: diag.SeverityError,
			Code:     diag.CodeUnassigned,
			Message:  "variable " + name + " might not have been initialized",
		})
		return true
	})
	return out
}
