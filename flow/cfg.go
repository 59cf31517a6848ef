// Package flow builds a control-flow graph per executable body and runs
// dataflow lattices on it: definite assignment, reachability, and
// three-valued nullability. It follows the same
// recursive-descent-over-syntax style as the rest of the tree walkers in
// this module (itemtree.Build, resolve.Builder): explicit ENTRY/EXIT
// blocks, one edge set per control construct.
package flow

import (
	"github.com/termfx/nova/lexer"
	"github.com/termfx/nova/syntax"
)

// NodeId identifies one basic block in a CFG.
type NodeId int

// EdgeKind labels why one block flows into another.
type EdgeKind int

const (
	EdgeNormal EdgeKind = iota
	EdgeTrue
	EdgeFalse
	EdgeException
)

// Edge is one outgoing control-flow edge from a block.
type Edge struct {
	To   NodeId
	Kind EdgeKind
}

// Block is one basic block: a straight-line run of statements with no
// internal branching, plus its outgoing edges. Stmts holds only "simple"
// statements (no nested control flow); a block's final statement may be
// a Return/Throw/Break/Continue, kept here so dataflow transfer functions
// can still see the expression it evaluates, with the corresponding
// control edge(s) recorded separately in Succs.
type Block struct {
	ID    NodeId
	Stmts []*syntax.Red
	Succs []Edge
}

// CFG is one executable body's control-flow graph, with virtual ENTRY
// and EXIT nodes.
type CFG struct {
	Blocks     []*Block
	Entry, Exit NodeId
}

func (g *CFG) Block(id NodeId) *Block { return g.Blocks[id] }

func (g *CFG) newBlock() *Block {
	b := &Block{ID: NodeId(len(g.Blocks))}
	g.Blocks = append(g.Blocks, b)
	return b
}

func (g *CFG) addEdge(from NodeId, kind EdgeKind, to NodeId) {
	g.Blocks[from].Succs = append(g.Blocks[from].Succs, Edge{To: to, Kind: kind})
}

// jumpTarget is where a break/continue/return/throw currently resolves
// to, tracked as a stack frame per enclosing construct.
type jumpTarget struct {
	label           string
	breakTo         NodeId
	continueTo      NodeId
	hasContinue     bool
	catchOrFinallyTo []NodeId // exception edges active at this nesting depth
}

type builder struct {
	g       *CFG
	jumps   []jumpTarget
	cur     *Block
	unreach bool // true once the current block is known unreachable from ENTRY
}

// Build constructs the CFG for a method/constructor body (a Block node)
// or a lambda body. Unreachable-from-ENTRY blocks are still present in
// the graph (with no incoming edge reached during the walk) so
// Reachability can report them.
func Build(body *syntax.Red) *CFG {
	g := &CFG{}
	entry := g.newBlock()
	exit := g.newBlock()
	g.Entry, g.Exit = entry.ID, exit.ID

	b := &builder{g: g, cur: entry}
	b.stmt(body)
	if !b.unreach {
		g.addEdge(b.cur.ID, EdgeNormal, exit.ID)
	}
	return g
}

// freshBlock starts a new current block, linked from the previous one
// unless the previous block already terminated (unreachable).
func (b *builder) freshBlock() *Block {
	nb := b.g.newBlock()
	if !b.unreach {
		b.g.addEdge(b.cur.ID, EdgeNormal, nb.ID)
	}
	b.cur = nb
	b.unreach = false
	return nb
}

func (b *builder) exceptionTargets() []NodeId {
	if len(b.jumps) == 0 {
		return nil
	}
	return b.jumps[len(b.jumps)-1].catchOrFinallyTo
}

func (b *builder) emitExceptionEdges(from NodeId) {
	for _, t := range b.exceptionTargets() {
		b.g.addEdge(from, EdgeException, t)
	}
}

func (b *builder) stmt(n *syntax.Red) {
	if n == nil {
		return
	}
	switch n.Kind() {
	case syntax.Block:
		for _, c := range n.NodeChildren() {
			b.stmt(c)
		}
	case syntax.IfStmt:
		b.ifStmt(n)
	case syntax.WhileStmt:
		b.whileStmt(n)
	case syntax.DoWhileStmt:
		b.doWhileStmt(n)
	case syntax.ForStmt:
		b.forStmt(n)
	case syntax.ForEachStmt:
		b.forEachStmt(n)
	case syntax.ReturnStmt, syntax.ThrowStmt:
		b.cur.Stmts = append(b.cur.Stmts, n)
		b.emitExceptionEdges(b.cur.ID)
		b.g.addEdge(b.cur.ID, EdgeNormal, b.g.Exit)
		b.unreach = true
	case syntax.BreakStmt:
		target, ok := b.findJump(labelOf(n), true)
		b.cur.Stmts = append(b.cur.Stmts, n)
		if ok {
			b.g.addEdge(b.cur.ID, EdgeNormal, target)
		}
		b.unreach = true
	case syntax.ContinueStmt:
		target, ok := b.findJump(labelOf(n), false)
		b.cur.Stmts = append(b.cur.Stmts, n)
		if ok {
			b.g.addEdge(b.cur.ID, EdgeNormal, target)
		}
		b.unreach = true
	case syntax.TryStmt:
		b.tryStmt(n)
	case syntax.SwitchStmt:
		b.switchStmt(n)
	case syntax.SynchronizedStmt, syntax.LabeledStmt:
		// Synchronized bodies and labels don't alter control flow except
		// that a LabeledStmt's label is the target a nested
		// break/continue may reference; handled via labelStack lookups
		// keyed by syntax text rather than a dedicated frame, since only
		// loops/switches push jump targets and a label always wraps one.
		for _, c := range n.NodeChildren() {
			b.stmt(c)
		}
	default:
		// Simple statement: ExprStmt, LocalVarDecl, EmptyStmt, AssertStmt,
		// YieldStmt. One that follows a jump opens a new block with no
		// predecessor, which reachability then reports.
		if b.unreach {
			b.freshBlock()
		}
		b.cur.Stmts = append(b.cur.Stmts, n)
		b.emitExceptionEdges(b.cur.ID)
	}
}

func labelOf(n *syntax.Red) string {
	for _, rc := range n.Children() {
		if rc.Token != nil && rc.Token.Kind == syntax.TokenKind(lexer.Identifier) {
			return rc.Token.Text
		}
	}
	return ""
}

// findJump resolves a break (wantBreak=true) or continue target,
// honoring an explicit label by walking outward to the matching frame;
// an unlabeled jump always targets the innermost frame.
func (b *builder) findJump(label string, wantBreak bool) (NodeId, bool) {
	for i := len(b.jumps) - 1; i >= 0; i-- {
		f := b.jumps[i]
		if label != "" && f.label != label {
			continue
		}
		if wantBreak {
			return f.breakTo, true
		}
		if f.hasContinue {
			return f.continueTo, true
		}
	}
	return 0, false
}

func condExpr(n *syntax.Red) *syntax.Red {
	children := n.NodeChildren()
	if len(children) == 0 {
		return nil
	}
	return children[0]
}

// literalBool reports whether expr is exactly the `true` or `false`
// literal. A statically dead if(false)/while(true) branch gets no edge
// at all, rather than being pruned after the fact by reachability.
func literalBool(expr *syntax.Red) (value bool, ok bool) {
	if expr == nil || expr.Kind() != syntax.LiteralExpr {
		return false, false
	}
	for _, rc := range expr.Children() {
		if rc.Token != nil && rc.Token.Kind == syntax.TokenKind(lexer.BoolLiteral) {
			return rc.Token.Text == "true", true
		}
	}
	return false, false
}

func (b *builder) ifStmt(n *syntax.Red) {
	cond := condExpr(n)
	if cond != nil {
		b.cur.Stmts = append(b.cur.Stmts, cond)
	}
	branches := n.NodeChildren()
	// branches[0] is the condition; branches[1] is the then-branch;
	// branches[2] (if present) is the else-branch.
	condID := b.cur.ID
	litValue, isLit := literalBool(cond)

	thenBlock := b.g.newBlock()
	if !isLit || litValue {
		b.g.addEdge(condID, EdgeTrue, thenBlock.ID)
	}
	b.cur = thenBlock
	b.unreach = false
	if len(branches) > 1 {
		b.stmt(branches[1])
	}
	thenEnd, thenUnreach := b.cur, b.unreach

	join := b.g.newBlock()
	if !thenUnreach && (!isLit || litValue) {
		b.g.addEdge(thenEnd.ID, EdgeNormal, join.ID)
	}

	if len(branches) > 2 {
		elseBlock := b.g.newBlock()
		if !isLit || !litValue {
			b.g.addEdge(condID, EdgeFalse, elseBlock.ID)
		}
		b.cur = elseBlock
		b.unreach = false
		b.stmt(branches[2])
		if !b.unreach && (!isLit || !litValue) {
			b.g.addEdge(b.cur.ID, EdgeNormal, join.ID)
		}
	} else if !isLit || !litValue {
		b.g.addEdge(condID, EdgeFalse, join.ID)
	}
	b.cur = join
	b.unreach = false
}

func childIf(children []*syntax.Red, i int) *syntax.Red {
	if i < 0 || i >= len(children) {
		return nil
	}
	return children[i]
}

func (b *builder) whileStmt(n *syntax.Red) {
	children := n.NodeChildren()
	condBlock := b.freshBlock()
	if len(children) > 0 {
		condBlock.Stmts = append(condBlock.Stmts, children[0])
	}
	body := b.g.newBlock()
	after := b.g.newBlock()
	litValue, isLit := literalBool(childIf(children, 0))
	b.g.addEdge(condBlock.ID, EdgeTrue, body.ID)
	if !isLit || !litValue {
		// while(true): the false edge is statically dead, so `after` is
		// only reachable through a break.
		b.g.addEdge(condBlock.ID, EdgeFalse, after.ID)
	}

	b.jumps = append(b.jumps, jumpTarget{breakTo: after.ID, continueTo: condBlock.ID, hasContinue: true})
	b.cur = body
	b.unreach = false
	if len(children) > 1 {
		b.stmt(children[1])
	}
	if !b.unreach {
		b.g.addEdge(b.cur.ID, EdgeNormal, condBlock.ID)
	}
	b.jumps = b.jumps[:len(b.jumps)-1]

	b.cur = after
	b.unreach = false
}

func (b *builder) doWhileStmt(n *syntax.Red) {
	children := n.NodeChildren()
	body := b.freshBlock()
	condBlock := b.g.newBlock()
	after := b.g.newBlock()

	b.jumps = append(b.jumps, jumpTarget{breakTo: after.ID, continueTo: condBlock.ID, hasContinue: true})
	if len(children) > 0 {
		b.stmt(children[0])
	}
	if !b.unreach {
		b.g.addEdge(b.cur.ID, EdgeNormal, condBlock.ID)
	}
	b.jumps = b.jumps[:len(b.jumps)-1]

	if len(children) > 1 {
		condBlock.Stmts = append(condBlock.Stmts, children[1])
	}
	b.g.addEdge(condBlock.ID, EdgeTrue, body.ID)
	b.g.addEdge(condBlock.ID, EdgeFalse, after.ID)

	b.cur = after
	b.unreach = false
}

func (b *builder) forStmt(n *syntax.Red) {
	children := n.NodeChildren()
	// Children in order: [init?, cond?, update..., body]. ForStmt may
	// omit init/cond; the body is always the last child.
	if len(children) == 0 {
		return
	}
	body := children[len(children)-1]
	rest := children[:len(children)-1]

	var cond *syntax.Red
	var init *syntax.Red
	var updates []*syntax.Red
	// init is present when the first remaining child is a LocalVarDecl
	// or an ExprStmt-shaped initializer; cond follows; any further
	// children are update expressions. The parser doesn't tag these
	// roles explicitly, so classify positionally: at most one init, at
	// most one cond (a boolean-shaped expression), the remainder updates.
	idx := 0
	if idx < len(rest) && (rest[idx].Kind() == syntax.LocalVarDecl || rest[idx].Kind() == syntax.ExprStmt) {
		init = rest[idx]
		idx++
	}
	if idx < len(rest) {
		cond = rest[idx]
		idx++
	}
	updates = rest[idx:]

	if init != nil {
		b.cur.Stmts = append(b.cur.Stmts, init)
	}
	condBlock := b.freshBlock()
	if cond != nil {
		condBlock.Stmts = append(condBlock.Stmts, cond)
	}
	bodyBlock := b.g.newBlock()
	after := b.g.newBlock()
	b.g.addEdge(condBlock.ID, EdgeTrue, bodyBlock.ID)
	b.g.addEdge(condBlock.ID, EdgeFalse, after.ID)

	updateBlock := b.g.newBlock()
	updateBlock.Stmts = append(updateBlock.Stmts, updates...)
	b.g.addEdge(updateBlock.ID, EdgeNormal, condBlock.ID)

	b.jumps = append(b.jumps, jumpTarget{breakTo: after.ID, continueTo: updateBlock.ID, hasContinue: true})
	b.cur = bodyBlock
	b.unreach = false
	b.stmt(body)
	if !b.unreach {
		b.g.addEdge(b.cur.ID, EdgeNormal, updateBlock.ID)
	}
	b.jumps = b.jumps[:len(b.jumps)-1]

	b.cur = after
	b.unreach = false
}

func (b *builder) forEachStmt(n *syntax.Red) {
	children := n.NodeChildren()
	if len(children) == 0 {
		return
	}
	iterable := children[0]
	body := children[len(children)-1]
	b.cur.Stmts = append(b.cur.Stmts, iterable)

	headBlock := b.freshBlock()
	bodyBlock := b.g.newBlock()
	after := b.g.newBlock()
	b.g.addEdge(headBlock.ID, EdgeTrue, bodyBlock.ID)
	b.g.addEdge(headBlock.ID, EdgeFalse, after.ID)

	b.jumps = append(b.jumps, jumpTarget{breakTo: after.ID, continueTo: headBlock.ID, hasContinue: true})
	b.cur = bodyBlock
	b.unreach = false
	b.stmt(body)
	if !b.unreach {
		b.g.addEdge(b.cur.ID, EdgeNormal, headBlock.ID)
	}
	b.jumps = b.jumps[:len(b.jumps)-1]

	b.cur = after
	b.unreach = false
}

func (b *builder) tryStmt(n *syntax.Red) {
	children := n.NodeChildren()
	var tryBlock, finallyBlock *syntax.Red
	var catches []*syntax.Red
	for _, c := range children {
		switch c.Kind() {
		case syntax.Block:
			if tryBlock == nil {
				tryBlock = c
			}
		case syntax.CatchClause:
			catches = append(catches, c)
		case syntax.FinallyClause:
			finallyBlock = c
		}
	}

	// Build catch entry blocks first so the try body's exception edges
	// can target them.
	catchEntries := make([]NodeId, len(catches))
	for i := range catches {
		cb := b.g.newBlock()
		catchEntries[i] = cb.ID
	}

	outer := b.exceptionTargets()
	tryTargets := append(append([]NodeId(nil), catchEntries...), outer...)
	b.jumps = append(b.jumps, jumpTarget{catchOrFinallyTo: tryTargets})
	b.freshBlock()
	if tryBlock != nil {
		b.stmt(tryBlock)
	}
	tryEnd, tryUnreach := b.cur, b.unreach
	b.jumps = b.jumps[:len(b.jumps)-1]

	joinBlock := b.g.newBlock()
	if !tryUnreach {
		b.g.addEdge(tryEnd.ID, EdgeNormal, joinBlock.ID)
	}

	for i, c := range catches {
		b.cur = b.g.Block(catchEntries[i])
		b.unreach = false
		body := syntax.FirstChildOfKind(c, syntax.Block)
		if body != nil {
			b.stmt(body)
		}
		if !b.unreach {
			b.g.addEdge(b.cur.ID, EdgeNormal, joinBlock.ID)
		}
	}

	b.cur = joinBlock
	b.unreach = false
	if finallyBlock != nil {
		b.stmt(finallyBlock)
	}
}

func (b *builder) switchStmt(n *syntax.Red) {
	children := n.NodeChildren()
	if len(children) == 0 {
		return
	}
	selector := children[0]
	cases := children[1:]
	b.cur.Stmts = append(b.cur.Stmts, selector)
	head := b.cur

	after := b.g.newBlock()
	b.jumps = append(b.jumps, jumpTarget{breakTo: after.ID})

	var prevFallthrough *Block
	hasDefault := false
	for _, cs := range cases {
		if isDefaultCase(cs) {
			hasDefault = true
		}
		caseBlock := b.g.newBlock()
		b.g.addEdge(head.ID, EdgeNormal, caseBlock.ID)
		if prevFallthrough != nil {
			b.g.addEdge(prevFallthrough.ID, EdgeNormal, caseBlock.ID)
		}
		b.cur = caseBlock
		b.unreach = false
		for _, stmt := range cs.NodeChildren() {
			b.stmt(stmt)
		}
		if b.unreach {
			prevFallthrough = nil
		} else {
			prevFallthrough = b.cur
		}
	}
	if prevFallthrough != nil {
		b.g.addEdge(prevFallthrough.ID, EdgeNormal, after.ID)
	}
	if !hasDefault {
		b.g.addEdge(head.ID, EdgeNormal, after.ID)
	}
	b.jumps = b.jumps[:len(b.jumps)-1]

	b.cur = after
	b.unreach = false
}

func isDefaultCase(cs *syntax.Red) bool {
	for _, rc := range cs.Children() {
		if rc.Token != nil && rc.Token.Kind == syntax.TokenKind(lexer.KwDefault) {
			return true
		}
		if rc.Token != nil && rc.Token.Kind == syntax.TokenKind(lexer.KwCase) {
			return false
		}
	}
	return false
}
