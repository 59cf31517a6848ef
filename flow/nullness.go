package flow

import (
	"github.com/termfx/nova/diag"
	"github.com/termfx/nova/internal/intern"
	"github.com/termfx/nova/lexer"
	"github.com/termfx/nova/syntax"
)

// NullState is one local's position in the three-valued nullability
// lattice. Unknown is the lattice's top
// element: it absorbs any join, matching "Null ⊔ NonNull = Unknown".
type NullState int

const (
	Unknown NullState = iota
	Null
	NonNull
)

func join(a, b NullState) NullState {
	if a == b {
		return a
	}
	return Unknown
}

type nullEnv map[string]NullState

func (e nullEnv) clone() nullEnv {
	out := make(nullEnv, len(e))
	for k, v := range e {
		out[k] = v
	}
	return out
}

func joinEnv(a, b nullEnv) nullEnv {
	out := make(nullEnv, len(a))
	for k, av := range a {
		out[k] = join(av, b[k])
	}
	for k, bv := range b {
		if _, ok := out[k]; !ok {
			out[k] = join(Unknown, bv)
		}
	}
	return out
}

// nullWalker runs the refinement-aware structural pass: unlike
// DefiniteAssignment, which shares the generic CFG, nullness refinement
// is tied directly to syntactic nesting (an if's condition narrows its
// own then/else bodies), so this pass recurses over the statement tree
// the same way the CFG builder's stmt() dispatch does rather than
// replaying it over already-flattened basic blocks.
type nullWalker struct {
	file intern.FileId
	out  []diag.Diagnostic
}

// Nullness runs null analysis over body starting from initEnv (e.g.
// parameters default to Unknown unless the caller has reason to seed
// one as NonNull/Null) and returns every possible-null-dereference
// diagnostic found.
func Nullness(body *syntax.Red, file intern.FileId, initEnv map[string]NullState) []diag.Diagnostic {
	w := &nullWalker{file: file}
	env := nullEnv{}
	for k, v := range initEnv {
		env[k] = v
	}
	w.block(body, env)
	return w.out
}

func (w *nullWalker) block(n *syntax.Red, env nullEnv) nullEnv {
	if n == nil {
		return env
	}
	if n.Kind() == syntax.Block {
		for _, c := range n.NodeChildren() {
			env = w.stmt(c, env)
		}
		return env
	}
	return w.stmt(n, env)
}

func (w *nullWalker) stmt(n *syntax.Red, env nullEnv) nullEnv {
	if n == nil {
		return env
	}
	switch n.Kind() {
	case syntax.Block:
		return w.block(n, env)
	case syntax.LocalVarDecl:
		for _, v := range syntax.FindAll(n, syntax.VariableDeclarator) {
			name := declaratorName(v)
			if name == "" {
				continue
			}
			if init := lastNodeChild(v); init != nil {
				w.checkExpr(init, env)
				env[name] = exprNullState(init, env)
			} else {
				env[name] = Unknown
			}
		}
		return env
	case syntax.ExprStmt:
		for _, c := range n.NodeChildren() {
			w.checkExpr(c, env)
			if name, ok := simpleAssignTarget(c); ok {
				env[name] = exprNullState(lastNodeChild(c), env)
			}
		}
		return env
	case syntax.IfStmt:
		return w.ifStmt(n, env)
	case syntax.WhileStmt, syntax.DoWhileStmt, syntax.ForStmt, syntax.ForEachStmt:
		return w.loopStmt(n, env)
	case syntax.ReturnStmt, syntax.ThrowStmt, syntax.YieldStmt:
		for _, c := range n.NodeChildren() {
			w.checkExpr(c, env)
		}
		return env
	case syntax.TryStmt:
		return w.tryStmt(n, env)
	case syntax.SwitchStmt, syntax.SynchronizedStmt, syntax.LabeledStmt:
		for _, c := range n.NodeChildren() {
			env = w.stmt(c, env)
		}
		return env
	default:
		return env
	}
}

func lastNodeChild(n *syntax.Red) *syntax.Red {
	children := n.NodeChildren()
	if len(children) == 0 {
		return nil
	}
	return children[len(children)-1]
}

func (w *nullWalker) ifStmt(n *syntax.Red, env nullEnv) nullEnv {
	children := n.NodeChildren()
	if len(children) == 0 {
		return env
	}
	cond := children[0]
	w.checkExpr(cond, env)
	thenEnv, elseEnv := refine(cond, env)

	if len(children) > 1 {
		thenEnv = w.stmt(children[1], thenEnv)
	}
	if len(children) > 2 {
		elseEnv = w.stmt(children[2], elseEnv)
		return joinEnv(thenEnv, elseEnv)
	}
	return joinEnv(thenEnv, elseEnv)
}

func (w *nullWalker) loopStmt(n *syntax.Red, env nullEnv) nullEnv {
	children := n.NodeChildren()
	if len(children) == 0 {
		return env
	}
	body := children[len(children)-1]
	// Conservative: evaluate the body once against a widened entry state
	// (anything the body assigns becomes Unknown rather than carrying a
	// false guarantee past repeated iterations), then drop any
	// refinement the loop condition implied on exit.
	widened := env.clone()
	for _, assign := range syntax.FindAll(body, syntax.AssignExpr) {
		if name, ok := simpleAssignTarget(assign); ok {
			widened[name] = Unknown
		}
	}
	for _, decl := range syntax.FindAll(body, syntax.LocalVarDecl) {
		for _, v := range syntax.FindAll(decl, syntax.VariableDeclarator) {
			if name := declaratorName(v); name != "" {
				widened[name] = Unknown
			}
		}
	}
	w.stmt(body, widened)
	return widened
}

func (w *nullWalker) tryStmt(n *syntax.Red, env nullEnv) nullEnv {
	children := n.NodeChildren()
	var result nullEnv
	for _, c := range children {
		switch c.Kind() {
		case syntax.Block:
			if result == nil {
				result = w.stmt(c, env.clone())
			}
		case syntax.CatchClause:
			catchEnv := env.clone()
			if body := syntax.FirstChildOfKind(c, syntax.Block); body != nil {
				out := w.stmt(body, catchEnv)
				if result != nil {
					result = joinEnv(result, out)
				} else {
					result = out
				}
			}
		case syntax.FinallyClause:
			if body := syntax.FirstChildOfKind(c, syntax.Block); body != nil {
				if result == nil {
					result = env.clone()
				}
				result = w.stmt(body, result)
			}
		}
	}
	if result == nil {
		return env
	}
	return result
}

// refine narrows env along a condition's true/false outcomes for the
// simple shapes worth modeling: explicit null comparisons and
// instanceof.
func refine(cond *syntax.Red, env nullEnv) (thenEnv, elseEnv nullEnv) {
	thenEnv, elseEnv = env.clone(), env.clone()
	switch cond.Kind() {
	case syntax.BinaryExpr:
		op := binOpKind(cond)
		children := cond.NodeChildren()
		if len(children) != 2 {
			return
		}
		name, isNull := nullCompareTarget(children[0], children[1])
		if name == "" {
			return
		}
		switch op {
		case syntax.TokenKind(lexer.EqEq):
			if isNull {
				thenEnv[name] = Null
				elseEnv[name] = NonNull
			}
		case syntax.TokenKind(lexer.BangEq):
			if isNull {
				thenEnv[name] = NonNull
				elseEnv[name] = Null
			}
		}
	case syntax.InstanceofExpr:
		children := cond.NodeChildren()
		if len(children) > 0 && children[0].Kind() == syntax.NameExpr {
			thenEnv[identifierText(children[0])] = NonNull
		}
	case syntax.UnaryExpr:
		// `!expr`: swap the refinements of the negated condition.
		if isLogicalNot(cond) {
			if inner := lastNodeChild(cond); inner != nil {
				innerThen, innerElse := refine(inner, env)
				return innerElse, innerThen
			}
		}
	}
	return
}

func isLogicalNot(n *syntax.Red) bool {
	for _, rc := range n.Children() {
		if rc.Token != nil {
			return rc.Token.Kind == syntax.TokenKind(lexer.Bang)
		}
	}
	return false
}

func binOpKind(n *syntax.Red) syntax.Kind {
	for _, rc := range n.Children() {
		if rc.Token == nil {
			continue
		}
		switch rc.Token.Kind {
		case syntax.TokenKind(lexer.EqEq), syntax.TokenKind(lexer.BangEq):
			return rc.Token.Kind
		}
	}
	return 0
}

// nullCompareTarget recognizes `name == null` / `null == name` (and the
// != form, handled by the caller via op) on either side.
func nullCompareTarget(lhs, rhs *syntax.Red) (name string, isNullLiteral bool) {
	if lhs.Kind() == syntax.NameExpr && isNullLiteral_(rhs) {
		return identifierText(lhs), true
	}
	if rhs.Kind() == syntax.NameExpr && isNullLiteral_(lhs) {
		return identifierText(rhs), true
	}
	return "", false
}

func isNullLiteral_(n *syntax.Red) bool {
	if n.Kind() != syntax.LiteralExpr {
		return false
	}
	for _, rc := range n.Children() {
		if rc.Token != nil && rc.Token.Kind == syntax.TokenKind(lexer.NullLiteral) {
			return true
		}
	}
	return false
}

// exprNullState computes the null state an assignment's/initializer's
// right-hand side produces: `null` itself, a `new` expression (always
// non-null), a plain name (whatever env currently says), anything else
// (method calls, field reads) is Unknown absent return-type annotations.
func exprNullState(expr *syntax.Red, env nullEnv) NullState {
	if expr == nil {
		return Unknown
	}
	switch expr.Kind() {
	case syntax.LiteralExpr:
		if isNullLiteral_(expr) {
			return Null
		}
		return NonNull
	case syntax.NewExpr, syntax.NewArrayExpr:
		return NonNull
	case syntax.NameExpr:
		if s, ok := env[identifierText(expr)]; ok {
			return s
		}
		return Unknown
	case syntax.ParenExpr:
		return exprNullState(lastNodeChild(expr), env)
	default:
		return Unknown
	}
}

// checkExpr walks expr for a field access or call whose receiver is a
// local currently known Null, flagging a likely NullPointerException.
func (w *nullWalker) checkExpr(expr *syntax.Red, env nullEnv) {
	if expr == nil {
		return
	}
	hasDot := func(r *syntax.Red) bool {
		for _, rc := range r.Children() {
			if rc.Token != nil && rc.Token.Kind == syntax.TokenKind(lexer.Dot) {
				return true
			}
		}
		return false
	}
	syntax.Walk(expr, func(n *syntax.Red) bool {
		var receiver *syntax.Red
		switch n.Kind() {
		case syntax.FieldAccessExpr, syntax.CallExpr:
			children := n.NodeChildren()
			if len(children) > 0 && !hasDot(children[0]) {
				receiver = children[0]
			}
		case syntax.NameExpr:
			// The parser keeps a dotted name, call arguments included
			// (`s.length()`), as one NameExpr; its first segment is the
			// dereferenced receiver.
			if hasDot(n) {
				receiver = n
			}
		}
		if receiver != nil && receiver.Kind() == syntax.NameExpr {
			name := identifierText(receiver)
			if env[name] == Null {
				start, end := receiver.Range()
				w.out = append(w.out, diag.Diagnostic{
					File:     w.file,
					Range:    diag.Range{Start: start, End: end},
					Severity: diag.SeverityWarning,
					Code:     diag.CodePossibleNullDeref,
					Message:  "possible null dereference of " + name,
				})
			}
		}
		return true
	})
}
