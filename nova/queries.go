package nova

import (
	"github.com/termfx/nova/diag"
	"github.com/termfx/nova/flow"
	"github.com/termfx/nova/internal/intern"
	"github.com/termfx/nova/lexer"
	"github.com/termfx/nova/query"
	"github.com/termfx/nova/resolve"
	"github.com/termfx/nova/syntax"
	"github.com/termfx/nova/typesys"
)

// SymbolAt resolves the innermost name-like token covering offset to
// its Resolution.
func (db *Database) SymbolAt(qctx *query.Ctx, file intern.FileId, offset int) (resolve.Resolution, error) {
	fa, err := db.Analyze(qctx, file)
	if err != nil {
		return resolve.Unresolved, err
	}
	_, _, ancestors := fa.Tree.TokenAtOffset(offset)
	name, ok := identifierAt(fa.Tree, offset)
	if !ok {
		return resolve.Unresolved, nil
	}
	scope := fa.Builder.ScopeAt(ancestors, fa.FileScope)
	return resolve.Resolve(db.Symtab, scope, db.Names.Intern(name)), nil
}

// identifierAt returns the identifier token text covering offset, if any.
func identifierAt(f *syntax.File, offset int) (string, bool) {
	tok, _, _ := f.TokenAtOffset(offset)
	if tok == nil || tok.Kind != syntax.TokenKind(lexer.Identifier) {
		return "", false
	}
	return tok.Text, true
}

// TypeOf computes the type of the expression node covering offset.
func (db *Database) TypeOf(qctx *query.Ctx, file intern.FileId, offset int) (intern.TypeId, error) {
	fa, err := db.Analyze(qctx, file)
	if err != nil {
		return db.Types.Error(), err
	}
	node := exprNodeAt(fa.Tree.Root, offset)
	if node == nil {
		return db.Types.Error(), nil
	}
	_, _, ancestors := fa.Tree.TokenAtOffset(offset)
	scope := fa.Builder.ScopeAt(ancestors, fa.FileScope)
	return fa.Checker.TypeOf(node, scope), nil
}

// exprNodeAt finds the innermost expression-shaped node covering offset.
func exprNodeAt(root *syntax.Red, offset int) *syntax.Red {
	_, _, ancestors := syntax.TokenAtOffset(root, offset)
	for i := len(ancestors) - 1; i >= 0; i-- {
		if isExprKind(ancestors[i].Kind()) {
			return ancestors[i]
		}
	}
	return nil
}

func isExprKind(k syntax.Kind) bool {
	switch k {
	case syntax.LiteralExpr, syntax.NameExpr, syntax.ParenExpr, syntax.CastExpr,
		syntax.InstanceofExpr, syntax.UnaryExpr, syntax.PostfixExpr, syntax.BinaryExpr,
		syntax.ConditionalExpr, syntax.AssignExpr, syntax.NewExpr, syntax.NewArrayExpr,
		syntax.FieldAccessExpr, syntax.CallExpr, syntax.ThisExpr, syntax.LambdaExpr,
		syntax.MethodRefExpr:
		return true
	default:
		return false
	}
}

// ResolveMethod runs overload resolution for the call expression
// covering offset.
func (db *Database) ResolveMethod(qctx *query.Ctx, file intern.FileId, offset int, argTypes []intern.TypeId) (typesys.MethodResolution, error) {
	fa, err := db.Analyze(qctx, file)
	if err != nil {
		return typesys.MethodResolution{Kind: typesys.MethodNotFound}, err
	}
	node := exprNodeAt(fa.Tree.Root, offset)
	if node == nil || node.Kind() != syntax.CallExpr {
		return typesys.MethodResolution{Kind: typesys.MethodNotFound}, nil
	}
	name, ok := identifierAt(fa.Tree, offset)
	if !ok {
		return typesys.MethodResolution{Kind: typesys.MethodNotFound}, nil
	}
	_, _, ancestors := fa.Tree.TokenAtOffset(offset)
	scope := fa.Builder.ScopeAt(ancestors, fa.FileScope)
	res := resolve.Resolve(db.Symtab, scope, db.Names.Intern(name))
	if res.Kind != resolve.ResMember {
		return typesys.MethodResolution{Kind: typesys.MethodNotFound}, nil
	}
	sym, ok := db.Symtab.Lookup(res.Symbol)
	if !ok || sym.Kind != resolve.KindMethod {
		return typesys.MethodResolution{Kind: typesys.MethodNotFound}, nil
	}
	cand := typesys.Candidate{Symbol: res.Symbol, ParamTypes: argTypes}
	return db.Types.ResolveOverload(fa.Index, []typesys.Candidate{cand}, argTypes), nil
}

// Diagnostics runs diagnostics(File): syntax errors, flow
// findings over every executable body, and any active framework hook's
// contributions, merged into one list. It honors the memory manager's
// published degraded mode: under high pressure the per-body flow passes
// (the expensive part) are skipped, leaving syntax errors and framework
// hook contributions.
func (db *Database) Diagnostics(qctx *query.Ctx, file intern.FileId, classpath []string) ([]diag.Diagnostic, error) {
	fa, err := db.Analyze(qctx, file)
	if err != nil {
		return nil, err
	}
	var out []diag.Diagnostic
	for _, d := range fa.Tree.Diags {
		out = append(out, diag.Diagnostic{
			File: file, Range: diag.Range{Start: d.Start, End: d.End},
			Severity: diag.SeverityError, Code: diag.CodeSyntaxError, Message: d.Message,
		})
	}

	if !db.Memory.Degraded().SkipExpensiveDiagnostics {
		for _, body := range executableBodies(fa.Tree.Root) {
			out = append(out, db.flowDiagnostics(file, body)...)
		}
	}

	if hook := db.Framework; hook != nil {
		src := fa.Tree.Text()
		for _, h := range hook.Active(classpath) {
			out = append(out, h.Diagnostics(file, src)...)
		}
	}
	return out, nil
}

// executableBodies collects every method/constructor/initializer Block
// in the file, for per-body flow analysis.
func executableBodies(root *syntax.Red) []*syntax.Red {
	var bodies []*syntax.Red
	syntax.Walk(root, func(n *syntax.Red) bool {
		switch n.Kind() {
		case syntax.MethodDecl, syntax.ConstructorDecl:
			if b := syntax.FirstChildOfKind(n, syntax.Block); b != nil {
				bodies = append(bodies, b)
			}
		case syntax.InitializerBlock:
			if b := syntax.FirstChildOfKind(n, syntax.Block); b != nil {
				bodies = append(bodies, b)
			}
		}
		return true
	})
	return bodies
}

func (db *Database) flowDiagnostics(file intern.FileId, body *syntax.Red) []diag.Diagnostic {
	g := flow.Build(body)
	var out []diag.Diagnostic
	out = append(out, flow.Reachability(g, file)...)
	out = append(out, flow.DefiniteAssignment(g, file, paramNames(body))...)
	out = append(out, flow.Nullness(body, file, nil)...)
	return out
}

// paramNames reads the enclosing method/constructor's parameter names so
// DefiniteAssignment can seed them as already-assigned. body is a Block;
// its parent is the owning MethodDecl/ConstructorDecl.
func paramNames(body *syntax.Red) []string {
	owner := body.Parent
	if owner == nil {
		return nil
	}
	params := syntax.FirstChildOfKind(owner, syntax.ParamList)
	if params == nil {
		return nil
	}
	var names []string
	for _, p := range syntax.FindAll(params, syntax.Param) {
		for _, c := range p.Children() {
			if c.Token != nil && c.Token.Kind == syntax.TokenKind(lexer.Identifier) {
				names = append(names, c.Token.Text)
			}
		}
	}
	return names
}

// References finds every NameExpr in file resolving to the same Symbol
// as the declaration/use at offset, scoped to one file at a time — a
// workspace-wide caller iterates every tracked file through this same
// query.
func (db *Database) References(qctx *query.Ctx, file intern.FileId, offset int) ([]diag.Range, error) {
	fa, err := db.Analyze(qctx, file)
	if err != nil {
		return nil, err
	}
	target, err := db.SymbolAt(qctx, file, offset)
	if err != nil || target.Kind == resolve.ResUnresolved {
		return nil, err
	}
	var out []diag.Range
	syntax.Walk(fa.Tree.Root, func(n *syntax.Red) bool {
		if n.Kind() != syntax.NameExpr {
			return true
		}
		start, end := n.Range()
		name, ok := identifierAt(fa.Tree, start)
		if !ok {
			return true
		}
		_, _, ancestors := fa.Tree.TokenAtOffset(start)
		scope := fa.Builder.ScopeAt(ancestors, fa.FileScope)
		res := resolve.Resolve(db.Symtab, scope, db.Names.Intern(name))
		if res.Kind == target.Kind && res.Symbol != 0 && res.Symbol == target.Symbol {
			out = append(out, diag.Range{Start: start, End: end})
		}
		return true
	})
	return out, nil
}
