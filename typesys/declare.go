package typesys

import (
	"github.com/termfx/nova/internal/intern"
	"github.com/termfx/nova/resolve"
	"github.com/termfx/nova/syntax"
)

// IsVarTypeRef reports whether a TypeRef node is the contextual `var`
// keyword rather than a real type name.
func IsVarTypeRef(node *syntax.Red) bool {
	if node == nil || node.Kind() != syntax.TypeRef {
		return false
	}
	return firstIdentifierText(node) == "var" && syntax.FirstChildOfKind(node, syntax.TypeArgList) == nil
}

// DeclareTypes runs the bottom-up declaration-typing pass that fills in
// Checker.SymbolTypes/MethodReturnTypes for every field, parameter,
// local, and method declared in root: the companion pass to
// resolve.Builder.BuildFile, run afterward against the same tree so
// each declaration's Symbol (already interned by resolve) picks up its
// Type. fileID and
// fileScope must be the same values passed to BuildFile.
func (c *Checker) DeclareTypes(b *resolve.Builder, file *syntax.File, fileID intern.FileId, fileScope *resolve.Scope) {
	for _, top := range file.Root.NodeChildren() {
		switch top.Kind() {
		case syntax.ClassDecl, syntax.InterfaceDecl, syntax.EnumDecl, syntax.RecordDecl, syntax.AnnotationDecl:
			c.declareClass(b, file, fileID, fileScope, top)
		}
	}
}

func (c *Checker) declareClass(b *resolve.Builder, file *syntax.File, fileID intern.FileId, fileScope *resolve.Scope, class *syntax.Red) {
	body := syntax.FirstChildOfKind(class, syntax.ClassBody)
	if body == nil {
		return
	}
	for _, m := range body.NodeChildren() {
		switch m.Kind() {
		case syntax.FieldDecl:
			c.declareField(b, file, fileID, fileScope, m)
		case syntax.MethodDecl:
			c.declareMethod(b, file, fileID, fileScope, m)
		case syntax.ConstructorDecl:
			c.declareConstructor(b, file, fileID, fileScope, m)
		case syntax.ClassDecl, syntax.InterfaceDecl, syntax.EnumDecl, syntax.RecordDecl, syntax.AnnotationDecl:
			c.declareClass(b, file, fileID, fileScope, m)
		}
	}
}

func (c *Checker) scopeFor(b *resolve.Builder, file *syntax.File, node *syntax.Red, fileScope *resolve.Scope) *resolve.Scope {
	start, _ := node.Range()
	_, _, ancestors := syntax.TokenAtOffset(file.Root, start)
	return b.ScopeAt(ancestors, fileScope)
}

func (c *Checker) declareField(b *resolve.Builder, file *syntax.File, fileID intern.FileId, fileScope *resolve.Scope, node *syntax.Red) {
	tr := syntax.FirstChildOfKind(node, syntax.TypeRef)
	if tr == nil {
		return
	}
	for _, d := range syntax.FindAll(node, syntax.VariableDeclarator) {
		scope := c.scopeFor(b, file, d, fileScope)
		t := c.ResolveTypeRef(tr, scope)
		c.bindSymbol(fileID, d, t)
	}
}

func (c *Checker) declareMethod(b *resolve.Builder, file *syntax.File, fileID intern.FileId, fileScope *resolve.Scope, node *syntax.Red) {
	scope := c.scopeFor(b, file, node, fileScope)
	ret := syntax.FirstChildOfKind(node, syntax.TypeRef)
	c.bindSymbol(fileID, node, c.ResolveTypeRef(ret, scope))
	c.declareParams(b, file, fileID, fileScope, node)
	c.declareLocalsInBody(b, file, fileID, fileScope, node)
}

func (c *Checker) declareConstructor(b *resolve.Builder, file *syntax.File, fileID intern.FileId, fileScope *resolve.Scope, node *syntax.Red) {
	c.bindSymbol(fileID, node, c.In.Primitive(PrimVoid))
	c.declareParams(b, file, fileID, fileScope, node)
	c.declareLocalsInBody(b, file, fileID, fileScope, node)
}

func (c *Checker) declareParams(b *resolve.Builder, file *syntax.File, fileID intern.FileId, fileScope *resolve.Scope, node *syntax.Red) {
	params := syntax.FirstChildOfKind(node, syntax.ParamList)
	if params == nil {
		return
	}
	for _, p := range syntax.FindAll(params, syntax.Param) {
		tr := syntax.FirstChildOfKind(p, syntax.TypeRef)
		if tr == nil {
			continue
		}
		scope := c.scopeFor(b, file, p, fileScope)
		c.bindSymbol(fileID, p, c.ResolveTypeRef(tr, scope))
	}
}

// declareLocalsInBody walks a method/constructor's body statements,
// typing every LocalVarDecl and for-each loop variable it finds. A
// plain `var` TypeRef defers to the initializer's inferred type.
func (c *Checker) declareLocalsInBody(b *resolve.Builder, file *syntax.File, fileID intern.FileId, fileScope *resolve.Scope, node *syntax.Red) {
	body := syntax.FirstChildOfKind(node, syntax.Block)
	if body == nil {
		return
	}
	syntax.Walk(body, func(n *syntax.Red) bool {
		switch n.Kind() {
		case syntax.LocalVarDecl:
			c.declareLocalVarDecl(b, file, fileID, fileScope, n)
		case syntax.ForEachStmt:
			c.declareForEach(b, file, fileID, fileScope, n)
		}
		return true
	})
}

func (c *Checker) declareLocalVarDecl(b *resolve.Builder, file *syntax.File, fileID intern.FileId, fileScope *resolve.Scope, node *syntax.Red) {
	tr := syntax.FirstChildOfKind(node, syntax.TypeRef)
	for _, d := range syntax.FindAll(node, syntax.VariableDeclarator) {
		scope := c.scopeFor(b, file, d, fileScope)
		var t intern.TypeId
		switch {
		case tr != nil && IsVarTypeRef(tr):
			t = c.InferLocalType(d, scope)
		case tr != nil:
			t = c.ResolveTypeRef(tr, scope)
		default:
			t = c.In.Error()
		}
		c.bindSymbol(fileID, d, t)
	}
}

func (c *Checker) declareForEach(b *resolve.Builder, file *syntax.File, fileID intern.FileId, fileScope *resolve.Scope, node *syntax.Red) {
	tr := syntax.FirstChildOfKind(node, syntax.TypeRef)
	if tr == nil {
		return
	}
	scope := c.scopeFor(b, file, node, fileScope)
	iterExpr := firstExprChild(node)
	iterType := c.TypeOf(iterExpr, scope)
	var elemType intern.TypeId
	if IsVarTypeRef(tr) {
		elemType = c.InferForEachElementType(iterType)
	} else {
		elemType = c.ResolveTypeRef(tr, scope)
	}
	c.bindSymbol(fileID, node, elemType)
}

func (c *Checker) bindSymbol(fileID intern.FileId, node *syntax.Red, t intern.TypeId) {
	key := resolve.StableDeclKey(fileID, node)
	id, ok := c.Symtab.LookupKey(key)
	if !ok {
		return
	}
	switch node.Kind() {
	case syntax.MethodDecl, syntax.ConstructorDecl:
		c.MethodReturnTypes[id] = t
	default:
		c.SymbolTypes[id] = t
	}
}
