package resolve

import (
	"fmt"
	"strings"

	"github.com/termfx/nova/internal/intern"
	"github.com/termfx/nova/lexer"
	"github.com/termfx/nova/syntax"
)

// Builder walks one file's syntax tree, declaring every member, parameter,
// and local it finds into Scopes/SymbolTable as it goes, and remembers
// which Scope encloses every scope-introducing node so callers can find
// the scope chain for an arbitrary offset.
type Builder struct {
	scopes *Scopes
	symtab *SymbolTable
	names  *intern.Names
	file   intern.FileId
	byNode map[*syntax.Red]*Scope
}

// NewBuilder creates a Builder for one file's declarations.
func NewBuilder(scopes *Scopes, symtab *SymbolTable, names *intern.Names, file intern.FileId) *Builder {
	return &Builder{scopes: scopes, symtab: symtab, names: names, file: file, byNode: map[*syntax.Red]*Scope{}}
}

// ScopeAt returns the innermost built scope among ancestors (as returned
// by syntax.TokenAtOffset), falling back to fileScope if none of them
// introduced their own scope.
func (b *Builder) ScopeAt(ancestors []*syntax.Red, fileScope *Scope) *Scope {
	for i := len(ancestors) - 1; i >= 0; i-- {
		if sc, ok := b.byNode[ancestors[i]]; ok {
			return sc
		}
	}
	return fileScope
}

// BuildFile builds the class/method/block scope tree under root (a
// CompilationUnit) and returns the file scope.
func (b *Builder) BuildFile(root *syntax.Red, pkgScope *Scope, imports *FileImports, idx PackageIndex) *Scope {
	fileScope := b.scopes.NewFile(pkgScope, b.file, imports, idx)
	b.byNode[root] = fileScope
	for _, c := range root.NodeChildren() {
		switch c.Kind() {
		case syntax.ClassDecl, syntax.InterfaceDecl, syntax.EnumDecl, syntax.RecordDecl, syntax.AnnotationDecl:
			b.buildClass(c, fileScope)
		}
	}
	return fileScope
}

func (b *Builder) buildClass(node *syntax.Red, parent *Scope) *Scope {
	class := b.scopes.NewClass(parent)
	b.byNode[node] = class
	name := b.identName(node)
	class.OwnerSymbol = b.symtab.Declare(StableDeclKey(b.file, node), Symbol{
		Kind: KindType, Name: name, Origin: originOf(b.file, node),
	})

	body := syntax.FirstChildOfKind(node, syntax.ClassBody)
	if body == nil {
		return class
	}
	for _, m := range body.NodeChildren() {
		switch m.Kind() {
		case syntax.FieldDecl:
			b.buildField(m, class)
		case syntax.MethodDecl:
			b.buildMethod(m, class)
		case syntax.ConstructorDecl:
			b.buildConstructor(m, class)
		case syntax.ClassDecl, syntax.InterfaceDecl, syntax.EnumDecl, syntax.RecordDecl, syntax.AnnotationDecl:
			b.buildClass(m, class)
		case syntax.EnumConstant:
			nm := b.identName(m)
			sym := b.symtab.Declare(StableDeclKey(b.file, m), Symbol{Kind: KindField, Name: nm, Container: class.OwnerSymbol, Origin: originOf(b.file, m)})
			class.Declare(nm, sym)
		}
	}
	return class
}

func (b *Builder) buildField(node *syntax.Red, class *Scope) {
	for _, d := range syntax.FindAll(node, syntax.VariableDeclarator) {
		nm := b.identName(d)
		sym := b.symtab.Declare(StableDeclKey(b.file, d), Symbol{
			Kind: KindField, Name: nm, Container: class.OwnerSymbol, Origin: originOf(b.file, d),
		})
		class.Declare(nm, sym)
	}
}

func (b *Builder) buildMethod(node *syntax.Red, class *Scope) *Scope {
	nm := b.identName(node)
	sym := b.symtab.Declare(StableDeclKey(b.file, node), Symbol{
		Kind: KindMethod, Name: nm, Container: class.OwnerSymbol,
		Signature: headerSignature(node), Origin: originOf(b.file, node),
	})
	class.Declare(nm, sym)

	method := b.scopes.NewMethod(class)
	method.OwnerSymbol = sym
	b.byNode[node] = method
	b.declareParams(node, method, sym)

	if body := syntax.FirstChildOfKind(node, syntax.Block); body != nil {
		b.buildBlock(body, method)
	}
	return method
}

func (b *Builder) buildConstructor(node *syntax.Red, class *Scope) *Scope {
	nm := b.identName(node)
	sym := b.symtab.Declare(StableDeclKey(b.file, node), Symbol{
		Kind: KindMethod, Name: nm, Container: class.OwnerSymbol,
		Signature: headerSignature(node), Origin: originOf(b.file, node),
	})
	class.Declare(nm, sym)

	method := b.scopes.NewMethod(class)
	method.OwnerSymbol = sym
	b.byNode[node] = method
	b.declareParams(node, method, sym)

	if body := syntax.FirstChildOfKind(node, syntax.Block); body != nil {
		b.buildBlock(body, method)
	}
	return method
}

func (b *Builder) declareParams(node *syntax.Red, method *Scope, owner intern.SymbolId) {
	params := syntax.FirstChildOfKind(node, syntax.ParamList)
	if params == nil {
		return
	}
	for _, p := range syntax.FindAll(params, syntax.Param) {
		pn := b.identName(p)
		psym := b.symtab.Declare(NodeKey(b.file, p), Symbol{Kind: KindParam, Name: pn, Container: owner, Origin: originOf(b.file, p)})
		method.Declare(pn, psym)
	}
}

// buildBlock creates a new block scope for node and recursively walks its
// statement children, descending into nested scope-introducing
// constructs.
func (b *Builder) buildBlock(node *syntax.Red, parent *Scope) *Scope {
	block := b.scopes.NewBlock(parent)
	b.byNode[node] = block
	for _, c := range node.NodeChildren() {
		b.walkStmt(c, block)
	}
	return block
}

// walkStmt descends into one statement, declaring locals it introduces
// into cur and opening fresh block scopes for nested blocks, for-loops,
// and catch clauses — each gets its own scope so a loop/catch variable
// does not leak past its construct.
func (b *Builder) walkStmt(node *syntax.Red, cur *Scope) {
	switch node.Kind() {
	case syntax.Block:
		b.buildBlock(node, cur)
	case syntax.LocalVarDecl:
		for _, d := range syntax.FindAll(node, syntax.VariableDeclarator) {
			nm := b.identName(d)
			sym := b.symtab.Declare(NodeKey(b.file, d), Symbol{Kind: KindLocal, Name: nm, Origin: originOf(b.file, d)})
			cur.Declare(nm, sym)
		}
	case syntax.ForStmt:
		forScope := b.scopes.NewBlock(cur)
		b.byNode[node] = forScope
		for _, c := range node.NodeChildren() {
			b.walkStmt(c, forScope)
		}
	case syntax.ForEachStmt:
		forScope := b.scopes.NewBlock(cur)
		b.byNode[node] = forScope
		if nm := b.loopVarName(node); nm != 0 {
			sym := b.symtab.Declare(NodeKey(b.file, node), Symbol{Kind: KindLocal, Name: nm, Origin: originOf(b.file, node)})
			forScope.Declare(nm, sym)
		}
		for _, c := range node.NodeChildren() {
			if c.Kind() == syntax.TypeRef {
				continue
			}
			b.walkStmt(c, forScope)
		}
	case syntax.CatchClause:
		catchScope := b.scopes.NewBlock(cur)
		b.byNode[node] = catchScope
		if nm := b.catchVarName(node); nm != 0 {
			sym := b.symtab.Declare(NodeKey(b.file, node), Symbol{Kind: KindLocal, Name: nm, Origin: originOf(b.file, node)})
			catchScope.Declare(nm, sym)
		}
		for _, c := range node.NodeChildren() {
			b.walkStmt(c, catchScope)
		}
	default:
		for _, c := range node.NodeChildren() {
			b.walkStmt(c, cur)
		}
	}
}

// loopVarName extracts a for-each statement's loop variable name: the
// first direct Identifier token child after the TypeRef node child.
func (b *Builder) loopVarName(node *syntax.Red) intern.Name {
	seenType := false
	for _, c := range node.Children() {
		if c.Node != nil {
			if c.Node.Kind() == syntax.TypeRef {
				seenType = true
			}
			continue
		}
		if seenType && c.Token.Kind == syntax.TokenKind(lexer.Identifier) {
			return b.names.Intern(c.Token.Text)
		}
	}
	return 0
}

// catchVarName extracts a catch clause's exception variable name: the
// last direct Identifier token child (after one or more union TypeRefs).
func (b *Builder) catchVarName(node *syntax.Red) intern.Name {
	var last string
	for _, c := range node.Children() {
		if c.Token != nil && c.Token.Kind == syntax.TokenKind(lexer.Identifier) {
			last = c.Token.Text
		}
	}
	if last == "" {
		return 0
	}
	return b.names.Intern(last)
}

// identName returns node's first direct-child Identifier token, interned.
func (b *Builder) identName(node *syntax.Red) intern.Name {
	for _, c := range node.Children() {
		if c.Token != nil && c.Token.Kind == syntax.TokenKind(lexer.Identifier) {
			return b.names.Intern(c.Token.Text)
		}
	}
	return 0
}

func originOf(file intern.FileId, node *syntax.Red) Origin {
	start, end := node.Range()
	return Origin{File: file, Start: start, End: end}
}

// NodeKey produces a stable-enough symbol-table key from a node's byte
// range; real stability across edits comes from callers re-declaring
// under the same key when the item tree says the declaration didn't
// change (see itemtree's early-cutoff contract), not from this key alone.
// Exported so a later pass over the same tree (e.g. typesys's
// declaration-typing walk) can re-derive the same key a Symbol was
// interned under without re-declaring it.
func NodeKey(file intern.FileId, node *syntax.Red) string {
	start, end := node.Range()
	return fmt.Sprintf("f%d:%d:%d:%d", file, start, end, node.Kind())
}

// StableDeclKey keys type, field, and enum-constant declarations by
// their enclosing-type path and name instead of byte offsets, so the
// same SymbolId is produced whether the declaration is walked from the
// parse tree (Builder, typesys's declaration-typing pass) or from the
// item tree (the workspace index), and survives edits that only shift
// offsets. Body-local declarations (params, locals) fall back to
// NodeKey — they are rebuilt together with their body anyway.
func StableDeclKey(file intern.FileId, node *syntax.Red) string {
	switch node.Kind() {
	case syntax.ClassDecl, syntax.InterfaceDecl, syntax.EnumDecl, syntax.RecordDecl, syntax.AnnotationDecl:
		return TypeDeclKey(file, enclosingTypePath(node))
	case syntax.EnumConstant:
		return FieldDeclKey(file, enclosingTypePath(node.Parent), declNameText(node))
	case syntax.MethodDecl, syntax.ConstructorDecl:
		return MethodDeclKey(file, enclosingTypePath(node.Parent), declNameText(node), headerSignature(node))
	case syntax.VariableDeclarator:
		for p := node.Parent; p != nil; p = p.Parent {
			switch p.Kind() {
			case syntax.FieldDecl:
				return FieldDeclKey(file, enclosingTypePath(p), declNameText(node))
			case syntax.Block, syntax.LocalVarDecl:
				return NodeKey(file, node)
			}
		}
	}
	return NodeKey(file, node)
}

// TypeDeclKey is the symbol-table key for a type declaration at the
// given dot-joined nesting path (outermost type first, self last).
func TypeDeclKey(file intern.FileId, path string) string {
	return fmt.Sprintf("f%d:type:%s", file, path)
}

// FieldDeclKey is the symbol-table key for a field or enum constant
// named name inside the type at path.
func FieldDeclKey(file intern.FileId, path, name string) string {
	return fmt.Sprintf("f%d:field:%s.%s", file, path, name)
}

// MethodDeclKey is the symbol-table key for a method or constructor,
// disambiguated by its header signature.
func MethodDeclKey(file intern.FileId, path, name, signature string) string {
	return fmt.Sprintf("f%d:method:%s.%s%s", file, path, name, signature)
}

// enclosingTypePath joins the names of node's enclosing type
// declarations (including node itself, when it is one) with dots,
// outermost first.
func enclosingTypePath(node *syntax.Red) string {
	var names []string
	for n := node; n != nil; n = n.Parent {
		switch n.Kind() {
		case syntax.ClassDecl, syntax.InterfaceDecl, syntax.EnumDecl, syntax.RecordDecl, syntax.AnnotationDecl:
			names = append([]string{declNameText(n)}, names...)
		}
	}
	return strings.Join(names, ".")
}

func declNameText(node *syntax.Red) string {
	if node == nil {
		return ""
	}
	for _, c := range node.Children() {
		if c.Token != nil && c.Token.Kind == syntax.TokenKind(lexer.Identifier) {
			return c.Token.Text
		}
	}
	return ""
}

// headerSignature reconstructs a method/constructor's parameter-type
// list as a stable overload-disambiguating string (types only, names
// and trivia stripped) — byte-identical to the signature the workspace
// index derives from itemtree.Item.Params, so both walks intern the
// same method Symbol.
func headerSignature(node *syntax.Red) string {
	params := syntax.FirstChildOfKind(node, syntax.ParamList)
	if params == nil {
		return "()"
	}
	var parts []string
	for _, p := range syntax.FindAll(params, syntax.Param) {
		if tr := syntax.FirstChildOfKind(p, syntax.TypeRef); tr != nil {
			parts = append(parts, triviaStrippedText(tr))
		}
	}
	return "(" + strings.Join(parts, ",") + ")"
}

// triviaStrippedText concatenates node's token texts minus whitespace
// and comments.
func triviaStrippedText(node *syntax.Red) string {
	var b strings.Builder
	var walk func(r *syntax.Red)
	walk = func(r *syntax.Red) {
		for _, c := range r.Children() {
			if c.Node != nil {
				walk(c.Node)
				continue
			}
			switch c.Token.Kind {
			case syntax.TokenKind(lexer.Whitespace), syntax.TokenKind(lexer.LineComment),
				syntax.TokenKind(lexer.BlockComment), syntax.TokenKind(lexer.DocComment):
			default:
				b.WriteString(c.Token.Text)
			}
		}
	}
	walk(node)
	return b.String()
}
