// Package itemtree extracts a per-file declaration skeleton from a
// parsed syntax tree: package, imports, and every type/member
// signature, with bodies and initializer expressions stripped out. It
// is the engine's early-cutoff boundary for anything coarser than a
// single declaration's body: editing inside a
// method never changes its owning file's Tree, so query.Func's
// early-cutoff check stops propagating recomputation right here.
package itemtree

import (
	"reflect"
	"strings"

	"github.com/termfx/nova/lexer"
	"github.com/termfx/nova/syntax"
)

// Item is one declaration's stable signature: its kind, name, and
// (for methods/fields) a normalized header text, plus nested members
// for container kinds (class/interface/enum/record/annotation). Supers
// holds a type declaration's extends/implements simple names and Params
// a method/constructor's parameter-type texts, both in declaration
// order, so cross-file hierarchy and member indexing can be driven
// entirely from the skeleton without touching the parse tree.
type Item struct {
	Kind     string
	Name     string
	Header   string
	Supers   []string
	Params   []string
	Children []*Item
}

// Tree is a whole file's item skeleton.
type Tree struct {
	Package string
	Imports []string
	Items   []*Item
}

// Eq implements query.Value: two Trees compare equal exactly when
// every declaration's kind/name/header/supers/params/children match,
// ignoring anything body-shaped entirely (it was never captured here).
func (t *Tree) Eq(other any) bool {
	o, ok := other.(*Tree)
	return ok && reflect.DeepEqual(t, o)
}

// Build walks a parsed file's syntax tree into its item skeleton.
func Build(file *syntax.File) *Tree {
	t := &Tree{}
	cu := file.Root
	if pkg := syntax.FirstChildOfKind(cu, syntax.PackageDecl); pkg != nil {
		t.Package = headerText(pkg)
	}
	for _, imp := range syntax.FindAll(cu, syntax.ImportDecl) {
		t.Imports = append(t.Imports, headerText(imp))
	}
	t.Items = buildMembers(cu)
	return t
}

func buildMembers(container *syntax.Red) []*Item {
	var items []*Item
	for _, c := range container.NodeChildren() {
		switch c.Kind() {
		case syntax.ClassDecl:
			items = append(items, buildTypeItem(c, "class"))
		case syntax.InterfaceDecl:
			items = append(items, buildTypeItem(c, "interface"))
		case syntax.EnumDecl:
			items = append(items, buildTypeItem(c, "enum"))
		case syntax.RecordDecl:
			items = append(items, buildTypeItem(c, "record"))
		case syntax.AnnotationDecl:
			items = append(items, buildTypeItem(c, "annotation"))
		case syntax.FieldDecl:
			items = append(items, buildFieldItems(c)...)
		case syntax.MethodDecl:
			items = append(items, buildMethodItem(c))
		case syntax.ConstructorDecl:
			items = append(items, buildCtorItem(c))
		case syntax.EnumConstant:
			items = append(items, &Item{Kind: "enum_constant", Name: firstIdentifier(c)})
		}
	}
	return items
}

func buildTypeItem(node *syntax.Red, kind string) *Item {
	body := syntax.FirstChildOfKind(node, syntax.ClassBody)
	var children []*Item
	if body != nil {
		children = buildMembers(body)
	}
	return &Item{
		Kind:     kind,
		Name:     firstIdentifier(node),
		Header:   headerSansBody(node),
		Supers:   superNames(node),
		Children: children,
	}
}

// superNames collects the extends clause's type names followed by the
// implements clause's, one simple name per TypeRef.
func superNames(node *syntax.Red) []string {
	var names []string
	for _, kind := range []syntax.Kind{syntax.ExtendsClause, syntax.ImplementsClause} {
		clause := syntax.FirstChildOfKind(node, kind)
		if clause == nil {
			continue
		}
		for _, tr := range syntax.FindAll(clause, syntax.TypeRef) {
			if n := firstIdentifier(tr); n != "" {
				names = append(names, n)
			}
		}
	}
	return names
}

// buildFieldItems splits a single FieldDecl (which may declare several
// comma-joined variables) into one Item per variable name, since each
// is independently referenceable.
func buildFieldItems(node *syntax.Red) []*Item {
	typeText := ""
	if tr := syntax.FirstChildOfKind(node, syntax.TypeRef); tr != nil {
		typeText = headerText(tr)
	}
	modsText := ""
	if m := syntax.FirstChildOfKind(node, syntax.Modifiers); m != nil {
		modsText = headerText(m)
	}
	var items []*Item
	if list := syntax.FirstChildOfKind(node, syntax.VariableDeclaratorList); list != nil {
		for _, d := range syntax.FindAll(list, syntax.VariableDeclarator) {
			items = append(items, &Item{
				Kind:   "field",
				Name:   firstIdentifier(d),
				Header: strings.TrimSpace(modsText + " " + typeText + " " + firstIdentifier(d)),
			})
		}
	}
	return items
}

func buildMethodItem(node *syntax.Red) *Item {
	return &Item{Kind: "method", Name: firstIdentifier(node), Header: headerSansBody(node), Params: paramTypeTexts(node)}
}

func buildCtorItem(node *syntax.Red) *Item {
	return &Item{Kind: "constructor", Name: firstIdentifier(node), Header: headerSansBody(node), Params: paramTypeTexts(node)}
}

// paramTypeTexts collects a method/constructor's parameter TypeRef
// texts, trivia stripped, in declaration order.
func paramTypeTexts(node *syntax.Red) []string {
	params := syntax.FirstChildOfKind(node, syntax.ParamList)
	if params == nil {
		return nil
	}
	var types []string
	for _, p := range syntax.FindAll(params, syntax.Param) {
		if tr := syntax.FirstChildOfKind(p, syntax.TypeRef); tr != nil {
			types = append(types, headerText(tr))
		}
	}
	return types
}

// firstIdentifier returns the first direct-child Identifier token's
// text — by construction (see syntax/members.go, syntax/parser.go) the
// declared name is always a direct token child, never nested deeper,
// of its Modifiers/TypeRef/ParamList/Block siblings.
func firstIdentifier(node *syntax.Red) string {
	for _, c := range node.Children() {
		if c.Token != nil && c.Token.Kind == syntax.TokenKind(lexer.Identifier) {
			return c.Token.Text
		}
	}
	return ""
}

// headerSansBody reconstructs node's source text, skipping any nested
// Block/ArrayInitializer/ClassBody, which is how method bodies and
// member lists stay out of the header. Whitespace and comments are
// stripped too, so reformatting alone never invalidates the item tree.
func headerSansBody(node *syntax.Red) string {
	var b strings.Builder
	var walk func(r *syntax.Red)
	walk = func(r *syntax.Red) {
		for _, c := range r.Children() {
			if c.Node != nil {
				switch c.Node.Kind() {
				case syntax.Block, syntax.ArrayInitializer, syntax.ClassBody:
					continue
				}
				walk(c.Node)
				continue
			}
			if !isTrivia(c.Token.Kind) {
				b.WriteString(c.Token.Text)
			}
		}
	}
	walk(node)
	return b.String()
}

// headerText reconstructs node's full text, stripping trivia only
// (used for package/import declarations and simple leaf groups that
// have no body to exclude).
func headerText(node *syntax.Red) string {
	var b strings.Builder
	var walk func(r *syntax.Red)
	walk = func(r *syntax.Red) {
		for _, c := range r.Children() {
			if c.Node != nil {
				walk(c.Node)
				continue
			}
			if !isTrivia(c.Token.Kind) {
				b.WriteString(c.Token.Text)
			}
		}
	}
	walk(node)
	return b.String()
}

func isTrivia(k syntax.Kind) bool {
	switch k {
	case syntax.TokenKind(lexer.Whitespace), syntax.TokenKind(lexer.LineComment),
		syntax.TokenKind(lexer.BlockComment), syntax.TokenKind(lexer.DocComment):
		return true
	default:
		return false
	}
}
