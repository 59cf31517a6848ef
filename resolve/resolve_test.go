package resolve

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/termfx/nova/internal/intern"
	"github.com/termfx/nova/syntax"
)

// buildScopesForSource is a small test harness: parse src, build the
// scope tree for its single top-level class, and return the builder plus
// file scope so individual tests can ask ScopeAt/Resolve questions.
func buildScopesForSource(t *testing.T, src string) (*Builder, *SymbolTable, *intern.Names, *syntax.File, *Scope) {
	t.Helper()
	file := syntax.ParseFile(src)
	require.Empty(t, file.Diags, "expected no syntax errors")

	names := intern.NewNames()
	symtab := NewSymbolTable()
	scopes := NewScopes()
	universe := scopes.Universe()
	pkg := scopes.NewPackage(universe)
	b := NewBuilder(scopes, symtab, names, intern.FileId(1))
	fileScope := b.BuildFile(file.Root, pkg, &FileImports{
		SingleImports:    map[intern.Name]intern.TypeId{},
		FileTypes:        map[intern.Name]intern.TypeId{},
		SamePackageTypes: map[intern.Name]intern.TypeId{},
		JavaLang:         map[intern.Name]intern.TypeId{},
	}, nil)
	return b, symtab, names, file, fileScope
}

// A method parameter shadows a same-named field.
func TestResolve_ParameterShadowsField(t *testing.T) {
	src := `class C {
  int x = 1;
  int f(int x) { int y = x; return y; }
}`
	b, symtab, names, file, fileScope := buildScopesForSource(t, src)

	yDecl := findIdentOffset(t, file, "y", 0)
	_, _, ancestors := syntax.TokenAtOffset(file.Root, yDecl)
	scopeAtY := b.ScopeAt(ancestors, fileScope)

	xName := names.Intern("x")
	res := Resolve(symtab, scopeAtY, xName)
	require.Equal(t, ResParameter, res.Kind)

	sym, ok := symtab.Lookup(res.Symbol)
	require.True(t, ok)
	require.Equal(t, KindParam, sym.Kind)
}

func TestResolve_FieldVisibleOutsideMethod(t *testing.T) {
	src := `class C {
  int x = 1;
  int f() { return x; }
}`
	b, symtab, names, file, fileScope := buildScopesForSource(t, src)

	retOffset := findIdentOffset(t, file, "x", 1) // second occurrence: inside f's return
	_, _, ancestors := syntax.TokenAtOffset(file.Root, retOffset)
	scope := b.ScopeAt(ancestors, fileScope)

	res := Resolve(symtab, scope, names.Intern("x"))
	require.Equal(t, ResMember, res.Kind)
}

func TestResolve_UnresolvedName(t *testing.T) {
	src := `class C { int f() { return q; } }`
	b, symtab, names, file, fileScope := buildScopesForSource(t, src)
	offset := findIdentOffset(t, file, "q", 0)
	_, _, ancestors := syntax.TokenAtOffset(file.Root, offset)
	scope := b.ScopeAt(ancestors, fileScope)

	res := Resolve(symtab, scope, names.Intern("q"))
	require.Equal(t, ResUnresolved, res.Kind)
	require.False(t, res.Ambiguous)
}

// findIdentOffset finds the nth (0-indexed) occurrence of an identifier
// token spelling text in file, returning its start offset.
func findIdentOffset(t *testing.T, file *syntax.File, text string, occurrence int) int {
	t.Helper()
	count := 0
	for _, rc := range syntax.Tokens(file.Root) {
		if rc.Token == nil || rc.Token.Text != text {
			continue
		}
		if count == occurrence {
			return rc.Start
		}
		count++
	}
	t.Fatalf("identifier %q occurrence %d not found", text, occurrence)
	return -1
}
