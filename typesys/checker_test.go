package typesys

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/termfx/nova/internal/intern"
	"github.com/termfx/nova/resolve"
	"github.com/termfx/nova/syntax"
)

// buildChecked parses src, builds its scope tree, runs the declaration
// typing pass, and returns everything a test needs to ask type_of
// questions against specific offsets.
func buildChecked(t *testing.T, src string) (*Checker, *resolve.Builder, *syntax.File, *resolve.Scope, *intern.Names) {
	t.Helper()
	file := syntax.ParseFile(src)
	require.Empty(t, file.Diags)

	names := intern.NewNames()
	symtab := resolve.NewSymbolTable()
	scopes := resolve.NewScopes()
	universe := scopes.Universe()
	pkg := scopes.NewPackage(universe)
	b := resolve.NewBuilder(scopes, symtab, names, intern.FileId(1))
	fileScope := b.BuildFile(file.Root, pkg, &resolve.FileImports{
		SingleImports:    map[intern.Name]intern.TypeId{},
		FileTypes:        map[intern.Name]intern.TypeId{},
		SamePackageTypes: map[intern.Name]intern.TypeId{},
		JavaLang:         map[intern.Name]intern.TypeId{},
	}, nil)

	in := NewInterner(names)
	checker := NewChecker(in, nil, symtab, names)
	checker.DeclareTypes(b, file, intern.FileId(1), fileScope)
	return checker, b, file, fileScope, names
}

func findOffset(t *testing.T, file *syntax.File, text string, occurrence int) int {
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
	t.Fatalf("token %q occurrence %d not found", text, occurrence)
	return -1
}

func scopeAtOffset(t *testing.T, b *resolve.Builder, file *syntax.File, fileScope *resolve.Scope, offset int) *resolve.Scope {
	t.Helper()
	_, _, ancestors := syntax.TokenAtOffset(file.Root, offset)
	return b.ScopeAt(ancestors, fileScope)
}

func TestDeclareTypes_FieldDeclaredType(t *testing.T) {
	src := `class C { int x = 1; int f() { return x; } }`
	c, b, file, fileScope, names := buildChecked(t, src)

	offset := findOffset(t, file, "x", 1) // inside return x;
	scope := scopeAtOffset(t, b, file, fileScope, offset)

	res := resolve.Resolve(c.Symtab, scope, names.Intern("x"))
	require.Equal(t, resolve.ResMember, res.Kind)

	typ, ok := c.SymbolTypes[res.Symbol]
	require.True(t, ok)
	pt, ok := c.In.Lookup(typ)
	require.True(t, ok)
	require.Equal(t, TagPrimitive, pt.Tag)
	require.Equal(t, PrimInt, pt.Primitive)
}

func TestDeclareTypes_VarLocalInfersInitializerType(t *testing.T) {
	src := `class C { void f() { int x = 5; var y = x; } }`
	c, b, file, fileScope, names := buildChecked(t, src)

	yOffset := findOffset(t, file, "y", 0)
	scope := scopeAtOffset(t, b, file, fileScope, yOffset)
	res := resolve.Resolve(c.Symtab, scope, names.Intern("y"))
	require.Equal(t, resolve.ResLocal, res.Kind)

	typ, ok := c.SymbolTypes[res.Symbol]
	require.True(t, ok)
	pt, ok := c.In.Lookup(typ)
	require.True(t, ok)
	require.Equal(t, TagPrimitive, pt.Tag)
	require.Equal(t, PrimInt, pt.Primitive, "var y = x infers int from x's declared type")
}

func TestDeclareTypes_MethodReturnType(t *testing.T) {
	src := `class C { int f() { return 1; } }`
	c, _, file, _, _ := buildChecked(t, src)
	_ = file

	var methodRet intern.TypeId
	for _, rt := range c.MethodReturnTypes {
		methodRet = rt
	}
	pt, ok := c.In.Lookup(methodRet)
	require.True(t, ok)
	require.Equal(t, TagPrimitive, pt.Tag)
	require.Equal(t, PrimInt, pt.Primitive)
}

func TestTypeOf_Literals(t *testing.T) {
	src := `class C { void f() { int a = 1; boolean b = true; } }`
	c, b, file, fileScope, _ := buildChecked(t, src)

	literals := syntax.FindAll(file.Root, syntax.LiteralExpr)
	require.Len(t, literals, 2)

	intStart, _ := literals[0].Range()
	intScope := scopeAtOffset(t, b, file, fileScope, intStart)
	intType := c.TypeOf(literals[0], intScope)
	pt, ok := c.In.Lookup(intType)
	require.True(t, ok)
	require.Equal(t, TagPrimitive, pt.Tag)
	require.Equal(t, PrimInt, pt.Primitive)

	boolStart, _ := literals[1].Range()
	boolScope := scopeAtOffset(t, b, file, fileScope, boolStart)
	boolType := c.TypeOf(literals[1], boolScope)
	pt, ok = c.In.Lookup(boolType)
	require.True(t, ok)
	require.Equal(t, TagPrimitive, pt.Tag)
	require.Equal(t, PrimBoolean, pt.Primitive)
}

func TestInferGenericCall_BindsFromArgument(t *testing.T) {
	names := intern.NewNames()
	in := NewInterner(names)

	tVar := in.TypeVar(names.Intern("T"))
	listDef := intern.TypeId(301)
	listOfT := in.intern(Type{Tag: TagClass, ClassDef: listDef, ClassName: names.Intern("List"), ClassArgs: []intern.TypeId{tVar}})
	stringT := in.NamedClass(names.Intern("String"))

	call := GenericCall{
		TypeParams: []intern.Name{names.Intern("T")},
		ParamTypes: []intern.TypeId{tVar},
		ReturnType: listOfT,
		ArgTypes:   []intern.TypeId{stringT},
	}
	result := in.InferGenericCall(call)
	rt, ok := in.Lookup(result)
	require.True(t, ok)
	require.Equal(t, TagClass, rt.Tag)
	require.Len(t, rt.ClassArgs, 1)
	require.Equal(t, stringT, rt.ClassArgs[0])
}

// The Collections.emptyList() shape: no argument constrains T, but the
// assignment target List<String> does, so the call's type is List<String>.
func TestInferGenericCall_TargetTypeBindsUnconstrainedVar(t *testing.T) {
	names := intern.NewNames()
	in := NewInterner(names)

	tVar := in.TypeVar(names.Intern("T"))
	listDef := intern.TypeId(303)
	listOfT := in.intern(Type{Tag: TagClass, ClassDef: listDef, ClassName: names.Intern("List"), ClassArgs: []intern.TypeId{tVar}})
	stringT := in.NamedClass(names.Intern("String"))
	listOfString := in.intern(Type{Tag: TagClass, ClassDef: listDef, ClassName: names.Intern("List"), ClassArgs: []intern.TypeId{stringT}})

	call := GenericCall{
		TypeParams: []intern.Name{names.Intern("T")},
		ParamTypes: nil,
		ReturnType: listOfT,
		ArgTypes:   nil,
		Target:     listOfString,
	}
	result := in.InferGenericCall(call)
	require.Equal(t, listOfString, result, "target List<String> must bind T=String")
}

func TestInferGenericCall_UnboundFallsBackToObject(t *testing.T) {
	names := intern.NewNames()
	in := NewInterner(names)

	tVar := in.TypeVar(names.Intern("T"))
	listDef := intern.TypeId(302)
	listOfT := in.intern(Type{Tag: TagClass, ClassDef: listDef, ClassName: names.Intern("List"), ClassArgs: []intern.TypeId{tVar}})

	call := GenericCall{
		TypeParams: []intern.Name{names.Intern("T")},
		ParamTypes: nil,
		ReturnType: listOfT,
		ArgTypes:   nil,
	}
	result := in.InferGenericCall(call)
	rt, ok := in.Lookup(result)
	require.True(t, ok)
	require.Len(t, rt.ClassArgs, 1)
	boundT, ok := in.Lookup(rt.ClassArgs[0])
	require.True(t, ok)
	require.Equal(t, "Object", in.NameText(boundT))
}
