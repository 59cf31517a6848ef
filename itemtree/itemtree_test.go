package itemtree

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/termfx/nova/syntax"
)

func TestBuild_CapturesDeclarationSkeleton(t *testing.T) {
	src := `package com.example;
import java.util.List;
class C {
  private int x;
  public void f(int a) { return; }
  C() { this.x = 0; }
}
`
	tree := Build(syntax.ParseFile(src))
	assert.Contains(t, tree.Package, "com.example")
	require.Len(t, tree.Imports, 1)

	require.Len(t, tree.Items, 1)
	class := tree.Items[0]
	assert.Equal(t, "class", class.Kind)
	assert.Equal(t, "C", class.Name)

	var names []string
	for _, m := range class.Children {
		names = append(names, m.Name)
	}
	assert.ElementsMatch(t, []string{"x", "f", "C"}, names)
}

func TestBuild_EditingMethodBodyPreservesEquality(t *testing.T) {
	before := `class C { void f() { int x = 1; } }`
	after := `class C { void f() { int x = 999; } }`

	t1 := Build(syntax.ParseFile(before))
	t2 := Build(syntax.ParseFile(after))

	assert.True(t, t1.Eq(t2), "editing a method body must not change the item tree")
}

func TestBuild_EditingFieldInitializerPreservesEquality(t *testing.T) {
	before := `class C { int x = 1; }`
	after := `class C { int x = 2; }`

	t1 := Build(syntax.ParseFile(before))
	t2 := Build(syntax.ParseFile(after))

	assert.True(t, t1.Eq(t2), "editing a field initializer must not change the item tree")
}

func TestBuild_ChangingMethodSignatureChangesEquality(t *testing.T) {
	before := `class C { void f(int a) {} }`
	after := `class C { void f(int a, int b) {} }`

	t1 := Build(syntax.ParseFile(before))
	t2 := Build(syntax.ParseFile(after))

	assert.False(t, t1.Eq(t2), "changing a method's parameter list must change the item tree")
}

func TestBuild_ChangingModifiersChangesEquality(t *testing.T) {
	before := `class C { void f() {} }`
	after := `class C { public void f() {} }`

	t1 := Build(syntax.ParseFile(before))
	t2 := Build(syntax.ParseFile(after))

	assert.False(t, t1.Eq(t2), "adding a modifier must change the item tree")
}

func TestBuild_NestedTypesAndRecords(t *testing.T) {
	src := `class Outer {
  record Point(int x, int y) {}
  interface Greeter { String greet(); }
  enum Color { RED, GREEN }
  class Inner { int z; }
}`
	tree := Build(syntax.ParseFile(src))
	require.Len(t, tree.Items, 1)
	outer := tree.Items[0]
	kinds := map[string]string{}
	for _, c := range outer.Children {
		kinds[c.Name] = c.Kind
	}
	assert.Equal(t, "record", kinds["Point"])
	assert.Equal(t, "interface", kinds["Greeter"])
	assert.Equal(t, "enum", kinds["Color"])
	assert.Equal(t, "class", kinds["Inner"])
}

func TestBuild_MultiVariableFieldSplitsIntoSeparateItems(t *testing.T) {
	src := `class C { int a, b, c; }`
	tree := Build(syntax.ParseFile(src))
	class := tree.Items[0]
	var names []string
	for _, f := range class.Children {
		names = append(names, f.Name)
	}
	assert.ElementsMatch(t, []string{"a", "b", "c"}, names)
}
