package syntax

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_LosslessRoundTrip(t *testing.T) {
	srcs := []string{
		"package com.example;\n\nimport java.util.List;\n\nclass C {\n  int x = 1;\n  void f() { return; }\n}\n",
		"class C { void f() { for (int i = 0; i < 10; i++) { if (i % 2 == 0) continue; } } }",
		"record Point(int x, int y) { }",
		"interface I<T extends Comparable<T>> { T get(); }",
		"class C { void f() { var list = new java.util.ArrayList<String>(); list.<String>forEach(s -> s.trim()); } }",
	}
	for _, src := range srcs {
		f := ParseFile(src)
		assert.Equal(t, src, f.Text(), "parse tree must losslessly reproduce %q", src)
	}
}

func TestParse_TextLenInvariantHoldsThroughoutTree(t *testing.T) {
	src := "class C { int x; void f(int a, int b) { return a + b; } }"
	f := ParseFile(src)
	var check func(r *Red)
	check = func(r *Red) {
		sum := 0
		for _, c := range r.Children() {
			sum += c.textLen()
		}
		assert.Equal(t, r.Green.Len, sum, "node %v length must equal sum of children lengths", r.Kind())
		for _, c := range r.NodeChildren() {
			check(c)
		}
	}
	check(f.Root)
}

func TestParse_ErrorRecoveryIsolatesOneFieldInitializer(t *testing.T) {
	src := "class C { int x = ; void f() {} }"
	f := ParseFile(src)

	require.Len(t, f.Diags, 1)
	assert.Equal(t, src, f.Text())

	fields := FindAll(f.Root, FieldDecl)
	require.Len(t, fields, 1)
	errs := FindAll(fields[0], ErrorNode)
	require.Len(t, errs, 1)

	methods := FindAll(f.Root, MethodDecl)
	require.Len(t, methods, 1)
	assert.Empty(t, FindAll(methods[0], ErrorNode), "the method after the broken field must parse cleanly")
}

func TestParse_LessThanIsBinaryOperatorOutsideTypeContext(t *testing.T) {
	src := "class C { boolean f(int a, int b) { return a < b; } }"
	f := ParseFile(src)
	assert.Empty(t, f.Diags)
	bins := FindAll(f.Root, BinaryExpr)
	require.Len(t, bins, 1)
}

func TestParse_GenericTypeArgsCloseNestedAngleBrackets(t *testing.T) {
	src := "class C { java.util.List<java.util.List<String>> f() { return null; } }"
	f := ParseFile(src)
	assert.Empty(t, f.Diags)
	assert.Equal(t, src, f.Text())
}

func TestParse_LambdaVsParenthesizedExpr(t *testing.T) {
	f1 := ParseFile("class C { Runnable r = () -> {}; }")
	assert.Empty(t, f1.Diags)
	require.Len(t, FindAll(f1.Root, LambdaExpr), 1)

	f2 := ParseFile("class C { int x = (1 + 2); }")
	assert.Empty(t, f2.Diags)
	require.Len(t, FindAll(f2.Root, ParenExpr), 1)
	assert.Empty(t, FindAll(f2.Root, LambdaExpr))
}

func TestParse_CastVsParenthesizedExpr(t *testing.T) {
	f1 := ParseFile("class C { Object o = null; int x = (int) o; }")
	assert.Empty(t, f1.Diags)
	require.Len(t, FindAll(f1.Root, CastExpr), 1)

	f2 := ParseFile("class C { int x = (a) - b; }")
	assert.Empty(t, f2.Diags)
	assert.Empty(t, FindAll(f2.Root, CastExpr), "(a) - b must parse as a subtraction, not a cast")
}

func TestReparse_EditInsideBlockSharesUnrelatedSubtrees(t *testing.T) {
	src := "class C { void f() { int x = 1; } void g() { int y = 2; } }"
	old := ParseFile(src)

	gBefore := FindAll(old.Root, MethodDecl)[1]
	gGreenBefore := gBefore.Green

	// Edit "1" -> "42" inside f's body.
	idx := indexOf(src, "1")
	edit := Edit{Start: idx, End: idx + 1, NewText: "42"}
	newSrc := src[:edit.Start] + edit.NewText + src[edit.End:]

	updated := Reparse(old, newSrc, edit)
	assert.Equal(t, newSrc, updated.Text())

	gAfter := FindAll(updated.Root, MethodDecl)[1]
	assert.Same(t, gGreenBefore, gAfter.Green, "method g's subtree must be reused by pointer, untouched by an edit inside method f")
}

func indexOf(s, sub string) int {
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			return i
		}
	}
	return -1
}

func TestFile_TokenAtOffsetAndNodeAt(t *testing.T) {
	src := "class C { int x; }"
	f := ParseFile(src)
	idx := indexOf(src, "x")
	tok, start, _ := f.TokenAtOffset(idx)
	require.NotNil(t, tok)
	assert.Equal(t, "x", tok.Text)
	assert.Equal(t, idx, start)

	field := f.NodeAt(idx, FieldDecl)
	require.NotNil(t, field)
	assert.Equal(t, FieldDecl, field.Kind())
}
