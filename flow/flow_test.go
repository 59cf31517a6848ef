package flow

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/termfx/nova/diag"
	"github.com/termfx/nova/internal/intern"
	"github.com/termfx/nova/syntax"
)

func methodBody(t *testing.T, src string) *syntax.Red {
	t.Helper()
	file := syntax.ParseFile(src)
	require.Empty(t, file.Diags)
	methods := syntax.FindAll(file.Root, syntax.MethodDecl)
	require.NotEmpty(t, methods)
	body := syntax.FirstChildOfKind(methods[0], syntax.Block)
	require.NotNil(t, body)
	return body
}

// Definite assignment.
func TestDefiniteAssignment_UnassignedOnOnePath(t *testing.T) {
	body := methodBody(t, `class C { void f(boolean cond) { int x; if (cond) x = 1; return x; } }`)
	g := Build(body)
	diags := DefiniteAssignment(g, intern.FileId(1), []string{"cond"})
	require.Len(t, diags, 1)
	require.Equal(t, diag.CodeUnassigned, diags[0].Code)
}

func TestDefiniteAssignment_AssignedOnAllPaths(t *testing.T) {
	body := methodBody(t, `class C { void f(boolean cond) { int x; if (cond) x = 1; else x = 2; return x; } }`)
	g := Build(body)
	diags := DefiniteAssignment(g, intern.FileId(1), []string{"cond"})
	require.Empty(t, diags)
}

func TestDefiniteAssignment_InitializedLocal(t *testing.T) {
	body := methodBody(t, `class C { void f() { int x = 1; return x; } }`)
	g := Build(body)
	diags := DefiniteAssignment(g, intern.FileId(1), nil)
	require.Empty(t, diags)
}

func TestReachability_UnreachableAfterReturn(t *testing.T) {
	body := methodBody(t, `class C { void f() { return; int x = 1; } }`)
	g := Build(body)
	diags := Reachability(g, intern.FileId(1))
	require.Len(t, diags, 1)
	require.Equal(t, diag.CodeUnreachable, diags[0].Code)
}

func TestReachability_IfFalseDeadBranch(t *testing.T) {
	body := methodBody(t, `class C { void f() { if (false) { int x = 1; } int y = 2; } }`)
	g := Build(body)
	diags := Reachability(g, intern.FileId(1))
	require.Len(t, diags, 1)
}

func TestReachability_WhileTrueNoExitWithoutBreak(t *testing.T) {
	body := methodBody(t, `class C { void f() { while (true) { int x = 1; } } }`)
	g := Build(body)
	diags := Reachability(g, intern.FileId(1))
	require.Empty(t, diags)
}

func TestNullness_ExplicitNullComparisonGuardsDeref(t *testing.T) {
	body := methodBody(t, `class C { void f(String s) { if (s != null) { s.length(); } } }`)
	diags := Nullness(body, intern.FileId(1), map[string]NullState{"s": Unknown})
	require.Empty(t, diags)
}

func TestNullness_DerefAfterNullAssignment(t *testing.T) {
	body := methodBody(t, `class C { void f() { String s = null; s.length(); } }`)
	diags := Nullness(body, intern.FileId(1), nil)
	require.Len(t, diags, 1)
	require.Equal(t, diag.CodePossibleNullDeref, diags[0].Code)
}

func TestNullness_NewExpressionIsNonNull(t *testing.T) {
	body := methodBody(t, `class C { void f() { Object o = new Object(); o.toString(); } }`)
	diags := Nullness(body, intern.FileId(1), nil)
	require.Empty(t, diags)
}
