package nova

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/termfx/nova/diag"
	"github.com/termfx/nova/query"
	"github.com/termfx/nova/resolve"
	"github.com/termfx/nova/vfs"
)

// newTestDatabase builds a warm-start-free Database the way cmd/nova's
// buildWorkspace does, minus file discovery: tests feed files in directly
// with SetFile.
func newTestDatabase(t *testing.T) *Database {
	t.Helper()
	return New(vfs.NewProjectId(), 64<<20, nil, "", "", "")
}

func snapshotCtx(db *Database) *query.Ctx {
	qsnap, _ := db.Snapshot(context.Background())
	return query.NewCtx(qsnap)
}

// An edit confined to a method body must not change
// the file's item tree, so downstream cross-file analysis short-circuits
// on early cutoff.
func TestEditBodyPreservesItemTree(t *testing.T) {
	db := newTestDatabase(t)
	f1 := db.SetFile("C.java", "class C { int x; int f(){ return 1; } }")

	qctx := snapshotCtx(db)
	before, err := db.ItemTree(qctx, f1)
	require.NoError(t, err)

	db.SetFile("C.java", "class C { int x; int f(){ return 2; } }")

	qctx2 := snapshotCtx(db)
	after, err := db.ItemTree(qctx2, f1)
	require.NoError(t, err)

	require.True(t, before.Eq(after), "item tree must be unchanged by a method-body-only edit")
}

// A method-body-only edit must not re-run anything downstream of the
// item tree: the workspace index revalidates against structurally equal
// item trees and early-cuts, and every other file's analysis early-cuts
// behind it. The miss counters are the re-execution record.
func TestBodyEditEarlyCutoffSkipsIndexAndUnrelatedAnalyses(t *testing.T) {
	db := newTestDatabase(t)
	fc := db.SetFile("C.java", "class C { int x; int f(){ return 1; } }")
	fd := db.SetFile("D.java", "class D { int g(){ return 2; } }")

	qctx := snapshotCtx(db)
	_, err := db.Analyze(qctx, fc)
	require.NoError(t, err)
	_, err = db.Analyze(qctx, fd)
	require.NoError(t, err)

	_, idxMissesBefore := db.IndexStats()
	_, anMissesBefore := db.AnalysisStats()
	require.EqualValues(t, 1, idxMissesBefore, "one index build for the first snapshot")

	db.SetFile("C.java", "class C { int x; int f(){ return 2; } }")

	qctx2 := snapshotCtx(db)
	faC, err := db.Analyze(qctx2, fc)
	require.NoError(t, err)
	faD, err := db.Analyze(qctx2, fd)
	require.NoError(t, err)
	require.NotNil(t, faC)
	require.NotNil(t, faD)

	_, idxMissesAfter := db.IndexStats()
	_, anMissesAfter := db.AnalysisStats()
	require.Equal(t, idxMissesBefore, idxMissesAfter, "index must not rebuild for a body-only edit")
	require.Equal(t, anMissesBefore+1, anMissesAfter, "only the edited file's analysis re-runs")
}

// A malformed field initializer recovers locally —
// exactly one syntax error, and the method that follows parses clean.
func TestErrorRecoveryInsideClassBody(t *testing.T) {
	db := newTestDatabase(t)
	f1 := db.SetFile("C.java", "class C { int x = ; void f() {} }")

	qctx := snapshotCtx(db)
	ds, err := db.Diagnostics(qctx, f1, nil)
	require.NoError(t, err)

	var syntaxErrs int
	for _, d := range ds {
		if d.Code == diag.CodeSyntaxError {
			syntaxErrs++
		}
	}
	require.Equal(t, 1, syntaxErrs, "exactly one syntax error for the empty initializer, no cascade")
}

// A parameter shadows a same-named field; resolving
// the name inside the method must return the parameter, not the field.
func TestShadowingAndResolution(t *testing.T) {
	db := newTestDatabase(t)
	src := "class C {\n" +
		"  int x = 1;\n" +
		"  int f(int x) { int y = x; return y; }\n" +
		"}\n"
	f1 := db.SetFile("C.java", src)

	qctx := snapshotCtx(db)
	fa, err := db.Analyze(qctx, f1)
	require.NoError(t, err)

	offset := offsetOfOccurrence(t, src, "x", 2) // the "int y = x" use
	_, _, ancestors := fa.Tree.TokenAtOffset(offset)
	scope := fa.Builder.ScopeAt(ancestors, fa.FileScope)

	res := resolve.Resolve(db.Symtab, scope, db.Names.Intern("x"))
	require.Equal(t, resolve.ResParameter, res.Kind, "x inside f must resolve to the parameter, not the field")
}

// Definite assignment: reading x before every path
// assigns it is an error; once both branches of an if/else assign it, no
// diagnostic remains.
func TestDefiniteAssignmentDiagnostics(t *testing.T) {
	db := newTestDatabase(t)

	unassigned := "class C { void f(boolean cond) { int x; if (cond) { x = 1; } return; } }"
	f1 := db.SetFile("C.java", unassigned)
	qctx := snapshotCtx(db)
	ds, err := db.Diagnostics(qctx, f1, nil)
	require.NoError(t, err)
	require.False(t, hasCode(ds, diag.CodeUnassigned), "no read of x on this path yet")

	read := "class C { int f(boolean cond) { int x; if (cond) { x = 1; } return x; } }"
	f2 := db.SetFile("D.java", read)
	qctx2 := snapshotCtx(db)
	ds2, err := db.Diagnostics(qctx2, f2, nil)
	require.NoError(t, err)
	require.True(t, hasCode(ds2, diag.CodeUnassigned), "return x is reachable without x assigned on the else path")

	both := "class C { int f(boolean cond) { int x; if (cond) { x = 1; } else { x = 2; } return x; } }"
	f3 := db.SetFile("E.java", both)
	qctx3 := snapshotCtx(db)
	ds3, err := db.Diagnostics(qctx3, f3, nil)
	require.NoError(t, err)
	require.False(t, hasCode(ds3, diag.CodeUnassigned), "both branches assign x before the return")
}

// Cancelling one snapshot's in-flight query must not
// poison the query cache — a later snapshot produces the same result it
// would have without the earlier cancellation.
func TestCancellationDoesNotCacheAborted(t *testing.T) {
	db := newTestDatabase(t)
	f1 := db.SetFile("C.java", "class C { int f(){ return 1; } }")

	qsnapCancelled, _ := db.Snapshot(context.Background())
	qsnapCancelled.Cancel()
	_, err := db.Parse(query.NewCtx(qsnapCancelled), f1)
	require.Error(t, err, "a cancelled snapshot must abort in-flight queries")

	qsnap, _ := db.Snapshot(context.Background())
	tree, err := db.Parse(query.NewCtx(qsnap), f1)
	require.NoError(t, err)
	require.Empty(t, tree.Diags)
}

func hasCode(ds []diag.Diagnostic, code diag.Code) bool {
	for _, d := range ds {
		if d.Code == code {
			return true
		}
	}
	return false
}

// offsetOfOccurrence finds the byte offset of the nth (0-indexed)
// occurrence of an exact token substring in src — good enough for fixed
// single-char identifiers in small test sources.
func offsetOfOccurrence(t *testing.T, src, token string, occurrence int) int {
	t.Helper()
	count := 0
	for i := 0; i+len(token) <= len(src); i++ {
		if src[i:i+len(token)] != token {
			continue
		}
		// avoid matching inside a longer identifier
		if i > 0 && isIdentByte(src[i-1]) {
			continue
		}
		if i+len(token) < len(src) && isIdentByte(src[i+len(token)]) {
			continue
		}
		if count == occurrence {
			return i
		}
		count++
	}
	t.Fatalf("occurrence %d of %q not found in source", occurrence, token)
	return -1
}

func isIdentByte(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
}
