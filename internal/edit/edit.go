// Package edit holds the small text-edit vocabulary a query result or a
// refactor-style facade operation returns, plus unified-diff rendering
// (difflib.UnifiedDiff) for showing an edit to a human. A WorkspaceEdit
// groups text edits by file; it carries no file-level operations
// (create, rename or delete).
package edit

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/termfx/nova/internal/intern"
)

// TextEdit replaces the byte range [Start, End) of one file's current
// text with NewText. Ranges are in the same offset space syntax.Red
// ranges use, so an edit produced against one snapshot's text is only
// valid against that same snapshot.
type TextEdit struct {
	Start, End int
	NewText    string
}

// WorkspaceEdit groups edits by file. Within a file, edits must be
// non-overlapping; Apply sorts them by start offset and copies the text
// front-to-back, so every edit's offsets refer to the original text.
type WorkspaceEdit struct {
	Files map[intern.FileId][]TextEdit
}

// NewWorkspaceEdit returns an empty edit ready for Add.
func NewWorkspaceEdit() *WorkspaceEdit {
	return &WorkspaceEdit{Files: make(map[intern.FileId][]TextEdit)}
}

// Add appends e to file's edit list.
func (w *WorkspaceEdit) Add(file intern.FileId, e TextEdit) {
	w.Files[file] = append(w.Files[file], e)
}

// Empty reports whether the edit touches no files.
func (w *WorkspaceEdit) Empty() bool {
	return len(w.Files) == 0
}

// Apply rewrites text according to file's edits, returning an error if
// any two edits overlap. Edits need not be given in order.
func Apply(text string, edits []TextEdit) (string, error) {
	sorted := append([]TextEdit(nil), edits...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Start < sorted[j].Start })

	var b strings.Builder
	cursor := 0
	for _, e := range sorted {
		if e.Start < cursor {
			return "", fmt.Errorf("edit: overlapping edit at offset %d", e.Start)
		}
		if e.Start > len(text) || e.End > len(text) || e.Start > e.End {
			return "", fmt.Errorf("edit: out-of-range edit [%d,%d) against %d-byte text", e.Start, e.End, len(text))
		}
		b.WriteString(text[cursor:e.Start])
		b.WriteString(e.NewText)
		cursor = e.End
	}
	b.WriteString(text[cursor:])
	return b.String(), nil
}

// RenderUnifiedDiff produces a standard unified diff between before and
// after, labeled with name on both sides (matching what a single-file
// patch with no rename looks like).
func RenderUnifiedDiff(name, before, after string, context int) (string, error) {
	if context <= 0 {
		context = 3
	}
	d := difflib.UnifiedDiff{
		A:        difflib.SplitLines(before),
		B:        difflib.SplitLines(after),
		FromFile: name,
		ToFile:   name,
		Context:  context,
	}
	return difflib.GetUnifiedDiffString(d)
}
