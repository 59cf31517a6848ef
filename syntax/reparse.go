package syntax

import "github.com/termfx/nova/lexer"

// Edit describes a single textual replacement: the half-open byte
// range [Start, End) in the OLD source is replaced by NewText.
type Edit struct {
	Start, End int
	NewText    string
}

// Reparse incrementally updates a parsed file for a single edit by
// finding the smallest enclosing Block, reparsing only that block's new
// text, and splicing the resulting green subtree back into the
// unaffected surrounding tree by pointer — everything outside the
// block is structurally shared with old, unchanged. When no
// enclosing block exists (e.g. the edit lands in a signature or between
// top-level declarations) it falls back to a full reparse.
func Reparse(old *File, newSrc string, edit Edit) *File {
	ancestor := findSmallestReparsableAncestor(old.Root, edit.Start, edit.End)
	if ancestor == nil {
		return ParseFile(newSrc)
	}
	start, end := ancestor.Range()
	delta := len(edit.NewText) - (edit.End - edit.Start)
	newEnd := end + delta
	if start < 0 || newEnd > len(newSrc) || start > newEnd {
		return ParseFile(newSrc)
	}
	newText := newSrc[start:newEnd]
	newGreen, innerDiags := parseBlockStandalone(newText)
	if newGreen.Len != len(newText) {
		// The reparsed block didn't consume exactly its slice (can
		// happen if the edit changed brace balance across the
		// boundary) — fall back rather than splice something wrong.
		return ParseFile(newSrc)
	}
	newRoot := spliceReplace(ancestor, newGreen)
	return &File{
		Root:  NewRoot(newRoot),
		Diags: spliceDiagnostics(old.Diags, edit, innerDiags, start, end),
	}
}

func findSmallestReparsableAncestor(root *Red, editStart, editEnd int) *Red {
	var best *Red
	var walk func(r *Red)
	walk = func(r *Red) {
		s, e := r.Range()
		if editStart < s || editEnd > e {
			return
		}
		if r.Kind() == Block {
			best = r
		}
		for _, c := range r.NodeChildren() {
			walk(c)
		}
	}
	walk(root)
	return best
}

func parseBlockStandalone(text string) (*GreenNode, []Diagnostic) {
	toks := lexer.Lex(text)
	p := &parser{toks: toks, b: newBuilder()}
	p.parseBlock()
	return p.b.stack0Result(), p.b.diags
}

// spliceReplace walks from oldRed up to the tree root, rebuilding every
// ancestor GreenNode with newGreen substituted for oldRed's green node
// at the matching child slot. Every sibling subtree at every level is
// reused by pointer, not copied — only the spine from oldRed to the
// root allocates new nodes.
func spliceReplace(oldRed *Red, newGreen *GreenNode) *GreenNode {
	if oldRed.Parent == nil {
		return newGreen
	}
	parent := oldRed.Parent
	children := make([]GreenChild, len(parent.Green.Children))
	copy(children, parent.Green.Children)
	idx := -1
	for i, c := range parent.Green.Children {
		if node, ok := c.(*GreenNode); ok && node == oldRed.Green {
			idx = i
			break
		}
	}
	if idx < 0 {
		// Should not happen: oldRed was derived from parent.Children.
		return parent.Green
	}
	children[idx] = newGreen
	return spliceReplace(parent, NewGreenNode(parent.Green.Kind, children))
}

func spliceDiagnostics(old []Diagnostic, edit Edit, inner []Diagnostic, regionStart, regionOldEnd int) []Diagnostic {
	delta := len(edit.NewText) - (edit.End - edit.Start)
	var out []Diagnostic
	for _, d := range old {
		switch {
		case d.End <= regionStart:
			out = append(out, d)
		case d.Start >= regionOldEnd:
			out = append(out, Diagnostic{Start: d.Start + delta, End: d.End + delta, Message: d.Message})
		}
		// Diagnostics anywhere inside the reparsed region — not just the
		// edit itself — are superseded by the inner reparse and dropped,
		// or they would be reported twice.
	}
	for _, d := range inner {
		out = append(out, Diagnostic{Start: d.Start + regionStart, End: d.End + regionStart, Message: d.Message})
	}
	return out
}
