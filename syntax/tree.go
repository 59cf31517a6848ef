package syntax

// File is the typed entry point over a parsed compilation unit: the
// red root plus the diagnostics collected while building it.
type File struct {
	Root  *Red
	Diags []Diagnostic
}

// ParseFile parses src and wraps the resulting green tree in a red
// root, ready for offset-based queries.
func ParseFile(src string) *File {
	green, diags := Parse(src)
	return &File{Root: NewRoot(green), Diags: diags}
}

// TokenAtOffset finds the leaf token covering offset.
func (f *File) TokenAtOffset(offset int) (*GreenToken, int, []*Red) {
	return TokenAtOffset(f.Root, offset)
}

// NodeAt finds the innermost node of kind covering offset.
func (f *File) NodeAt(offset int, kind Kind) *Red {
	return NodeAt(f.Root, offset, kind)
}

// Text reconstructs the full source text from the tree — used to
// assert the lossless round-trip invariant.
func (f *File) Text() string { return f.Root.Text() }

// Walk performs a pre-order depth-first traversal over node (not
// token) descendants of r, calling visit for each including r itself.
// visit returns false to skip descending into that node's children.
func Walk(r *Red, visit func(*Red) bool) {
	if !visit(r) {
		return
	}
	for _, child := range r.NodeChildren() {
		Walk(child, visit)
	}
}

// FindAll collects every descendant node (including r) of the given
// kind, in document order.
func FindAll(r *Red, kind Kind) []*Red {
	var out []*Red
	Walk(r, func(n *Red) bool {
		if n.Kind() == kind {
			out = append(out, n)
		}
		return true
	})
	return out
}

// FirstChildOfKind returns r's first direct child node of kind, or nil.
func FirstChildOfKind(r *Red, kind Kind) *Red {
	for _, c := range r.NodeChildren() {
		if c.Kind() == kind {
			return c
		}
	}
	return nil
}

// Tokens returns every leaf token under r, in document order, paired
// with its absolute start offset.
func Tokens(r *Red) []RedChild {
	var out []RedChild
	var walk func(n *Red)
	walk = func(n *Red) {
		for _, c := range n.Children() {
			if c.Node != nil {
				walk(c.Node)
			} else {
				out = append(out, c)
			}
		}
	}
	walk(r)
	return out
}
