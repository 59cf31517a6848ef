package syntax

// Red is an ephemeral wrapper around a GreenNode that adds the one
// thing green trees deliberately omit: an absolute offset. Red nodes
// are built lazily while walking — never stored — so a single shared
// green tree can be "red-wrapped" at many different offsets (e.g. once
// per incremental reparse splice point) without copying.
type Red struct {
	Green  *GreenNode
	Offset int
	Parent *Red
}

// NewRoot wraps a green tree's root at offset 0 with no parent.
func NewRoot(green *GreenNode) *Red {
	return &Red{Green: green, Offset: 0, Parent: nil}
}

// Kind is the wrapped green node's syntax kind.
func (r *Red) Kind() Kind { return r.Green.Kind }

// Range returns the node's half-open absolute byte range [start, end).
func (r *Red) Range() (start, end int) { return r.Offset, r.Offset + r.Green.Len }

// Text reconstructs this node's exact source text.
func (r *Red) Text() string { return r.Green.Text() }

// RedChild is either a child *Red node or a child GreenToken wrapped
// with its absolute offset.
type RedChild struct {
	Node  *Red        // non-nil for a node child
	Token *GreenToken // non-nil for a token child
	Start int
}

// textLen reports the byte length of the underlying green child.
func (c *RedChild) textLen() int {
	if c.Node != nil {
		return c.Node.Green.Len
	}
	return len(c.Token.Text)
}

// Children lazily wraps each green child with its absolute offset.
func (r *Red) Children() []RedChild {
	out := make([]RedChild, 0, len(r.Green.Children))
	off := r.Offset
	for _, c := range r.Green.Children {
		switch v := c.(type) {
		case *GreenNode:
			out = append(out, RedChild{Node: &Red{Green: v, Offset: off, Parent: r}, Start: off})
		case *GreenToken:
			out = append(out, RedChild{Token: v, Start: off})
		}
		off += c.textLen()
	}
	return out
}

// NodeChildren returns only the node children, red-wrapped.
func (r *Red) NodeChildren() []*Red {
	var out []*Red
	for _, c := range r.Children() {
		if c.Node != nil {
			out = append(out, c.Node)
		}
	}
	return out
}

// TokenAtOffset returns the leaf token whose range contains offset, and
// the chain of red ancestor nodes from the root down to (excluding) the
// token itself.
func TokenAtOffset(root *Red, offset int) (*GreenToken, int, []*Red) {
	var ancestors []*Red
	cur := root
	for {
		ancestors = append(ancestors, cur)
		children := cur.Children()
		// Prefer a child that strictly contains offset; fall back to one
		// that merely touches it at a boundary (offset == start or end).
		var boundary *RedChild
		descended := false
		for i := range children {
			c := &children[i]
			start, end := c.Start, c.Start+c.textLen()
			if offset >= start && offset < end {
				if c.Node != nil {
					cur = c.Node
					descended = true
				} else {
					return c.Token, c.Start, ancestors
				}
				break
			}
			if offset == end {
				boundary = c
			}
		}
		if descended {
			continue
		}
		if boundary != nil {
			if boundary.Node != nil {
				cur = boundary.Node
				continue
			}
			return boundary.Token, boundary.Start, ancestors
		}
		return nil, 0, ancestors
	}
}

// NodeAt returns the innermost red node of the given Kind whose range
// contains offset, or nil.
func NodeAt(root *Red, offset int, kind Kind) *Red {
	_, _, ancestors := TokenAtOffset(root, offset)
	for i := len(ancestors) - 1; i >= 0; i-- {
		if ancestors[i].Kind() == kind {
			return ancestors[i]
		}
	}
	return nil
}
