package resolve

import "strings"

// ParsedImport is one import declaration's header text (as captured by
// itemtree), split into its dotted path and whether it is a star
// (on-demand) import.
type ParsedImport struct {
	Path   string // e.g. "java.util.List" or "java.util" for a star import
	Static bool
	Star   bool
}

// ClassifyImports parses itemtree.Tree.Imports header strings (e.g.
// "importjava.util.List;" post-trivia-stripped, or "importstaticjava.lang.Math.max;")
// into structured form for FileImports construction. Header text has had
// all whitespace/comments stripped by itemtree, so tokens run
// together; ClassifyImports re-splits on the keyword boundaries itemtree
// preserves as literal substrings.
func ClassifyImports(headers []string) []ParsedImport {
	out := make([]ParsedImport, 0, len(headers))
	for _, h := range headers {
		rest := strings.TrimPrefix(h, "import")
		static := false
		if strings.HasPrefix(rest, "static") {
			static = true
			rest = strings.TrimPrefix(rest, "static")
		}
		rest = strings.TrimSuffix(rest, ";")
		star := strings.HasSuffix(rest, ".*")
		rest = strings.TrimSuffix(rest, ".*")
		out = append(out, ParsedImport{Path: rest, Static: static, Star: star})
	}
	return out
}

// SimpleName returns an import path's final dotted segment — the simple
// type name a single-type import binds.
func (p ParsedImport) SimpleName() string {
	if i := strings.LastIndexByte(p.Path, '.'); i >= 0 {
		return p.Path[i+1:]
	}
	return p.Path
}
