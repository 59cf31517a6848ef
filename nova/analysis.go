package nova

import (
	"strings"

	"github.com/termfx/nova/internal/intern"
	"github.com/termfx/nova/itemtree"
	"github.com/termfx/nova/query"
	"github.com/termfx/nova/resolve"
	"github.com/termfx/nova/syntax"
	"github.com/termfx/nova/typesys"
	"github.com/termfx/nova/vfs"
)

// javaLangSimpleNames are the java.lang members FileImports.JavaLang
// seeds for every file scope. Kept short and uncontroversial rather than a full
// JDK stub: anything else degrades gracefully to a NamedClass placeholder
// the same way an unindexed library type already does.
var javaLangSimpleNames = []string{
	"Object", "String", "Integer", "Long", "Double", "Float", "Boolean",
	"Character", "Byte", "Short", "Void", "Math", "System", "Exception",
	"RuntimeException", "Throwable", "Error", "Iterable", "CharSequence",
	"Comparable", "Runnable", "Class", "Number", "StringBuilder",
}

// FileAnalysis is one file's fully built scope chain, declared symbols,
// and type checker state — the bundle every per-location query
// (symbol_at, resolve, type_of, resolve_method, diagnostics) reads
// from. It is itself a memoized query keyed on FileId: within one
// revision every per-location request reuses the same value, and after
// an edit only files whose own parse (or the shared workspace index)
// changed rebuild it.
type FileAnalysis struct {
	File      intern.FileId
	Tree      *syntax.File
	Items     *itemtree.Tree
	Index     *WorkspaceIndex
	Scopes    *resolve.Scopes
	FileScope *resolve.Scope
	Builder   *resolve.Builder
	Checker   *typesys.Checker
}

// Eq implements query.Value by identity: analyzeBody's own dependencies
// (parse, item tree, workspace index) decide staleness, so an unchanged
// analysis is always the very same pointer.
func (fa *FileAnalysis) Eq(v any) bool {
	o, ok := v.(*FileAnalysis)
	return ok && o == fa
}

// Analyze returns file's memoized FileAnalysis.
func (db *Database) Analyze(qctx *query.Ctx, file intern.FileId) (*FileAnalysis, error) {
	return db.analyzeFn.Get(qctx, file)
}

func (db *Database) analyzeBody(qctx *query.Ctx, file intern.FileId) (*FileAnalysis, error) {
	idx, err := db.WorkspaceIdx(qctx)
	if err != nil {
		return nil, err
	}
	tree, err := db.Parse(qctx, file)
	if err != nil {
		return nil, err
	}
	items, err := db.ItemTree(qctx, file)
	if err != nil {
		return nil, err
	}

	scopes := resolve.NewScopes()
	universe := scopes.Universe()
	pkgScope := scopes.NewPackage(universe)

	imports := db.buildFileImports(idx, items)

	builder := resolve.NewBuilder(scopes, db.Symtab, db.Names, file)
	fileScope := builder.BuildFile(tree.Root, pkgScope, imports, idx)

	checker := typesys.NewChecker(db.Types, idx, db.Symtab, db.Names)
	checker.Members = idx
	checker.DeclareTypes(builder, tree, file, fileScope)

	return &FileAnalysis{
		File: file, Tree: tree, Items: items, Index: idx, Scopes: scopes,
		FileScope: fileScope, Builder: builder, Checker: checker,
	}, nil
}

// parsePackageHeader strips itemtree's trivia-free "package...;" header
// text down to the dotted package name, the same style of literal-
// substring trimming resolve.ClassifyImports uses for import headers.
func parsePackageHeader(raw string) string {
	s := strings.TrimPrefix(raw, "package")
	return strings.TrimSuffix(s, ";")
}

// buildFileImports constructs the five lookup buckets resolve.Scope's
// file level consults, from this file's own item-tree
// imports plus idx's cross-file type catalogue.
func (db *Database) buildFileImports(idx *WorkspaceIndex, items *itemtree.Tree) *resolve.FileImports {
	fi := &resolve.FileImports{
		SingleImports:    map[intern.Name]intern.TypeId{},
		FileTypes:        map[intern.Name]intern.TypeId{},
		SamePackageTypes: map[intern.Name]intern.TypeId{},
		JavaLang:         map[intern.Name]intern.TypeId{},
	}
	for _, imp := range resolve.ClassifyImports(items.Imports) {
		if imp.Star {
			fi.StarImports = append(fi.StarImports, db.Packages.Intern(imp.Path))
			continue
		}
		if t, ok := idx.TypeByQualifiedName(imp.Path); ok {
			fi.SingleImports[db.Names.Intern(imp.SimpleName())] = t
		}
	}
	pkg := parsePackageHeader(items.Package)
	for _, it := range items.Items {
		qn := qualifiedName(pkg, it.Name)
		if t, ok := idx.TypeByQualifiedName(qn); ok {
			fi.FileTypes[db.Names.Intern(it.Name)] = t
		}
	}
	pkgID := db.Packages.Intern(pkg)
	if bucket, ok := idx.byPackage[pkgID]; ok {
		for name, t := range bucket {
			fi.SamePackageTypes[name] = t
		}
	}
	for _, simple := range javaLangSimpleNames {
		t := db.Types.NamedClass(db.Names.Intern("java.lang." + simple))
		fi.JavaLang[db.Names.Intern(simple)] = t
	}
	return fi
}

// LanguageLevelOrDefault reads a project's configured level, defaulting
// to Java 21 when unset.
func (db *Database) LanguageLevelOrDefault(vsnap *vfs.Snapshot) vfs.LanguageLevel {
	if lv, ok := vsnap.LanguageLevel(db.Project); ok {
		return lv
	}
	return vfs.LanguageLevel{Major: 21}
}
