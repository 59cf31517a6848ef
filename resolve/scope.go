package resolve

import (
	"github.com/termfx/nova/internal/intern"
)

// ScopeKind is a node's position in the scope chain:
// universe → package → imports → file → class → method/body → nested
// block.
type ScopeKind int

const (
	ScopeUniverse ScopeKind = iota
	ScopePackage
	ScopeFile
	ScopeClass
	ScopeMethod
	ScopeBlock
)

// FileImports holds the five lookup buckets file scope consults, in
// priority order: single-type imports, file-declared types,
// same-package types, star-import packages (resolved through a callback
// since package membership lives outside this file), and java.lang.
type FileImports struct {
	SingleImports    map[intern.Name]intern.TypeId
	FileTypes        map[intern.Name]intern.TypeId
	SamePackageTypes map[intern.Name]intern.TypeId
	StarImports      []intern.PackageId
	JavaLang         map[intern.Name]intern.TypeId
}

// PackageIndex resolves a (package, simple name) pair to a TypeId for
// star-import expansion. It is supplied by the caller (typically backed
// by a cross-file workspace index) rather than owned by this package,
// since the scope builder only ever sees one file at a time.
type PackageIndex interface {
	LookupType(pkg intern.PackageId, name intern.Name) (intern.TypeId, bool)
}

// Scope is one node of the linked scope tree. Declarations at a given
// level are stored as a slice per name to support method overloading;
// Resolve collapses that slice to a single Resolution or an ambiguity.
type Scope struct {
	ID             intern.ScopeId
	Kind           ScopeKind
	Parent         *Scope
	EnclosingClass *Scope
	EnclosingFile  intern.FileId

	names map[intern.Name][]intern.SymbolId

	// Supertypes is only meaningful for ScopeClass: the superclass scope
	// (if known) followed by implemented-interface scopes, in declaration
	// order, consulted for inherited members after own names miss —
	// class chain first, then interfaces, later ones lower priority.
	Supertypes []*Scope

	// File is only set for ScopeKind == ScopeFile.
	File *FileImports

	pkgIndex PackageIndex

	// OwnerSymbol is the SymbolId of the declaration this scope belongs
	// to: the class for ScopeClass, the method/constructor for
	// ScopeMethod. Zero for scope kinds with no single owning symbol.
	OwnerSymbol intern.SymbolId
}

// Scopes mints ScopeIds and owns every Scope node built for one snapshot.
// A fresh Scopes is typically built per query.Func invocation that needs
// scope chains (e.g. the resolve/type_of queries), not retained globally.
type Scopes struct {
	counter intern.Counter
	byID    map[intern.ScopeId]*Scope
}

// NewScopes creates an empty registry.
func NewScopes() *Scopes {
	return &Scopes{byID: make(map[intern.ScopeId]*Scope)}
}

func (s *Scopes) new(kind ScopeKind, parent *Scope) *Scope {
	sc := &Scope{ID: intern.ScopeId(s.counter.Next()), Kind: kind, Parent: parent, names: map[intern.Name][]intern.SymbolId{}}
	if parent != nil {
		sc.EnclosingFile = parent.EnclosingFile
		sc.EnclosingClass = parent.EnclosingClass
	}
	s.byID[sc.ID] = sc
	return sc
}

// ByID looks a previously built scope back up by id.
func (s *Scopes) ByID(id intern.ScopeId) (*Scope, bool) {
	sc, ok := s.byID[id]
	return sc, ok
}

// Universe creates the root scope: no parent, no declarations of its own
// (java.lang membership lives in each file scope's FileImports.JavaLang;
// Universe exists as the chain's terminator and the natural home for
// language-wide constants if ever needed).
func (s *Scopes) Universe() *Scope { return s.new(ScopeUniverse, nil) }

// NewPackage creates a package-level scope as Universe's child.
func (s *Scopes) NewPackage(universe *Scope) *Scope { return s.new(ScopePackage, universe) }

// NewFile creates a file scope under pkg, recording fileID and the
// import/type-lookup buckets a resolve call consults.
func (s *Scopes) NewFile(pkg *Scope, fileID intern.FileId, imports *FileImports, idx PackageIndex) *Scope {
	sc := s.new(ScopeFile, pkg)
	sc.EnclosingFile = fileID
	sc.File = imports
	sc.pkgIndex = idx
	return sc
}

// NewClass creates a class scope nested in parent (a file or outer class
// scope), with supertypes consulted for inherited members.
func (s *Scopes) NewClass(parent *Scope, supertypes...*Scope) *Scope {
	sc := s.new(ScopeClass, parent)
	sc.EnclosingClass = sc
	sc.Supertypes = supertypes
	return sc
}

// NewMethod creates a method/body scope (parameters) nested in a class
// scope.
func (s *Scopes) NewMethod(class *Scope) *Scope { return s.new(ScopeMethod, class) }

// NewBlock creates a nested block scope (locals) inside parent, which may
// itself be a method scope or another block scope.
func (s *Scopes) NewBlock(parent *Scope) *Scope { return s.new(ScopeBlock, parent) }

// Declare records sym's id as visible under name at this scope level.
func (sc *Scope) Declare(name intern.Name, id intern.SymbolId) {
	sc.names[name] = append(sc.names[name], id)
}

// DeclaredNames returns every name declared directly at this scope
// level, for completion candidate enumeration.
func (sc *Scope) DeclaredNames() []intern.Name {
	out := make([]intern.Name, 0, len(sc.names))
	for n := range sc.names {
		out = append(out, n)
	}
	return out
}

// ownNames looks up name declared directly at this scope level (no
// supertype or parent walk).
func (sc *Scope) ownNames(name intern.Name) ([]intern.SymbolId, bool) {
	ids, ok := sc.names[name]
	return ids, ok
}

// lookupMember walks sc's own names, then its Supertypes in declaration
// order (class chain before interfaces), depth-first — the inherited
// member search class scopes need.
func lookupMember(sc *Scope, name intern.Name) ([]intern.SymbolId, bool) {
	if ids, ok := sc.ownNames(name); ok {
		return ids, true
	}
	for _, sup := range sc.Supertypes {
		if ids, ok := lookupMember(sup, name); ok {
			return ids, true
		}
	}
	return nil, false
}
